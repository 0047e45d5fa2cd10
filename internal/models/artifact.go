package models

const (
	// CanonicalMIMEType is the type every processed image is normalized to.
	CanonicalMIMEType = "image/jpeg"
	ProcessedFilename = "processed.jpg"
	DownloadFilename  = "edited_image.jpg"
)

// ImageArtifact is one version of the image being edited: the selected
// original or the output of the last successful operation. Artifacts are
// never modified after construction; a new operation produces a new one.
type ImageArtifact struct {
	Data     []byte
	MIMEType string
	Filename string
}

// NewImageArtifact copies data so the caller's buffer can be reused.
func NewImageArtifact(data []byte, mimeType, filename string) *ImageArtifact {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &ImageArtifact{
		Data:     cp,
		MIMEType: mimeType,
		Filename: filename,
	}
}

func (a *ImageArtifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}
