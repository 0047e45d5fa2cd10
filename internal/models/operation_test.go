package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryOperationHasDescriptor(t *testing.T) {
	for _, op := range AllOperations() {
		d, ok := Describe(op)
		require.True(t, ok, "missing descriptor for %s", op)
		assert.Equal(t, op, d.Operation)
		assert.NotEmpty(t, d.Label)
		assert.NotEmpty(t, d.PathTemplate)
	}
	assert.Len(t, Descriptors(), len(AllOperations()))
}

func TestParameterPolicy(t *testing.T) {
	brightness, _ := Describe(OpBrightness)
	require.True(t, brightness.RequiresParameter())
	assert.Equal(t, -100, brightness.Parameter.Min)
	assert.Equal(t, 100, brightness.Parameter.Max)

	blur, _ := Describe(OpBlur)
	require.True(t, blur.RequiresParameter())
	assert.Equal(t, 2, blur.Parameter.Min)
	assert.Equal(t, 10, blur.Parameter.Max)
	assert.True(t, blur.Parameter.Contains(blur.Parameter.Default))

	for _, op := range []Operation{OpGrayscale, OpRotateClockwise, OpRotateCounter, OpFlipHorizontal, OpFlipVertical} {
		d, _ := Describe(op)
		assert.False(t, d.RequiresParameter(), "%s should not take a parameter", op)
	}
}

func TestDescriptorPath(t *testing.T) {
	brightness, _ := Describe(OpBrightness)
	assert.Equal(t, "/api/process/brightness/50", brightness.Path(50))
	assert.Equal(t, "/api/process/brightness/-20", brightness.Path(-20))

	grayscale, _ := Describe(OpGrayscale)
	assert.Equal(t, "/api/process/grayscale", grayscale.Path(42))
}

func TestParseOperation(t *testing.T) {
	op, ok := ParseOperation(" Rotate-Clockwise ")
	assert.True(t, ok)
	assert.Equal(t, OpRotateClockwise, op)

	_, ok = ParseOperation("sharpen")
	assert.False(t, ok)
}

func TestAllOperationsReturnsCopy(t *testing.T) {
	ops := AllOperations()
	ops[0] = "mutated"
	assert.Equal(t, OpGrayscale, AllOperations()[0])
}

func TestNewImageArtifactCopiesData(t *testing.T) {
	data := []byte{1, 2, 3}
	a := NewImageArtifact(data, "image/png", "a.png")
	data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, a.Data)
	assert.EqualValues(t, 3, a.Size())

	var nilArtifact *ImageArtifact
	assert.Zero(t, nilArtifact.Size())
}

func TestDescriptorRangesCannotBeMutated(t *testing.T) {
	blur, _ := Describe(OpBlur)
	blur.Parameter.Min = -5
	blur.Parameter.Max = 500

	again, _ := Describe(OpBlur)
	assert.Equal(t, 2, again.Parameter.Min)
	assert.Equal(t, 10, again.Parameter.Max)

	for _, d := range Descriptors() {
		if d.Operation == OpBrightness {
			d.Parameter.Min = 0
		}
	}
	brightness, _ := Describe(OpBrightness)
	assert.Equal(t, -100, brightness.Parameter.Min)
}
