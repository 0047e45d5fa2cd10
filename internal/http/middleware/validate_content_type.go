package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireMultipart rejects uploads that are not multipart/form-data. Image
// type checks happen in the handlers once the file part is read.
func RequireMultipart() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"success": false,
				"error":   "Expected multipart/form-data with an image field",
			})
			return
		}

		ctx.Next()
	}
}
