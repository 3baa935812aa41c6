package ui

import (
	"fmt"
	"net/http"

	"dataprobe/internal/errors"

	"github.com/gin-gonic/gin"
)

// limitBody caps request bodies at the configured upload size
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > s.config.MaxUploadBytes {
			c.Header("HX-Retarget", "#upload-status")
			s.fail(c, errors.DataFormatError(
				fmt.Sprintf("upload is larger than the %d MB limit", s.config.MaxUploadBytes>>20), nil))
			c.Abort()
			return
		}
		// multipart overhead gets a little headroom
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes+1<<20)
		c.Next()
	}
}
