package ui

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written response.
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template %s failed (data %T): %v", templateName, data, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("writing %s response: %v", templateName, err)
	}
}

// HTMX helpers
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// respond renders fragment for htmx requests and payload as JSON otherwise
func (s *Server) respond(c *gin.Context, fragment string, view interface{}, payload interface{}) {
	if isHTMX(c) {
		s.renderTemplate(c, http.StatusOK, fragment, view)
		return
	}
	c.JSON(http.StatusOK, payload)
}
