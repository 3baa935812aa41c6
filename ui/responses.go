package ui

import (
	"net/http"

	"dataprobe/internal/errors"

	"github.com/gin-gonic/gin"
)

var errorTitles = map[string]string{
	errors.CodeDataFormat:      "Could not read the file",
	errors.CodeQueryEngine:     "The question could not be answered",
	errors.CodeQueryExpression: "Error in query",
	errors.CodeNotFound:        "Not found",
	errors.CodeInvalidInput:    "Nothing to do yet",
}

// statusFor maps error codes to HTTP statuses for JSON clients
func statusFor(code string) int {
	switch code {
	case errors.CodeDataFormat, errors.CodeQueryExpression, errors.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeQueryEngine:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail reports err at the action that triggered it. htmx requests get an
// inline error fragment with status 200 so the page swaps it in; other
// clients get {error, code} with a matching status.
func (s *Server) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		s.logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}

	if isHTMX(c) {
		title, ok := errorTitles[code]
		if !ok {
			title = "Something went wrong"
		}
		s.renderTemplate(c, http.StatusOK, "error.html", errorView{Title: title, Message: err.Error(), Code: code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
