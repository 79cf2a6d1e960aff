package ui

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin"
)

var templateFuncs = template.FuncMap{
	"slug": func(s string) string {
		return strings.ToLower(strings.NewReplacer(" ", "-", "/", "-").Replace(s))
	},
	"join": strings.Join,
}

// renderTemplate executes a template into a buffer first so errors never leave a
// half-written page
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("[Template] Rendering %s failed: %v", templateName, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(200)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("[Template] Error writing response: %v", err)
	}
}
