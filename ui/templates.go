package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"heartdash/internal/dashboard"
)

// Page is the data passed to dashboard.html
type Page struct {
	*dashboard.View

	// InlineCSS embeds the stylesheet instead of linking /static, for
	// snapshots opened straight from disk.
	InlineCSS bool
}

// ErrorPage is the data passed to error.html
type ErrorPage struct {
	Title     string
	Status    int
	Code      string
	Message   string
	RequestID string
}

// Pages renders the embedded HTML templates
type Pages struct {
	templates *template.Template
}

// NewPages parses the embedded templates
func NewPages() (*Pages, error) {
	funcMap := template.FuncMap{
		"num": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"rate": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("%.1f%%", *v*100)
		},
		"label": func(s string) string {
			return strings.ReplaceAll(s, "_", " ")
		},
		"stylesheet": func() (template.CSS, error) {
			css, err := embeddedFiles.ReadFile("static/css/dashboard.css")
			if err != nil {
				return "", err
			}
			return template.CSS(css), nil
		},
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Pages{templates: templates}, nil
}

// Dashboard writes the full dashboard page
func (p *Pages) Dashboard(w io.Writer, page Page) error {
	return p.execute(w, "dashboard.html", page)
}

func (p *Pages) execute(w io.Writer, name string, data interface{}) error {
	// Render to a buffer first so a failing template never leaves half a page
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("</html>")) {
		log.Printf("WARNING: Rendered template %s appears truncated - missing </html> tag", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// renderTemplate executes a template with the given data and status
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages.execute(&buf, name, data); err != nil {
		log.Printf("Template error for %s: %v", name, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}
