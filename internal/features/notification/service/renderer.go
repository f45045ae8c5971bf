package service

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/yuin/goldmark"

	"user-management-backend/internal/features/notification/models"
)

//go:embed templates/*.md
var templateFS embed.FS

var subjects = map[models.EventType]string{
	models.EventAccountVerification:          "Verify your email address",
	models.EventProfessionalStatusUpgraded:   "Your professional status has been upgraded",
	models.EventProfessionalStatusDowngraded: "Your professional status has been removed",
	models.EventAccountLocked:                "Your account has been locked",
	models.EventPasswordReset:                "Your password has been reset",
}

// Message is a rendered notification.
type Message struct {
	Subject string
	// Text is the filled markdown source, used for plain text mail and Telegram.
	Text string
	HTML string
}

// Renderer fills the markdown template of an event and converts it to HTML.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}
	for eventType := range subjects {
		if tmpl.Lookup(templateName(eventType)) == nil {
			return nil, fmt.Errorf("missing template for %s", eventType)
		}
	}
	return &Renderer{templates: tmpl, markdown: goldmark.New()}, nil
}

func (r *Renderer) Render(event *models.Event) (*Message, error) {
	subject, ok := subjects[event.Type]
	if !ok {
		return nil, fmt.Errorf("no template for event type %q", event.Type)
	}

	var text bytes.Buffer
	if err := r.templates.ExecuteTemplate(&text, templateName(event.Type), event); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", event.Type, err)
	}

	var html bytes.Buffer
	if err := r.markdown.Convert(text.Bytes(), &html); err != nil {
		return nil, fmt.Errorf("failed to convert %s to html: %w", event.Type, err)
	}

	return &Message{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func templateName(t models.EventType) string {
	return string(t) + ".md"
}
