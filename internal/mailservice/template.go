package mailservice

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

//go:embed templates/*
var templateFS embed.FS

// Each template file defines these three blocks.
var templateBlocks = [...]string{"subject", "plainBody", "htmlBody"}

// Rendered is an email ready to be handed to a dialer.
type Rendered struct {
	Subject string
	Plain   string
	HTML    string
}

// Template parses embedded templates on first use and keeps them for later renders.
type Template struct {
	mu     sync.RWMutex
	parsed map[string]*template.Template
}

func NewTemplate() *Template {
	return &Template{parsed: make(map[string]*template.Template)}
}

func (tp *Template) lookup(name string) (*template.Template, error) {
	tp.mu.RLock()
	t, ok := tp.parsed[name]
	tp.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := template.New(name).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("could not parse template %s: %w", name, err)
	}

	tp.mu.Lock()
	tp.parsed[name] = t
	tp.mu.Unlock()

	return t, nil
}

// Render executes the subject, plainBody and htmlBody blocks of the named template.
func (tp *Template) Render(name string, data any) (*Rendered, error) {
	t, err := tp.lookup(name)
	if err != nil {
		return nil, err
	}

	var out [len(templateBlocks)]string
	for i, block := range templateBlocks {
		var sb strings.Builder
		if err := t.ExecuteTemplate(&sb, block, data); err != nil {
			return nil, fmt.Errorf("could not render %s of %s: %w", block, name, err)
		}
		out[i] = sb.String()
	}

	return &Rendered{Subject: strings.TrimSpace(out[0]), Plain: out[1], HTML: out[2]}, nil
}
