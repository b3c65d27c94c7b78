package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

// pageRenderer holds the parsed page templates
type pageRenderer struct {
	page  *template.Template
	login *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	page, err := ParseTemplate("page.html")
	if err != nil {
		return nil, errors.Wrap(err, "[newPageRenderer] page.html")
	}
	login, err := ParseTemplate("login.html")
	if err != nil {
		return nil, errors.Wrap(err, "[newPageRenderer] login.html")
	}
	return &pageRenderer{page: page, login: login}, nil
}

func (p *pageRenderer) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("failed to render template")
	}
}
