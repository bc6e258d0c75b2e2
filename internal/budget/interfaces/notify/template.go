package notify

import (
	"bytes"
	"errors"
	"text/template"

	"github.com/ucdavis/iwfm-sub003/internal/budget/application"
)

// DefaultTemplate renders a finished run.
const DefaultTemplate = `[Zone Budget {{.Status}}]
Run: {{.RunID}}
Zone File: {{.ZoneFile}}
Source: {{.Source}}
Zones: {{.Zones}}
Timesteps: {{.Timesteps}}
Diagnostics: {{.Diagnostics}}
{{- range .Skipped }}
  layer {{.Layer}} {{.Label}}: {{.Reason}}{{ if .Detail }} ({{.Detail}}){{ end }}
{{- end }}
{{- range .Files }}
File: {{.}}
{{- end }}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	Status      string
	RunID       string
	ZoneFile    string
	Source      string
	Zones       int
	Timesteps   int
	Diagnostics int
	Skipped     []SkippedData
	Files       []string
}

// SkippedData is one diagnostic line.
type SkippedData struct {
	Layer  int
	Label  string
	Reason string
	Detail string
}

// NewTemplateData flattens a run event for rendering.
func NewTemplateData(event application.RunEvent) TemplateData {
	data := TemplateData{Status: "OK", Files: event.Files}
	run := event.Run
	if run == nil {
		return data
	}
	data.RunID = run.ID
	data.ZoneFile = run.ZoneFile
	data.Source = run.Source
	data.Zones = len(run.Tables)
	data.Timesteps = len(run.Timesteps)
	data.Diagnostics = len(run.Diagnostics)
	if len(run.Diagnostics) > 0 {
		data.Status = "WARN"
	}
	for _, d := range run.Diagnostics {
		data.Skipped = append(data.Skipped, SkippedData{Layer: d.Layer, Label: d.Label, Reason: d.Reason, Detail: d.Detail})
	}
	return data
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("run-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("run template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
