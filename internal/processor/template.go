package processor

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateProcessor renders a Go template string with the sprig functions.
type TemplateProcessor struct {
	options []string
}

// NewTemplateProcessor creates a new TemplateProcessor. Options are passed
// to template.Option, e.g. "missingkey=error".
func NewTemplateProcessor(options ...string) *TemplateProcessor {
	return &TemplateProcessor{options: options}
}

// Process renders a template string.
func (p *TemplateProcessor) Process(content string, data map[string]interface{}) (string, error) {
	t, err := template.New("").Option(p.options...).Funcs(sprig.TxtFuncMap()).Parse(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
