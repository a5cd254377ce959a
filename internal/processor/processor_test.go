package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateProcessor(t *testing.T) {
	p := NewTemplateProcessor()
	content := "posts_images/{{ .ID }}.jpg"
	data := map[string]interface{}{
		"ID": "5129512623510153522",
	}
	processedContent, err := p.Process(content, data)
	assert.NoError(t, err)
	assert.Equal(t, "posts_images/5129512623510153522.jpg", processedContent)
}

func TestTemplateProcessor_SprigFunctions(t *testing.T) {
	p := NewTemplateProcessor()
	processedContent, err := p.Process(`{{ .ID | trunc 4 }}/{{ .ID }}.jpg`, map[string]interface{}{"ID": "123456"})
	assert.NoError(t, err)
	assert.Equal(t, "1234/123456.jpg", processedContent)
}

func TestTemplateProcessor_MissingKey(t *testing.T) {
	p := NewTemplateProcessor("missingkey=error")
	_, err := p.Process("{{ .Nope }}.jpg", map[string]interface{}{"ID": "1"})
	assert.Error(t, err)
}

func TestTemplateProcessor_ParseError(t *testing.T) {
	p := NewTemplateProcessor()
	_, err := p.Process("{{ .ID ", nil)
	assert.Error(t, err)
}

func TestSanitizeProcessor(t *testing.T) {
	p := NewSanitizeProcessor()

	t.Run("removes scripts", func(t *testing.T) {
		out, err := p.Process("<strong>x</strong><script>alert(1)</script>", nil)
		assert.NoError(t, err)
		assert.Equal(t, "<strong>x</strong>", out)
	})

	t.Run("removes event handlers", func(t *testing.T) {
		out, err := p.Process(`<a href="https://example.com" onclick="steal()">e</a>`, nil)
		assert.NoError(t, err)
		assert.NotContains(t, out, "onclick")
		assert.Contains(t, out, `href="https://example.com"`)
	})

	t.Run("keeps rendered markup", func(t *testing.T) {
		rendered := RenderBBCode("[center][u]Hi[/u][/center] [previewyoutube=abc;full][/previewyoutube]")
		out, err := p.Process(rendered, nil)
		assert.NoError(t, err)
		assert.Contains(t, out, "<u>Hi</u>")
		assert.Contains(t, out, "text-align")
		assert.Contains(t, out, "<iframe")
		assert.Contains(t, out, "https://www.youtube.com/embed/abc")
	})
}

type failingProcessor struct{}

func (failingProcessor) Process(string, map[string]interface{}) (string, error) {
	return "", errors.New("boom")
}

func TestProcessorStack(t *testing.T) {
	stack := ProcessorStack{
		NewTemplateProcessor(),
		NewTagRewriter(),
		NewCleanupLinker(),
	}
	content := "[b]Hello, {{ .Name }}![/b]"
	data := map[string]interface{}{
		"Name": "World",
	}
	processedContent, err := stack.Process(content, data)
	assert.NoError(t, err)
	assert.Equal(t, "<strong>Hello, World!</strong>", processedContent)
}

func TestProcessorStack_StopsOnError(t *testing.T) {
	stack := ProcessorStack{
		NewTagRewriter(),
		failingProcessor{},
		NewCleanupLinker(),
	}
	_, err := stack.Process("[b]x[/b]", nil)
	assert.EqualError(t, err, "boom")
}

func TestProcessorStack_Empty(t *testing.T) {
	out, err := ProcessorStack{}.Process("[b]x[/b]", nil)
	assert.NoError(t, err)
	assert.Equal(t, "[b]x[/b]", out)
}
