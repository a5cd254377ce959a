package cover

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/andrewhowdencom/newsrender/internal/processor"
)

// DefaultPathTemplate places covers under posts_images/, named by gid.
const DefaultPathTemplate = "posts_images/{{ .ID }}.jpg"

// ErrUnsafePath is returned when a rendered cover path leaves the media root.
var ErrUnsafePath = errors.New("cover path is not local to the media root")

// Layout maps post identifiers to cover image paths below a media root.
type Layout struct {
	root     string
	template string
	renderer processor.Processor
}

// NewLayout creates a Layout. pathTemplate is a Go template with .ID set to
// the post gid.
func NewLayout(root, pathTemplate string) *Layout {
	return &Layout{
		root:     root,
		template: pathTemplate,
		renderer: processor.NewTemplateProcessor("missingkey=error"),
	}
}

// Path returns the slash-separated cover path for gid, relative to the root.
func (l *Layout) Path(gid string) (string, error) {
	rel, err := l.renderer.Process(l.template, map[string]interface{}{"ID": gid})
	if err != nil {
		return "", fmt.Errorf("failed to render cover path for %s: %w", gid, err)
	}

	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}

	return filepath.ToSlash(filepath.Clean(rel)), nil
}

// Abs resolves a path returned by Path against the media root.
func (l *Layout) Abs(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}
