package processor

import (
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeProcessor strips markup that the rendering passes never produce,
// such as scripts and event handlers, from rendered posts.
type SanitizeProcessor struct {
	policy *bluemonday.Policy
}

// NewSanitizeProcessor creates a SanitizeProcessor whose policy keeps
// everything the tag rewriter emits.
func NewSanitizeProcessor() *SanitizeProcessor {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe", "strike", "u")
	p.AllowAttrs("src", "width", "height").OnElements("iframe")
	p.AllowStyles("text-align").OnElements("div")
	p.AllowStyles("color").OnElements("span")
	p.AllowStyles("max-width", "max-height").OnElements("img")
	return &SanitizeProcessor{policy: p}
}

// Process sanitizes content.
func (p *SanitizeProcessor) Process(content string, _ map[string]interface{}) (string, error) {
	return p.policy.Sanitize(content), nil
}
