package cover

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultPattern matches an <img> tag and captures its src in group 2.
const DefaultPattern = `<img(.*?)? src="(.+?)"(.*?)?>`

const (
	urlGroup     = 2
	matchTimeout = 2 * time.Second
)

// ErrTooFewGroups is returned for patterns that cannot carry a URL in group 2.
var ErrTooFewGroups = errors.New("cover pattern needs at least two capture groups")

// Reference is an image found in a post body.
type Reference struct {
	// URL is the image source.
	URL string
	// Match is the full text the pattern matched.
	Match string
}

// Extractor pulls the first image reference out of HTML content.
type Extractor struct {
	re *regexp2.Regexp
}

// NewExtractor compiles pattern. The image URL must be capture group 2.
func NewExtractor(pattern string) (*Extractor, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile cover pattern: %w", err)
	}
	// Group 0 is the whole match.
	if len(re.GetGroupNumbers()) <= urlGroup {
		return nil, ErrTooFewGroups
	}
	re.MatchTimeout = matchTimeout

	return &Extractor{re: re}, nil
}

// Extract returns the first image reference in content and the content with
// every occurrence of the matched text removed. If nothing matches, content
// is returned unchanged and ok is false.
func (e *Extractor) Extract(content string) (ref Reference, body string, ok bool) {
	m, err := e.re.FindStringMatch(content)
	if err != nil {
		slog.Warn("skipping cover extraction", "error", err)
		return Reference{}, content, false
	}
	if m == nil {
		return Reference{}, content, false
	}

	// A match with an empty URL still strips the tag; the save then fails.
	ref = Reference{
		URL:   m.GroupByNumber(urlGroup).String(),
		Match: m.String(),
	}
	return ref, strings.ReplaceAll(content, ref.Match, ""), true
}
