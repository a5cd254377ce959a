package processor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/andrewhowdencom/newsrender/internal/imaging"
	"github.com/dlclark/regexp2"
)

// SteamClanImageURL is what the {STEAM_CLAN_IMAGE} macro expands to.
const SteamClanImageURL = "https://clan.cloudflare.steamstatic.com/images/"

// matchTimeout bounds the time a single rule may spend on one post.
const matchTimeout = 2 * time.Second

// Rule is a single pattern substitution. Replacement refers to named groups
// as ${NAME}. Content is matched as runes, so invalid UTF-8 comes back as
// U+FFFD whenever the rule matches and untouched when it does not.
type Rule struct {
	Name        string
	Pattern     string
	Replacement string
	Options     regexp2.RegexOptions

	re *regexp2.Regexp
}

// Apply replaces every match of the rule in content. If the matcher gives
// up, content is returned unchanged.
func (r *Rule) Apply(content string) string {
	out, err := r.re.Replace(content, r.Replacement, -1, -1)
	if err != nil {
		slog.Warn("skipping bbcode rule", "rule", r.Name, "error", err)
		return content
	}
	return out
}

func compileRules(rules []Rule) []*Rule {
	compiled := make([]*Rule, len(rules))
	for i := range rules {
		r := rules[i]
		r.re = regexp2.MustCompile(r.Pattern, r.Options)
		r.re.MatchTimeout = matchTimeout
		compiled[i] = &r
	}
	return compiled
}

func applyRules(rules []*Rule, content string) string {
	for _, r := range rules {
		content = r.Apply(content)
	}
	return content
}

// Order matters: every rule sees the output of the rules above it.
var tagRules = compileRules([]Rule{
	{
		Name:        "clan-image",
		Pattern:     `\{STEAM_CLAN_IMAGE\}`,
		Replacement: SteamClanImageURL,
	},
	{
		Name:        "previewyoutube",
		Pattern:     `\[previewyoutube=(?<CODE>.*?);full\]\[/previewyoutube\]`,
		Replacement: `<br><iframe width="620" height="320" src="https://www.youtube.com/embed/${CODE}"></iframe><br>`,
	},
	{
		Name:        "video",
		Pattern:     `\[video.*?\](?<URL>.*?)\[/video\]`,
		Replacement: `<br><iframe width="620" height="320" src="${URL}"></iframe><br>`,
	},
	{
		Name:        "center",
		Pattern:     `\[center\](?<TEXT>.*?)\[/center\]`,
		Replacement: `<div style="text-align:center;">${TEXT}</div>`,
	},
	{
		Name:        "code",
		Pattern:     `\[code\](?<TEXT>.*?)\[/code\]`,
		Replacement: `<code>${TEXT}</code>`,
	},
	{
		// Closes on [/code], not [/color]. Stored posts were rendered this way.
		Name:        "color",
		Pattern:     `\[color=(?<COLOR>.*?)\](?<TEXT>.*?)\[/code\]`,
		Replacement: `<span style="color:${COLOR};">${TEXT}</span>`,
	},
	{
		Name:        "img",
		Pattern:     `\[img\](?<URL>.*?)\[/img\]`,
		Replacement: fmt.Sprintf(`<img style="max-width:%dpx; max-height:%dpx" src="${URL}">`, imaging.MaxWidth, imaging.MaxHeight),
	},
	{
		Name:        "italic",
		Pattern:     `\[i\](?<TEXT>.*?)\[/i\]`,
		Replacement: `<em>${TEXT}</em>`,
	},
	{
		Name:        "list",
		Pattern:     `\[list\](?<TEXT>.*?)\[/list\]`,
		Replacement: `<ul>${TEXT}</ul>`,
		Options:     regexp2.Singleline,
	},
	{
		Name:        "list-item",
		Pattern:     `\[\*\](?<TEXT>.*?)(\[/\*\])?`,
		Replacement: `<li>${TEXT}</li>`,
	},
	{
		Name:        "quote",
		Pattern:     `\[quote\](?<TEXT>.*?)\[/quote\]`,
		Replacement: `<blockquote>${TEXT}</blockquote>`,
	},
	{
		Name:        "strike",
		Pattern:     `\[s\](?<TEXT>.*?)\[/s\]`,
		Replacement: `<strike>${TEXT}</strike>`,
	},
	{
		Name:        "bold",
		Pattern:     `\[b\](?<TEXT>.*?)\[/b\]`,
		Replacement: `<strong>${TEXT}</strong>`,
		Options:     regexp2.Singleline,
	},
	{
		Name:        "underline",
		Pattern:     `\[u\](?<TEXT>.*?)\[/u\]`,
		Replacement: `<u>${TEXT}</u>`,
	},
	{
		Name:        "url",
		Pattern:     `\[url=\s?(?<URL>.*?)\](?<TEXT>.*?)\[/url\]?`,
		Replacement: `<a href="${URL}">${TEXT}</a>`,
	},
	{
		Name:        "heading",
		Pattern:     `\[h(?<LEVEL>[0-9])\](?<TEXT>.*?)\[/h\k<LEVEL>\]`,
		Replacement: `<h${LEVEL}>${TEXT}</h${LEVEL}>`,
	},
})

var cleanupRules = compileRules([]Rule{
	{
		Name:        "open-url",
		Pattern:     `\[url=\s?(?<URL>.*?)/?\]`,
		Replacement: `<a href="${URL}"></a>`,
	},
	{
		Name:    "close-url",
		Pattern: `\[/url\]`,
	},
	{
		Name:    "close-list-item",
		Pattern: `\[/\*\]`,
	},
	{
		// Consumes the whitespace on both sides of the URL. Word characters are
		// letters, numbers and underscore; whitespace includes \x1c-\x1f.
		Name:        "bare-url",
		Pattern:     `[\s\x1c-\x1f](?<URL>https?://[\p{L}\p{N}_/\.]+?)[\s\x1c-\x1f]`,
		Replacement: `<p><a href="${URL}">${URL}</a></p>`,
	},
})

// TagRewriter converts well-formed BBCode tags into HTML.
type TagRewriter struct {
	rules []*Rule
}

// NewTagRewriter creates a new TagRewriter.
func NewTagRewriter() *TagRewriter {
	return &TagRewriter{rules: tagRules}
}

// Process rewrites the BBCode tags in content. It never fails.
func (p *TagRewriter) Process(content string, _ map[string]interface{}) (string, error) {
	return applyRules(p.rules, content), nil
}

// CleanupLinker repairs tags left open by the TagRewriter and links bare URLs.
type CleanupLinker struct {
	rules []*Rule
}

// NewCleanupLinker creates a new CleanupLinker.
func NewCleanupLinker() *CleanupLinker {
	return &CleanupLinker{rules: cleanupRules}
}

// Process repairs leftovers in content. It never fails.
func (p *CleanupLinker) Process(content string, _ map[string]interface{}) (string, error) {
	return applyRules(p.rules, content), nil
}

// RenderBBCode runs both passes over content.
func RenderBBCode(content string) string {
	return applyRules(cleanupRules, applyRules(tagRules, content))
}
