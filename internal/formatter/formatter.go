package formatter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andrewhowdencom/newsrender/internal/model"
	"github.com/olekukonko/tablewriter"
	nethtml "golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// excerptLength is the number of characters of content shown in a table row.
const excerptLength = 60

// ErrUnknownFormat is returned for formats other than json, yaml and table.
var ErrUnknownFormat = errors.New("unknown output format")

// Check returns ErrUnknownFormat if Write cannot produce format.
func Check(format string) error {
	switch format {
	case FormatJSON, FormatYAML, FormatTable:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Write writes posts to w. json writes one object per line.
func Write(w io.Writer, format string, posts []model.Post) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, p := range posts {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("failed to encode post %s: %w", p.Gid, err)
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(posts); err != nil {
			return fmt.Errorf("failed to encode posts: %w", err)
		}
		return enc.Close()
	case FormatTable:
		return writeTable(w, posts)
	default:
		return Check(format)
	}
}

func writeTable(w io.Writer, posts []model.Post) error {
	table := tablewriter.NewWriter(w)
	table.Header("GID", "Date", "Author", "Title", "Cover", "Content")

	for _, p := range posts {
		excerpt, err := Excerpt(p.Content, excerptLength)
		if err != nil {
			return fmt.Errorf("failed to summarise post %s: %w", p.Gid, err)
		}
		row := []string{p.Gid, p.CreatedAt.Format(time.DateTime), p.Author, p.Title, p.Image, excerpt}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to add post %s: %w", p.Gid, err)
		}
	}

	return table.Render()
}

// Excerpt returns the text of an HTML fragment with whitespace collapsed,
// cut to at most n characters.
func Excerpt(htmlStr string, n int) (string, error) {
	doc, err := nethtml.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var words []string
	var traverse func(*nethtml.Node)
	traverse = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	text := []rune(strings.Join(words, " "))
	if len(text) <= n {
		return string(text), nil
	}
	return strings.TrimSpace(string(text[:n-1])) + "…", nil
}
