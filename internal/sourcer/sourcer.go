package sourcer

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/andrewhowdencom/newsrender/internal/model"
	"github.com/ghodss/yaml"
	"github.com/xeipuuv/gojsonschema"
)

// StdinURI selects standard input as the document source.
const StdinURI = "-"

//go:embed schema/newsitems.json
var newsItemsSchema []byte

var (
	// ErrInvalidDocument is returned for documents that fail schema validation.
	ErrInvalidDocument = errors.New("document is not valid")
	// ErrUnsupportedScheme is returned for URIs no fetcher is registered for.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Source is a news feed document, as returned by Steam's GetNewsForApp.
type Source struct {
	AppNews AppNews `json:"appnews" yaml:"appnews"`
}

// AppNews is the news of a single game.
type AppNews struct {
	AppID     int              `json:"appid,omitempty" yaml:"appid,omitempty"`
	NewsItems []model.NewsItem `json:"newsitems" yaml:"newsitems"`
	Count     int              `json:"count,omitempty" yaml:"count,omitempty"`
}

// Fetcher defines the interface for fetching the content of a document.
type Fetcher interface {
	Fetch(uri string) ([]byte, error)
}

// CompositeFetcher is a fetcher that can handle multiple schemes.
type CompositeFetcher struct {
	fetchers map[string]Fetcher
}

// NewCompositeFetcher creates a new CompositeFetcher.
func NewCompositeFetcher() *CompositeFetcher {
	return &CompositeFetcher{
		fetchers: make(map[string]Fetcher),
	}
}

// AddFetcher adds a new fetcher for a given scheme. Plain paths have the
// empty scheme, and StdinURI is looked up as "stdin".
func (f *CompositeFetcher) AddFetcher(scheme string, fetcher Fetcher) {
	f.fetchers[scheme] = fetcher
}

// Fetch fetches the content of a URI and returns it as a byte slice.
func (f *CompositeFetcher) Fetch(uri string) ([]byte, error) {
	scheme := "stdin"
	if uri != StdinURI {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to parse uri %s: %w", uri, err)
		}
		scheme = u.Scheme
	}

	fetcher, ok := f.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	return fetcher.Fetch(uri)
}

// FileFetcher reads documents from the local filesystem.
type FileFetcher struct{}

// NewFileFetcher creates a new FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Fetch reads a plain path or a file:// URI.
func (f *FileFetcher) Fetch(uri string) ([]byte, error) {
	path := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to parse uri %s: %w", uri, err)
		}
		path = u.Path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// StdinFetcher reads a document from a reader, usually os.Stdin.
type StdinFetcher struct {
	in io.Reader
}

// NewStdinFetcher creates a new StdinFetcher.
func NewStdinFetcher(in io.Reader) *StdinFetcher {
	return &StdinFetcher{in: in}
}

// Fetch reads everything from the reader. The URI is ignored.
func (f *StdinFetcher) Fetch(_ string) ([]byte, error) {
	data, err := io.ReadAll(f.in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// Parser defines the interface for parsing content into a feed document.
type Parser interface {
	Parse(uri string, data []byte) (*Source, error)
}

// FeedParser parses JSON or YAML feed documents and validates them against
// the embedded news items schema.
type FeedParser struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser() (*FeedParser, error) {
	schemaLoader := gojsonschema.NewBytesLoader(newsItemsSchema)
	if _, err := schemaLoader.LoadJSON(); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	return &FeedParser{
		schemaLoader: schemaLoader,
	}, nil
}

// Parse parses a document. Documents that do not match the schema return an
// error wrapping ErrInvalidDocument.
func (p *FeedParser) Parse(uri string, data []byte) (*Source, error) {
	// JSON is YAML, and gojsonschema only works with JSON
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml to json: %w", err)
	}

	result, err := gojsonschema.Validate(p.schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to validate document: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			slog.Debug("document is not valid", "uri", uri, "problem", desc.String())
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidDocument, uri, strings.Join(problems, "; "))
	}

	var s Source
	if err := yaml.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	// Items inherit the document's app id.
	for i := range s.AppNews.NewsItems {
		if s.AppNews.NewsItems[i].AppID == 0 {
			s.AppNews.NewsItems[i].AppID = s.AppNews.AppID
		}
	}

	return &s, nil
}

// Sourcer is an interface that defines the methods for sourcing feed documents.
type Sourcer interface {
	Source(uri string) (*Source, error)
}

// sourcer is the concrete implementation of the Sourcer interface.
type sourcer struct {
	fetcher Fetcher
	parser  Parser
}

// NewSourcer creates a new Sourcer.
func NewSourcer(fetcher Fetcher, parser Parser) Sourcer {
	return &sourcer{
		fetcher: fetcher,
		parser:  parser,
	}
}

// Source fetches and parses a feed document from a URI.
func (s *sourcer) Source(uri string) (*Source, error) {
	data, err := s.fetcher.Fetch(uri)
	if err != nil {
		return nil, err
	}

	return s.parser.Parse(uri, data)
}
