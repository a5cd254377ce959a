package cmd

import (
	"fmt"

	"github.com/andrewhowdencom/newsrender/internal/cover"
	"github.com/andrewhowdencom/newsrender/internal/http"
	"github.com/andrewhowdencom/newsrender/internal/imaging"
	"github.com/andrewhowdencom/newsrender/internal/ingest"
	"github.com/andrewhowdencom/newsrender/internal/processor"
	"github.com/spf13/viper"
)

func buildThumbnailer() (*imaging.Thumbnailer, error) {
	client, err := http.NewClient(viper.GetString("proxy.url"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return imaging.NewThumbnailer(imaging.NewHTTPFetcher(client)), nil
}

func buildExtractor() (*cover.Extractor, error) {
	extractor, err := cover.NewExtractor(viper.GetString("cover.pattern"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cover extractor: %w", err)
	}
	return extractor, nil
}

// buildProcessors returns the stacks for community bodies and for every
// other body.
func buildProcessors() (community, external processor.ProcessorStack) {
	community = processor.NewBBCodeStack()
	external = processor.ProcessorStack{}
	if viper.GetBool("render.sanitize") {
		sanitizer := processor.NewSanitizeProcessor()
		community = append(community, sanitizer)
		external = append(external, sanitizer)
	}
	return community, external
}

func buildIngester(opts ingest.Options) (*ingest.Ingester, error) {
	extractor, err := buildExtractor()
	if err != nil {
		return nil, err
	}
	thumbs, err := buildThumbnailer()
	if err != nil {
		return nil, err
	}
	layout := cover.NewLayout(viper.GetString("media.root"), viper.GetString("cover.path_template"))
	community, external := buildProcessors()

	return ingest.New(community, external, extractor, layout, thumbs, opts), nil
}
