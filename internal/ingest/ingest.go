package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/andrewhowdencom/newsrender/internal/cover"
	"github.com/andrewhowdencom/newsrender/internal/model"
	"github.com/andrewhowdencom/newsrender/internal/processor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/andrewhowdencom/newsrender/internal/ingest"

// Cover outcomes, recorded on the covers counter.
const (
	OutcomeSaved       = "saved"
	OutcomeUndecodable = "undecodable"
	OutcomeFailed      = "failed"
	OutcomeSkipped     = "skipped"
	OutcomeNone        = "none"
)

// Thumbnailer fetches an image and stores it as a cover.
type Thumbnailer interface {
	Save(ctx context.Context, imageURL, dest string) (bool, error)
}

// Options tune a batch run.
type Options struct {
	// Workers bounds the posts processed at once. Values below 1 mean 1.
	Workers int
	// MaxPosts bounds the new posts taken from one batch, newest first. 0 means no limit.
	MaxPosts int
	// DryRun renders posts but never fetches or writes covers.
	DryRun bool
}

// Ingester turns feed items into posts.
type Ingester struct {
	community processor.Processor
	external  processor.Processor
	extractor *cover.Extractor
	layout    *cover.Layout
	thumbs    Thumbnailer
	opts      Options

	tracer    trace.Tracer
	processed metric.Int64Counter
	covers    metric.Int64Counter
}

// New creates a new Ingester. community renders BBCode bodies; external is
// applied to every other body once its cover has been extracted.
func New(community, external processor.Processor, extractor *cover.Extractor, layout *cover.Layout, thumbs Thumbnailer, opts Options) *Ingester {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	meter := otel.Meter(instrumentationName)
	processed, err := meter.Int64Counter("newsrender.posts.processed",
		metric.WithDescription("Posts turned from feed items into stored posts."))
	if err != nil {
		slog.Warn("failed to create counter", "name", "newsrender.posts.processed", "error", err)
		processed = noop.Int64Counter{}
	}
	covers, err := meter.Int64Counter("newsrender.covers",
		metric.WithDescription("Cover image outcomes for non-community posts."))
	if err != nil {
		slog.Warn("failed to create counter", "name", "newsrender.covers", "error", err)
		covers = noop.Int64Counter{}
	}

	return &Ingester{
		community: community,
		external:  external,
		extractor: extractor,
		layout:    layout,
		thumbs:    thumbs,
		opts:      opts,
		tracer:    otel.Tracer(instrumentationName),
		processed: processed,
		covers:    covers,
	}
}

// Select drops items whose gid is known or appeared earlier in the batch,
// orders the rest newest first, and applies the MaxPosts limit.
func (i *Ingester) Select(items []model.NewsItem, known map[string]bool) []model.NewsItem {
	seen := make(map[string]bool, len(items))
	selected := make([]model.NewsItem, 0, len(items))
	for _, item := range items {
		if known[item.Gid] {
			slog.Debug("skipping known post", "gid", item.Gid)
			continue
		}
		if seen[item.Gid] {
			slog.Debug("skipping duplicate post", "gid", item.Gid)
			continue
		}
		seen[item.Gid] = true
		selected = append(selected, item)
	}

	sort.SliceStable(selected, func(a, b int) bool {
		return selected[a].Date > selected[b].Date
	})

	if i.opts.MaxPosts > 0 && len(selected) > i.opts.MaxPosts {
		slog.Debug("dropping older posts", "kept", i.opts.MaxPosts, "dropped", len(selected)-i.opts.MaxPosts)
		selected = selected[:i.opts.MaxPosts]
	}
	return selected
}

// Run selects and processes a batch. Posts come back in the order Select
// returns them. A failing cover never fails the batch.
func (i *Ingester) Run(ctx context.Context, items []model.NewsItem, known map[string]bool) ([]model.Post, error) {
	selected := i.Select(items, known)
	posts := make([]model.Post, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Workers)
	for idx, item := range selected {
		g.Go(func() error {
			post, err := i.ProcessItem(ctx, item)
			if err != nil {
				return err
			}
			posts[idx] = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return posts, nil
}

// ProcessItem turns a single feed item into a post.
func (i *Ingester) ProcessItem(ctx context.Context, item model.NewsItem) (model.Post, error) {
	ctx, span := i.tracer.Start(ctx, "ingest.post", trace.WithAttributes(
		attribute.String("post.gid", item.Gid),
		attribute.Bool("post.community", item.IsCommunity()),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}

	post := model.NewPost(item)
	kind := "external"

	if item.IsCommunity() {
		kind = "community"
		content, err := i.community.Process(item.Contents, nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			return model.Post{}, fmt.Errorf("failed to render post %s: %w", item.Gid, err)
		}
		post.Content = content
	} else {
		post.Content, post.Image = i.coverFor(ctx, item)

		content, err := i.external.Process(post.Content, nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			return model.Post{}, fmt.Errorf("failed to render post %s: %w", item.Gid, err)
		}
		post.Content = content
	}

	i.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	slog.Debug("processed post", "gid", item.Gid, "kind", kind, "post_image", post.Image)
	return post, nil
}

// coverFor strips the first image out of the item body and stores it as the
// post cover. It returns the new body and the cover path, empty if no cover
// was stored.
func (i *Ingester) coverFor(ctx context.Context, item model.NewsItem) (string, string) {
	span := trace.SpanFromContext(ctx)

	ref, body, ok := i.extractor.Extract(item.Contents)
	if !ok {
		i.recordCover(ctx, OutcomeNone)
		return item.Contents, ""
	}
	span.SetAttributes(attribute.String("cover.url", ref.URL))

	rel, err := i.layout.Path(item.Gid)
	if err != nil {
		slog.Warn("failed to compute cover path", "gid", item.Gid, "error", err)
		i.recordCover(ctx, OutcomeFailed)
		return body, ""
	}

	if i.opts.DryRun {
		slog.Info("dry run: would save cover", "gid", item.Gid, "url", ref.URL, "path", rel)
		i.recordCover(ctx, OutcomeSkipped)
		return body, ""
	}

	saved, err := i.thumbs.Save(ctx, ref.URL, i.layout.Abs(rel))
	switch {
	case err != nil:
		slog.Warn("failed to save cover", "gid", item.Gid, "url", ref.URL, "error", err)
		span.RecordError(err)
		i.recordCover(ctx, OutcomeFailed)
		return body, ""
	case !saved:
		slog.Warn("cover is not a decodable image", "gid", item.Gid, "url", ref.URL)
		i.recordCover(ctx, OutcomeUndecodable)
		return body, ""
	}

	i.recordCover(ctx, OutcomeSaved)
	return body, rel
}

func (i *Ingester) recordCover(ctx context.Context, outcome string) {
	i.covers.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
