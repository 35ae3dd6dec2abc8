// Package pipeline holds the per-document processing context and the
// input/output color modules. The context replaces process-wide
// profile globals: every call gets its profile references from here.
package pipeline

import (
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/picker"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/jpfielding/colorpipe.go/pkg/transform"
)

// Context owns the profile cache and the strategy engines for one open
// document. Records bound here are immutable and shared by every
// worker goroutine the engines spawn.
type Context struct {
	ID       uuid.UUID
	Engine   cms.Engine
	Cache    *profile.Cache
	Selector *transform.Selector
	Picker   *picker.Engine
	// Workers is the shared budget for the parallel sections; the
	// selector, the picker, and the modules all fan out over it
	Workers int

	Work    *profile.Info
	Display *profile.Info
	Export  *profile.Info
}

type contextConfig struct {
	workers int
	lutSize int
	blob    profile.BlobFunc
	work    profile.Key
	display profile.Key
	export  profile.Key
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig)

// WithWorkers fixes the worker budget for the parallel sections.
func WithWorkers(n int) ContextOption {
	return func(c *contextConfig) { c.workers = n }
}

// WithLutSize overrides the tone-table resolution.
func WithLutSize(n int) ContextOption {
	return func(c *contextConfig) { c.lutSize = n }
}

// WithBlobSource installs a loader for file-backed profiles.
func WithBlobSource(fn profile.BlobFunc) ContextOption {
	return func(c *contextConfig) { c.blob = fn }
}

// WithWorkProfile selects the working profile.
func WithWorkProfile(kind profile.Kind, filename string) ContextOption {
	return func(c *contextConfig) { c.work = profile.Key{Kind: kind, Filename: filename} }
}

// WithDisplayProfile selects the display profile.
func WithDisplayProfile(kind profile.Kind, filename string) ContextOption {
	return func(c *contextConfig) { c.display = profile.Key{Kind: kind, Filename: filename} }
}

// WithExportProfile selects the export profile.
func WithExportProfile(kind profile.Kind, filename string) ContextOption {
	return func(c *contextConfig) { c.export = profile.Key{Kind: kind, Filename: filename} }
}

// NewContext builds a processing context over the engine. The working
// profile is bound through the usability guarantee, so the pipeline
// never starts with an unusable one; display and export default to
// sRGB.
func NewContext(engine cms.Engine, opts ...ContextOption) *Context {
	cfg := contextConfig{
		lutSize: profile.DefaultLutSize,
		work:    profile.Key{Kind: profile.KindLinRec2020},
		display: profile.Key{Kind: profile.KindDisplay},
		export:  profile.Key{Kind: profile.KindSRGB},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cacheOpts := []profile.Option{profile.WithLutSize(cfg.lutSize)}
	if cfg.blob != nil {
		cacheOpts = append(cacheOpts, profile.WithBlobSource(cfg.blob))
	}
	cache := profile.NewCache(engine, cacheOpts...)

	ctx := &Context{
		ID:       uuid.New(),
		Engine:   engine,
		Cache:    cache,
		Selector: transform.NewSelector(engine, workers),
		Picker:   picker.NewEngine(workers),
		Workers:  workers,
		Work:     cache.BindToPipeline(cfg.work.Kind, cfg.work.Filename, cfg.work.Intent),
		Display:  cache.GetOrCreate(cfg.display.Kind, cfg.display.Filename, cfg.display.Intent),
		Export:   cache.GetOrCreate(cfg.export.Kind, cfg.export.Filename, cfg.export.Intent),
	}
	slog.Debug("pipeline: context ready",
		slog.String("id", ctx.ID.String()),
		slog.String("work", ctx.Work.Description()),
		slog.String("display", ctx.Display.Description()))
	return ctx
}
