package profile

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
)

// BlobFunc supplies raw profile bytes for file-backed kinds. The core
// performs no file I/O itself; callers at the edge provide one.
type BlobFunc func(kind Kind, filename string) ([]byte, error)

// Cache memoizes one Info per (kind, filename, intent). Construction is
// serialized per key; records are immutable afterwards and shared
// freely across goroutines. One cache per processing context.
type Cache struct {
	engine  cms.Engine
	lutSize int
	blob    BlobFunc

	mu       sync.Mutex
	entries  map[Key]*lazyInfo
	injected map[Key]cms.Profile
}

type lazyInfo struct {
	once sync.Once
	info *Info
}

// Option configures a Cache.
type Option func(*Cache)

// WithLutSize overrides the tone-table resolution.
func WithLutSize(n int) Option {
	return func(c *Cache) { c.lutSize = n }
}

// WithBlobSource installs a loader for file-backed profile kinds.
func WithBlobSource(fn BlobFunc) Option {
	return func(c *Cache) { c.blob = fn }
}

// NewCache builds a cache over the given engine.
func NewCache(engine cms.Engine, opts ...Option) *Cache {
	c := &Cache{
		engine:   engine,
		lutSize:  DefaultLutSize,
		entries:  map[Key]*lazyInfo{},
		injected: map[Key]cms.Profile{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register injects an engine handle for a key the engine cannot derive
// on its own (embedded profiles, camera matrices). Must be called
// before the first GetOrCreate for that key.
func (c *Cache) Register(key Key, p cms.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injected[key] = p
}

// GetOrCreate returns the record for (kind, filename, intent), building
// it on first use. It never fails: an unusable profile yields a record
// without matrices (after the substitution policy below), and consumers
// check the capability flags.
//
// Substitutions:
//   - missing/corrupt profile bytes: sRGB, with a warning
//   - non-RGB color model: linear Rec. 2020, with a diagnostic
func (c *Cache) GetOrCreate(kind Kind, filename string, intent cms.Intent) *Info {
	key := Key{Kind: kind, Filename: filename, Intent: intent}

	c.mu.Lock()
	lazy, ok := c.entries[key]
	if !ok {
		lazy = &lazyInfo{}
		c.entries[key] = lazy
	}
	c.mu.Unlock()

	lazy.once.Do(func() {
		lazy.info = c.build(key)
	})
	return lazy.info
}

// BindToPipeline is GetOrCreate with a usability guarantee: when the
// record has no matrices (and is not a PCS endpoint), it substitutes
// linear Rec. 2020 so the pipeline never runs with an unusable working
// profile.
func (c *Cache) BindToPipeline(kind Kind, filename string, intent cms.Intent) *Info {
	info := c.GetOrCreate(kind, filename, intent)
	if info.pcs {
		return info
	}
	if _, _, ok := info.Matrices(); ok {
		return info
	}
	slog.Warn("profile: no usable matrices, binding linear Rec. 2020 instead",
		slog.String("kind", kind.String()),
		slog.String("filename", filename))
	return c.GetOrCreate(KindLinRec2020, "", intent)
}

func (c *Cache) build(key Key) *Info {
	p, err := c.handle(key)
	switch {
	case err == nil:
	case errors.Is(err, cms.ErrUnsupportedProfile):
		slog.Warn("profile: unsupported color model, substituting linear Rec. 2020",
			slog.String("kind", key.Kind.String()),
			slog.String("filename", key.Filename),
			slog.Any("error", err))
		p, _ = c.engine.OpenBuiltin(cms.ProfileLinRec2020)
	default:
		slog.Warn("profile: unreadable profile, substituting sRGB",
			slog.String("kind", key.Kind.String()),
			slog.String("filename", key.Filename),
			slog.Any("error", err))
		p, _ = c.engine.OpenBuiltin(cms.ProfileSRGB)
	}
	if p != nil && p.ColorModel() != cms.ModelRGB &&
		p.ColorModel() != cms.ModelLab && p.ColorModel() != cms.ModelXYZ {
		slog.Warn("profile: non-RGB color model, substituting linear Rec. 2020",
			slog.String("kind", key.Kind.String()),
			slog.String("desc", p.Description()))
		p, _ = c.engine.OpenBuiltin(cms.ProfileLinRec2020)
	}
	return extract(key, p, c.lutSize)
}

// handle resolves the engine handle for a key.
func (c *Cache) handle(key Key) (cms.Profile, error) {
	c.mu.Lock()
	injected, ok := c.injected[key]
	c.mu.Unlock()
	if ok {
		return injected, nil
	}

	if name, builtin := builtinName(key.Kind); builtin {
		return c.engine.OpenBuiltin(name)
	}

	// file-backed kinds go through the blob loader and the engine
	if c.blob == nil {
		return nil, cms.ErrCorruptProfile
	}
	data, err := c.blob(key.Kind, key.Filename)
	if err != nil {
		return nil, err
	}
	return c.engine.OpenBytes(data)
}

func builtinName(k Kind) (string, bool) {
	switch k {
	case KindSRGB, KindDisplay:
		return cms.ProfileSRGB, true
	case KindAdobeRGB:
		return cms.ProfileAdobeRGB, true
	case KindProPhoto:
		return cms.ProfileProPhoto, true
	case KindLinProPhoto:
		return cms.ProfileLinProPhoto, true
	case KindRec2020:
		return cms.ProfileRec2020, true
	case KindLinRec2020:
		return cms.ProfileLinRec2020, true
	case KindLinRec709:
		return cms.ProfileLinRec709, true
	case KindLab:
		return cms.ProfileLab, true
	case KindXYZ:
		return cms.ProfileXYZ, true
	}
	return "", false
}
