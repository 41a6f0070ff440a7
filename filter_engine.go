package retouch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/gogpu/retouch/internal/filter"
	"github.com/gogpu/retouch/internal/parallel"
)

var errEngineClosed = errors.New("engine closed")

// FilterFunc is a pixel kernel for one filter kind.
//
// A kernel must not modify src and must return a new image with the same
// bounds. It should be deterministic: the same input yields bit-identical
// output. Long-running kernels should observe ctx.
type FilterFunc func(ctx context.Context, src image.Image) (*image.RGBA, error)

// FilterResult is delivered by ApplyAsync.
type FilterResult struct {
	Kind  FilterKind
	Image *ImageBuffer
	Err   error
}

// EngineOption configures a FilterEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	workers  int
	defaults bool
}

// WithWorkers sets the number of goroutines used for pixel work.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithoutDefaultFilters creates an engine with no kernels registered.
// Only FilterNone is supported until Register is called.
func WithoutDefaultFilters() EngineOption {
	return func(o *engineOptions) {
		o.defaults = false
	}
}

// FilterEngine applies filter kinds to image buffers.
//
// Kernels are looked up in a registry keyed by FilterKind. Work started with
// ApplyAsync runs on a background task pool; each kernel fans its rows out on
// a separate pixel pool.
//
// FilterEngine is safe for concurrent use.
type FilterEngine struct {
	mu      sync.RWMutex
	kernels map[FilterKind]FilterFunc

	tasks  *parallel.WorkerPool
	pixels *parallel.WorkerPool
}

// NewFilterEngine creates an engine with the built-in kernels for every kind.
func NewFilterEngine(opts ...EngineOption) *FilterEngine {
	o := engineOptions{defaults: true}
	for _, opt := range opts {
		opt(&o)
	}

	e := &FilterEngine{
		kernels: make(map[FilterKind]FilterFunc),
		tasks:   parallel.NewWorkerPool(2),
		pixels:  parallel.NewWorkerPool(o.workers),
	}
	if o.defaults {
		for _, kind := range AllFilterKinds() {
			if kind == FilterNone {
				continue
			}
			if fn := e.presetKernel(kind); fn != nil {
				e.kernels[kind] = fn
			}
		}
	}
	return e
}

// presetKernel builds the default kernel for kind from the filter presets.
func (e *FilterEngine) presetKernel(kind FilterKind) FilterFunc {
	p, err := filter.Preset(kind.String())
	if err != nil {
		Logger().Warn("retouch: no preset for filter", "filter", kind, "error", err)
		return nil
	}
	return func(ctx context.Context, src image.Image) (*image.RGBA, error) {
		return p.Run(ctx, toRGBA(src), e.pixels)
	}
}

// Register installs fn as the kernel for kind, replacing any previous one.
// FilterNone cannot be overridden.
func (e *FilterEngine) Register(kind FilterKind, fn FilterFunc) error {
	if kind == FilterNone || !kind.valid() || fn == nil {
		return &FilterError{Filter: kind, Reason: ErrFilterUnsupported}
	}
	e.mu.Lock()
	e.kernels[kind] = fn
	e.mu.Unlock()
	return nil
}

// Unregister removes the kernel for kind.
func (e *FilterEngine) Unregister(kind FilterKind) {
	e.mu.Lock()
	delete(e.kernels, kind)
	e.mu.Unlock()
}

// Supports reports whether Apply can process kind.
func (e *FilterEngine) Supports(kind FilterKind) bool {
	if kind == FilterNone {
		return true
	}
	e.mu.RLock()
	_, ok := e.kernels[kind]
	e.mu.RUnlock()
	return ok
}

// Apply runs the kernel for kind on source and blocks until it finishes.
//
// FilterNone returns source itself. An unknown kind fails with
// ErrFilterUnsupported. A kernel that errors, panics, returns no image or an
// image of the wrong size, or whose context is done fails with
// ErrFilterProcessingFailed.
func (e *FilterEngine) Apply(ctx context.Context, source *ImageBuffer, kind FilterKind) (*ImageBuffer, error) {
	if kind == FilterNone {
		if source == nil {
			return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed, Cause: ErrNilImage}
		}
		return source, nil
	}

	e.mu.RLock()
	fn, ok := e.kernels[kind]
	e.mu.RUnlock()
	if !ok {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterUnsupported}
	}
	if source == nil {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed, Cause: ErrNilImage}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed, Cause: err}
	}

	start := time.Now()
	out, err := runKernel(ctx, fn, source)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed, Cause: err}
	}
	if out == nil {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed,
			Cause: fmt.Errorf("kernel returned no image")}
	}
	if out.Rect.Size() != source.Size() {
		return nil, &FilterError{Filter: kind, Reason: ErrFilterProcessingFailed,
			Cause: fmt.Errorf("kernel returned %v for a %v source", out.Rect.Size(), source.Size())}
	}
	// Buffers own their pixels and start at the origin.
	if out == source.pixels() || !out.Rect.Min.Eq(image.Point{}) {
		out = copyAnchored(out)
	}

	Logger().Debug("retouch: filter applied",
		"filter", kind, "size", source.Size(), "elapsed", time.Since(start))
	return wrap(out, source.ColorSpace()), nil
}

// ApplyAsync runs Apply on the engine's task pool. The returned channel
// receives exactly one result and is never closed. ApplyAsync does not block.
func (e *FilterEngine) ApplyAsync(ctx context.Context, source *ImageBuffer, kind FilterKind) <-chan FilterResult {
	ch := make(chan FilterResult, 1)
	e.submit(ctx, source, kind, func(res FilterResult) {
		ch <- res
	})
	return ch
}

// submit runs Apply on the task pool and hands the result to done.
// If the pool is closed, done is called on the caller's goroutine.
func (e *FilterEngine) submit(ctx context.Context, source *ImageBuffer, kind FilterKind, done func(FilterResult)) {
	task := func() {
		img, err := e.Apply(ctx, source, kind)
		done(FilterResult{Kind: kind, Image: img, Err: err})
	}
	if !e.tasks.Submit(task) {
		done(FilterResult{Kind: kind, Err: &FilterError{
			Filter: kind, Reason: ErrFilterProcessingFailed, Cause: errEngineClosed,
		}})
	}
}

// Close stops the engine's worker pools. Pending tasks still complete.
func (e *FilterEngine) Close() {
	e.tasks.Close()
	e.pixels.Close()
}

// runKernel calls fn and converts a panic into an error.
func runKernel(ctx context.Context, fn FilterFunc, source *ImageBuffer) (out *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("kernel panic: %v", r)
		}
	}()
	return fn(ctx, source)
}

// toRGBA returns img as *image.RGBA, copying only when it is another type.
// The result must be treated as read-only.
func toRGBA(img image.Image) *image.RGBA {
	switch v := img.(type) {
	case *ImageBuffer:
		return v.pixels()
	case *image.RGBA:
		return v
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// copyAnchored copies src into a new image anchored at the origin.
func copyAnchored(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}
