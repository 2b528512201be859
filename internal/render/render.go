// Package render composites the drawn canvas onto the garden background and
// writes the preview image.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/fsutil"
	"github.com/grantoftegaard/garden/pkg/logging"
	"github.com/grantoftegaard/garden/pkg/metrics"
)

// Renderer produces the preview image. The background is loaded once and
// scaled to the canvas size.
type Renderer struct {
	width, height int
	background    *image.RGBA
	outPath       string
	log           *logging.Logger
	metrics       *metrics.Registry
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithMetrics sets the registry render durations are recorded in.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Renderer) { r.metrics = m }
}

// New loads backgroundPath and prepares a renderer writing to outPath. A
// missing background file leaves a plain white canvas; any other read or
// decode failure is an error.
func New(backgroundPath, outPath string, width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", width, height)
	}
	r := &Renderer{
		width:   width,
		height:  height,
		outPath: outPath,
		log:     logging.Global(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.background = image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(r.background, r.background.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	f, err := os.Open(backgroundPath)
	if os.IsNotExist(err) {
		r.log.Warn("background image missing, using a blank canvas", map[string]any{"path": backgroundPath})
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", backgroundPath, err)
	}
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		xdraw.Draw(r.background, r.background.Bounds(), src, src.Bounds().Min, xdraw.Over)
	} else {
		xdraw.CatmullRom.Scale(r.background, r.background.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	}
	return r, nil
}

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// OutputPath returns where RenderCurrent writes.
func (r *Renderer) OutputPath() string {
	return r.outPath
}

// DecodeRaster accepts either PNG bytes or raw RGBA pixels of exactly
// width*height*4 bytes, as a canvas widget hands them out.
func DecodeRaster(data []byte, width, height int) (image.Image, error) {
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errclass.ErrRasterInvalid.WithMessagef("decode png: %v", err)
		}
		return img, nil
	}
	if len(data) != width*height*4 {
		return nil, errclass.ErrRasterInvalid.WithMessagef("raw raster must be %dx%dx4 = %d bytes, got %d", width, height, width*height*4, len(data))
	}
	// Canvas pixel data is straight alpha.
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, data)
	return img, nil
}

// Composite draws overlay over the background. The result is opaque.
// Overlays of another size are scaled to the canvas.
func (r *Renderer) Composite(overlay image.Image) *image.RGBA {
	dst := image.NewRGBA(r.background.Bounds())
	copy(dst.Pix, r.background.Pix)
	if overlay.Bounds().Dx() == r.width && overlay.Bounds().Dy() == r.height {
		xdraw.Draw(dst, dst.Bounds(), overlay, overlay.Bounds().Min, xdraw.Over)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)
	}
	return dst
}

// RenderCurrent composites raster and atomically replaces the preview file.
func (r *Renderer) RenderCurrent(raster []byte) (err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordRender(err == nil, time.Since(start))
		}
	}()

	overlay, err := DecodeRaster(raster, r.width, r.height)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Composite(overlay)); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.outPath), 0755); err != nil {
		return errclass.ErrStorageUnavailable.WithMessagef("create image dir: %v", err)
	}
	if err := fsutil.AtomicWrite(r.outPath, buf.Bytes(), 0644); err != nil {
		return errclass.ErrStorageUnavailable.WithMessagef("write preview: %v", err)
	}

	r.log.Debug("preview rendered", map[string]any{"path": r.outPath, "bytes": buf.Len()})
	return nil
}
