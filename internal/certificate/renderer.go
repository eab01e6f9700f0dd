// Package certificate draws the participant's certificate page as a PNG.
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
)

// ErrRenderFailed wraps every rendering or saving failure.
var ErrRenderFailed = errors.New("certificate render failed")

var (
	backgroundColor = color.RGBA{255, 250, 245, 255}
	redColor        = color.RGBA{180, 30, 30, 255}
	goldColor       = color.RGBA{218, 165, 32, 255}
	greenColor      = color.RGBA{34, 139, 34, 255}
	greyColor       = color.RGBA{100, 100, 100, 255}
	textColor       = color.RGBA{60, 60, 60, 255}
)

var blockColors = map[Kind]color.Color{
	KindTitle:       redColor,
	KindSubtitle:    greyColor,
	KindLeadIn:      textColor,
	KindName:        greenColor,
	KindResultTitle: goldColor,
	KindDescription: textColor,
	KindScore:       redColor,
	KindPhrase:      textColor,
	KindDate:        greyColor,
	KindFooter:      greyColor,
}

// Renderer draws certificates. Font faces are not safe for concurrent use, so
// calls are serialized.
type Renderer struct {
	mu    sync.Mutex
	faces *faces
	now   func() time.Time
	log   *logging.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source used when Data.IssuedAt is zero.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// NewRenderer loads the embedded fonts.
func NewRenderer(opts ...Option) (*Renderer, error) {
	f, err := loadFaces()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	r := &Renderer{faces: f, now: time.Now, log: logging.Nop()}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("component", "certificate")
	return r, nil
}

// Layout places every block without drawing.
func (r *Renderer) Layout(d Data) Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return layout(r.faces, r.withDate(d))
}

// Encode renders the page and writes it to w as PNG.
func (r *Renderer) Encode(w io.Writer, d Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := layout(r.faces, r.withDate(d))
	dc := r.draw(l)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: encode png: %v", ErrRenderFailed, err)
	}
	return nil
}

// Save renders into dir under FileName(d.Name) and returns the file path.
func (r *Renderer) Save(dir string, d Data) (string, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf, d); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", ErrRenderFailed, err)
	}
	path := filepath.Join(dir, FileName(d.Name))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrRenderFailed, path, err)
	}
	r.log.Info("certificate saved", "path", path, "fallback", d.Result.IsFallback)
	return path, nil
}

func (r *Renderer) withDate(d Data) Data {
	if d.IssuedAt.IsZero() {
		d.IssuedAt = r.now()
	}
	return d
}

func (r *Renderer) draw(l Layout) *gg.Context {
	w, h := l.Width, l.Height
	dc := gg.NewContext(int(w), int(h))

	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(redColor)
	dc.SetLineWidth(mm(3))
	dc.DrawRectangle(mm(outerInsetMM), mm(outerInsetMM), w-2*mm(outerInsetMM), h-2*mm(outerInsetMM))
	dc.Stroke()

	dc.SetColor(goldColor)
	dc.SetLineWidth(mm(1))
	dc.DrawRectangle(mm(innerInsetMM), mm(innerInsetMM), w-2*mm(innerInsetMM), h-2*mm(innerInsetMM))
	dc.Stroke()

	cx := w / 2
	for _, b := range l.Blocks {
		switch b.Kind {
		case KindRule:
			dc.SetColor(goldColor)
			dc.SetLineWidth(mm(0.5))
			dc.DrawLine(cx-b.Width/2, b.Top, cx+b.Width/2, b.Top)
			dc.Stroke()
		case KindImage:
			side := int(b.Width)
			dc.DrawImage(squareThumb(l.image, side), int(cx)-side/2, int(b.Top))
		default:
			dc.SetFontFace(b.face)
			dc.SetColor(blockColors[b.Kind])
			lh := lineHeight(b.face)
			for i, line := range b.Lines {
				dc.DrawStringAnchored(line, cx, b.Top+float64(i)*lh+ascent(b.face), 0.5, 0)
			}
		}
	}
	return dc
}

// squareThumb center-crops img to a square and scales it to size.
func squareThumb(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, image.Rect(x0, y0, x0+side, y0+side), draw.Over, nil)
	return dst
}
