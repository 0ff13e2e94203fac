package viz

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

var ErrClosed = errors.New("renderer closed")

const (
	CartWidth  = 0.4
	CartHeight = 0.2

	DefaultCols = 60
	DefaultRows = 17

	tipRadius = 1
)

// Viewport is the region of world coordinates mapped onto the canvas.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64
}

var DefaultViewport = Viewport{XMin: -2, XMax: 2, YMin: -1.1, YMax: 1.1}

// Renderer draws cart-pendulum states onto a braille canvas. It must be
// opened before use and cannot render once closed.
type Renderer struct {
	params     physics.Params
	view       Viewport
	cols, rows int
	style      lipgloss.Style

	canvas *Canvas
	closed bool
}

type RendererOption func(*Renderer)

func WithViewport(v Viewport) RendererOption {
	return func(r *Renderer) { r.view = v }
}

func WithSize(cols, rows int) RendererOption {
	return func(r *Renderer) { r.cols, r.rows = cols, rows }
}

func WithStyle(s lipgloss.Style) RendererOption {
	return func(r *Renderer) { r.style = s }
}

func NewRenderer(p physics.Params, opts ...RendererOption) *Renderer {
	r := &Renderer{
		params: p,
		view:   DefaultViewport,
		cols:   DefaultCols,
		rows:   DefaultRows,
		style:  frameStyle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open allocates the drawing surface. Opening an open renderer is a no-op.
func (r *Renderer) Open() error {
	if r.closed {
		return ErrClosed
	}
	if r.canvas != nil {
		return nil
	}
	if r.cols <= 0 || r.rows <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", r.cols, r.rows)
	}
	if !(r.view.XMax > r.view.XMin) || !(r.view.YMax > r.view.YMin) {
		return fmt.Errorf("invalid viewport %+v", r.view)
	}
	r.canvas = NewCanvas(r.cols, r.rows)
	return nil
}

// Close releases the surface. Further calls to Render return ErrClosed.
func (r *Renderer) Close() error {
	r.closed = true
	r.canvas = nil
	return nil
}

func (r *Renderer) Canvas() *Canvas { return r.canvas }

// ToDots maps world coordinates to canvas dots, y pointing down.
func (r *Renderer) ToDots(wx, wy float64) (int, int) {
	v := r.view
	fx := (wx - v.XMin) / (v.XMax - v.XMin)
	fy := (v.YMax - wy) / (v.YMax - v.YMin)
	return int(math.Round(fx * float64(r.cols*2-1))), int(math.Round(fy * float64(r.rows*4-1)))
}

// Draw rasterizes x onto the canvas without styling.
func (r *Renderer) Draw(x dynamo.State) error {
	if r.closed || r.canvas == nil {
		return ErrClosed
	}
	if len(x) != physics.StateDim {
		return fmt.Errorf("%w: state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), physics.StateDim)
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}

	r.canvas.Clear()

	pos := x[physics.Pos]
	reach := CartWidth/2 + math.Abs(r.params.PoleLength)
	if pos+reach < r.view.XMin || pos-reach > r.view.XMax {
		return nil
	}

	x0, y0 := r.ToDots(pos-CartWidth/2, CartHeight/2)
	x1, y1 := r.ToDots(pos+CartWidth/2, -CartHeight/2)
	r.canvas.DrawRect(x0, y0, x1, y1)

	tx, ty := physics.Tip(r.params, x)
	cx, cy := r.ToDots(pos, 0)
	px, py := r.ToDots(tx, ty)
	r.canvas.DrawLine(cx, cy, px, py)
	r.canvas.DrawDisc(px, py, tipRadius)
	return nil
}

// Render draws x and returns the styled frame.
func (r *Renderer) Render(x dynamo.State) (string, error) {
	if err := r.Draw(x); err != nil {
		return "", err
	}
	return r.style.Render(r.canvas.String()), nil
}
