// Package trace holds the plotted traces of a plot: the ordered registry
// that is the single source of truth for what is shown, the trace kinds,
// and the helpers that create or update line traces from datasets.
package trace

import (
	"fmt"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
)

// Kind tags the data a trace displays
type Kind int

const (
	KindLine Kind = iota
	KindImage
	KindSurface
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindImage:
		return "image"
	case KindSurface:
		return "surface"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Data is implemented only by LineData, ImageData and SurfaceData
type Data interface {
	Kind() Kind
	sealed()
}

// LineData is a 1D curve
type LineData struct {
	X, Y *dataset.Array
}

func (LineData) Kind() Kind { return KindLine }
func (LineData) sealed()    {}

// ImageData is a 2D image with optional axis values
type ImageData struct {
	Image        *dataset.Array
	XAxis, YAxis *dataset.Array
}

func (ImageData) Kind() Kind { return KindImage }
func (ImageData) sealed()    {}

// SurfaceData is a triangulated isosurface with per-axis ticks
type SurfaceData struct {
	Triangles []models.Triangle
	Ticks     [3][]float64
	Labels    [3][]string
}

func (SurfaceData) Kind() Kind { return KindSurface }
func (SurfaceData) sealed()    {}

// Color is an RGB display colour
type Color struct {
	R, G, B uint8
}

// Palette is cycled through by position when traces are created
var Palette = []Color{
	{0, 0, 255},
	{255, 0, 0},
	{0, 128, 0},
	{255, 128, 0},
	{128, 0, 128},
	{0, 160, 160},
	{128, 64, 0},
	{96, 96, 96},
}

// PaletteColor returns the colour for the trace at position i
func PaletteColor(i int) Color {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Trace is a named plotted curve, image or surface. Traces are owned by a
// Registry; other code keeps the pointer as a handle.
type Trace struct {
	Name  string
	Data  Data
	Color Color

	// User marks traces that the user plotted, as opposed to decorations
	// managed by tools
	User bool
}

// NewLine creates a user line trace
func NewLine(name string, x, y *dataset.Array) *Trace {
	return &Trace{Name: name, Data: LineData{X: x, Y: y}, User: true}
}

// NewImage creates a user image trace
func NewImage(name string, image *dataset.Array) *Trace {
	return &Trace{Name: name, Data: ImageData{Image: image}, User: true}
}

// Kind returns the kind of the trace's data
func (t *Trace) Kind() Kind {
	return t.Data.Kind()
}

// Line returns the line data when the trace is a line
func (t *Trace) Line() (LineData, bool) {
	l, ok := t.Data.(LineData)
	return l, ok
}

func (t *Trace) String() string {
	return fmt.Sprintf("%s(%s)", t.Name, t.Kind())
}
