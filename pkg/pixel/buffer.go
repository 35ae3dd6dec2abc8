// Package pixel holds the buffer and descriptor types shared by the
// transform and picker stages.
package pixel

import "fmt"

// Space tags the colorspace a buffer's values are declared in.
type Space int

const (
	SpaceNone Space = iota // "no conversion" marker
	SpaceRAW
	SpaceRGB
	SpaceLab
	SpaceLCh
	SpaceGray
)

func (s Space) String() string {
	switch s {
	case SpaceNone:
		return "none"
	case SpaceRAW:
		return "raw"
	case SpaceRGB:
		return "rgb"
	case SpaceLab:
		return "lab"
	case SpaceLCh:
		return "lch"
	case SpaceGray:
		return "gray"
	}
	return "unknown"
}

// Layout is the physical sample layout of a buffer.
type Layout int

const (
	// Layout4Ch is interleaved 4-float pixels (3 color + 1 spare)
	Layout4Ch Layout = iota
	// LayoutBayer is a single-channel 2x2 mosaic
	LayoutBayer
	// LayoutXTrans is a single-channel 6x6 mosaic
	LayoutXTrans
)

func (l Layout) String() string {
	switch l {
	case Layout4Ch:
		return "4ch"
	case LayoutBayer:
		return "bayer"
	case LayoutXTrans:
		return "xtrans"
	}
	return "unknown"
}

// Descriptor describes a buffer being processed. Channels is 1 for the
// mosaic layouts and 4 otherwise.
type Descriptor struct {
	Channels int
	Space    Space
	Layout   Layout
	// Bayer is the 2x2 repeat pattern as color indices, row major;
	// RGGB is {0,1,1,2}. Valid when Layout == LayoutBayer.
	Bayer [4]int
	// XTrans is the 6x6 repeat table of color indices. Valid when
	// Layout == LayoutXTrans.
	XTrans [6][6]int
}

// RGGB is the most common Bayer arrangement.
var RGGB = [4]int{0, 1, 1, 2}

// XTransStandard is Fujifilm's 6x6 repeat with the 2:5:2 R:G:B ratio
// per 3x3 cell.
var XTransStandard = [6][6]int{
	{1, 0, 2, 1, 2, 0},
	{2, 1, 1, 0, 1, 1},
	{0, 1, 1, 2, 1, 1},
	{1, 2, 0, 1, 0, 2},
	{0, 1, 1, 2, 1, 1},
	{2, 1, 1, 0, 1, 1},
}

// CFAIndex returns the color index measured at (x, y).
func (d Descriptor) CFAIndex(x, y int) int {
	switch d.Layout {
	case LayoutBayer:
		return d.Bayer[(y&1)<<1|(x&1)]
	case LayoutXTrans:
		return d.XTrans[y%6][x%6]
	}
	panic(fmt.Sprintf("pixel: CFAIndex on %v layout", d.Layout))
}

// Buffer is a width*height*channels float image.
type Buffer struct {
	Width, Height int
	Channels      int
	Data          []float32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(width, height, channels int) *Buffer {
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

// Row returns the samples of row y.
func (b *Buffer) Row(y int) []float32 {
	stride := b.Width * b.Channels
	return b.Data[y*stride : (y+1)*stride]
}

// Clone deep-copies the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels}
	out.Data = append([]float32(nil), b.Data...)
	return out
}
