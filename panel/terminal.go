// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// TerminalOpts represents the options available for a Terminal.
type TerminalOpts struct {
	X, Y    int
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// Terminal is a display.Drawer that prints to the console using ANSI color
// codes, one text line per pixel row.
//
// Useful to see what a panel shows without the hardware.
type Terminal struct {
	w       io.Writer
	r       image.Rectangle
	palette ansi256.Palette

	pixels *image.NRGBA
	buf    bytes.Buffer
}

// NewTerminal returns a Terminal that displays at the console.
func NewTerminal(opts *TerminalOpts) *Terminal {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	r := image.Rect(0, 0, opts.X, opts.Y)
	return &Terminal{
		w:       w,
		r:       r,
		palette: *p,
		pixels:  image.NewNRGBA(r),
	}
}

func (t *Terminal) String() string {
	return fmt.Sprintf("Terminal{%d, %d}", t.r.Dx(), t.r.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the console is not left colored.
func (t *Terminal) Halt() error {
	_, err := io.WriteString(t.w, "\033[0m\n")
	return err
}

// ColorModel implements display.Drawer.
func (t *Terminal) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (t *Terminal) Bounds() image.Rectangle {
	return t.r
}

// Draw implements display.Drawer.
func (t *Terminal) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(t.r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t.pixels.Set(x, y, src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
		}
	}
	return t.refresh()
}

func (t *Terminal) refresh() error {
	t.buf.Reset()
	for y := t.r.Min.Y; y < t.r.Max.Y; y++ {
		_, _ = t.buf.WriteString("\033[0m")
		for x := t.r.Min.X; x < t.r.Max.X; x++ {
			_, _ = io.WriteString(&t.buf, t.palette.Block(t.pixels.NRGBAAt(x, y)))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

var _ display.Drawer = &Terminal{}
var _ fmt.Stringer = &Terminal{}
