// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel describes a pixel display that images can be rendered to in
// any of the four right angle orientations.
//
// FromDrawer adapts any periph display.Drawer, for example an ssd1306 OLED or
// the Terminal emulator in this package.
package panel

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync/atomic"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// ErrClosed is returned when using a Panel after Close.
var ErrClosed = errors.New("panel: closed")

// Orientation is a clockwise rotation applied when rendering.
type Orientation int

const (
	Rotate0 Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (o Orientation) String() string {
	switch o {
	case Rotate0:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// DPI is the resolution of a panel in dots per inch along each axis.
type DPI struct {
	X, Y float64
}

// Panel is a physical display.
type Panel interface {
	// Bounds returns the pixel dimensions of the physical panel.
	Bounds() image.Rectangle
	// DPI returns the horizontal and vertical resolution.
	DPI() DPI
	// NewImage returns a blank image sized for rendering in orientation o.
	NewImage(o Orientation) draw.Image
	// Render draws img to the panel rotated clockwise by o.
	Render(img image.Image, o Orientation) error
	// Close halts the display. It must be called exactly once.
	Close() error
}

type drawerPanel struct {
	d      display.Drawer
	dpi    DPI
	closed atomic.Bool
}

// FromDrawer returns a Panel rendering to d.
func FromDrawer(d display.Drawer, dpi DPI) Panel {
	return &drawerPanel{d: d, dpi: dpi}
}

func (p *drawerPanel) String() string {
	return "panel(" + p.d.String() + ")"
}

func (p *drawerPanel) Bounds() image.Rectangle {
	return p.d.Bounds()
}

func (p *drawerPanel) DPI() DPI {
	return p.dpi
}

func (p *drawerPanel) NewImage(o Orientation) draw.Image {
	r := Logical(p.d.Bounds(), o)
	if p.d.ColorModel() == image1bit.BitModel {
		return image1bit.NewVerticalLSB(r)
	}
	return image.NewNRGBA(r)
}

func (p *drawerPanel) Render(img image.Image, o Orientation) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if o < Rotate0 || o > Rotate270 {
		return fmt.Errorf("panel: invalid orientation %d", int(o))
	}
	src := img
	if o != Rotate0 {
		dst := p.NewImage(Rotate0)
		rotate(dst, img, o)
		src = dst
	}
	return p.d.Draw(p.d.Bounds(), src, src.Bounds().Min)
}

func (p *drawerPanel) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return p.d.Halt()
}

// Logical returns the bounds of an image that, rotated by o, covers a panel
// of bounds r.
func Logical(r image.Rectangle, o Orientation) image.Rectangle {
	if o == Rotate90 || o == Rotate270 {
		return image.Rect(0, 0, r.Dy(), r.Dx())
	}
	return image.Rect(0, 0, r.Dx(), r.Dy())
}

// rotate copies src into dst rotated clockwise by o. dst must be sized for the
// panel.
func rotate(dst draw.Image, src image.Image, o Orientation) {
	sb := src.Bounds()
	db := dst.Bounds()
	w, h := db.Dx(), db.Dy()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			lx, ly := x-sb.Min.X, y-sb.Min.Y
			var px, py int
			switch o {
			case Rotate90:
				px, py = w-1-ly, lx
			case Rotate180:
				px, py = w-1-lx, h-1-ly
			case Rotate270:
				px, py = ly, h-1-lx
			default:
				px, py = lx, ly
			}
			dst.Set(db.Min.X+px, db.Min.Y+py, src.At(x, y))
		}
	}
}
