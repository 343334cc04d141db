// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// fakeDrawer is a display.Drawer keeping the last drawn frame.
type fakeDrawer struct {
	r      image.Rectangle
	model  color.Model
	frame  *image.NRGBA
	halted int
}

func newFakeDrawer(w, h int, model color.Model) *fakeDrawer {
	r := image.Rect(0, 0, w, h)
	return &fakeDrawer{r: r, model: model, frame: image.NewNRGBA(r)}
}

func (f *fakeDrawer) String() string          { return "fake" }
func (f *fakeDrawer) ColorModel() color.Model { return f.model }
func (f *fakeDrawer) Bounds() image.Rectangle { return f.r }

func (f *fakeDrawer) Halt() error {
	f.halted++
	return nil
}

func (f *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.frame.Set(x, y, src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
		}
	}
	return nil
}

var marker = color.NRGBA{R: 255, A: 255}

// lit returns the coordinates of every marker pixel.
func lit(img *image.NRGBA) []image.Point {
	var out []image.Point
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y) == marker {
				out = append(out, image.Pt(x, y))
			}
		}
	}
	return out
}

func TestLogical(t *testing.T) {
	r := image.Rect(0, 0, 128, 32)
	if got := Logical(r, Rotate0); got != r {
		t.Errorf("Logical(0)=%v", got)
	}
	if got := Logical(r, Rotate90); got != image.Rect(0, 0, 32, 128) {
		t.Errorf("Logical(90)=%v", got)
	}
	if got := Logical(r, Rotate180); got != r {
		t.Errorf("Logical(180)=%v", got)
	}
	if got := Logical(r, Rotate270); got != image.Rect(0, 0, 32, 128) {
		t.Errorf("Logical(270)=%v", got)
	}
}

func TestRender(t *testing.T) {
	// The logical image has a single marker pixel at its origin.
	for _, test := range []struct {
		o    Orientation
		want image.Point
	}{
		{Rotate0, image.Pt(0, 0)},
		{Rotate90, image.Pt(3, 0)},
		{Rotate180, image.Pt(3, 1)},
		{Rotate270, image.Pt(0, 1)},
	} {
		t.Run(test.o.String(), func(t *testing.T) {
			d := newFakeDrawer(4, 2, color.NRGBAModel)
			p := FromDrawer(d, DPI{X: 100, Y: 100})
			img := p.NewImage(test.o)
			if got, want := img.Bounds(), Logical(d.Bounds(), test.o); got != want {
				t.Fatalf("NewImage bounds %v expected %v", got, want)
			}
			img.Set(0, 0, marker)
			if err := p.Render(img, test.o); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]image.Point{test.want}, lit(d.frame)); diff != "" {
				t.Errorf("unexpected pixels (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderInvalidOrientation(t *testing.T) {
	p := FromDrawer(newFakeDrawer(4, 2, color.NRGBAModel), DPI{})
	if err := p.Render(image.NewNRGBA(image.Rect(0, 0, 4, 2)), Orientation(7)); err == nil {
		t.Error("expected error for invalid orientation")
	}
}

func TestNewImageBitModel(t *testing.T) {
	p := FromDrawer(newFakeDrawer(128, 64, image1bit.BitModel), DPI{X: 130, Y: 130})
	if _, ok := p.NewImage(Rotate0).(*image1bit.VerticalLSB); !ok {
		t.Errorf("NewImage() returned %T for a 1-bit panel", p.NewImage(Rotate0))
	}
	if dpi := p.DPI(); dpi.X != 130 || dpi.Y != 130 {
		t.Errorf("DPI()=%v", dpi)
	}
}

func TestClose(t *testing.T) {
	d := newFakeDrawer(4, 2, color.NRGBAModel)
	p := FromDrawer(d, DPI{})
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() returned %v", err)
	}
	if d.halted != 1 {
		t.Errorf("Halt called %d times", d.halted)
	}
	if err := p.Render(p.NewImage(Rotate0), Rotate0); !errors.Is(err, ErrClosed) {
		t.Errorf("Render() after Close() returned %v", err)
	}
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&TerminalOpts{X: 3, Y: 2, W: &buf})
	if term.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("Bounds()=%v", term.Bounds())
	}
	img := image.NewNRGBA(term.Bounds())
	img.Set(1, 1, marker)
	if err := term.Draw(term.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], ansi256.Default.Block(marker)) {
		t.Errorf("second line does not contain the marker: %q", lines[1])
	}
	buf.Reset()
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\033[0m\n" {
		t.Errorf("Halt() wrote %q", buf.String())
	}
}
