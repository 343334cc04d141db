// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package readout renders a humidity/temperature measurement as two lines of
// text onto a panel.
package readout

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/GermanBionicSystems/hygrometer/panel"
	"github.com/GermanBionicSystems/hygrometer/sht4x"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// minVectorHeight is the smallest logical image height that gets the
// TrueType font. Below it the bitmap 7x13 face is used.
const minVectorHeight = 32

var (
	parseOnce sync.Once
	regular   *truetype.Font
	parseErr  error
)

func goRegular() (*truetype.Font, error) {
	parseOnce.Do(func() {
		regular, parseErr = truetype.Parse(goregular.TTF)
	})
	return regular, parseErr
}

// Lines returns the text shown for m. The bitmap face has no degree sign, so
// ascii selects a plain variant.
func Lines(m sht4x.Measurement, ascii bool) [2]string {
	unit := "°C"
	if ascii {
		unit = "C"
	}
	return [2]string{
		fmt.Sprintf("%.1f%s", m.Temperature, unit),
		fmt.Sprintf("%.1f%% RH", m.Humidity*100),
	}
}

// Face returns the font face fitting two lines in an image of height h on a
// panel with resolution dpi. The second return value is true for the bitmap
// fallback.
func Face(h int, dpi panel.DPI) (font.Face, bool) {
	if h < minVectorHeight {
		return basicfont.Face7x13, true
	}
	f, err := goRegular()
	if err != nil {
		return basicfont.Face7x13, true
	}
	res := dpi.Y
	if res <= 0 {
		res = 72
	}
	// Leave a quarter of each line for spacing.
	px := float64(h) / 2 * 0.75
	return truetype.NewFace(f, &truetype.Options{Size: px * 72 / res, DPI: res}), false
}

// Draw writes m onto dst, white on black, one line per half.
func Draw(dst draw.Image, m sht4x.Measurement, dpi panel.DPI) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	face, ascii := Face(h, dpi)
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(face)
	lines := Lines(m, ascii)
	for i, s := range lines {
		y := float64(h) * (float64(i) + 0.5) / 2
		dc.DrawStringAnchored(s, float64(w)/2, y, 0.5, 0.5)
	}
	draw.Draw(dst, b, dc.Image(), image.Point{}, draw.Src)
}

// Render draws m on p rotated by o.
func Render(p panel.Panel, m sht4x.Measurement, o panel.Orientation) error {
	img := p.NewImage(o)
	Draw(img, m, p.DPI())
	return p.Render(img, o)
}
