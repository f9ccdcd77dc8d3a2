package junocam

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	frameMapWidth     = 640
	frameMapMaxHeight = 1600
	frameMapHeaderH   = 40
	frameMapLabelW    = 48
	frameMapColumnW   = 120
)

// RenderFrameMap draws a diagram of which raw band lands in which mosaic
// slot and writes it as a JPEG.
func RenderFrameMap(l Layout, outputPath string) error {
	img, err := renderFrameMapImage(l)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create frame map file: %w", err)
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// RenderFrameMapBytes is RenderFrameMap returning the JPEG bytes.
func RenderFrameMapBytes(l Layout) ([]byte, error) {
	img, err := renderFrameMapImage(l)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderFrameMapImage(l Layout) (*image.RGBA, error) {
	if l.Frames < MinFrames || l.Params.Bands <= 0 {
		return nil, fmt.Errorf("no frames to draw")
	}

	bands := l.Params.Bands
	// Band cells shrink with frame count so the diagram stays bounded.
	cellH := (frameMapMaxHeight - frameMapHeaderH) / (l.Frames * bands)
	if cellH < 2 {
		cellH = 2
	}
	if cellH > 12 {
		cellH = 12
	}
	rawH := l.Frames * bands * cellH
	totalH := frameMapHeaderH + rawH

	img := image.NewRGBA(image.Rect(0, 0, frameMapWidth, totalH))
	fillRect(img, img.Bounds(), color.RGBA{16, 16, 16, 255})

	face := basicfont.Face7x13
	textColor := color.RGBA{230, 230, 230, 255}
	drawText(img, face, fmt.Sprintf("raw %d rows, %d frames x %d bands of %d rows", l.Height, l.Frames, bands, l.Params.BandHeight), 8, 15, textColor)
	drawText(img, face, fmt.Sprintf("copied frames %d..%d, mosaics %d rows", l.FirstFrame(), l.LastFrame(), l.MosaicHeight()), 8, 32, textColor)

	rawX0 := frameMapLabelW
	rawX1 := rawX0 + frameMapColumnW
	// Mosaic columns sit right of the raw column; each mosaic slot is as
	// tall as a raw frame so slot s lines up with raw frame s.
	slotH := bands * cellH
	mosaicX := func(c Channel) int {
		return rawX1 + 60 + int(c)*(frameMapColumnW+20)
	}

	for _, c := range Channels {
		x0 := mosaicX(c)
		drawCenteredText(img, face, c.String(), x0+frameMapColumnW/2, frameMapHeaderH-2, textColor)
		written := l.Written(c)
		for s := 0; s < l.Frames; s++ {
			y0 := frameMapHeaderH + s*slotH
			cell := image.Rect(x0, y0, x0+frameMapColumnW, y0+slotH-1)
			slot := l.Slot(s)
			if slot.Start >= written.Start && slot.End <= written.End {
				fillRect(img, cell, channelColor(c, false))
			} else {
				fillRect(img, cell, color.RGBA{0, 0, 0, 255})
			}
		}
	}

	for f := 0; f < l.Frames; f++ {
		skipped := !l.IsInterior(f)
		frameY := frameMapHeaderH + f*slotH
		if slotH >= 13 || f%5 == 0 {
			drawText(img, face, fmt.Sprintf("%d", f), 6, frameY+min(slotH, 13)-2, textColor)
		}
		for _, filter := range l.Params.Filters {
			y0 := frameY + filter.Band*cellH
			fillRect(img, image.Rect(rawX0, y0, rawX1, y0+cellH-1), channelColor(filter.Channel, skipped))
			if skipped {
				continue
			}
			p, _ := l.Placement(f, filter.Channel)
			srcY := y0 + cellH/2
			dstY := frameMapHeaderH + p.Dst.Start/l.Params.BandHeight*slotH + slotH/2
			dstX := mosaicX(filter.Channel)
			lineColor := channelColor(filter.Channel, false)
			drawLine(img, rawX1, srcY, dstX-1, dstY, lineColor)
			if slotH >= 8 {
				drawArrowHead(img, rawX1, srcY, dstX-1, dstY, lineColor)
			}
		}
	}

	return img, nil
}

// channelColor is the fill for a band of channel c, greyed when the band
// is not copied.
func channelColor(c Channel, skipped bool) color.RGBA {
	if skipped {
		return color.RGBA{70, 70, 70, 255}
	}
	switch c {
	case Red:
		return color.RGBA{210, 60, 50, 255}
	case Green:
		return color.RGBA{60, 180, 80, 255}
	default:
		return color.RGBA{60, 100, 220, 255}
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCenteredText draws a string centered at (cx, y).
func drawCenteredText(img *image.RGBA, face font.Face, s string, cx, y int, c color.RGBA) {
	advance := font.MeasureString(face, s)
	drawText(img, face, s, cx-advance.Round()/2, y, c)
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawArrowHead draws a simple arrowhead at the end of a line.
func drawArrowHead(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	length := math.Sqrt(dx*dx + dy*dy)
	if length < 1 {
		return
	}
	dx /= length
	dy /= length

	const sz = 6.0
	px := float64(x1) - dx*sz
	py := float64(y1) - dy*sz

	drawLine(img, x1, y1, int(px+dy*sz*0.5), int(py-dx*sz*0.5), c)
	drawLine(img, x1, y1, int(px-dy*sz*0.5), int(py+dx*sz*0.5), c)
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
