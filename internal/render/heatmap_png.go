package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"shoptrends/domain/chart"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	white      = drawing.Color{R: 255, G: 255, B: 255, A: 255}
	blue       = drawing.Color{R: 0, G: 0, B: 255, A: 255}
	labelColor = image.NewUniform(color.RGBA{A: 255})
	gapColor   = image.NewUniform(color.RGBA{R: 220, G: 220, B: 220, A: 255})
)

// heatmapPNG paints one rectangle per cell on a white-to-blue ramp, with the row and
// column keys along the edges and the annotation text centred in each cell
func heatmapPNG(w io.Writer, spec chart.Spec, width, height int) error {
	t := spec.Traces[0]
	rows, cols := len(t.Z), 0
	if rows > 0 {
		cols = len(t.Z[0])
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	const top, left, bottom, right = 40, 110, 30, 20
	cellW := (width - left - right) / max(cols, 1)
	cellH := (height - top - bottom) / max(rows, 1)

	lo, hi := zRange(t)
	text := make(map[[2]int]string, len(spec.Annotations))
	for _, a := range spec.Annotations {
		text[[2]int{a.Row, a.Col}] = a.Text
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rect := image.Rect(left+j*cellW, top+i*cellH, left+(j+1)*cellW-1, top+(i+1)*cellH-1)
			var fill image.Image = gapColor
			if !missing(t, i, j) {
				frac := 0.0
				if hi > lo {
					frac = (t.Z[i][j] - lo) / (hi - lo)
				}
				fill = image.NewUniform(lerp(white, blue, frac))
			}
			draw.Draw(img, rect, fill, image.Point{}, draw.Src)
			if s, ok := text[[2]int{i, j}]; ok {
				centre(img, s, rect)
			}
		}
		label(img, category(spec.YAxis, i), 6, top+i*cellH+cellH/2+4)
	}
	for j := 0; j < cols; j++ {
		centre(img, category(spec.XAxis, j), image.Rect(left+j*cellW, height-bottom, left+(j+1)*cellW, height-bottom+20))
	}
	label(img, spec.Title, left, 24)

	return png.Encode(w, img)
}

func zRange(t chart.Trace) (lo, hi float64) {
	first := true
	for i, row := range t.Z {
		for j, v := range row {
			if missing(t, i, j) {
				continue
			}
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

func missing(t chart.Trace, i, j int) bool {
	return i < len(t.Missing) && j < len(t.Missing[i]) && t.Missing[i][j]
}

func label(img draw.Image, s string, x, y int) {
	d := &font.Drawer{Dst: img, Src: labelColor, Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func centre(img draw.Image, s string, r image.Rectangle) {
	d := &font.Drawer{Dst: img, Src: labelColor, Face: basicfont.Face7x13}
	tw := d.MeasureString(s).Ceil()
	d.Dot = fixed.P(r.Min.X+(r.Dx()-tw)/2, r.Min.Y+r.Dy()/2+4)
	d.DrawString(s)
}

// writeMessage renders a blank image with a title and one line of text
func writeMessage(w io.Writer, width, height int, title, msg string) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	if title != "" && title != msg {
		label(img, title, 16, 24)
	}
	centre(img, msg, img.Bounds())
	return png.Encode(w, img)
}
