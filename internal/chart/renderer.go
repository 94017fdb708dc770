package chart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"github.com/park285/skullking-companion/internal/scoreboard"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Renderer turns a scoreboard into a PNG progress chart.
type Renderer interface {
	RenderPNG(ctx context.Context, summaries []scoreboard.PlayerSummary) ([]byte, error)
}

const (
	KindSVG     = "svg"
	KindGoChart = "gochart"
)

// NewRenderer picks a renderer by name; unknown names fall back to svg.
func NewRenderer(kind string) Renderer {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindGoChart:
		return &goChartRenderer{viewport: DefaultViewport}
	default:
		return &svgRenderer{viewport: DefaultViewport}
	}
}

// Line colors cycle per player.
var palette = []string{"#ff0000", "#00ff00", "#0000ff", "#ffff00", "#00ffff", "#ff00ff"}

const (
	backgroundColor = "#1c1f2e"
	gridColor       = "#444444"
)

var labelColor = color.NRGBA{R: 236, G: 222, B: 190, A: 255}

type svgRenderer struct {
	viewport Viewport
}

// SVG builds the chart document: grid lines, one path and dot set per player.
func SVG(v Viewport, summaries []scoreboard.PlayerSummary) []byte {
	b := DeriveBounds(summaries)
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`, v.Width, v.Height, v.Width, v.Height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%g" height="%g" fill="%s"/>`, v.Width, v.Height, backgroundColor)
	for i := 0; i < 5; i++ {
		y := v.Padding + float64(i)/4*(v.Height-2*v.Padding)
		fmt.Fprintf(&sb, `<line x1="%g" y1="%.2f" x2="%g" y2="%.2f" stroke="%s" stroke-width="1"/>`, v.Padding, y, v.Width-v.Padding, y, gridColor)
	}
	for idx, s := range summaries {
		clr := palette[idx%len(palette)]
		points := Cumulative(s.History)
		var d strings.Builder
		for r, score := range points {
			cmd := "L"
			if r == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&d, "%s %.2f %.2f ", cmd, v.X(r), v.Y(score, b))
		}
		fmt.Fprintf(&sb, `<g><path d="%s" fill="none" stroke="%s" stroke-width="3"/>`, strings.TrimSpace(d.String()), clr)
		for r, score := range points {
			fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"/>`, v.X(r), v.Y(score, b), clr)
		}
		sb.WriteString(`</g>`)
	}
	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

func (r *svgRenderer) RenderPNG(ctx context.Context, summaries []scoreboard.PlayerSummary) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	v := r.viewport
	w, h := int(v.Width), int(v.Height)
	if !HasRounds(summaries) {
		return r.placeholder("No rounds recorded yet")
	}
	legendHeight := 18 * ((len(summaries) + 2) / 3)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(SVG(v, summaries)), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse chart svg: %w", err)
	}
	icon.SetTarget(0, 0, v.Width, v.Height)

	// The scanner covers its whole Dest, so the plot gets its own w x h image.
	plot := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, plot, plot.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	img := image.NewRGBA(image.Rect(0, 0, w, h+legendHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(hexColor(backgroundColor)), image.Point{}, imagedraw.Src)
	imagedraw.Draw(img, plot.Bounds(), plot, image.Point{}, imagedraw.Over)

	drawAxisLabels(img, v)
	drawLegend(img, summaries, h)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *svgRenderer) placeholder(msg string) ([]byte, error) {
	w, h := int(r.viewport.Width), int(r.viewport.Height)/2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(hexColor(backgroundColor)), image.Point{}, imagedraw.Src)
	adv := font.MeasureString(basicfont.Face7x13, msg).Ceil()
	drawText(img, (w-adv)/2, h/2+6, msg, labelColor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(dst imagedraw.Image, x, y int, text string, clr color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawAxisLabels(img *image.RGBA, v Viewport) {
	for i := 0; i <= v.Rounds; i++ {
		txt := fmt.Sprintf("%d", i)
		adv := font.MeasureString(basicfont.Face7x13, txt).Ceil()
		drawText(img, int(v.X(i))-adv/2, int(v.Height)-10, txt, labelColor)
	}
}

func drawLegend(img *image.RGBA, summaries []scoreboard.PlayerSummary, top int) {
	const colWidth = 200
	for idx, s := range summaries {
		x := 20 + (idx%3)*colWidth
		y := top + 14 + (idx/3)*18
		swatch := image.Rect(x, y-9, x+10, y+1)
		imagedraw.Draw(img, swatch, image.NewUniform(hexColor(palette[idx%len(palette)])), image.Point{}, imagedraw.Src)
		drawText(img, x+16, y, legendLabel(s), labelColor)
	}
}

func legendLabel(s scoreboard.PlayerSummary) string {
	name := []rune(s.Name)
	if len(name) > 18 {
		name = append(name[:17], '~')
	}
	return fmt.Sprintf("%s (%d)", string(name), s.Score)
}

func hexColor(s string) color.NRGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
