package chart

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/park285/skullking-companion/internal/scoreboard"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// goChartRenderer draws the same progress lines with go-chart axes and legend.
// The Y range is pinned to DeriveBounds so both renderers share one scale.
type goChartRenderer struct {
	viewport Viewport
}

func (r *goChartRenderer) RenderPNG(ctx context.Context, summaries []scoreboard.PlayerSummary) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !HasRounds(summaries) {
		return r.placeholder("No rounds recorded yet")
	}

	b := DeriveBounds(summaries)
	series := make([]chart.Series, 0, len(summaries))
	for idx, s := range summaries {
		points := Cumulative(s.History)
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, v := range points {
			xs[i] = float64(i)
			ys[i] = float64(v)
		}
		clr := drawing.ColorFromHex(strings.TrimPrefix(palette[idx%len(palette)], "#"))
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: clr,
				StrokeWidth: 3,
				DotWidth:    3,
				DotColor:    clr,
			},
		})
	}

	text := drawing.ColorFromHex("ecdebe")
	ticks := make([]chart.Tick, 0, r.viewport.Rounds+1)
	for i := 0; i <= r.viewport.Rounds; i++ {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: strconv.Itoa(i)})
	}

	graph := chart.Chart{
		Width:      int(r.viewport.Width),
		Height:     int(r.viewport.Height),
		Background: chart.Style{FillColor: drawing.ColorFromHex(strings.TrimPrefix(backgroundColor, "#"))},
		Canvas:     chart.Style{FillColor: drawing.ColorFromHex(strings.TrimPrefix(backgroundColor, "#"))},
		XAxis: chart.XAxis{
			Name:  "Round",
			Style: chart.Style{FontColor: text},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(r.viewport.Rounds)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Score",
			Style: chart.Style{FontColor: text},
			Range: &chart.ContinuousRange{Min: float64(b.Min), Max: float64(b.Min + b.Range)},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *goChartRenderer) placeholder(msg string) ([]byte, error) {
	bg := drawing.ColorFromHex(strings.TrimPrefix(backgroundColor, "#"))
	hidden := chart.Style{Hidden: true}
	graph := chart.Chart{
		Width:      int(r.viewport.Width),
		Height:     int(r.viewport.Height) / 2,
		Background: chart.Style{FillColor: bg},
		Canvas:     chart.Style{FillColor: bg},
		XAxis:      chart.XAxis{Style: hidden, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:      chart.YAxis{Style: hidden, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		// go-chart refuses to render without a series.
		Series: []chart.Series{chart.ContinuousSeries{
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
		}},
		Elements: []chart.Renderable{
			func(rr chart.Renderer, cb chart.Box, _ chart.Style) {
				rr.SetFontColor(drawing.ColorFromHex("ecdebe"))
				rr.SetFontSize(12.0)
				tb := rr.MeasureText(msg)
				rr.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
