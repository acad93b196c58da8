package api

import (
	"fmt"
	"image/color"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// handleFixationHeatmap renders the accumulated fixations as a PNG scatter
// where marker size tracks fixation duration. Long fixations dominate the
// image, which is the point.
func (s *Server) handleFixationHeatmap(w http.ResponseWriter, r *http.Request) {
	fixations, _ := s.session.Events()
	if len(fixations) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no fixations recorded")
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Fixation Map (%d fixations)", len(fixations))
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"

	var maxDuration int64 = 1
	for _, f := range fixations {
		if f.DurationMs > maxDuration {
			maxDuration = f.DurationMs
		}
	}

	pts := make(plotter.XYs, len(fixations))
	for i, f := range fixations {
		// Screen Y grows downward; flip so the plot matches the display.
		pts[i] = plotter.XY{X: f.X, Y: -f.Y}
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build scatter: %v", err))
		return
	}

	durations := fixations
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		frac := float64(durations[i].DurationMs) / float64(maxDuration)
		return draw.GlyphStyle{
			Color:  color.RGBA{R: uint8(64 + 191*frac), G: 64, B: uint8(255 - 191*frac), A: 180},
			Radius: vg.Points(3 + 9*frac),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render heatmap: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		// Headers already sent; nothing useful left to report to the client.
		return
	}
}
