package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleGazePathChart renders the live sample window and fixation sequence
// as an HTML scatter plot using go-echarts. This is a debugging-only
// endpoint (no auth) to visually inspect the gaze path without a frontend.
// Query params:
//   - max_points (optional; default 2000) to reduce payload size
func (s *Server) handleGazePathChart(w http.ResponseWriter, r *http.Request) {
	samples := s.session.WindowSamples()
	if len(samples) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no samples in window")
		return
	}

	maxPoints := 2000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(samples) > maxPoints {
		stride = (len(samples) + maxPoints - 1) / maxPoints
	}

	firstMs := samples[0].TimestampMs
	pathData := make([]opts.ScatterData, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		sm := samples[i]
		ageMs := float64(sm.TimestampMs - firstMs)
		pathData = append(pathData, opts.ScatterData{Value: []interface{}{sm.X, sm.Y, ageMs}})
	}
	maxAgeMs := float64(samples[len(samples)-1].TimestampMs - firstMs)
	if maxAgeMs == 0 {
		maxAgeMs = 1
	}

	fixations, _ := s.session.Events()
	fixData := make([]opts.ScatterData, 0, len(fixations))
	for _, f := range fixations {
		fixData = append(fixData, opts.ScatterData{Value: []interface{}{f.X, f.Y, float64(f.DurationMs)}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gaze Path", Theme: "dark", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Gaze Path",
			Subtitle: fmt.Sprintf("session=%s samples=%d fixations=%d stride=%d", s.session.ID(), len(pathData), len(fixData), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxAgeMs),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)

	scatter.AddSeries("samples", pathData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	if len(fixData) > 0 {
		scatter.AddSeries("fixations", fixData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
