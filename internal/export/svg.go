// Package export renders stored trajectories to standalone SVG files.
package export

import (
	"fmt"
	"math"
	"strings"
)

var palette = []string{
	"#00ff00", "#00bfff", "#ff4040", "#ffd700", "#ff00ff",
	"#00ffaa", "#ff8c00", "#8a2be2",
}

// TrajectorySVG draws one log10-abundance history per species against
// time, as colored polylines on a dark background with a simple legend.
// times are in years; states are per-sample density vectors already
// converted to abundance by the caller if desired.
func TrajectorySVG(times []float64, states [][]float64, names []string, width, height int) string {
	if len(times) < 2 || len(states) < 2 || len(states[0]) == 0 {
		return ""
	}
	nvar := len(states[0])

	// bounds over log-scaled values
	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, row := range states {
		for _, v := range row {
			lv := logVal(v)
			if lv < minY {
				minY = lv
			}
			if lv > maxY {
				maxY = lv
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for v := 0; v < nvar; v++ {
		color := palette[v%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, row := range states {
			x := (times[i] - minX) / rangeX * float64(width)
			y := float64(height) - (logVal(row[v])-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	for v := 0; v < nvar && v < len(names); v++ {
		color := palette[v%len(palette)]
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*v, color, names[v]))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func logVal(v float64) float64 {
	return math.Log10(math.Abs(v) + 1e-30)
}
