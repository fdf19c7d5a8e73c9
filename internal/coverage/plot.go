package coverage

import (
	"fmt"
	"image/color"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePNG plots depth as a filled line. The image format follows the
// extension of path.
func SavePNG(path string, depth []int, from int) error {
	if len(depth) == 0 {
		return fmt.Errorf("no coverage to plot")
	}

	pts := make(plotter.XYs, len(depth))
	for i, d := range depth {
		pts[i].X = float64(from + i)
		pts[i].Y = float64(d)
	}

	p := plot.New()
	p.Title.Text = "Read Coverage Distribution"
	p.X.Label.Text = "Reference Position"
	p.Y.Label.Text = "Coverage Depth"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("coverage line: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	line.FillColor = color.RGBA{B: 255, A: 77}

	p.Add(plotter.NewGrid(), line)
	p.Y.Min = 0

	if err := p.Save(15*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// Preview renders depth as a terminal line chart at most width columns
// wide. Depth is downsampled by bucket maximum so narrow peaks survive.
func Preview(depth []int, width, rows int) string {
	if len(depth) == 0 {
		return ""
	}
	if width < 1 {
		width = 1
	}
	if rows < 1 {
		rows = 1
	}

	data := downsample(depth, width)
	return asciigraph.Plot(data,
		asciigraph.Height(rows),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("coverage depth (%d positions, %d per column)", len(depth), bucketSize(len(depth), width))))
}

func bucketSize(n, width int) int {
	return (n + width - 1) / width
}

func downsample(depth []int, width int) []float64 {
	size := bucketSize(len(depth), width)
	out := make([]float64, 0, width)
	for i := 0; i < len(depth); i += size {
		peak := 0
		for _, d := range depth[i:min(i+size, len(depth))] {
			peak = max(peak, d)
		}
		out = append(out, float64(peak))
	}
	return out
}
