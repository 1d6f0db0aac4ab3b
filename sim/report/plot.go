package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// PlotPNG draws the named channels of a trace against time and writes a PNG.
func PlotPNG(st *trace.SimulationTrace, title string, channels []string, filename string) error {
	if st == nil || len(st.Samples) == 0 {
		return fmt.Errorf("plot %q: trace has no samples", title)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Legend.Top = true

	drawn := 0
	for i, name := range channels {
		times, values := st.Series(name)
		if len(times) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(times))
		for k := range times {
			pts[k].X = times[k]
			pts[k].Y = values[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %q: %s: %w", title, name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("plot %q: none of %v were sampled", title, channels)
	}
	return savePNG(p, 8, 5, filename)
}

func savePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
