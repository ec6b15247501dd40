/*
 * drift.go, part of gostk.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package chemplot draws histograms of how much the frozen internal coordinates of a
//macromolecule moved during an optimization.
package chemplot

import (
	"fmt"
	"image/color"
	"math"
	"os"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/constraint"
	"github.com/rmera/gostk/histo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

//Panel is the drift of the fixed coordinates of one kind.
type Panel struct {
	Kind   constraint.Kind
	Values []float64
	Histo  *histo.Data
	MaxAbs float64
}

func (P *Panel) unit() string {
	if P.Kind == constraint.Distance {
		return "A"
	}
	return "deg"
}

//Drift compares the fixed coordinates of set with their values in the conformer conf of mol,
//and returns one panel per kind of coordinate present in set, with bins bins.
func Drift(set *constraint.Set, mol *chem.Molecule, conf, bins int) ([]*Panel, error) {
	var ret []*Panel
	for _, k := range []constraint.Kind{constraint.Distance, constraint.Angle, constraint.Torsion} {
		if set.Count(k) == 0 {
			continue
		}
		v, err := set.Drift(mol, conf, k)
		if err != nil {
			return nil, err
		}
		h, err := histo.NewData(histo.Spanning(v, bins), v)
		if err != nil {
			return nil, err
		}
		P := &Panel{Kind: k, Values: v, Histo: h}
		for _, x := range v {
			P.MaxAbs = math.Max(P.MaxAbs, math.Abs(x))
		}
		ret = append(ret, P)
	}
	return ret, nil
}

func panelPlot(P *Panel, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s drift (max %.3g %s)", title, P.Kind, P.MaxAbs, P.unit())
	p.Title.Padding = vg.Millimeter * 3
	p.X.Label.Text = fmt.Sprintf("Final - initial (%s)", P.unit())
	p.Y.Label.Text = "Coordinates"
	div := P.Histo.Dividers()
	bins := make([]plotter.HistogramBin, len(P.Histo.View()))
	for i, w := range P.Histo.View() {
		bins[i] = plotter.HistogramBin{Min: div[i], Max: div[i+1], Weight: w}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     div[1] - div[0],
		FillColor: color.RGBA{R: 70, G: 110, B: 180, A: 255},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(plotter.NewGrid(), h)
	return p
}

//DriftPlot draws the panels, one above the other, and saves the image to path, in PNG format.
func DriftPlot(panels []*Panel, title, path string) error {
	if len(panels) == 0 {
		return fmt.Errorf("chemplot: nothing to plot")
	}
	table := make([][]*plot.Plot, len(panels))
	for i, P := range panels {
		table[i] = []*plot.Plot{panelPlot(P, title)}
	}
	img := vgimg.New(vg.Points(480), vg.Points(320*float64(len(panels))))
	dc := draw.New(img)
	t := draw.Tiles{Rows: len(panels), Cols: 1, PadX: vg.Millimeter, PadY: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
	canvases := plot.Align(table, t, dc)
	for i := range table {
		table[i][0].Draw(canvases[i][0])
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
