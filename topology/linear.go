/*
 * linear.go, part of gostk.
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

package topology

import (
	"fmt"
	"strings"

	"github.com/rmera/gostk/bblock"
	"gonum.org/v1/gonum/spatial/r3"
)

//Linear is a chain of ditopic building blocks along the x axis.
//Repeat gives the repeating unit, one letter per building block ("AB" alternates
//the first and second building blocks). Orientation has one value per letter;
//building blocks with a value of 0.5 or more are placed reversed. The repeating
//unit is repeated N times (once, if N is 0).
type Linear struct {
	Repeat      string
	Orientation []float64
	N           int
}

func (L *Linear) n() int {
	if L.N < 1 {
		return 1
	}
	return L.N
}

func (L *Linear) repeat() string {
	if L.Repeat == "" {
		return "A"
	}
	return strings.ToUpper(L.Repeat)
}

//Key identifies the chain.
func (L *Linear) Key() string {
	return fmt.Sprintf("Linear(%s,%v,%d)", L.repeat(), L.Orientation, L.n())
}

//letters returns the building block index of each vertex.
func (L *Linear) letters() []int {
	rep := L.repeat()
	ret := make([]int, 0, len(rep)*L.n())
	for k := 0; k < L.n(); k++ {
		for _, c := range rep {
			ret = append(ret, int(c-'A'))
		}
	}
	return ret
}

//Graph returns the vertices of the chain, spaced for the given building blocks.
func (L *Linear) Graph(units []*bblock.Unit) (*Graph, error) {
	rep := L.repeat()
	if L.Orientation != nil && len(L.Orientation) != len(rep) {
		return nil, &IncompatibleTopologyError{Topology: L.Key(), Vertex: -1, Edge: -1, msg: fmt.Sprintf("%d orientations for a repeating unit of %d", len(L.Orientation), len(rep)), deco: []string{"Graph"}}
	}
	letters := L.letters()
	for i, l := range letters {
		if l < 0 || l >= len(units) {
			return nil, &IncompatibleTopologyError{Topology: L.Key(), Vertex: i, Edge: -1, msg: fmt.Sprintf("Repeating unit %q refers to a building block not given", rep), deco: []string{"Graph"}}
		}
	}
	g := &Graph{}
	x := 0.0
	for i, l := range letters {
		r := units[l].MaxBonderRadius(0)
		if i > 0 {
			x += r + BondGap
		}
		axis := r3.Vec{X: 1}
		if L.Orientation != nil && L.Orientation[i%len(rep)] >= 0.5 {
			axis = r3.Vec{X: -1}
		}
		g.Vertices = append(g.Vertices, Vertex{
			Position:     r3.Vec{X: x},
			Connectivity: 2,
			Terminal:     i == 0 || i == len(letters)-1,
			Axis:         axis,
		})
		if i > 0 {
			g.Edges = append(g.Edges, Edge{V1: i - 1, V2: i})
		}
		x += r
	}
	return g, nil
}

//DefaultAssignment follows the repeating unit.
func (L *Linear) DefaultAssignment(units []*bblock.Unit, g *Graph) ([]int, error) {
	return L.letters(), nil
}
