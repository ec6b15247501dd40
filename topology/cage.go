/*
 * cage.go, part of gostk.
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
	"math"

	"github.com/rmera/gostk/bblock"
	"gonum.org/v1/gonum/spatial/r3"
)

//polyhedron is a cage skeleton, with unit-scale node positions.
type polyhedron struct {
	nodes []r3.Vec
	edges [][2]int
}

var tetrahedron = &polyhedron{
	nodes: []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}},
	edges: [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}},
}

//neighboring vertices of the cube alternate between an even and an odd
//number of negative coordinates.
var cube = &polyhedron{
	nodes: []r3.Vec{
		{X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1},
		{X: 1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1},
	},
	edges: [][2]int{{0, 1}, {0, 3}, {0, 7}, {1, 2}, {1, 6}, {2, 3}, {2, 5}, {3, 4}, {4, 5}, {4, 7}, {5, 6}, {6, 7}},
}

var octahedron = &polyhedron{
	nodes: []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}},
	edges: [][2]int{{0, 2}, {0, 3}, {0, 4}, {0, 5}, {1, 2}, {1, 3}, {1, 4}, {1, 5}, {2, 4}, {2, 5}, {3, 4}, {3, 5}},
}

func (P *polyhedron) degrees() []int {
	d := make([]int, len(P.nodes))
	for _, e := range P.edges {
		d[e[0]]++
		d[e[1]]++
	}
	return d
}

//graph builds the cage. With linkers, a ditopic vertex is put in the middle of each edge,
//otherwise the nodes are bonded directly.
func (P *polyhedron) graph(units []*bblock.Unit, linkers bool) *Graph {
	nodeR := maxNodeRadius(units)
	e0 := P.edges[0]
	l0 := r3.Norm(r3.Sub(P.nodes[e0[0]], P.nodes[e0[1]]))
	scale := (2*nodeR + BondGap) / l0
	if linkers {
		scale = 2 * (nodeR + maxRadius(units, 2) + BondGap) / l0
	}
	g := &Graph{}
	deg := P.degrees()
	for i, p := range P.nodes {
		g.Vertices = append(g.Vertices, Vertex{Position: r3.Scale(scale, p), Connectivity: deg[i], Normal: unit(p)})
	}
	for _, e := range P.edges {
		if !linkers {
			g.Edges = append(g.Edges, Edge{V1: e[0], V2: e[1]})
			continue
		}
		p1, p2 := P.nodes[e[0]], P.nodes[e[1]]
		mid := r3.Scale(0.5, r3.Add(p1, p2))
		k := len(g.Vertices)
		g.Vertices = append(g.Vertices, Vertex{
			Position:     r3.Scale(scale, mid),
			Connectivity: 2,
			Axis:         unit(r3.Sub(p2, p1)),
			Outward:      unit(mid),
		})
		g.Edges = append(g.Edges, Edge{V1: e[0], V2: k}, Edge{V1: k, V2: e[1]})
	}
	return g
}

//poles builds a cage with two multitopic building blocks on the z axis and n ditopic
//ones around the equator, each bonded to both poles.
func poles(units []*bblock.Unit, n int) *Graph {
	d := BondGap / math.Sqrt2
	rho := maxNodeRadius(units) + d
	h := maxRadius(units, 2) + d
	g := &Graph{Vertices: []Vertex{
		{Position: r3.Vec{Z: h}, Connectivity: n, Normal: r3.Vec{Z: 1}},
		{Position: r3.Vec{Z: -h}, Connectivity: n, Normal: r3.Vec{Z: -1}},
	}}
	for k := 0; k < n; k++ {
		s, c := math.Sincos(2 * math.Pi * float64(k) / float64(n))
		out := r3.Vec{X: c, Y: s}
		g.Vertices = append(g.Vertices, Vertex{Position: r3.Scale(rho, out), Connectivity: 2, Axis: r3.Vec{Z: -1}, Outward: out})
		g.Edges = append(g.Edges, Edge{V1: 0, V2: k + 2}, Edge{V1: k + 2, V2: 1})
	}
	return g
}

//TwoPlusTwo is a tetrahedral cage of four tritopic building blocks bonded directly.
type TwoPlusTwo struct{}

func (TwoPlusTwo) Key() string { return "TwoPlusTwo" }

func (TwoPlusTwo) Graph(units []*bblock.Unit) (*Graph, error) {
	return tetrahedron.graph(units, false), nil
}

//FourPlusFour is a cubic cage of eight tritopic building blocks bonded directly.
//With two building blocks, the default assignment alternates them, so every bond joins different ones.
type FourPlusFour struct{}

func (FourPlusFour) Key() string { return "FourPlusFour" }

func (FourPlusFour) Graph(units []*bblock.Unit) (*Graph, error) {
	return cube.graph(units, false), nil
}

//FourPlusSix is a tetrahedral cage with four tritopic building blocks in the
//corners and six ditopic ones in the edges.
type FourPlusSix struct{}

func (FourPlusSix) Key() string { return "FourPlusSix" }

func (FourPlusSix) Graph(units []*bblock.Unit) (*Graph, error) {
	return tetrahedron.graph(units, true), nil
}

//EightPlusTwelve is a cubic cage with eight tritopic building blocks in the
//corners and twelve ditopic ones in the edges.
type EightPlusTwelve struct{}

func (EightPlusTwelve) Key() string { return "EightPlusTwelve" }

func (EightPlusTwelve) Graph(units []*bblock.Unit) (*Graph, error) {
	return cube.graph(units, true), nil
}

//SixPlusTwelve is an octahedral cage with six tetratopic building blocks in the
//corners and twelve ditopic ones in the edges.
type SixPlusTwelve struct{}

func (SixPlusTwelve) Key() string { return "SixPlusTwelve" }

func (SixPlusTwelve) Graph(units []*bblock.Unit) (*Graph, error) {
	return octahedron.graph(units, true), nil
}

//TwoPlusThree has two tritopic building blocks as poles, joined by three ditopic ones.
type TwoPlusThree struct{}

func (TwoPlusThree) Key() string { return "TwoPlusThree" }

func (TwoPlusThree) Graph(units []*bblock.Unit) (*Graph, error) {
	return poles(units, 3), nil
}

//TwoPlusFour has two tetratopic building blocks as poles, joined by four ditopic ones.
type TwoPlusFour struct{}

func (TwoPlusFour) Key() string { return "TwoPlusFour" }

func (TwoPlusFour) Graph(units []*bblock.Unit) (*Graph, error) {
	return poles(units, 4), nil
}
