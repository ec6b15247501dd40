/*
 * net.go, part of gostk.
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
	"math"

	"github.com/rmera/gostk/bblock"
	"gonum.org/v1/gonum/spatial/r3"
)

//Periodic 2D nets (covalent organic frameworks) are built as finite patches in the xy plane.
//Nodes on the border of the patch have fewer neighbors than their connectivity, and are
//marked terminal. Unless Direct is set, a ditopic linker sits between every two bonded nodes.

//netGraph builds the graph from the node positions (in units of the node-node
//distance) and their bonds.
func netGraph(units []*bblock.Unit, nodes []r3.Vec, bonds [][2]int, conn int, direct bool) *Graph {
	nodeR := maxNodeRadius(units)
	d := 2*nodeR + BondGap
	if !direct {
		d = 2 * (nodeR + maxRadius(units, 2) + BondGap)
	}
	g := &Graph{}
	for _, p := range nodes {
		g.Vertices = append(g.Vertices, Vertex{Position: r3.Scale(d, p), Connectivity: conn, Normal: r3.Vec{Z: 1}})
	}
	for _, b := range bonds {
		if direct {
			g.Edges = append(g.Edges, Edge{V1: b[0], V2: b[1]})
			continue
		}
		p1, p2 := g.Vertices[b[0]].Position, g.Vertices[b[1]].Position
		k := len(g.Vertices)
		g.Vertices = append(g.Vertices, Vertex{
			Position:     r3.Scale(0.5, r3.Add(p1, p2)),
			Connectivity: 2,
			Axis:         unit(r3.Sub(p2, p1)),
			Outward:      r3.Vec{Z: 1},
		})
		g.Edges = append(g.Edges, Edge{V1: b[0], V2: k}, Edge{V1: k, V2: b[1]})
	}
	for i := range nodes {
		if g.Degree(i) < conn {
			g.Vertices[i].Terminal = true
		}
	}
	return g
}

func size(n int) int {
	if n < 1 {
		return 2
	}
	return n
}

//Honeycomb is a patch of Nx by Ny cells of a hexagonal net of tritopic nodes.
type Honeycomb struct {
	Nx, Ny int
	Direct bool
}

func (H *Honeycomb) Key() string {
	return fmt.Sprintf("Honeycomb(%dx%d,direct=%t)", size(H.Nx), size(H.Ny), H.Direct)
}

//Graph returns the patch. Each cell has two nodes, A at i*a1+j*a2 and B above it,
//with a1 = (sqrt(3), 0) and a2 = (sqrt(3)/2, 3/2).
func (H *Honeycomb) Graph(units []*bblock.Unit) (*Graph, error) {
	nx, ny := size(H.Nx), size(H.Ny)
	a1 := r3.Vec{X: math.Sqrt(3)}
	a2 := r3.Vec{X: math.Sqrt(3) / 2, Y: 1.5}
	var nodes []r3.Vec
	index := make(map[[3]int]int)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := r3.Add(r3.Scale(float64(i), a1), r3.Scale(float64(j), a2))
			index[[3]int{i, j, 0}] = len(nodes)
			nodes = append(nodes, a)
			index[[3]int{i, j, 1}] = len(nodes)
			nodes = append(nodes, r3.Add(a, r3.Vec{Y: 1}))
		}
	}
	var bonds [][2]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := index[[3]int{i, j, 0}]
			for _, n := range [][3]int{{i, j, 1}, {i + 1, j - 1, 1}, {i, j - 1, 1}} {
				if b, ok := index[n]; ok {
					bonds = append(bonds, [2]int{a, b})
				}
			}
		}
	}
	return netGraph(units, nodes, bonds, 3, H.Direct), nil
}

//Square is a patch of Nx by Ny tetratopic nodes on a square net.
type Square struct {
	Nx, Ny int
	Direct bool
}

func (S *Square) Key() string {
	return fmt.Sprintf("Square(%dx%d,direct=%t)", size(S.Nx), size(S.Ny), S.Direct)
}

func (S *Square) Graph(units []*bblock.Unit) (*Graph, error) {
	nx, ny := size(S.Nx), size(S.Ny)
	var nodes []r3.Vec
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			nodes = append(nodes, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	var bonds [][2]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			k := j*nx + i
			if i+1 < nx {
				bonds = append(bonds, [2]int{k, k + 1})
			}
			if j+1 < ny {
				bonds = append(bonds, [2]int{k, k + nx})
			}
		}
	}
	return netGraph(units, nodes, bonds, 4, S.Direct), nil
}
