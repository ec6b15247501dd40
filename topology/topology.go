/*
 * topology.go, part of gostk.
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

//Package topology describes how copies of building blocks are arranged and
//connected in a macromolecule. A topology produces a Graph: vertices, where
//building blocks are placed, and edges, where bonds are formed. Place turns a
//topology and a set of building blocks into a placement plan, with a private,
//already positioned, copy of a building block for each vertex.
package topology

import (
	"fmt"
	"sort"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"gonum.org/v1/gonum/spatial/r3"
)

//BondGap is the distance, in A, left between the bonder atoms of neighboring
//building blocks when a topology is scaled.
const BondGap = 1.5

//Vertex is a position for a building block. Connectivity is the number of
//functional groups the building block placed there must have. Ditopic building blocks
//are aligned along Axis and turned so their core faces Outward (if not zero).
//Multitopic ones get their plane normal along Normal, and are turned so their first
//functional group points to their first neighbor. Terminal vertices may have fewer
//edges than their connectivity; their spare functional groups remain unreacted.
type Vertex struct {
	Position     r3.Vec
	Connectivity int
	Terminal     bool
	Normal       r3.Vec
	Axis         r3.Vec
	Outward      r3.Vec
}

//Edge is a bond to be formed between the building blocks in two vertices.
type Edge struct {
	V1, V2 int
}

//Graph is the set of vertices and edges of a topology.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge
}

//Neighbors returns the vertices joined to v, in edge order.
func (G *Graph) Neighbors(v int) []int {
	var ret []int
	for _, e := range G.Edges {
		switch v {
		case e.V1:
			ret = append(ret, e.V2)
		case e.V2:
			ret = append(ret, e.V1)
		}
	}
	return ret
}

//Degree returns the number of edges of vertex v.
func (G *Graph) Degree(v int) int {
	return len(G.Neighbors(v))
}

//Validate checks that the edges join existing, different vertices, and that each
//vertex has as many edges as its connectivity (at most that many, for terminal vertices).
func (G *Graph) Validate() error {
	for i, e := range G.Edges {
		if e.V1 < 0 || e.V2 < 0 || e.V1 >= len(G.Vertices) || e.V2 >= len(G.Vertices) || e.V1 == e.V2 {
			return &IncompatibleTopologyError{Vertex: -1, Edge: i, msg: fmt.Sprintf("Edge %d joins invalid vertices %d and %d", i, e.V1, e.V2), deco: []string{"Validate"}}
		}
	}
	for i, v := range G.Vertices {
		d := G.Degree(i)
		if d > v.Connectivity || (!v.Terminal && d != v.Connectivity) {
			return &IncompatibleTopologyError{Vertex: i, Edge: -1, msg: fmt.Sprintf("Vertex %d has %d edges, but connectivity %d", i, d, v.Connectivity), deco: []string{"Validate"}}
		}
	}
	return nil
}

//Topology is an assembly pattern.
type Topology interface {
	//Key identifies the topology and its parameters.
	Key() string
	//Graph returns the vertices and edges, scaled for the given building blocks.
	Graph(units []*bblock.Unit) (*Graph, error)
}

//Assigner is implemented by topologies with their own default assignment of
//building blocks (indexes in units) to vertices.
type Assigner interface {
	DefaultAssignment(units []*bblock.Unit, g *Graph) ([]int, error)
}

//roundRobin assigns to each vertex, in order, the next of the building blocks
//whose number of functional groups equals its connectivity.
func roundRobin(key string, units []*bblock.Unit, g *Graph) ([]int, error) {
	byConn := make(map[int][]int)
	for i, u := range units {
		byConn[u.NGroups()] = append(byConn[u.NGroups()], i)
	}
	used := make(map[int]int)
	ret := make([]int, len(g.Vertices))
	for i, v := range g.Vertices {
		cands := byConn[v.Connectivity]
		if len(cands) == 0 {
			return nil, &IncompatibleTopologyError{Topology: key, Vertex: i, Edge: -1, msg: fmt.Sprintf("No building block with %d functional groups for vertex %d", v.Connectivity, i), deco: []string{"roundRobin"}}
		}
		ret[i] = cands[used[v.Connectivity]%len(cands)]
		used[v.Connectivity]++
	}
	return ret, nil
}

//fromOverride turns a map from building block index to the vertices it occupies
//into a per-vertex assignment. Every vertex must be covered exactly once.
func fromOverride(key string, units []*bblock.Unit, g *Graph, over map[int][]int) ([]int, error) {
	ret := make([]int, len(g.Vertices))
	for i := range ret {
		ret[i] = -1
	}
	ids := make([]int, 0, len(over))
	for u := range over {
		ids = append(ids, u)
	}
	sort.Ints(ids)
	for _, u := range ids {
		if u < 0 || u >= len(units) {
			return nil, &IncompatibleTopologyError{Topology: key, Vertex: -1, Edge: -1, msg: fmt.Sprintf("Assignment for non-existent building block %d", u), deco: []string{"fromOverride"}}
		}
		for _, v := range over[u] {
			if v < 0 || v >= len(g.Vertices) {
				return nil, &IncompatibleTopologyError{Topology: key, Vertex: v, Edge: -1, msg: fmt.Sprintf("Building block %d assigned to non-existent vertex %d", u, v), deco: []string{"fromOverride"}}
			}
			if ret[v] >= 0 {
				return nil, &IncompatibleTopologyError{Topology: key, Vertex: v, Edge: -1, msg: fmt.Sprintf("Vertex %d assigned to building blocks %d and %d", v, ret[v], u), deco: []string{"fromOverride"}}
			}
			ret[v] = u
		}
	}
	for v, u := range ret {
		if u < 0 {
			return nil, &IncompatibleTopologyError{Topology: key, Vertex: v, Edge: -1, msg: fmt.Sprintf("No building block assigned to vertex %d", v), deco: []string{"fromOverride"}}
		}
	}
	return ret, nil
}

//checkAssignment verifies that every building block fits the vertex it was given.
func checkAssignment(key string, units []*bblock.Unit, g *Graph, assign []int) error {
	if len(assign) != len(g.Vertices) {
		return &IncompatibleTopologyError{Topology: key, Vertex: -1, Edge: -1, msg: fmt.Sprintf("%d building blocks assigned to %d vertices", len(assign), len(g.Vertices)), deco: []string{"checkAssignment"}}
	}
	for v, u := range assign {
		if u < 0 || u >= len(units) {
			return &IncompatibleTopologyError{Topology: key, Vertex: v, Edge: -1, msg: fmt.Sprintf("Vertex %d assigned to non-existent building block %d", v, u), deco: []string{"checkAssignment"}}
		}
		if n := units[u].NGroups(); n != g.Vertices[v].Connectivity {
			return &IncompatibleTopologyError{Topology: key, Vertex: v, Edge: -1, msg: fmt.Sprintf("Building block %s has %d functional groups, vertex %d needs %d", units[u].Name, n, v, g.Vertices[v].Connectivity), deco: []string{"checkAssignment"}}
		}
	}
	return nil
}

//maxRadius returns the largest MaxBonderRadius, in conformer 0, among the units with
//the given number of functional groups (all units, if n is 0).
func maxRadius(units []*bblock.Unit, n int) float64 {
	var r float64
	for _, u := range units {
		if n != 0 && u.NGroups() != n {
			continue
		}
		if m := u.MaxBonderRadius(0); m > r {
			r = m
		}
	}
	return r
}

//maxNodeRadius is maxRadius over the multitopic units.
func maxNodeRadius(units []*bblock.Unit) float64 {
	var r float64
	for _, u := range units {
		if u.Kind() == bblock.Multitopic {
			r = maxf(r, u.MaxBonderRadius(0))
		}
	}
	return r
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func unit(v r3.Vec) r3.Vec {
	if r3.Norm(v) < 1e-12 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}

//IncompatibleTopologyError is returned when the building blocks given can't
//fill a topology, or when an assignment is invalid.
type IncompatibleTopologyError struct {
	Topology string
	Vertex   int //-1 if not relevant
	Edge     int //-1 if not relevant
	msg      string
	deco     []string
}

func (err *IncompatibleTopologyError) Error() string {
	if err.Topology == "" {
		return err.msg
	}
	return err.Topology + ": " + err.msg
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *IncompatibleTopologyError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//NewIncompatibleTopologyError returns an IncompatibleTopologyError for packages that
//find the problem after placement (such as the assembly of bonds).
func NewIncompatibleTopologyError(topology string, vertex, edge int, msg, caller string) *IncompatibleTopologyError {
	return &IncompatibleTopologyError{Topology: topology, Vertex: vertex, Edge: edge, msg: msg, deco: []string{caller}}
}

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
	}
	return err
}
