/*
 * graph.go, part of gostk.
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

//Package chemgraph exposes gostk molecules as gonum graphs, so gonum's
//graph algorithms can be used on them.
package chemgraph

import (
	"math"
	"sort"

	chem "github.com/rmera/gostk"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

//Atom implements gonum's graph.Node
type Atom struct {
	*chem.Atom
}

func (A *Atom) ID() int64 {
	return int64(A.Index)
}

//Bond implements gonum's graph.WeightedEdge
type Bond struct {
	*chem.Bond
	At1, At2   *Atom
	Weightfunc func(*Bond) float64
}

//Weight returns 1 unless a weight function is set.
func (B *Bond) Weight() float64 {
	if B.Weightfunc == nil {
		return 1
	}
	return B.Weightfunc(B)
}

func (B *Bond) From() graph.Node {
	return B.At1
}

func (B *Bond) To() graph.Node {
	return B.At2
}

//ReversedEdge returns a copy of the bond with the ends switched, as bonds are not directional.
func (B *Bond) ReversedEdge() graph.Edge {
	return &Bond{Bond: B.Bond, At1: B.At2, At2: B.At1, Weightfunc: B.Weightfunc}
}

//Topology implements gonum's graph.Undirected and graph.Weighted interfaces
//for a molecule. Bonds for which Skip returns true are not part of the graph.
type Topology struct {
	mol        *chem.Molecule
	atoms      []*Atom
	Skip       func(*chem.Bond) bool
	Weightfunc func(*Bond) float64
}

//FromMolecule returns the graph of mol, leaving out the bonds for which skip returns true.
//skip can be nil.
func FromMolecule(mol *chem.Molecule, skip func(*chem.Bond) bool) *Topology {
	mol.FillIndexes()
	a := make([]*Atom, mol.Len())
	for i, at := range mol.Atoms {
		a[i] = &Atom{at}
	}
	return &Topology{mol: mol, atoms: a, Skip: skip}
}

func (T *Topology) skip(b *chem.Bond) bool {
	return T.Skip != nil && T.Skip(b)
}

func (T *Topology) bond(b *chem.Bond, from int) *Bond {
	return &Bond{Bond: b, At1: T.atoms[from], At2: T.atoms[b.Cross(from)], Weightfunc: T.Weightfunc}
}

//Node returns the atom with the given ID, or nil.
func (T *Topology) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(T.atoms)) {
		return nil
	}
	return T.atoms[id]
}

func (T *Topology) Nodes() graph.Nodes {
	n := make([]graph.Node, len(T.atoms))
	for i, a := range T.atoms {
		n[i] = a
	}
	return iterator.NewOrderedNodes(n)
}

func (T *Topology) From(id int64) graph.Nodes {
	if T.Node(id) == nil {
		return graph.Empty
	}
	n := make([]graph.Node, 0, 4)
	for _, b := range T.mol.AtomBonds(int(id)) {
		if !T.skip(b) {
			n = append(n, T.atoms[b.Cross(int(id))])
		}
	}
	return iterator.NewOrderedNodes(n)
}

func (T *Topology) HasEdgeBetween(xid, yid int64) bool {
	return T.EdgeBetween(xid, yid) != nil
}

//EdgeBetween returns the bond between the atoms, or nil.
func (T *Topology) EdgeBetween(xid, yid int64) graph.Edge {
	if T.Node(xid) == nil || T.Node(yid) == nil {
		return nil
	}
	b := T.mol.BondBetween(int(xid), int(yid))
	if b == nil || T.skip(b) {
		return nil
	}
	return T.bond(b, int(xid))
}

func (T *Topology) Edge(uid, vid int64) graph.Edge {
	return T.EdgeBetween(uid, vid)
}

func (T *Topology) WeightedEdge(uid, vid int64) graph.WeightedEdge {
	e := T.EdgeBetween(uid, vid)
	if e == nil {
		return nil
	}
	return e.(*Bond)
}

func (T *Topology) Weight(xid, yid int64) (w float64, ok bool) {
	if xid == yid {
		return 0, true
	}
	e := T.WeightedEdge(xid, yid)
	if e == nil {
		return math.Inf(1), false
	}
	return e.Weight(), true
}

//Components returns the connected components of the graph, each as a sorted
//slice of atom indexes. Components are sorted by their first atom.
func (T *Topology) Components() [][]int {
	cc := topo.ConnectedComponents(T)
	ret := make([][]int, 0, len(cc))
	for _, c := range cc {
		ids := make([]int, len(c))
		for i, n := range c {
			ids[i] = int(n.ID())
		}
		sort.Ints(ids)
		ret = append(ret, ids)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i][0] < ret[j][0] })
	return ret
}

//PathLength returns the length of the shortest path between the atoms i and j,
//(number of bonds, unless a weight function is set), and +Inf if they are not connected.
func (T *Topology) PathLength(i, j int) float64 {
	sh := path.DijkstraFrom(T.Node(int64(i)), T)
	return sh.WeightTo(int64(j))
}

//Within returns the atoms that are at most depth bonds away from the atom from,
//mapped to their distance, in bonds.
func (T *Topology) Within(from, depth int) map[int]int {
	ret := make(map[int]int)
	var bf traverse.BreadthFirst
	bf.Walk(T, T.Node(int64(from)), func(n graph.Node, d int) bool {
		if d > depth {
			return true
		}
		ret[int(n.ID())] = d
		return false
	})
	return ret
}
