/*
 * assembly.go, part of gostk.
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

//Package assembly builds the molecular graph of a macromolecule: it places copies of
//the building blocks on a topology, merges them, forms a bond for each edge of the
//topology, and removes the deleter atoms of the functional groups that reacted.
//The origin of every atom and bond is recorded, so later steps (such as constrained
//optimizations) know which parts of the structure are new.
package assembly

import (
	"fmt"
	"math"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/topology"
	v3 "github.com/rmera/gostk/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

//Options for an assembly.
type Options struct {
	Conformers  []int         //conformer of each building block, 0 for all if nil
	Assignments map[int][]int //building block index to the vertices it occupies
	Registry    *fgroup.Registry
	Logger      *zap.Logger
}

//BondKind tells whether a bond comes from a building block or was formed in the assembly.
type BondKind int

const (
	PreExisting BondKind = iota
	NewBond
)

func (B BondKind) String() string {
	if B == NewBond {
		return "new"
	}
	return "pre-existing"
}

//AtomOrigin records where an atom of the assembled molecule comes from.
type AtomOrigin struct {
	Vertex      int //topology vertex of the building block copy
	Unit        int //index of the building block
	Local       int //index of the atom in the building block
	Role        bblock.Role
	Group       int  //functional group of the building block that contains the atom, -1 if none
	NewlyBonded bool //the atom takes part in a bond formed in the assembly
}

//Result is an assembled molecule together with its provenance.
type Result struct {
	Mol       *chem.Molecule
	Atoms     []AtomOrigin //per atom of Mol
	Bonds     []BondKind   //per bond of Mol
	NewBonds  [][2]int     //atoms of each new bond
	BondsMade int          //edges of the topology that were realized
	Plan      *topology.Plan

	//atoms of the merged copies that survived, in order
	keep  []int
	units []*bblock.Unit
}

func edgeError(top string, edge int, msg string) error {
	return topology.NewIncompatibleTopologyError(top, -1, edge, msg, "Assemble")
}

//copyState is the bookkeeping for one placed building block.
type copyState struct {
	offset   int
	consumed []bool
	cursor   int
}

//scan returns the unconsumed groups, starting at the cursor and wrapping around.
func (c *copyState) scan() []int {
	n := len(c.consumed)
	ret := make([]int, 0, n)
	for k := 0; k < n; k++ {
		g := (c.cursor + k) % n
		if !c.consumed[g] {
			ret = append(ret, g)
		}
	}
	return ret
}

//Assemble builds the molecule obtained by placing units on top.
//The building blocks are not modified.
func Assemble(units []*bblock.Unit, top topology.Topology, O Options) (*Result, error) {
	log := O.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := O.Registry
	if reg == nil {
		reg = fgroup.Default()
	}
	plan, err := topology.Place(top, units, topology.PlaceOptions{Conformers: O.Conformers, Assignments: O.Assignments})
	if err != nil {
		return nil, errDecorate(err, "Assemble")
	}
	mols := make([]*chem.Molecule, len(plan.Placements))
	confs := make([]int, len(plan.Placements))
	for i, pl := range plan.Placements {
		mols[i] = pl.Placed.Mol()
		confs[i] = pl.Conformer
		log.Debug("placed building block", zap.Int("vertex", pl.Vertex), zap.String("unit", pl.Placed.Name), zap.Int("conformer", pl.Conformer))
	}
	merged, offsets, err := chem.Merge(mols, confs)
	if err != nil {
		return nil, errDecorate(err, "Assemble")
	}
	merged.Name = top.Key()
	origins := make([]AtomOrigin, 0, merged.Len())
	states := make([]*copyState, len(plan.Placements))
	for i, pl := range plan.Placements {
		U := pl.Placed
		group := make([]int, U.Len())
		for k := range group {
			group[k] = -1
		}
		for _, g := range U.Groups() {
			for _, a := range g.Atoms {
				group[a] = g.Index
			}
		}
		for k := 0; k < U.Len(); k++ {
			origins = append(origins, AtomOrigin{Vertex: pl.Vertex, Unit: pl.Unit, Local: k, Role: U.Role(k), Group: group[k]})
		}
		states[i] = &copyState{offset: offsets[i], consumed: make([]bool, U.NGroups())}
	}
	nold := len(merged.Bonds)
	var newBonds [][2]int
	made := 0
	for k, e := range plan.Graph.Edges {
		p1, p2 := plan.Placements[e.V1], plan.Placements[e.V2]
		s1, s2 := states[e.V1], states[e.V2]
		c1, c2 := s1.scan(), s2.scan()
		if len(c1) == 0 || len(c2) == 0 {
			return nil, edgeError(top.Key(), k, fmt.Sprintf("No functional group left for edge %d (vertices %d and %d)", k, e.V1, e.V2))
		}
		cent1 := p1.Placed.BonderCentroids(p1.Conformer)
		cent2 := p2.Placed.BonderCentroids(p2.Conformer)
		best := math.Inf(1)
		g1, g2 := -1, -1
		for _, a := range c1 {
			for _, b := range c2 {
				if d := r3.Norm(r3.Sub(cent1[a], cent2[b])); d < best {
					best, g1, g2 = d, a, b
				}
			}
		}
		grp1, grp2 := p1.Placed.Group(g1), p2.Placed.Group(g2)
		order := reg.BondOrder(p1.Placed.FunctionalGroup().Name, p2.Placed.FunctionalGroup().Name)
		n := len(grp1.Bonders)
		if len(grp2.Bonders) < n {
			n = len(grp2.Bonders)
		}
		for j := 0; j < n; j++ {
			a1, a2 := s1.offset+grp1.Bonders[j], s2.offset+grp2.Bonders[j]
			if _, err := merged.AddBond(a1, a2, order); err != nil {
				return nil, edgeError(top.Key(), k, err.Error())
			}
			origins[a1].NewlyBonded = true
			origins[a2].NewlyBonded = true
			newBonds = append(newBonds, [2]int{a1, a2})
		}
		s1.consumed[g1], s2.consumed[g2] = true, true
		s1.cursor, s2.cursor = (g1+1)%len(s1.consumed), (g2+1)%len(s2.consumed)
		made++
		log.Debug("bond formed", zap.Int("edge", k), zap.Int("vertex1", e.V1), zap.Int("group1", g1), zap.Int("vertex2", e.V2), zap.Int("group2", g2), zap.Float64("distance", best))
	}
	consumed := make([][]bool, len(states))
	for i, st := range states {
		consumed[i] = st.consumed
	}
	if err := unconsumed(top.Key(), plan, consumed); err != nil {
		return nil, errDecorate(err, "Assemble")
	}
	var deleters []int
	for i, pl := range plan.Placements {
		for g, used := range consumed[i] {
			if used {
				for _, d := range pl.Placed.Group(g).Deleters {
					deleters = append(deleters, states[i].offset+d)
				}
			}
		}
	}
	kinds := make([]BondKind, len(merged.Bonds))
	for i := nold; i < len(kinds); i++ {
		kinds[i] = NewBond
	}
	final, oldnew := merged.RemoveAtoms(deleters)
	R := &Result{Mol: final, BondsMade: made, Plan: plan, units: units}
	for i, o := range oldnew {
		if o >= 0 {
			R.keep = append(R.keep, i)
			R.Atoms = append(R.Atoms, origins[i])
		}
	}
	for i, b := range merged.Bonds {
		if oldnew[b.At1] >= 0 && oldnew[b.At2] >= 0 {
			R.Bonds = append(R.Bonds, kinds[i])
		}
	}
	for _, nb := range newBonds {
		R.NewBonds = append(R.NewBonds, [2]int{oldnew[nb[0]], oldnew[nb[1]]})
	}
	log.Debug("assembled", zap.String("topology", top.Key()), zap.Int("atoms", final.Len()), zap.Int("bonds_made", made), zap.Int("deleted", len(deleters)))
	return R, nil
}

//unconsumed checks that every functional group of the building blocks in non-terminal
//vertices reacted.
func unconsumed(key string, plan *topology.Plan, consumed [][]bool) error {
	for i, pl := range plan.Placements {
		if plan.Graph.Vertices[pl.Vertex].Terminal {
			continue
		}
		for g, used := range consumed[i] {
			if !used {
				return &UnconsumedFunctionalGroupError{Topology: key, Vertex: pl.Vertex, Unit: pl.Placed.Name, Group: g, deco: []string{"unconsumed"}}
			}
		}
	}
	return nil
}

//UnconsumedDeleters returns the atoms of Mol that are deleters of functional groups
//that didn't react (only possible on terminal vertices).
func (R *Result) UnconsumedDeleters() []int {
	var ret []int
	for i, o := range R.Atoms {
		if o.Role == bblock.Deleter {
			ret = append(ret, i)
		}
	}
	return ret
}

//Reposition returns the coordinates of the assembled molecule for a different selection
//of building block conformers. The connectivity is not recomputed.
func (R *Result) Reposition(conformers []int) (*v3.Matrix, error) {
	over := make(map[int][]int)
	for v, u := range R.Plan.Assignment {
		over[u] = append(over[u], v)
	}
	plan, err := topology.Place(R.Plan.Topology, R.units, topology.PlaceOptions{Conformers: conformers, Assignments: over})
	if err != nil {
		return nil, errDecorate(err, "Reposition")
	}
	var all []r3.Vec
	for _, pl := range plan.Placements {
		m := pl.Placed.Mol()
		for i := 0; i < m.Len(); i++ {
			all = append(all, m.Coord(i, pl.Conformer))
		}
	}
	c := v3.Zeros(len(R.keep))
	for i, k := range R.keep {
		c.SetVec(i, all[k])
	}
	return c, nil
}

//UnconsumedFunctionalGroupError is returned when a functional group of a building
//block on a non-terminal vertex didn't react.
type UnconsumedFunctionalGroupError struct {
	Topology string
	Vertex   int
	Unit     string
	Group    int
	deco     []string
}

func (err *UnconsumedFunctionalGroupError) Error() string {
	return fmt.Sprintf("%s: functional group %d of building block %s, in vertex %d, didn't react", err.Topology, err.Group, err.Unit, err.Vertex)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *UnconsumedFunctionalGroupError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
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
