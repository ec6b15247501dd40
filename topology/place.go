/*
 * place.go, part of gostk.
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

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"gonum.org/v1/gonum/spatial/r3"
)

//PlaceOptions selects the conformer of each building block (conformer 0 for all, if nil)
//and, optionally, which vertices each building block occupies.
type PlaceOptions struct {
	Conformers  []int
	Assignments map[int][]int
}

//Placement is the building block put in one vertex.
type Placement struct {
	Vertex    int
	Unit      int //index in the building blocks given to Place
	Conformer int
	Transform *bblock.Transform
	Placed    *bblock.Unit //private copy, with the conformer transformed
}

//Plan is the result of placing building blocks on a topology.
type Plan struct {
	Topology   Topology
	Graph      *Graph
	Assignment []int //building block of each vertex
	Placements []*Placement
}

//Assignment returns the vertex assignment that Place would use: opts.Assignments if
//given, the topology's own default if it has one, or a round-robin over building blocks
//with the right number of functional groups.
func Assignment(top Topology, units []*bblock.Unit, g *Graph, assignments map[int][]int) ([]int, error) {
	var a []int
	var err error
	switch {
	case assignments != nil:
		a, err = fromOverride(top.Key(), units, g, assignments)
	default:
		if as, ok := top.(Assigner); ok {
			a, err = as.DefaultAssignment(units, g)
		} else {
			a, err = roundRobin(top.Key(), units, g)
		}
	}
	if err != nil {
		return nil, errDecorate(err, "Assignment")
	}
	if err := checkAssignment(top.Key(), units, g, a); err != nil {
		return nil, errDecorate(err, "Assignment")
	}
	return a, nil
}

//Place returns the placement plan for units on top. The building blocks given are not modified.
func Place(top Topology, units []*bblock.Unit, O PlaceOptions) (*Plan, error) {
	if len(units) == 0 {
		return nil, &IncompatibleTopologyError{Topology: top.Key(), Vertex: -1, Edge: -1, msg: "No building blocks given", deco: []string{"Place"}}
	}
	confs := O.Conformers
	if confs == nil {
		confs = make([]int, len(units))
	}
	if len(confs) != len(units) {
		return nil, &IncompatibleTopologyError{Topology: top.Key(), Vertex: -1, Edge: -1, msg: fmt.Sprintf("%d conformers selected for %d building blocks", len(confs), len(units)), deco: []string{"Place"}}
	}
	for i, c := range confs {
		if c < 0 || c >= units[i].NConformers() {
			return nil, &IncompatibleTopologyError{Topology: top.Key(), Vertex: -1, Edge: -1, msg: fmt.Sprintf("Building block %d has no conformer %d", i, c), deco: []string{"Place"}}
		}
	}
	g, err := top.Graph(units)
	if err != nil {
		return nil, errDecorate(err, "Place")
	}
	if err := g.Validate(); err != nil {
		return nil, errDecorate(err, "Place")
	}
	assign, err := Assignment(top, units, g, O.Assignments)
	if err != nil {
		return nil, errDecorate(err, "Place")
	}
	P := &Plan{Topology: top, Graph: g, Assignment: assign}
	for v, u := range assign {
		T, err := orient(g, v, units[u], confs[u])
		if err != nil {
			return nil, errDecorate(err, "Place")
		}
		cp := units[u].Copy()
		if err := cp.Transform(T, confs[u]); err != nil {
			return nil, errDecorate(err, "Place")
		}
		P.Placements = append(P.Placements, &Placement{Vertex: v, Unit: u, Conformer: confs[u], Transform: T, Placed: cp})
	}
	return P, nil
}

//orient computes the transform that puts the building block U on the vertex v.
func orient(g *Graph, v int, U *bblock.Unit, conf int) (*bblock.Transform, error) {
	vx := g.Vertices[v]
	origin := U.BonderCentroid(conf)
	R1, R2 := chem.Identity(), chem.Identity()
	if U.Kind() == bblock.Ditopic {
		d, err := U.Direction(conf)
		if err != nil {
			return nil, errDecorate(err, "orient")
		}
		if r3.Norm(vx.Axis) > 0 {
			R1 = chem.AlignRotator(d, vx.Axis)
			if r3.Norm(vx.Outward) > 0 {
				core := chem.RotateVec(r3.Sub(U.Centroid(conf), origin), R1)
				R2 = chem.AxisRotator(vx.Axis, chem.SignedAngle(core, vx.Outward, vx.Axis))
			}
		}
	} else {
		n, err := U.PlaneNormal(conf)
		if err != nil {
			return nil, errDecorate(err, "orient")
		}
		if r3.Norm(vx.Normal) > 0 {
			R1 = chem.AlignRotator(n, vx.Normal)
			nb := g.Neighbors(v)
			if len(nb) > 0 {
				first := chem.RotateVec(U.BonderDirectionVectors(conf)[0], R1)
				target := r3.Sub(g.Vertices[nb[0]].Position, vx.Position)
				R2 = chem.AxisRotator(vx.Normal, chem.SignedAngle(first, target, vx.Normal))
			}
		}
	}
	return &bblock.Transform{Rotation: chem.ComposeRotators(R1, R2), Origin: origin, Position: vx.Position}, nil
}
