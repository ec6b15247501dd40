/*
 * embed.go, part of gostk.
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

//Package embed generates 3D coordinates for molecules that only have a graph,
//such as those read from SMILES. Atoms are placed along a breadth-first spanning
//tree at their ideal bond lengths, in the directions that keep them farthest from
//the atoms already placed, and the result is relaxed with the forcefield package.
//The procedure has no random component: the same graph always gives the same coordinates.
package embed

import (
	"fmt"
	"math"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/chemgraph"
	"github.com/rmera/gostk/forcefield"
	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//Options for the embedding.
type Options struct {
	Directions    int     //candidate directions per placed atom
	Spacing       float64 //gap between disconnected fragments, in A
	MaxIterations int     //for the final relaxation, 0 for the forcefield default
	NoRelax       bool
}

//DefaultOptions returns the default embedding options.
func DefaultOptions() *Options {
	return &Options{Directions: 240, Spacing: 4}
}

//Error is the error type of the package.
type Error struct {
	msg  string
	deco []string
}

func (err *Error) Error() string { return err.msg }

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *Error) Decorate(dec string) []string {
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

//directions returns n unit vectors spread evenly over the sphere (Fibonacci lattice).
func directions(n int) []r3.Vec {
	ret := make([]r3.Vec, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		z := 1 - (2*float64(i)+1)/float64(n)
		r := math.Sqrt(1 - z*z)
		s, c := math.Sincos(golden * float64(i))
		ret[i] = r3.Vec{X: r * c, Y: r * s, Z: z}
	}
	return ret
}

type placer struct {
	mol    *chem.Molecule
	pos    []r3.Vec
	placed []bool
	dirs   []r3.Vec
}

//score is larger for better positions of the atom child, bonded to parent.
func (p *placer) score(parent, child int, cand r3.Vec) float64 {
	min := math.Inf(1)
	for j, ok := range p.placed {
		if !ok || j == parent {
			continue
		}
		if d := r3.Norm(r3.Sub(cand, p.pos[j])); d < min {
			min = d
		}
	}
	if math.IsInf(min, 1) {
		min = 10
	}
	theta0 := forcefield.IdealAngle(p.mol, parent)
	var dev float64
	for _, n := range p.mol.Neighbors(parent) {
		if n == child || !p.placed[n] {
			continue
		}
		dev += math.Abs(chem.BondAngle(p.pos[n], p.pos[parent], cand) - theta0)
	}
	return math.Min(min, 3) - 2*dev
}

func (p *placer) place(parent, child int) {
	b := p.mol.BondBetween(parent, child)
	l := forcefield.IdealBondLength(p.mol.Atoms[parent].Symbol, p.mol.Atoms[child].Symbol, b.Order)
	best := math.Inf(-1)
	var bestPos r3.Vec
	for _, d := range p.dirs {
		cand := r3.Add(p.pos[parent], r3.Scale(l, d))
		if s := p.score(parent, child, cand); s > best {
			best = s
			bestPos = cand
		}
	}
	p.pos[child] = bestPos
	p.placed[child] = true
}

//Embed computes a 3D structure for mol and appends it as a new conformer.
func Embed(mol *chem.Molecule, O *Options) error {
	if O == nil {
		O = DefaultOptions()
	}
	o := *O
	if o.Directions < 12 {
		o.Directions = DefaultOptions().Directions
	}
	O = &o
	if mol.Len() == 0 {
		return &Error{msg: "Can't embed an empty molecule", deco: []string{"Embed"}}
	}
	p := &placer{mol: mol, pos: make([]r3.Vec, mol.Len()), placed: make([]bool, mol.Len()), dirs: directions(O.Directions)}
	var xmax float64
	for k, comp := range chemgraph.FromMolecule(mol, nil).Components() {
		root := comp[0]
		p.pos[root] = r3.Vec{}
		p.placed[root] = true
		queue := []int{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			//heavy atoms first, so hydrogens fill the remaining directions.
			nb := mol.Neighbors(cur)
			for _, heavy := range []bool{true, false} {
				for _, n := range nb {
					if p.placed[n] || (mol.Atoms[n].Symbol != "H") != heavy {
						continue
					}
					p.place(cur, n)
					queue = append(queue, n)
				}
			}
		}
		//each fragment goes to the +x side of the previous ones.
		lo := math.Inf(1)
		for _, i := range comp {
			lo = math.Min(lo, p.pos[i].X)
		}
		shift := 0.0
		if k > 0 {
			shift = xmax + O.Spacing - lo
		}
		for _, i := range comp {
			p.pos[i].X += shift
			xmax = math.Max(xmax, p.pos[i].X)
		}
	}
	conf := v3.FromVecs(p.pos)
	if err := mol.AddConformer(conf); err != nil {
		return errDecorate(err, "Embed")
	}
	if O.NoRelax {
		return nil
	}
	fo := forcefield.DefaultOptions()
	if O.MaxIterations > 0 {
		fo.MaxIterations = O.MaxIterations
	}
	if _, err := forcefield.Minimize(mol, mol.NConformers()-1, fo); err != nil {
		mol.Coords = mol.Coords[:mol.NConformers()-1]
		return &Error{msg: fmt.Sprintf("Relaxation of the embedded structure failed: %v", err), deco: []string{"Embed"}}
	}
	return nil
}
