/*
 * forcefield.go, part of gostk.
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

//Package forcefield implements a minimal harmonic force field (bond stretching,
//angle bending and a soft non-bonded repulsion) and its minimization with gonum's
//optimize package. It is meant for quick clean-ups of assembled structures and
//for building 3D coordinates, not for quantitative energetics.
//Harmonic restraints on distances, angles and torsions can be added, so
//selected internal coordinates stay at given values.
package forcefield

import (
	"fmt"
	"math"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/chemgraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"
)

//Default force constants, in kcal/mol and A.
const (
	BondK      = 300.0
	AngleK     = 60.0
	RepulsionK = 10.0
)

//Restraint keeps the distance (2 atoms), angle (3 atoms) or torsion (4 atoms)
//defined by Atoms close to Value. Value is in A for distances and in radians otherwise.
type Restraint struct {
	Atoms []int
	Value float64
	K     float64
}

//Options for building and minimizing a force field.
type Options struct {
	Restraints        []Restraint
	BondK             float64
	AngleK            float64
	RepulsionK        float64
	MaxIterations     int
	GradientThreshold float64
}

//DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{BondK: BondK, AngleK: AngleK, RepulsionK: RepulsionK, MaxIterations: 2000, GradientThreshold: 1e-3}
}

func (O *Options) fill() *Options {
	d := DefaultOptions()
	if O == nil {
		return d
	}
	r := *O
	if r.BondK == 0 {
		r.BondK = d.BondK
	}
	if r.AngleK == 0 {
		r.AngleK = d.AngleK
	}
	if r.RepulsionK == 0 {
		r.RepulsionK = d.RepulsionK
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = d.MaxIterations
	}
	if r.GradientThreshold == 0 {
		r.GradientThreshold = d.GradientThreshold
	}
	return &r
}

type bondTerm struct {
	i, j  int
	r0, k float64
}

//angle terms are harmonic in the cosine of the angle, which is well behaved for linear angles.
type angleTerm struct {
	i, j, l int
	cos0, k float64
}

type pairTerm struct {
	i, j    int
	rmin, k float64
}

type torsionTerm struct {
	i, j, l, m int
	phi0, k    float64
}

//ForceField holds the terms for one molecular graph.
type ForceField struct {
	n        int
	bonds    []bondTerm
	angles   []angleTerm
	pairs    []pairTerm
	torsions []torsionTerm
}

//IdealBondLength returns the equilibrium length for a bond of the given order
//between the two elements.
func IdealBondLength(s1, s2 string, order float64) float64 {
	r := chem.CovalentRadius(s1) + chem.CovalentRadius(s2)
	switch {
	case order > 2.5:
		return r * 0.78
	case order > 1.75:
		return r * 0.87
	case order > 1.25:
		return r * 0.93
	}
	return r
}

//IdealAngle returns the equilibrium angle around the ith atom of mol, in radians,
//guessed from its number of neighbors and its bond orders.
func IdealAngle(mol *chem.Molecule, i int) float64 {
	deg := mol.Degree(i)
	multiple := 0
	triple := false
	for _, b := range mol.AtomBonds(i) {
		if b.Order > 1.25 {
			multiple++
		}
		if b.Order > 2.5 {
			triple = true
		}
	}
	sym := mol.Atoms[i].Symbol
	switch {
	case deg >= 4:
		return 109.47 * chem.Deg2Rad
	case deg == 3:
		if multiple > 0 || sym == "B" || sym == "C" {
			return 120 * chem.Deg2Rad
		}
		return 109.47 * chem.Deg2Rad
	case deg == 2:
		if triple || multiple == 2 {
			return math.Pi
		}
		if multiple > 0 {
			return 120 * chem.Deg2Rad
		}
		return 109.47 * chem.Deg2Rad
	}
	return 109.47 * chem.Deg2Rad
}

//New builds the force field for mol.
func New(mol *chem.Molecule, O *Options) *ForceField {
	O = O.fill()
	F := &ForceField{n: mol.Len()}
	for _, b := range mol.Bonds {
		r0 := IdealBondLength(mol.Atoms[b.At1].Symbol, mol.Atoms[b.At2].Symbol, b.Order)
		F.bonds = append(F.bonds, bondTerm{i: b.At1, j: b.At2, r0: r0, k: O.BondK})
	}
	for j := 0; j < mol.Len(); j++ {
		nb := mol.Neighbors(j)
		if len(nb) < 2 {
			continue
		}
		t0 := IdealAngle(mol, j)
		k := O.AngleK
		if s := math.Sin(t0); s > 0.1 {
			k = O.AngleK / (s * s)
		}
		for x := 0; x < len(nb); x++ {
			for y := x + 1; y < len(nb); y++ {
				F.angles = append(F.angles, angleTerm{i: nb[x], j: j, l: nb[y], cos0: math.Cos(t0), k: k})
			}
		}
	}
	g := chemgraph.FromMolecule(mol, nil)
	for i := 0; i < mol.Len(); i++ {
		near := g.Within(i, 2)
		for j := i + 1; j < mol.Len(); j++ {
			if _, ok := near[j]; ok {
				continue
			}
			rmin := 0.7 * (chem.VdwRadius(mol.Atoms[i].Symbol) + chem.VdwRadius(mol.Atoms[j].Symbol))
			F.pairs = append(F.pairs, pairTerm{i: i, j: j, rmin: rmin, k: O.RepulsionK})
		}
	}
	for _, r := range O.Restraints {
		k := r.K
		if k == 0 {
			k = 10 * O.BondK
		}
		switch len(r.Atoms) {
		case 2:
			F.bonds = append(F.bonds, bondTerm{i: r.Atoms[0], j: r.Atoms[1], r0: r.Value, k: k})
		case 3:
			F.angles = append(F.angles, angleTerm{i: r.Atoms[0], j: r.Atoms[1], l: r.Atoms[2], cos0: math.Cos(r.Value), k: k})
		case 4:
			F.torsions = append(F.torsions, torsionTerm{i: r.Atoms[0], j: r.Atoms[1], l: r.Atoms[2], m: r.Atoms[3], phi0: r.Value, k: k})
		}
	}
	return F
}

func pos(x []float64, i int) r3.Vec {
	return r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
}

func addTo(g []float64, i int, v r3.Vec) {
	g[3*i] += v.X
	g[3*i+1] += v.Y
	g[3*i+2] += v.Z
}

//Energy returns the energy of the coordinates x, flattened (x1, y1, z1, x2...).
func (F *ForceField) Energy(x []float64) float64 {
	return F.eval(x, nil)
}

//Gradient puts in grad the gradient of the energy at x.
func (F *ForceField) Gradient(grad, x []float64) {
	for i := range grad {
		grad[i] = 0
	}
	F.eval(x, grad)
}

//eval returns the energy and, if grad is not nil, adds the gradient to it.
func (F *ForceField) eval(x, grad []float64) float64 {
	var e float64
	for _, b := range F.bonds {
		d := r3.Sub(pos(x, b.i), pos(x, b.j))
		r := r3.Norm(d)
		dr := r - b.r0
		e += b.k * dr * dr
		if grad != nil && r > 1e-8 {
			g := r3.Scale(2*b.k*dr/r, d)
			addTo(grad, b.i, g)
			addTo(grad, b.j, r3.Scale(-1, g))
		}
	}
	for _, a := range F.angles {
		e += angleEnergy(x, grad, a.i, a.j, a.l, a.cos0, a.k)
	}
	for _, p := range F.pairs {
		d := r3.Sub(pos(x, p.i), pos(x, p.j))
		r := r3.Norm(d)
		if r >= p.rmin {
			continue
		}
		dr := p.rmin - r
		e += p.k * dr * dr
		if grad != nil && r > 1e-8 {
			g := r3.Scale(-2*p.k*dr/r, d)
			addTo(grad, p.i, g)
			addTo(grad, p.j, r3.Scale(-1, g))
		}
	}
	for _, t := range F.torsions {
		e += torsionEnergy(x, grad, t)
	}
	return e
}

func angleEnergy(x, grad []float64, i, j, l int, cos0, k float64) float64 {
	u := r3.Sub(pos(x, i), pos(x, j))
	v := r3.Sub(pos(x, l), pos(x, j))
	nu, nv := r3.Norm(u), r3.Norm(v)
	if nu < 1e-8 || nv < 1e-8 {
		return 0
	}
	c := r3.Dot(u, v) / (nu * nv)
	dc := c - cos0
	if grad != nil {
		f := 2 * k * dc
		gi := r3.Scale(f, r3.Sub(r3.Scale(1/(nu*nv), v), r3.Scale(c/(nu*nu), u)))
		gl := r3.Scale(f, r3.Sub(r3.Scale(1/(nu*nv), u), r3.Scale(c/(nv*nv), v)))
		addTo(grad, i, gi)
		addTo(grad, l, gl)
		addTo(grad, j, r3.Scale(-1, r3.Add(gi, gl)))
	}
	return k * dc * dc
}

func torsionEnergy(x, grad []float64, t torsionTerm) float64 {
	a, b, c, d := pos(x, t.i), pos(x, t.j), pos(x, t.l), pos(x, t.m)
	b1 := r3.Sub(b, a)
	b2 := r3.Sub(c, b)
	b3 := r3.Sub(d, c)
	n1 := r3.Cross(b1, b2)
	n2 := r3.Cross(b2, b3)
	n1sq, n2sq := r3.Dot(n1, n1), r3.Dot(n2, n2)
	nb2 := r3.Norm(b2)
	if n1sq < 1e-10 || n2sq < 1e-10 || nb2 < 1e-8 {
		return 0 //undefined for collinear atoms
	}
	phi := chem.Dihedral(a, b, c, d)
	if grad != nil {
		f := t.k * math.Sin(phi-t.phi0) //dE/dphi
		ga := r3.Scale(-nb2/n1sq, n1)
		gd := r3.Scale(nb2/n2sq, n2)
		p := r3.Dot(b1, b2) / (nb2 * nb2)
		q := r3.Dot(b3, b2) / (nb2 * nb2)
		gb := r3.Add(r3.Scale(-1-p, ga), r3.Scale(q, gd))
		gc := r3.Sub(r3.Scale(p, ga), r3.Scale(1+q, gd))
		addTo(grad, t.i, r3.Scale(f, ga))
		addTo(grad, t.j, r3.Scale(f, gb))
		addTo(grad, t.l, r3.Scale(f, gc))
		addTo(grad, t.m, r3.Scale(f, gd))
	}
	return t.k * (1 - math.Cos(phi-t.phi0))
}

//Result of a minimization.
type Result struct {
	InitialEnergy float64
	Energy        float64
	Iterations    int
	Status        string
}

//Minimize relaxes the conformer conf of mol in place.
func Minimize(mol *chem.Molecule, conf int, O *Options) (*Result, error) {
	if conf < 0 || conf >= mol.NConformers() {
		return nil, &Error{msg: fmt.Sprintf("The molecule has no conformer %d", conf), deco: []string{"Minimize"}}
	}
	O = O.fill()
	F := New(mol, O)
	coords := mol.Coords[conf]
	x := make([]float64, 0, 3*mol.Len())
	for i := 0; i < mol.Len(); i++ {
		v := coords.Vec(i)
		x = append(x, v.X, v.Y, v.Z)
	}
	ret := &Result{InitialEnergy: F.Energy(x)}
	if mol.Len() < 2 {
		ret.Energy = ret.InitialEnergy
		return ret, nil
	}
	p := optimize.Problem{Func: F.Energy, Grad: F.Gradient}
	settings := &optimize.Settings{MajorIterations: O.MaxIterations, GradientThreshold: O.GradientThreshold}
	res, err := optimize.Minimize(p, x, settings, &optimize.LBFGS{})
	if res == nil {
		return nil, &Error{msg: fmt.Sprintf("Minimization failed: %v", err), deco: []string{"Minimize"}}
	}
	//a failed line search still leaves the best point found, which is kept if it is sane.
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) || floats.HasNaN(res.X) {
		return nil, &Error{msg: "Minimization diverged", deco: []string{"Minimize"}}
	}
	if res.F > ret.InitialEnergy {
		ret.Energy = ret.InitialEnergy
		ret.Status = res.Status.String()
		return ret, nil
	}
	for i := 0; i < mol.Len(); i++ {
		coords.SetVec(i, pos(res.X, i))
	}
	ret.Energy = res.F
	ret.Iterations = res.Stats.MajorIterations
	ret.Status = res.Status.String()
	return ret, nil
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
