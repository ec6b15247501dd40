/*
 * constraint.go, part of gostk.
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

//Package constraint splits the internal coordinates of an assembled molecule (bond lengths,
//bond angles and torsions) into the ones that must keep their current values during an
//optimization, and the ones that can relax: those of the bonds made by the assembly.
//
//An internal coordinate is free if it is a new bond, or if its chain of atoms contains both atoms of
//a new bond. Coordinates next to a new bond but not containing it are fixed. For a chain
//A-B-C-D-E where D-E is new, the angle B-C-D and the torsion A-B-C-D stay fixed, while
//C-D-E and B-C-D-E are free.
package constraint

import (
	"fmt"
	"math"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/macromol"
	"gonum.org/v1/gonum/spatial/r3"
)

//Kind of internal coordinate.
type Kind int

const (
	Distance Kind = iota
	Angle
	Torsion
)

func (K Kind) String() string {
	return [...]string{"distance", "angle", "torsion"}[K]
}

//Coordinate is one internal coordinate. Value is in A for distances and in degrees otherwise.
type Coordinate struct {
	Kind  Kind
	Atoms []int //0-based
	Value float64
}

func (C Coordinate) String() string {
	return fmt.Sprintf("%s%v=%.4f", C.Kind, C.Atoms, C.Value)
}

//Set is the partition of the internal coordinates of a molecule.
type Set struct {
	Fixed []Coordinate
	Free  []Coordinate
}

func measure(k Kind, at []int, x func(int) r3.Vec) float64 {
	switch k {
	case Distance:
		return r3.Norm(r3.Sub(x(at[0]), x(at[1])))
	case Angle:
		return chem.Rad2Deg * chem.BondAngle(x(at[0]), x(at[1]), x(at[2]))
	}
	return chem.Rad2Deg * chem.Dihedral(x(at[0]), x(at[1]), x(at[2]), x(at[3]))
}

//Measure returns the value of the coordinate in the conformer conf of mol.
func (C Coordinate) Measure(mol *chem.Molecule, conf int) float64 {
	return measure(C.Kind, C.Atoms, func(i int) r3.Vec { return mol.Coord(i, conf) })
}

//Drift returns, for each fixed coordinate of the kind k, how much its value in the
//conformer conf of mol differs from the value stored in the set. Torsion differences
//are taken in (-180, 180].
func (S *Set) Drift(mol *chem.Molecule, conf int, k Kind) ([]float64, error) {
	if conf < 0 || conf >= mol.NConformers() {
		return nil, &Error{msg: fmt.Sprintf("Molecule has no conformer %d", conf), deco: []string{"Drift"}}
	}
	ret := make([]float64, 0, S.Count(k))
	for _, c := range S.Fixed {
		if c.Kind != k {
			continue
		}
		for _, a := range c.Atoms {
			if a >= mol.Len() {
				return nil, &Error{msg: fmt.Sprintf("Atom %d not in molecule", a), deco: []string{"Drift"}}
			}
		}
		d := c.Measure(mol, conf) - c.Value
		if k == Torsion {
			d = math.Remainder(d, 360)
			if d == -180 {
				d = 180
			}
		}
		ret = append(ret, d)
	}
	return ret, nil
}

//Count returns the number of fixed coordinates of the kind k.
func (S *Set) Count(k Kind) int {
	n := 0
	for _, c := range S.Fixed {
		if c.Kind == k {
			n++
		}
	}
	return n
}

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

//free tells if the chain of atoms contains both atoms of one of the new bonds.
func free(chain []int, newBonds map[[2]int]bool) bool {
	for i, a := range chain {
		for _, b := range chain[i+1:] {
			if newBonds[key(a, b)] {
				return true
			}
		}
	}
	return false
}

func key(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

//Partition returns the internal coordinates of the conformer conf of mol, split by whether
//they involve one of the bonds in newBonds. Each bond, angle and torsion appears once.
func Partition(mol *chem.Molecule, newBonds [][2]int, conf int) (*Set, error) {
	if conf < 0 || conf >= mol.NConformers() {
		return nil, &Error{msg: fmt.Sprintf("Molecule has no conformer %d", conf), deco: []string{"Partition"}}
	}
	nb := make(map[[2]int]bool, len(newBonds))
	for _, b := range newBonds {
		if mol.BondBetween(b[0], b[1]) == nil {
			return nil, &Error{msg: fmt.Sprintf("Atoms %d and %d are not bonded", b[0], b[1]), deco: []string{"Partition"}}
		}
		nb[key(b[0], b[1])] = true
	}
	S := &Set{}
	add := func(c Coordinate) {
		if free(c.Atoms, nb) {
			S.Free = append(S.Free, c)
		} else {
			S.Fixed = append(S.Fixed, c)
		}
	}
	x := func(i int) r3.Vec { return mol.Coord(i, conf) }
	for _, b := range mol.Bonds {
		add(Coordinate{Kind: Distance, Atoms: []int{b.At1, b.At2}, Value: measure(Distance, []int{b.At1, b.At2}, x)})
	}
	for j := 0; j < mol.Len(); j++ {
		n := mol.Neighbors(j)
		for a := 0; a < len(n); a++ {
			for c := a + 1; c < len(n); c++ {
				at := []int{n[a], j, n[c]}
				add(Coordinate{Kind: Angle, Atoms: at, Value: measure(Angle, at, x)})
			}
		}
	}
	for _, b := range mol.Bonds {
		j, k := b.At1, b.At2
		for _, i := range mol.Neighbors(j) {
			if i == k {
				continue
			}
			for _, l := range mol.Neighbors(k) {
				if l == j || l == i {
					continue
				}
				at := []int{i, j, k, l}
				add(Coordinate{Kind: Torsion, Atoms: at, Value: measure(Torsion, at, x)})
			}
		}
	}
	return S, nil
}

//Extract partitions the internal coordinates of the conformer conf of the macromolecule m.
func Extract(m *macromol.Molecule, conf int) (*Set, error) {
	S, err := Partition(m.Molecule, m.NewBonds, conf)
	if err != nil {
		if e, ok := err.(chem.Error); ok {
			e.Decorate("Extract")
		}
		return nil, err
	}
	return S, nil
}
