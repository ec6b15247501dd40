/*
 * clash.go, part of gostk.
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

//Package clash finds steric clashes between the building block copies of an
//assembled macromolecule: pairs of atoms on different vertices that are closer
//than a fraction of the sum of their van der Waals radii.
package clash

import (
	"fmt"
	"sort"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/chemgraph"
	"github.com/rmera/gostk/macromol"
	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//Clash is a pair of atoms that overlap.
type Clash struct {
	Atoms    [2]int
	Vertices [2]int
	Distance float64
	Overlap  float64 //scaled radii sum minus distance, always > 0
}

func (C Clash) String() string {
	return fmt.Sprintf("atoms %d-%d (vertices %d-%d) %.3f A apart, overlap %.3f A", C.Atoms[0], C.Atoms[1], C.Vertices[0], C.Vertices[1], C.Distance, C.Overlap)
}

//Options for Find.
type Options struct {
	Scale         float64 //fraction of the sum of the vdW radii that counts as contact, 0.75 if 0
	Separation    int     //atoms this many bonds apart or closer are never clashes, 3 if 0
	SkipHydrogens bool
}

const (
	DefaultScale      = 0.75
	DefaultSeparation = 3
)

func (O *Options) scale() float64 {
	if O == nil || O.Scale <= 0 {
		return DefaultScale
	}
	return O.Scale
}

func (O *Options) separation() int {
	if O == nil || O.Separation <= 0 {
		return DefaultSeparation
	}
	return O.Separation
}

//Error is the error type for clash.
type Error struct {
	msg  string
	deco []string
}

func (err *Error) Error() string { return err.msg }

func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Find returns the clashes in the conformer conf of m, the largest overlap first.
//Atoms of the same building block copy are never considered.
func Find(m *macromol.Molecule, conf int, O *Options) ([]Clash, error) {
	if conf < 0 || conf >= m.NConformers() {
		return nil, &Error{msg: fmt.Sprintf("No conformer %d", conf), deco: []string{"Find"}}
	}
	c, err := m.Conformer(conf)
	if err != nil {
		return nil, err
	}
	top := chemgraph.FromMolecule(m.Molecule, nil)
	scale, sep := O.scale(), O.separation()
	skipH := O != nil && O.SkipHydrogens
	var ret []Clash
	for i := 0; i < m.Len(); i++ {
		si := m.Atom(i).Symbol
		if skipH && si == "H" {
			continue
		}
		var near map[int]int
		for j := i + 1; j < m.Len(); j++ {
			sj := m.Atom(j).Symbol
			vi, vj := m.Provenance[i].Vertex, m.Provenance[j].Vertex
			if vi == vj || (skipH && sj == "H") {
				continue
			}
			d := r3.Norm(r3.Sub(c.Vec(i), c.Vec(j)))
			over := scale*(chem.VdwRadius(si)+chem.VdwRadius(sj)) - d
			if over <= 0 {
				continue
			}
			if near == nil {
				near = top.Within(i, sep)
			}
			if _, ok := near[j]; ok {
				continue
			}
			ret = append(ret, Clash{Atoms: [2]int{i, j}, Vertices: [2]int{vi, vj}, Distance: d, Overlap: over})
		}
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Overlap > ret[j].Overlap })
	return ret, nil
}

//LowestDistance returns the shortest distance between a point of test and a point
//of other, and the indexes of both points.
func LowestDistance(test, other *v3.Matrix) (dist float64, indexes [2]int) {
	dist = -1
	for i := 0; i < test.NVecs(); i++ {
		a := test.Vec(i)
		for j := 0; j < other.NVecs(); j++ {
			d := r3.Norm(r3.Sub(a, other.Vec(j)))
			if dist < 0 || d < dist {
				dist = d
				indexes = [2]int{i, j}
			}
		}
	}
	return dist, indexes
}

//HighestOverlap returns the largest overlap of the van der Waals spheres, scaled by scale,
//of an atom of test and an atom of other, and the indexes of both atoms. The overlap is
//negative if no spheres touch. testSym and otherSym are the element symbols of the atoms.
func HighestOverlap(test, other *v3.Matrix, testSym, otherSym []string, scale float64) (over float64, indexes [2]int, err error) {
	if len(testSym) != test.NVecs() || len(otherSym) != other.NVecs() {
		return 0, indexes, &Error{msg: "Symbol and coordinate counts don't match", deco: []string{"HighestOverlap"}}
	}
	first := true
	for i := 0; i < test.NVecs(); i++ {
		a := test.Vec(i)
		for j := 0; j < other.NVecs(); j++ {
			o := scale*(chem.VdwRadius(testSym[i])+chem.VdwRadius(otherSym[j])) - r3.Norm(r3.Sub(a, other.Vec(j)))
			if first || o > over {
				over = o
				indexes = [2]int{i, j}
				first = false
			}
		}
	}
	return over, indexes, nil
}
