/*
 * chem.go, part of gostk.
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

package chem

import (
	"fmt"
	"sort"
	"strings"

	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//Atom contains the information on one atom, except for the coordinates,
//which are kept in the conformer matrices of the Molecule.
type Atom struct {
	Index    int //position in the Molecule, set by FillIndexes
	Symbol   string
	Charge   int //formal charge
	Aromatic bool
	Name     string
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	at := *A
	return &at
}

//Mass returns the mass of the atom, or 0 if the element is unknown.
func (A *Atom) Mass() float64 {
	return symbolMass[A.Symbol]
}

//Bond joins two atoms of a Molecule, given by their indexes.
type Bond struct {
	Index int
	At1   int
	At2   int
	Order float64 //1, 2, 3, or 1.5 for aromatic bonds
}

//Cross returns the index of the atom at the other side of the bond
//from the atom with index origin.
func (B *Bond) Cross(origin int) int {
	if origin == B.At1 {
		return B.At2
	}
	if origin == B.At2 {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //programming error
}

//Has returns true if the atom with index i takes part in the bond.
func (B *Bond) Has(i int) bool {
	return B.At1 == i || B.At2 == i
}

//Aromatic is true for bonds of order 1.5
func (B *Bond) Aromatic() bool {
	return B.Order > 1.4 && B.Order < 1.6
}

//Copy returns a copy of the bond.
func (B *Bond) Copy() *Bond {
	b := *B
	return &b
}

//Molecule is a molecular graph (atoms and bonds) with any number of conformers,
//each of which is a Nx3 matrix with the cartesian coordinates of the atoms, in A.
type Molecule struct {
	Name   string
	Atoms  []*Atom
	Bonds  []*Bond
	Coords []*v3.Matrix
	adj    [][]int //bond indexes per atom
}

//NewMolecule builds a Molecule from the given atoms, bonds and conformers.
//It returns an error if a bond references a non-existent atom, or
//if the conformers have the wrong size.
func NewMolecule(atoms []*Atom, bonds []*Bond, coords ...*v3.Matrix) (*Molecule, error) {
	M := &Molecule{Atoms: atoms, Bonds: bonds}
	if M.Atoms == nil {
		M.Atoms = make([]*Atom, 0)
	}
	if M.Bonds == nil {
		M.Bonds = make([]*Bond, 0)
	}
	M.FillIndexes()
	for _, c := range coords {
		if err := M.AddConformer(c); err != nil {
			return nil, errDecorate(err, "NewMolecule")
		}
	}
	if err := M.Corrupted(); err != nil {
		return nil, errDecorate(err, "NewMolecule")
	}
	return M, nil
}

//FillIndexes sets the Index field of every atom and bond to its
//position in the molecule, and rebuilds the adjacency lists.
func (M *Molecule) FillIndexes() {
	for i, a := range M.Atoms {
		a.Index = i
	}
	M.adj = make([][]int, len(M.Atoms))
	for i, b := range M.Bonds {
		b.Index = i
		if b.At1 < 0 || b.At2 < 0 || b.At1 >= len(M.Atoms) || b.At2 >= len(M.Atoms) {
			continue //Corrupted will catch it
		}
		M.adj[b.At1] = append(M.adj[b.At1], i)
		M.adj[b.At2] = append(M.adj[b.At2], i)
	}
}

//Corrupted returns an error if the molecule is inconsistent.
func (M *Molecule) Corrupted() error {
	seen := make(map[[2]int]bool, len(M.Bonds))
	for i, b := range M.Bonds {
		if b.At1 < 0 || b.At2 < 0 || b.At1 >= len(M.Atoms) || b.At2 >= len(M.Atoms) {
			return &CError{msg: fmt.Sprintf("Bond %d references an atom out of range", i), deco: []string{"Corrupted"}}
		}
		if b.At1 == b.At2 {
			return &CError{msg: fmt.Sprintf("Bond %d joins atom %d with itself", i, b.At1), deco: []string{"Corrupted"}}
		}
		k := pairKey(b.At1, b.At2)
		if seen[k] {
			return &CError{msg: fmt.Sprintf("Bond %d duplicates the bond between atoms %d and %d", i, b.At1, b.At2), deco: []string{"Corrupted"}}
		}
		seen[k] = true
	}
	for i, c := range M.Coords {
		if c.NVecs() != len(M.Atoms) {
			return &CError{msg: fmt.Sprintf("Conformer %d has %d coordinates for %d atoms", i, c.NVecs(), len(M.Atoms)), deco: []string{"Corrupted"}}
		}
	}
	return nil
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

//Len returns the number of atoms in the molecule.
func (M *Molecule) Len() int {
	return len(M.Atoms)
}

//Atom returns the ith atom. Panics if out of range.
func (M *Molecule) Atom(i int) *Atom {
	return M.Atoms[i]
}

//Bond returns the ith bond. Panics if out of range.
func (M *Molecule) Bond(i int) *Bond {
	return M.Bonds[i]
}

//AtomBonds returns the bonds in which the ith atom takes part.
func (M *Molecule) AtomBonds(i int) []*Bond {
	ret := make([]*Bond, 0, len(M.adj[i]))
	for _, b := range M.adj[i] {
		ret = append(ret, M.Bonds[b])
	}
	return ret
}

//Neighbors returns the indexes of the atoms bonded to the ith atom.
func (M *Molecule) Neighbors(i int) []int {
	ret := make([]int, 0, len(M.adj[i]))
	for _, b := range M.adj[i] {
		ret = append(ret, M.Bonds[b].Cross(i))
	}
	return ret
}

//Degree returns the number of bonds of the ith atom.
func (M *Molecule) Degree(i int) int {
	return len(M.adj[i])
}

//BondBetween returns the bond between atoms i and j, or nil
//if they are not bonded.
func (M *Molecule) BondBetween(i, j int) *Bond {
	for _, b := range M.adj[i] {
		if M.Bonds[b].Has(j) {
			return M.Bonds[b]
		}
	}
	return nil
}

//AddAtom appends an atom to the molecule and returns its index.
//Every existing conformer gets a zero coordinate for the new atom.
func (M *Molecule) AddAtom(at *Atom) int {
	at.Index = len(M.Atoms)
	M.Atoms = append(M.Atoms, at)
	M.adj = append(M.adj, nil)
	for k, c := range M.Coords {
		n := v3.Zeros(c.NVecs() + 1)
		for i := 0; i < c.NVecs(); i++ {
			n.SetVec(i, c.Vec(i))
		}
		M.Coords[k] = n
	}
	return at.Index
}

//AddBond joins atoms i and j with a bond of the given order.
func (M *Molecule) AddBond(i, j int, order float64) (*Bond, error) {
	if i < 0 || j < 0 || i >= M.Len() || j >= M.Len() {
		return nil, &CError{msg: fmt.Sprintf("Can't bond atoms %d and %d: out of range", i, j), deco: []string{"AddBond"}}
	}
	if i == j {
		return nil, &CError{msg: fmt.Sprintf("Can't bond atom %d to itself", i), deco: []string{"AddBond"}}
	}
	if M.BondBetween(i, j) != nil {
		return nil, &CError{msg: fmt.Sprintf("Atoms %d and %d are already bonded", i, j), deco: []string{"AddBond"}}
	}
	b := &Bond{Index: len(M.Bonds), At1: i, At2: j, Order: order}
	M.Bonds = append(M.Bonds, b)
	M.adj[i] = append(M.adj[i], b.Index)
	M.adj[j] = append(M.adj[j], b.Index)
	return b, nil
}

//NConformers returns the number of conformers in the molecule.
func (M *Molecule) NConformers() int {
	return len(M.Coords)
}

//AddConformer appends a set of coordinates to the molecule.
func (M *Molecule) AddConformer(c *v3.Matrix) error {
	if c == nil || c.NVecs() != M.Len() {
		n := 0
		if c != nil {
			n = c.NVecs()
		}
		return &CError{msg: fmt.Sprintf("Conformer with %d coordinates for %d atoms", n, M.Len()), deco: []string{"AddConformer"}}
	}
	M.Coords = append(M.Coords, c)
	return nil
}

//Coord returns the position of the ith atom in the given conformer.
func (M *Molecule) Coord(i, conf int) r3.Vec {
	return M.Coords[conf].Vec(i)
}

//SetCoord sets the position of the ith atom in the given conformer.
func (M *Molecule) SetCoord(i, conf int, v r3.Vec) {
	M.Coords[conf].SetVec(i, v)
}

//Copy returns a deep copy of the molecule, including all conformers.
func (M *Molecule) Copy() *Molecule {
	r := &Molecule{Name: M.Name}
	r.Atoms = make([]*Atom, len(M.Atoms))
	for i, a := range M.Atoms {
		r.Atoms[i] = a.Copy()
	}
	r.Bonds = make([]*Bond, len(M.Bonds))
	for i, b := range M.Bonds {
		r.Bonds[i] = b.Copy()
	}
	r.Coords = make([]*v3.Matrix, len(M.Coords))
	for i, c := range M.Coords {
		r.Coords[i] = c.Clone()
	}
	r.FillIndexes()
	return r
}

//Subgraph returns a new molecule with only the atoms in keep (in that order),
//the bonds among them and the corresponding coordinates of every conformer.
//The second value maps each old index to the new one, or -1 for atoms
//not kept.
func (M *Molecule) Subgraph(keep []int) (*Molecule, []int) {
	oldnew := make([]int, M.Len())
	for i := range oldnew {
		oldnew[i] = -1
	}
	r := &Molecule{Name: M.Name}
	r.Atoms = make([]*Atom, 0, len(keep))
	for _, k := range keep {
		oldnew[k] = len(r.Atoms)
		r.Atoms = append(r.Atoms, M.Atoms[k].Copy())
	}
	r.Bonds = make([]*Bond, 0, len(M.Bonds))
	for _, b := range M.Bonds {
		n1, n2 := oldnew[b.At1], oldnew[b.At2]
		if n1 < 0 || n2 < 0 {
			continue
		}
		r.Bonds = append(r.Bonds, &Bond{At1: n1, At2: n2, Order: b.Order})
	}
	for _, c := range M.Coords {
		n := v3.Zeros(len(keep))
		n.SomeVecs(c, keep)
		r.Coords = append(r.Coords, n)
	}
	r.FillIndexes()
	return r, oldnew
}

//RemoveAtoms returns a copy of the molecule without the atoms in rm,
//and the old to new index map (-1 for the removed atoms).
func (M *Molecule) RemoveAtoms(rm []int) (*Molecule, []int) {
	del := make(map[int]bool, len(rm))
	for _, v := range rm {
		del[v] = true
	}
	keep := make([]int, 0, M.Len()-len(del))
	for i := 0; i < M.Len(); i++ {
		if !del[i] {
			keep = append(keep, i)
		}
	}
	return M.Subgraph(keep)
}

//Merge returns the disjoint union of the given molecules, using
//the conformer confs[i] of the ith molecule (conformer 0 if confs is nil).
//It also returns the offset of each molecule's atoms in the merged one.
func Merge(mols []*Molecule, confs []int) (*Molecule, []int, error) {
	total := 0
	for _, m := range mols {
		total += m.Len()
	}
	r := &Molecule{Atoms: make([]*Atom, 0, total)}
	coords := v3.Zeros(total)
	offsets := make([]int, len(mols))
	for k, m := range mols {
		conf := 0
		if confs != nil {
			conf = confs[k]
		}
		if conf < 0 || conf >= m.NConformers() {
			return nil, nil, &CError{msg: fmt.Sprintf("Molecule %d has no conformer %d", k, conf), deco: []string{"Merge"}}
		}
		off := len(r.Atoms)
		offsets[k] = off
		for i, a := range m.Atoms {
			r.Atoms = append(r.Atoms, a.Copy())
			coords.SetVec(off+i, m.Coord(i, conf))
		}
		for _, b := range m.Bonds {
			r.Bonds = append(r.Bonds, &Bond{At1: b.At1 + off, At2: b.At2 + off, Order: b.Order})
		}
	}
	r.Coords = []*v3.Matrix{coords}
	r.FillIndexes()
	return r, offsets, nil
}

//Formula returns the molecular formula in Hill order.
func (M *Molecule) Formula() string {
	count := make(map[string]int)
	for _, a := range M.Atoms {
		count[a.Symbol]++
	}
	syms := make([]string, 0, len(count))
	for s := range count {
		if s != "C" && s != "H" {
			syms = append(syms, s)
		}
	}
	sort.Strings(syms)
	if count["C"] > 0 {
		syms = append([]string{"C", "H"}, syms...)
	} else {
		syms = append(syms, "H")
		sort.Strings(syms)
	}
	var b strings.Builder
	for _, s := range syms {
		n := count[s]
		if n == 0 {
			continue
		}
		b.WriteString(s)
		if n > 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}
