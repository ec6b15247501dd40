/*
 * bblock.go, part of gostk.
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

//Package bblock implements building blocks: molecules tagged with the functional
//group through which they bind to other building blocks.
//
//Tagging finds every instance of the functional group in the molecule and assigns
//each atom a role: Bonder atoms form the new bonds, Deleter atoms leave when they
//form, and everything else is Core. The graph and the roles don't change after
//tagging, but conformers can be added.
package bblock

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/embed"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/smiles"
	v3 "github.com/rmera/gostk/v3"
)

//Kind is the declared connectivity of a building block.
type Kind int

const (
	Ditopic    Kind = iota //exactly 2 functional groups
	Multitopic             //3 or more
)

func (K Kind) String() string {
	if K == Ditopic {
		return "ditopic"
	}
	return "multitopic"
}

//ParseKind returns the Kind corresponding to s ("ditopic", "2", "multitopic", "3"...).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ditopic", "2", "2-connector":
		return Ditopic, nil
	case "multitopic", "3", "3-connector", "4", "4-connector":
		return Multitopic, nil
	}
	return Ditopic, fmt.Errorf("unknown building block kind %q", s)
}

//accepts returns whether n functional groups are allowed for the kind.
func (K Kind) accepts(n int) bool {
	if K == Ditopic {
		return n == 2
	}
	return n >= 3
}

//Role of an atom in a building block.
type Role int

const (
	Core Role = iota
	Bonder
	Deleter
)

func (R Role) String() string {
	return [...]string{"core", "bonder", "deleter"}[R]
}

//Group is one instance of the functional group in a building block.
//All indexes refer to atoms of the building block.
type Group struct {
	Index    int   //position among the groups of the unit
	Atoms    []int //the whole match, in pattern order
	Bonders  []int
	Deleters []int
}

func (G Group) copy() Group {
	return Group{
		Index:    G.Index,
		Atoms:    append([]int(nil), G.Atoms...),
		Bonders:  append([]int(nil), G.Bonders...),
		Deleters: append([]int(nil), G.Deleters...),
	}
}

//Unit is a building block.
type Unit struct {
	Name   string
	mol    *chem.Molecule
	fg     *fgroup.FunctionalGroup
	kind   Kind
	roles  []Role
	groups []Group
	key    string
}

//New tags mol with the functional group fg and returns the building block.
//mol must have at least one conformer, and is owned by the unit afterwards.
//It fails with NoMatchError when fg doesn't occur in mol, and with
//AmbiguousMatchError when the number of occurrences doesn't fit kind, or when
//two occurrences would give different roles to the same atom.
func New(mol *chem.Molecule, fg *fgroup.FunctionalGroup, kind Kind) (*Unit, error) {
	if err := mol.Corrupted(); err != nil {
		return nil, errDecorate(err, "New")
	}
	if mol.NConformers() == 0 {
		return nil, &Error{msg: fmt.Sprintf("Building block %s has no coordinates", mol.Name), deco: []string{"New"}}
	}
	U := &Unit{Name: mol.Name, mol: mol, fg: fg, kind: kind}
	if err := U.tag(); err != nil {
		return nil, errDecorate(err, "New")
	}
	U.key = U.computeKey()
	return U, nil
}

//tag finds the functional groups and assigns the atom roles.
func (U *Unit) tag() error {
	matches := U.fg.Matches(U.mol)
	if len(matches) == 0 {
		return &NoMatchError{Unit: U.Name, Group: U.fg.Name, deco: []string{"tag"}}
	}
	if !U.kind.accepts(len(matches)) {
		return &AmbiguousMatchError{Unit: U.Name, Group: U.fg.Name, Kind: U.kind, Matches: len(matches), Atom: -1, deco: []string{"tag"}}
	}
	U.roles = make([]Role, U.mol.Len())
	owner := make([]int, U.mol.Len()) //group tagging each atom, plus one
	var k int
	set := func(i int, r Role) error {
		if owner[i] != 0 && owner[i] != k+1 {
			return &AmbiguousMatchError{Unit: U.Name, Group: U.fg.Name, Kind: U.kind, Matches: len(matches), Atom: i, deco: []string{"tag"}}
		}
		owner[i] = k + 1
		U.roles[i] = r
		return nil
	}
	for _, m := range matches {
		g := Group{Index: k, Atoms: append([]int(nil), m...)}
		for _, b := range U.fg.Bonders {
			if err := set(m[b], Bonder); err != nil {
				return err
			}
			g.Bonders = append(g.Bonders, m[b])
		}
		for _, d := range U.fg.Deleters {
			if err := set(m[d], Deleter); err != nil {
				return err
			}
			g.Deleters = append(g.Deleters, m[d])
		}
		U.groups = append(U.groups, g)
		k++
	}
	return nil
}

//Embedder produces a 3D structure for a molecule, appending it as a conformer.
type Embedder interface {
	Embed(mol *chem.Molecule) error
}

//EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(*chem.Molecule) error

func (f EmbedderFunc) Embed(mol *chem.Molecule) error { return f(mol) }

//DefaultEmbedder uses the embed package with its default options.
var DefaultEmbedder Embedder = EmbedderFunc(func(mol *chem.Molecule) error { return embed.Embed(mol, nil) })

//FromSMILES builds a building block from a SMILES string, using em to obtain
//3D coordinates (DefaultEmbedder if em is nil).
func FromSMILES(s string, fg *fgroup.FunctionalGroup, kind Kind, em Embedder) (*Unit, error) {
	mol, err := smiles.Parse(s)
	if err != nil {
		return nil, errDecorate(err, "FromSMILES")
	}
	mol.Name = s
	if em == nil {
		em = DefaultEmbedder
	}
	if err := em.Embed(mol); err != nil {
		return nil, errDecorate(err, "FromSMILES")
	}
	U, err := New(mol, fg, kind)
	return U, errDecorate(err, "FromSMILES")
}

func readStructure(path string) (*chem.Molecule, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mol", ".sdf":
		return chem.MolFileRead(path)
	case ".mol2":
		return chem.Mol2FileRead(path)
	}
	return nil, &Error{msg: fmt.Sprintf("Unsupported structure file %s", path), deco: []string{"readStructure"}}
}

//FromFile reads a building block from an MDL molfile (.mol, .sdf) or a Tripos mol2 file.
func FromFile(path string, fg *fgroup.FunctionalGroup, kind Kind) (*Unit, error) {
	mol, err := readStructure(path)
	if err != nil {
		return nil, errDecorate(err, "FromFile")
	}
	if mol.Name == "" {
		mol.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	U, err := New(mol, fg, kind)
	return U, errDecorate(err, "FromFile")
}

//UpdateFromFile reads a structure with the same atoms as the unit, in the same
//order, and adds its coordinates as a new conformer, whose index is returned.
func (U *Unit) UpdateFromFile(path string) (int, error) {
	mol, err := readStructure(path)
	if err != nil {
		return -1, errDecorate(err, "UpdateFromFile")
	}
	if err := chem.CheckSameStructure(U.mol, mol); err != nil {
		return -1, errDecorate(err, "UpdateFromFile")
	}
	if err := U.AddConformer(mol.Coords[0]); err != nil {
		return -1, errDecorate(err, "UpdateFromFile")
	}
	return U.NConformers() - 1, nil
}

//Mol returns the molecule of the unit. It must not be modified, except for its coordinates.
func (U *Unit) Mol() *chem.Molecule { return U.mol }

//FunctionalGroup returns the functional group the unit was tagged with.
func (U *Unit) FunctionalGroup() *fgroup.FunctionalGroup { return U.fg }

//Kind returns the declared connectivity of the unit.
func (U *Unit) Kind() Kind { return U.kind }

//Len returns the number of atoms.
func (U *Unit) Len() int { return U.mol.Len() }

//Role returns the role of the ith atom.
func (U *Unit) Role(i int) Role { return U.roles[i] }

//NGroups returns the number of functional groups found in the unit.
func (U *Unit) NGroups() int { return len(U.groups) }

//Group returns the ith functional group of the unit.
func (U *Unit) Group(i int) Group { return U.groups[i].copy() }

//Groups returns all the functional groups of the unit.
func (U *Unit) Groups() []Group {
	ret := make([]Group, len(U.groups))
	for i, g := range U.groups {
		ret[i] = g.copy()
	}
	return ret
}

//Bonders returns all the bonder atoms, group by group.
func (U *Unit) Bonders() []int {
	var ret []int
	for _, g := range U.groups {
		ret = append(ret, g.Bonders...)
	}
	return ret
}

//Deleters returns all the deleter atoms, group by group.
func (U *Unit) Deleters() []int {
	var ret []int
	for _, g := range U.groups {
		ret = append(ret, g.Deleters...)
	}
	return ret
}

//NConformers returns the number of conformers.
func (U *Unit) NConformers() int { return U.mol.NConformers() }

//AddConformer appends a set of coordinates for the unit.
func (U *Unit) AddConformer(c *v3.Matrix) error {
	return errDecorate(U.mol.AddConformer(c), "AddConformer")
}

//Copy returns a deep copy of the unit, coordinates included.
func (U *Unit) Copy() *Unit {
	r := &Unit{Name: U.Name, mol: U.mol.Copy(), fg: U.fg, kind: U.kind, key: U.key}
	r.roles = append([]Role(nil), U.roles...)
	r.groups = make([]Group, len(U.groups))
	for i, g := range U.groups {
		r.groups[i] = g.copy()
	}
	return r
}

//Core returns the scaffold of the unit: the molecule without its hydrogens and
//deleter atoms, and the map from unit atom indexes to core indexes (-1 for atoms not in the core).
func (U *Unit) Core() (*chem.Molecule, []int) {
	keep := make([]int, 0, U.mol.Len())
	for i, a := range U.mol.Atoms {
		if a.Symbol != "H" && U.roles[i] != Deleter {
			keep = append(keep, i)
		}
	}
	return U.mol.Subgraph(keep)
}

//Same returns whether U and other are the same building block: the same functional
//group and isomorphic cores, regardless of coordinates and atom ordering.
func (U *Unit) Same(other *Unit) bool {
	if U.fg.Name != other.fg.Name || U.key != other.key {
		return false
	}
	a, _ := U.Core()
	b, _ := other.Core()
	return chem.Isomorphic(a, b)
}

//Key returns a string that identifies the building block: units for which
//Same is true have the same key.
func (U *Unit) Key() string { return U.key }

func (U *Unit) computeKey() string {
	core, _ := U.Core()
	return U.fg.Name + ":" + strconv.FormatUint(chem.CanonicalHash(core, nil), 16)
}

func (U *Unit) String() string {
	return fmt.Sprintf("%s (%s, %s, %d groups)", U.Name, U.fg.Name, U.kind, len(U.groups))
}
