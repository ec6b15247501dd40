/*
 * json.go, part of gostk.
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

//Package chemjson serializes assembled macromolecules, with the provenance of each atom
//and bond, as a stream of JSON values, one per line, so other programs can read them
//without parsing the chemical file formats.
//
//The stream starts with a Header, followed by one Atom per atom, one Bond per bond and
//one Coords per conformer.
package chemjson

import (
	"bufio"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/assembly"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/macromol"
	v3 "github.com/rmera/gostk/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//Header describes the molecule that follows.
type Header struct {
	Name           string   `json:"name"`
	Key            string   `json:"key"`
	Topology       string   `json:"topology"`
	State          string   `json:"state"`
	BuildingBlocks []string `json:"building_blocks"`
	Counts         []int    `json:"counts"`
	Atoms          int      `json:"atoms"`
	Bonds          int      `json:"bonds"`
	Conformers     int      `json:"conformers"`
	BondsMade      int      `json:"bonds_made"`
	Fitness        *float64 `json:"fitness,omitempty"`
}

//Atom is an atom and where it came from.
type Atom struct {
	Symbol      string `json:"symbol"`
	Charge      int    `json:"charge,omitempty"`
	Aromatic    bool   `json:"aromatic,omitempty"`
	Vertex      int    `json:"vertex"`
	Unit        int    `json:"unit"`
	Local       int    `json:"local"`
	Role        string `json:"role"`
	Group       int    `json:"group"`
	NewlyBonded bool   `json:"newly_bonded,omitempty"`
}

//Bond is a bond, and whether the assembly formed it.
type Bond struct {
	At1   int     `json:"at1"`
	At2   int     `json:"at2"`
	Order float64 `json:"order"`
	New   bool    `json:"new,omitempty"`
}

//Coords are the coordinates of one conformer, x1 y1 z1 x2...
type Coords struct {
	Coords []float64 `json:"coords"`
}

//Error is the error type for chemjson.
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

func newError(function string, err error) *Error {
	return &Error{msg: err.Error(), deco: []string{function}}
}

func roles() map[string]bblock.Role {
	ret := make(map[string]bblock.Role)
	for _, r := range []bblock.Role{bblock.Core, bblock.Bonder, bblock.Deleter} {
		ret[r.String()] = r
	}
	return ret
}

//Encode writes m, named name, to out.
func Encode(out io.Writer, name string, m *macromol.Molecule) error {
	const funcname = "Encode"
	enc := json.NewEncoder(out)
	h := Header{
		Name:       name,
		Key:        m.Key(),
		Topology:   m.Topology.Key(),
		State:      m.State().String(),
		Counts:     m.Counts,
		Atoms:      m.Len(),
		Bonds:      len(m.Bonds),
		Conformers: m.NConformers(),
		BondsMade:  m.BondsMade,
		Fitness:    m.Fitness,
	}
	for _, u := range m.BuildingBlocks {
		h.BuildingBlocks = append(h.BuildingBlocks, u.Key())
	}
	if err := enc.Encode(h); err != nil {
		return newError(funcname, err)
	}
	for i, a := range m.Atoms {
		o := m.Provenance[i]
		ja := Atom{Symbol: a.Symbol, Charge: a.Charge, Aromatic: a.Aromatic, Vertex: o.Vertex, Unit: o.Unit, Local: o.Local, Role: o.Role.String(), Group: o.Group, NewlyBonded: o.NewlyBonded}
		if err := enc.Encode(ja); err != nil {
			return newError(funcname, err)
		}
	}
	for i, b := range m.Bonds {
		if err := enc.Encode(Bond{At1: b.At1, At2: b.At2, Order: b.Order, New: m.BondProvenance[i] == assembly.NewBond}); err != nil {
			return newError(funcname, err)
		}
	}
	for conf := 0; conf < m.NConformers(); conf++ {
		c, err := m.Conformer(conf)
		if err != nil {
			return newError(funcname, err)
		}
		if err := enc.Encode(Coords{Coords: c.RawMatrix().Data}); err != nil {
			return newError(funcname, err)
		}
	}
	return nil
}

//Record is a decoded stream.
type Record struct {
	Header     Header
	Mol        *chem.Molecule
	Provenance []assembly.AtomOrigin
	BondKinds  []assembly.BondKind
}

//Decode reads a molecule written by Encode.
func Decode(in io.Reader) (*Record, error) {
	const funcname = "Decode"
	dec := json.NewDecoder(bufio.NewReader(in))
	mol, err := chem.NewMolecule(nil, nil)
	if err != nil {
		return nil, newError(funcname, err)
	}
	R := &Record{Mol: mol}
	if err := dec.Decode(&R.Header); err != nil {
		return nil, newError(funcname, fmt.Errorf("header: %w", err))
	}
	h := R.Header
	if h.Atoms < 0 || h.Bonds < 0 || h.Conformers < 0 {
		return nil, &Error{msg: "Negative counts in header", deco: []string{funcname}}
	}
	rs := roles()
	for i := 0; i < h.Atoms; i++ {
		var a Atom
		if err := dec.Decode(&a); err != nil {
			return nil, newError(funcname, fmt.Errorf("atom %d: %w", i, err))
		}
		role, ok := rs[a.Role]
		if !ok {
			return nil, &Error{msg: fmt.Sprintf("Atom %d: unknown role %q", i, a.Role), deco: []string{funcname}}
		}
		R.Mol.AddAtom(&chem.Atom{Symbol: a.Symbol, Charge: a.Charge, Aromatic: a.Aromatic})
		R.Provenance = append(R.Provenance, assembly.AtomOrigin{Vertex: a.Vertex, Unit: a.Unit, Local: a.Local, Role: role, Group: a.Group, NewlyBonded: a.NewlyBonded})
	}
	for i := 0; i < h.Bonds; i++ {
		var b Bond
		if err := dec.Decode(&b); err != nil {
			return nil, newError(funcname, fmt.Errorf("bond %d: %w", i, err))
		}
		if _, err := R.Mol.AddBond(b.At1, b.At2, b.Order); err != nil {
			return nil, newError(funcname, fmt.Errorf("bond %d: %w", i, err))
		}
		kind := assembly.PreExisting
		if b.New {
			kind = assembly.NewBond
		}
		R.BondKinds = append(R.BondKinds, kind)
	}
	for i := 0; i < h.Conformers; i++ {
		var c Coords
		if err := dec.Decode(&c); err != nil {
			return nil, newError(funcname, fmt.Errorf("conformer %d: %w", i, err))
		}
		coords, err := v3.NewMatrix(c.Coords)
		if err != nil {
			return nil, newError(funcname, fmt.Errorf("conformer %d: %w", i, err))
		}
		if err := R.Mol.AddConformer(coords); err != nil {
			return nil, newError(funcname, fmt.Errorf("conformer %d: %w", i, err))
		}
	}
	return R, nil
}
