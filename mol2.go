/*
 * mol2.go, part of gostk.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//Mol2FileRead reads the first molecule of a Tripos mol2 file. Hydrogens are kept.
func Mol2FileRead(path string) (*Molecule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CError{msg: err.Error(), deco: []string{"Mol2FileRead"}}
	}
	defer f.Close()
	mol, err := ReadMol2(f)
	if err != nil {
		return nil, errDecorate(err, "Mol2FileRead "+path)
	}
	return mol, nil
}

//mol2Symbol gets the element from a Sybyl atom type such as C.ar or N.pl3
func mol2Symbol(t string) string {
	if i := strings.Index(t, "."); i >= 0 {
		t = t[:i]
	}
	if t == "" {
		return t
	}
	r := []rune(strings.ToLower(t))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func mol2Order(t string) (float64, error) {
	switch t {
	case "ar":
		return 1.5, nil
	case "am":
		return 1, nil
	case "du", "un", "nc":
		return 0, nil
	}
	o, err := strconv.Atoi(t)
	return float64(o), err
}

//ReadMol2 reads a molecule in the Tripos mol2 format from r.
func ReadMol2(r io.Reader) (*Molecule, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	section := ""
	name := ""
	molLine := 0
	atoms := make([]*Atom, 0)
	coords := make([]r3.Vec, 0)
	bonds := make([]*Bond, 0)
	ids := make(map[int]int)
	molecules := 0
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if strings.HasPrefix(l, "@<TRIPOS>") {
			section = strings.TrimPrefix(l, "@<TRIPOS>")
			if section == "MOLECULE" {
				molecules++
				if molecules > 1 {
					break
				}
				molLine = 0
			}
			continue
		}
		f := strings.Fields(l)
		switch section {
		case "MOLECULE":
			if molLine == 0 {
				name = l
			}
			molLine++
		case "ATOM":
			if len(f) < 6 {
				return nil, &CError{msg: "Malformed mol2 atom line: " + l, deco: []string{"ReadMol2"}}
			}
			id, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, &CError{msg: "Malformed mol2 atom line: " + l, deco: []string{"ReadMol2"}}
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				xyz[k], err = strconv.ParseFloat(f[2+k], 64)
				if err != nil {
					return nil, &CError{msg: "Malformed mol2 coordinates: " + l, deco: []string{"ReadMol2"}}
				}
			}
			at := &Atom{Symbol: mol2Symbol(f[5]), Name: f[1], Aromatic: strings.HasSuffix(f[5], ".ar")}
			ids[id] = len(atoms)
			atoms = append(atoms, at)
			coords = append(coords, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "BOND":
			if len(f) < 4 {
				return nil, &CError{msg: "Malformed mol2 bond line: " + l, deco: []string{"ReadMol2"}}
			}
			a1, err1 := strconv.Atoi(f[1])
			a2, err2 := strconv.Atoi(f[2])
			o, err3 := mol2Order(f[3])
			i1, ok1 := ids[a1]
			i2, ok2 := ids[a2]
			if err1 != nil || err2 != nil || err3 != nil || !ok1 || !ok2 {
				return nil, &CError{msg: "Malformed mol2 bond line: " + l, deco: []string{"ReadMol2"}}
			}
			bonds = append(bonds, &Bond{At1: i1, At2: i2, Order: o})
		}
	}
	if err := s.Err(); err != nil {
		return nil, &CError{msg: err.Error(), deco: []string{"ReadMol2"}}
	}
	if len(atoms) == 0 {
		return nil, &CError{msg: "No atoms found in mol2 data", deco: []string{"ReadMol2"}}
	}
	mol, err := NewMolecule(atoms, bonds, v3.FromVecs(coords))
	if err != nil {
		return nil, errDecorate(err, "ReadMol2")
	}
	mol.Name = name
	return mol, nil
}

//Mol2FileWrite writes the given conformer of mol to path in the Tripos mol2 format.
func Mol2FileWrite(path string, mol *Molecule, conf int) error {
	f, err := os.Create(path)
	if err != nil {
		return &CError{msg: err.Error(), deco: []string{"Mol2FileWrite"}}
	}
	if err := WriteMol2(f, mol, conf); err != nil {
		f.Close()
		return errDecorate(err, "Mol2FileWrite")
	}
	if err := f.Close(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"Mol2FileWrite"}}
	}
	return nil
}

//WriteMol2 writes the given conformer of mol to w in the Tripos mol2 format.
//The atom types are just the element symbols, with the .ar suffix for aromatic atoms.
func WriteMol2(w io.Writer, mol *Molecule, conf int) error {
	if conf < 0 || conf >= mol.NConformers() {
		return &CError{msg: fmt.Sprintf("The molecule has no conformer %d", conf), deco: []string{"WriteMol2"}}
	}
	b := bufio.NewWriter(w)
	name := mol.Name
	if name == "" {
		name = "gostk"
	}
	fmt.Fprintf(b, "@<TRIPOS>MOLECULE\n%s\n %d %d 0 0 0\nSMALL\nNO_CHARGES\n\n", name, mol.Len(), len(mol.Bonds))
	fmt.Fprintf(b, "@<TRIPOS>ATOM\n")
	for i, a := range mol.Atoms {
		c := mol.Coord(i, conf)
		t := a.Symbol
		if a.Aromatic {
			t += ".ar"
		}
		fmt.Fprintf(b, "%7d %-6s %10.4f %10.4f %10.4f %-6s %4d UNL1 %8.4f\n", i+1, fmt.Sprintf("%s%d", a.Symbol, i+1), c.X, c.Y, c.Z, t, 1, float64(a.Charge))
	}
	fmt.Fprintf(b, "@<TRIPOS>BOND\n")
	for i, bo := range mol.Bonds {
		t := strconv.Itoa(int(bo.Order + 0.5))
		if bo.Aromatic() {
			t = "ar"
		}
		fmt.Fprintf(b, "%6d %5d %5d %s\n", i+1, bo.At1+1, bo.At2+1, t)
	}
	if err := b.Flush(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"WriteMol2"}}
	}
	return nil
}
