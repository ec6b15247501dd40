/*
 * files.go, part of gostk.
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

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//MolFileRead reads the first molecule of an MDL molfile (or SD file),
//V2000 or V3000.
func MolFileRead(path string) (*Molecule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CError{msg: err.Error(), deco: []string{"MolFileRead"}}
	}
	defer f.Close()
	mol, err := ReadMol(f)
	if err != nil {
		return nil, errDecorate(err, "MolFileRead "+path)
	}
	return mol, nil
}

//ReadMol reads an MDL molfile, V2000 or V3000, from r.
func ReadMol(r io.Reader) (*Molecule, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lines := make([]string, 0, 64)
	for s.Scan() {
		l := strings.TrimRight(s.Text(), "\r")
		if strings.HasPrefix(l, "$$$$") {
			break
		}
		lines = append(lines, l)
	}
	if err := s.Err(); err != nil {
		return nil, &CError{msg: err.Error(), deco: []string{"ReadMol"}}
	}
	if len(lines) < 4 {
		return nil, &CError{msg: "Molfile too short", deco: []string{"ReadMol"}}
	}
	var mol *Molecule
	var err error
	if strings.Contains(lines[3], "V3000") {
		mol, err = readV3000(lines)
	} else {
		mol, err = readV2000(lines)
	}
	if err != nil {
		return nil, errDecorate(err, "ReadMol")
	}
	mol.Name = strings.TrimSpace(lines[0])
	return mol, nil
}

//field returns the trimmed columns [i:j] of l, or "" if l is too short.
func field(l string, i, j int) string {
	if i >= len(l) {
		return ""
	}
	if j > len(l) {
		j = len(l)
	}
	return strings.TrimSpace(l[i:j])
}

var v2000Charges = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func readV2000(lines []string) (*Molecule, error) {
	natoms, err := strconv.Atoi(field(lines[3], 0, 3))
	if err != nil {
		return nil, &CError{msg: "Can't read the number of atoms: " + err.Error(), deco: []string{"readV2000"}}
	}
	nbonds, err := strconv.Atoi(field(lines[3], 3, 6))
	if err != nil {
		return nil, &CError{msg: "Can't read the number of bonds: " + err.Error(), deco: []string{"readV2000"}}
	}
	if len(lines) < 4+natoms+nbonds {
		return nil, &CError{msg: "Molfile truncated", deco: []string{"readV2000"}}
	}
	atoms := make([]*Atom, natoms)
	coords := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		l := lines[4+i]
		var xyz [3]float64
		for k := 0; k < 3; k++ {
			xyz[k], err = strconv.ParseFloat(field(l, 10*k, 10*k+10), 64)
			if err != nil {
				return nil, &CError{msg: fmt.Sprintf("Can't read coordinates of atom %d: %s", i+1, err.Error()), deco: []string{"readV2000"}}
			}
		}
		coords.SetVec(i, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		at := &Atom{Symbol: field(l, 31, 34)}
		if c, err := strconv.Atoi(field(l, 36, 39)); err == nil {
			at.Charge = v2000Charges[c]
		}
		atoms[i] = at
	}
	bonds := make([]*Bond, nbonds)
	for i := 0; i < nbonds; i++ {
		l := lines[4+natoms+i]
		a1, err1 := strconv.Atoi(field(l, 0, 3))
		a2, err2 := strconv.Atoi(field(l, 3, 6))
		t, err3 := strconv.Atoi(field(l, 6, 9))
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, &CError{msg: fmt.Sprintf("Can't read bond %d", i+1), deco: []string{"readV2000"}}
		}
		bonds[i] = &Bond{At1: a1 - 1, At2: a2 - 1, Order: mdlOrder(t)}
	}
	//charges in the property block replace those in the atom block.
	chgReset := false
	for _, l := range lines[4+natoms+nbonds:] {
		if strings.HasPrefix(l, "M  END") {
			break
		}
		if !strings.HasPrefix(l, "M  CHG") {
			continue
		}
		if !chgReset {
			for _, a := range atoms {
				a.Charge = 0
			}
			chgReset = true
		}
		f := strings.Fields(l)
		for k := 3; k+1 < len(f); k += 2 {
			idx, err1 := strconv.Atoi(f[k])
			chg, err2 := strconv.Atoi(f[k+1])
			if err1 != nil || err2 != nil || idx < 1 || idx > natoms {
				return nil, &CError{msg: "Malformed charge line: " + l, deco: []string{"readV2000"}}
			}
			atoms[idx-1].Charge = chg
		}
	}
	for _, b := range bonds {
		if b.Aromatic() {
			atoms[b.At1].Aromatic = true
			atoms[b.At2].Aromatic = true
		}
	}
	return NewMolecule(atoms, bonds, coords)
}

func mdlOrder(t int) float64 {
	if t == 4 {
		return 1.5
	}
	return float64(t)
}

func mdlType(order float64) int {
	if order > 1.4 && order < 1.6 {
		return 4
	}
	return int(order + 0.5)
}

//v3000Lines returns the V3000 lines without the "M  V30 " prefix, joining continued lines.
func v3000Lines(lines []string) []string {
	ret := make([]string, 0, len(lines))
	cont := ""
	for _, l := range lines {
		if !strings.HasPrefix(l, "M  V30 ") {
			continue
		}
		l = cont + strings.TrimPrefix(l, "M  V30 ")
		if strings.HasSuffix(l, "-") {
			cont = strings.TrimSuffix(l, "-")
			continue
		}
		cont = ""
		ret = append(ret, strings.TrimSpace(l))
	}
	return ret
}

func readV3000(lines []string) (*Molecule, error) {
	atoms := make([]*Atom, 0)
	bonds := make([]*Bond, 0)
	coords := make([]r3.Vec, 0)
	block := ""
	ids := make(map[int]int) //molfile atom number to index
	for _, l := range v3000Lines(lines) {
		switch {
		case strings.HasPrefix(l, "BEGIN "):
			block = strings.TrimPrefix(l, "BEGIN ")
			continue
		case strings.HasPrefix(l, "END "):
			block = ""
			continue
		}
		f := strings.Fields(l)
		switch block {
		case "ATOM":
			if len(f) < 5 {
				return nil, &CError{msg: "Malformed atom line: " + l, deco: []string{"readV3000"}}
			}
			id, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, &CError{msg: "Malformed atom line: " + l, deco: []string{"readV3000"}}
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				xyz[k], err = strconv.ParseFloat(f[2+k], 64)
				if err != nil {
					return nil, &CError{msg: "Malformed atom coordinates: " + l, deco: []string{"readV3000"}}
				}
			}
			at := &Atom{Symbol: f[1]}
			for _, prop := range f[5:] {
				if strings.HasPrefix(prop, "CHG=") {
					at.Charge, _ = strconv.Atoi(strings.TrimPrefix(prop, "CHG="))
				}
			}
			ids[id] = len(atoms)
			atoms = append(atoms, at)
			coords = append(coords, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "BOND":
			if len(f) < 4 {
				return nil, &CError{msg: "Malformed bond line: " + l, deco: []string{"readV3000"}}
			}
			t, err1 := strconv.Atoi(f[1])
			a1, err2 := strconv.Atoi(f[2])
			a2, err3 := strconv.Atoi(f[3])
			i1, ok1 := ids[a1]
			i2, ok2 := ids[a2]
			if err1 != nil || err2 != nil || err3 != nil || !ok1 || !ok2 {
				return nil, &CError{msg: "Malformed bond line: " + l, deco: []string{"readV3000"}}
			}
			bonds = append(bonds, &Bond{At1: i1, At2: i2, Order: mdlOrder(t)})
		}
	}
	if len(atoms) == 0 {
		return nil, &CError{msg: "No atoms in the V3000 molfile", deco: []string{"readV3000"}}
	}
	for _, b := range bonds {
		if b.Aromatic() {
			atoms[b.At1].Aromatic = true
			atoms[b.At2].Aromatic = true
		}
	}
	return NewMolecule(atoms, bonds, v3.FromVecs(coords))
}

//MolFileWrite writes the given conformer of the molecule to path, as a V3000 molfile.
func MolFileWrite(path string, mol *Molecule, conf int) error {
	f, err := os.Create(path)
	if err != nil {
		return &CError{msg: err.Error(), deco: []string{"MolFileWrite"}}
	}
	if err := WriteMol(f, mol, conf); err != nil {
		f.Close()
		return errDecorate(err, "MolFileWrite")
	}
	if err := f.Close(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"MolFileWrite"}}
	}
	return nil
}

//WriteMol writes the given conformer of the molecule to w, in the V3000 molfile format,
//which has no limits on the number of atoms.
func WriteMol(w io.Writer, mol *Molecule, conf int) error {
	if conf < 0 || conf >= mol.NConformers() {
		return &CError{msg: fmt.Sprintf("The molecule has no conformer %d", conf), deco: []string{"WriteMol"}}
	}
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "%s\n  gostk          3D\n\n", mol.Name)
	fmt.Fprintf(b, "  0  0  0     0  0            999 V3000\n")
	fmt.Fprintf(b, "M  V30 BEGIN CTAB\n")
	fmt.Fprintf(b, "M  V30 COUNTS %d %d 0 0 0\n", mol.Len(), len(mol.Bonds))
	fmt.Fprintf(b, "M  V30 BEGIN ATOM\n")
	for i, a := range mol.Atoms {
		c := mol.Coord(i, conf)
		fmt.Fprintf(b, "M  V30 %d %s %.4f %.4f %.4f 0", i+1, a.Symbol, c.X, c.Y, c.Z)
		if a.Charge != 0 {
			fmt.Fprintf(b, " CHG=%d", a.Charge)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "M  V30 END ATOM\n")
	fmt.Fprintf(b, "M  V30 BEGIN BOND\n")
	for i, bo := range mol.Bonds {
		fmt.Fprintf(b, "M  V30 %d %d %d %d\n", i+1, mdlType(bo.Order), bo.At1+1, bo.At2+1)
	}
	fmt.Fprintf(b, "M  V30 END BOND\n")
	fmt.Fprintf(b, "M  V30 END CTAB\n")
	fmt.Fprintf(b, "M  END\n")
	if err := b.Flush(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"WriteMol"}}
	}
	return nil
}

//compressedWriter wraps f with a gzip or zstd writer according to the extension of name.
func compressedWriter(f io.Writer, name string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewWriter(f), nil
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewWriter(f)
	}
	return nopCloser{f}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

//XYZFileWrite writes all the conformers of the molecule to a multi-frame xyz file.
//Files with names ending in .gz or .zst are compressed with gzip or zstd respectively.
func XYZFileWrite(path string, mol *Molecule) error {
	f, err := os.Create(path)
	if err != nil {
		return &CError{msg: err.Error(), deco: []string{"XYZFileWrite"}}
	}
	defer f.Close()
	w, err := compressedWriter(f, path)
	if err != nil {
		return &CError{msg: err.Error(), deco: []string{"XYZFileWrite"}}
	}
	for c := 0; c < mol.NConformers(); c++ {
		if err := XYZWrite(w, mol, c); err != nil {
			w.Close()
			return errDecorate(err, "XYZFileWrite")
		}
	}
	if err := w.Close(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"XYZFileWrite"}}
	}
	return nil
}

//XYZWrite writes one conformer of the molecule as an xyz frame.
func XYZWrite(w io.Writer, mol *Molecule, conf int) error {
	if conf < 0 || conf >= mol.NConformers() {
		return &CError{msg: fmt.Sprintf("The molecule has no conformer %d", conf), deco: []string{"XYZWrite"}}
	}
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "%d\n%s conformer %d\n", mol.Len(), mol.Name, conf)
	for i, a := range mol.Atoms {
		c := mol.Coord(i, conf)
		fmt.Fprintf(b, "%-2s  %12.6f%12.6f%12.6f\n", a.Symbol, c.X, c.Y, c.Z)
	}
	if err := b.Flush(); err != nil {
		return &CError{msg: err.Error(), deco: []string{"XYZWrite"}}
	}
	return nil
}

//XYZFileRead reads all the frames from a (possibly gzip or zstd compressed) xyz file.
//It returns the element symbols of the first frame and one matrix per frame.
func XYZFileRead(path string) ([]string, []*v3.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &CError{msg: err.Error(), deco: []string{"XYZFileRead"}}
	}
	defer f.Close()
	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, &CError{msg: err.Error(), deco: []string{"XYZFileRead"}}
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, &CError{msg: err.Error(), deco: []string{"XYZFileRead"}}
		}
		defer zr.Close()
		r = zr
	}
	s := bufio.NewScanner(r)
	var symbols []string
	frames := make([]*v3.Matrix, 0)
	for s.Scan() {
		head := strings.TrimSpace(s.Text())
		if head == "" {
			continue
		}
		n, err := strconv.Atoi(head)
		if err != nil {
			return nil, nil, &CError{msg: "Malformed xyz header: " + head, deco: []string{"XYZFileRead"}}
		}
		s.Scan() //comment
		frame := v3.Zeros(n)
		syms := make([]string, n)
		for i := 0; i < n; i++ {
			if !s.Scan() {
				return nil, nil, &CError{msg: "Truncated xyz frame", deco: []string{"XYZFileRead"}}
			}
			fl := strings.Fields(s.Text())
			if len(fl) < 4 {
				return nil, nil, &CError{msg: "Malformed xyz line: " + s.Text(), deco: []string{"XYZFileRead"}}
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				xyz[k], err = strconv.ParseFloat(fl[k+1], 64)
				if err != nil {
					return nil, nil, &CError{msg: "Malformed xyz line: " + s.Text(), deco: []string{"XYZFileRead"}}
				}
			}
			syms[i] = fl[0]
			frame.SetVec(i, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		}
		if symbols == nil {
			symbols = syms
		}
		frames = append(frames, frame)
	}
	if err := s.Err(); err != nil {
		return nil, nil, &CError{msg: err.Error(), deco: []string{"XYZFileRead"}}
	}
	return symbols, frames, nil
}
