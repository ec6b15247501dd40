/*
 * smiles.go, part of gostk.
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

//Package smiles reads the subset of the SMILES line notation needed to
//describe building blocks: the organic subset, bracket atoms with charges and
//hydrogen counts, aromatic atoms, branches, ring closures and disconnected parts.
//Stereochemistry marks are accepted and ignored. All hydrogens are made explicit.
package smiles

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	chem "github.com/rmera/gostk"
)

//Error is returned for malformed SMILES strings.
type Error struct {
	smiles string
	pos    int
	msg    string
	deco   []string
}

func (err *Error) Error() string {
	return fmt.Sprintf("SMILES %q, position %d: %s", err.smiles, err.pos, err.msg)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

var organic = map[string]bool{"B": true, "C": true, "N": true, "O": true, "P": true, "S": true, "F": true, "Cl": true, "Br": true, "I": true}
var aromaticOrganic = map[string]bool{"b": true, "c": true, "n": true, "o": true, "p": true, "s": true}

type ringBond struct {
	atom  int
	order float64 //0 if not given
}

type parser struct {
	s        string
	pos      int
	mol      *chem.Molecule
	hcount   map[int]int //explicit (bracket) hydrogen counts
	prev     int
	order    float64 //pending bond order, 0 for none
	branches []int
	rings    map[int]ringBond
}

func (p *parser) errorf(format string, a ...interface{}) *Error {
	return &Error{smiles: p.s, pos: p.pos, msg: fmt.Sprintf(format, a...), deco: []string{"Parse"}}
}

//Parse returns the molecule described by the SMILES string s, with explicit hydrogens and without coordinates.
func Parse(s string) (*chem.Molecule, error) {
	mol, err := chem.NewMolecule(nil, nil)
	if err != nil {
		return nil, err
	}
	p := &parser{s: s, mol: mol, prev: -1, hcount: make(map[int]int), rings: make(map[int]ringBond)}
	for p.pos < len(s) {
		c := rune(s[p.pos])
		switch {
		case c == '(':
			if p.prev < 0 {
				return nil, p.errorf("branch without a preceding atom")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return nil, p.errorf("unbalanced parenthesis")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '-' || c == '=' || c == '#' || c == ':' || c == '$':
			p.order = map[rune]float64{'-': 1, '=': 2, '#': 3, ':': 1.5, '$': 4}[c]
			p.pos++
		case c == '/' || c == '\\':
			p.order = 1
			p.pos++
		case c == '.':
			p.prev = -1
			p.order = 0
			p.pos++
		case c == '%' || unicode.IsDigit(c):
			if err := p.ring(); err != nil {
				return nil, err
			}
		case c == '[':
			if err := p.bracket(); err != nil {
				return nil, err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return nil, err
			}
		}
	}
	if len(p.branches) > 0 {
		return nil, p.errorf("unclosed branch")
	}
	if len(p.rings) > 0 {
		return nil, p.errorf("unclosed ring")
	}
	if p.mol.Len() == 0 {
		return nil, p.errorf("no atoms")
	}
	p.addHydrogens()
	if err := chem.Sanitize(p.mol); err != nil {
		return nil, &Error{smiles: s, pos: len(s), msg: err.Error(), deco: []string{"Parse"}}
	}
	return p.mol, nil
}

func (p *parser) bondOrder(a, b int) float64 {
	if p.order != 0 {
		return p.order
	}
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return 1.5
	}
	return 1
}

func (p *parser) addAtom(at *chem.Atom) error {
	i := p.mol.AddAtom(at)
	if p.prev >= 0 {
		if _, err := p.mol.AddBond(p.prev, i, p.bondOrder(p.prev, i)); err != nil {
			return p.errorf("%s", err.Error())
		}
	}
	p.prev = i
	p.order = 0
	return nil
}

func (p *parser) organicAtom() error {
	rest := p.s[p.pos:]
	for _, two := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, two) {
			p.pos += 2
			return p.addAtom(&chem.Atom{Symbol: two})
		}
	}
	one := rest[:1]
	if organic[one] {
		p.pos++
		p.hcount[p.mol.Len()] = -1
		return p.addAtom(&chem.Atom{Symbol: one})
	}
	if aromaticOrganic[one] {
		p.pos++
		p.hcount[p.mol.Len()] = -1
		return p.addAtom(&chem.Atom{Symbol: strings.ToUpper(one), Aromatic: true})
	}
	return p.errorf("unexpected character %q", one)
}

//bracket reads atoms such as [NH4+], [nH], [13CH3-], [Si] or [C@@H].
func (p *parser) bracket() error {
	end := strings.IndexByte(p.s[p.pos:], ']')
	if end < 0 {
		return p.errorf("unclosed bracket atom")
	}
	body := p.s[p.pos+1 : p.pos+end]
	p.pos += end + 1
	i := 0
	for i < len(body) && unicode.IsDigit(rune(body[i])) {
		i++ //isotope, ignored
	}
	if i >= len(body) {
		return p.errorf("bracket atom without element")
	}
	at := &chem.Atom{}
	switch {
	case unicode.IsLower(rune(body[i])):
		sym := body[i : i+1]
		if i+2 <= len(body) && (body[i:i+2] == "se" || body[i:i+2] == "as") {
			sym = body[i : i+2]
		}
		at.Symbol = strings.ToUpper(sym[:1]) + sym[1:]
		at.Aromatic = true
		i += len(sym)
	default:
		sym := body[i : i+1]
		if i+1 < len(body) && unicode.IsLower(rune(body[i+1])) && chem.KnownElement(body[i:i+2]) {
			sym = body[i : i+2]
		}
		at.Symbol = sym
		i += len(sym)
	}
	for i < len(body) && body[i] == '@' {
		i++ //chirality, ignored
	}
	h := 0
	if i < len(body) && body[i] == 'H' {
		i++
		h = 1
		j := i
		for j < len(body) && unicode.IsDigit(rune(body[j])) {
			j++
		}
		if j > i {
			h, _ = strconv.Atoi(body[i:j])
		}
		i = j
	}
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		c := body[i]
		i++
		n := 1
		j := i
		for j < len(body) && unicode.IsDigit(rune(body[j])) {
			j++
		}
		if j > i {
			n, _ = strconv.Atoi(body[i:j])
		} else {
			for j < len(body) && body[j] == c {
				j++
				n++
			}
		}
		i = j
		at.Charge = sign * n
	}
	if i != len(body) {
		return p.errorf("can't parse bracket atom [%s]", body)
	}
	p.hcount[p.mol.Len()] = h
	return p.addAtom(at)
}

func (p *parser) ring() error {
	if p.prev < 0 {
		return p.errorf("ring closure without a preceding atom")
	}
	var num int
	if p.s[p.pos] == '%' {
		if p.pos+3 > len(p.s) {
			return p.errorf("malformed ring closure")
		}
		n, err := strconv.Atoi(p.s[p.pos+1 : p.pos+3])
		if err != nil {
			return p.errorf("malformed ring closure")
		}
		num = n
		p.pos += 3
	} else {
		num = int(p.s[p.pos] - '0')
		p.pos++
	}
	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringBond{atom: p.prev, order: p.order}
		p.order = 0
		return nil
	}
	delete(p.rings, num)
	order := p.order
	if order == 0 {
		order = open.order
	}
	if order == 0 {
		order = p.bondOrder(open.atom, p.prev)
	}
	if _, err := p.mol.AddBond(open.atom, p.prev, order); err != nil {
		return p.errorf("%s", err.Error())
	}
	p.order = 0
	return nil
}

//addHydrogens makes the hydrogens explicit. Organic subset atoms get their implicit
//hydrogens, bracket atoms exactly the ones written.
func (p *parser) addHydrogens() {
	n := p.mol.Len()
	for i := 0; i < n; i++ {
		h, ok := p.hcount[i]
		if !ok {
			h = -1
		}
		if h < 0 {
			h = chem.ImplicitHydrogens(p.mol, i)
		}
		for k := 0; k < h; k++ {
			j := p.mol.AddAtom(&chem.Atom{Symbol: "H"})
			p.mol.AddBond(i, j, 1)
		}
	}
}
