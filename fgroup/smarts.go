/*
 * smarts.go, part of gostk.
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

package fgroup

import (
	"fmt"
	"strconv"
	"strings"

	chem "github.com/rmera/gostk"
)

//atomPrimitive is one alternative of a SMARTS atom expression.
type atomPrimitive struct {
	any      bool
	symbol   string
	aromatic int //-1 either, 0 aliphatic, 1 aromatic
}

func (p atomPrimitive) matches(a *chem.Atom) bool {
	if p.any {
		return true
	}
	if p.symbol != a.Symbol {
		return false
	}
	switch p.aromatic {
	case 0:
		return !a.Aromatic
	case 1:
		return a.Aromatic
	}
	return true
}

type patternAtom struct {
	alts []atomPrimitive
}

func (p *patternAtom) matches(a *chem.Atom) bool {
	for _, alt := range p.alts {
		if alt.matches(a) {
			return true
		}
	}
	return false
}

//bond order 0 means "single or aromatic", -1 means any.
type patternBond struct {
	i, j  int
	order float64
}

func (b patternBond) matches(o float64) bool {
	switch b.order {
	case -1:
		return true
	case 0:
		return o == 1 || o == 1.5
	}
	return o == b.order
}

//Pattern is a compiled SMARTS pattern. It implements chem.Query.
//Only a SMARTS subset is understood: bracket atoms with element symbols
//(aromatic in lowercase), atomic numbers (#n), the wildcard * and comma-separated
//alternatives; bare element symbols; the bonds - = # : ~; branches and ring closures.
type Pattern struct {
	smarts string
	atoms  []*patternAtom
	bonds  []patternBond
	adj    [][]int
}

func (P *Pattern) String() string { return P.smarts }

//Len returns the number of atoms in the pattern.
func (P *Pattern) Len() int { return len(P.atoms) }

//Neighbors returns the pattern atoms bonded to i.
func (P *Pattern) Neighbors(i int) []int { return P.adj[i] }

//AtomMatches returns whether the pattern atom i matches the atom j of target.
func (P *Pattern) AtomMatches(i int, target *chem.Molecule, j int) bool {
	return P.atoms[i].matches(target.Atoms[j])
}

//BondMatches returns whether the pattern bond between i and k matches b.
func (P *Pattern) BondMatches(i, k int, target *chem.Molecule, b *chem.Bond) bool {
	for _, pb := range P.bonds {
		if (pb.i == i && pb.j == k) || (pb.i == k && pb.j == i) {
			return pb.matches(b.Order)
		}
	}
	return false
}

var bySymbolNumber = map[int]string{1: "H", 5: "B", 6: "C", 7: "N", 8: "O", 9: "F", 14: "Si", 15: "P", 16: "S", 17: "Cl", 34: "Se", 35: "Br", 53: "I"}

func parsePrimitive(s string) (atomPrimitive, error) {
	switch {
	case s == "*":
		return atomPrimitive{any: true}, nil
	case strings.HasPrefix(s, "#"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return atomPrimitive{}, fmt.Errorf("bad atomic number in %q", s)
		}
		sym, ok := bySymbolNumber[n]
		if !ok {
			return atomPrimitive{}, fmt.Errorf("unsupported atomic number %d", n)
		}
		return atomPrimitive{symbol: sym, aromatic: -1}, nil
	case s != "" && s[0] >= 'a' && s[0] <= 'z':
		sym := strings.ToUpper(s[:1]) + s[1:]
		if !chem.KnownElement(sym) {
			return atomPrimitive{}, fmt.Errorf("unknown element %q", s)
		}
		return atomPrimitive{symbol: sym, aromatic: 1}, nil
	}
	if !chem.KnownElement(s) {
		return atomPrimitive{}, fmt.Errorf("unknown element %q", s)
	}
	return atomPrimitive{symbol: s, aromatic: 0}, nil
}

//Compile parses a SMARTS pattern.
func Compile(smarts string) (*Pattern, error) {
	P := &Pattern{smarts: smarts}
	prev := -1
	order := 0.0
	var branches []int
	rings := make(map[int]int)
	fail := func(pos int, format string, a ...interface{}) error {
		return &PatternError{Pattern: smarts, Pos: pos, msg: fmt.Sprintf(format, a...), deco: []string{"Compile"}}
	}
	addAtom := func(at *patternAtom) {
		P.atoms = append(P.atoms, at)
		P.adj = append(P.adj, nil)
		i := len(P.atoms) - 1
		if prev >= 0 {
			P.bond(prev, i, order)
		}
		prev = i
		order = 0
	}
	for pos := 0; pos < len(smarts); {
		c := smarts[pos]
		switch {
		case c == '(':
			if prev < 0 {
				return nil, fail(pos, "branch without a preceding atom")
			}
			branches = append(branches, prev)
			pos++
		case c == ')':
			if len(branches) == 0 {
				return nil, fail(pos, "unbalanced parenthesis")
			}
			prev = branches[len(branches)-1]
			branches = branches[:len(branches)-1]
			pos++
		case strings.IndexByte("-=#:~", c) >= 0:
			order = map[byte]float64{'-': 1, '=': 2, '#': 3, ':': 1.5, '~': -1}[c]
			pos++
		case c >= '0' && c <= '9':
			if prev < 0 {
				return nil, fail(pos, "ring closure without a preceding atom")
			}
			n := int(c - '0')
			if open, ok := rings[n]; ok {
				P.bond(open, prev, order)
				delete(rings, n)
				order = 0
			} else {
				rings[n] = prev
			}
			pos++
		case c == '[':
			end := strings.IndexByte(smarts[pos:], ']')
			if end < 0 {
				return nil, fail(pos, "unclosed bracket")
			}
			at := &patternAtom{}
			for _, alt := range strings.Split(smarts[pos+1:pos+end], ",") {
				p, err := parsePrimitive(alt)
				if err != nil {
					return nil, fail(pos, "%s", err.Error())
				}
				at.alts = append(at.alts, p)
			}
			addAtom(at)
			pos += end + 1
		case c == '*':
			addAtom(&patternAtom{alts: []atomPrimitive{{any: true}}})
			pos++
		default:
			l := 1
			if pos+1 < len(smarts) && smarts[pos+1] >= 'a' && smarts[pos+1] <= 'z' && chem.KnownElement(smarts[pos:pos+2]) {
				l = 2
			}
			p, err := parsePrimitive(smarts[pos : pos+l])
			if err != nil {
				return nil, fail(pos, "%s", err.Error())
			}
			addAtom(&patternAtom{alts: []atomPrimitive{p}})
			pos += l
		}
	}
	if len(branches) > 0 {
		return nil, fail(len(smarts), "unclosed branch")
	}
	if len(rings) > 0 {
		return nil, fail(len(smarts), "unclosed ring")
	}
	if len(P.atoms) == 0 {
		return nil, fail(0, "empty pattern")
	}
	return P, nil
}

func (P *Pattern) bond(i, j int, order float64) {
	P.bonds = append(P.bonds, patternBond{i: i, j: j, order: order})
	P.adj[i] = append(P.adj[i], j)
	P.adj[j] = append(P.adj[j], i)
}
