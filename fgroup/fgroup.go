/*
 * fgroup.go, part of gostk.
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

//Package fgroup defines the functional groups that building blocks react through.
//A functional group has a SMARTS pattern, the pattern atoms that form the new bond
//(bonders) and the pattern atoms that leave when it forms (deleters).
//Groups are collected in an immutable Registry, which also knows the order of the
//bond formed between any two groups.
package fgroup

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	chem "github.com/rmera/gostk"
)

//FunctionalGroup is a named reactive substructure. Bonders and Deleters are
//indexes of pattern atoms.
type FunctionalGroup struct {
	Name     string
	Pattern  *Pattern
	Bonders  []int
	Deleters []int
}

//New compiles smarts and returns the functional group. It fails if the pattern
//can't be compiled, if a bonder or deleter index doesn't exist in the pattern,
//if there are no bonders, or if an atom is both bonder and deleter.
func New(name, smarts string, bonders, deleters []int) (*FunctionalGroup, error) {
	p, err := Compile(smarts)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	if len(bonders) == 0 {
		return nil, &PatternError{Pattern: smarts, msg: fmt.Sprintf("Functional group %s has no bonder atoms", name), deco: []string{"New"}}
	}
	role := make(map[int]bool)
	for _, set := range [][]int{bonders, deleters} {
		for _, i := range set {
			if i < 0 || i >= p.Len() {
				return nil, &PatternError{Pattern: smarts, Pos: -1, msg: fmt.Sprintf("Functional group %s: atom %d not in pattern", name, i), deco: []string{"New"}}
			}
			if role[i] {
				return nil, &PatternError{Pattern: smarts, Pos: -1, msg: fmt.Sprintf("Functional group %s: atom %d has two roles", name, i), deco: []string{"New"}}
			}
			role[i] = true
		}
	}
	return &FunctionalGroup{Name: name, Pattern: p, Bonders: append([]int(nil), bonders...), Deleters: append([]int(nil), deleters...)}, nil
}

//MustNew is like New but panics on error. For tables of known groups.
func MustNew(name, smarts string, bonders, deleters []int) *FunctionalGroup {
	f, err := New(name, smarts, bonders, deleters)
	if err != nil {
		panic(err.Error())
	}
	return f
}

//Matches returns the distinct matches of the group in mol. Each match gives, for
//every pattern atom, the matched atom of mol. Matches covering the same set of atoms
//are reported once, and matches are sorted by their smallest bonder atom.
func (F *FunctionalGroup) Matches(mol *chem.Molecule) [][]int {
	m := chem.SubstructMatches(F.Pattern, mol, true, 0)
	first := func(match []int) int {
		min := mol.Len()
		for _, b := range F.Bonders {
			if match[b] < min {
				min = match[b]
			}
		}
		return min
	}
	sort.SliceStable(m, func(i, j int) bool { return first(m[i]) < first(m[j]) })
	return m
}

//Registry is a read-only table of functional groups and of the bond orders formed
//between them. It is safe for concurrent use.
type Registry struct {
	groups map[string]*FunctionalGroup
	orders map[[2]string]float64
}

func pair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

//NewRegistry returns a registry with the given groups. orders gives the bond order
//for specific pairs of group names; every other pair forms single bonds.
func NewRegistry(groups []*FunctionalGroup, orders map[[2]string]float64) (*Registry, error) {
	R := &Registry{groups: make(map[string]*FunctionalGroup, len(groups)), orders: make(map[[2]string]float64, len(orders))}
	for _, g := range groups {
		if _, ok := R.groups[g.Name]; ok {
			return nil, &UnknownGroupError{Name: g.Name, msg: fmt.Sprintf("Functional group %s defined twice", g.Name), deco: []string{"NewRegistry"}}
		}
		R.groups[g.Name] = g
	}
	for k, v := range orders {
		for _, n := range k {
			if _, ok := R.groups[n]; !ok {
				return nil, &UnknownGroupError{Name: n, deco: []string{"NewRegistry"}}
			}
		}
		R.orders[pair(k[0], k[1])] = v
	}
	return R, nil
}

//Get returns the functional group called name.
func (R *Registry) Get(name string) (*FunctionalGroup, error) {
	g, ok := R.groups[name]
	if !ok {
		return nil, &UnknownGroupError{Name: name, deco: []string{"Get"}}
	}
	return g, nil
}

//Names returns the sorted names of the groups in the registry.
func (R *Registry) Names() []string {
	ret := make([]string, 0, len(R.groups))
	for n := range R.groups {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

//BondOrder returns the order of the bond formed between groups a and b.
func (R *Registry) BondOrder(a, b string) float64 {
	if o, ok := R.orders[pair(a, b)]; ok {
		return o
	}
	return 1
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

//Default returns the registry with the groups known to gostk:
//amine, aldehyde, carboxylic_acid, bromine, iodine, thiol and terminal_alkyne.
//Amines and aldehydes condense to imines (double bonds), every other pair forms single bonds.
func Default() *Registry {
	defaultOnce.Do(func() {
		groups := []*FunctionalGroup{
			MustNew("amine", "[N]([H])[H]", []int{0}, []int{1, 2}),
			MustNew("aldehyde", "[C](=[O])[H]", []int{0}, []int{1}),
			MustNew("carboxylic_acid", "[C](=[O])[O][H]", []int{0}, []int{2, 3}),
			MustNew("bromine", "[*][Br]", []int{0}, []int{1}),
			MustNew("iodine", "[*][I]", []int{0}, []int{1}),
			MustNew("thiol", "[S][H]", []int{0}, []int{1}),
			MustNew("terminal_alkyne", "[C]#[C][H]", []int{1}, []int{2}),
		}
		var err error
		defaultReg, err = NewRegistry(groups, map[[2]string]float64{{"amine", "aldehyde"}: 2})
		if err != nil {
			panic(err.Error())
		}
	})
	return defaultReg
}

//UnknownGroupError is returned when a functional group name is not in a registry.
type UnknownGroupError struct {
	Name string
	msg  string
	deco []string
}

func (err *UnknownGroupError) Error() string {
	if err.msg != "" {
		return err.msg
	}
	return fmt.Sprintf("Unknown functional group %q", err.Name)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *UnknownGroupError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//PatternError is returned for SMARTS patterns that can't be compiled.
type PatternError struct {
	Pattern string
	Pos     int
	msg     string
	deco    []string
}

func (err *PatternError) Error() string {
	return fmt.Sprintf("SMARTS %q, position %d: %s", err.Pattern, err.Pos, err.msg)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *PatternError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
	}
	return err
}

//String returns the name and pattern of the group.
func (F *FunctionalGroup) String() string {
	return F.Name + " " + strings.TrimSpace(F.Pattern.String())
}
