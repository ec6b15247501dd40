/*
 * isomorph.go, part of gostk.
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
	"sort"
	"strconv"
	"strings"
)

//Query is a pattern of atoms and bonds that can be searched for in a Molecule.
type Query interface {
	Len() int
	Neighbors(i int) []int
	//AtomMatches returns whether the query atom i can be mapped to the atom j of target.
	AtomMatches(i int, target *Molecule, j int) bool
	//BondMatches returns whether the query bond between i and k can be mapped to the bond b of target.
	BondMatches(i, k int, target *Molecule, b *Bond) bool
}

//MolQuery uses a Molecule as a Query. Atoms match on element and charge,
//bonds on bond order.
type MolQuery struct {
	*Molecule
	Exact bool //also require equal atom degrees, as needed for isomorphism.
}

func (Q *MolQuery) AtomMatches(i int, target *Molecule, j int) bool {
	a := Q.Atoms[i]
	b := target.Atoms[j]
	if a.Symbol != b.Symbol || a.Charge != b.Charge {
		return false
	}
	if Q.Exact && Q.Degree(i) != target.Degree(j) {
		return false
	}
	return true
}

func (Q *MolQuery) BondMatches(i, k int, target *Molecule, b *Bond) bool {
	qb := Q.BondBetween(i, k)
	return qb != nil && qb.Order == b.Order
}

//matcher is the state of a backtracking search.
type matcher struct {
	q       Query
	t       *Molecule
	order   []int //query atoms in search order
	parent  []int //for each query atom, an earlier neighbor in order, or -1
	mapping []int //query to target
	used    []bool
	unique  bool
	max     int
	seen    map[string]bool
	matches [][]int
}

//SubstructMatches returns all the mappings of the query atoms into atoms of the target.
//Each mapping is a slice where the ith element is the target atom of the query atom i.
//If unique is true, only one mapping per set of target atoms is returned.
//At most max matches are returned, if max is larger than 0.
func SubstructMatches(q Query, target *Molecule, unique bool, max int) [][]int {
	n := q.Len()
	if n == 0 || n > target.Len() {
		return nil
	}
	m := &matcher{q: q, t: target, unique: unique, max: max}
	m.order, m.parent = searchOrder(q)
	m.mapping = make([]int, n)
	for i := range m.mapping {
		m.mapping[i] = -1
	}
	m.used = make([]bool, target.Len())
	m.seen = make(map[string]bool)
	m.extend(0)
	return m.matches
}

//searchOrder is a breadth-first ordering of the query atoms, so that every atom but the first
//of each connected component has an already-placed neighbor.
func searchOrder(q Query) ([]int, []int) {
	n := q.Len()
	order := make([]int, 0, n)
	parent := make([]int, n)
	visited := make([]bool, n)
	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		visited[root] = true
		parent[root] = -1
		queue := []int{root}
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			order = append(order, c)
			for _, nb := range q.Neighbors(c) {
				if !visited[nb] {
					visited[nb] = true
					parent[nb] = c
					queue = append(queue, nb)
				}
			}
		}
	}
	return order, parent
}

func (m *matcher) done() bool {
	return m.max > 0 && len(m.matches) >= m.max
}

func (m *matcher) extend(k int) {
	if m.done() {
		return
	}
	if k == len(m.order) {
		m.record()
		return
	}
	qi := m.order[k]
	var cands []int
	if p := m.parent[qi]; p >= 0 {
		cands = m.t.Neighbors(m.mapping[p])
	} else {
		cands = make([]int, m.t.Len())
		for i := range cands {
			cands[i] = i
		}
	}
	for _, tj := range cands {
		if m.used[tj] || !m.q.AtomMatches(qi, m.t, tj) {
			continue
		}
		if !m.bondsConsistent(qi, tj) {
			continue
		}
		m.mapping[qi] = tj
		m.used[tj] = true
		m.extend(k + 1)
		m.used[tj] = false
		m.mapping[qi] = -1
		if m.done() {
			return
		}
	}
}

//bondsConsistent checks that every query bond from qi to an already mapped atom
//exists in the target, and matches.
func (m *matcher) bondsConsistent(qi, tj int) bool {
	for _, qn := range m.q.Neighbors(qi) {
		tn := m.mapping[qn]
		if tn < 0 {
			continue
		}
		b := m.t.BondBetween(tj, tn)
		if b == nil || !m.q.BondMatches(qi, qn, m.t, b) {
			return false
		}
	}
	return true
}

func (m *matcher) record() {
	match := make([]int, len(m.mapping))
	copy(match, m.mapping)
	if m.unique {
		key := setKey(match)
		if m.seen[key] {
			return
		}
		m.seen[key] = true
	}
	m.matches = append(m.matches, match)
}

func setKey(match []int) string {
	s := make([]int, len(match))
	copy(s, match)
	sort.Ints(s)
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

//HasSubstruct returns true if the query matches the target at least once.
func HasSubstruct(q Query, target *Molecule) bool {
	return len(SubstructMatches(q, target, false, 1)) > 0
}

//Isomorphic returns true if the molecular graphs of a and b are isomorphic,
//considering elements, charges and bond orders, but not coordinates or atom order.
func Isomorphic(a, b *Molecule) bool {
	if a.Len() != b.Len() || len(a.Bonds) != len(b.Bonds) {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	if CanonicalHash(a, nil) != CanonicalHash(b, nil) {
		return false
	}
	//With equal atom and bond counts, an injective map that preserves every bond of a
	//is a bijection on the bonds too.
	return HasSubstruct(&MolQuery{Molecule: a, Exact: true}, b)
}
