/*
 * hash.go, part of gostk.
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
	"encoding/binary"
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

//CanonicalHash returns a hash of the molecular graph that doesn't depend on
//the atom ordering (Weisfeiler-Lehman refinement). label gives the initial
//label of each atom; if nil, element and formal charge are used.
//Isomorphic graphs always get the same hash; the converse is true with very high probability.
func CanonicalHash(mol *Molecule, label func(i int) string) uint64 {
	n := mol.Len()
	if label == nil {
		label = func(i int) string {
			a := mol.Atoms[i]
			return a.Symbol + strconv.Itoa(a.Charge)
		}
	}
	labels := make([]uint64, n)
	for i := range labels {
		labels[i] = xxhash.Sum64String(label(i))
	}
	classes := countClasses(labels)
	next := make([]uint64, n)
	buf := make([]byte, 8)
	for round := 0; round < n; round++ {
		for i := 0; i < n; i++ {
			nb := make([]uint64, 0, mol.Degree(i))
			for _, b := range mol.AtomBonds(i) {
				j := b.Cross(i)
				nb = append(nb, labels[j]^math.Float64bits(b.Order)*0x9E3779B97F4A7C15)
			}
			sort.Slice(nb, func(x, y int) bool { return nb[x] < nb[y] })
			d := xxhash.New()
			binary.LittleEndian.PutUint64(buf, labels[i])
			d.Write(buf)
			for _, v := range nb {
				binary.LittleEndian.PutUint64(buf, v)
				d.Write(buf)
			}
			next[i] = d.Sum64()
		}
		labels, next = next, labels
		c := countClasses(labels)
		if c == classes {
			break
		}
		classes = c
	}
	sorted := make([]uint64, n)
	copy(sorted, labels)
	sort.Slice(sorted, func(x, y int) bool { return sorted[x] < sorted[y] })
	d := xxhash.New()
	binary.LittleEndian.PutUint64(buf, uint64(n))
	d.Write(buf)
	binary.LittleEndian.PutUint64(buf, uint64(len(mol.Bonds)))
	d.Write(buf)
	for _, v := range sorted {
		binary.LittleEndian.PutUint64(buf, v)
		d.Write(buf)
	}
	return d.Sum64()
}

func countClasses(labels []uint64) int {
	set := make(map[uint64]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return len(set)
}
