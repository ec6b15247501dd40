/*
 * hydrogens.go, part of gostk.
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
	"math"
)

//BondOrderSum returns the sum of the orders of the bonds of the ith atom.
func (M *Molecule) BondOrderSum(i int) float64 {
	var s float64
	for _, b := range M.AtomBonds(i) {
		s += b.Order
	}
	return s
}

//ImplicitHydrogens returns how many hydrogens the ith atom needs to reach
//its smallest allowed valence, given its current bonds.
func ImplicitHydrogens(M *Molecule, i int) int {
	a := M.Atoms[i]
	vals := Valences(a.Symbol, a.Charge)
	if vals == nil {
		return 0
	}
	sum := int(math.Ceil(M.BondOrderSum(i) - 1e-6))
	for _, v := range vals {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

//AddHydrogens adds explicit hydrogens, bonded to each atom that needs them
//according to ImplicitHydrogens. Only atoms that exist when the function is called
//get hydrogens. The new hydrogens get zero coordinates in every conformer.
func AddHydrogens(M *Molecule) int {
	n := M.Len()
	added := 0
	for i := 0; i < n; i++ {
		if M.Atoms[i].Symbol == "H" {
			continue
		}
		h := ImplicitHydrogens(M, i)
		for k := 0; k < h; k++ {
			j := M.AddAtom(&Atom{Symbol: "H"})
			M.AddBond(i, j, 1) //can't fail, j is new.
			added++
		}
	}
	return added
}

//Sanitize checks that every atom of known element has an allowed valence.
//Aromatic atoms are allowed one extra unit, since aromatic bonds are not kekulized.
func Sanitize(M *Molecule) error {
	if err := M.Corrupted(); err != nil {
		return errDecorate(err, "Sanitize")
	}
	for i, a := range M.Atoms {
		vals := Valences(a.Symbol, a.Charge)
		if vals == nil {
			continue
		}
		sum := M.BondOrderSum(i)
		max := float64(vals[len(vals)-1])
		if a.Aromatic {
			max++
		}
		if sum > max+1e-6 {
			return &CError{msg: fmt.Sprintf("Atom %d (%s, charge %d) has valence %.1f, maximum is %.0f", i, a.Symbol, a.Charge, sum, max), deco: []string{"Sanitize"}}
		}
	}
	return nil
}
