/*
 * forcefield_test.go, part of gostk.
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

package forcefield

import (
	"math"
	"testing"

	chem "github.com/rmera/gostk"
	v3 "github.com/rmera/gostk/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func butanol(Te *testing.T) *chem.Molecule {
	atoms := []*chem.Atom{{Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"}, {Symbol: "O"}}
	bonds := []*chem.Bond{{At1: 0, At2: 1, Order: 1}, {At1: 1, At2: 2, Order: 1}, {At1: 2, At2: 3, Order: 1}, {At1: 1, At2: 4, Order: 1}}
	c, err := v3.NewMatrix([]float64{
		0.1, -0.2, 0.05,
		1.4, 0.3, -0.1,
		2.1, 1.6, 0.2,
		3.5, 1.7, 0.9,
		1.2, -0.4, 1.1,
	})
	require.NoError(Te, err)
	mol, err := chem.NewMolecule(atoms, bonds, c)
	require.NoError(Te, err)
	return mol
}

func flat(mol *chem.Molecule) []float64 {
	x := make([]float64, 0, 3*mol.Len())
	for i := 0; i < mol.Len(); i++ {
		v := mol.Coord(i, 0)
		x = append(x, v.X, v.Y, v.Z)
	}
	return x
}

func TestGradient(Te *testing.T) {
	mol := butanol(Te)
	O := DefaultOptions()
	O.Restraints = []Restraint{
		{Atoms: []int{0, 3}, Value: 3},
		{Atoms: []int{0, 1, 2}, Value: 100 * chem.Deg2Rad},
		{Atoms: []int{0, 1, 2, 3}, Value: 60 * chem.Deg2Rad, K: 50},
		{Atoms: []int{4, 1, 2, 3}, Value: -30 * chem.Deg2Rad, K: 50},
	}
	F := New(mol, O)
	x := flat(mol)
	grad := make([]float64, len(x))
	F.Gradient(grad, x)
	const h = 1e-6
	for i := range x {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[i] += h
		xm[i] -= h
		num := (F.Energy(xp) - F.Energy(xm)) / (2 * h)
		assert.InDelta(Te, num, grad[i], 1e-3*math.Max(1, math.Abs(num)), "coordinate %d", i)
	}
}

func TestMinimize(Te *testing.T) {
	c, err := v3.NewMatrix([]float64{0, 0, 0, 2.2, 0, 0})
	require.NoError(Te, err)
	mol, err := chem.NewMolecule([]*chem.Atom{{Symbol: "C"}, {Symbol: "C"}}, []*chem.Bond{{At1: 0, At2: 1, Order: 1}}, c)
	require.NoError(Te, err)
	res, err := Minimize(mol, 0, nil)
	require.NoError(Te, err)
	assert.Less(Te, res.Energy, res.InitialEnergy)
	d := r3.Norm(r3.Sub(mol.Coord(0, 0), mol.Coord(1, 0)))
	assert.InDelta(Te, IdealBondLength("C", "C", 1), d, 1e-2)

	_, err = Minimize(mol, 3, nil)
	assert.Error(Te, err)
}

func TestRestrainedMinimize(Te *testing.T) {
	mol := butanol(Te)
	O := &Options{Restraints: []Restraint{{Atoms: []int{0, 3}, Value: 2.8}}}
	_, err := Minimize(mol, 0, O)
	require.NoError(Te, err)
	d := r3.Norm(r3.Sub(mol.Coord(0, 0), mol.Coord(3, 0)))
	assert.InDelta(Te, 2.8, d, 0.15)
}

func TestIdeal(Te *testing.T) {
	assert.Less(Te, IdealBondLength("C", "C", 3), IdealBondLength("C", "C", 2))
	assert.Less(Te, IdealBondLength("C", "C", 2), IdealBondLength("C", "C", 1.5))
	mol := butanol(Te)
	assert.InDelta(Te, 120, IdealAngle(mol, 1)*chem.Rad2Deg, 1e-6)
	assert.InDelta(Te, 109.47, IdealAngle(mol, 2)*chem.Rad2Deg, 1e-6)
}
