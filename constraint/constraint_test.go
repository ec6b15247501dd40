/*
 * constraint_test.go, part of gostk.
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

package constraint

import (
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/topology"
	v3 "github.com/rmera/gostk/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

//pentane returns the carbon chain A-B-C-D-E, in a zig-zag.
func pentane(Te *testing.T) *chem.Molecule {
	atoms := make([]*chem.Atom, 5)
	for i := range atoms {
		atoms[i] = &chem.Atom{Symbol: "C"}
	}
	bonds := []*chem.Bond{{At1: 0, At2: 1, Order: 1}, {At1: 1, At2: 2, Order: 1}, {At1: 2, At2: 3, Order: 1}, {At1: 3, At2: 4, Order: 1}}
	c, err := v3.NewMatrix([]float64{
		0, 0, 0,
		1.25, 0.9, 0,
		2.5, 0, 0,
		3.75, 0.9, 0.3,
		5.0, 0, 0,
	})
	require.NoError(Te, err)
	mol, err := chem.NewMolecule(atoms, bonds, c)
	require.NoError(Te, err)
	return mol
}

func find(set []Coordinate, atoms ...int) bool {
	for _, c := range set {
		if len(c.Atoms) != len(atoms) {
			continue
		}
		fw, bw := true, true
		for i := range atoms {
			fw = fw && c.Atoms[i] == atoms[i]
			bw = bw && c.Atoms[len(atoms)-1-i] == atoms[i]
		}
		if fw || bw {
			return true
		}
	}
	return false
}

func TestPartition(Te *testing.T) {
	mol := pentane(Te)
	S, err := Partition(mol, [][2]int{{3, 4}}, 0)
	require.NoError(Te, err)
	assert.Len(Te, S.Fixed, 3+2+1)
	assert.Len(Te, S.Free, 1+1+1)
	assert.Equal(Te, 3, S.Count(Distance))
	assert.Equal(Te, 2, S.Count(Angle))
	assert.Equal(Te, 1, S.Count(Torsion))
	assert.True(Te, find(S.Free, 3, 4))
	assert.True(Te, find(S.Free, 2, 3, 4))
	assert.True(Te, find(S.Free, 1, 2, 3, 4))
	//next to the new bond, but without both of its atoms: fixed
	assert.True(Te, find(S.Fixed, 1, 2, 3))
	assert.True(Te, find(S.Fixed, 0, 1, 2, 3))
	assert.False(Te, find(S.Free, 1, 2, 3))

	for _, c := range S.Fixed {
		switch c.Kind {
		case Distance:
			assert.InDelta(Te, 1.54, c.Value, 0.06)
		case Angle:
			assert.Greater(Te, c.Value, 90.0)
			assert.Less(Te, c.Value, 180.0)
		}
	}

	none, err := Partition(mol, nil, 0)
	require.NoError(Te, err)
	assert.Empty(Te, none.Free)
	assert.Len(Te, none.Fixed, 4+3+2)

	_, err = Partition(mol, [][2]int{{0, 4}}, 0)
	assert.Error(Te, err)
	_, err = Partition(mol, nil, 1)
	assert.Error(Te, err)
}

func TestRing(Te *testing.T) {
	//each torsion of a ring appears once
	atoms := make([]*chem.Atom, 4)
	for i := range atoms {
		atoms[i] = &chem.Atom{Symbol: "C"}
	}
	bonds := []*chem.Bond{{At1: 0, At2: 1, Order: 1}, {At1: 1, At2: 2, Order: 1}, {At1: 2, At2: 3, Order: 1}, {At1: 3, At2: 0, Order: 1}}
	c, err := v3.NewMatrix([]float64{0, 0, 0, 1.5, 0, 0, 1.5, 1.5, 0.2, 0, 1.5, 0})
	require.NoError(Te, err)
	mol, err := chem.NewMolecule(atoms, bonds, c)
	require.NoError(Te, err)
	S, err := Partition(mol, nil, 0)
	require.NoError(Te, err)
	assert.Equal(Te, 4, S.Count(Distance))
	assert.Equal(Te, 4, S.Count(Angle))
	assert.Equal(Te, 4, S.Count(Torsion))
}

func TestExtract(Te *testing.T) {
	g, err := fgroup.Default().Get("bromine")
	require.NoError(Te, err)
	U, err := bblock.FromSMILES("BrCCCCBr", g, bblock.Ditopic, nil)
	require.NoError(Te, err)
	m, err := macromol.New([]*bblock.Unit{U}, &topology.Linear{N: 2}, macromol.Options{})
	require.NoError(Te, err)
	S, err := Extract(m, 0)
	require.NoError(Te, err)
	nb := m.NewBonds[0]
	assert.True(Te, find(S.Free, nb[0], nb[1]))
	for _, c := range S.Free {
		has := 0
		for _, a := range c.Atoms {
			if a == nb[0] || a == nb[1] {
				has++
			}
		}
		assert.Equal(Te, 2, has, c.String())
	}
	for _, c := range S.Fixed {
		assert.False(Te, c.Kind == Distance && find([]Coordinate{c}, nb[0], nb[1]))
	}
	assert.Equal(Te, len(m.Bonds)-1, S.Count(Distance))
}

func TestDrift(Te *testing.T) {
	mol := pentane(Te)
	S, err := Partition(mol, [][2]int{{3, 4}}, 0)
	require.NoError(Te, err)
	for _, k := range []Kind{Distance, Angle, Torsion} {
		d, err := S.Drift(mol, 0, k)
		require.NoError(Te, err)
		assert.Len(Te, d, S.Count(k))
		for _, v := range d {
			assert.InDelta(Te, 0, v, 1e-9)
		}
	}
	//stretch the 0-1 bond
	c0, c1 := mol.Coord(0, 0), mol.Coord(1, 0)
	mol.SetCoord(0, 0, r3.Sub(c0, r3.Scale(0.1, r3.Sub(c1, c0))))
	d, err := S.Drift(mol, 0, Distance)
	require.NoError(Te, err)
	moved := 0
	for _, v := range d {
		if v > 1e-6 {
			moved++
		}
	}
	assert.Equal(Te, 1, moved, "only the 0-1 bond changes")
	_, err = S.Drift(mol, 1, Distance)
	assert.Error(Te, err)

	tor := Coordinate{Kind: Torsion, Atoms: []int{0, 1, 2, 3}}
	tor.Value = tor.Measure(mol, 0) - 350
	wrap := &Set{Fixed: []Coordinate{tor}}
	d, err = wrap.Drift(mol, 0, Torsion)
	require.NoError(Te, err)
	require.Len(Te, d, 1)
	assert.InDelta(Te, -10, d[0], 1e-9)
}
