/*
 * topology_test.go, part of gostk.
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

package topology

import (
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func mkUnit(Te *testing.T, smiles, fg string, kind bblock.Kind) *bblock.Unit {
	g, err := fgroup.Default().Get(fg)
	require.NoError(Te, err)
	U, err := bblock.FromSMILES(smiles, g, kind, nil)
	require.NoError(Te, err, smiles)
	return U
}

func linker(Te *testing.T) *bblock.Unit { return mkUnit(Te, "BrCCBr", "bromine", bblock.Ditopic) }
func node3(Te *testing.T) *bblock.Unit {
	return mkUnit(Te, "Brc1cc(Br)cc(Br)c1", "bromine", bblock.Multitopic)
}
func node4(Te *testing.T) *bblock.Unit {
	return mkUnit(Te, "BrCC(CBr)(CBr)CBr", "bromine", bblock.Multitopic)
}

func TestGraphs(Te *testing.T) {
	l, n3, n4 := linker(Te), node3(Te), node4(Te)
	units := []*bblock.Unit{l, n3, n4}
	cases := []struct {
		top             Topology
		vertices, edges int
	}{
		{TwoPlusTwo{}, 4, 6},
		{FourPlusFour{}, 8, 12},
		{FourPlusSix{}, 10, 12},
		{EightPlusTwelve{}, 20, 24},
		{SixPlusTwelve{}, 18, 24},
		{TwoPlusThree{}, 5, 6},
		{TwoPlusFour{}, 6, 8},
		{&Honeycomb{Nx: 2, Ny: 2, Direct: true}, 8, 7},
		{&Honeycomb{Nx: 2, Ny: 2}, 15, 14},
		{&Square{Nx: 2, Ny: 2}, 8, 8},
		{&Square{Nx: 3, Ny: 3, Direct: true}, 9, 12},
		{&Linear{Repeat: "A", N: 4}, 4, 3},
	}
	for _, c := range cases {
		g, err := c.top.Graph(units)
		require.NoError(Te, err, c.top.Key())
		assert.Len(Te, g.Vertices, c.vertices, c.top.Key())
		assert.Len(Te, g.Edges, c.edges, c.top.Key())
		assert.NoError(Te, g.Validate(), c.top.Key())
	}
	sq, _ := (&Square{Nx: 3, Ny: 3, Direct: true}).Graph(units)
	assert.False(Te, sq.Vertices[4].Terminal, "the center of the patch is complete")
	assert.True(Te, sq.Vertices[0].Terminal)
}

func TestLinearPlacement(Te *testing.T) {
	a := linker(Te)
	b := mkUnit(Te, "BrCCCCBr", "bromine", bblock.Ditopic)
	units := []*bblock.Unit{a, b}
	before := a.Mol().Coords[0].Clone()
	for _, c := range []struct {
		orientation []float64
		near        [2]int //groups of vertex 0 and 1 facing each other
	}{
		{nil, [2]int{1, 0}},
		{[]float64{0, 1}, [2]int{1, 1}},
		{[]float64{0.7, 0.2}, [2]int{0, 0}},
	} {
		P, err := Place(&Linear{Repeat: "AB", Orientation: c.orientation}, units, PlaceOptions{})
		require.NoError(Te, err)
		require.Len(Te, P.Placements, 2)
		assert.Equal(Te, []int{0, 1}, P.Assignment)
		u0, u1 := P.Placements[0].Placed, P.Placements[1].Placed
		b0 := u0.Mol().Coord(u0.Group(c.near[0]).Bonders[0], 0)
		b1 := u1.Mol().Coord(u1.Group(c.near[1]).Bonders[0], 0)
		assert.InDelta(Te, BondGap, r3.Norm(r3.Sub(b0, b1)), 1e-6, "%v", c.orientation)
		for k, pl := range P.Placements {
			assert.InDelta(Te, 0, r3.Norm(r3.Sub(pl.Placed.BonderCentroid(0), P.Graph.Vertices[k].Position)), 1e-6)
		}
	}
	for i := 0; i < a.Len(); i++ {
		assert.Equal(Te, before.Vec(i), a.Mol().Coord(i, 0), "the shared building block is never moved")
	}
	_, err := Place(&Linear{Repeat: "ABC"}, units, PlaceOptions{})
	var ierr *IncompatibleTopologyError
	assert.ErrorAs(Te, err, &ierr)
	_, err = Place(&Linear{Repeat: "AB", Orientation: []float64{1}}, units, PlaceOptions{})
	assert.ErrorAs(Te, err, &ierr)
	_, err = Place(&Linear{Repeat: "AB"}, units, PlaceOptions{Conformers: []int{0, 3}})
	assert.ErrorAs(Te, err, &ierr)
}

func TestCagePlacement(Te *testing.T) {
	n3 := node3(Te)
	P, err := Place(TwoPlusTwo{}, []*bblock.Unit{n3}, PlaceOptions{})
	require.NoError(Te, err)
	for k, pl := range P.Placements {
		v := P.Graph.Vertices[k]
		assert.InDelta(Te, 0, r3.Norm(r3.Sub(pl.Placed.BonderCentroid(0), v.Position)), 1e-6)
		n, err := pl.Placed.PlaneNormal(0)
		require.NoError(Te, err)
		assert.InDelta(Te, 1, abs(r3.Dot(n, r3.Unit(v.Position))), 1e-6, "normal of vertex %d", k)
		//the first functional group points to the first neighbor.
		first := pl.Placed.BonderDirectionVectors(0)[0]
		to := r3.Sub(P.Graph.Vertices[P.Graph.Neighbors(k)[0]].Position, v.Position)
		assert.InDelta(Te, 0, chem.SignedAngle(first, to, v.Normal), 1e-6)
	}

	l := linker(Te)
	P, err = Place(FourPlusSix{}, []*bblock.Unit{l, n3}, PlaceOptions{})
	require.NoError(Te, err)
	assert.Equal(Te, []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}, P.Assignment)
	for k := 4; k < 10; k++ {
		d, err := P.Placements[k].Placed.Direction(0)
		require.NoError(Te, err)
		assert.InDelta(Te, 1, abs(r3.Dot(d, P.Graph.Vertices[k].Axis)), 1e-6)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestAssignments(Te *testing.T) {
	a, b := node3(Te), mkUnit(Te, "Brc1cc(Br)c(C)c(Br)c1", "bromine", bblock.Multitopic)
	units := []*bblock.Unit{a, b}
	P, err := Place(FourPlusFour{}, units, PlaceOptions{})
	require.NoError(Te, err)
	for _, e := range P.Graph.Edges {
		assert.NotEqual(Te, P.Assignment[e.V1], P.Assignment[e.V2], "edge %v joins different building blocks", e)
	}
	P, err = Place(TwoPlusTwo{}, units, PlaceOptions{Assignments: map[int][]int{0: {0, 1, 2}, 1: {3}}})
	require.NoError(Te, err)
	assert.Equal(Te, []int{0, 0, 0, 1}, P.Assignment)

	var ierr *IncompatibleTopologyError
	for _, over := range []map[int][]int{
		{0: {0, 1}, 1: {2}},       //vertex 3 unassigned
		{0: {0, 1, 2}, 1: {2, 3}}, //vertex 2 twice
		{0: {0, 1, 2}, 5: {3}},    //no such building block
		{0: {0, 1, 2, 7}, 1: {3}}, //no such vertex
	} {
		_, err := Place(TwoPlusTwo{}, units, PlaceOptions{Assignments: over})
		require.ErrorAs(Te, err, &ierr, "%v", over)
	}
	_, err = Place(TwoPlusTwo{}, []*bblock.Unit{linker(Te)}, PlaceOptions{})
	require.ErrorAs(Te, err, &ierr)
	assert.Equal(Te, 0, ierr.Vertex)
	_, err = Place(TwoPlusTwo{}, []*bblock.Unit{a, linker(Te)}, PlaceOptions{Assignments: map[int][]int{0: {0, 1, 2}, 1: {3}}})
	require.ErrorAs(Te, err, &ierr)
	assert.Equal(Te, 3, ierr.Vertex)
}

func TestLookup(Te *testing.T) {
	t, err := Lookup("linear", map[string]interface{}{"repeat": "AB", "n": 3, "orientation": []interface{}{0, 1.0}})
	require.NoError(Te, err)
	assert.Equal(Te, &Linear{Repeat: "AB", N: 3, Orientation: []float64{0, 1}}, t)
	t, err = Lookup("FourPlusSix", nil)
	require.NoError(Te, err)
	assert.Equal(Te, "FourPlusSix", t.Key())
	t, err = Lookup("honeycomb", map[string]interface{}{"nx": "3", "ny": 2})
	require.NoError(Te, err)
	assert.Equal(Te, &Honeycomb{Nx: 3, Ny: 2}, t)
	_, err = Lookup("dodecahedron", nil)
	assert.Error(Te, err)
	_, err = Lookup("linear", map[string]interface{}{"colour": "red"})
	assert.Error(Te, err)
	_, err = Lookup("two_plus_two", map[string]interface{}{"n": 2})
	assert.Error(Te, err)
	assert.Contains(Te, Names(), "eight_plus_twelve")
	assert.NotEqual(Te, (&Linear{Repeat: "AB"}).Key(), (&Linear{Repeat: "BA"}).Key())
}
