/*
 * assembly_test.go, part of gostk.
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

package assembly

import (
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"
)

func unit(Te *testing.T, smiles, fg string, kind bblock.Kind) *bblock.Unit {
	g, err := fgroup.Default().Get(fg)
	require.NoError(Te, err)
	U, err := bblock.FromSMILES(smiles, g, kind, nil)
	require.NoError(Te, err, smiles)
	return U
}

func countSymbol(mol *chem.Molecule, sym string) int {
	n := 0
	for _, a := range mol.Atoms {
		if a.Symbol == sym {
			n++
		}
	}
	return n
}

func TestLinearDimer(Te *testing.T) {
	U := unit(Te, "BrCCCCBr", "bromine", bblock.Ditopic)
	R, err := Assemble([]*bblock.Unit{U}, &topology.Linear{N: 2}, Options{Logger: zaptest.NewLogger(Te)})
	require.NoError(Te, err)
	assert.Equal(Te, 1, R.BondsMade)
	assert.Equal(Te, 2*U.Len()-2, R.Mol.Len())
	assert.Equal(Te, 2, countSymbol(R.Mol, "Br"))
	assert.Len(Te, R.UnconsumedDeleters(), 2, "the chain ends keep their bromines")
	require.Len(Te, R.NewBonds, 1)
	nb := R.NewBonds[0]
	b := R.Mol.BondBetween(nb[0], nb[1])
	require.NotNil(Te, b)
	assert.Equal(Te, NewBond, R.Bonds[b.Index])
	assert.True(Te, R.Atoms[nb[0]].NewlyBonded)
	assert.Equal(Te, bblock.Bonder, R.Atoms[nb[0]].Role)
	assert.NotEqual(Te, R.Atoms[nb[0]].Vertex, R.Atoms[nb[1]].Vertex)
	news := 0
	for _, k := range R.Bonds {
		if k == NewBond {
			news++
		}
	}
	assert.Equal(Te, 1, news)
	assert.Len(Te, R.Bonds, len(R.Mol.Bonds))
	assert.Len(Te, R.Atoms, R.Mol.Len())
	assert.NoError(Te, chem.Sanitize(R.Mol))

	//both building blocks are found in the core of the dimer
	keep := make([]int, 0)
	for i, a := range R.Mol.Atoms {
		if a.Symbol != "H" && R.Atoms[i].Role != bblock.Deleter {
			keep = append(keep, i)
		}
	}
	core, _ := R.Mol.Subgraph(keep)
	ucore, _ := U.Core()
	matches := chem.SubstructMatches(&chem.MolQuery{Molecule: ucore}, core, true, 0)
	assert.GreaterOrEqual(Te, len(matches), 2)
	disjoint := false
	for i := range matches {
		for j := i + 1; j < len(matches); j++ {
			if !overlap(matches[i], matches[j]) {
				disjoint = true
			}
		}
	}
	assert.True(Te, disjoint, "two copies of the building block core must be found")

	//the new bond is shorter than the topology's gap plus a bit
	d := r3.Norm(r3.Sub(R.Mol.Coord(nb[0], 0), R.Mol.Coord(nb[1], 0)))
	assert.InDelta(Te, topology.BondGap, d, 0.5)

	c, err := R.Reposition(nil)
	require.NoError(Te, err)
	for i := 0; i < R.Mol.Len(); i++ {
		assert.InDelta(Te, 0, r3.Norm(r3.Sub(c.Vec(i), R.Mol.Coord(i, 0))), 1e-9)
	}
}

func overlap(a, b []int) bool {
	s := make(map[int]bool, len(a))
	for _, v := range a {
		s[v] = true
	}
	for _, v := range b {
		if s[v] {
			return true
		}
	}
	return false
}

func TestImine(Te *testing.T) {
	amine := unit(Te, "NCCN", "amine", bblock.Ditopic)
	ald := unit(Te, "O=CC=O", "aldehyde", bblock.Ditopic)
	R, err := Assemble([]*bblock.Unit{amine, ald}, &topology.Linear{Repeat: "AB"}, Options{})
	require.NoError(Te, err)
	assert.Equal(Te, 1, R.BondsMade)
	//water leaves: two hydrogens from the amine, the oxygen from the aldehyde
	assert.Equal(Te, amine.Len()+ald.Len()-3, R.Mol.Len())
	nb := R.NewBonds[0]
	b := R.Mol.BondBetween(nb[0], nb[1])
	require.NotNil(Te, b)
	assert.Equal(Te, 2.0, b.Order)
	assert.ElementsMatch(Te, []string{"N", "C"}, []string{R.Mol.Atoms[nb[0]].Symbol, R.Mol.Atoms[nb[1]].Symbol})
	assert.NoError(Te, chem.Sanitize(R.Mol))
}

func TestCage(Te *testing.T) {
	a := unit(Te, "Brc1cc(Br)cc(Br)c1", "bromine", bblock.Multitopic)
	b := unit(Te, "BrCC(CBr)CBr", "bromine", bblock.Multitopic)
	units := []*bblock.Unit{a, b}
	R, err := Assemble(units, topology.TwoPlusTwo{}, Options{})
	require.NoError(Te, err)
	assert.Equal(Te, 6, R.BondsMade)
	assert.Len(Te, R.NewBonds, 6)
	assert.Empty(Te, R.UnconsumedDeleters())
	assert.Equal(Te, 0, countSymbol(R.Mol, "Br"))
	assert.Equal(Te, 2*a.Len()+2*b.Len()-12, R.Mol.Len())
	assert.Equal(Te, []int{0, 1, 0, 1}, R.Plan.Assignment)
	assert.NoError(Te, chem.Sanitize(R.Mol))
	for i, u := range units {
		assert.Equal(Te, u.Len(), u.Mol().Len(), "building block %d must not change", i)
		assert.Equal(Te, 1, u.NConformers())
	}
}

func TestErrors(Te *testing.T) {
	a := unit(Te, "Brc1cc(Br)cc(Br)c1", "bromine", bblock.Multitopic)
	//a vertex left unassigned
	_, err := Assemble([]*bblock.Unit{a}, topology.TwoPlusTwo{}, Options{Assignments: map[int][]int{0: {0, 1, 2}}})
	var top *topology.IncompatibleTopologyError
	require.ErrorAs(Te, err, &top)

	//four functional groups where the cage has three edges per vertex
	b := unit(Te, "BrCC(CBr)(CBr)CBr", "bromine", bblock.Multitopic)
	_, err = Assemble([]*bblock.Unit{b}, topology.TwoPlusTwo{}, Options{})
	require.ErrorAs(Te, err, &top)

	_, err = Assemble([]*bblock.Unit{a}, topology.TwoPlusTwo{}, Options{Conformers: []int{2}})
	assert.Error(Te, err)
}

func TestUnconsumed(Te *testing.T) {
	U := unit(Te, "BrCCBr", "bromine", bblock.Ditopic)
	plan := &topology.Plan{
		Graph: &topology.Graph{Vertices: []topology.Vertex{
			{Connectivity: 2, Terminal: true},
			{Connectivity: 2},
		}},
		Placements: []*topology.Placement{{Vertex: 0, Placed: U}, {Vertex: 1, Placed: U}},
	}
	assert.NoError(Te, unconsumed("test", plan, [][]bool{{true, false}, {true, true}}))
	err := unconsumed("test", plan, [][]bool{{true, true}, {false, true}})
	var unc *UnconsumedFunctionalGroupError
	require.ErrorAs(Te, err, &unc)
	assert.Equal(Te, 1, unc.Vertex)
	assert.Equal(Te, 0, unc.Group)
	assert.Equal(Te, "BrCCBr", unc.Unit)
}
