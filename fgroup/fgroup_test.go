/*
 * fgroup_test.go, part of gostk.
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

package fgroup

import (
	"testing"

	"github.com/rmera/gostk/smiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(Te *testing.T) {
	p, err := Compile("[C](=[O])[O][H]")
	require.NoError(Te, err)
	assert.Equal(Te, 4, p.Len())
	assert.ElementsMatch(Te, []int{1, 2}, p.Neighbors(0))
	p, err = Compile("c1ccccc1Br")
	require.NoError(Te, err)
	assert.Equal(Te, 7, p.Len())
	assert.Len(Te, p.Neighbors(0), 2)
	_, err = Compile("[C,N,#8]~*")
	require.NoError(Te, err)
	for _, bad := range []string{"[C", "C(", "C)", "C1CC", "[Xx]", "", "[#999]"} {
		_, err := Compile(bad)
		var perr *PatternError
		assert.ErrorAs(Te, err, &perr, bad)
	}
}

func TestDefault(Te *testing.T) {
	R := Default()
	assert.Same(Te, R, Default())
	assert.Equal(Te, []string{"aldehyde", "amine", "bromine", "carboxylic_acid", "iodine", "terminal_alkyne", "thiol"}, R.Names())
	assert.Equal(Te, 2.0, R.BondOrder("amine", "aldehyde"))
	assert.Equal(Te, 2.0, R.BondOrder("aldehyde", "amine"))
	assert.Equal(Te, 1.0, R.BondOrder("bromine", "bromine"))
	_, err := R.Get("boronic_acid")
	var uerr *UnknownGroupError
	require.ErrorAs(Te, err, &uerr)
	assert.Equal(Te, "boronic_acid", uerr.Name)
}

func TestMatches(Te *testing.T) {
	R := Default()
	cases := []struct {
		smiles string
		group  string
		n      int
	}{
		{"NCCN", "amine", 2},
		{"O=CC=O", "aldehyde", 2},
		{"O=Cc1cc(C=O)cc(C=O)c1", "aldehyde", 3},
		{"BrCCBr", "bromine", 2},
		{"Brc1cc(Br)cc(Br)c1", "bromine", 3},
		{"OC(=O)CC(=O)O", "carboxylic_acid", 2},
		{"C#CCC#C", "terminal_alkyne", 2},
		{"SCCS", "thiol", 2},
		{"CCC", "amine", 0},
		{"CC(C)=O", "aldehyde", 0},
	}
	for _, c := range cases {
		mol, err := smiles.Parse(c.smiles)
		require.NoError(Te, err, c.smiles)
		g, err := R.Get(c.group)
		require.NoError(Te, err)
		m := g.Matches(mol)
		assert.Len(Te, m, c.n, c.smiles)
		for _, match := range m {
			assert.Len(Te, match, g.Pattern.Len())
		}
	}
}

func TestNewErrors(Te *testing.T) {
	_, err := New("bad", "[C][O]", nil, []int{1})
	assert.Error(Te, err)
	_, err = New("bad", "[C][O]", []int{0}, []int{0})
	assert.Error(Te, err)
	_, err = New("bad", "[C][O]", []int{0}, []int{5})
	assert.Error(Te, err)
	g := MustNew("ok", "[C][O]", []int{0}, []int{1})
	_, err = NewRegistry([]*FunctionalGroup{g, g}, nil)
	assert.Error(Te, err)
	_, err = NewRegistry([]*FunctionalGroup{g}, map[[2]string]float64{{"ok", "missing"}: 2})
	assert.Error(Te, err)
}
