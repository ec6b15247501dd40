/*
 * smiles_test.go, part of gostk.
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

package smiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(Te *testing.T) {
	cases := []struct {
		smiles  string
		formula string
		atoms   int
	}{
		{"NCCCN", "C3H10N2", 15},
		{"O=CC=O", "C2H2O2", 6},
		{"c1ccccc1", "C6H6", 12},
		{"BrCCBr", "C2H4Br2", 8},
		{"[NH4+]", "H4N", 5},
		{"OC(=O)C", "C2H4O2", 8},
		{"C#C", "C2H2", 4},
		{"CC.O", "C2H8O", 11},
		{"C%10CC%10", "C3H6", 9},
		{"[13CH3][O-]", "CH3O", 5},
	}
	for _, c := range cases {
		mol, err := Parse(c.smiles)
		require.NoError(Te, err, c.smiles)
		assert.Equal(Te, c.formula, mol.Formula(), c.smiles)
		assert.Equal(Te, c.atoms, mol.Len(), c.smiles)
	}
}

func TestBonds(Te *testing.T) {
	mol, err := Parse("O=CC=O")
	require.NoError(Te, err)
	assert.Equal(Te, 2.0, mol.BondBetween(0, 1).Order)
	assert.Equal(Te, 1.0, mol.BondBetween(1, 2).Order)
	benzene, err := Parse("c1ccccc1")
	require.NoError(Te, err)
	assert.Equal(Te, 1.5, benzene.BondBetween(0, 5).Order)
	assert.True(Te, benzene.Atoms[0].Aromatic)
	ammonium, err := Parse("[NH4+]")
	require.NoError(Te, err)
	assert.Equal(Te, 1, ammonium.Atoms[0].Charge)
	anion, err := Parse("C[O-]")
	require.NoError(Te, err)
	assert.Equal(Te, -1, anion.Atoms[1].Charge)
}

func TestErrors(Te *testing.T) {
	for _, s := range []string{"C1CC", "C(C", "CC)", "[NH4", "", "C=O=O=C", "X"} {
		_, err := Parse(s)
		var serr *Error
		assert.ErrorAs(Te, err, &serr, s)
	}
}
