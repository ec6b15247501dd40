/*
 * embed_test.go, part of gostk.
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

package embed

import (
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/forcefield"
	"github.com/rmera/gostk/smiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func dist(mol *chem.Molecule, i, j int) float64 {
	return r3.Norm(r3.Sub(mol.Coord(i, 0), mol.Coord(j, 0)))
}

func TestEmbed(Te *testing.T) {
	for _, s := range []string{"CCO", "NCCCN", "c1ccccc1", "C#CC", "CC.O"} {
		mol, err := smiles.Parse(s)
		require.NoError(Te, err)
		require.NoError(Te, Embed(mol, nil), s)
		require.Equal(Te, 1, mol.NConformers())
		for _, b := range mol.Bonds {
			ideal := forcefield.IdealBondLength(mol.Atoms[b.At1].Symbol, mol.Atoms[b.At2].Symbol, b.Order)
			assert.InDelta(Te, ideal, dist(mol, b.At1, b.At2), 0.15, "%s bond %d-%d", s, b.At1, b.At2)
		}
		for i := 0; i < mol.Len(); i++ {
			for j := i + 1; j < mol.Len(); j++ {
				if mol.BondBetween(i, j) == nil {
					assert.Greater(Te, dist(mol, i, j), 1.0, "%s atoms %d and %d", s, i, j)
				}
			}
		}
	}
}

func TestDeterministic(Te *testing.T) {
	a, err := smiles.Parse("OC(=O)CCN")
	require.NoError(Te, err)
	b, err := smiles.Parse("OC(=O)CCN")
	require.NoError(Te, err)
	require.NoError(Te, Embed(a, nil))
	require.NoError(Te, Embed(b, nil))
	for i := 0; i < a.Len(); i++ {
		assert.Equal(Te, a.Coord(i, 0), b.Coord(i, 0))
	}
	require.NoError(Te, Embed(a, &Options{NoRelax: true}))
	assert.Equal(Te, 2, a.NConformers())
}

func TestEmpty(Te *testing.T) {
	mol, err := chem.NewMolecule(nil, nil)
	require.NoError(Te, err)
	assert.Error(Te, Embed(mol, nil))
}
