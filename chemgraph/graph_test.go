/*
 * graph_test.go, part of gostk.
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

package chemgraph

import (
	"math"
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//chain returns a C-C-C-C chain plus a lone O.
func chain(Te *testing.T) *chem.Molecule {
	atoms := []*chem.Atom{{Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"}, {Symbol: "O"}}
	bonds := []*chem.Bond{{At1: 0, At2: 1, Order: 1}, {At1: 1, At2: 2, Order: 1}, {At1: 2, At2: 3, Order: 1}}
	mol, err := chem.NewMolecule(atoms, bonds)
	require.NoError(Te, err)
	return mol
}

func TestComponents(Te *testing.T) {
	mol := chain(Te)
	g := FromMolecule(mol, nil)
	assert.Equal(Te, [][]int{{0, 1, 2, 3}, {4}}, g.Components())
	cut := FromMolecule(mol, func(b *chem.Bond) bool { return b.Has(1) && b.Has(2) })
	assert.Equal(Te, [][]int{{0, 1}, {2, 3}, {4}}, cut.Components())
	assert.False(Te, cut.HasEdgeBetween(1, 2))
	assert.True(Te, g.HasEdgeBetween(2, 1))
}

func TestPaths(Te *testing.T) {
	mol := chain(Te)
	g := FromMolecule(mol, nil)
	assert.Equal(Te, 3.0, g.PathLength(0, 3))
	assert.True(Te, math.IsInf(g.PathLength(0, 4), 1))
	w := g.Within(0, 2)
	assert.Equal(Te, map[int]int{0: 0, 1: 1, 2: 2}, w)
	assert.Len(Te, g.Within(1, 1), 3)
	assert.Equal(Te, 5, g.Nodes().Len())
	assert.Equal(Te, 2, g.From(1).Len())
}
