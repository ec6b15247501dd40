/*
 * json_test.go, part of gostk.
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

package chemjson

import (
	"bytes"
	"strings"
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(Te *testing.T) {
	g, err := fgroup.Default().Get("bromine")
	require.NoError(Te, err)
	u, err := bblock.FromSMILES("BrCCCBr", g, bblock.Ditopic, nil)
	require.NoError(Te, err)
	m, err := macromol.New([]*bblock.Unit{u}, &topology.Linear{N: 3}, macromol.Options{})
	require.NoError(Te, err)
	_, err = m.AddConformer([]int{0})
	require.NoError(Te, err)
	fit := 0.25
	m.Fitness = &fit

	var b bytes.Buffer
	require.NoError(Te, Encode(&b, "trimer", m))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	assert.Len(Te, lines, 1+m.Len()+len(m.Bonds)+2)

	R, err := Decode(&b)
	require.NoError(Te, err)
	assert.Equal(Te, "trimer", R.Header.Name)
	assert.Equal(Te, m.Key(), R.Header.Key)
	assert.Equal(Te, "unoptimized", R.Header.State)
	assert.Equal(Te, 2, R.Header.BondsMade)
	assert.Equal(Te, []int{3}, R.Header.Counts)
	require.NotNil(Te, R.Header.Fitness)
	assert.Equal(Te, 0.25, *R.Header.Fitness)
	require.NoError(Te, chem.CheckSameStructure(m.Molecule, R.Mol))
	assert.Equal(Te, m.Provenance, R.Provenance)
	assert.Equal(Te, m.BondProvenance, R.BondKinds)
	require.Equal(Te, 2, R.Mol.NConformers())
	for conf := 0; conf < 2; conf++ {
		c, err := m.Conformer(conf)
		require.NoError(Te, err)
		assert.Equal(Te, c.RawMatrix().Data, R.Mol.Coords[conf].RawMatrix().Data)
	}
	for i, bd := range m.Bonds {
		assert.Equal(Te, bd.Order, R.Mol.Bonds[i].Order)
	}
}

func TestDecodeErrors(Te *testing.T) {
	for name, in := range map[string]string{
		"empty":     "",
		"truncated": `{"atoms": 2, "bonds": 0, "conformers": 0}` + "\n" + `{"symbol": "C", "role": "core"}`,
		"role":      `{"atoms": 1}` + "\n" + `{"symbol": "C", "role": "catalyst"}`,
		"bond":      `{"atoms": 1, "bonds": 1}` + "\n" + `{"symbol": "C", "role": "core"}` + "\n" + `{"at1": 0, "at2": 4, "order": 1}`,
		"coords":    `{"atoms": 1, "conformers": 1}` + "\n" + `{"symbol": "C", "role": "core"}` + "\n" + `{"coords": [0, 1]}`,
		"negative":  `{"atoms": -1}`,
	} {
		_, err := Decode(strings.NewReader(in))
		assert.Error(Te, err, name)
	}
}
