/*
 * histo_test.go, part of gostk.
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

package histo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHisto(Te *testing.T) {
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1, -2}
	D, err := NewData([]float64{0, 1, 2, 3, 4, 8}, rawdata)
	require.NoError(Te, err)
	assert.Equal(Te, []float64{2, 6, 2, 7, 9}, D.View())
	assert.Equal(Te, 26, D.Total())
	assert.Equal(Te, 44.0, rawdata[20], "the input is not modified")

	D.AddData(0.5, 100, -1, 7.99)
	assert.Equal(Te, []float64{3, 6, 2, 7, 10}, D.View())
	D.Normalize()
	assert.True(Te, D.Normalized())
	assert.InDelta(Te, 1, D.Sum(), 1e-12)
	D.AddData(1.5)
	assert.True(Te, D.Normalized())
	D.UnNormalize()
	assert.InDeltaSlice(Te, []float64{3, 7, 2, 7, 10}, D.View(), 1e-9)
	assert.Contains(Te, D.String(), "3.00-4.00")

	_, err = NewData([]float64{1}, nil)
	assert.Error(Te, err)
	_, err = NewData([]float64{2, 1}, nil)
	assert.Error(Te, err)
}

func TestDividers(Te *testing.T) {
	assert.Equal(Te, []float64{0, 0.5, 1}, Uniform(0, 1, 2))
	vals := []float64{-0.2, 0.1, 0.3}
	d := Spanning(vals, 4)
	require.Len(Te, d, 5)
	D, err := NewData(d, vals)
	require.NoError(Te, err)
	assert.Equal(Te, 3, D.Total(), "every value is counted")
	flat := Spanning([]float64{2, 2}, 2)
	assert.Equal(Te, []float64{1.5, 2, 2.5}, flat)
	assert.Len(Te, Spanning(nil, 3), 4)
}
