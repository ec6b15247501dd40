/*
 * align_test.go, part of gostk.
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

package align

import (
	"math"
	"testing"

	v3 "github.com/rmera/gostk/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func points() *v3.Matrix {
	return v3.FromVecs([]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1.5, Y: 0, Z: 0},
		{X: 1.5, Y: 1.5, Z: 0},
		{X: 0, Y: 1.5, Z: 0.7},
		{X: -1, Y: 0.3, Z: 1.2},
		{X: 2.2, Y: -0.8, Z: 0.4},
	})
}

//moved returns p rotated 60 degrees about z and translated.
func moved(p *v3.Matrix) *v3.Matrix {
	s, c := math.Sincos(math.Pi / 3)
	ret := v3.Zeros(p.NVecs())
	for i := 0; i < p.NVecs(); i++ {
		v := p.Vec(i)
		ret.SetVec(i, r3.Vec{X: c*v.X - s*v.Y + 3, Y: s*v.X + c*v.Y - 2, Z: v.Z + 1})
	}
	return ret
}

func TestSuperpose(Te *testing.T) {
	ref := points()
	mob := moved(ref)
	before, err := RMSD(ref, mob, nil)
	require.NoError(Te, err)
	assert.Greater(Te, before, 1.0)
	sup, err := Superpose(ref, mob, nil)
	require.NoError(Te, err)
	after, err := RMSD(ref, sup, nil)
	require.NoError(Te, err)
	assert.InDelta(Te, 0, after, 1e-9)
	assert.InDelta(Te, before, func() float64 { r, _ := RMSD(ref, mob, nil); return r }(), 1e-12, "mob is not modified")

	_, err = Superpose(ref, mob, []int{0, 1})
	assert.Error(Te, err)
	_, err = Superpose(ref, v3.Zeros(2), nil)
	assert.Error(Te, err)
	_, err = RMSD(ref, mob, []int{9})
	assert.Error(Te, err)
}

func TestLOVO(Te *testing.T) {
	ref := points()
	mob := moved(ref)
	//one atom moves on its own
	mob.SetVec(5, r3.Add(mob.Vec(5), r3.Vec{X: 2, Z: -1}))
	L, err := LOVO(ref, mob, 5, 0)
	require.NoError(Te, err)
	assert.Equal(Te, []int{0, 1, 2, 3, 4}, L.Indexes)
	assert.InDelta(Te, 0, L.RMSD, 1e-9)
	assert.Greater(Te, L.Iterations, 0)
	dev, err := Deviations(ref, L.Superposed)
	require.NoError(Te, err)
	assert.InDelta(Te, math.Sqrt(5), dev[5], 1e-9)

	_, err = LOVO(ref, mob, 2, 0)
	assert.Error(Te, err)
	_, err = LOVO(ref, mob, 7, 0)
	assert.Error(Te, err)
}
