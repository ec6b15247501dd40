/*
 * bblock_test.go, part of gostk.
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

package bblock

import (
	"math"
	"path/filepath"
	"testing"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/fgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func group(Te *testing.T, name string) *fgroup.FunctionalGroup {
	g, err := fgroup.Default().Get(name)
	require.NoError(Te, err)
	return g
}

func unit(Te *testing.T, smiles, fg string, kind Kind) *Unit {
	U, err := FromSMILES(smiles, group(Te, fg), kind, nil)
	require.NoError(Te, err, smiles)
	return U
}

func near(Te *testing.T, want, got r3.Vec, msg string) {
	assert.InDelta(Te, 0, r3.Norm(r3.Sub(want, got)), 1e-6, msg)
}

func TestTagging(Te *testing.T) {
	for _, c := range []struct {
		smiles, fg string
		kind       Kind
		groups     int
	}{
		{"BrCCBr", "bromine", Ditopic, 2},
		{"NCCN", "amine", Ditopic, 2},
		{"Brc1cc(Br)cc(Br)c1", "bromine", Multitopic, 3},
	} {
		U := unit(Te, c.smiles, c.fg, c.kind)
		require.Equal(Te, c.groups, U.NGroups())
		matched := make(map[int]bool)
		for _, g := range U.Groups() {
			part := append(append([]int(nil), g.Bonders...), g.Deleters...)
			assert.ElementsMatch(Te, g.Atoms, part, "bonders and deleters partition the match")
			for _, b := range g.Bonders {
				assert.Equal(Te, Bonder, U.Role(b))
				matched[b] = true
			}
			for _, d := range g.Deleters {
				assert.Equal(Te, Deleter, U.Role(d))
				matched[d] = true
			}
		}
		for i := 0; i < U.Len(); i++ {
			if !matched[i] {
				assert.Equal(Te, Core, U.Role(i), "atom %d of %s", i, c.smiles)
			}
		}
	}
}

func TestTaggingErrors(Te *testing.T) {
	_, err := FromSMILES("CCC", group(Te, "amine"), Ditopic, nil)
	var nomatch *NoMatchError
	require.ErrorAs(Te, err, &nomatch)
	assert.Equal(Te, "amine", nomatch.Group)

	var amb *AmbiguousMatchError
	_, err = FromSMILES("BrCCBr", group(Te, "bromine"), Multitopic, nil)
	require.ErrorAs(Te, err, &amb)
	assert.Equal(Te, 2, amb.Matches)
	_, err = FromSMILES("Brc1cc(Br)cc(Br)c1", group(Te, "bromine"), Ditopic, nil)
	require.ErrorAs(Te, err, &amb)
	assert.Equal(Te, 3, amb.Matches)
	//both aldehyde matches of formaldehyde share the carbon.
	_, err = FromSMILES("C=O", group(Te, "aldehyde"), Ditopic, nil)
	require.ErrorAs(Te, err, &amb)
	_, err = ParseKind("pentatopic")
	assert.Error(Te, err)
}

func TestSame(Te *testing.T) {
	a := unit(Te, "NCCCN", "amine", Ditopic)
	moved := a.Copy()
	R := chem.AxisRotator(r3.Vec{X: 1, Y: 1}, 1.2)
	chem.RotateAbout(moved.Mol().Coords[0], R, r3.Vec{X: 3})
	assert.True(Te, a.Same(moved))
	assert.True(Te, moved.Same(a))

	reordered := unit(Te, "C(CN)CN", "amine", Ditopic)
	assert.True(Te, a.Same(reordered))
	assert.Equal(Te, a.Key(), reordered.Key())

	longer := unit(Te, "NCCCCN", "amine", Ditopic)
	assert.False(Te, a.Same(longer))
	assert.NotEqual(Te, a.Key(), longer.Key())

	other := fgroup.MustNew("primary_amine", "[N]([H])[H]", []int{0}, []int{1, 2})
	b, err := New(a.Mol().Copy(), other, Ditopic)
	require.NoError(Te, err)
	assert.False(Te, a.Same(b), "different functional groups")

	core, oldnew := a.Core()
	assert.Equal(Te, "C3N2", core.Formula())
	for _, d := range a.Deleters() {
		assert.Equal(Te, -1, oldnew[d])
	}
	for _, b := range a.Bonders() {
		assert.NotEqual(Te, -1, oldnew[b], "bonders are part of the core")
	}
}

func TestGeometry(Te *testing.T) {
	U := unit(Te, "BrCCCCBr", "bromine", Ditopic)
	c := U.BonderCentroid(0)
	d, err := U.Direction(0)
	require.NoError(Te, err)
	assert.InDelta(Te, 1, r3.Norm(d), 1e-9)
	dirs := U.BonderDirectionVectors(0)
	require.Len(Te, dirs, 2)
	assert.InDelta(Te, -1, r3.Dot(dirs[0], dirs[1]), 1e-9, "two groups point opposite ways")
	_, err = U.PlaneNormal(0)
	assert.Error(Te, err)

	target := r3.Vec{Z: 2}
	_, err = U.SetOrientation(target, 0)
	require.NoError(Te, err)
	d, _ = U.Direction(0)
	near(Te, r3.Vec{Z: 1}, d, "direction aligned")
	near(Te, c, U.BonderCentroid(0), "rotation around the bonder centroid")

	_, err = U.Twist(r3.Vec{Z: 1}, 0.7, 0)
	require.NoError(Te, err)
	d, _ = U.Direction(0)
	near(Te, r3.Vec{Z: 1}, d, "twist around the direction keeps it")
	require.NoError(Te, U.SetBonderCentroid(r3.Vec{X: 10}, 0))
	near(Te, r3.Vec{X: 10}, U.BonderCentroid(0), "translated")
	assert.Error(Te, U.SetBonderCentroid(r3.Vec{}, 4))

	M := unit(Te, "Brc1cc(Br)cc(Br)c1", "bromine", Multitopic)
	n, err := M.PlaneNormal(0)
	require.NoError(Te, err)
	assert.InDelta(Te, 1, r3.Norm(n), 1e-9)
	_, err = M.SetOrientation(r3.Vec{X: -1}, 0)
	require.NoError(Te, err)
	n, _ = M.PlaneNormal(0)
	assert.InDelta(Te, 1, math.Abs(n.X), 1e-6)
	_, err = M.Direction(0)
	assert.Error(Te, err)
	assert.Greater(Te, M.MaxBonderRadius(0), 1.0)

	T := &Transform{Rotation: chem.AxisRotator(r3.Vec{Y: 1}, math.Pi), Origin: M.BonderCentroid(0), Position: r3.Vec{Y: 5}}
	require.NoError(Te, M.Transform(T, 0))
	near(Te, r3.Vec{Y: 5}, M.BonderCentroid(0), "transform puts the origin at position")
}

func TestFiles(Te *testing.T) {
	U := unit(Te, "O=CC=O", "aldehyde", Ditopic)
	path := filepath.Join(Te.TempDir(), "glyoxal.mol")
	require.NoError(Te, chem.MolFileWrite(path, U.Mol(), 0))
	F, err := FromFile(path, U.FunctionalGroup(), Ditopic)
	require.NoError(Te, err)
	assert.True(Te, U.Same(F))
	i, err := F.UpdateFromFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, 1, i)
	assert.Equal(Te, 2, F.NConformers())

	other := unit(Te, "O=CCC=O", "aldehyde", Ditopic)
	opath := filepath.Join(Te.TempDir(), "other.mol2")
	require.NoError(Te, chem.Mol2FileWrite(opath, other.Mol(), 0))
	_, err = F.UpdateFromFile(opath)
	var mismatch *chem.StructureMismatchError
	assert.ErrorAs(Te, err, &mismatch)
	_, err = FromFile(filepath.Join(Te.TempDir(), "x.pdb"), U.FunctionalGroup(), Ditopic)
	assert.Error(Te, err)
}
