/*
 * geometric.go, part of gostk.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"fmt"
	"math"

	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const appzero float64 = 1e-9 //Everything equal or less than this is considered zero.

//Centroid returns the geometric center of the vectors in coords with the
//given indexes, or of all the vectors if indexes is nil.
func Centroid(coords *v3.Matrix, indexes []int) r3.Vec {
	var c r3.Vec
	if indexes == nil {
		n := coords.NVecs()
		for i := 0; i < n; i++ {
			c = r3.Add(c, coords.Vec(i))
		}
		return r3.Scale(1/float64(n), c)
	}
	for _, i := range indexes {
		c = r3.Add(c, coords.Vec(i))
	}
	return r3.Scale(1/float64(len(indexes)), c)
}

//Angle returns the angle between the vectors v1 and v2, in radians.
func Angle(v1, v2 r3.Vec) float64 {
	n := r3.Norm(v1) * r3.Norm(v2)
	if n < appzero {
		return 0
	}
	c := r3.Dot(v1, v2) / n
	//floating point errors can leave c slightly outside [-1,1]
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

//BondAngle returns the angle a-b-c, in radians
func BondAngle(a, b, c r3.Vec) float64 {
	return Angle(r3.Sub(a, b), r3.Sub(c, b))
}

//Dihedral calculate the dihedral between the points a, b, c, d, where the first plane
//is defined by abc and the second by bcd. The result is in radians.
func Dihedral(a, b, c, d r3.Vec) float64 {
	//bma=b minus a
	bma := r3.Sub(b, a)
	cmb := r3.Sub(c, b)
	dmc := r3.Sub(d, c)
	bmascaled := r3.Scale(r3.Norm(cmb), bma)
	first := r3.Dot(bmascaled, r3.Cross(cmb, dmc))
	v1 := r3.Cross(bma, cmb)
	v2 := r3.Cross(cmb, dmc)
	second := r3.Dot(v1, v2)
	return math.Atan2(first, second)
}

//BestPlaneNormal returns the unit normal to the plane that best fits the given
//points (in the least squares sense). At least 3 non-collinear points are needed.
func BestPlaneNormal(points []r3.Vec) (r3.Vec, error) {
	if len(points) < 3 {
		return r3.Vec{}, &CError{msg: fmt.Sprintf("At least 3 points are needed to define a plane, got %d", len(points)), deco: []string{"BestPlaneNormal"}}
	}
	var c r3.Vec
	for _, p := range points {
		c = r3.Add(c, p)
	}
	c = r3.Scale(1/float64(len(points)), c)
	data := make([]float64, 0, 3*len(points))
	for _, p := range points {
		d := r3.Sub(p, c)
		data = append(data, d.X, d.Y, d.Z)
	}
	A := mat.NewDense(len(points), 3, data)
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDFull); !ok {
		return r3.Vec{}, &CError{msg: "SVD factorization failed", deco: []string{"BestPlaneNormal"}}
	}
	vals := svd.Values(nil)
	if len(vals) < 2 || vals[1] < appzero {
		return r3.Vec{}, &CError{msg: "The points are collinear, no plane is defined", deco: []string{"BestPlaneNormal"}}
	}
	var V mat.Dense
	svd.VTo(&V)
	//singular values come in decreasing order, so the last right singular vector is the normal.
	n := r3.Vec{X: V.At(0, 2), Y: V.At(1, 2), Z: V.At(2, 2)}
	return r3.Unit(n), nil
}

//Rotators are 3x3 matrices meant to be applied on the right side of
//a matrix of row vectors: rotated = coords x R

//AxisRotator returns a rotator for a rotation of angle radians around axis
//(right hand rule).
func AxisRotator(axis r3.Vec, angle float64) *v3.Matrix {
	k := r3.Unit(axis)
	s, c := math.Sincos(angle)
	t := 1 - c
	//transpose of the Rodrigues matrix, since we multiply row vectors.
	R, _ := v3.NewMatrix([]float64{
		t*k.X*k.X + c, t*k.X*k.Y + s*k.Z, t*k.X*k.Z - s*k.Y,
		t*k.X*k.Y - s*k.Z, t*k.Y*k.Y + c, t*k.Y*k.Z + s*k.X,
		t*k.X*k.Z + s*k.Y, t*k.Y*k.Z - s*k.X, t*k.Z*k.Z + c,
	})
	return R
}

//Identity returns the identity rotator.
func Identity() *v3.Matrix {
	R, _ := v3.NewMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	return R
}

//AlignRotator returns the rotator that takes the direction of from into the
//direction of to.
func AlignRotator(from, to r3.Vec) *v3.Matrix {
	f := r3.Unit(from)
	t := r3.Unit(to)
	axis := r3.Cross(f, t)
	s := r3.Norm(axis)
	c := r3.Dot(f, t)
	if s < appzero {
		if c > 0 {
			return Identity()
		}
		return AxisRotator(Perpendicular(f), math.Pi)
	}
	return AxisRotator(axis, math.Atan2(s, c))
}

//Perpendicular returns a unit vector perpendicular to v.
func Perpendicular(v r3.Vec) r3.Vec {
	trial := r3.Vec{X: 1}
	if math.Abs(r3.Unit(v).X) > 0.9 {
		trial = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Cross(v, trial))
}

//ComposeRotators returns a rotator equivalent to applying first and then second.
func ComposeRotators(first, second *v3.Matrix) *v3.Matrix {
	R := v3.Zeros(3)
	R.Mul(first, second)
	return R
}

//RotateVec applies the rotator R to the vector v.
func RotateVec(v r3.Vec, R *v3.Matrix) r3.Vec {
	return r3.Vec{
		X: v.X*R.At(0, 0) + v.Y*R.At(1, 0) + v.Z*R.At(2, 0),
		Y: v.X*R.At(0, 1) + v.Y*R.At(1, 1) + v.Z*R.At(2, 1),
		Z: v.X*R.At(0, 2) + v.Y*R.At(1, 2) + v.Z*R.At(2, 2),
	}
}

//RotateAbout rotates in place the vectors in coords by R, around the point center.
func RotateAbout(coords, R *v3.Matrix, center r3.Vec) {
	for i := 0; i < coords.NVecs(); i++ {
		p := r3.Sub(coords.Vec(i), center)
		coords.SetVec(i, r3.Add(RotateVec(p, R), center))
	}
}

//SignedAngle returns the angle needed to rotate from into to around axis,
//considering only the components of both vectors perpendicular to axis.
//It returns 0 if either projection vanishes.
func SignedAngle(from, to, axis r3.Vec) float64 {
	a := r3.Unit(axis)
	pf := r3.Sub(from, r3.Scale(r3.Dot(from, a), a))
	pt := r3.Sub(to, r3.Scale(r3.Dot(to, a), a))
	if r3.Norm(pf) < appzero || r3.Norm(pt) < appzero {
		return 0
	}
	return math.Atan2(r3.Dot(a, r3.Cross(pf, pt)), r3.Dot(pf, pt))
}
