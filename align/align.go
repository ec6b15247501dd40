/*
 * align.go, part of gostk.
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

//Package align superimposes conformers of a molecule and finds the atoms
//that moved the least between them.
//
//LOVO follows the Low Order Value Optimization scheme of Martinez et al.
//(doi:10.1371/journal.pone.0119264): superimpose on a subset, take the n atoms
//with the smallest deviations as the new subset, and repeat until it doesn't change.
package align

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

//Error is the error type for align.
type Error struct {
	msg  string
	deco []string
}

func (err *Error) Error() string { return err.msg }

func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

func all(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}

func check(ref, mob *v3.Matrix, indexes []int, caller string) error {
	if ref.NVecs() != mob.NVecs() {
		return &Error{msg: fmt.Sprintf("Conformers with %d and %d atoms", ref.NVecs(), mob.NVecs()), deco: []string{caller}}
	}
	for _, i := range indexes {
		if i < 0 || i >= ref.NVecs() {
			return &Error{msg: fmt.Sprintf("Atom %d out of range", i), deco: []string{caller}}
		}
	}
	return nil
}

func centroid(m *v3.Matrix, indexes []int) r3.Vec {
	var c r3.Vec
	for _, i := range indexes {
		c = r3.Add(c, m.Vec(i))
	}
	return r3.Scale(1/float64(len(indexes)), c)
}

//Superpose returns a copy of mob rotated and translated to best fit ref (Kabsch),
//considering only the atoms in indexes, or every atom if indexes is nil.
func Superpose(ref, mob *v3.Matrix, indexes []int) (*v3.Matrix, error) {
	if indexes == nil {
		indexes = all(ref.NVecs())
	}
	if err := check(ref, mob, indexes, "Superpose"); err != nil {
		return nil, err
	}
	if len(indexes) < 3 {
		return nil, &Error{msg: "At least 3 atoms are needed to superimpose", deco: []string{"Superpose"}}
	}
	cr, cm := centroid(ref, indexes), centroid(mob, indexes)
	var H mat.Dense
	H.Mul(centered(mob, indexes, cm).T(), centered(ref, indexes, cr))
	var svd mat.SVD
	if !svd.Factorize(&H, mat.SVDFull) {
		return nil, &Error{msg: "SVD failed", deco: []string{"Superpose"}}
	}
	var U, V, R mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	R.Mul(&U, V.T())
	if mat.Det(&R) < 0 {
		//reflection
		D := mat.NewDiagDense(3, []float64{1, 1, -1})
		var UD mat.Dense
		UD.Mul(&U, D)
		R.Mul(&UD, V.T())
	}
	ret := v3.Zeros(mob.NVecs())
	for i := 0; i < mob.NVecs(); i++ {
		ret.SetVec(i, r3.Sub(mob.Vec(i), cm))
	}
	var rot mat.Dense
	rot.Mul(ret, &R)
	out := v3.Dense2Matrix(&rot)
	for i := 0; i < out.NVecs(); i++ {
		out.SetVec(i, r3.Add(out.Vec(i), cr))
	}
	return out, nil
}

func centered(m *v3.Matrix, indexes []int, c r3.Vec) *mat.Dense {
	ret := mat.NewDense(len(indexes), 3, nil)
	for k, i := range indexes {
		v := r3.Sub(m.Vec(i), c)
		ret.SetRow(k, []float64{v.X, v.Y, v.Z})
	}
	return ret
}

//Deviations returns the distance between each atom of a and the same atom of b.
func Deviations(a, b *v3.Matrix) ([]float64, error) {
	if err := check(a, b, nil, "Deviations"); err != nil {
		return nil, err
	}
	ret := make([]float64, a.NVecs())
	for i := range ret {
		ret[i] = r3.Norm(r3.Sub(a.Vec(i), b.Vec(i)))
	}
	return ret, nil
}

//RMSD returns the root mean square deviation between a and b over the atoms in
//indexes, or every atom, if indexes is nil. The conformers are not superimposed.
func RMSD(a, b *v3.Matrix, indexes []int) (float64, error) {
	if indexes == nil {
		indexes = all(a.NVecs())
	}
	if err := check(a, b, indexes, "RMSD"); err != nil {
		return 0, err
	}
	if len(indexes) == 0 {
		return 0, nil
	}
	var sum float64
	for _, i := range indexes {
		d := r3.Sub(a.Vec(i), b.Vec(i))
		sum += r3.Dot(d, d)
	}
	return math.Sqrt(sum / float64(len(indexes))), nil
}

//LOVOResult is the outcome of LOVO.
type LOVOResult struct {
	Indexes    []int //the most rigid atoms, sorted
	RMSD       float64
	Iterations int
	Superposed *v3.Matrix //mob, superimposed on ref using Indexes
}

func (L *LOVOResult) String() string {
	return fmt.Sprintf("%d most rigid atoms, RMSD %.3f A after %d iterations", len(L.Indexes), L.RMSD, L.Iterations)
}

//DefaultLOVOIterations is the limit of LOVO iterations used when none is given.
const DefaultLOVOIterations = 50

//LOVO finds the n atoms of mob that, after superposition, deviate the least from ref.
func LOVO(ref, mob *v3.Matrix, n, maxIter int) (*LOVOResult, error) {
	if n < 3 || n > ref.NVecs() {
		return nil, &Error{msg: fmt.Sprintf("Can't select %d atoms out of %d", n, ref.NVecs()), deco: []string{"LOVO"}}
	}
	if maxIter <= 0 {
		maxIter = DefaultLOVOIterations
	}
	if err := check(ref, mob, nil, "LOVO"); err != nil {
		return nil, err
	}
	var sel []int
	var sup *v3.Matrix
	var err error
	converged := false
	it := 0
	for it = 1; it <= maxIter; it++ {
		sup, err = Superpose(ref, mob, sel)
		if err != nil {
			return nil, err
		}
		dev, err := Deviations(ref, sup)
		if err != nil {
			return nil, err
		}
		order := all(len(dev))
		sort.SliceStable(order, func(i, j int) bool { return dev[order[i]] < dev[order[j]] })
		next := append([]int(nil), order[:n]...)
		sort.Ints(next)
		if same(sel, next) {
			converged = true
			break
		}
		sel = next
	}
	if !converged {
		it = maxIter
		if sup, err = Superpose(ref, mob, sel); err != nil {
			return nil, err
		}
	}
	rmsd, err := RMSD(ref, sup, sel)
	if err != nil {
		return nil, err
	}
	return &LOVOResult{Indexes: sel, RMSD: rmsd, Iterations: it, Superposed: sup}, nil
}

func same(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
