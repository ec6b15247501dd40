/*
 * geometry.go, part of gostk.
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

package bblock

import (
	"fmt"

	chem "github.com/rmera/gostk"
	v3 "github.com/rmera/gostk/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

func (U *Unit) checkConf(conf int, caller string) error {
	if conf < 0 || conf >= U.mol.NConformers() {
		return &Error{msg: fmt.Sprintf("Building block %s has no conformer %d", U.Name, conf), deco: []string{caller}}
	}
	return nil
}

//Centroid returns the centroid of all the atoms in the given conformer.
func (U *Unit) Centroid(conf int) r3.Vec {
	return chem.Centroid(U.mol.Coords[conf], nil)
}

//BonderCentroid returns the centroid of all the bonder atoms.
func (U *Unit) BonderCentroid(conf int) r3.Vec {
	return chem.Centroid(U.mol.Coords[conf], U.Bonders())
}

//BonderCentroids returns the centroid of the bonder atoms of each functional group.
func (U *Unit) BonderCentroids(conf int) []r3.Vec {
	ret := make([]r3.Vec, len(U.groups))
	for i, g := range U.groups {
		ret[i] = chem.Centroid(U.mol.Coords[conf], g.Bonders)
	}
	return ret
}

//BonderDirectionVectors returns, for each functional group, the unit vector from
//the centroid of all bonders to the bonders of the group.
func (U *Unit) BonderDirectionVectors(conf int) []r3.Vec {
	c := U.BonderCentroid(conf)
	cs := U.BonderCentroids(conf)
	ret := make([]r3.Vec, len(cs))
	for i, v := range cs {
		d := r3.Sub(v, c)
		if r3.Norm(d) > 0 {
			d = r3.Unit(d)
		}
		ret[i] = d
	}
	return ret
}

//Direction returns the unit vector from the bonders of the first functional group
//to those of the second. Only for ditopic units.
func (U *Unit) Direction(conf int) (r3.Vec, error) {
	if U.kind != Ditopic {
		return r3.Vec{}, &Error{msg: fmt.Sprintf("Direction requested for multitopic building block %s", U.Name), deco: []string{"Direction"}}
	}
	cs := U.BonderCentroids(conf)
	d := r3.Sub(cs[1], cs[0])
	if r3.Norm(d) == 0 {
		return r3.Vec{}, &Error{msg: fmt.Sprintf("Building block %s has coincident functional groups", U.Name), deco: []string{"Direction"}}
	}
	return r3.Unit(d), nil
}

//PlaneNormal returns the normal to the plane that best fits the bonders of the
//functional groups. Only for multitopic units. The sign is chosen so the normal
//points from the bonder centroid towards the centroid of the whole unit.
func (U *Unit) PlaneNormal(conf int) (r3.Vec, error) {
	if U.kind != Multitopic {
		return r3.Vec{}, &Error{msg: fmt.Sprintf("Plane normal requested for ditopic building block %s", U.Name), deco: []string{"PlaneNormal"}}
	}
	n, err := chem.BestPlaneNormal(U.BonderCentroids(conf))
	if err != nil {
		return r3.Vec{}, errDecorate(err, "PlaneNormal")
	}
	if r3.Dot(n, r3.Sub(U.Centroid(conf), U.BonderCentroid(conf))) < 0 {
		n = r3.Scale(-1, n)
	}
	return n, nil
}

//characteristic returns the direction that SetOrientation aligns.
func (U *Unit) characteristic(conf int) (r3.Vec, error) {
	if U.kind == Ditopic {
		return U.Direction(conf)
	}
	return U.PlaneNormal(conf)
}

//MaxBonderRadius returns the largest distance between the bonder centroid and a bonder atom.
func (U *Unit) MaxBonderRadius(conf int) float64 {
	c := U.BonderCentroid(conf)
	var max float64
	for _, b := range U.Bonders() {
		if d := r3.Norm(r3.Sub(U.mol.Coord(b, conf), c)); d > max {
			max = d
		}
	}
	return max
}

//Transform is a rigid body operation: a point p goes to (p-Origin)xRotation+Position.
type Transform struct {
	Rotation *v3.Matrix
	Origin   r3.Vec
	Position r3.Vec
}

//Apply returns the transformed v.
func (T *Transform) Apply(v r3.Vec) r3.Vec {
	return r3.Add(chem.RotateVec(r3.Sub(v, T.Origin), T.Rotation), T.Position)
}

//Transform applies T to the given conformer, in place.
func (U *Unit) Transform(T *Transform, conf int) error {
	if err := U.checkConf(conf, "Transform"); err != nil {
		return err
	}
	c := U.mol.Coords[conf]
	for i := 0; i < c.NVecs(); i++ {
		c.SetVec(i, T.Apply(c.Vec(i)))
	}
	return nil
}

//SetOrientation rotates the given conformer around the bonder centroid, so the
//characteristic direction of the unit (Direction for ditopic units, PlaneNormal for
//multitopic ones) points along target. It returns the rotator used.
func (U *Unit) SetOrientation(target r3.Vec, conf int) (*v3.Matrix, error) {
	if err := U.checkConf(conf, "SetOrientation"); err != nil {
		return nil, err
	}
	if r3.Norm(target) == 0 {
		return nil, &Error{msg: "Null orientation target", deco: []string{"SetOrientation"}}
	}
	d, err := U.characteristic(conf)
	if err != nil {
		return nil, errDecorate(err, "SetOrientation")
	}
	R := chem.AlignRotator(d, target)
	chem.RotateAbout(U.mol.Coords[conf], R, U.BonderCentroid(conf))
	return R, nil
}

//Twist rotates the given conformer by angle radians around axis, through the
//bonder centroid. It returns the rotator used.
func (U *Unit) Twist(axis r3.Vec, angle float64, conf int) (*v3.Matrix, error) {
	if err := U.checkConf(conf, "Twist"); err != nil {
		return nil, err
	}
	R := chem.AxisRotator(axis, angle)
	chem.RotateAbout(U.mol.Coords[conf], R, U.BonderCentroid(conf))
	return R, nil
}

//SetBonderCentroid translates the given conformer so its bonder centroid is at pos.
func (U *Unit) SetBonderCentroid(pos r3.Vec, conf int) error {
	if err := U.checkConf(conf, "SetBonderCentroid"); err != nil {
		return err
	}
	c := U.mol.Coords[conf]
	c.AddVec(c, r3.Sub(pos, U.BonderCentroid(conf)))
	return nil
}
