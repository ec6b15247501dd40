/*
 * errors.go, part of gostk.
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
)

//Error is the generic error of the package.
type Error struct {
	msg  string
	deco []string
}

func (err *Error) Error() string { return err.msg }

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//NoMatchError is returned when the functional group of a building block is not found in its molecule.
type NoMatchError struct {
	Unit  string
	Group string
	deco  []string
}

func (err *NoMatchError) Error() string {
	return fmt.Sprintf("Functional group %s not found in building block %s", err.Group, err.Unit)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *NoMatchError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//AmbiguousMatchError is returned when the number of functional groups found doesn't
//fit the declared kind of the building block, or when an atom would get two roles.
type AmbiguousMatchError struct {
	Unit    string
	Group   string
	Kind    Kind
	Matches int
	Atom    int //atom with conflicting roles, -1 for count mismatches
	deco    []string
}

func (err *AmbiguousMatchError) Error() string {
	if err.Atom >= 0 {
		return fmt.Sprintf("Atom %d of building block %s belongs to overlapping %s groups", err.Atom, err.Unit, err.Group)
	}
	return fmt.Sprintf("Building block %s declared %s but has %d %s groups", err.Unit, err.Kind, err.Matches, err.Group)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *AmbiguousMatchError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
	}
	return err
}
