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

package chem

import (
	"fmt"
	"strings"
)

//Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call returns the decoration slice resulting from the current call. An empty string just returns the current value.
}

//CError is the generic error of the package.
type CError struct {
	msg  string
	deco []string
}

//NewError returns a CError with the given message, decorated with the caller name.
func NewError(msg, caller string) *CError {
	return &CError{msg: msg, deco: []string{caller}}
}

func (err *CError) Error() string { return err.msg }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//errDecorate is a helper function that decorates the error with the caller's name
//if it implements Error, and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}

//StructureMismatchError is returned when a structure read back from a file or an
//external program doesn't have the same atoms, in the same order, as the one it
//should correspond to.
type StructureMismatchError struct {
	Expected int //number of atoms expected
	Found    int
	Index    int //first atom that differs, -1 if the counts differ
	Want     string
	Got      string
	deco     []string
}

func (err *StructureMismatchError) Error() string {
	if err.Index < 0 {
		return fmt.Sprintf("Structure mismatch: expected %d atoms, found %d", err.Expected, err.Found)
	}
	return fmt.Sprintf("Structure mismatch: atom %d should be %s, found %s", err.Index, err.Want, err.Got)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *StructureMismatchError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//CheckSameStructure returns a *StructureMismatchError if imported doesn't have
//the same number of atoms as ref, with the same element at each index.
func CheckSameStructure(ref, imported *Molecule) error {
	if ref.Len() != imported.Len() {
		return &StructureMismatchError{Expected: ref.Len(), Found: imported.Len(), Index: -1, deco: []string{"CheckSameStructure"}}
	}
	for i, a := range ref.Atoms {
		b := imported.Atoms[i]
		if !strings.EqualFold(a.Symbol, b.Symbol) {
			return &StructureMismatchError{Expected: ref.Len(), Found: imported.Len(), Index: i, Want: a.Symbol, Got: b.Symbol, deco: []string{"CheckSameStructure"}}
		}
	}
	return nil
}
