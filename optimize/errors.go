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

package optimize

import (
	"fmt"
	"time"

	chem "github.com/rmera/gostk"
)

//EngineError is returned when a step of an optimization fails: the engine is
//missing or misconfigured, or its output is absent or can't be read.
type EngineError struct {
	Molecule string //key of the molecule
	Step     string
	err      error
	deco     []string
}

func (err *EngineError) Error() string {
	return fmt.Sprintf("molecule %s, step %s: %v", err.Molecule, err.Step, err.err)
}

func (err *EngineError) Unwrap() error { return err.err }

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *EngineError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//OptimizationTimeoutError is returned when an optimization takes longer than allowed.
//The molecule is left unoptimized, so the optimization can be attempted again.
type OptimizationTimeoutError struct {
	Molecule string
	Timeout  time.Duration
	deco     []string
}

func (err *OptimizationTimeoutError) Error() string {
	return fmt.Sprintf("molecule %s: optimization not finished after %v", err.Molecule, err.Timeout)
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err *OptimizationTimeoutError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Error is returned for invalid strategies and parameters.
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

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
	}
	return err
}
