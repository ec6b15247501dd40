/*
 * relax.go, part of gostk.
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
	"context"

	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/constraint"
	"github.com/rmera/gostk/forcefield"
	"github.com/rmera/gostk/macromol"
	v3 "github.com/rmera/gostk/v3"
)

//FastRelax minimizes the whole structure with the in-process force field, without constraints.
type FastRelax struct {
	MaxIterations     int     `mapstructure:"max_iterations"`
	GradientThreshold float64 `mapstructure:"gradient_threshold"`
}

func (F *FastRelax) Name() string { return "fast_relax" }

func (F *FastRelax) relax(ctx context.Context, O *Optimizer, m *macromol.Molecule) error {
	if err := chem.Sanitize(m.Molecule); err != nil {
		return &EngineError{Molecule: m.Key(), Step: "sanitize", err: err, deco: []string{"relax"}}
	}
	opts := &forcefield.Options{MaxIterations: F.MaxIterations, GradientThreshold: F.GradientThreshold}
	return minimizeAll(ctx, m, func(int, *chem.Molecule) *forcefield.Options { return opts })
}

//DefaultForceConstant for restraints, in the energy units of the force field per A^2 or rad^2.
const DefaultForceConstant = 1000.0

//RestrainedRelax minimizes the structure with the in-process force field, keeping the
//internal coordinates that the assembly didn't create close to their initial values
//with stiff harmonic restraints. It is the in-process counterpart of ConstrainedRelax.
type RestrainedRelax struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	ForceConstant float64 `mapstructure:"force_constant"`
}

func (R *RestrainedRelax) Name() string { return "restrained_relax" }

func (R *RestrainedRelax) relax(ctx context.Context, O *Optimizer, m *macromol.Molecule) error {
	k := R.ForceConstant
	if k <= 0 {
		k = DefaultForceConstant
	}
	var perr error
	err := minimizeAll(ctx, m, func(conf int, work *chem.Molecule) *forcefield.Options {
		set, err := constraint.Partition(work, m.NewBonds, 0)
		if err != nil {
			perr = err
			return nil
		}
		opts := &forcefield.Options{MaxIterations: R.MaxIterations}
		for _, c := range set.Fixed {
			v := c.Value
			if c.Kind != constraint.Distance {
				v *= chem.Deg2Rad
			}
			opts.Restraints = append(opts.Restraints, forcefield.Restraint{Atoms: c.Atoms, Value: v, K: k})
		}
		return opts
	})
	if perr != nil {
		return &EngineError{Molecule: m.Key(), Step: "constraints", err: perr, deco: []string{"relax"}}
	}
	return err
}

//minimizeAll minimizes a private copy of each conformer of m, with the options
//given by opts, and then replaces the conformer with the result.
func minimizeAll(ctx context.Context, m *macromol.Molecule, opts func(conf int, work *chem.Molecule) *forcefield.Options) error {
	for conf := 0; conf < m.NConformers(); conf++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := m.Conformer(conf)
		if err != nil {
			return err
		}
		work := m.Molecule.Copy()
		work.Coords = []*v3.Matrix{c}
		o := opts(conf, work)
		if o == nil {
			return nil
		}
		if _, err := forcefield.Minimize(work, 0, o); err != nil {
			return &EngineError{Molecule: m.Key(), Step: "minimize", err: err, deco: []string{"minimizeAll"}}
		}
		if err := m.SetConformer(conf, work.Coords[0]); err != nil {
			return err
		}
	}
	return nil
}
