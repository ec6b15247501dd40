/*
 * optimize.go, part of gostk.
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

//Package optimize relaxes the structures of assembled macromolecules.
//
//The strategies are a closed set: FastRelax and RestrainedRelax use the force field
//in the forcefield package, ConstrainedRelax runs MacroModel with every internal
//coordinate not created by the assembly frozen, and Skip does nothing.
//A molecule is optimized at most once: optimizing an optimized molecule does nothing.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rmera/gostk/macromol"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//Strategy is one of FastRelax, RestrainedRelax, ConstrainedRelax or Skip.
type Strategy interface {
	Name() string
	relax(ctx context.Context, O *Optimizer, m *macromol.Molecule) error
}

//Descriptor names a strategy and its parameters, as given in job files.
type Descriptor struct {
	Name   string                 `yaml:"name" mapstructure:"name"`
	Params map[string]interface{} `yaml:"params" mapstructure:"params"`
}

//Names of the strategies, and the older names also accepted.
var strategies = map[string]func() Strategy{
	"fast_relax":         func() Strategy { return &FastRelax{} },
	"rdkit_optimization": func() Strategy { return &FastRelax{} },
	"restrained_relax":   func() Strategy { return &RestrainedRelax{} },
	"constrained_relax":  func() Strategy { return &ConstrainedRelax{} },
	"macromodel_opt":     func() Strategy { return &ConstrainedRelax{} },
	"skip":               func() Strategy { return Skip{} },
	"do_not_optimize":    func() Strategy { return Skip{} },
}

//FromDescriptor returns the strategy described by d.
func FromDescriptor(d Descriptor) (Strategy, error) {
	mk, ok := strategies[strings.ToLower(d.Name)]
	if !ok {
		return nil, &Error{msg: fmt.Sprintf("Unknown optimization strategy %q", d.Name), deco: []string{"FromDescriptor"}}
	}
	s := mk()
	if len(d.Params) == 0 {
		return s, nil
	}
	if _, skip := s.(Skip); skip {
		return nil, &Error{msg: "The skip strategy takes no parameters", deco: []string{"FromDescriptor"}}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           s,
	})
	if err != nil {
		return nil, &Error{msg: err.Error(), deco: []string{"FromDescriptor"}}
	}
	if err := dec.Decode(d.Params); err != nil {
		return nil, &Error{msg: fmt.Sprintf("Parameters for %s: %v", d.Name, err), deco: []string{"FromDescriptor"}}
	}
	return s, nil
}

//Optimizer applies strategies to molecules. It is safe for concurrent use.
type Optimizer struct {
	log     *zap.Logger
	metrics *Metrics
}

//New returns an optimizer. Both arguments can be nil.
func New(log *zap.Logger, metrics *Metrics) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{log: log, metrics: metrics}
}

//Optimize relaxes every conformer of m with the strategy s, and marks m as optimized.
//If m is already optimized, or being optimized, nothing is done. If the optimization fails,
//m is left unoptimized. Skip never changes m.
func (O *Optimizer) Optimize(ctx context.Context, s Strategy, m *macromol.Molecule) error {
	log := O.log.With(zap.String("strategy", s.Name()), zap.String("molecule", m.Key()))
	if _, ok := s.(Skip); ok {
		O.metrics.count(s.Name(), outcomeSkipped)
		return nil
	}
	if !m.BeginOptimization() {
		log.Debug("already optimized", zap.Stringer("state", m.State()))
		O.metrics.count(s.Name(), outcomeNoop)
		return nil
	}
	start := time.Now()
	err := s.relax(ctx, O, m)
	elapsed := time.Since(start)
	m.EndOptimization(err == nil)
	O.metrics.observe(s.Name(), elapsed)
	var timeout *OptimizationTimeoutError
	switch {
	case err == nil:
		O.metrics.count(s.Name(), outcomeSuccess)
		log.Info("optimized", zap.Duration("duration", elapsed))
	case errors.As(err, &timeout):
		O.metrics.count(s.Name(), outcomeTimeout)
		log.Warn("optimization timed out", zap.Duration("duration", elapsed))
	default:
		O.metrics.count(s.Name(), outcomeFailure)
		log.Warn("optimization failed", zap.Error(err))
	}
	return errDecorate(err, "Optimize")
}

//BatchOptions selects how OptimizeAll goes through the molecules.
type BatchOptions struct {
	Parallel bool
	Workers  int //maximum concurrent optimizations, no limit if < 1
}

//OptimizeAll optimizes every molecule of mols with s. A failure doesn't stop the
//optimization of the other molecules. All the failures are returned combined;
//multierr.Errors gives the individual ones.
func (O *Optimizer) OptimizeAll(ctx context.Context, s Strategy, mols []*macromol.Molecule, B BatchOptions) error {
	errs := make([]error, len(mols))
	if !B.Parallel {
		for i, m := range mols {
			errs[i] = O.Optimize(ctx, s, m)
		}
		return multierr.Combine(errs...)
	}
	var g errgroup.Group
	if B.Workers > 0 {
		g.SetLimit(B.Workers)
	}
	for i, m := range mols {
		i, m := i, m
		g.Go(func() error {
			errs[i] = O.Optimize(ctx, s, m)
			return nil
		})
	}
	g.Wait()
	return multierr.Combine(errs...)
}

//Run optimizes mols with the strategy described by d.
func (O *Optimizer) Run(ctx context.Context, d Descriptor, mols []*macromol.Molecule, B BatchOptions) error {
	s, err := FromDescriptor(d)
	if err != nil {
		return errDecorate(err, "Run")
	}
	return O.OptimizeAll(ctx, s, mols, B)
}

//Skip does nothing.
type Skip struct{}

func (Skip) Name() string { return "skip" }

func (Skip) relax(context.Context, *Optimizer, *macromol.Molecule) error { return nil }
