/*
 * build.go, part of gostk.
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

package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rmera/gostk/align"
	"github.com/rmera/gostk/chemjson"
	"github.com/rmera/gostk/chemplot"
	"github.com/rmera/gostk/clash"
	"github.com/rmera/gostk/constraint"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/optimize"
	v3 "github.com/rmera/gostk/v3"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func (A *app) buildCommand() *cobra.Command {
	var output, conformers, strategyName, jsonPath, driftPath string
	cmd := &cobra.Command{
		Use:   "build JOB.yaml",
		Short: "Assembles the macromolecule of a job, optimizes it if the job asks for it, and writes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			J, err := LoadJob(args[0])
			if err != nil {
				return err
			}
			m, err := J.Build(A.registry, A.cache, A.log)
			if err != nil {
				return err
			}
			d := J.Optimization
			if strategyName != "" {
				d = &optimize.Descriptor{Name: strategyName}
			}
			var before *constraint.Set
			if driftPath != "" {
				if before, err = constraint.Extract(m, 0); err != nil {
					return err
				}
			}
			if d != nil {
				s, err := strategy(*d, A.cfg)
				if err != nil {
					return err
				}
				initial, err := m.Conformer(0)
				if err != nil {
					return err
				}
				if err := A.optimizer().Optimize(cmd.Context(), s, m); err != nil {
					return err
				}
				A.compare(J.Name, initial, m)
			}
			if driftPath != "" {
				if err := A.drift(J.Name, m, before, driftPath); err != nil {
					return err
				}
			}
			clashes, err := clash.Find(m, 0, &clash.Options{SkipHydrogens: true})
			if err != nil {
				return err
			}
			for _, c := range clashes {
				A.log.Warn("steric clash", zap.String("job", J.Name), zap.Stringer("clash", c))
			}
			path := J.OutputPath()
			if output != "" {
				path = output
			}
			if err := m.Write(path, 0); err != nil {
				return err
			}
			if conformers != "" {
				if err := m.WriteConformers(conformers); err != nil {
					return err
				}
			}
			if jsonPath != "" {
				if err := writeJSON(jsonPath, J.Name, m); err != nil {
					return err
				}
			}
			report(cmd.OutOrStdout(), J.Name, m, path)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tclashes=%d\n", J.Name, len(clashes))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file, overrides the job's (.mol, .sdf, .mol2 or .xyz)")
	f.StringVar(&conformers, "conformers", "", "also write every conformer to this xyz file (.xyz, .xyz.gz or .xyz.zst)")
	f.StringVar(&jsonPath, "json", "", "also write the molecule and the provenance of its atoms and bonds as JSON lines")
	f.StringVar(&driftPath, "drift-plot", "", "plot how much the frozen internal coordinates moved in the optimization (PNG)")
	f.StringVarP(&strategyName, "strategy", "s", "", "optimization strategy, overrides the job's (fast_relax, restrained_relax, constrained_relax, skip)")
	return cmd
}

func (A *app) optimizeCommand() *cobra.Command {
	var strategyName string
	cmd := &cobra.Command{
		Use:   "optimize JOB.yaml...",
		Short: "Builds several jobs and optimizes them as a batch",
		Long: "Builds the macromolecules of the jobs, optimizes the ones sharing a strategy together\n" +
			"(concurrently, unless optimize.parallel is false), and writes every molecule whose\n" +
			"optimization succeeded. A failed job doesn't stop the others.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var override *optimize.Descriptor
			if strategyName != "" {
				override = &optimize.Descriptor{Name: strategyName}
			}
			return A.runBatch(cmd, args, override)
		},
	}
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "optimization strategy for every job, overrides the jobs'")
	return cmd
}

type built struct {
	job *Job
	mol *macromol.Molecule
}

//runBatch builds the jobs, groups them by optimization strategy and optimizes each group
//with one OptimizeAll call. Jobs without a strategy are skipped.
func (A *app) runBatch(cmd *cobra.Command, paths []string, override *optimize.Descriptor) error {
	var errs error
	batches := make(map[string][]built)
	descs := make(map[string]optimize.Descriptor)
	for _, p := range paths {
		J, err := LoadJob(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m, err := J.Build(A.registry, A.cache, A.log)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %s: %w", J.Name, err))
			continue
		}
		d := optimize.Descriptor{Name: "skip"}
		if override != nil {
			d = *override
		} else if J.Optimization != nil {
			d = *J.Optimization
		}
		k, err := descriptorKey(d)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %s: %w", J.Name, err))
			continue
		}
		descs[k] = d
		batches[k] = append(batches[k], built{job: J, mol: m})
	}
	keys := make([]string, 0, len(batches))
	for k := range batches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	O := A.optimizer()
	for _, k := range keys {
		jobs := batches[k]
		s, err := strategy(descs[k], A.cfg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		mols := make([]*macromol.Molecule, len(jobs))
		for i, b := range jobs {
			mols[i] = b.mol
		}
		A.log.Info("optimizing batch", zap.String("strategy", s.Name()), zap.Int("molecules", len(mols)))
		errs = multierr.Append(errs, O.OptimizeAll(cmd.Context(), s, mols, A.batch()))
		_, skip := s.(optimize.Skip)
		for _, b := range jobs {
			if !skip && !b.mol.Optimized() {
				continue
			}
			path := b.job.OutputPath()
			if err := b.mol.Write(path, 0); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("job %s: %w", b.job.Name, err))
				continue
			}
			report(cmd.OutOrStdout(), b.job.Name, b.mol, path)
		}
	}
	return errs
}

//descriptorKey identifies the descriptors that give the same strategy.
//yaml.v3 writes map keys sorted, so equal parameters give equal keys.
func descriptorKey(d optimize.Descriptor) (string, error) {
	b, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

//drift logs the largest change of the coordinates that before holds fixed, by kind,
//and plots their distribution to path.
func (A *app) drift(name string, m *macromol.Molecule, before *constraint.Set, path string) error {
	c, err := m.Conformer(0)
	if err != nil {
		return err
	}
	mol := m.Molecule.Copy()
	mol.Coords = []*v3.Matrix{c}
	panels, err := chemplot.Drift(before, mol, 0, 20)
	if err != nil {
		return err
	}
	for _, P := range panels {
		A.log.Info("drift of fixed coordinates", zap.String("job", name), zap.Stringer("kind", P.Kind), zap.Float64("max", P.MaxAbs))
	}
	return chemplot.DriftPlot(panels, name, path)
}

//compare logs how much the conformer 0 of m moved from initial, overall and
//in its most rigid half.
func (A *app) compare(name string, initial *v3.Matrix, m *macromol.Molecule) {
	final, err := m.Conformer(0)
	if err != nil {
		return
	}
	log := A.log.With(zap.String("job", name))
	sup, err := align.Superpose(initial, final, nil)
	if err != nil {
		log.Debug("can't superimpose the conformers", zap.Error(err))
		return
	}
	rmsd, err := align.RMSD(initial, sup, nil)
	if err != nil {
		return
	}
	fields := []zap.Field{zap.Float64("rmsd", rmsd)}
	if L, err := align.LOVO(initial, final, m.Len()/2, 0); err == nil {
		fields = append(fields, zap.Float64("rigid_rmsd", L.RMSD), zap.Int("rigid_atoms", len(L.Indexes)))
	}
	log.Info("structure change in the optimization", fields...)
}

func writeJSON(path, name string, m *macromol.Molecule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chemjson.Encode(f, name, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func report(w io.Writer, name string, m *macromol.Molecule, path string) {
	fmt.Fprintf(w, "%s\t%s\tatoms=%d bonds_made=%d conformers=%d %s\t%s\n", name, m.Topology.Key(), m.Len(), m.BondsMade, m.NConformers(), m.State(), path)
}
