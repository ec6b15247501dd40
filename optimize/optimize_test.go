/*
 * optimize_test.go, part of gostk.
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

package optimize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/constraint"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/forcefield"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"
)

var dimerUnit struct {
	once sync.Once
	u    *bblock.Unit
	err  error
}

//dimer returns a new, unoptimized, dimer of 1,4-dibromobutane.
func dimer(Te *testing.T) *macromol.Molecule {
	dimerUnit.once.Do(func() {
		g, err := fgroup.Default().Get("bromine")
		if err != nil {
			dimerUnit.err = err
			return
		}
		dimerUnit.u, dimerUnit.err = bblock.FromSMILES("BrCCCCBr", g, bblock.Ditopic, nil)
	})
	require.NoError(Te, dimerUnit.err)
	m, err := macromol.New([]*bblock.Unit{dimerUnit.u}, &topology.Linear{N: 2}, macromol.Options{})
	require.NoError(Te, err)
	return m
}

func coords(Te *testing.T, m *macromol.Molecule) []float64 {
	c, err := m.Conformer(0)
	require.NoError(Te, err)
	return c.RawMatrix().Data
}

//fakeEngine stands in for MacroModel. Its "optimization" translates the structure.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	com      string
	shift    float64
	drop     bool
	block    bool
	noOutput bool
}

func (F *fakeEngine) Run(ctx context.Context, dir, program string, args ...string) error {
	prog := filepath.Base(program)
	F.mu.Lock()
	F.calls = append(F.calls, prog+" "+strings.Join(args, " "))
	F.mu.Unlock()
	switch prog {
	case "jserver":
		return nil
	case "structconvert":
		if args[0] != "-imae" {
			return os.WriteFile(filepath.Join(dir, args[2]), []byte("mae"), 0o644)
		}
		mol, err := chem.MolFileRead(filepath.Join(dir, "macromol.mol"))
		if err != nil {
			return err
		}
		mol.Coords[0].AddVec(mol.Coords[0], r3.Vec{X: F.shift})
		if F.drop {
			mol, _ = mol.RemoveAtoms([]int{0})
		}
		return chem.Mol2FileWrite(filepath.Join(dir, args[3]), mol, 0)
	case "bmin":
		com, err := os.ReadFile(filepath.Join(dir, args[1]+".com"))
		if err != nil {
			return err
		}
		F.mu.Lock()
		F.com = string(com)
		F.mu.Unlock()
		if F.block {
			<-ctx.Done()
			return ctx.Err()
		}
		if F.noOutput {
			return errors.New("bmin: no license available")
		}
		return os.WriteFile(filepath.Join(dir, args[1]+"-out.maegz"), []byte("maegz"), 0o644)
	}
	return fmt.Errorf("unexpected program %s", program)
}

func (F *fakeEngine) called(prefix string) int {
	F.mu.Lock()
	defer F.mu.Unlock()
	n := 0
	for _, c := range F.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestConstrainedRelax(Te *testing.T) {
	m := dimer(Te)
	before := coords(Te, m)
	set, err := constraint.Extract(m, 0)
	require.NoError(Te, err)
	fake := &fakeEngine{shift: 1}
	scratch := Te.TempDir()
	s := &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: scratch, Runner: fake}
	O := New(zaptest.NewLogger(Te), nil)
	require.NoError(Te, O.Optimize(context.Background(), s, m))
	assert.True(Te, m.Optimized())

	after := coords(Te, m)
	for i := 0; i < m.Len(); i++ {
		assert.InDelta(Te, before[3*i]+1, after[3*i], 1e-3)
		assert.InDelta(Te, before[3*i+1], after[3*i+1], 1e-3)
	}
	lines := strings.Split(fake.com, "\n")
	assert.Equal(Te, "macromol.mae", lines[0])
	assert.Equal(Te, "macromol-out.maegz", lines[1])
	counts := map[string]int{}
	for _, l := range lines {
		if len(l) > 5 {
			counts[l[1:5]]++
		}
	}
	assert.Equal(Te, set.Count(constraint.Distance), counts["FXDI"])
	assert.Equal(Te, set.Count(constraint.Angle), counts["FXBA"])
	assert.Equal(Te, set.Count(constraint.Torsion), counts["FXTA"])
	b := m.Bonds[0]
	assert.Contains(Te, fake.com, fmt.Sprintf(" FXDI %7d%7d      0      0   100.0000 ", b.At1+1, b.At2+1), "indexes start at 1")
	nb := m.NewBonds[0]
	assert.NotContains(Te, fake.com, fmt.Sprintf(" FXDI %7d%7d", nb[0]+1, nb[1]+1))
	assert.NotContains(Te, fake.com, fmt.Sprintf(" FXDI %7d%7d", nb[1]+1, nb[0]+1))
	assert.Contains(Te, fake.com, " MINI       1      0   2500      0     0.0000")
	assert.Equal(Te, 1, fake.called("jserver -cleanall"))
	assert.Equal(Te, 1, fake.called("bmin -WAIT macromol"))
	left, err := os.ReadDir(scratch)
	require.NoError(Te, err)
	assert.Empty(Te, left, "the scratch directory must be removed")
}

func TestConstrainedRelaxFailures(Te *testing.T) {
	ctx := context.Background()
	O := New(nil, nil)
	scratch := Te.TempDir()

	m := dimer(Te)
	before := coords(Te, m)
	fake := &fakeEngine{block: true}
	s := &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: scratch, Timeout: 50 * time.Millisecond, Runner: fake}
	err := O.Optimize(ctx, s, m)
	var timeout *OptimizationTimeoutError
	require.ErrorAs(Te, err, &timeout)
	assert.Equal(Te, macromol.Unoptimized, m.State())
	assert.Equal(Te, before, coords(Te, m))
	assert.Equal(Te, 1, fake.called("jserver -cleanall"), "the job server is cleaned even after a timeout")

	fake = &fakeEngine{drop: true}
	s = &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: scratch, Runner: fake}
	var mismatch *chem.StructureMismatchError
	require.ErrorAs(Te, O.Optimize(ctx, s, m), &mismatch)
	assert.Equal(Te, macromol.Unoptimized, m.State())
	assert.Equal(Te, before, coords(Te, m))

	fake = &fakeEngine{noOutput: true}
	s = &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: scratch, Runner: fake}
	var engine *EngineError
	require.ErrorAs(Te, O.Optimize(ctx, s, m), &engine)
	assert.Equal(Te, "bmin", engine.Step)
	assert.Equal(Te, 1, fake.called("jserver"))

	var noPath *EngineError
	require.ErrorAs(Te, O.Optimize(ctx, &ConstrainedRelax{Runner: fake}, m), &noPath)
	assert.Equal(Te, "configuration", noPath.Step)

	left, err := os.ReadDir(scratch)
	require.NoError(Te, err)
	assert.Empty(Te, left)
	//and it can be tried again
	s = &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: scratch, Runner: &fakeEngine{}}
	require.NoError(Te, O.Optimize(ctx, s, m))
	assert.True(Te, m.Optimized())
}

func TestRelax(Te *testing.T) {
	ctx := context.Background()
	O := New(zaptest.NewLogger(Te), nil)
	m := dimer(Te)
	require.NoError(Te, O.Optimize(ctx, &FastRelax{}, m))
	assert.True(Te, m.Optimized())
	nb := m.NewBonds[0]
	d := r3.Norm(r3.Sub(m.Coord(nb[0], 0), m.Coord(nb[1], 0)))
	assert.InDelta(Te, forcefield.IdealBondLength("C", "C", 1), d, 0.1)

	m = dimer(Te)
	set, err := constraint.Extract(m, 0)
	require.NoError(Te, err)
	require.NoError(Te, O.Optimize(ctx, &RestrainedRelax{}, m))
	assert.True(Te, m.Optimized())
	for _, c := range set.Fixed {
		if c.Kind != constraint.Distance {
			continue
		}
		now := r3.Norm(r3.Sub(m.Coord(c.Atoms[0], 0), m.Coord(c.Atoms[1], 0)))
		assert.InDelta(Te, c.Value, now, 0.05, c.String())
	}
}

func TestIdempotence(Te *testing.T) {
	ctx := context.Background()
	O := New(nil, nil)
	m := dimer(Te)
	require.NoError(Te, O.Optimize(ctx, &FastRelax{}, m))
	before := coords(Te, m)
	fake := &fakeEngine{shift: 1}
	for _, s := range []Strategy{&FastRelax{}, &RestrainedRelax{}, &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", Runner: fake}, Skip{}} {
		require.NoError(Te, O.Optimize(ctx, s, m))
		assert.Equal(Te, before, coords(Te, m), s.Name())
		assert.True(Te, m.Optimized())
	}
	assert.Empty(Te, fake.calls)
}

func TestBatch(Te *testing.T) {
	ctx := context.Background()
	O := New(nil, nil)
	mols := make([]*macromol.Molecule, 10)
	before := make([][]float64, len(mols))
	for i := range mols {
		mols[i] = dimer(Te)
		before[i] = coords(Te, mols[i])
	}
	require.NoError(Te, O.OptimizeAll(ctx, Skip{}, mols, BatchOptions{Parallel: true, Workers: 4}))
	for i, m := range mols {
		assert.False(Te, m.Optimized())
		assert.Equal(Te, before[i], coords(Te, m))
	}

	//failures don't stop the other molecules
	require.NoError(Te, O.Optimize(ctx, &FastRelax{}, mols[0]))
	for _, parallel := range []bool{false, true} {
		fake := &fakeEngine{noOutput: true}
		s := &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: Te.TempDir(), Runner: fake}
		err := O.OptimizeAll(ctx, s, mols[:4], BatchOptions{Parallel: parallel})
		errs := multierr.Errors(err)
		assert.Len(Te, errs, 3, "parallel: %v", parallel)
		for _, e := range errs {
			var engine *EngineError
			assert.ErrorAs(Te, e, &engine)
		}
		assert.Equal(Te, 3, fake.called("bmin"))
	}
	good := &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: Te.TempDir(), Runner: &fakeEngine{}}
	require.NoError(Te, O.OptimizeAll(ctx, good, mols, BatchOptions{Parallel: true}))
	for _, m := range mols {
		assert.True(Te, m.Optimized())
	}
}

func TestFromDescriptor(Te *testing.T) {
	s, err := FromDescriptor(Descriptor{Name: "constrained_relax", Params: map[string]interface{}{
		"macromodel_path": "/opt/schrodinger",
		"timeout":         "90s",
		"max_steps":       "100",
		"keep_files":      true,
	}})
	require.NoError(Te, err)
	c, ok := s.(*ConstrainedRelax)
	require.True(Te, ok)
	assert.Equal(Te, "/opt/schrodinger", c.MacroModelPath)
	assert.Equal(Te, 90*time.Second, c.Timeout)
	assert.Equal(Te, 100, c.MaxSteps)
	assert.True(Te, c.KeepFiles)

	for name, want := range map[string]string{
		"fast_relax":         "fast_relax",
		"rdkit_optimization": "fast_relax",
		"macromodel_opt":     "constrained_relax",
		"restrained_relax":   "restrained_relax",
		"do_not_optimize":    "skip",
		"Skip":               "skip",
	} {
		s, err := FromDescriptor(Descriptor{Name: name})
		require.NoError(Te, err, name)
		assert.Equal(Te, want, s.Name())
	}
	s, err = FromDescriptor(Descriptor{Name: "fast_relax", Params: map[string]interface{}{"max_iterations": 50}})
	require.NoError(Te, err)
	assert.Equal(Te, 50, s.(*FastRelax).MaxIterations)

	for _, d := range []Descriptor{
		{Name: "simulated_annealing"},
		{Name: "fast_relax", Params: map[string]interface{}{"temperature": 300}},
		{Name: "skip", Params: map[string]interface{}{"max_iterations": 3}},
		{Name: "constrained_relax", Params: map[string]interface{}{"timeout": "soon"}},
	} {
		_, err := FromDescriptor(d)
		assert.Error(Te, err, d.Name)
	}
	assert.Error(Te, New(nil, nil).Run(context.Background(), Descriptor{Name: "nope"}, nil, BatchOptions{}))
}

func TestMetrics(Te *testing.T) {
	reg := prometheus.NewRegistry()
	M, err := NewMetrics(reg)
	require.NoError(Te, err)
	_, err = NewMetrics(reg)
	assert.Error(Te, err, "the collectors can only be registered once")
	O := New(nil, M)
	ctx := context.Background()
	m := dimer(Te)
	require.NoError(Te, O.Optimize(ctx, Skip{}, m))
	require.NoError(Te, O.Optimize(ctx, &FastRelax{}, m))
	require.NoError(Te, O.Optimize(ctx, &FastRelax{}, m))
	assert.Equal(Te, 1.0, testutil.ToFloat64(M.runs.WithLabelValues("skip", outcomeSkipped)))
	assert.Equal(Te, 1.0, testutil.ToFloat64(M.runs.WithLabelValues("fast_relax", outcomeSuccess)))
	assert.Equal(Te, 1.0, testutil.ToFloat64(M.runs.WithLabelValues("fast_relax", outcomeNoop)))
	assert.Equal(Te, 1, testutil.CollectAndCount(M.duration))

	m = dimer(Te)
	fail := &ConstrainedRelax{MacroModelPath: "/opt/schrodinger", ScratchDir: Te.TempDir(), Runner: &fakeEngine{noOutput: true}}
	assert.Error(Te, O.Optimize(ctx, fail, m))
	assert.Equal(Te, 1.0, testutil.ToFloat64(M.runs.WithLabelValues("constrained_relax", outcomeFailure)))
}
