/*
 * macromodel.go, part of gostk.
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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/constraint"
	"github.com/rmera/gostk/macromol"
	v3 "github.com/rmera/gostk/v3"
	"go.uber.org/zap"
)

//Runner runs external programs. The program is considered to have succeeded
//only if its expected output exists, so the returned error is informative only.
type Runner interface {
	Run(ctx context.Context, dir, program string, args ...string) error
}

//ExecRunner runs programs with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", program, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

const (
	DefaultMacroModelTimeout = 2 * time.Hour
	DefaultMaxSteps          = 2500
	DefaultForceField        = 16 //OPLS
	cleanupTimeout           = 30 * time.Second
	basename                 = "macromol"
)

//ConstrainedRelax optimizes the structure with MacroModel, keeping every bond length, bond
//angle and torsion that the assembly didn't create fixed (see the constraint package).
//MacroModelPath is the directory of the Schrodinger installation.
type ConstrainedRelax struct {
	MacroModelPath string        `mapstructure:"macromodel_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ScratchDir     string        `mapstructure:"scratch_dir"`
	KeepFiles      bool          `mapstructure:"keep_files"`
	MaxSteps       int           `mapstructure:"max_steps"`
	ForceField     int           `mapstructure:"force_field"`
	Runner         Runner        `mapstructure:"-"`
}

func (C *ConstrainedRelax) Name() string { return "constrained_relax" }

func (C *ConstrainedRelax) runner() Runner {
	if C.Runner == nil {
		return ExecRunner{}
	}
	return C.Runner
}

func (C *ConstrainedRelax) structconvert() string {
	return filepath.Join(C.MacroModelPath, "utilities", "structconvert")
}

func (C *ConstrainedRelax) relax(ctx context.Context, O *Optimizer, m *macromol.Molecule) error {
	if C.MacroModelPath == "" {
		return &EngineError{Molecule: m.Key(), Step: "configuration", err: errors.New("no MacroModel path given"), deco: []string{"relax"}}
	}
	timeout := C.Timeout
	if timeout <= 0 {
		timeout = DefaultMacroModelTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for conf := 0; conf < m.NConformers(); conf++ {
		err := C.conformer(ctx, O, m, conf)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &OptimizationTimeoutError{Molecule: m.Key(), Timeout: timeout, deco: []string{"relax"}}
		}
		if err != nil {
			return errDecorate(err, "relax")
		}
	}
	return nil
}

//conformer runs one MacroModel optimization in its own scratch directory,
//which is removed, together with the MacroModel job server, when it returns.
func (C *ConstrainedRelax) conformer(ctx context.Context, O *Optimizer, m *macromol.Molecule, conf int) error {
	fail := func(step string, e error) error {
		return &EngineError{Molecule: m.Key(), Step: step, err: e, deco: []string{"conformer"}}
	}
	dir := filepath.Join(C.ScratchDir, "gostk-"+uuid.NewString())
	if C.ScratchDir == "" {
		dir = filepath.Join(os.TempDir(), "gostk-"+uuid.NewString())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail("scratch", err)
	}
	log := O.log.With(zap.String("molecule", m.Key()), zap.String("dir", dir), zap.Int("conformer", conf))
	run := C.runner()
	defer func() {
		//MacroModel leaves a job server behind which locks the directory
		cctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if e := run.Run(cctx, dir, filepath.Join(C.MacroModelPath, "utilities", "jserver"), "-cleanall"); e != nil {
			log.Warn("jserver cleanup failed", zap.Error(e))
		}
		if C.KeepFiles {
			return
		}
		if e := os.RemoveAll(dir); e != nil {
			log.Warn("can't remove scratch directory", zap.Error(e))
		}
	}()
	c, err := m.Conformer(conf)
	if err != nil {
		return err
	}
	work := m.Molecule.Copy()
	work.Coords = []*v3.Matrix{c}
	set, err := constraint.Partition(work, m.NewBonds, 0)
	if err != nil {
		return fail("constraints", err)
	}
	path := func(ext string) string { return filepath.Join(dir, basename+ext) }
	if err := chem.MolFileWrite(path(".mol"), work, 0); err != nil {
		return fail("export", err)
	}
	if err := C.step(ctx, run, dir, path(".mae"), log, C.structconvert(), basename+".mol", "-omae", basename+".mae"); err != nil {
		return fail("structconvert", err)
	}
	if err := os.WriteFile(path(".com"), []byte(C.comFile(set)), 0o644); err != nil {
		return fail("com", err)
	}
	if err := C.step(ctx, run, dir, path("-out.maegz"), log, filepath.Join(C.MacroModelPath, "bmin"), "-WAIT", basename); err != nil {
		return fail("bmin", err)
	}
	if err := C.step(ctx, run, dir, path(".mol2"), log, C.structconvert(), "-imae", basename+"-out.maegz", "-omol2", basename+".mol2"); err != nil {
		return fail("structconvert", err)
	}
	back, err := chem.Mol2FileRead(path(".mol2"))
	if err != nil {
		return fail("import", err)
	}
	if err := chem.CheckSameStructure(work, back); err != nil {
		return errDecorate(err, "conformer")
	}
	return m.SetConformer(conf, back.Coords[0])
}

//step runs the program and checks that it produced the file output.
func (C *ConstrainedRelax) step(ctx context.Context, run Runner, dir, output string, log *zap.Logger, program string, args ...string) error {
	rerr := run.Run(ctx, dir, program, args...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := os.Stat(output); err != nil {
		if rerr != nil {
			return rerr
		}
		return fmt.Errorf("%s didn't produce %s", filepath.Base(program), filepath.Base(output))
	}
	if rerr != nil {
		log.Warn("engine reported an error, but its output is present", zap.String("program", program), zap.Error(rerr))
	}
	return nil
}

//comLine formats one line of a MacroModel command file.
func comLine(op string, i [4]int, f [4]float64) string {
	return fmt.Sprintf(" %-4s %7d%7d%7d%7d %10.4f %10.4f %10.4f %10.4f\n", op, i[0], i[1], i[2], i[3], f[0], f[1], f[2], f[3])
}

//FixForceConstant of the FX directives.
const FixForceConstant = 100.0

//fixLines returns the FXDI, FXBA and FXTA directives for the fixed coordinates of set.
//MacroModel atom indexes start at 1.
func fixLines(set *constraint.Set) string {
	var b strings.Builder
	for _, kind := range []constraint.Kind{constraint.Distance, constraint.Angle, constraint.Torsion} {
		for _, c := range set.Fixed {
			if c.Kind != kind {
				continue
			}
			var idx [4]int
			for k, a := range c.Atoms {
				idx[k] = a + 1
			}
			op := [...]string{"FXDI", "FXBA", "FXTA"}[kind]
			b.WriteString(comLine(op, idx, [4]float64{FixForceConstant, c.Value, 0, 0}))
		}
	}
	return b.String()
}

func (C *ConstrainedRelax) comFile(set *constraint.Set) string {
	steps := C.MaxSteps
	if steps <= 0 {
		steps = DefaultMaxSteps
	}
	ff := C.ForceField
	if ff <= 0 {
		ff = DefaultForceField
	}
	var b strings.Builder
	b.WriteString(basename + ".mae\n")
	b.WriteString(basename + "-out.maegz\n")
	b.WriteString(comLine("MMOD", [4]int{0, 1, 0, 0}, [4]float64{}))
	b.WriteString(comLine("DEBG", [4]int{55, 0, 0, 0}, [4]float64{}))
	b.WriteString(comLine("FFLD", [4]int{ff, 1, 0, 0}, [4]float64{1, 0, 0, 0}))
	b.WriteString(comLine("BDCO", [4]int{}, [4]float64{41.5692, 99999, 0, 0}))
	b.WriteString(comLine("CRMS", [4]int{}, [4]float64{0, 0.5, 0, 0}))
	b.WriteString(comLine("BGIN", [4]int{}, [4]float64{}))
	b.WriteString(comLine("READ", [4]int{}, [4]float64{}))
	b.WriteString(fixLines(set))
	b.WriteString(comLine("CONV", [4]int{2, 0, 0, 0}, [4]float64{0.05, 0, 0, 0}))
	b.WriteString(comLine("MINI", [4]int{1, 0, steps, 0}, [4]float64{}))
	b.WriteString(comLine("END", [4]int{}, [4]float64{}))
	return b.String()
}
