/*
 * job.go, part of gostk.
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
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/internal/config"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/optimize"
	"github.com/rmera/gostk/topology"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//Block describes a building block: a SMILES string or a structure file,
//plus, optionally, files with more conformers.
type Block struct {
	SMILES          string   `yaml:"smiles"`
	File            string   `yaml:"file"`
	FunctionalGroup string   `yaml:"functional_group"`
	Kind            string   `yaml:"kind"`
	Conformers      []string `yaml:"conformers"`
}

type TopologySpec struct {
	Name   string                 `yaml:"name"`
	Params map[string]interface{} `yaml:"params"`
}

//Job describes one macromolecule to build. Conformers selects the conformer of each
//building block for the first conformer of the molecule; ExtraConformers adds more.
type Job struct {
	Name            string               `yaml:"name"`
	BuildingBlocks  []Block              `yaml:"building_blocks"`
	Topology        TopologySpec         `yaml:"topology"`
	Assignments     map[int][]int        `yaml:"assignments"`
	Conformers      []int                `yaml:"conformers"`
	ExtraConformers [][]int              `yaml:"extra_conformers"`
	Optimization    *optimize.Descriptor `yaml:"optimization"`
	Output          string               `yaml:"output"`

	dir string //relative paths in the job are relative to this directory
}

//LoadJob reads a job file. Unknown keys are errors.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	J := &Job{}
	if err := dec.Decode(J); err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}
	J.dir = filepath.Dir(path)
	if J.Name == "" {
		base := filepath.Base(path)
		J.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	if len(J.BuildingBlocks) == 0 {
		return nil, fmt.Errorf("job %s: no building blocks", path)
	}
	if J.Topology.Name == "" {
		return nil, fmt.Errorf("job %s: no topology", path)
	}
	return J, nil
}

func (J *Job) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(J.dir, p)
}

//OutputPath is where the molecule goes: the job's output, or the job name with a .mol extension.
func (J *Job) OutputPath() string {
	if J.Output != "" {
		return J.path(J.Output)
	}
	return J.path(J.Name + ".mol")
}

//Units builds the building blocks of the job, with the functional groups of reg,
//or of the default registry if reg is nil.
func (J *Job) Units(reg *fgroup.Registry) ([]*bblock.Unit, error) {
	if reg == nil {
		reg = fgroup.Default()
	}
	units := make([]*bblock.Unit, 0, len(J.BuildingBlocks))
	for i, b := range J.BuildingBlocks {
		fg, err := reg.Get(b.FunctionalGroup)
		if err != nil {
			return nil, fmt.Errorf("building block %d: %w", i, err)
		}
		kind, err := bblock.ParseKind(b.Kind)
		if err != nil {
			return nil, fmt.Errorf("building block %d: %w", i, err)
		}
		var U *bblock.Unit
		switch {
		case b.SMILES != "" && b.File != "":
			return nil, fmt.Errorf("building block %d: give either smiles or file, not both", i)
		case b.SMILES != "":
			U, err = bblock.FromSMILES(b.SMILES, fg, kind, nil)
		case b.File != "":
			U, err = bblock.FromFile(J.path(b.File), fg, kind)
		default:
			return nil, fmt.Errorf("building block %d: no smiles or file", i)
		}
		if err != nil {
			return nil, fmt.Errorf("building block %d: %w", i, err)
		}
		for _, c := range b.Conformers {
			if _, err := U.UpdateFromFile(J.path(c)); err != nil {
				return nil, fmt.Errorf("building block %d, conformer %s: %w", i, c, err)
			}
		}
		units = append(units, U)
	}
	return units, nil
}

//Build assembles the macromolecule of the job.
func (J *Job) Build(reg *fgroup.Registry, cache *macromol.Cache, log *zap.Logger) (*macromol.Molecule, error) {
	units, err := J.Units(reg)
	if err != nil {
		return nil, err
	}
	top, err := topology.Lookup(J.Topology.Name, J.Topology.Params)
	if err != nil {
		return nil, err
	}
	m, err := macromol.New(units, top, macromol.Options{
		Conformers:  J.Conformers,
		Assignments: J.Assignments,
		Cache:       cache,
		Registry:    reg,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	//a molecule from the cache may have them already
	for i := m.NConformers() - 1; i < len(J.ExtraConformers); i++ {
		confs, err := canonicalConformers(m, units, J.ExtraConformers[i])
		if err != nil {
			return nil, fmt.Errorf("extra conformer %d: %w", i, err)
		}
		if _, err := m.AddConformer(confs); err != nil {
			return nil, fmt.Errorf("extra conformer %d: %w", i, err)
		}
	}
	return m, nil
}

//canonicalConformers translates a conformer selection given in the order of units
//to the order of m.BuildingBlocks.
func canonicalConformers(m *macromol.Molecule, units []*bblock.Unit, confs []int) ([]int, error) {
	if len(confs) != len(units) {
		return nil, fmt.Errorf("%d conformers selected for %d building blocks", len(confs), len(units))
	}
	ret := make([]int, len(m.BuildingBlocks))
	set := make([]bool, len(m.BuildingBlocks))
	for i, u := range units {
		for k, b := range m.BuildingBlocks {
			if b != u && !b.Same(u) {
				continue
			}
			if set[k] && ret[k] != confs[i] {
				return nil, fmt.Errorf("building block %d is given twice, with conformers %d and %d", i, ret[k], confs[i])
			}
			ret[k], set[k] = confs[i], true
			break
		}
	}
	return ret, nil
}

//strategy returns the strategy described by d, with the MacroModel settings
//not given in d taken from the configuration.
func strategy(d optimize.Descriptor, cfg *config.Config) (optimize.Strategy, error) {
	s, err := optimize.FromDescriptor(d)
	if err != nil {
		return nil, err
	}
	if c, ok := s.(*optimize.ConstrainedRelax); ok {
		if c.MacroModelPath == "" {
			c.MacroModelPath = cfg.MacroModel.Path
		}
		if c.Timeout == 0 {
			c.Timeout = cfg.MacroModel.Timeout
		}
		if c.ScratchDir == "" {
			c.ScratchDir = cfg.MacroModel.ScratchDir
		}
		c.KeepFiles = c.KeepFiles || cfg.MacroModel.KeepFiles
	}
	return s, nil
}
