/*
 * macromol.go, part of gostk.
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

//Package macromol contains the assembled macromolecule: the merged structure,
//where each of its atoms and bonds came from, its optimization state and
//the fitness values that callers attach to it.
package macromol

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	chem "github.com/rmera/gostk"
	"github.com/rmera/gostk/assembly"
	"github.com/rmera/gostk/bblock"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/topology"
	v3 "github.com/rmera/gostk/v3"
	"go.uber.org/zap"
)

//State of the optimization of a molecule.
type State int32

const (
	Unoptimized State = iota
	Optimizing
	Optimized
)

func (S State) String() string {
	switch S {
	case Optimizing:
		return "optimizing"
	case Optimized:
		return "optimized"
	}
	return "unoptimized"
}

//Options for the construction of a Molecule.
//Conformers and Assignments refer to the building blocks in the order given to New.
type Options struct {
	Conformers  []int
	Assignments map[int][]int
	Cache       *Cache //nil means no caching
	Registry    *fgroup.Registry
	Logger      *zap.Logger
}

//Molecule is an assembled macromolecule. It owns its merged structure, which the optimizers
//modify in place (coordinates only). The building blocks are shared, and never modified.
type Molecule struct {
	*chem.Molecule
	BuildingBlocks []*bblock.Unit //unique, in canonical order
	Counts         []int          //copies of each building block
	Topology       topology.Topology
	BondsMade      int
	Provenance     []assembly.AtomOrigin
	BondProvenance []assembly.BondKind
	NewBonds       [][2]int

	//Set by the caller, not used by gostk.
	Fitness         *float64
	UnscaledFitness []float64
	ProgressParams  []float64

	key    string
	state  int32
	mu     sync.Mutex
	result *assembly.Result
}

//Error is the error type for macromol.
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

//request is a construction request, with the building blocks in canonical order.
type request struct {
	units       []*bblock.Unit
	conformers  []int
	assignments map[int][]int
}

//canonical sorts the building blocks by their keys, merges equivalent ones and
//translates the conformer selection and the assignments to the new order.
func canonical(units []*bblock.Unit, O Options) (*request, error) {
	if O.Conformers != nil && len(O.Conformers) != len(units) {
		return nil, &Error{msg: fmt.Sprintf("%d conformers selected for %d building blocks", len(O.Conformers), len(units)), deco: []string{"canonical"}}
	}
	order := make([]int, len(units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return units[order[i]].Key() < units[order[j]].Key() })
	R := &request{}
	pos := make([]int, len(units))
	for _, i := range order {
		u := units[i]
		conf := 0
		if O.Conformers != nil {
			conf = O.Conformers[i]
		}
		last := len(R.units) - 1
		if last >= 0 && R.units[last].Key() == u.Key() && (R.units[last] == u || R.units[last].Same(u)) {
			if R.conformers[last] != conf {
				return nil, &Error{msg: fmt.Sprintf("Building block %d is given twice, with conformers %d and %d", i, R.conformers[last], conf), deco: []string{"canonical"}}
			}
			pos[i] = last
			continue
		}
		pos[i] = len(R.units)
		R.units = append(R.units, u)
		R.conformers = append(R.conformers, conf)
	}
	if O.Assignments != nil {
		R.assignments = make(map[int][]int)
		for u, vs := range O.Assignments {
			if u < 0 || u >= len(units) {
				return nil, topology.NewIncompatibleTopologyError("", -1, -1, fmt.Sprintf("Assignment for building block %d, but only %d were given", u, len(units)), "canonical")
			}
			R.assignments[pos[u]] = append(R.assignments[pos[u]], vs...)
		}
		for _, vs := range R.assignments {
			sort.Ints(vs)
		}
	}
	return R, nil
}

//key identifies the structure requested, regardless of the order of the building blocks.
func (R *request) key(top topology.Topology) string {
	var b strings.Builder
	b.WriteString(top.Key())
	for _, u := range R.units {
		b.WriteString("|" + u.Key())
	}
	if R.assignments != nil {
		us := make([]int, 0, len(R.assignments))
		for u := range R.assignments {
			us = append(us, u)
		}
		sort.Ints(us)
		for _, u := range us {
			b.WriteString(fmt.Sprintf("|%d:%v", u, R.assignments[u]))
		}
	}
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

//New returns the macromolecule formed by the building blocks units on the topology top.
//With a cache, an equivalent molecule assembled before is returned instead, if there is one.
//The order of units doesn't matter.
func New(units []*bblock.Unit, top topology.Topology, O Options) (*Molecule, error) {
	log := O.Logger
	if log == nil {
		log = zap.NewNop()
	}
	req, err := canonical(units, O)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	key := req.key(top)
	build := func() (*Molecule, error) {
		return assemble(req, top, key, O.Registry, log)
	}
	if O.Cache == nil {
		m, err := build()
		return m, errDecorate(err, "New")
	}
	m, hit, err := O.Cache.get(key, build)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	if hit {
		log.Debug("macromolecule taken from the cache", zap.String("key", key))
	}
	return m, nil
}

func assemble(req *request, top topology.Topology, key string, reg *fgroup.Registry, log *zap.Logger) (*Molecule, error) {
	res, err := assembly.Assemble(req.units, top, assembly.Options{Conformers: req.conformers, Assignments: req.assignments, Registry: reg, Logger: log})
	if err != nil {
		return nil, err
	}
	M := &Molecule{
		Molecule:       res.Mol,
		BuildingBlocks: req.units,
		Counts:         make([]int, len(req.units)),
		Topology:       top,
		BondsMade:      res.BondsMade,
		Provenance:     res.Atoms,
		BondProvenance: res.Bonds,
		NewBonds:       res.NewBonds,
		key:            key,
		result:         res,
	}
	for _, u := range res.Plan.Assignment {
		M.Counts[u]++
	}
	log.Info("macromolecule assembled", zap.String("topology", top.Key()), zap.String("key", key), zap.Int("atoms", M.Len()), zap.Int("bonds_made", M.BondsMade))
	return M, nil
}

//Key is the structural identity of the molecule.
func (M *Molecule) Key() string { return M.key }

//State returns the current optimization state.
func (M *Molecule) State() State { return State(atomic.LoadInt32(&M.state)) }

//Optimized returns true if the molecule has been optimized.
func (M *Molecule) Optimized() bool { return M.State() == Optimized }

//BeginOptimization puts an unoptimized molecule in the Optimizing state and returns true.
//It returns false, and does nothing, if the molecule is being, or has been, optimized.
func (M *Molecule) BeginOptimization() bool {
	return atomic.CompareAndSwapInt32(&M.state, int32(Unoptimized), int32(Optimizing))
}

//EndOptimization leaves an Optimizing molecule as Optimized, if success is true,
//or as Unoptimized otherwise.
func (M *Molecule) EndOptimization(success bool) {
	next := Unoptimized
	if success {
		next = Optimized
	}
	atomic.CompareAndSwapInt32(&M.state, int32(Optimizing), int32(next))
}

//Conformer returns a copy of the coordinates of the conformer conf.
func (M *Molecule) Conformer(conf int) (*v3.Matrix, error) {
	M.mu.Lock()
	defer M.mu.Unlock()
	if conf < 0 || conf >= M.NConformers() {
		return nil, &Error{msg: fmt.Sprintf("No conformer %d", conf), deco: []string{"Conformer"}}
	}
	return M.Coords[conf].Clone(), nil
}

//SetConformer replaces the coordinates of the conformer conf with c.
func (M *Molecule) SetConformer(conf int, c *v3.Matrix) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	if conf < 0 || conf >= M.NConformers() {
		return &Error{msg: fmt.Sprintf("No conformer %d", conf), deco: []string{"SetConformer"}}
	}
	if c.NVecs() != M.Len() {
		return &Error{msg: fmt.Sprintf("%d coordinates for %d atoms", c.NVecs(), M.Len()), deco: []string{"SetConformer"}}
	}
	M.Coords[conf] = c.Clone()
	return nil
}

//AddConformer places the building blocks again, using the given conformer of each (in the order
//of BuildingBlocks), and appends the resulting coordinates as a new conformer, whose index is returned.
//The connectivity is not changed.
func (M *Molecule) AddConformer(conformers []int) (int, error) {
	c, err := M.result.Reposition(conformers)
	if err != nil {
		return -1, errDecorate(err, "AddConformer")
	}
	M.mu.Lock()
	defer M.mu.Unlock()
	if err := M.Molecule.AddConformer(c); err != nil {
		return -1, errDecorate(err, "AddConformer")
	}
	return M.NConformers() - 1, nil
}

//Write writes the conformer conf to path. The format is given by the extension:
//.mol or .sdf, .mol2, .xyz (optionally followed by .gz or .zst).
func (M *Molecule) Write(path string, conf int) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	if conf < 0 || conf >= M.NConformers() {
		return &Error{msg: fmt.Sprintf("No conformer %d", conf), deco: []string{"Write"}}
	}
	var err error
	switch ext := filepath.Ext(strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")); strings.ToLower(ext) {
	case ".mol", ".sdf":
		err = chem.MolFileWrite(path, M.Molecule, conf)
	case ".mol2":
		err = chem.Mol2FileWrite(path, M.Molecule, conf)
	case ".xyz":
		one := *M.Molecule
		one.Coords = []*v3.Matrix{M.Coords[conf]}
		err = chem.XYZFileWrite(path, &one)
	default:
		return &Error{msg: fmt.Sprintf("Unknown format for %s", path), deco: []string{"Write"}}
	}
	return errDecorate(err, "Write")
}

//WriteConformers writes all the conformers to a multi-frame xyz file.
func (M *Molecule) WriteConformers(path string) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	return errDecorate(chem.XYZFileWrite(path, M.Molecule), "WriteConformers")
}

//BuildingBlockCores returns, for each copy of the building block i in the molecule,
//the fragment formed by its atoms, without hydrogens and deleters.
func (M *Molecule) BuildingBlockCores(i int) ([]*chem.Molecule, error) {
	if i < 0 || i >= len(M.BuildingBlocks) {
		return nil, &Error{msg: fmt.Sprintf("No building block %d", i), deco: []string{"BuildingBlockCores"}}
	}
	M.mu.Lock()
	defer M.mu.Unlock()
	var ret []*chem.Molecule
	for v, u := range M.result.Plan.Assignment {
		if u != i {
			continue
		}
		var keep []int
		for k, o := range M.Provenance {
			if o.Vertex == v && o.Role != bblock.Deleter && M.Atoms[k].Symbol != "H" {
				keep = append(keep, k)
			}
		}
		frag, _ := M.Subgraph(keep)
		ret = append(ret, frag)
	}
	return ret, nil
}

//Less orders molecules by fitness. A molecule without fitness is less than
//any molecule with one.
func (M *Molecule) Less(o *Molecule) bool {
	if M.Fitness == nil {
		return o.Fitness != nil
	}
	if o.Fitness == nil {
		return false
	}
	return *M.Fitness < *o.Fitness
}

//Equal returns true if both molecules have the same fitness, or neither has one.
//It says nothing about their structures; use Key for that.
func (M *Molecule) Equal(o *Molecule) bool {
	if M.Fitness == nil || o.Fitness == nil {
		return M.Fitness == nil && o.Fitness == nil
	}
	return *M.Fitness == *o.Fitness
}

//ByFitness sorts molecules by increasing fitness.
type ByFitness []*Molecule

func (B ByFitness) Len() int           { return len(B) }
func (B ByFitness) Less(i, j int) bool { return B[i].Less(B[j]) }
func (B ByFitness) Swap(i, j int)      { B[i], B[j] = B[j], B[i] }

func (M *Molecule) String() string {
	names := make([]string, len(M.BuildingBlocks))
	for i, u := range M.BuildingBlocks {
		names[i] = fmt.Sprintf("%s x%d", u.Name, M.Counts[i])
	}
	return fmt.Sprintf("%s [%s] (%s)", M.Topology.Key(), strings.Join(names, ", "), M.State())
}
