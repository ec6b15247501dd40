/*
 * cache.go, part of gostk.
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

package macromol

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

//Cache keeps one Molecule per structural key, so equivalent requests
//return the same instance. A Cache is safe for concurrent use.
//Lookups hold a read lock on the enabled flag, so SetEnabled waits
//for the lookups in flight.
type Cache struct {
	toggle  sync.RWMutex
	enabled bool
	mu      sync.Mutex
	mols    map[string]*Molecule
	group   singleflight.Group
}

//NewCache returns an empty cache.
func NewCache(enabled bool) *Cache {
	return &Cache{enabled: enabled, mols: make(map[string]*Molecule)}
}

//SetEnabled turns the cache on or off. Turning it off doesn't clear it.
func (C *Cache) SetEnabled(enabled bool) {
	C.toggle.Lock()
	C.enabled = enabled
	C.toggle.Unlock()
}

func (C *Cache) Enabled() bool {
	C.toggle.RLock()
	defer C.toggle.RUnlock()
	return C.enabled
}

//Clear removes all the cached molecules.
func (C *Cache) Clear() {
	C.mu.Lock()
	C.mols = make(map[string]*Molecule)
	C.mu.Unlock()
}

//Len returns the number of cached molecules.
func (C *Cache) Len() int {
	C.mu.Lock()
	defer C.mu.Unlock()
	return len(C.mols)
}

func (C *Cache) lookup(key string) (*Molecule, bool) {
	C.mu.Lock()
	defer C.mu.Unlock()
	m, ok := C.mols[key]
	return m, ok
}

//get returns the molecule for key, building it if needed. Concurrent builds for
//the same key are collapsed into one. The second value is true if the molecule was already cached.
func (C *Cache) get(key string, build func() (*Molecule, error)) (*Molecule, bool, error) {
	C.toggle.RLock()
	defer C.toggle.RUnlock()
	if !C.enabled {
		m, err := build()
		return m, false, err
	}
	if m, ok := C.lookup(key); ok {
		return m, true, nil
	}
	hit := false
	v, err, _ := C.group.Do(key, func() (interface{}, error) {
		if m, ok := C.lookup(key); ok {
			hit = true
			return m, nil
		}
		m, err := build()
		if err != nil {
			return nil, err
		}
		C.mu.Lock()
		C.mols[key] = m
		C.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Molecule), hit, nil
}
