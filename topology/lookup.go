/*
 * lookup.go, part of gostk.
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

package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var builders = map[string]func() Topology{
	"linear":            func() Topology { return &Linear{} },
	"two_plus_two":      func() Topology { return TwoPlusTwo{} },
	"four_plus_four":    func() Topology { return FourPlusFour{} },
	"two_plus_three":    func() Topology { return TwoPlusThree{} },
	"four_plus_six":     func() Topology { return FourPlusSix{} },
	"eight_plus_twelve": func() Topology { return EightPlusTwelve{} },
	"two_plus_four":     func() Topology { return TwoPlusFour{} },
	"six_plus_twelve":   func() Topology { return SixPlusTwelve{} },
	"honeycomb":         func() Topology { return &Honeycomb{} },
	"square":            func() Topology { return &Square{} },
}

//Names returns the names accepted by Lookup.
func Names() []string {
	ret := make([]string, 0, len(builders))
	for n := range builders {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

//Lookup returns the topology with the given name (such as "linear" or "four_plus_six";
//CamelCase names like "FourPlusSix" also work) and parameters. Parameters are
//matched to the fields of the topology, for instance repeat, orientation and n for
//linear chains, or nx, ny and direct for nets.
func Lookup(name string, params map[string]interface{}) (Topology, error) {
	b, ok := builders[snake(name)]
	if !ok {
		return nil, &IncompatibleTopologyError{Topology: name, Vertex: -1, Edge: -1, msg: "Unknown topology", deco: []string{"Lookup"}}
	}
	t := b()
	if len(params) == 0 {
		return t, nil
	}
	switch t.(type) {
	case *Linear, *Honeycomb, *Square:
	default:
		return nil, &IncompatibleTopologyError{Topology: name, Vertex: -1, Edge: -1, msg: "Topology takes no parameters", deco: []string{"Lookup"}}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, ErrorUnused: true, Result: t})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(params); err != nil {
		return nil, &IncompatibleTopologyError{Topology: name, Vertex: -1, Edge: -1, msg: fmt.Sprintf("Bad parameters: %v", err), deco: []string{"Lookup"}}
	}
	return t, nil
}

//snake turns FourPlusSix into four_plus_six.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(strings.ToLower(b.String()), "-", "_")
}
