/*
 * atomicdata.go, part of gostk.
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

package chem

//A map for assigning mass to elements.
//Note that just common organic elements are present
var symbolMass = map[string]float64{
	"H":  1.008,
	"B":  10.81,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"Se": 78.96,
	"Cl": 35.45,
	"Si": 28.08,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
	"Zn": 65.38,
	"Cu": 63.55,
	"Fe": 55.84,
	"Pd": 106.42,
}

//A map for assigning covalent radii to elements
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J)
var symbolCovrad = map[string]float64{
	"H":  0.31,
	"B":  0.84,
	"C":  0.76, //the sp3 radius
	"O":  0.66,
	"N":  0.71,
	"P":  1.07,
	"S":  1.05,
	"Se": 1.2,
	"Cl": 1.02,
	"Si": 1.11,
	"F":  0.57,
	"Br": 1.2,
	"I":  1.39,
	"Zn": 1.22,
	"Cu": 1.32,
	"Fe": 1.52,
	"Pd": 1.39,
}

//A map for assigning van der Waals radii to elements
//Values from 10.1021/j100785a001 and 10.1021/jp8111556
var symbolVdwrad = map[string]float64{
	"H":  1.10,
	"B":  1.92,
	"C":  1.70,
	"O":  1.52,
	"N":  1.55,
	"P":  1.80,
	"S":  1.80,
	"Se": 1.90,
	"Cl": 1.75,
	"Si": 2.10,
	"F":  1.47,
	"Br": 1.83,
	"I":  1.98,
	"Zn": 2.02,
	"Cu": 2.00,
	"Fe": 1.96,
	"Pd": 2.05,
}

//Allowed valences for the neutral atoms, smallest first.
var symbolValences = map[string][]int{
	"H":  {1},
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"F":  {1},
	"Si": {4},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"Se": {2, 4, 6},
	"Cl": {1},
	"Br": {1},
	"I":  {1, 3, 5},
}

//CovalentRadius returns the covalent radius of the element, in A.
//Unknown elements get the radius of carbon.
func CovalentRadius(symbol string) float64 {
	if r, ok := symbolCovrad[symbol]; ok {
		return r
	}
	return symbolCovrad["C"]
}

//VdwRadius returns the van der Waals radius of the element, in A.
//Unknown elements get the radius of carbon.
func VdwRadius(symbol string) float64 {
	if r, ok := symbolVdwrad[symbol]; ok {
		return r
	}
	return symbolVdwrad["C"]
}

//KnownElement returns true if the symbol is in the element tables.
func KnownElement(symbol string) bool {
	_, ok := symbolMass[symbol]
	return ok
}

//Valences returns the allowed valences of an atom with the given element and
//formal charge. It returns nil for elements without defined valences (metals).
func Valences(symbol string, charge int) []int {
	base, ok := symbolValences[symbol]
	if !ok {
		return nil
	}
	if charge == 0 {
		return base
	}
	ret := make([]int, 0, len(base))
	for _, v := range base {
		var n int
		switch symbol {
		case "N", "P", "O", "S", "Se":
			n = v + charge //N+ is tetravalent, O- monovalent
		case "B":
			n = v - charge //B- is tetravalent
		default:
			n = v - abs(charge)
		}
		if n >= 0 {
			ret = append(ret, n)
		}
	}
	return ret
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
