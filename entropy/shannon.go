/*
* Shannon entropy calculation
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package entropy

import "math"

// MaxEntropy is log2(256), the entropy of a uniform byte distribution.
const MaxEntropy = 8.0

// InvalidEntropy is returned by Shannon when the probabilities cannot come
// from byte input.
const InvalidEntropy = -1.0

// Shannon computes H = -Σ p·log2(p) in bits per byte. Zero probabilities
// are skipped. More than 256 nonzero entries yield InvalidEntropy. The
// result is not clamped, so rounding may leave it slightly outside [0, 8].
func Shannon(probs []float64) float64 {
	var entropy float64
	var nonzero int

	for _, p := range probs {
		if p == 0 {
			continue
		}
		entropy -= p * math.Log2(p)
		nonzero++
	}

	if nonzero > Symbols {
		return InvalidEntropy
	}
	return entropy
}
