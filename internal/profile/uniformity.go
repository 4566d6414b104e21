/*
* Distance of a byte histogram from the uniform distribution
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

package profile

import (
	"math"

	"github.com/Gilah-EnE/entropy_estimator/entropy"
)

// Uniformity compares a histogram with the uniform byte distribution.
// Both values are plain statistics; no critical values are attached.
type Uniformity struct {
	// largest gap between the empirical and the uniform CDF
	KSDistance float64 `json:"ks_distance"`
	// symbol at which KSDistance is reached
	KSSymbol  int     `json:"ks_symbol"`
	ChiSquare float64 `json:"chi_square"`
}

// MeasureUniformity computes the Kolmogorov-Smirnov distance and the
// chi-square statistic of h against 256 equally likely symbols. An empty
// histogram yields the zero value.
func MeasureUniformity(h *entropy.Histogram) Uniformity {
	var u Uniformity
	total := h.Total()
	if total == 0 {
		return u
	}

	expected := float64(total) / entropy.Symbols
	var empiricalCDF, uniformCDF float64
	for i, count := range h {
		observed := float64(count)

		empiricalCDF += observed / float64(total)
		uniformCDF += 1.0 / entropy.Symbols
		if diff := math.Abs(empiricalCDF - uniformCDF); diff > u.KSDistance {
			u.KSDistance = diff
			u.KSSymbol = i
		}

		u.ChiSquare += (observed - expected) * (observed - expected) / expected
	}
	return u
}
