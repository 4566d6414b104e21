/*
* Byte histogram and probability vector
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

import "context"

// Symbols is the number of distinct byte values.
const Symbols = 256

// Histogram counts occurrences of every byte value.
type Histogram [Symbols]uint64

// Add counts the bytes of data. The slice is only scanned, never retained.
func (h *Histogram) Add(data []byte) {
	for _, b := range data {
		h[b]++
	}
}

// Total returns the number of bytes counted so far.
func (h *Histogram) Total() uint64 {
	var total uint64
	for _, count := range h {
		total += count
	}
	return total
}

// Probabilities divides every count by total. A zero total gives a full
// vector of zeros.
func (h *Histogram) Probabilities(total uint64) []float64 {
	probs, _ := h.probabilities(context.Background(), total)
	return probs
}

// probabilities checks ctx once per bucket and returns an empty vector when
// it is done.
func (h *Histogram) probabilities(ctx context.Context, total uint64) ([]float64, error) {
	probs := make([]float64, Symbols)
	if total == 0 {
		return probs, nil
	}

	for i, count := range h {
		if err := ctx.Err(); err != nil {
			return []float64{}, err
		}
		probs[i] = float64(count) / float64(total)
	}
	return probs, nil
}
