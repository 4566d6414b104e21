/*
* Autocorrelation module
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
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/montanaflynn/stats"
)

// Autocorrelation summarises, over all full blocks, the mean absolute
// correlation between a block and itself shifted by 1..MaxLag-1 bytes.
// Random data keeps both numbers close to zero.
type Autocorrelation struct {
	Blocks int     `json:"blocks"`
	MaxLag int     `json:"max_lag"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

func meanBytes(data []byte) float64 {
	var sum float64
	for _, value := range data {
		sum += float64(value)
	}
	return sum / float64(len(data))
}

// blockAutocorrelation returns the mean |r(lag)| for lag in [1, maxLag).
func blockAutocorrelation(block []byte, maxLag int) (float64, error) {
	mean := meanBytes(block)
	centred := make(stats.Float64Data, len(block))
	for i, val := range block {
		centred[i] = float64(val) - mean
	}

	maxLag = min(maxLag, len(centred))

	var results stats.Float64Data
	for lag := 1; lag < maxLag; lag++ {
		correlation, err := stats.Correlation(centred[lag:], centred[:len(centred)-lag])
		if err != nil {
			return 0, fmt.Errorf("lag %d: %w", lag, err)
		}
		results = append(results, math.Abs(correlation))
	}
	if len(results) == 0 {
		return 0, nil
	}
	return stats.Mean(results)
}

// AutoCorrelation reads r in blockSize blocks and correlates each full
// block with itself. A trailing partial block is ignored.
func AutoCorrelation(ctx context.Context, r io.Reader, blockSize, maxLag int) (*Autocorrelation, error) {
	if blockSize < 2 {
		return nil, fmt.Errorf("profile: invalid block size %d", blockSize)
	}

	result := &Autocorrelation{MaxLag: maxLag}
	buffer := make([]byte, blockSize)
	var perBlock stats.Float64Data

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := readBlock(r, buffer)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		if n < blockSize {
			break
		}

		value, err := blockAutocorrelation(buffer, maxLag)
		if err != nil {
			return nil, fmt.Errorf("profile: autocorrelation: %w", err)
		}
		perBlock = append(perBlock, value)
	}

	result.Blocks = len(perBlock)
	if result.Blocks == 0 {
		return result, nil
	}

	var err error
	if result.Mean, err = stats.Mean(perBlock); err != nil {
		return nil, err
	}
	if result.StdDev, err = stats.StandardDeviation(perBlock); err != nil {
		return nil, err
	}
	return result, nil
}

// AutoCorrelationFile runs AutoCorrelation over the file at path.
func AutoCorrelationFile(ctx context.Context, path string, blockSize, maxLag int) (*Autocorrelation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	defer file.Close()

	return AutoCorrelation(ctx, file, blockSize, maxLag)
}
