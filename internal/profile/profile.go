/*
* Block entropy profile module
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

// Package profile describes how entropy and byte correlation vary across
// fixed-size blocks of an input.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/montanaflynn/stats"

	"github.com/Gilah-EnE/entropy_estimator/entropy"
)

// Block is the entropy of one block of the input.
type Block struct {
	Offset         int64                  `json:"offset"`
	Size           int                    `json:"size"`
	Entropy        float64                `json:"entropy"`
	Classification entropy.Classification `json:"classification"`
}

// Summary aggregates the per-block entropies.
type Summary struct {
	BlockSize       int     `json:"block_size"`
	Count           int     `json:"count"`
	Mean            float64 `json:"mean"`
	StdDev          float64 `json:"std_dev"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Median          float64 `json:"median"`
	EncryptedBlocks int     `json:"encrypted_blocks"`
	// of the whole input, not per block
	Uniformity Uniformity `json:"uniformity"`
	Blocks     []Block    `json:"blocks,omitempty"`
}

// EncryptedShare is the fraction of blocks classified as encrypted.
func (s *Summary) EncryptedShare() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.EncryptedBlocks) / float64(s.Count)
}

// readBlock fills buffer as far as r allows. io.EOF means nothing was read.
func readBlock(r io.Reader, buffer []byte) (int, error) {
	n, err := io.ReadFull(r, buffer)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}

// Blocks computes the entropy of every blockSize chunk of r. The last block
// may be shorter.
func Blocks(ctx context.Context, r io.Reader, blockSize int) (*Summary, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("profile: invalid block size %d", blockSize)
	}

	summary := &Summary{BlockSize: blockSize}
	buffer := make([]byte, blockSize)
	var entropies stats.Float64Data
	var offset int64
	var whole entropy.Histogram

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := readBlock(r, buffer)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("profile: read at offset %d: %w", offset, err)
		}

		var hist entropy.Histogram
		hist.Add(buffer[:n])
		whole.Add(buffer[:n])
		h := entropy.Shannon(hist.Probabilities(uint64(n)))
		class := entropy.Classify(h, uint64(n))

		summary.Blocks = append(summary.Blocks, Block{
			Offset:         offset,
			Size:           n,
			Entropy:        h,
			Classification: class,
		})
		if class == entropy.Encrypted {
			summary.EncryptedBlocks++
		}
		entropies = append(entropies, h)
		offset += int64(n)
	}

	summary.Count = len(entropies)
	summary.Uniformity = MeasureUniformity(&whole)
	if summary.Count == 0 {
		return summary, nil
	}

	var err error
	if summary.Mean, err = stats.Mean(entropies); err != nil {
		return nil, err
	}
	if summary.StdDev, err = stats.StandardDeviation(entropies); err != nil {
		return nil, err
	}
	if summary.Min, err = stats.Min(entropies); err != nil {
		return nil, err
	}
	if summary.Max, err = stats.Max(entropies); err != nil {
		return nil, err
	}
	if summary.Median, err = stats.Median(entropies); err != nil {
		return nil, err
	}
	return summary, nil
}

// BlocksFile runs Blocks over the file at path.
func BlocksFile(ctx context.Context, path string, blockSize int) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	defer file.Close()

	return Blocks(ctx, file, blockSize)
}
