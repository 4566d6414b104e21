/*
* Random byte sequence generators
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

// Package randdist generates synthetic byte sequences for exercising the
// entropy classifier.
package randdist

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Distribution names a generator.
type Distribution int

const (
	Uniform Distribution = iota
	Normal
)

func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case Normal:
		return "normal"
	}
	return fmt.Sprintf("Distribution(%d)", int(d))
}

// Parse accepts "uniform" (or its older name "linear") and "normal".
func Parse(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uniform", "linear":
		return Uniform, nil
	case "normal":
		return Normal, nil
	}
	return 0, fmt.Errorf("unknown distribution %q, want uniform or normal", name)
}

// NewRand returns a ChaCha8 generator seeded from the operating system.
func NewRand() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed generator: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// NewSeeded returns a deterministic generator, for reproducible samples.
func NewSeeded(seed uint64) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return rand.New(rand.NewChaCha8(key))
}

// UniformBytes returns n bytes uniformly distributed over 0..255.
func UniformBytes(n int, r *rand.Rand) []byte {
	sequence := make([]byte, n)
	for i := range sequence {
		sequence[i] = byte(r.UintN(256))
	}
	return sequence
}

// NormalBytes samples x from N(mean, stdDev) and stores floor(x*255)
// reduced modulo 256, so negative and large samples wrap around.
func NormalBytes(n int, mean, stdDev float64, r *rand.Rand) []byte {
	sequence := make([]byte, n)
	for i := range sequence {
		x := r.NormFloat64()*stdDev + mean
		sequence[i] = byte(int64(math.Floor(x * 255)))
	}
	return sequence
}

// CryptoBytes returns n bytes from the operating system's CSPRNG.
func CryptoBytes(n int) ([]byte, error) {
	sequence := make([]byte, n)
	if _, err := crand.Read(sequence); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return sequence, nil
}

// Generate produces n bytes of the given distribution. mean and stdDev are
// only used by Normal.
func Generate(d Distribution, n int, mean, stdDev float64, r *rand.Rand) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative sequence size %d", n)
	}
	switch d {
	case Uniform:
		return UniformBytes(n, r), nil
	case Normal:
		if stdDev < 0 || math.IsNaN(stdDev) {
			return nil, fmt.Errorf("invalid standard deviation %v", stdDev)
		}
		return NormalBytes(n, mean, stdDev, r), nil
	}
	return nil, fmt.Errorf("unsupported distribution %v", d)
}
