/*
* Information entropy classification
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

import (
	"math"
	"strconv"
)

const (
	KiB uint64 = 1 << 10
	MiB uint64 = 1 << 20
)

// binaryThreshold separates plain from structured binary data.
const binaryThreshold = 6.0

// Classification is the estimated nature of a byte sequence.
type Classification int

const (
	Plain Classification = iota
	Binary
	Encrypted
	// Unknown is only produced for entropy outside [0, 8].
	Unknown
)

// Classifications lists every Classification value.
func Classifications() []Classification {
	return []Classification{Plain, Binary, Encrypted, Unknown}
}

func (c Classification) String() string {
	switch c {
	case Plain:
		return "Plain"
	case Binary:
		return "Binary"
	case Encrypted:
		return "Encrypted"
	case Unknown:
		return "Unknown"
	}
	return "Classification(" + strconv.Itoa(int(c)) + ")"
}

func init() {
	for _, c := range Classifications() {
		if c.String() == "Classification("+strconv.Itoa(int(c))+")" {
			panic("entropy: no label for classification " + strconv.Itoa(int(c)))
		}
	}
}

// MarshalText lets the classification appear by label in JSON reports.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// EstimatedEpsilon returns how close to MaxEntropy a sample of the given
// size must be to count as encrypted. Larger samples estimate entropy with
// less bias, so the band narrows as the sample grows.
//
// The numbers come from a handful of test calculations, not from a proper
// statistical model.
func EstimatedEpsilon(sampleSize uint64) float64 {
	switch {
	case sampleSize < MiB:
		return 0.001
	case sampleSize < 64*MiB:
		return 0.0001
	case sampleSize < 512*MiB:
		return 0.00001
	default:
		return 0.000001
	}
}

// Classify maps an entropy value computed over sampleSize bytes to a
// Classification. The checks run in order and the first match wins.
func Classify(entropy float64, sampleSize uint64) Classification {
	if MaxEntropy-entropy < EstimatedEpsilon(sampleSize) {
		return Encrypted
	}
	if entropy > binaryThreshold {
		return Binary
	}
	if entropy >= 0 && entropy <= binaryThreshold {
		return Plain
	}
	return Unknown
}

// MinCompressedSize is the size in bytes an ideal entropy coder would need
// for sequenceSize bytes at the given entropy.
func MinCompressedSize(entropy float64, sequenceSize uint64) uint64 {
	if !(entropy > 0) {
		return 0
	}
	return uint64(math.Floor(entropy * float64(sequenceSize) / 8))
}
