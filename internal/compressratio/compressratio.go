/*
* Compression ratio estimation module
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

// Package compressratio measures how well general purpose compressors
// shrink an input. Encrypted data stays at a ratio of about 1.
package compressratio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

const chunkSize = 1 << 20

// Codec names a compressor.
type Codec string

const (
	Gzip Codec = "gzip"
	Zstd Codec = "zstd"
	LZ4  Codec = "lz4"
	XZ   Codec = "xz"
)

// Codecs lists the compressors Measure runs, in report order.
func Codecs() []Codec {
	return []Codec{Gzip, LZ4, Zstd, XZ}
}

// CodecResult is the outcome of one compressor.
type CodecResult struct {
	Codec          Codec   `json:"codec"`
	CompressedSize int64   `json:"compressed_size"`
	Ratio          float64 `json:"ratio"`
}

// Result holds the compressed sizes for every codec.
type Result struct {
	OriginalSize int64         `json:"original_size"`
	Codecs       []CodecResult `json:"codecs"`
	MeanRatio    float64       `json:"mean_ratio"`
}

// Smallest returns the codec with the smallest output.
func (r *Result) Smallest() CodecResult {
	var best CodecResult
	for i, c := range r.Codecs {
		if i == 0 || c.CompressedSize < best.CompressedSize {
			best = c
		}
	}
	return best
}

// countingWriter discards its input and remembers how much it saw.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

type encoder struct {
	codec Codec
	sink  *countingWriter
	w     io.WriteCloser
}

func newEncoder(codec Codec) (*encoder, error) {
	sink := &countingWriter{}
	var w io.WriteCloser
	var err error

	switch codec {
	case Gzip:
		w, err = gzip.NewWriterLevel(sink, gzip.DefaultCompression)
	case Zstd:
		w, err = zstd.NewWriter(sink, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		w = lz4.NewWriter(sink)
	case XZ:
		w, err = xz.NewWriter(sink)
	default:
		err = fmt.Errorf("unknown codec %q", codec)
	}
	if err != nil {
		return nil, fmt.Errorf("compressratio: %s: %w", codec, err)
	}
	return &encoder{codec: codec, sink: sink, w: w}, nil
}

// Measure streams r through every codec once and reports the ratio
// original/compressed for each. An empty input has ratio 0.
func Measure(ctx context.Context, r io.Reader) (*Result, error) {
	var encoders []*encoder
	for _, codec := range Codecs() {
		enc, err := newEncoder(codec)
		if err != nil {
			return nil, err
		}
		encoders = append(encoders, enc)
	}
	closed := false
	defer func() {
		if !closed {
			closeAll(encoders)
		}
	}()

	buffer := make([]byte, chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(buffer)
		if n > 0 {
			total += int64(n)
			for _, enc := range encoders {
				if _, werr := enc.w.Write(buffer[:n]); werr != nil {
					return nil, fmt.Errorf("compressratio: %s: %w", enc.codec, werr)
				}
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("compressratio: read: %w", err)
		}
	}

	closed = true
	if err := closeAll(encoders); err != nil {
		return nil, err
	}

	result := &Result{OriginalSize: total}
	var sum float64
	for _, enc := range encoders {
		var ratio float64
		if total > 0 && enc.sink.n > 0 {
			ratio = float64(total) / float64(enc.sink.n)
		}
		result.Codecs = append(result.Codecs, CodecResult{
			Codec:          enc.codec,
			CompressedSize: enc.sink.n,
			Ratio:          ratio,
		})
		sum += ratio
	}
	result.MeanRatio = sum / float64(len(encoders))
	return result, nil
}

// closeAll flushes every encoder, including the ones after a failure.
func closeAll(encoders []*encoder) error {
	var errs []error
	for _, enc := range encoders {
		if err := enc.w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("compressratio: %s: %w", enc.codec, err))
		}
	}
	return errors.Join(errs...)
}

// MeasureFile runs Measure over the file at path.
func MeasureFile(ctx context.Context, path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("compressratio: %w", err)
	}
	defer file.Close()

	return Measure(ctx, file)
}
