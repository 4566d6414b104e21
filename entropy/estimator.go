/*
* Shannon encryption checker for files and in-memory sequences
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

// Package entropy estimates whether a byte sequence is plain, structured
// binary, or encrypted/highly compressed data from the Shannon entropy of
// its byte histogram.
package entropy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// DefaultChunkSize is the read-ahead size for files and the scan window for
// buffers. Cancellation and progress are checked once per chunk.
const DefaultChunkSize = 1 << 20

// ErrInvalidDistribution reports a probability vector with more nonzero
// entries than there are byte values.
var ErrInvalidDistribution = errors.New("entropy: more than 256 nonzero probabilities")

// ProgressFunc receives the number of bytes processed so far. It runs on the
// scanning goroutine and must return quickly.
type ProgressFunc func(processed uint64)

// Option configures an Estimator.
type Option func(*Estimator)

// WithProgress registers fn to be called after every chunk.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Estimator) {
		e.progress = fn
	}
}

// WithChunkSize sets the read and scan chunk size. Non-positive sizes keep
// the default.
func WithChunkSize(size int) Option {
	return func(e *Estimator) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

// Estimator computes entropy estimations. It holds no per-call state and
// may be shared by goroutines as long as its ProgressFunc allows it.
type Estimator struct {
	chunkSize int
	progress  ProgressFunc
}

// NewEstimator returns an Estimator with the given options applied.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one estimation.
type Result struct {
	Size              uint64         `json:"size"`
	Entropy           float64        `json:"entropy"`
	Classification    Classification `json:"classification"`
	MinCompressedSize uint64         `json:"min_compressed_size"`
	Elapsed           time.Duration  `json:"elapsed"`
}

// Cancelled reports whether err comes from a cancelled or expired context.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// FileSize returns the size of the file at path.
func FileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, &fs.PathError{Op: "stat", Path: path, Err: errors.New("is a directory")}
	}
	return uint64(info.Size()), nil
}

// FileEntropy reads the file at path sequentially and estimates its entropy.
// A missing or unreadable file is an error, never a zero result.
func (e *Estimator) FileEntropy(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	probs, total, err := e.fileProbabilities(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return e.result(probs, total, start)
}

// BufferEntropy estimates the entropy of buf without copying it.
func (e *Estimator) BufferEntropy(ctx context.Context, buf []byte) (Result, error) {
	start := time.Now()

	probs, err := e.SequenceProbabilities(ctx, buf)
	if err != nil {
		return Result{}, err
	}
	return e.result(probs, uint64(len(buf)), start)
}

// ReaderEntropy estimates the entropy of everything r yields.
func (e *Estimator) ReaderEntropy(ctx context.Context, r io.Reader) (Result, error) {
	start := time.Now()

	probs, total, err := e.streamProbabilities(ctx, r, unknownSize)
	if err != nil {
		return Result{}, err
	}
	return e.result(probs, total, start)
}

func (e *Estimator) result(probs []float64, size uint64, start time.Time) (Result, error) {
	h := Shannon(probs)
	if h == InvalidEntropy {
		return Result{}, ErrInvalidDistribution
	}
	return Result{
		Size:              size,
		Entropy:           h,
		Classification:    Classify(h, size),
		MinCompressedSize: MinCompressedSize(h, size),
		Elapsed:           time.Since(start),
	}, nil
}

// FileProbabilities returns the byte probabilities of the file at path.
// On cancellation the vector is empty and the context error is returned; an
// empty file gives 256 zeros.
func (e *Estimator) FileProbabilities(ctx context.Context, path string) ([]float64, error) {
	probs, _, err := e.fileProbabilities(ctx, path)
	return probs, err
}

// unknownSize is the size hint for inputs whose length is not known upfront.
const unknownSize = ^uint64(0)

func (e *Estimator) fileProbabilities(ctx context.Context, path string) ([]float64, uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("entropy: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("entropy: %w", err)
	}
	if info.IsDir() {
		return nil, 0, &fs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}

	// Pipes, devices and procfs files report a size of 0 but still have data.
	size := uint64(info.Size())
	if !info.Mode().IsRegular() {
		size = unknownSize
	}
	probs, total, err := e.streamProbabilities(ctx, file, size)
	if err != nil && !Cancelled(err) {
		return nil, 0, fmt.Errorf("entropy: read %s: %w", path, err)
	}
	return probs, total, err
}

// StreamProbabilities reads r in chunks and returns the byte probabilities.
// size is the expected length; zero short-circuits to 256 zeros without
// reading. The divisor is the number of bytes actually read.
func (e *Estimator) StreamProbabilities(ctx context.Context, r io.Reader, size uint64) ([]float64, error) {
	probs, _, err := e.streamProbabilities(ctx, r, size)
	return probs, err
}

func (e *Estimator) streamProbabilities(ctx context.Context, r io.Reader, size uint64) ([]float64, uint64, error) {
	if size == 0 {
		return make([]float64, Symbols), 0, nil
	}

	reader := bufio.NewReaderSize(r, e.chunkSize)
	buffer := make([]byte, e.chunkSize)
	var hist Histogram
	var total uint64

	for {
		if err := ctx.Err(); err != nil {
			return []float64{}, 0, err
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hist.Add(buffer[:n])
			total += uint64(n)
			e.report(total)
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, err
		}
	}

	probs, err := hist.probabilities(ctx, total)
	if err != nil {
		return probs, 0, err
	}
	return probs, total, nil
}

// SequenceProbabilities returns the byte probabilities of buf, scanning it
// in chunk-sized windows.
func (e *Estimator) SequenceProbabilities(ctx context.Context, buf []byte) ([]float64, error) {
	if len(buf) == 0 {
		return make([]float64, Symbols), nil
	}

	var hist Histogram
	for offset := 0; offset < len(buf); offset += e.chunkSize {
		if err := ctx.Err(); err != nil {
			return []float64{}, err
		}
		end := min(offset+e.chunkSize, len(buf))
		hist.Add(buf[offset:end])
		e.report(uint64(end))
	}
	return hist.probabilities(ctx, uint64(len(buf)))
}

func (e *Estimator) report(processed uint64) {
	if e.progress != nil {
		e.progress(processed)
	}
}
