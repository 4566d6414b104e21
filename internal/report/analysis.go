/*
* Combined analysis of a file or sequence
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

// Package report runs the entropy estimation together with the optional
// profile, compression and signature checks and renders the outcome.
package report

import (
	"bytes"
	"context"

	"github.com/Gilah-EnE/entropy_estimator/entropy"
	"github.com/Gilah-EnE/entropy_estimator/internal/compressratio"
	"github.com/Gilah-EnE/entropy_estimator/internal/config"
	"github.com/Gilah-EnE/entropy_estimator/internal/profile"
	"github.com/Gilah-EnE/entropy_estimator/internal/signatures"
)

// Options selects the optional checks.
type Options struct {
	Profile          bool
	ProfileBlockSize int
	AutocorrMaxLag   int
	Compression      bool
	Signatures       bool
}

// OptionsFromConfig copies the check switches out of c.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		Profile:          c.Profile,
		ProfileBlockSize: c.ProfileBlockSize,
		AutocorrMaxLag:   c.AutocorrMaxLag,
		Compression:      c.Compression,
		Signatures:       c.Signatures,
	}
}

// Analysis is everything known about one input.
type Analysis struct {
	FileName        string                   `json:"file_name,omitempty"`
	Result          entropy.Result           `json:"result"`
	Label           string                   `json:"label"`
	Profile         *profile.Summary         `json:"profile,omitempty"`
	Autocorrelation *profile.Autocorrelation `json:"autocorrelation,omitempty"`
	Compression     *compressratio.Result    `json:"compression,omitempty"`
	Signatures      *signatures.Result       `json:"signatures,omitempty"`
}

func newAnalysis(name string, res entropy.Result) *Analysis {
	return &Analysis{
		FileName: name,
		Result:   res,
		Label:    res.Classification.String(),
	}
}

// source runs each check over one input.
type source interface {
	blocks(ctx context.Context, blockSize int) (*profile.Summary, error)
	autocorrelation(ctx context.Context, blockSize, maxLag int) (*profile.Autocorrelation, error)
	compression(ctx context.Context) (*compressratio.Result, error)
	scan(ctx context.Context, set *signatures.Set, blockSize int) (*signatures.Result, error)
}

// fileSource reopens the file for every check.
type fileSource string

func (f fileSource) blocks(ctx context.Context, blockSize int) (*profile.Summary, error) {
	return profile.BlocksFile(ctx, string(f), blockSize)
}

func (f fileSource) autocorrelation(ctx context.Context, blockSize, maxLag int) (*profile.Autocorrelation, error) {
	return profile.AutoCorrelationFile(ctx, string(f), blockSize, maxLag)
}

func (f fileSource) compression(ctx context.Context) (*compressratio.Result, error) {
	return compressratio.MeasureFile(ctx, string(f))
}

func (f fileSource) scan(ctx context.Context, set *signatures.Set, blockSize int) (*signatures.Result, error) {
	return set.ScanFile(ctx, string(f), blockSize)
}

// bufferSource scans the caller's slice without copying it.
type bufferSource []byte

func (b bufferSource) blocks(ctx context.Context, blockSize int) (*profile.Summary, error) {
	return profile.Blocks(ctx, bytes.NewReader(b), blockSize)
}

func (b bufferSource) autocorrelation(ctx context.Context, blockSize, maxLag int) (*profile.Autocorrelation, error) {
	return profile.AutoCorrelation(ctx, bytes.NewReader(b), blockSize, maxLag)
}

func (b bufferSource) compression(ctx context.Context) (*compressratio.Result, error) {
	return compressratio.Measure(ctx, bytes.NewReader(b))
}

func (b bufferSource) scan(ctx context.Context, set *signatures.Set, blockSize int) (*signatures.Result, error) {
	return set.Scan(ctx, bytes.NewReader(b), blockSize)
}

// AnalyzeFile estimates the entropy of the file at path and runs the
// selected checks, each one as a separate pass over the file.
func AnalyzeFile(ctx context.Context, est *entropy.Estimator, path string, opts Options) (*Analysis, error) {
	res, err := est.FileEntropy(ctx, path)
	if err != nil {
		return nil, err
	}
	a := newAnalysis(path, res)
	if err := a.runChecks(ctx, fileSource(path), opts); err != nil {
		return nil, err
	}
	return a, nil
}

// AnalyzeBuffer is AnalyzeFile for an in-memory sequence.
func AnalyzeBuffer(ctx context.Context, est *entropy.Estimator, buf []byte, opts Options) (*Analysis, error) {
	res, err := est.BufferEntropy(ctx, buf)
	if err != nil {
		return nil, err
	}
	a := newAnalysis("", res)
	if err := a.runChecks(ctx, bufferSource(buf), opts); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analysis) runChecks(ctx context.Context, src source, opts Options) error {
	var err error
	if opts.Profile {
		if a.Profile, err = src.blocks(ctx, opts.ProfileBlockSize); err != nil {
			return err
		}
		if a.Autocorrelation, err = src.autocorrelation(ctx, opts.ProfileBlockSize, opts.AutocorrMaxLag); err != nil {
			return err
		}
	}

	if opts.Compression {
		if a.Compression, err = src.compression(ctx); err != nil {
			return err
		}
	}

	if opts.Signatures {
		set, err := signatures.Compile()
		if err != nil {
			return err
		}
		if a.Signatures, err = src.scan(ctx, set, opts.ProfileBlockSize); err != nil {
			return err
		}
	}
	return nil
}
