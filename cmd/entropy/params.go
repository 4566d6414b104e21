/*
* Command line parameters of the entropy calculator
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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Gilah-EnE/entropy_estimator/internal/config"
	"github.com/Gilah-EnE/entropy_estimator/randdist"
)

type mode int

const (
	modeHelp mode = iota
	modeVersion
	modeFile
	modeRandom
	modeSaveConfig
)

var errIncompatible = errors.New("incompatible command line parameters set, use only one")

// errUsageShown marks parse errors the flag set has already reported
// together with the usage text.
var errUsageShown = errors.New("usage shown")

type params struct {
	mode         mode
	file         string
	distribution randdist.Distribution
	sequenceSize int
	mean         float64
	stdDev       float64
	configPath   string
	saveConfig   string

	// set only when given on the command line
	overrides []func(*config.Config)
}

// apply copies the command line overrides into c.
func (p *params) apply(c *config.Config) {
	for _, override := range p.overrides {
		override(c)
	}
}

func newFlagSet(output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("entropy", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: entropy [options] FILE\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nConfig: loaded from ~/.entropyrc (if present)\n")
	}
	return fs
}

// parseParams reads the command line. With no arguments it selects help.
func parseParams(args []string, output io.Writer) (*params, *flag.FlagSet, error) {
	fs := newFlagSet(output)

	var (
		help, version, jsonOutput, progress bool
		profile, compression, signatures    bool
		logFile                             bool
		file, distribution, configPath      string
		outputDir, saveConfig               string
		sequenceSize                        int
		mean, stdDev                        float64
	)
	for _, name := range []string{"h", "help"} {
		fs.BoolVar(&help, name, false, "Show this help")
	}
	for _, name := range []string{"v", "version"} {
		fs.BoolVar(&version, name, false, "Show version information")
	}
	for _, name := range []string{"f", "from-file"} {
		fs.StringVar(&file, name, "", "Calculate the entropy of a file")
	}
	for _, name := range []string{"r", "random-distribution"} {
		fs.StringVar(&distribution, name, "", "Calculate the entropy of a random sequence (uniform|normal)")
	}
	for _, name := range []string{"s", "sequence-size"} {
		fs.IntVar(&sequenceSize, name, 0, "Random sequence size in bytes")
	}
	for _, name := range []string{"m", "mean"} {
		fs.Float64Var(&mean, name, 0, "Mean of the normal distribution")
	}
	for _, name := range []string{"d", "std-dev"} {
		fs.Float64Var(&stdDev, name, 1.0, "Standard deviation of the normal distribution")
	}
	fs.BoolVar(&jsonOutput, "json", false, "Enable JSON output")
	fs.BoolVar(&progress, "progress", false, "Print progress while reading")
	fs.BoolVar(&profile, "profile", false, "Compute block entropy and autocorrelation")
	fs.BoolVar(&compression, "compression", false, "Measure the compression ratio")
	fs.BoolVar(&signatures, "signatures", false, "Count known file signatures")
	fs.BoolVar(&logFile, "log", false, "Append the report to FILE.enclog")
	fs.StringVar(&outputDir, "output-dir", "", "Directory for the .enclog file (default: next to FILE)")
	fs.StringVar(&configPath, "config", "", "Load the configuration from this file")
	fs.StringVar(&saveConfig, "save-config", "", "Write the effective configuration to this file")

	if err := fs.Parse(args); err != nil {
		return nil, fs, fmt.Errorf("%w: %w", errUsageShown, err)
	}

	p := &params{
		file:         file,
		sequenceSize: sequenceSize,
		mean:         mean,
		stdDev:       stdDev,
		configPath:   configPath,
		saveConfig:   saveConfig,
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "json":
			p.overrides = append(p.overrides, func(c *config.Config) { c.JSONOutput = jsonOutput })
		case "progress":
			p.overrides = append(p.overrides, func(c *config.Config) { c.Progress = progress })
		case "profile":
			p.overrides = append(p.overrides, func(c *config.Config) { c.Profile = profile })
		case "compression":
			p.overrides = append(p.overrides, func(c *config.Config) { c.Compression = compression })
		case "signatures":
			p.overrides = append(p.overrides, func(c *config.Config) { c.Signatures = signatures })
		case "log":
			p.overrides = append(p.overrides, func(c *config.Config) { c.LogFile = logFile })
		case "output-dir":
			p.overrides = append(p.overrides, func(c *config.Config) { c.OutputDir = outputDir })
		}
	})

	switch fs.NArg() {
	case 0:
	case 1:
		if p.file != "" {
			return nil, fs, errIncompatible
		}
		p.file = fs.Arg(0)
	default:
		return nil, fs, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var selected int
	if help {
		selected++
	}
	if version {
		selected++
		p.mode = modeVersion
	}
	if p.file != "" {
		selected++
		p.mode = modeFile
	}
	if distribution != "" {
		selected++
		p.mode = modeRandom
	}
	switch {
	case selected > 1:
		return nil, fs, errIncompatible
	case selected == 0 && saveConfig != "":
		p.mode = modeSaveConfig
		return p, fs, nil
	case selected == 0, help:
		p.mode = modeHelp
		return p, fs, nil
	}

	if p.mode == modeRandom {
		d, err := randdist.Parse(distribution)
		if err != nil {
			return nil, fs, err
		}
		p.distribution = d
		if p.sequenceSize <= 0 {
			return nil, fs, fmt.Errorf("sequence size must be positive, got %d", p.sequenceSize)
		}
	}
	return p, fs, nil
}
