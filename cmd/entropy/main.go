/*
* Shannon entropy calculator, console front end
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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gilah-EnE/entropy_estimator/entropy"
	"github.com/Gilah-EnE/entropy_estimator/internal/config"
	"github.com/Gilah-EnE/entropy_estimator/internal/report"
	"github.com/Gilah-EnE/entropy_estimator/randdist"
)

var version = "0.0.3"

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	p, fs, err := parseParams(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(paramsError(err, fs))
	}

	switch p.mode {
	case modeHelp:
		fs.SetOutput(os.Stdout)
		fs.Usage()
		os.Exit(exitOK)
	case modeVersion:
		fmt.Println(version)
		os.Exit(exitOK)
	}

	cfg, err := loadConfig(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, p, cfg, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// paramsError reports a command line error and returns the exit code.
// Parse errors were already printed by the flag set.
func paramsError(err error, fs *flag.FlagSet) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsageShown):
		return exitUsage
	}
	fmt.Fprintf(fs.Output(), "Program option error: %v\n", err)
	fs.Usage()
	return exitUsage
}

// loadConfig returns the configuration with the command line overrides
// applied. The defaults are used when the file cannot be read.
func loadConfig(p *params) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.configPath != "" {
		cfg, err = config.LoadConfigFile(p.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p.apply(cfg)
	return cfg, err
}

func run(ctx context.Context, p *params, cfg *config.Config, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	if err := cfg.Validate(); err != nil {
		logger.Printf("invalid configuration: %v", err)
		return exitFailure
	}

	if p.saveConfig != "" {
		if err := config.SaveConfig(cfg, p.saveConfig); err != nil {
			logger.Printf("Could not save config: %v", err)
			return exitFailure
		}
		fmt.Fprintf(stderr, "Configuration saved to %s\n", p.saveConfig)
		if p.mode == modeSaveConfig {
			return exitOK
		}
	}

	opts := []entropy.Option{entropy.WithChunkSize(cfg.ChunkSize)}
	if cfg.Progress && !cfg.JSONOutput {
		opts = append(opts, entropy.WithProgress(func(processed uint64) {
			fmt.Fprintf(stderr, "%.1f MB\r", float32(processed)/1048576)
		}))
	}
	est := entropy.NewEstimator(opts...)
	checks := report.OptionsFromConfig(cfg)

	start := time.Now()
	var (
		analysis *report.Analysis
		err      error
	)
	switch p.mode {
	case modeFile:
		if !cfg.JSONOutput {
			fmt.Fprintln(stdout, "Please be patient, entropy calculation on big files takes a while...")
		}
		analysis, err = report.AnalyzeFile(ctx, est, p.file, checks)
	case modeRandom:
		analysis, err = analyzeRandom(ctx, est, p, checks)
	default:
		logger.Printf("nothing to do")
		return exitUsage
	}
	if cfg.Progress && !cfg.JSONOutput {
		fmt.Fprintln(stderr)
	}

	if entropy.Cancelled(err) {
		fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	} else if err != nil {
		logger.Printf("Error: %v", err)
		return exitFailure
	}

	if cfg.JSONOutput {
		err = report.WriteJSON(stdout, analysis)
	} else {
		err = report.WriteText(stdout, analysis)
	}
	if err != nil {
		logger.Printf("Error: %v", err)
		return exitFailure
	}

	if cfg.LogFile && p.mode == modeFile {
		if err := writeLog(report.LogPath(p.file, cfg.OutputDir), analysis, time.Since(start)); err != nil {
			logger.Printf("Error: %v", err)
			return exitFailure
		}
	}
	return exitOK
}

func analyzeRandom(ctx context.Context, est *entropy.Estimator, p *params, checks report.Options) (*report.Analysis, error) {
	r, err := randdist.NewRand()
	if err != nil {
		return nil, err
	}
	sequence, err := randdist.Generate(p.distribution, p.sequenceSize, p.mean, p.stdDev, r)
	if err != nil {
		return nil, err
	}
	return report.AnalyzeBuffer(ctx, est, sequence, checks)
}

func writeLog(path string, analysis *report.Analysis, elapsed time.Duration) error {
	logger, closer, err := report.OpenLog(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	report.LogAnalysis(logger, analysis)
	logger.Printf("File %s has been analyzed. Time: %s", analysis.FileName, elapsed)
	return nil
}
