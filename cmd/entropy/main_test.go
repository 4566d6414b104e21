package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gilah-EnE/entropy_estimator/internal/config"
	"github.com/Gilah-EnE/entropy_estimator/randdist"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    mode
		file    string
		wantErr error
	}{
		{"no arguments", nil, modeHelp, "", nil},
		{"help", []string{"-h"}, modeHelp, "", nil},
		{"long help", []string{"--help"}, modeHelp, "", nil},
		{"version", []string{"-v"}, modeVersion, "", nil},
		{"from file", []string{"-f", "disk.img"}, modeFile, "disk.img", nil},
		{"long from file", []string{"--from-file=disk.img"}, modeFile, "disk.img", nil},
		{"positional file", []string{"disk.img"}, modeFile, "disk.img", nil},
		{"flags before positional", []string{"-json", "-profile", "disk.img"}, modeFile, "disk.img", nil},
		{"random", []string{"-r", "normal", "-s", "100"}, modeRandom, "", nil},
		{"help and version", []string{"-h", "-v"}, 0, "", errIncompatible},
		{"file and random", []string{"-f", "a", "-r", "uniform", "-s", "10"}, 0, "", errIncompatible},
		{"flag and positional file", []string{"-f", "a", "b"}, 0, "", errIncompatible},
		{"version and positional file", []string{"-v", "a"}, 0, "", errIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, err := parseParams(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.mode != tt.want {
				t.Errorf("mode = %v, want %v", p.mode, tt.want)
			}
			if p.file != tt.file {
				t.Errorf("file = %q, want %q", p.file, tt.file)
			}
		})
	}
}

func TestParseParamsRandom(t *testing.T) {
	p, _, err := parseParams([]string{"-r", "normal", "-s", "4096", "-m", "0.5", "-d", "0.1"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if p.distribution != randdist.Normal || p.sequenceSize != 4096 || p.mean != 0.5 || p.stdDev != 0.1 {
		t.Errorf("params = %+v", p)
	}

	p, _, err = parseParams([]string{"-r", "uniform", "-s", "1"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if p.mean != 0 || p.stdDev != 1.0 {
		t.Errorf("defaults: mean = %v, std dev = %v", p.mean, p.stdDev)
	}

	for _, args := range [][]string{
		{"-r", "uniform"},
		{"-r", "uniform", "-s", "0"},
		{"-r", "uniform", "-s", "-5"},
		{"-r", "poisson", "-s", "10"},
		{"-s", "abc"},
		{"a", "b"},
	} {
		if _, _, err := parseParams(args, io.Discard); err == nil {
			t.Errorf("parseParams(%q) accepted", args)
		}
	}
}

func TestOverridesOnlyWhenSet(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Compression = true

	p, _, err := parseParams([]string{"-profile", "-progress=false", "-output-dir", "/logs", "disk.img"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	p.apply(cfg)

	if !cfg.Profile {
		t.Error("Profile not enabled")
	}
	if cfg.Progress {
		t.Error("Progress not disabled")
	}
	if !cfg.Compression {
		t.Error("Compression from the config file was overridden")
	}
	if cfg.OutputDir != "/logs" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"signatures": true, "json_output": true}`), 0644); err != nil {
		t.Fatal(err)
	}
	p, _, err := parseParams([]string{"-config", path, "-json=false", "disk.img"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Signatures {
		t.Error("Signatures from the file were lost")
	}
	if cfg.JSONOutput {
		t.Error("-json=false did not override the file")
	}

	p, _, _ = parseParams([]string{"-config", filepath.Join(t.TempDir(), "missing.json"), "disk.img"}, io.Discard)
	cfg, err = loadConfig(p)
	if err == nil {
		t.Error("missing config file not reported")
	}
	if cfg == nil || cfg.ChunkSize != config.DefaultConfig().ChunkSize {
		t.Errorf("defaults not used: %+v", cfg)
	}
}

func quietConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Progress = false
	return cfg
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x41}, 10000), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := quietConfig()
	cfg.LogFile = true
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &params{mode: modeFile, file: path}, cfg, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"File name: " + path,
		"File size = 10000 bytes",
		"Entropy = 0\n",
		"Min possible file size assuming max theoretical compression efficiency: 0 bytes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}

	content, err := os.ReadFile(path + ".enclog")
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(content), "has been analyzed") {
		t.Errorf("log content = %q", content)
	}
}

func TestRunFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := quietConfig()
	cfg.JSONOutput = true

	var stdout bytes.Buffer
	if code := run(context.Background(), &params{mode: modeFile, file: path}, cfg, &stdout, io.Discard); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	var decoded map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	var stderr bytes.Buffer
	p := &params{mode: modeFile, file: filepath.Join(t.TempDir(), "missing")}
	if code := run(context.Background(), p, quietConfig(), io.Discard, &stderr); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if stderr.Len() == 0 {
		t.Error("no error printed")
	}
}

func TestRunRandom(t *testing.T) {
	var stdout bytes.Buffer
	p := &params{mode: modeRandom, distribution: randdist.Uniform, sequenceSize: 4096, stdDev: 1}
	if code := run(context.Background(), p, quietConfig(), &stdout, io.Discard); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "Sequence size = 4096 bytes\n") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stderr bytes.Buffer
	if code := run(ctx, &params{mode: modeFile, file: path}, quietConfig(), io.Discard, &stderr); code != exitInterrupted {
		t.Errorf("exit code = %d, want %d", code, exitInterrupted)
	}
	if !strings.Contains(stderr.String(), "interrupted") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.ChunkSize = 3
	if code := run(context.Background(), &params{mode: modeFile, file: "x"}, cfg, io.Discard, io.Discard); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
}

func TestParamsErrorPrintsUsageOnce(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-no-such-flag"}},
		{"bad value", []string{"-s", "abc"}},
		{"incompatible", []string{"-h", "-v"}},
		{"bad distribution", []string{"-r", "poisson", "-s", "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, fs, err := parseParams(tt.args, &out)
			if err == nil {
				t.Fatal("parseParams accepted invalid arguments")
			}
			if code := paramsError(err, fs); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if n := strings.Count(out.String(), "Usage: entropy"); n != 1 {
				t.Errorf("usage printed %d times:\n%s", n, out.String())
			}
		})
	}
}

func TestParseParamsSaveConfig(t *testing.T) {
	p, _, err := parseParams([]string{"-save-config", "out.json"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if p.mode != modeSaveConfig || p.saveConfig != "out.json" {
		t.Errorf("params = %+v", p)
	}

	p, _, err = parseParams([]string{"-save-config", "out.json", "disk.img"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if p.mode != modeFile {
		t.Errorf("mode = %v, want file mode alongside saving", p.mode)
	}
}

func TestRunSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	p, _, err := parseParams([]string{"-save-config", path, "-signatures", "-json"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	cfg := quietConfig()
	p.apply(cfg)

	if code := run(context.Background(), p, cfg, io.Discard, io.Discard); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}

	saved, err := config.LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if *saved != *cfg {
		t.Errorf("saved config = %+v, want %+v", saved, cfg)
	}
	if !saved.Signatures || !saved.JSONOutput {
		t.Errorf("overrides not saved: %+v", saved)
	}

	bad := &params{mode: modeSaveConfig, saveConfig: filepath.Join(t.TempDir(), "no", "dir", "x.json")}
	if code := run(context.Background(), bad, quietConfig(), io.Discard, io.Discard); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
}
