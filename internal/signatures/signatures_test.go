package signatures

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mustCompile(t *testing.T) *Set {
	t.Helper()
	set, err := Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return set
}

func TestCompileDefault(t *testing.T) {
	set := mustCompile(t)
	if len(set.names) != len(patterns) || len(set.regexes) != len(patterns) {
		t.Errorf("compiled %d names and %d regexes, want %d", len(set.names), len(set.regexes), len(patterns))
	}
}

func TestCompileInvalid(t *testing.T) {
	if _, err := CompilePatterns(map[string]string{"broken": "(?i)(ab"}); err == nil {
		t.Error("invalid pattern accepted")
	}
}

func TestScanKnownHeaders(t *testing.T) {
	png, _ := hex.DecodeString("89504e470d0a1a0a0000000d49484452")
	gz, _ := hex.DecodeString("1f8b0800000000000003")
	zip, _ := hex.DecodeString("504b0304140000000800")

	var data []byte
	for i := 0; i < 3; i++ {
		data = append(data, png...)
		data = append(data, bytes.Repeat([]byte{0x20}, 100)...)
	}
	data = append(data, gz...)
	data = append(data, zip...)

	result, err := mustCompile(t).Scan(context.Background(), bytes.NewReader(data), 4096)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want int
	}{
		{"PNG image", 3},
		{"GZIP archive", 1},
		{"PKZIP archive", 1},
		{"7-Zip archive", 0},
	}
	for _, tt := range tests {
		if got := result.Counts[tt.name]; got != tt.want {
			t.Errorf("Counts[%q] = %d, want %d", tt.name, got, tt.want)
		}
	}
	if result.Total < 5 {
		t.Errorf("Total = %d, want at least 5", result.Total)
	}
	if result.Bytes != int64(len(data)) {
		t.Errorf("Bytes = %d, want %d", result.Bytes, len(data))
	}
	if result.PerMiB <= 0 {
		t.Errorf("PerMiB = %v", result.PerMiB)
	}
	if found := result.Found(); len(found) == 0 || found[0] != "PNG image" {
		t.Errorf("Found() = %v, want PNG first", found)
	}
}

func TestScanIgnoresNibbleShiftedMatches(t *testing.T) {
	// The hex text 1f8b08 holds f8b0 only at an odd offset.
	set, err := CompilePatterns(map[string]string{"probe": "(?i)(f8b0)"})
	if err != nil {
		t.Fatal(err)
	}
	result, err := set.Scan(context.Background(), bytes.NewReader([]byte{0x1f, 0x8b, 0x08}), 16)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0 for a match across byte boundaries", result.Total)
	}
}

func TestScanRandom(t *testing.T) {
	data := make([]byte, 256*1024)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}
	result, err := mustCompile(t).Scan(context.Background(), bytes.NewReader(data), 64*1024)
	if err != nil {
		t.Fatal(err)
	}
	if result.PerMiB > 4 {
		t.Errorf("PerMiB = %v, want close to 0 for random data", result.PerMiB)
	}
}

func TestScanEmptyAndInvalid(t *testing.T) {
	set := mustCompile(t)
	result, err := set.Scan(context.Background(), bytes.NewReader(nil), 1024)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 || result.PerMiB != 0 {
		t.Errorf("result = %+v", result)
	}
	if _, err := set.Scan(context.Background(), bytes.NewReader(nil), 0); err == nil {
		t.Error("zero block size accepted")
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mustCompile(t).Scan(ctx, bytes.NewReader([]byte("data")), 16); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7\n%garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	set := mustCompile(t)
	result, err := set.ScanFile(context.Background(), path, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if result.Counts["Adobe PDF document"] != 1 {
		t.Errorf("PDF count = %d, want 1", result.Counts["Adobe PDF document"])
	}
	if _, err := set.ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing"), 1024); err == nil {
		t.Error("missing file accepted")
	}
}
