/*
* Analysis output
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

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatEntropy prints an entropy value with 16 significant digits.
func FormatEntropy(h float64) string {
	return strconv.FormatFloat(h, 'g', 16, 64)
}

// Lines renders the analysis as console lines.
func (a *Analysis) Lines() []string {
	res := a.Result
	var lines []string

	if a.FileName != "" {
		lines = append(lines,
			fmt.Sprintf("File name: %s", a.FileName),
			fmt.Sprintf("File size = %d bytes", res.Size),
			fmt.Sprintf("Entropy = %s", FormatEntropy(res.Entropy)),
			fmt.Sprintf("Time = %d ms", res.Elapsed.Milliseconds()),
		)
	} else {
		lines = append(lines,
			fmt.Sprintf("Sequence size = %d bytes", res.Size),
			fmt.Sprintf("Entropy = %s", FormatEntropy(res.Entropy)),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Information entropy estimation: %s", a.Label),
		fmt.Sprintf("Min possible file size assuming max theoretical compression efficiency: %d bytes", res.MinCompressedSize),
	)

	if p := a.Profile; p != nil {
		lines = append(lines, fmt.Sprintf(
			"Block entropy (%d blocks of %d bytes): mean %f, std. dev. %f, min %f, max %f, median %f, encrypted blocks %d (%.1f%%)",
			p.Count, p.BlockSize, p.Mean, p.StdDev, p.Min, p.Max, p.Median, p.EncryptedBlocks, p.EncryptedShare()*100))
		u := p.Uniformity
		lines = append(lines, fmt.Sprintf(
			"Uniformity: Kolmogorov-Smirnov distance %f at byte 0x%02x, chi-square %f",
			u.KSDistance, u.KSSymbol, u.ChiSquare))
	}
	if ac := a.Autocorrelation; ac != nil {
		lines = append(lines, fmt.Sprintf(
			"Autocorrelation (%d blocks, lags below %d): mean %f, std. dev. %f",
			ac.Blocks, ac.MaxLag, ac.Mean, ac.StdDev))
	}
	if c := a.Compression; c != nil {
		var parts []string
		for _, codec := range c.Codecs {
			parts = append(parts, fmt.Sprintf("%s %f", codec.Codec, codec.Ratio))
		}
		line := fmt.Sprintf("Compression ratio: mean %f (%s)", c.MeanRatio, strings.Join(parts, ", "))
		if len(c.Codecs) > 0 {
			best := c.Smallest()
			line += fmt.Sprintf(", smallest %s %d bytes", best.Codec, best.CompressedSize)
		}
		lines = append(lines, line)
	}
	if s := a.Signatures; s != nil {
		line := fmt.Sprintf("Signatures per megabyte: %f (%d found)", s.PerMiB, s.Total)
		if found := s.Found(); len(found) > 0 {
			var parts []string
			for _, name := range found[:min(len(found), 5)] {
				parts = append(parts, fmt.Sprintf("%s - %d", name, s.Counts[name]))
			}
			line += ": " + strings.Join(parts, ", ")
		}
		lines = append(lines, line)
	}
	return lines
}

// WriteText prints the analysis in the console layout.
func WriteText(w io.Writer, a *Analysis) error {
	for _, line := range a.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON prints the analysis as one indented JSON document.
func WriteJSON(w io.Writer, a *Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// LogPath names the journal of the analysed file at path. It lives in dir
// when dir is set and next to the file otherwise.
func LogPath(path, dir string) string {
	name := fmt.Sprintf("%s.enclog", path)
	if dir == "" {
		return name
	}
	return filepath.Join(dir, filepath.Base(name))
}

// OpenLog opens (appending) the journal at path.
func OpenLog(path string) (*log.Logger, io.Closer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file: %w", err)
	}
	return log.New(file, "", log.LstdFlags), file, nil
}

// LogAnalysis writes every console line of a into logger.
func LogAnalysis(logger *log.Logger, a *Analysis) {
	for _, line := range a.Lines() {
		logger.Println(line)
	}
}
