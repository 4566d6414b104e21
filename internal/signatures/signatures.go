/*
* Signature search (file signature density) module
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

// Package signatures counts well-known file format magic numbers in an
// input. Unencrypted disk images and archives of ordinary files carry many
// of them; ciphertext carries almost none.
package signatures

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/rure-go"
)

// patterns are matched against the lowercase hex encoding of each block.
var patterns = map[string]string{
	"7-Zip archive":            "(?i)(377abcaf271c)",
	"Adobe PDF document":       "(?i)(255044462d)",
	"BZIP2 archive":            "(?i)(425a68)(3[1-9])(314159265359)",
	"ELF executable":           "(?i)(7f454c46)(01|02)(01|02)(01)",
	"FLAC audio":               "(?i)(664c614300000022)",
	"GIF image":                "(?i)(474946383)(7|9)(61)",
	"GZIP archive":             "(?i)(1f8b08)",
	"HTML document":            "(?i)(3c21646f63747970652068746d6c|3c68746d6c)",
	"ISO-9660 volume":          "(?i)(01|ff)(4344303031)",
	"Java class file":          "(?i)(cafebabe0000)",
	"JPEG image":               "(?i)(ffd8ff)(db|e0|e1|e2|e3|ed|ee)",
	"Matroska stream":          "(?i)(1a45dfa3)",
	"Microsoft Office (OLE2)":  "(?i)(d0cf11e0a1b11ae1)",
	"MPEG-4 container":         "(?i)(66747970)(69736f6d|6d703432|4d345620|4d344120|71742020)",
	"Ogg stream":               "(?i)(4f67675300)(00|02|04)",
	"PE executable":            "(?i)(50450000)(4c01|6486|64aa|c001)",
	"PKZIP archive":            "(?i)(504b)(0304|0506|0708)",
	"PNG image":                "(?i)(89504e470d0a1a0a)",
	"RAR archive":              "(?i)(526172211a0700|526172211a070100)",
	"RIFF container":           "(?i)(52494646)(.{8})(57415645|41564920|57454250)",
	"RTF document":             "(?i)(7b5c72746631)",
	"SQLite3 database":         "(?i)(53514c69746520666f726d6174203300)",
	"Tar archive":              "(?i)(7573746172)(00|20)",
	"TIFF image":               "(?i)(49492a00|4d4d002a)",
	"XML document":             "(?i)(3c3f786d6c20)",
	"XZ archive":               "(?i)(fd377a585a00)",
	"Zstandard frame":          "(?i)(28b52ffd)",
	"ext2/3/4 superblock":      "(?i)(53ef)(01|02)(00)(01|02|03)(00)",
	"Linux shebang script":     "(?i)(23212f)(62696e|757372)",
	"Windows shortcut":         "(?i)(4c0000000114020000000000c000000000000046)",
	"Mach-O binary":            "(?i)(cffaedfe|cefaedfe|feedfacf|feedface)",
	"Windows registry hive":    "(?i)(72656766)(.{40})(01000000)",
	"NTFS boot sector":         "(?i)(eb5290)(4e5446532020202020)",
	"FAT boot sector":          "(?i)(4641543132202020|4641543136202020|4641543332202020)",
	"LZ4 frame":                "(?i)(04224d18)",
	"MP3 with ID3 tag":         "(?i)(494433)(02|03|04)(00)",
	"Windows bitmap":           "(?i)(424d)(.{8})(00000000)(.{8})(28000000|6c000000|7c000000)",
	"Debian package":           "(?i)(213c617263683e0a)(64656269616e)",
	"Android DEX":              "(?i)(6465780a30333)(5|6|7|8|9)(00)",
	"WebAssembly module":       "(?i)(0061736d01000000)",
	"PostScript document":      "(?i)(2521505321)",
	"GPT partition table":      "(?i)(4546492050415254)",
	"Unix compress archive":    "(?i)(1f9d90)",
	"CPIO archive":             "(?i)(303730373031|303730373032)",
	"Apple disk image":         "(?i)(6b6f6c79)",
	"SquashFS":                 "(?i)(68737173)",
	"Btrfs superblock":         "(?i)(5f42485266535f4d)",
	"XFS superblock":           "(?i)(58465342)",
	"Microsoft Cabinet":        "(?i)(4d534346)",
	"Windows event log":        "(?i)(456c6646696c6500)",
	"Outlook PST":              "(?i)(2142444e)",
	"Torrent metainfo":         "(?i)(64383a616e6e6f756e6365)",
	"Photoshop document":       "(?i)(38425053)",
	"OpenDocument archive":     "(?i)(504b0304)(.{52})(6d696d6574797065)",
	"Blender scene":            "(?i)(424c454e444552)",
	"Windows metafile":         "(?i)(d7cdc69a)",
	"Encapsulated PostScript":  "(?i)(c5d0d3c6)",
	"Flash video":              "(?i)(464c5601)",
	"MIDI audio":               "(?i)(4d546864)",
	"MPEG program stream":      "(?i)(000001ba)",
	"Windows minidump":         "(?i)(4d444d5093a7)",
	"Git packfile":             "(?i)(5041434b0000000)(2|3)",
	"Berkeley DB":              "(?i)(00061561|00053162)",
	"Java keystore":            "(?i)(feedfeed)",
	"PGP public key ring":      "(?i)(99010d04)",
	"X.509 DER certificate":    "(?i)(3082)(.{4})(3082)",
	"PEM text block":           "(?i)(2d2d2d2d2d424547494e20)",
	"OpenSSH private key text": "(?i)(2d2d2d2d2d424547494e204f50454e5353482050524956415445204b45592d2d2d2d2d)",
}

// Set is a compiled signature table.
type Set struct {
	names   []string
	regexes []*rure.Regex
}

// Compile builds the default signature set.
func Compile() (*Set, error) {
	return CompilePatterns(patterns)
}

// CompilePatterns compiles named hex regular expressions.
func CompilePatterns(table map[string]string) (*Set, error) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	set := &Set{names: names}
	for _, name := range names {
		regex, err := rure.Compile(table[name])
		if err != nil {
			return nil, fmt.Errorf("signatures: failed to compile pattern for %s: %w", name, err)
		}
		set.regexes = append(set.regexes, regex)
	}
	return set, nil
}

// countMatches counts matches starting on a byte boundary of the hex text.
func countMatches(data string, regex *rure.Regex) int {
	matches := regex.FindAll(data)
	var count int
	// FindAll returns start and end pairs, only the start is needed
	for i := 0; i < len(matches); i += 2 {
		if matches[i]%2 == 0 {
			count++
		}
	}
	return count
}

// Result is the outcome of a scan.
type Result struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	Bytes  int64          `json:"bytes"`
	PerMiB float64        `json:"per_mib"`
}

// Found lists the signatures seen at least once, most frequent first.
func (r *Result) Found() []string {
	var names []string
	for name, count := range r.Counts {
		if count > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := r.Counts[names[i]], r.Counts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	return names
}

// Scan reads r in blocks of blockSize bytes and counts every signature.
// Signatures split across two blocks are not seen.
func (s *Set) Scan(ctx context.Context, r io.Reader, blockSize int) (*Result, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("signatures: invalid block size %d", blockSize)
	}

	result := &Result{Counts: make(map[string]int, len(s.names))}
	for _, name := range s.names {
		result.Counts[name] = 0
	}

	buffer := make([]byte, blockSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bytesRead, err := io.ReadFull(r, buffer)
		if err == io.EOF {
			break
		} else if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("signatures: read: %w", err)
		}
		result.Bytes += int64(bytesRead)

		hexData := hex.EncodeToString(buffer[:bytesRead])
		for i, regex := range s.regexes {
			found := countMatches(hexData, regex)
			result.Counts[s.names[i]] += found
			result.Total += found
		}
	}

	if result.Bytes > 0 {
		result.PerMiB = float64(result.Total) / (float64(result.Bytes) / 1048576.0)
	}
	return result, nil
}

// ScanFile runs Scan over the file at path.
func (s *Set) ScanFile(ctx context.Context, path string, blockSize int) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("signatures: %w", err)
	}
	defer file.Close()

	return s.Scan(ctx, file, blockSize)
}
