// Package validate guards the tool's file and payload boundaries:
// input path shape, file size, coverage payload structure, and
// output path containment. The core registry assumes well-formed
// input; everything entering from disk passes through here first.
package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Hard limits applied to untrusted input.
const (
	// MaxFileSize is the largest coverage file accepted (100 MiB).
	MaxFileSize = 100 * 1024 * 1024

	// MaxTests is the largest test count accepted in one payload.
	MaxTests = 50000

	// MaxLinesPerFile caps line entries per file per test.
	MaxLinesPerFile = 100000
)

// Error kinds. Validation errors mean malformed input; security
// errors mean input that looks actively hostile.
var (
	ErrValidation = errors.New("validation error")
	ErrSecurity   = errors.New("security error")
)

// allowedExtensions lists the input file extensions accepted.
var allowedExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// dangerousPatterns are path fragments rejected outright.
var dangerousPatterns = []string{"../", "..\\", "~"}

// InputPath checks that path has an allowed extension and no
// traversal patterns. With checkExists it also requires the file to
// be present. Returns the cleaned path.
func InputPath(path string, checkExists bool) (string, error) {
	for _, pat := range dangerousPatterns {
		if strings.Contains(path, pat) {
			return "", fmt.Errorf("%w: dangerous path pattern %q in %q", ErrSecurity, pat, path)
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: file extension %q not allowed (want .json, .yaml, or .yml)", ErrSecurity, ext)
	}
	if checkExists {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: file does not exist: %s", ErrValidation, path)
		}
	}
	return filepath.Clean(path), nil
}

// FileSize rejects files larger than max bytes. max <= 0 uses
// MaxFileSize. A missing file is a validation error.
func FileSize(path string, max int64) error {
	if max <= 0 {
		max = MaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: cannot check file size: %v", ErrValidation, err)
	}
	if info.Size() > max {
		return fmt.Errorf("%w: file too large: %d bytes (limit %d)", ErrSecurity, info.Size(), max)
	}
	return nil
}

// Limits bounds a coverage payload. Zero fields fall back to the
// package defaults.
type Limits struct {
	MaxTests        int
	MaxLinesPerFile int
}

// CoverageData checks the per-test coverage mapping produced by
// ingestion before it reaches the registry: non-empty, bounded, with
// non-blank test names and positive line numbers.
func CoverageData(data map[string]map[string][]int, limits Limits) error {
	if limits.MaxTests <= 0 {
		limits.MaxTests = MaxTests
	}
	if limits.MaxLinesPerFile <= 0 {
		limits.MaxLinesPerFile = MaxLinesPerFile
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: coverage data is empty", ErrValidation)
	}
	if len(data) > limits.MaxTests {
		return fmt.Errorf("%w: too many tests: %d (limit %d)", ErrSecurity, len(data), limits.MaxTests)
	}

	for testName, byFile := range data {
		if strings.TrimSpace(testName) == "" {
			return fmt.Errorf("%w: test name cannot be empty", ErrValidation)
		}
		for file, lines := range byFile {
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("%w: test %q has an empty file name", ErrValidation, testName)
			}
			if len(lines) > limits.MaxLinesPerFile {
				return fmt.Errorf("%w: test %q covers too many lines in %q: %d (limit %d)",
					ErrSecurity, testName, file, len(lines), limits.MaxLinesPerFile)
			}
			for _, n := range lines {
				if n < 1 {
					return fmt.Errorf("%w: invalid line number %d in %q (test %q)",
						ErrValidation, n, file, testName)
				}
			}
		}
	}
	return nil
}

// OutputPath absolutizes path and rejects traversal patterns. When
// allowedDirs is non-empty the result must fall under one of them.
func OutputPath(path string, allowedDirs []string) (string, error) {
	for _, pat := range dangerousPatterns {
		if strings.Contains(path, pat) {
			return "", fmt.Errorf("%w: dangerous path pattern %q in %q", ErrSecurity, pat, path)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving output path: %v", ErrValidation, err)
	}
	if len(allowedDirs) == 0 {
		return abs, nil
	}
	for _, dir := range allowedDirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: output path %q not in allowed directories", ErrSecurity, path)
}

// FileHash returns the streaming SHA-256 of a file as lowercase hex.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
