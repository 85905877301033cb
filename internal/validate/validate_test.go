package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInputPath_AllowedExtensions(t *testing.T) {
	for _, path := range []string{"cov.json", "cov.yaml", "cov.yml", "COV.JSON"} {
		if _, err := InputPath(path, false); err != nil {
			t.Errorf("InputPath(%q) = %v, want nil", path, err)
		}
	}
}

func TestInputPath_RejectedExtensions(t *testing.T) {
	for _, path := range []string{"cov.txt", "cov.exe", "cov", "cov.json.bak"} {
		_, err := InputPath(path, false)
		if err == nil {
			t.Errorf("InputPath(%q) should have been rejected", path)
			continue
		}
		if !errors.Is(err, ErrSecurity) {
			t.Errorf("InputPath(%q) error kind = %v, want ErrSecurity", path, err)
		}
	}
}

func TestInputPath_DangerousPatterns(t *testing.T) {
	for _, path := range []string{
		"../etc/cov.json",
		`..\windows\cov.json`,
		"~/secrets/cov.json",
	} {
		if _, err := InputPath(path, false); !errors.Is(err, ErrSecurity) {
			t.Errorf("InputPath(%q) = %v, want ErrSecurity", path, err)
		}
	}
}

func TestInputPath_CheckExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	if _, err := InputPath(missing, true); !errors.Is(err, ErrValidation) {
		t.Errorf("InputPath(missing, true) = %v, want ErrValidation", err)
	}

	present := filepath.Join(t.TempDir(), "present.json")
	if err := os.WriteFile(present, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := InputPath(present, true); err != nil {
		t.Errorf("InputPath(present, true) = %v, want nil", err)
	}
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := FileSize(path, 128); err != nil {
		t.Errorf("64 bytes under a 128 limit should pass: %v", err)
	}
	if err := FileSize(path, 32); !errors.Is(err, ErrSecurity) {
		t.Errorf("64 bytes over a 32 limit = %v, want ErrSecurity", err)
	}
	if err := FileSize(filepath.Join(t.TempDir(), "none"), 0); !errors.Is(err, ErrValidation) {
		t.Errorf("missing file = %v, want ErrValidation", err)
	}
}

func TestCoverageData_Valid(t *testing.T) {
	data := map[string]map[string][]int{
		"TestA": {"a.go": {1, 2, 3}},
		"TestB": {},
	}
	if err := CoverageData(data, Limits{}); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
}

func TestCoverageData_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]map[string][]int
		limits Limits
		kind   error
	}{
		{
			name: "empty payload",
			data: map[string]map[string][]int{},
			kind: ErrValidation,
		},
		{
			name: "blank test name",
			data: map[string]map[string][]int{"  ": {"a.go": {1}}},
			kind: ErrValidation,
		},
		{
			name: "blank file name",
			data: map[string]map[string][]int{"TestA": {" ": {1}}},
			kind: ErrValidation,
		},
		{
			name: "zero line number",
			data: map[string]map[string][]int{"TestA": {"a.go": {0}}},
			kind: ErrValidation,
		},
		{
			name: "negative line number",
			data: map[string]map[string][]int{"TestA": {"a.go": {-3}}},
			kind: ErrValidation,
		},
		{
			name: "too many tests",
			data: map[string]map[string][]int{
				"TestA": {}, "TestB": {}, "TestC": {},
			},
			limits: Limits{MaxTests: 2},
			kind:   ErrSecurity,
		},
		{
			name: "too many lines",
			data: map[string]map[string][]int{
				"TestA": {"a.go": {1, 2, 3, 4}},
			},
			limits: Limits{MaxLinesPerFile: 3},
			kind:   ErrSecurity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CoverageData(tt.data, tt.limits)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error kind = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestOutputPath_Containment(t *testing.T) {
	dir := t.TempDir()

	abs, err := OutputPath(filepath.Join(dir, "report.json"), []string{dir})
	if err != nil {
		t.Fatalf("in-dir output rejected: %v", err)
	}
	if !filepath.IsAbs(abs) {
		t.Errorf("OutputPath returned relative path %q", abs)
	}

	other := t.TempDir()
	if _, err := OutputPath(filepath.Join(other, "report.json"), []string{dir}); !errors.Is(err, ErrSecurity) {
		t.Errorf("out-of-dir output = %v, want ErrSecurity", err)
	}
}

func TestOutputPath_NoAllowlist(t *testing.T) {
	if _, err := OutputPath("report.json", nil); err != nil {
		t.Errorf("output without allowlist rejected: %v", err)
	}
}

func TestOutputPath_DangerousPattern(t *testing.T) {
	if _, err := OutputPath("../report.json", nil); !errors.Is(err, ErrSecurity) {
		t.Errorf("traversal output = %v, want ErrSecurity", err)
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := []byte(`{"a": 1}`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("FileHash = %q, want %q", got, want)
	}

	if _, err := FileHash(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("hashing a missing file must error")
	}
}
