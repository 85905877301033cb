package ingest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/unbound-force/overlap/internal/coverage"
	"github.com/unbound-force/overlap/internal/validate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "cov.json", `{
		"TestA": {"a.go": [1, 2, 3]},
		"TestB": {"a.go": [1], "b.go": [7]}
	}`)

	mapping, err := LoadFile(path, validate.Limits{})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(mapping))
	}
	if !reflect.DeepEqual(mapping["TestA"]["a.go"], []int{1, 2, 3}) {
		t.Errorf("TestA lines = %v", mapping["TestA"]["a.go"])
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "cov.yaml", `
TestA:
  a.go: [1, 2, 3]
TestB:
  b.go: [9]
`)

	mapping, err := LoadFile(path, validate.Limits{})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !reflect.DeepEqual(mapping["TestB"]["b.go"], []int{9}) {
		t.Errorf("TestB lines = %v", mapping["TestB"]["b.go"])
	}
}

func TestLoadFile_RejectsBadExtension(t *testing.T) {
	path := writeFile(t, "cov.txt", `{}`)
	if _, err := LoadFile(path, validate.Limits{}); err == nil {
		t.Error("expected extension rejection")
	}
}

func TestLoadFile_RejectsMalformedJSON(t *testing.T) {
	path := writeFile(t, "cov.json", `{not json`)
	if _, err := LoadFile(path, validate.Limits{}); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFile_RejectsInvalidPayload(t *testing.T) {
	path := writeFile(t, "cov.json", `{"": {"a.go": [1]}}`)
	if _, err := LoadFile(path, validate.Limits{}); err == nil {
		t.Error("expected validation error for blank test name")
	}
}

func TestConvertAggregate_Basic(t *testing.T) {
	doc := []byte(`{
		"files": {
			"src/app.py": {"executed_lines": [3, 1, 2, 2]},
			"src/db.py": {"executed_lines": [10]}
		}
	}`)

	mapping, err := ConvertAggregate(doc)
	if err != nil {
		t.Fatalf("ConvertAggregate failed: %v", err)
	}
	bucket, ok := mapping[AggregateBucket]
	if !ok {
		t.Fatalf("missing %q bucket: %v", AggregateBucket, mapping)
	}
	if !reflect.DeepEqual(bucket["src/app.py"], []int{1, 2, 3}) {
		t.Errorf("lines not sorted and deduplicated: %v", bucket["src/app.py"])
	}
	if !reflect.DeepEqual(bucket["src/db.py"], []int{10}) {
		t.Errorf("db lines = %v", bucket["src/db.py"])
	}
}

func TestConvertAggregate_MissingFilesKey(t *testing.T) {
	if _, err := ConvertAggregate([]byte(`{"meta": {}}`)); err == nil {
		t.Error("missing 'files' key must error")
	}
}

func TestConvertAggregate_SkipsMalformedEntries(t *testing.T) {
	doc := []byte(`{
		"files": {
			"good.py": {"executed_lines": [1, 2]},
			"bad.py": {"executed_lines": "nope"},
			"missing.py": {}
		}
	}`)

	mapping, err := ConvertAggregate(doc)
	if err != nil {
		t.Fatalf("ConvertAggregate failed: %v", err)
	}
	bucket := mapping[AggregateBucket]
	if len(bucket) != 1 {
		t.Fatalf("expected 1 surviving file, got %v", bucket)
	}
	if _, ok := bucket["good.py"]; !ok {
		t.Error("well-formed entry was dropped")
	}
}

func TestConvertAggregate_NoValidFiles(t *testing.T) {
	mapping, err := ConvertAggregate([]byte(`{"files": {}}`))
	if err != nil {
		t.Fatalf("ConvertAggregate failed: %v", err)
	}
	if len(mapping) != 0 {
		t.Errorf("expected empty mapping, got %v", mapping)
	}
}

func TestConvertContexts_PerTest(t *testing.T) {
	doc := []byte(`{
		"files": {
			"src/app.py": {
				"contexts": {
					"TestLogin": [1, 3, 2],
					"TestLogout": [5],
					"": [99]
				}
			},
			"src/db.py": {
				"contexts": {"TestLogin": [10]}
			}
		}
	}`)

	mapping, err := ConvertContexts(doc)
	if err != nil {
		t.Fatalf("ConvertContexts failed: %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("expected 2 tests, got %v", mapping)
	}
	if !reflect.DeepEqual(mapping["TestLogin"]["src/app.py"], []int{1, 2, 3}) {
		t.Errorf("TestLogin app lines = %v", mapping["TestLogin"]["src/app.py"])
	}
	if !reflect.DeepEqual(mapping["TestLogin"]["src/db.py"], []int{10}) {
		t.Errorf("TestLogin db lines = %v", mapping["TestLogin"]["src/db.py"])
	}
	if _, ok := mapping[""]; ok {
		t.Error("blank context name must be skipped")
	}
}

func TestConvertContexts_FallsBackToAggregate(t *testing.T) {
	doc := []byte(`{
		"files": {
			"src/app.py": {"executed_lines": [1, 2]}
		}
	}`)

	mapping, err := ConvertContexts(doc)
	if err != nil {
		t.Fatalf("ConvertContexts failed: %v", err)
	}
	if _, ok := mapping[AggregateBucket]; !ok {
		t.Errorf("expected aggregate fallback, got %v", mapping)
	}
}

const sampleProfile = `mode: set
example.com/m/a.go:3.10,5.2 2 1
example.com/m/a.go:7.10,9.2 2 0
example.com/m/b.go:1.1,2.2 1 3
`

func TestFromProfile_CoveredBlocksOnly(t *testing.T) {
	path := writeFile(t, "cover.out", sampleProfile)

	mapping, err := FromProfile(path, "")
	if err != nil {
		t.Fatalf("FromProfile failed: %v", err)
	}
	bucket := mapping[AggregateBucket]
	if !reflect.DeepEqual(bucket["example.com/m/a.go"], []int{3, 4, 5}) {
		t.Errorf("a.go lines = %v, want [3 4 5]", bucket["example.com/m/a.go"])
	}
	if !reflect.DeepEqual(bucket["example.com/m/b.go"], []int{1, 2}) {
		t.Errorf("b.go lines = %v, want [1 2]", bucket["example.com/m/b.go"])
	}
}

func TestFromProfile_CustomBucket(t *testing.T) {
	path := writeFile(t, "cover.out", sampleProfile)

	mapping, err := FromProfile(path, "TestX")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mapping["TestX"]; !ok {
		t.Errorf("expected bucket TestX, got %v", mapping)
	}
}

func TestFromProfileDir_OneProfilePerTest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"TestAlpha", "TestBeta"} {
		path := filepath.Join(dir, name+".out")
		if err := os.WriteFile(path, []byte(sampleProfile), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mapping, err := FromProfileDir(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("FromProfileDir failed: %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("expected 2 tests, got %v", mapping)
	}
	for _, name := range []string{"TestAlpha", "TestBeta"} {
		if _, ok := mapping[name]; !ok {
			t.Errorf("missing test %q", name)
		}
	}
}

func TestFromProfileDir_EmptyDir(t *testing.T) {
	if _, err := FromProfileDir(context.Background(), t.TempDir(), 1); err == nil {
		t.Error("expected error for directory without profiles")
	}
}

func TestPopulate_Deterministic(t *testing.T) {
	mapping := Mapping{
		"TestC": {"f.go": {5}},
		"TestA": {"f.go": {1}},
		"TestB": {"f.go": {3}},
	}

	reg := coverage.NewRegistry()
	Populate(reg, mapping)

	records := reg.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"TestA", "TestB", "TestC"} {
		if records[i].TestName != want {
			t.Errorf("records[%d] = %q, want %q", i, records[i].TestName, want)
		}
	}
}
