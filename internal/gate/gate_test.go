package gate

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unbound-force/overlap/internal/coverage"
)

func dupRegistry() *coverage.Registry {
	reg := coverage.NewRegistry()
	reg.Add("TestA", map[string][]int{"f.go": {1, 2}})
	reg.Add("TestB", map[string][]int{"f.go": {1, 2}})
	reg.Add("TestC", map[string][]int{"f.go": {3, 4}})
	reg.Add("TestD", map[string][]int{"f.go": {5, 6}})
	return reg
}

func TestSnapshot_Counts(t *testing.T) {
	res := Snapshot(dupRegistry(), 0.7)

	if res.TotalTests != 4 {
		t.Errorf("TotalTests = %d, want 4", res.TotalTests)
	}
	if res.ExactDuplicates != 1 {
		t.Errorf("ExactDuplicates = %d, want 1", res.ExactDuplicates)
	}
	if res.DuplicateGroups != 1 {
		t.Errorf("DuplicateGroups = %d, want 1", res.DuplicateGroups)
	}
	if res.DuplicatePercentage != 25 {
		t.Errorf("DuplicatePercentage = %v, want 25", res.DuplicatePercentage)
	}
	if res.Threshold != 0.7 {
		t.Errorf("Threshold = %v, want 0.7", res.Threshold)
	}
	if _, err := time.Parse(time.RFC3339, res.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", res.Timestamp, err)
	}
}

func TestSnapshot_EmptyRegistry(t *testing.T) {
	res := Snapshot(coverage.NewRegistry(), 0.7)
	if res.TotalTests != 0 || res.DuplicatePercentage != 0 {
		t.Errorf("empty snapshot = %+v, want zeroed counts", res)
	}
}

func TestCheck_NoLimitsPasses(t *testing.T) {
	passed, details := NewGate().Check(dupRegistry(), 0.7, nil)
	if !passed || !details.Passed {
		t.Errorf("gate with no limits must pass, failures: %v", details.Failures)
	}
}

func TestCheck_MaxDuplicatesExceeded(t *testing.T) {
	limit := 0
	g := NewGate()
	g.MaxDuplicates = &limit

	passed, details := g.Check(dupRegistry(), 0.7, nil)
	if passed {
		t.Fatal("gate must fail when duplicates exceed the limit")
	}
	if len(details.Failures) != 1 ||
		!strings.Contains(details.Failures[0], "exact duplicates") {
		t.Errorf("unexpected failures: %v", details.Failures)
	}
}

func TestCheck_MaxPercentageExceeded(t *testing.T) {
	limit := 10.0
	g := NewGate()
	g.MaxDuplicatePercentage = &limit

	passed, details := g.Check(dupRegistry(), 0.7, nil)
	if passed {
		t.Fatal("gate must fail at 25% duplicates against a 10% limit")
	}
	if !strings.Contains(details.Failures[0], "percentage") {
		t.Errorf("unexpected failures: %v", details.Failures)
	}
}

func TestCheck_FailOnIncreaseAgainstBaseline(t *testing.T) {
	baseline := &Result{ExactDuplicates: 0}

	passed, details := NewGate().Check(dupRegistry(), 0.7, baseline)
	if passed {
		t.Fatal("gate must fail when duplicates increased since baseline")
	}
	if !strings.Contains(details.Failures[0], "increased") {
		t.Errorf("unexpected failures: %v", details.Failures)
	}
}

func TestCheck_BaselineEqualPasses(t *testing.T) {
	baseline := &Result{ExactDuplicates: 1}

	passed, _ := NewGate().Check(dupRegistry(), 0.7, baseline)
	if !passed {
		t.Error("gate must pass when duplicates did not increase")
	}
}

func TestCheck_FailOnIncreaseDisabled(t *testing.T) {
	g := NewGate()
	g.FailOnIncrease = false
	baseline := &Result{ExactDuplicates: 0}

	passed, _ := g.Check(dupRegistry(), 0.7, baseline)
	if !passed {
		t.Error("gate must ignore baseline increase when FailOnIncrease is off")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		passed     bool
		duplicates int
		want       int
	}{
		{true, 0, ExitClean},
		{true, 3, ExitDuplicates},
		{false, 0, ExitGateFailed},
		{false, 3, ExitGateFailed},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.passed, tt.duplicates); got != tt.want {
			t.Errorf("ExitCode(%v, %d) = %d, want %d",
				tt.passed, tt.duplicates, got, tt.want)
		}
	}
}

func TestBaselineStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewBaselineStore(t.TempDir())
	saved := Snapshot(dupRegistry(), 0.7)

	if err := store.Save("main", saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load("main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for an existing baseline")
	}
	if *loaded != saved {
		t.Errorf("round trip mismatch: %+v vs %+v", *loaded, saved)
	}
}

func TestBaselineStore_LoadMissingIsNilNil(t *testing.T) {
	store := NewBaselineStore(t.TempDir())
	loaded, err := store.Load("nope")
	if err != nil {
		t.Fatalf("Load of missing baseline errored: %v", err)
	}
	if loaded != nil {
		t.Errorf("Load of missing baseline = %+v, want nil", loaded)
	}
}

func TestBaselineStore_List(t *testing.T) {
	store := NewBaselineStore(t.TempDir())
	for _, name := range []string{"release", "main", "nightly"} {
		if err := store.Save(name, Result{}); err != nil {
			t.Fatal(err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"main", "nightly", "release"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBaselineStore_ListEmptyDir(t *testing.T) {
	store := NewBaselineStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List()
	if err != nil {
		t.Fatalf("List on missing dir errored: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}

func TestBaselineStore_Delete(t *testing.T) {
	store := NewBaselineStore(t.TempDir())
	if err := store.Save("gone", Result{}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("gone"); err == nil {
		t.Error("Delete of a missing baseline must error")
	}
}

func TestBaselineStore_RejectsBadNames(t *testing.T) {
	store := NewBaselineStore(t.TempDir())
	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		if err := store.Save(name, Result{}); err == nil {
			t.Errorf("Save(%q) should have been rejected", name)
		}
	}
}

func TestTrend_AppendAndHistory(t *testing.T) {
	trend := NewTrend(filepath.Join(t.TempDir(), "history.json"))

	for i := 0; i < 3; i++ {
		if err := trend.Append(Result{ExactDuplicates: i}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	history, err := trend.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, res := range history {
		if res.ExactDuplicates != i {
			t.Errorf("history[%d].ExactDuplicates = %d, want %d",
				i, res.ExactDuplicates, i)
		}
	}
}

func TestTrend_HistoryMissingFile(t *testing.T) {
	trend := NewTrend(filepath.Join(t.TempDir(), "none.json"))
	history, err := trend.History()
	if err != nil {
		t.Fatalf("History on missing file errored: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History() = %v, want empty", history)
	}
}

func TestTrend_Improving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	trend := NewTrend(path)

	// Empty and single-entry histories are improving by definition.
	for _, stage := range []int{0, 1} {
		improving, err := trend.Improving("exact_duplicates")
		if err != nil {
			t.Fatal(err)
		}
		if !improving {
			t.Errorf("history with %d entries should be improving", stage)
		}
		if err := trend.Append(Result{ExactDuplicates: 5}); err != nil {
			t.Fatal(err)
		}
	}

	if err := trend.Append(Result{ExactDuplicates: 9}); err != nil {
		t.Fatal(err)
	}
	improving, err := trend.Improving("exact_duplicates")
	if err != nil {
		t.Fatal(err)
	}
	if improving {
		t.Error("rising duplicate count must not be improving")
	}

	if err := trend.Append(Result{ExactDuplicates: 2}); err != nil {
		t.Fatal(err)
	}
	improving, err = trend.Improving("exact_duplicates")
	if err != nil {
		t.Fatal(err)
	}
	if !improving {
		t.Error("falling duplicate count must be improving")
	}
}

func TestTrend_ImprovingUnknownMetric(t *testing.T) {
	trend := NewTrend(filepath.Join(t.TempDir(), "history.json"))
	for i := 0; i < 2; i++ {
		if err := trend.Append(Result{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := trend.Improving("bogus"); err == nil {
		t.Error("unknown metric must error")
	}
}
