package coverage

import (
	"fmt"
	"strings"
)

// Report renders a plain-text duplication report combining all three
// detectors at the default similarity threshold. Styled and machine
// formats live in internal/report; this is the dependency-free view.
func (r *Registry) Report() string {
	exact := r.ExactDuplicates()
	subsets := r.SubsetDuplicates()
	similar := r.Similar(DefaultThreshold)

	var sb strings.Builder
	sb.WriteString("Test Duplication Report\n")
	sb.WriteString("=======================\n\n")

	sb.WriteString("Exact Duplicates\n")
	sb.WriteString("----------------\n")
	if len(exact) == 0 {
		sb.WriteString("  none\n")
	}
	for i, group := range exact {
		fmt.Fprintf(&sb, "  Group %d (%d tests):\n", i+1, len(group))
		for _, name := range group {
			fmt.Fprintf(&sb, "    - %s\n", name)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("Subset Duplicates\n")
	sb.WriteString("-----------------\n")
	if len(subsets) == 0 {
		sb.WriteString("  none\n")
	}
	for _, p := range subsets {
		fmt.Fprintf(&sb, "  %s ⊂ %s (%.1f%% of superset)\n",
			p.Subset, p.Superset, p.Ratio*100)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Similar Tests (threshold %.0f%%)\n", DefaultThreshold*100)
	sb.WriteString("-------------------------------\n")
	if len(similar) == 0 {
		sb.WriteString("  none\n")
	}
	for _, p := range similar {
		fmt.Fprintf(&sb, "  %s ~ %s (%.1f%%)\n", p.A, p.B, p.Similarity*100)
	}
	sb.WriteString("\n")

	excess := 0
	for _, g := range exact {
		excess += len(g) - 1
	}
	sb.WriteString("Summary\n")
	sb.WriteString("-------\n")
	fmt.Fprintf(&sb, "  Total tests:       %d\n", r.Len())
	fmt.Fprintf(&sb, "  Exact duplicates:  %d (in %d groups)\n", excess, len(exact))
	fmt.Fprintf(&sb, "  Subset duplicates: %d\n", len(subsets))
	fmt.Fprintf(&sb, "  Similar pairs:     %d\n", len(similar))

	return sb.String()
}
