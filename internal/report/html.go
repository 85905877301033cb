package report

import (
	"fmt"
	"html/template"
	"io"
)

// maxHTMLRows bounds the pair tables so huge suites stay browsable.
const maxHTMLRows = 20

type htmlPage struct {
	Title       string
	TotalTests  int
	ExcessDups  int
	Groups      int
	Subsets     int
	Similar     int
	Score       string
	Grade       string
	DupPercent  float64
	ExactRows   []htmlExactRow
	SubsetRows  []htmlPairRow
	SimilarRows []htmlPairRow
	MoreSubsets int
	MoreSimilar int
	Recs        []htmlRec
}

type htmlExactRow struct {
	Group  int
	Test   string
	Action string
}

type htmlPairRow struct {
	A, B  string
	Value string
}

type htmlRec struct {
	Priority string
	Message  string
}

// WriteHTML writes the analysis as a self-contained HTML page with
// embedded CSS: stat cards, a duplicate-percentage bar, and the three
// finding tables (capped at 20 rows each).
func WriteHTML(w io.Writer, a *Analysis, title string) error {
	if title == "" {
		title = "Test Duplication Report"
	}
	st := a.Statistics

	page := htmlPage{
		Title:      title,
		TotalTests: st.TotalTests,
		ExcessDups: st.ExactDuplicates,
		Groups:     st.DuplicateGroups,
		Subsets:    st.SubsetDuplicates,
		Similar:    st.SimilarPairs,
		Score:      fmt.Sprintf("%.1f", a.Score.Overall),
		Grade:      a.Score.Grade,
	}
	if st.TotalTests > 0 {
		page.DupPercent = 100 * float64(st.ExactDuplicates) / float64(st.TotalTests)
	}

	for i, group := range a.ExactGroups {
		for j, name := range group {
			action := "Remove"
			if j == 0 {
				action = "Keep"
			}
			page.ExactRows = append(page.ExactRows,
				htmlExactRow{Group: i + 1, Test: name, Action: action})
		}
	}
	for i, p := range a.Subsets {
		if i == maxHTMLRows {
			page.MoreSubsets = len(a.Subsets) - maxHTMLRows
			break
		}
		page.SubsetRows = append(page.SubsetRows, htmlPairRow{
			A: p.Subset, B: p.Superset,
			Value: fmt.Sprintf("%.0f%%", p.Ratio*100),
		})
	}
	for i, p := range a.Similar {
		if i == maxHTMLRows {
			page.MoreSimilar = len(a.Similar) - maxHTMLRows
			break
		}
		page.SimilarRows = append(page.SimilarRows, htmlPairRow{
			A: p.A, B: p.B,
			Value: fmt.Sprintf("%.1f%%", p.Similarity*100),
		})
	}
	for _, rec := range a.Recommendations {
		page.Recs = append(page.Recs,
			htmlRec{Priority: string(rec.Priority), Message: rec.Message})
	}

	return htmlTmpl.Execute(w, page)
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2328; }
  h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .4rem; }
  .cards { display: flex; gap: 1rem; flex-wrap: wrap; margin: 1.5rem 0; }
  .card { border: 1px solid #d0d7de; border-radius: 8px; padding: 1rem 1.5rem; min-width: 9rem; text-align: center; }
  .card .num { font-size: 1.8rem; font-weight: 700; }
  .card .label { color: #57606a; font-size: .85rem; }
  .bar { background: #eaeef2; border-radius: 6px; height: 14px; overflow: hidden; margin: .5rem 0 1.5rem; }
  .bar > div { background: #cf222e; height: 100%; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
  th, td { border: 1px solid #d0d7de; padding: .4rem .7rem; text-align: left; font-size: .9rem; }
  th { background: #f6f8fa; }
  td.keep { color: #1a7f37; font-weight: 600; }
  td.remove { color: #cf222e; font-weight: 600; }
  .empty { color: #57606a; font-style: italic; margin-bottom: 1.5rem; }
  .more { color: #57606a; font-size: .85rem; margin-top: -1rem; margin-bottom: 1.5rem; }
  .rec-high { color: #cf222e; font-weight: 600; }
  .rec-medium { color: #bc4c00; font-weight: 600; }
  .rec-low { color: #0969da; font-weight: 600; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<div class="cards">
  <div class="card"><div class="num">{{.TotalTests}}</div><div class="label">Total tests</div></div>
  <div class="card"><div class="num">{{.ExcessDups}}</div><div class="label">Exact duplicates</div></div>
  <div class="card"><div class="num">{{.Subsets}}</div><div class="label">Subset duplicates</div></div>
  <div class="card"><div class="num">{{.Similar}}</div><div class="label">Similar pairs</div></div>
  <div class="card"><div class="num">{{.Score}}</div><div class="label">Score ({{.Grade}})</div></div>
</div>

<h2>Duplicate percentage: {{printf "%.1f" .DupPercent}}%</h2>
<div class="bar"><div style="width: {{printf "%.1f" .DupPercent}}%"></div></div>

<h2>Exact Duplicates</h2>
{{if .ExactRows}}
<table>
  <tr><th>Group</th><th>Test</th><th>Action</th></tr>
  {{range .ExactRows}}
  <tr><td>{{.Group}}</td><td>{{.Test}}</td><td class="{{if eq .Action "Keep"}}keep{{else}}remove{{end}}">{{.Action}}</td></tr>
  {{end}}
</table>
{{else}}<p class="empty">No exact duplicates found.</p>{{end}}

<h2>Subset Duplicates</h2>
{{if .SubsetRows}}
<table>
  <tr><th>Subset</th><th>Superset</th><th>Coverage</th></tr>
  {{range .SubsetRows}}
  <tr><td>{{.A}}</td><td>{{.B}}</td><td>{{.Value}}</td></tr>
  {{end}}
</table>
{{if .MoreSubsets}}<p class="more">&hellip; and {{.MoreSubsets}} more.</p>{{end}}
{{else}}<p class="empty">No subset duplicates found.</p>{{end}}

<h2>Similar Tests</h2>
{{if .SimilarRows}}
<table>
  <tr><th>Test A</th><th>Test B</th><th>Similarity</th></tr>
  {{range .SimilarRows}}
  <tr><td>{{.A}}</td><td>{{.B}}</td><td>{{.Value}}</td></tr>
  {{end}}
</table>
{{if .MoreSimilar}}<p class="more">&hellip; and {{.MoreSimilar}} more.</p>{{end}}
{{else}}<p class="empty">No similar tests found.</p>{{end}}

{{if .Recs}}
<h2>Recommendations</h2>
<ul>
  {{range .Recs}}
  <li><span class="rec-{{.Priority}}">{{.Priority}}</span>: {{.Message}}</li>
  {{end}}
</ul>
{{end}}

</body>
</html>
`))
