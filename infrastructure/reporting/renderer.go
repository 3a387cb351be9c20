package reporting

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/pkg/errors"
)

// reportTemplate renders the laid-out pages to a standalone HTML document.
// One .page div per page; the page header and number are re-emitted at the
// top of every page.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a2e; margin: 0; background: #e8e8ee; }
.page { background: #fff; width: 820px; min-height: 1060px; margin: 16px auto; padding: 32px 40px; box-sizing: border-box; }
.page-header { display: flex; justify-content: space-between; font-size: 11px; color: #888; border-bottom: 1px solid #ddd; padding-bottom: 6px; margin-bottom: 18px; }
.title-block h1 { margin: 0 0 4px; font-size: 26px; }
.title-block .subtitle { font-size: 16px; color: #444; }
.title-block .meta { font-size: 12px; color: #777; margin-top: 8px; }
.title-block .headline { font-size: 20px; font-weight: bold; margin-top: 10px; }
h2.section { font-size: 17px; border-bottom: 2px solid #1a1a2e; padding-bottom: 4px; margin: 18px 0 10px; }
h3.group { font-size: 14px; margin: 12px 0 6px; color: #333; }
.cards { display: flex; flex-wrap: wrap; gap: 10px; }
.card { width: 150px; height: 64px; border: 1px solid #ccc; border-radius: 4px; padding: 8px; box-sizing: border-box; }
.card .label { font-size: 10px; text-transform: uppercase; color: #888; }
.card .value { font-size: 18px; font-weight: bold; margin-top: 6px; }
.bar { margin: 10px 0; }
.bar .bar-title { font-size: 11px; color: #666; margin-bottom: 4px; }
.bar .track { display: flex; height: 18px; border-radius: 3px; overflow: hidden; }
.bar .seg { height: 18px; font-size: 9px; color: #fff; text-align: center; line-height: 18px; overflow: hidden; }
.seg-0 { background: #2c5f8a; } .seg-1 { background: #3a7ca5; } .seg-2 { background: #5a9bc4; }
.seg-3 { background: #81b9d9; } .seg-4 { background: #a8d0e6; } .seg-5 { background: #c9e2f0; }
table.matrix { border-collapse: collapse; margin: 8px 0; }
table.matrix td, table.matrix th { border: 1px solid #bbb; width: 120px; height: 58px; text-align: center; vertical-align: top; font-size: 10px; padding: 2px; }
table.matrix th { width: auto; height: auto; background: #f4f4f7; font-size: 10px; }
td.level-low { background: #c8e6c9; } td.level-medium { background: #fff9c4; }
td.level-high { background: #ffe0b2; } td.level-critical { background: #ffcdd2; }
.marker { display: inline-block; background: #1a1a2e; color: #fff; border-radius: 8px; padding: 1px 6px; margin: 1px; font-size: 9px; }
.finding { display: flex; justify-content: space-between; border-bottom: 1px solid #eee; padding: 5px 0; font-size: 12px; }
.finding .detail { color: #777; font-size: 11px; }
.badge { border-radius: 3px; padding: 2px 8px; font-size: 10px; font-weight: bold; text-transform: uppercase; }
.badge-low { background: #c8e6c9; } .badge-medium { background: #fff9c4; }
.badge-high { background: #ffe0b2; } .badge-critical { background: #ffcdd2; }
.rec { border-left: 4px solid #999; padding: 6px 10px; margin: 6px 0; font-size: 12px; }
.rec.p-critical { border-color: #c62828; } .rec.p-high { border-color: #ef6c00; }
.rec.p-medium { border-color: #f9a825; } .rec .rec-title { font-weight: bold; }
.statement { font-size: 12px; color: #2e7d32; padding: 6px 0; }
</style>
</head>
<body>
{{- range .Pages }}
<div class="page">
<div class="page-header"><span>{{ $.DocTitle }}</span><span>Page {{ .Number }}</span></div>
{{- range .Blocks }}
{{- if eq .Kind "title" }}
<div class="title-block">
<h1>{{ .TitleInfo.Title }}</h1>
<div class="subtitle">{{ .TitleInfo.Subtitle }}</div>
<div class="meta">{{ .TitleInfo.Organization }} &middot; generated {{ .TitleInfo.GeneratedAt.Format "2006-01-02 15:04 MST" }}</div>
<div class="headline">{{ .TitleInfo.Headline }}</div>
</div>
{{- else if eq .Kind "section_heading" }}
<h2 class="section">{{ .Text }}</h2>
{{- else if eq .Kind "group_heading" }}
<h3 class="group">{{ .Text }}</h3>
{{- else if eq .Kind "summary_cards" }}
<div class="cards">
{{- range .Cards }}
<div class="card"><div class="label">{{ .Label }}</div><div class="value">{{ .Value }}</div></div>
{{- end }}
</div>
{{- else if eq .Kind "distribution_bar" }}
<div class="bar">
<div class="bar-title">{{ .Bar.Title }} ({{ .Bar.Total }} total)</div>
<div class="track">
{{- range $i, $seg := .Bar.Segments }}
<div class="seg seg-{{ $i }}" style="width: {{ $seg.Width }}%" title="{{ $seg.Label }}: {{ $seg.Count }}">{{ $seg.Count }}</div>
{{- end }}
</div>
</div>
{{- else if eq .Kind "risk_matrix" }}
<table class="matrix">
<tr><th></th><th colspan="5">Impact &rarr;</th></tr>
{{- range .Matrix.Rows }}
<tr>
{{- $first := index . 0 }}
<th>L{{ $first.Likelihood }}</th>
{{- range . }}
<td class="level-{{ .Level }}">
{{- range .Markers }}<span class="marker">{{ .Name }}</span>{{ end -}}
</td>
{{- end }}
</tr>
{{- end }}
</table>
{{- else if eq .Kind "finding" }}
<div class="finding">
<span>{{ .Finding.Name }} <span class="detail">{{ .Finding.Detail }}</span></span>
{{- if .Finding.HasScore }}
<span class="badge badge-{{ .Finding.Level }}">{{ .Finding.Level }} ({{ .Finding.Score }})</span>
{{- else }}
<span class="detail">{{ .Finding.Level }}</span>
{{- end }}
</div>
{{- else if eq .Kind "recommendation" }}
<div class="rec p-{{ .Recommendation.Priority | lower }}">
<div class="rec-title">[{{ .Recommendation.Priority }}] {{ .Recommendation.Title }}</div>
<div>{{ .Recommendation.Message }}</div>
</div>
{{- else if eq .Kind "statement" }}
<div class="statement">{{ .Text }}</div>
{{- end }}
{{- end }}
</div>
{{- end }}
</body>
</html>
`))

// RenderHTML renders laid-out pages to a standalone HTML document.
func RenderHTML(pages []*Page) ([]byte, error) {
	docTitle := "Security Posture Report"
	for _, p := range pages {
		for _, blk := range p.Blocks {
			if blk.Kind == BlockTitle && blk.TitleInfo != nil {
				docTitle = blk.TitleInfo.Title
			}
		}
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		DocTitle string
		Pages    []*Page
	}{DocTitle: docTitle, Pages: pages})
	if err != nil {
		return nil, errors.Wrap(err, "execute report template")
	}
	return buf.Bytes(), nil
}
