package pipeline

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weathercal/internal/domain"
)

const htmlContentType = "text/html; charset=utf-8"

const errorPage = `<!doctype html>
<title>weathercal</title>
`

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>weathercal</title>
</head>
<body>
<h1>週間天気予報カレンダー</h1>
<p>気象庁の週間天気予報を iCalendar 形式で配信しています。カレンダーアプリで URL を購読してください。</p>
<ul>
{{- range .Points}}
<li><a href="{{.HTTPURL}}">{{.Name}}</a>{{with .WebcalURL}} (<a href="{{.}}">webcal</a>){{end}}</li>
{{- end}}
</ul>
<p><small>更新: {{.Updated}}</small></p>
</body>
</html>
`))

type indexPoint struct {
	Name      string
	HTTPURL   string
	WebcalURL template.URL
}

// RenderIndex renders the landing page listing every published point.
// publicURL may be empty, in which case links are relative and no webcal
// links are produced.
func RenderIndex(pointNames []string, publicURL string, updated time.Time) ([]byte, error) {
	points := make([]indexPoint, len(pointNames))
	for i, name := range pointNames {
		rel := url.PathEscape(name + ".ics")
		points[i] = indexPoint{Name: name, HTTPURL: rel}
		if publicURL != "" {
			abs := strings.TrimRight(publicURL, "/") + "/" + rel
			points[i].HTTPURL = abs
			if u, err := url.Parse(abs); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
				u.Scheme = "webcal"
				// webcal is not on html/template's safe scheme list.
				points[i].WebcalURL = template.URL(u.String()) //nolint:gosec // built from configuration, not input
			}
		}
	}

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		Points  []indexPoint
		Updated string
	}{points, updated.In(domain.JST).Format("2006-01-02 15:04 JST")})
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}
