package journal

import (
	"bytes"
	"text/template"
)

// OrgTemplate renders entries as an org-mode outline with one heading per
// simulated day.
const OrgTemplate = `#+TITLE: {{ .Title }}
{{ range .Days }}
* Day {{ .Day }}
{{- range .Entries }}
- [{{ .Seq }}] {{ .Description }}
{{- end }}
{{ end }}`

type orgDay struct {
	Day     int
	Entries []Entry
}

// FormatOrg groups entries by day, in the order given.
func FormatOrg(title string, entries []Entry) (string, error) {
	var days []orgDay
	for _, e := range entries {
		if n := len(days); n > 0 && days[n-1].Day == e.Day {
			days[n-1].Entries = append(days[n-1].Entries, e)
			continue
		}
		days = append(days, orgDay{Day: e.Day, Entries: []Entry{e}})
	}

	t, err := template.New("journal").Parse(OrgTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, struct {
		Title string
		Days  []orgDay
	}{title, days})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
