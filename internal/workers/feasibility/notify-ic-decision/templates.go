// internal/workers/feasibility/notify-ic-decision/templates.go
package notifyicdecision

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"deal-compass-workers/internal/models"
)

type messageData struct {
	DealName     string
	City         string
	Decision     string
	Score        int
	Confidence   string
	Completeness int
	Yield        string
	IRR          string
	Conditions   []string
	RedFlags     []string
	Narrative    string
	BoardURL     string
}

var decisionLabels = map[string]string{
	models.DecisionGo:               "GO",
	models.DecisionGoWithConditions: "GO WITH CONDITIONS",
	models.DecisionNoGo:             "NO-GO",
}

func decisionLabel(decision string) string {
	if l, ok := decisionLabels[decision]; ok {
		return l
	}
	return strings.ToUpper(decision)
}

const subjectTemplate = `IC decision {{.Decision}}: {{.DealName}} ({{.Score}}/100)`

const textTemplate = `{{.DealName}}{{if .City}}, {{.City}}{{end}}

Recommendation: {{.Decision}}
IC score: {{.Score}}/100 ({{.Confidence}} confidence, data {{.Completeness}}% complete)
Yield on cost: {{.Yield}}  Unlevered IRR: {{.IRR}}
{{if .Conditions}}
Conditions:
{{range .Conditions}}- {{.}}
{{end}}{{end}}{{if .RedFlags}}
Red flags:
{{range .RedFlags}}- {{.}}
{{end}}{{end}}
{{.Narrative}}
{{if .BoardURL}}
{{.BoardURL}}
{{end}}`

const htmlTemplate = `<h2>{{.DealName}}{{if .City}}, {{.City}}{{end}}</h2>
<p><strong>Recommendation: {{.Decision}}</strong><br>
IC score {{.Score}}/100, {{.Confidence}} confidence, data {{.Completeness}}% complete<br>
Yield on cost {{.Yield}}, unlevered IRR {{.IRR}}</p>
{{if .Conditions}}<h3>Conditions</h3><ul>{{range .Conditions}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .RedFlags}}<h3>Red flags</h3><ul>{{range .RedFlags}}<li>{{.}}</li>{{end}}</ul>{{end}}
<p>{{.Narrative}}</p>
{{if .BoardURL}}<p><a href="{{.BoardURL}}">Open in pipeline board</a></p>{{end}}`

var (
	subjectTmpl = template.Must(template.New("subject").Parse(subjectTemplate))
	textTmpl    = template.Must(template.New("text").Parse(textTemplate))
	htmlTmpl    = htmltemplate.Must(htmltemplate.New("html").Parse(htmlTemplate))
)

type renderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

func render(data messageData) (renderedMessage, error) {
	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return renderedMessage{}, err
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return renderedMessage{}, err
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return renderedMessage{}, err
	}
	return renderedMessage{Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}
