package alerting

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// Content prefix bounds, in runes.
const (
	PushContentLimit    = 400
	ConsoleContentLimit = 200
	chainPrefixLength   = 16
	highRiskThreshold   = 7.0
)

var levelEmoji = map[schemas.ThreatLevel]string{
	schemas.ThreatCritical: "🚨🔥",
	schemas.ThreatHigh:     "⚠️🔴",
	schemas.ThreatMedium:   "⚡🟡",
	schemas.ThreatLow:      "ℹ️🟢",
}

var levelColor = map[schemas.ThreatLevel]string{
	schemas.ThreatCritical: "\033[91m",
	schemas.ThreatHigh:     "\033[93m",
	schemas.ThreatMedium:   "\033[94m",
	schemas.ThreatLow:      "\033[92m",
}

const ansiReset = "\033[0m"

// Truncate returns at most limit runes of s. It is applied to every alert
// body whether or not s is longer than limit.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// alertView is the flattened template input.
type alertView struct {
	Level              string
	Emoji              string
	Color              string
	Reset              string
	Subject            string
	Score              float64
	Platform           string
	SourceURL          string
	Content            string
	Analysis           string
	EvidenceID         string
	Timestamp          string
	ChainPrefix        string
	ImpersonationLabel string
	ImpersonationScore float64
}

func newView(s schemas.ThreatSnapshot, contentLimit int, color bool) alertView {
	v := alertView{
		Level:      strings.ToUpper(string(s.Classification.Level)),
		Emoji:      levelEmoji[s.Classification.Level],
		Subject:    s.SubjectHandle,
		Score:      s.Classification.Score,
		Platform:   orDefault(s.Platform, "Unknown"),
		SourceURL:  s.SourceURL,
		Content:    Truncate(s.Content, contentLimit),
		Analysis:   orDefault(s.AnalysisReason, "Analysis completed"),
		EvidenceID: orDefault(s.EvidenceID, "N/A"),
		Timestamp:  s.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	v.ChainPrefix = Truncate(orDefault(s.ChainHash, "N/A"), chainPrefixLength)
	if color {
		v.Color = levelColor[s.Classification.Level]
		v.Reset = ansiReset
	}
	if s.Impersonation != nil && s.Impersonation.RiskScore > 0 {
		v.ImpersonationScore = s.Impersonation.RiskScore
		v.ImpersonationLabel = "SUSPICIOUS"
		if s.Impersonation.RiskScore > highRiskThreshold {
			v.ImpersonationLabel = "HIGH RISK"
		}
	}
	return v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// escapeMarkdown escapes the entity characters of Telegram's legacy Markdown.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("_", `\_`, "*", `\*`, "`", `\`+"`", "[", `\[`)
	return r.Replace(s)
}

// entityFree removes entity characters from text that is rendered inside an
// entity. Legacy Markdown has no escapes there.
func entityFree(s string) string {
	r := strings.NewReplacer("_", " ", "*", "", "`", "'", "[", "(", "]", ")")
	return r.Replace(s)
}

// codeBlock keeps content from closing the surrounding ``` block.
func codeBlock(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

var funcs = template.FuncMap{
	"md":    escapeMarkdown,
	"plain": entityFree,
	"code":  codeBlock,
	"score": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"rule":  func(n int) string { return strings.Repeat("=", n) },
}

var pushTemplate = template.Must(template.New("telegram").Funcs(funcs).Parse(
	`{{.Emoji}} *{{.Level}} THREAT DETECTED*

*VIP:* @{{md .Subject}}
*Threat Score:* {{score .Score}}/10
*Platform:* {{md .Platform}}
{{- if .ImpersonationLabel}}
*Impersonation Risk:* {{.ImpersonationLabel}} ({{score .ImpersonationScore}}/10)
{{- end}}

*Content:*
` + "```" + `
{{code .Content}}...
` + "```" + `

*AI Analysis:*
_{{plain .Analysis}}_

*Evidence Details:*
• Evidence ID: ` + "`{{.EvidenceID}}`" + `
• Timestamp: {{.Timestamp}}
• Chain Hash: ` + "`{{.ChainPrefix}}...`" + `

🛡️ _VIP Guardian - Real-time Threat Protection_`))

var consoleTemplate = template.Must(template.New("console").Funcs(funcs).Parse(
	`{{.Color}}🚨 {{.Level}} THREAT ALERT 🚨{{.Reset}}
VIP: @{{.Subject}} | Score: {{score .Score}}/10
Platform: {{.Platform}}{{if .ImpersonationLabel}} | Impersonation Risk: {{.ImpersonationLabel}} ({{score .ImpersonationScore}}/10){{end}}

Content: {{.Content}}...

Analysis: {{.Analysis}}
Evidence ID: {{.EvidenceID}}
{{.Color}}{{rule 60}}{{.Reset}}
`))

func render(tmpl *template.Template, view alertView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render %s alert: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderPush renders the Markdown push message for a snapshot.
func RenderPush(s schemas.ThreatSnapshot) (string, error) {
	return render(pushTemplate, newView(s, PushContentLimit, false))
}

// RenderConsole renders the console banner for a snapshot.
func RenderConsole(s schemas.ThreatSnapshot, color bool) (string, error) {
	return render(consoleTemplate, newView(s, ConsoleContentLimit, color))
}
