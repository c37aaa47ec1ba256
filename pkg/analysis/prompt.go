package analysis

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`You help a user stay focused on their goals. The user's current goals are:
{{range .Goals}}- {{.}}
{{end}}
Rate how likely the web page below is to distract the user from these goals,
from 0 (directly supports a goal) to 100 (pure distraction).

Page title: {{.Title}}
Page content:
{{.Content}}

Respond with a single integer from 0 to 100 and nothing else.`))

type promptData struct {
	Goals   []string
	Title   string
	Content string
}

// BuildPrompt fills the analysis template with the active goal texts, the
// page title and the page content.
func BuildPrompt(goals []string, title, content string) string {
	var b strings.Builder
	data := promptData{Goals: goals, Title: title, Content: content}
	if err := promptTemplate.Execute(&b, data); err != nil {
		// Only reachable if the template itself is broken.
		panic(err)
	}
	return b.String()
}
