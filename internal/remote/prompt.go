package remote

import (
	"strings"
	"text/template"

	"github.com/sells-group/archetype-cli/internal/model"
)

const systemInstruction = "You are an InsurTech analyst classifying companies with the framework below. " +
	"Respond with a single valid JSON object and nothing else."

var promptTemplate = template.Must(template.New("classify").Parse(`{{.Framework}}

COMPANY TO CLASSIFY:
Name: {{.Name}}
Description: {{.Description}}
Industries: {{.Industries}}

Return a JSON object with exactly these fields:
{
  "archetype": "one of the archetype names above",
  "secondary_archetypes": ["up to two other archetype names"],
  "driving_capabilities": ["DC1".."DC5"],
  "innovation_wave": "1.0, 2.0 or 3.0",
  "justification": "one or two sentences citing the description",
  "confidence": "High, Medium or Low"
}`))

type promptData struct {
	Framework   string
	Name        string
	Description string
	Industries  string
}

// BuildPrompt renders the user prompt for one entity. The description is
// cut to limit runes.
func BuildPrompt(framework string, e model.Entity, limit int) string {
	var b strings.Builder
	// Execute only fails on writer errors; strings.Builder never returns one.
	_ = promptTemplate.Execute(&b, promptData{
		Framework:   framework,
		Name:        e.Name,
		Description: model.Truncate(e.Text, limit),
		Industries:  e.Industries,
	})
	return b.String()
}
