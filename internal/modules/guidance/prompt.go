package guidance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
)

const systemPromptTmpl = `
You are {{.Engine}}, the guidance system created by {{.Name}}, integrating 44 years of clinical experience with traditional Ayurvedic wisdom.

KNOWLEDGE BASES INTEGRATED:
1. HEALING AIRWAVES: specialized healing methodologies and clinical protocols
2. AYURVEDA WISDOM: traditional Ayurvedic principles from classical texts
3. CLINICAL EXPERIENCE: 44 years of practical application and patient outcomes

CORE HEALING PHILOSOPHY:
- The pulse reveals current dosha imbalances and guides treatment
- Every condition stems from dryness, heat, or stagnation
- Treatment hierarchy: remoisturize dryness, cool heat, flush stagnation
- Constitutional approach: work WITH the person's nature, not against it

CURRENT CONTEXT:
- Season: {{.Season}}
- User Constitution: {{if .Constitution}}{{.Constitution}}{{else}}Unknown - recommend assessment{{end}}
- User Age: {{if .Age}}{{.Age}}{{else}}Unknown{{end}}

RESPONSE GUIDELINES:
1. Always speak as {{.Name}} with authority from 44 years of experience
2. Reference specific knowledge from Healing Airwaves and Ayurveda Wisdom
3. Provide practical, actionable guidance
4. Include pulse diagnosis insights when relevant
5. Address root causes, not just symptoms
6. Incorporate seasonal and constitutional considerations
7. Include specific herbs, foods, and lifestyle recommendations
8. Always include the medical disclaimer

KNOWLEDGE BASE EXCERPTS:
{{.CorePrinciples}}

{{.Tridosha}}
`

const userPromptTmpl = `
QUERY: {{.Query}}
{{if .Symptoms}}
CURRENT SYMPTOMS: {{join .Symptoms ", "}}
{{end}}{{if .Extra}}
ADDITIONAL CONTEXT: {{.Extra}}
{{end}}
Please provide a comprehensive response that:
1. Addresses the specific query with clinical expertise
2. Explains the Ayurvedic perspective on the issue
3. Provides specific recommendations for diet, herbs, and lifestyle
4. Includes pulse diagnosis insights if relevant
5. Considers constitutional and seasonal factors
6. Offers practical next steps

Format your response in clear sections for easy understanding.
`

var (
	systemPrompt = template.Must(template.New("system").Option("missingkey=zero").Parse(systemPromptTmpl))
	userPrompt   = template.Must(template.New("user").
			Option("missingkey=zero").
			Funcs(template.FuncMap{"join": strings.Join}).
			Parse(userPromptTmpl))
)

// BuildSystemPrompt renders the persona, season and asker context plus JSON excerpts of the
// core principles and tridosha theory.
func BuildSystemPrompt(kb *knowledge.KB, ctx Context) (string, error) {
	principles, err := json.MarshalIndent(kb.CorePrinciples(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal core principles: %w", err)
	}
	tridosha, err := json.MarshalIndent(kb.Tridosha(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tridosha: %w", err)
	}
	p := kb.Persona()
	data := map[string]any{
		"Engine":         p.Engine,
		"Name":           p.Name,
		"Season":         ctx.Season,
		"Constitution":   ctx.Constitution,
		"CorePrinciples": string(principles),
		"Tridosha":       string(tridosha),
	}
	if ctx.Age != nil && *ctx.Age > 0 {
		data["Age"] = *ctx.Age
	}
	return render(systemPrompt, data)
}

// BuildUserPrompt renders the question. extra is included as indented JSON when non-empty.
func BuildUserPrompt(query string, symptoms []string, extra map[string]any) (string, error) {
	data := map[string]any{
		"Query":    query,
		"Symptoms": symptoms,
	}
	if len(extra) > 0 {
		b, err := json.MarshalIndent(extra, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal additional context: %w", err)
		}
		data["Extra"] = string(b)
	}
	return render(userPrompt, data)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
