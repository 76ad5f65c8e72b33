package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"
)

const generationSystem = `You are an expert travel planner. You design realistic, well paced day-by-day itineraries.
Reply with JSON only, no prose and no markdown.`

var generationTmpl = template.Must(template.New("generation").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Plan a trip to {{.Destination}}.
{{- if .StartDate}}
Dates: {{.StartDate}} to {{.EndDate}} ({{.Days}} days).
{{- else}}
Length: {{.Days}} days.
{{- end}}
Travelers: {{.Travelers}}
Budget level: {{.Budget}}
Pace: {{.Pace}} ({{.PerDay}} activities per day)
{{- if .Interests}}
Interests: {{join .Interests ", "}}
{{- end}}
{{- if .Notes}}
Notes from the traveler: {{.Notes}}
{{- end}}

Return exactly this JSON shape with one entry per day, day numbers 1 to {{.Days}}:
{"days":[{"day":1,"activities":[{"title":"","description":"","location":"","start_time":"HH:MM","duration_minutes":90,"cost_min":0,"cost_max":0,"currency":"USD","category":"sightseeing"}]}]}

category must be one of: {{join .Categories ", "}}.
Costs are per person in the local currency code. Order activities by start time.`))

type generationData struct {
	models.Itinerary
	Days       int
	PerDay     string
	Categories []string
}

// GenerationRequest builds the completion request that drafts an itinerary of days days.
func GenerationRequest(it models.Itinerary, days int) (Request, error) {
	if days < 1 {
		days = 3
	}
	data := generationData{
		Itinerary:  it,
		Days:       days,
		PerDay:     perDay(it.Pace),
		Categories: models.ActivityCategories,
	}
	if data.Travelers < 1 {
		data.Travelers = 1
	}
	var buf bytes.Buffer
	if err := generationTmpl.Execute(&buf, data); err != nil {
		return Request{}, fmt.Errorf("render generation prompt: %w", err)
	}
	return Request{
		System:      generationSystem,
		Messages:    []Message{{Role: RoleUser, Content: buf.String()}},
		Temperature: 0.7,
	}, nil
}

func perDay(pace string) string {
	switch pace {
	case "relaxed":
		return "2-3"
	case "packed":
		return "5-6"
	default:
		return "3-4"
	}
}

const chatSystem = `You are the Travel Atlas assistant. You help travelers refine their trips with concise, practical advice.
When you recommend concrete activities, add them after your answer in a fenced json block:
` + "```json" + `
{"activities":[{"day":1,"title":"","description":"","location":"","start_time":"HH:MM","duration_minutes":60,"cost_min":0,"cost_max":0,"currency":"USD","category":"food"}]}
` + "```" + `
Omit the block when you are not suggesting activities.`

var chatContextTmpl = template.Must(template.New("chat").Funcs(template.FuncMap{
	"cost": utils.FormatCostRange,
}).Parse(`
The traveler is working on this itinerary:
Title: {{.Title}}
Destination: {{.Destination}}
{{- if .StartDate}}
Dates: {{.StartDate}} to {{.EndDate}}
{{- end}}
Travelers: {{.Travelers}}, budget: {{.Budget}}, pace: {{.Pace}}
{{- range .Days}}
Day {{.DayNumber}}{{if .Date}} ({{.Date}}){{end}}:
{{- range .Activities}}
- {{if .StartTime}}{{.StartTime}} {{end}}{{.Title}}{{if .Location}} @ {{.Location}}{{end}} [{{.Category}}, {{cost .CostMin .CostMax .Currency}}]
{{- else}}
- (nothing planned)
{{- end}}
{{- end}}`))

// MaxChatHistory is how many earlier turns are sent along with a chat message.
const MaxChatHistory = 20

// ChatRequest builds a chat completion. detail may be nil when the
// conversation is not about a specific itinerary.
func ChatRequest(message string, history []Message, detail *models.ItineraryDetail) (Request, error) {
	system := chatSystem
	if detail != nil {
		var buf bytes.Buffer
		if err := chatContextTmpl.Execute(&buf, detail); err != nil {
			return Request{}, fmt.Errorf("render chat context: %w", err)
		}
		system += "\n" + buf.String()
	}

	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}
	msgs := make([]Message, 0, len(history)+1)
	for _, h := range history {
		content := strings.TrimSpace(h.Content)
		if content == "" {
			continue
		}
		role := RoleUser
		if h.Role == RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: strings.TrimSpace(message)})

	return Request{System: system, Messages: msgs, Temperature: 0.6}, nil
}
