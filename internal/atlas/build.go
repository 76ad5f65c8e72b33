package atlas

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"
)

var dayBodyTmpl = template.Must(template.New("day").Funcs(template.FuncMap{
	"cost":     utils.FormatCostRange,
	"duration": formatDuration,
}).Parse(`{{- range .}}
### {{if .StartTime}}{{.StartTime}} | {{end}}{{.Title}}
{{- if or .Location .DurationMinutes}}
{{if .Location}}*{{.Location}}*{{end}}{{if and .Location .DurationMinutes}} | {{end}}{{if .DurationMinutes}}{{duration .DurationMinutes}}{{end}}
{{- end}}
Cost: {{cost .CostMin .CostMax .Currency}}
{{- if .Description}}

{{.Description}}
{{- end}}

{{end -}}`))

// DraftFromItinerary builds an unpublished Atlas File with one section per
// itinerary day. Empty days get a placeholder so authors can fill them in.
func DraftFromItinerary(detail models.ItineraryDetail) (models.AtlasFileInput, error) {
	in := models.AtlasFileInput{
		Title:         detail.Title,
		Destination:   detail.Destination,
		CoverImageURL: detail.CoverImageURL,
		ItineraryID:   detail.ID,
		Summary:       summary(detail),
		Tags:          utils.CleanTags(append([]string{detail.Destination}, detail.Interests...)),
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = "Trip to " + detail.Destination
	}

	for _, day := range detail.Days {
		var buf bytes.Buffer
		if err := dayBodyTmpl.Execute(&buf, day.Activities); err != nil {
			return models.AtlasFileInput{}, fmt.Errorf("render day %d: %w", day.DayNumber, err)
		}
		body := strings.TrimSpace(buf.String())
		if body == "" {
			body = "_Nothing planned yet._"
		}
		title := fmt.Sprintf("Day %d", day.DayNumber)
		if day.Date != "" {
			title += " | " + day.Date
		}
		in.Sections = append(in.Sections, models.AtlasSection{
			DayNumber: day.DayNumber,
			Title:     title,
			Body:      body,
			Images:    []string{},
		})
	}
	return in, nil
}

func summary(d models.ItineraryDetail) string {
	days := len(d.Days)
	travelers := d.Travelers
	if travelers < 1 {
		travelers = 1
	}
	who := "1 traveler"
	if travelers > 1 {
		who = fmt.Sprintf("%d travelers", travelers)
	}
	dayWord := "days"
	if days == 1 {
		dayWord = "day"
	}
	return fmt.Sprintf("%d %s in %s for %s, %s pace.", days, dayWord, d.Destination, who, safe(d.Pace, "balanced"))
}

func formatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
