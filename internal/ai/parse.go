package ai

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"

	"github.com/goccy/go-json"
)

// ErrNoActivities is returned when a model reply holds no usable activity.
var ErrNoActivities = errors.New("no activities in model output")

type rawDay struct {
	Day        flexNumber    `json:"day"`
	DayNumber  flexNumber    `json:"day_number"`
	Activities []rawActivity `json:"activities"`
}

type rawActivity struct {
	Day             flexNumber `json:"day"`
	DayNumber       flexNumber `json:"day_number"`
	Title           string     `json:"title"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	StartTime       string     `json:"start_time"`
	Time            string     `json:"time"`
	DurationMinutes flexNumber `json:"duration_minutes"`
	CostMin         flexNumber `json:"cost_min"`
	CostMax         flexNumber `json:"cost_max"`
	Currency        string     `json:"currency"`
	Category        string     `json:"category"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
}

type rawPlan struct {
	Days       []rawDay      `json:"days"`
	Activities []rawActivity `json:"activities"`
}

// flexNumber accepts 12, 12.5, "12" and "$12" since models are loose with types.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// unparsable numbers are treated as absent
		return nil
	}
	*f = flexNumber(v)
	return nil
}

func (f flexNumber) int() int {
	return int(math.Round(float64(f)))
}

// ParseActivities extracts activities from a model reply. It accepts
// {"days":[...]}, {"activities":[...]} or a bare array, with or without
// markdown code fences around it. Day numbers are taken from the reply and
// left at 0 when absent.
func ParseActivities(reply string) ([]models.Activity, error) {
	payload := extractJSON(stripFences(reply))
	if payload == "" {
		return nil, ErrNoActivities
	}

	var raws []rawActivity
	if strings.HasPrefix(payload, "[") {
		if err := json.Unmarshal([]byte(payload), &raws); err != nil {
			return nil, fmt.Errorf("decode activity list: %w", err)
		}
	} else {
		var plan rawPlan
		if err := json.Unmarshal([]byte(payload), &plan); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		for i, d := range plan.Days {
			day := d.DayNumber.int()
			if day == 0 {
				day = d.Day.int()
			}
			if day == 0 {
				day = i + 1
			}
			for _, a := range d.Activities {
				a.DayNumber = flexNumber(day)
				raws = append(raws, a)
			}
		}
		raws = append(raws, plan.Activities...)
	}

	out := make([]models.Activity, 0, len(raws))
	for _, r := range raws {
		if a, ok := r.normalize(); ok {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoActivities
	}
	return out, nil
}

func (r rawActivity) normalize() (models.Activity, bool) {
	title := utils.NormalizeSpace(r.Title)
	if title == "" {
		title = utils.NormalizeSpace(r.Name)
	}
	if title == "" {
		return models.Activity{}, false
	}

	day := r.DayNumber.int()
	if day == 0 {
		day = r.Day.int()
	}
	if day < 0 {
		day = 0
	}

	costMin := math.Max(0, float64(r.CostMin))
	costMax := math.Max(0, float64(r.CostMax))
	if costMax < costMin {
		costMin, costMax = costMax, costMin
	}

	start := normalizeClock(r.StartTime)
	if start == "" {
		start = normalizeClock(r.Time)
	}

	return models.Activity{
		DayNumber:       day,
		Title:           utils.Truncate(title, 200),
		Description:     strings.TrimSpace(r.Description),
		Location:        utils.NormalizeSpace(r.Location),
		StartTime:       start,
		DurationMinutes: max(0, r.DurationMinutes.int()),
		CostMin:         costMin,
		CostMax:         costMax,
		Currency:        NormalizeCurrency(r.Currency),
		Category:        NormalizeCategory(r.Category),
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
	}, true
}

// normalizeClock turns "9:30" into "09:30" and drops anything that is not a clock time.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[1] == ':' {
		s = "0" + s
	}
	if utils.IsHM(s) {
		return s
	}
	return ""
}

// NormalizeCurrency upper-cases a 3-letter code, defaulting to USD.
func NormalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "USD"
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "USD"
		}
	}
	return c
}

var categorySynonyms = map[string]string{
	"sights": "sightseeing", "sight": "sightseeing", "landmark": "sightseeing",
	"attraction": "sightseeing", "tour": "sightseeing", "viewpoint": "sightseeing",
	"dining": "food", "restaurant": "food", "meal": "food", "breakfast": "food",
	"lunch": "food", "dinner": "food", "cafe": "food", "food & drink": "food", "eat": "food",
	"museum": "culture", "history": "culture", "art": "culture", "cultural": "culture",
	"heritage": "culture", "temple": "culture",
	"park": "nature", "hiking": "nature", "outdoors": "nature", "beach": "nature", "garden": "nature",
	"sport": "adventure", "sports": "adventure", "outdoor": "adventure",
	"market": "shopping", "shop": "shopping", "shops": "shopping",
	"bar": "nightlife", "bars": "nightlife", "club": "nightlife", "nightclub": "nightlife",
	"entertainment": "nightlife",
	"spa": "relaxation", "wellness": "relaxation", "rest": "relaxation", "leisure": "relaxation",
	"transportation": "transport", "transfer": "transport", "flight": "transport",
	"train": "transport", "travel": "transport",
	"hotel": "accommodation", "lodging": "accommodation", "stay": "accommodation",
	"check-in": "accommodation",
}

// NormalizeCategory maps a free-form category onto the canonical set.
// Unknown values become "other".
func NormalizeCategory(c string) string {
	c = strings.ToLower(utils.NormalizeSpace(c))
	for _, known := range models.ActivityCategories {
		if c == known {
			return c
		}
	}
	if canon, ok := categorySynonyms[c]; ok {
		return canon
	}
	return "other"
}

// stripFences returns the body of the first ``` fenced block, or s unchanged.
func stripFences(s string) string {
	body, _, _, ok := fencedBlock(s)
	if ok {
		return body
	}
	return s
}

// fencedBlock finds the first ``` block. start/end delimit the whole block in s.
func fencedBlock(s string) (body string, start, end int, ok bool) {
	start = strings.Index(s, "```")
	if start < 0 {
		return "", 0, 0, false
	}
	rest := s[start+3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", 0, 0, false
	}
	// skip the language tag
	rest = rest[nl+1:]
	closeIdx := strings.Index(rest, "```")
	if closeIdx < 0 {
		return "", 0, 0, false
	}
	body = rest[:closeIdx]
	end = len(s) - len(rest) + closeIdx + 3
	return body, start, end, true
}

// extractJSON returns the outermost JSON object or array in s.
func extractJSON(s string) string {
	b := []byte(s)
	open := bytes.IndexAny(b, "{[")
	if open < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return string(b[open : i+1])
			}
		}
	}
	return ""
}

// SplitSuggestions separates a chat reply from the activities suggested in a
// fenced JSON block. The block is removed from the text when it parses; an
// absent or unusable block leaves the reply untouched with no suggestions.
func SplitSuggestions(reply string) (string, []models.Activity) {
	body, start, end, ok := fencedBlock(reply)
	if !ok {
		return strings.TrimSpace(reply), nil
	}
	acts, err := ParseActivities(body)
	if err != nil {
		return strings.TrimSpace(reply), nil
	}
	text := strings.TrimSpace(reply[:start]) + "\n\n" + strings.TrimSpace(reply[end:])
	return strings.TrimSpace(text), acts
}
