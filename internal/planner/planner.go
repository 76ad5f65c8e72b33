// Package planner keeps itinerary activities ordered inside their day buckets.
//
// Every function returns new slices; inputs are never modified. After any
// operation the positions inside each day are exactly 0..n-1.
package planner

import (
	"fmt"
	"sort"

	"travelatlas/internal/domain/models"
)

// MaxTripDays bounds generated trips.
const MaxTripDays = 30

// Normalize orders activities by day then position (ties by title, id) and
// rewrites positions to be contiguous inside each day.
func Normalize(acts []models.Activity) []models.Activity {
	out := make([]models.Activity, len(acts))
	copy(out, acts)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DayNumber != b.DayNumber {
			return a.DayNumber < b.DayNumber
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	pos := 0
	for i := range out {
		if i > 0 && out[i].DayNumber != out[i-1].DayNumber {
			pos = 0
		}
		out[i].Position = pos
		pos++
	}
	return out
}

// Move puts activity id on day at index (clamped to the bucket size) and
// reindexes. It returns the full new order and the activities whose day or
// position changed, which is what needs writing back.
func Move(acts []models.Activity, id string, day, index int) (all, changed []models.Activity, err error) {
	if day < 1 {
		return nil, nil, fmt.Errorf("day_number must be >= 1")
	}
	ordered := Normalize(acts)
	before := make(map[string][2]int, len(ordered))
	var moving *models.Activity
	rest := make([]models.Activity, 0, len(ordered))
	for i := range ordered {
		a := ordered[i]
		before[a.ID] = [2]int{a.DayNumber, a.Position}
		if a.ID == id {
			cp := a
			moving = &cp
			continue
		}
		rest = append(rest, a)
	}
	if moving == nil {
		return nil, nil, fmt.Errorf("activity %s not in itinerary", id)
	}

	// bucket holds the target day without the moving activity
	bucket := []models.Activity{}
	others := []models.Activity{}
	for _, a := range rest {
		if a.DayNumber == day {
			bucket = append(bucket, a)
		} else {
			others = append(others, a)
		}
	}
	if index < 0 {
		index = 0
	}
	if index > len(bucket) {
		index = len(bucket)
	}
	moving.DayNumber = day
	bucket = append(bucket[:index], append([]models.Activity{*moving}, bucket[index:]...)...)
	for i := range bucket {
		bucket[i].Position = i
	}

	all = Normalize(append(others, bucket...))
	for _, a := range all {
		if prev := before[a.ID]; prev[0] != a.DayNumber || prev[1] != a.Position {
			changed = append(changed, a)
		}
	}
	return all, changed, nil
}

// Changed lists activities of after whose day or position differs from acts.
func Changed(acts, after []models.Activity) []models.Activity {
	prev := make(map[string][2]int, len(acts))
	for _, a := range acts {
		prev[a.ID] = [2]int{a.DayNumber, a.Position}
	}
	out := []models.Activity{}
	for _, a := range after {
		if p, ok := prev[a.ID]; !ok || p[0] != a.DayNumber || p[1] != a.Position {
			out = append(out, a)
		}
	}
	return out
}

// AppendPosition is the position a new activity gets at the end of day.
func AppendPosition(acts []models.Activity, day int) int {
	n := 0
	for _, a := range acts {
		if a.DayNumber == day {
			n++
		}
	}
	return n
}

// LastDay is the highest day in use, or 1 for an empty itinerary.
func LastDay(acts []models.Activity) int {
	last := 1
	for _, a := range acts {
		if a.DayNumber > last {
			last = a.DayNumber
		}
	}
	return last
}

// AssignDays spreads activities without a valid day round-robin over 1..days
// and clamps days past the end of the trip to the last day. days <= 0 leaves
// valid days alone and puts the rest on day 1.
func AssignDays(acts []models.Activity, days int) []models.Activity {
	out := make([]models.Activity, len(acts))
	copy(out, acts)
	next := 0
	for i := range out {
		d := out[i].DayNumber
		switch {
		case d < 1 && days > 0:
			out[i].DayNumber = next%days + 1
			next++
		case d < 1:
			out[i].DayNumber = 1
		case days > 0 && d > days:
			out[i].DayNumber = days
		}
	}
	// keep the incoming order inside each day
	for i := range out {
		out[i].Position = i
	}
	return Normalize(out)
}

// GroupByDay returns ordered day plans. With days > 0, empty days 1..days are
// included so clients can render empty buckets as drop targets.
func GroupByDay(acts []models.Activity, days int, startDate string, dayDate func(string, int) string) []models.DayPlan {
	ordered := Normalize(acts)
	byDay := map[int][]models.Activity{}
	maxDay := days
	for _, a := range ordered {
		byDay[a.DayNumber] = append(byDay[a.DayNumber], a)
		if a.DayNumber > maxDay {
			maxDay = a.DayNumber
		}
	}
	out := []models.DayPlan{}
	for d := 1; d <= maxDay; d++ {
		list, ok := byDay[d]
		if !ok && (days <= 0 || d > days) {
			continue
		}
		if list == nil {
			list = []models.Activity{}
		}
		plan := models.DayPlan{DayNumber: d, Activities: list}
		if dayDate != nil {
			plan.Date = dayDate(startDate, d)
		}
		out = append(out, plan)
	}
	return out
}

// ValidateDay checks a day against the trip length (0 = unbounded).
func ValidateDay(day, days int) error {
	if day < 1 {
		return fmt.Errorf("day_number must be >= 1")
	}
	if days > 0 && day > days {
		return fmt.Errorf("day_number %d is past the last trip day %d", day, days)
	}
	return nil
}
