package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = `{"days":[
 {"day":1,"activities":[
  {"title":" Eiffel  Tower ","location":"Champ de Mars","start_time":"9:00","duration_minutes":"120","cost_min":30,"cost_max":20,"currency":"eur","category":"Landmark"},
  {"title":"","category":"food"}
 ]},
 {"day":2,"activities":[
  {"name":"Louvre","start_time":"late morning","cost_min":-5,"cost_max":"$22","category":"museum"},
  {"title":"Seine cruise","category":"boat"}
 ]}
]}`

func TestParseActivitiesDaysShape(t *testing.T) {
	acts, err := ParseActivities(planJSON)
	require.NoError(t, err)
	require.Len(t, acts, 3)

	tower := acts[0]
	assert.Equal(t, "Eiffel Tower", tower.Title)
	assert.Equal(t, 1, tower.DayNumber)
	assert.Equal(t, "09:00", tower.StartTime)
	assert.Equal(t, 120, tower.DurationMinutes)
	assert.Equal(t, 20.0, tower.CostMin)
	assert.Equal(t, 30.0, tower.CostMax)
	assert.Equal(t, "EUR", tower.Currency)
	assert.Equal(t, "sightseeing", tower.Category)

	louvre := acts[1]
	assert.Equal(t, "Louvre", louvre.Title)
	assert.Equal(t, 2, louvre.DayNumber)
	assert.Equal(t, "", louvre.StartTime)
	assert.Equal(t, 0.0, louvre.CostMin)
	assert.Equal(t, 22.0, louvre.CostMax)
	assert.Equal(t, "culture", louvre.Category)
	assert.Equal(t, "USD", louvre.Currency)

	assert.Equal(t, "other", acts[2].Category)
}

func TestParseActivitiesFencedAndBareAreEquivalent(t *testing.T) {
	bare := `[{"day":1,"title":"Sagrada Familia","category":"sightseeing"},{"day":2,"title":"Tapas crawl","category":"food"}]`
	wrapped := `{"activities":` + bare + `}`
	fenced := "Here is your plan:\n```json\n" + wrapped + "\n```\nEnjoy!"
	prose := "Sure! " + bare + " Have fun."

	want, err := ParseActivities(bare)
	require.NoError(t, err)
	for _, in := range []string{wrapped, fenced, prose} {
		got, err := ParseActivities(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseActivitiesErrors(t *testing.T) {
	_, err := ParseActivities("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoActivities)

	_, err = ParseActivities(`{"days":[{"day":1,"activities":[{"title":"  "}]}]}`)
	assert.ErrorIs(t, err, ErrNoActivities)

	_, err = ParseActivities(`{"days": "soon"}`)
	assert.Error(t, err)
}

func TestParseActivitiesDayFallsBackToIndex(t *testing.T) {
	acts, err := ParseActivities(`{"days":[{"activities":[{"title":"A"}]},{"activities":[{"title":"B"}]}]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, acts[0].DayNumber)
	assert.Equal(t, 2, acts[1].DayNumber)
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	got := extractJSON(`noise {"title":"a } tricky { one","x":[1,2]} trailing }`)
	assert.Equal(t, `{"title":"a } tricky { one","x":[1,2]}`, got)
	assert.Equal(t, "", extractJSON(`{"unterminated": true`))
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Food":          "food",
		"restaurant":    "food",
		" Night  Club ": "other",
		"nightclub":     "nightlife",
		"hotel":         "accommodation",
		"":              "other",
		"teleportation": "other",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), in)
	}
}

func TestSplitSuggestions(t *testing.T) {
	reply := "Try these spots for dinner.\n\n```json\n{\"activities\":[{\"day\":2,\"title\":\"Bistro Paul Bert\",\"category\":\"dining\"}]}\n```\nBon appetit!"

	text, acts := SplitSuggestions(reply)
	assert.Equal(t, "Try these spots for dinner.\n\nBon appetit!", text)
	require.Len(t, acts, 1)
	assert.Equal(t, "food", acts[0].Category)
	assert.Equal(t, 2, acts[0].DayNumber)

	plain, none := SplitSuggestions("  Just go to the beach.  ")
	assert.Equal(t, "Just go to the beach.", plain)
	assert.Nil(t, none)

	broken := "Look:\n```json\n{not json}\n```"
	text, acts = SplitSuggestions(broken)
	assert.Equal(t, broken, text)
	assert.Nil(t, acts)
}
