package planner

import (
	"testing"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func act(id string, day, pos int) models.Activity {
	return models.Activity{ID: id, Title: "title-" + id, DayNumber: day, Position: pos}
}

func order(acts []models.Activity) map[int][]string {
	out := map[int][]string{}
	for _, a := range acts {
		out[a.DayNumber] = append(out[a.DayNumber], a.ID)
	}
	return out
}

func assertContiguous(t *testing.T, acts []models.Activity) {
	t.Helper()
	next := map[int]int{}
	for _, a := range acts {
		require.Equal(t, next[a.DayNumber], a.Position, "activity %s on day %d", a.ID, a.DayNumber)
		next[a.DayNumber]++
	}
}

func TestNormalizeCompactsGapsAndTies(t *testing.T) {
	in := []models.Activity{act("c", 2, 9), act("a", 1, 4), act("b", 1, 4), act("d", 2, 3)}

	out := Normalize(in)

	assert.Equal(t, map[int][]string{1: {"a", "b"}, 2: {"d", "c"}}, order(out))
	assertContiguous(t, out)
	assert.Equal(t, 9, in[0].Position, "input must not be modified")
}

func TestMoveWithinDay(t *testing.T) {
	in := []models.Activity{act("a", 1, 0), act("b", 1, 1), act("c", 1, 2)}

	all, changed, err := Move(in, "a", 1, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, order(all)[1])
	assertContiguous(t, all)
	assert.Len(t, changed, 3)
}

func TestMoveAcrossDaysWritesOnlyChangedRows(t *testing.T) {
	in := []models.Activity{
		act("a", 1, 0), act("b", 1, 1), act("c", 1, 2),
		act("d", 2, 0), act("e", 2, 1),
	}

	all, changed, err := Move(in, "b", 2, 1)

	require.NoError(t, err)
	assert.Equal(t, map[int][]string{1: {"a", "c"}, 2: {"d", "b", "e"}}, order(all))
	assertContiguous(t, all)

	ids := []string{}
	for _, a := range changed {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"b", "c", "e"}, ids)
	assert.Len(t, all, len(in))
}

func TestMoveClampsIndexAndCreatesNewDay(t *testing.T) {
	in := []models.Activity{act("a", 1, 0), act("b", 1, 1)}

	all, _, err := Move(in, "a", 3, 99)
	require.NoError(t, err)
	assert.Equal(t, map[int][]string{1: {"b"}, 3: {"a"}}, order(all))

	all, _, err = Move(in, "b", 1, -4)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order(all)[1])
}

func TestMoveSameSlotIsNoop(t *testing.T) {
	in := []models.Activity{act("a", 1, 0), act("b", 1, 1)}

	_, changed, err := Move(in, "b", 1, 1)

	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestMoveErrors(t *testing.T) {
	in := []models.Activity{act("a", 1, 0)}

	_, _, err := Move(in, "zzz", 1, 0)
	assert.Error(t, err)

	_, _, err = Move(in, "a", 0, 0)
	assert.Error(t, err)
}

func TestAssignDaysSpreadsAndClamps(t *testing.T) {
	in := []models.Activity{
		act("a", 0, 0), act("b", 0, 0), act("c", 0, 0), act("d", 7, 0), act("e", 2, 0),
	}

	out := AssignDays(in, 3)

	assert.Equal(t, map[int][]string{1: {"a"}, 2: {"b", "e"}, 3: {"c", "d"}}, order(out))
	assertContiguous(t, out)
}

func TestAssignDaysUnbounded(t *testing.T) {
	out := AssignDays([]models.Activity{act("a", 0, 0), act("b", 5, 0)}, 0)
	assert.Equal(t, map[int][]string{1: {"a"}, 5: {"b"}}, order(out))
}

func TestGroupByDayIncludesEmptyTripDays(t *testing.T) {
	in := []models.Activity{act("a", 1, 0), act("b", 3, 0)}

	plans := GroupByDay(in, 3, "2025-05-01", utils.DayDate)

	require.Len(t, plans, 3)
	assert.Equal(t, 2, plans[1].DayNumber)
	assert.Empty(t, plans[1].Activities)
	assert.Equal(t, "2025-05-03", plans[2].Date)

	unbounded := GroupByDay(in, 0, "", nil)
	require.Len(t, unbounded, 2)
	assert.Equal(t, 3, unbounded[1].DayNumber)
}

func TestAppendPositionAndLastDay(t *testing.T) {
	in := []models.Activity{act("a", 1, 0), act("b", 2, 0), act("c", 2, 1)}
	assert.Equal(t, 2, AppendPosition(in, 2))
	assert.Equal(t, 0, AppendPosition(in, 4))
	assert.Equal(t, 2, LastDay(in))
	assert.Equal(t, 1, LastDay(nil))
}

func TestValidateDay(t *testing.T) {
	assert.NoError(t, ValidateDay(3, 3))
	assert.NoError(t, ValidateDay(40, 0))
	assert.Error(t, ValidateDay(4, 3))
	assert.Error(t, ValidateDay(0, 3))
}

func TestChanged(t *testing.T) {
	before := []models.Activity{act("a", 1, 0), act("b", 1, 1)}
	after := []models.Activity{act("a", 1, 0), act("b", 2, 0), act("n", 1, 1)}
	ids := []string{}
	for _, a := range Changed(before, after) {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"b", "n"}, ids)
}
