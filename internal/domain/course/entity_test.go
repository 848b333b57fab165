package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horses-for-courses/planner/internal/domain/shared"
)

func slot(t *testing.T, day time.Weekday, sh, eh int) shared.TimeSlot {
	t.Helper()
	s, err := shared.NewTimeSlot(day, shared.MustTimeOfDay(sh, 0), shared.MustTimeOfDay(eh, 0))
	require.NoError(t, err)
	return s
}

func draft(t *testing.T, id, name string, from, to time.Time) *Course {
	t.Helper()
	c, err := New(NewCourseParams{ID: id, Name: name, StartDate: from, EndDate: to})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := draft(t, "c1", "  Fullstack ", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))

	assert.Equal(t, "Fullstack", c.Name())
	assert.False(t, c.IsConfirmed())
	assert.False(t, c.IsAssigned())
	assert.Empty(t, c.TimeSlots())
	assert.Equal(t, 0, c.RequiredSkills().Len())

	_, ok := c.AssignedCoachID()
	assert.False(t, ok)
}

func TestNew_Validation(t *testing.T) {
	aug1, aug31 := shared.Date(2025, 8, 1), shared.Date(2025, 8, 31)

	cases := map[string]struct {
		params NewCourseParams
		want   error
	}{
		"blank name":     {NewCourseParams{ID: "c", Name: " ", StartDate: aug1, EndDate: aug31}, ErrEmptyName},
		"missing id":     {NewCourseParams{Name: "Go", StartDate: aug1, EndDate: aug31}, ErrMissingID},
		"reversed dates": {NewCourseParams{ID: "c", Name: "Go", StartDate: aug31, EndDate: aug1}, ErrInvalidPeriod},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(tc.params)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, shared.IsValidation(err))
		})
	}

	oneDay, err := New(NewCourseParams{ID: "c", Name: "Go", StartDate: aug1, EndDate: aug1})
	require.NoError(t, err)
	assert.Equal(t, aug1, oneDay.StartDate())
}

func TestDraftMutations(t *testing.T) {
	c := draft(t, "c1", "Go", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))
	mon := slot(t, time.Monday, 9, 11)
	tue := slot(t, time.Tuesday, 13, 15)

	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	assert.Equal(t, 1, c.RequiredSkills().Len())
	require.NoError(t, c.RemoveRequiredSkill(shared.SkillFrontend))
	assert.ErrorIs(t, c.AddRequiredSkill(shared.Skill("Cobol")), ErrUnknownSkill)

	require.NoError(t, c.AddTimeSlot(tue))
	require.NoError(t, c.AddTimeSlot(mon))
	err := c.AddTimeSlot(slot(t, time.Monday, 9, 11))
	assert.ErrorIs(t, err, ErrDuplicateSlot)
	assert.True(t, shared.IsConflict(err))

	assert.Equal(t, []shared.TimeSlot{tue, mon}, c.TimeSlots())
	assert.Equal(t, []shared.TimeSlot{mon, tue}, c.SortedTimeSlots())

	require.NoError(t, c.RemoveTimeSlot(tue))
	require.NoError(t, c.RemoveTimeSlot(tue))
	assert.Equal(t, []shared.TimeSlot{mon}, c.TimeSlots())
}

func TestConfirm(t *testing.T) {
	c := draft(t, "c1", "Go", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))

	err := c.Confirm()
	assert.ErrorIs(t, err, ErrNoTimeSlots)
	assert.True(t, shared.IsState(err))
	assert.False(t, c.IsConfirmed())

	require.NoError(t, c.AddTimeSlot(slot(t, time.Monday, 9, 11)))
	require.NoError(t, c.Confirm())
	assert.True(t, c.IsConfirmed())

	assert.ErrorIs(t, c.Confirm(), ErrAlreadyConfirmed)
}

func TestConfirmed_IsImmutable(t *testing.T) {
	c := draft(t, "c1", "Go", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))
	mon := slot(t, time.Monday, 9, 11)
	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	require.NoError(t, c.AddTimeSlot(mon))
	require.NoError(t, c.Confirm())

	assert.ErrorIs(t, c.AddRequiredSkill(shared.SkillAgile), ErrSkillsLocked)
	assert.ErrorIs(t, c.RemoveRequiredSkill(shared.SkillBackend), ErrSkillsLocked)
	assert.ErrorIs(t, c.AddTimeSlot(slot(t, time.Friday, 9, 11)), ErrSlotsLocked)
	assert.ErrorIs(t, c.RemoveTimeSlot(mon), ErrSlotsLocked)

	assert.True(t, c.RequiredSkills().Contains(shared.SkillBackend))
	assert.Equal(t, []shared.TimeSlot{mon}, c.TimeSlots())
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := draft(t, "c1", "Go", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))
	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	require.NoError(t, c.AddTimeSlot(slot(t, time.Monday, 9, 11)))

	skills := c.RequiredSkills()
	skills.Add(shared.SkillDevOps)
	slots := c.TimeSlots()
	slots[0] = slot(t, time.Friday, 9, 11)

	assert.False(t, c.RequiredSkills().Contains(shared.SkillDevOps))
	assert.Equal(t, time.Monday, c.TimeSlots()[0].Day())
}

func TestReconstitute(t *testing.T) {
	snap := Snapshot{
		ID:              "c7",
		Name:            "Security basics",
		StartDate:       shared.Date(2025, 1, 6),
		EndDate:         shared.Date(2025, 3, 28),
		TimeSlots:       []shared.TimeSlot{slot(t, time.Thursday, 14, 16)},
		RequiredSkills:  []shared.Skill{shared.SkillSecurity},
		Confirmed:       true,
		AssignedCoachID: "coach-1",
	}

	c, err := Reconstitute(snap)
	require.NoError(t, err)
	assert.True(t, c.IsConfirmed())
	id, ok := c.AssignedCoachID()
	assert.True(t, ok)
	assert.Equal(t, "coach-1", id)
	assert.Equal(t, snap, c.Snapshot())

	snap.Confirmed = false
	_, err = Reconstitute(snap)
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestClone(t *testing.T) {
	c := draft(t, "c1", "Go", shared.Date(2025, 8, 1), shared.Date(2025, 8, 31))
	require.NoError(t, c.AddTimeSlot(slot(t, time.Monday, 9, 11)))

	clone := c.Clone()
	require.NoError(t, clone.AddTimeSlot(slot(t, time.Tuesday, 9, 11)))
	require.NoError(t, clone.AddRequiredSkill(shared.SkillAgile))

	assert.Len(t, c.TimeSlots(), 1)
	assert.Equal(t, 0, c.RequiredSkills().Len())
	assert.Len(t, clone.TimeSlots(), 2)
}
