package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

func TestErrorHelpers(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))
	assert.True(t, IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
}

func TestSlotEncoding(t *testing.T) {
	mon, err := shared.NewTimeSlot(time.Monday, shared.MustTimeOfDay(9, 0), shared.MustTimeOfDay(11, 30))
	require.NoError(t, err)
	fri, err := shared.NewTimeSlot(time.Friday, shared.MustTimeOfDay(14, 0), shared.MustTimeOfDay(17, 0))
	require.NoError(t, err)

	data, err := encodeSlots([]shared.TimeSlot{mon, fri})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"day":"Monday","start":"09:00","end":"11:30"},{"day":"Friday","start":"14:00","end":"17:00"}]`, string(data))

	decoded, err := decodeSlots(data)
	require.NoError(t, err)
	assert.Equal(t, []shared.TimeSlot{mon, fri}, decoded)

	empty, err := decodeSlots(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = decodeSlots([]byte(`[{"day":"Saturday","start":"09:00","end":"11:00"}]`))
	assert.True(t, shared.IsValidation(err))
}

func TestCourseRowMapping(t *testing.T) {
	c, err := course.New(course.NewCourseParams{
		ID: "c1", Name: "Go", StartDate: shared.Date(2025, 3, 1), EndDate: shared.Date(2025, 3, 31),
	})
	require.NoError(t, err)
	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	slot, err := shared.NewTimeSlot(time.Tuesday, shared.MustTimeOfDay(10, 0), shared.MustTimeOfDay(12, 0))
	require.NoError(t, err)
	require.NoError(t, c.AddTimeSlot(slot))
	require.NoError(t, c.Confirm())

	row, err := courseToRow(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend"}, row.RequiredSkills)
	assert.Nil(t, row.AssignedCoachID)

	coachID := "k1"
	row.AssignedCoachID = &coachID
	restored, err := row.toDomain()
	require.NoError(t, err)

	assert.True(t, restored.IsConfirmed())
	assigned, ok := restored.AssignedCoachID()
	assert.True(t, ok)
	assert.Equal(t, "k1", assigned)
	assert.Equal(t, []shared.TimeSlot{slot}, restored.TimeSlots())
}

func TestCommitmentRowMapping(t *testing.T) {
	slot, err := shared.NewTimeSlot(time.Wednesday, shared.MustTimeOfDay(13, 0), shared.MustTimeOfDay(15, 0))
	require.NoError(t, err)
	period, err := shared.NewDateRange(shared.Date(2025, 5, 1), shared.Date(2025, 5, 31))
	require.NoError(t, err)
	in := coach.Commitment{CourseID: "c1", Slot: slot, Period: period}

	row := newCommitmentRow("k1", in)
	assert.Equal(t, int16(3), row.Day)
	assert.Equal(t, int16(13*60), row.StartMinute)

	out, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTransactor_JoinsExistingTx(t *testing.T) {
	var outer pgx.Tx
	ctx := context.WithValue(context.Background(), txKey{}, outer)
	_, ok := txFromContext(ctx)
	assert.False(t, ok, "nil tx must not count as an open transaction")

	conn := &Connection{closed: true}
	_, err := conn.querier(context.Background())
	assert.ErrorIs(t, err, ErrConnectionClosed)

	called := false
	tr := NewTransactor(conn)
	err = tr.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.False(t, called)
}

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_coaches.sql",
		"migrations/00002_create_courses.sql",
		"migrations/00003_create_coach_commitments.sql",
	}, files)
}
