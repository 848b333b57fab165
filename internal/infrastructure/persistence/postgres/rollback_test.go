package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// openTestDB connects to PLANNER_TEST_DATABASE_URL and applies the migrations.
func openTestDB(t *testing.T) *Connection {
	t.Helper()
	url := os.Getenv("PLANNER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PLANNER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := NewConnectionFromURL(ctx, url, DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	migrator, err := NewMigrator(conn, zap.NewNop())
	require.NoError(t, err)
	defer migrator.Close()
	require.NoError(t, migrator.Up(ctx))
	return conn
}

func seedAssignable(t *testing.T, courses *CourseRepository, coaches *CoachRepository) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := course.New(course.NewCourseParams{
		ID: uuid.NewString(), Name: "Go", StartDate: shared.Date(2025, 8, 1), EndDate: shared.Date(2025, 8, 31),
	})
	require.NoError(t, err)
	slot, err := shared.NewTimeSlot(time.Monday, shared.MustTimeOfDay(9, 0), shared.MustTimeOfDay(11, 0))
	require.NoError(t, err)
	require.NoError(t, c.AddTimeSlot(slot))
	require.NoError(t, c.Confirm())
	require.NoError(t, courses.Add(ctx, c))

	k, err := coach.New(coach.NewCoachParams{ID: uuid.NewString(), Name: "Ben", Email: "ben@example.com"})
	require.NoError(t, err)
	require.NoError(t, coaches.Add(ctx, k))
	return c.ID(), k.ID()
}

func TestTransactor_RollsBackBothAggregates(t *testing.T) {
	conn := openTestDB(t)
	courses, coaches, tx := NewCourseRepository(conn), NewCoachRepository(conn), NewTransactor(conn)
	errDiskFull := errors.New("disk full")

	tests := []struct {
		name    string
		wantErr error
		// afterCourseSave runs between the two writes.
		afterCourseSave func(cancel context.CancelFunc) error
	}{
		{"second write fails", errDiskFull, func(context.CancelFunc) error { return errDiskFull }},
		{"context cancelled", context.Canceled, func(cancel context.CancelFunc) error { cancel(); return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courseID, coachID := seedAssignable(t, courses, coaches)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				c, err := courses.GetByID(ctx, courseID)
				if err != nil {
					return err
				}
				k, err := coaches.GetByID(ctx, coachID)
				if err != nil {
					return err
				}
				if err := c.AssignCoach(k); err != nil {
					return err
				}
				if err := courses.Save(ctx, c); err != nil {
					return err
				}
				if err := tt.afterCourseSave(cancel); err != nil {
					return err
				}
				return coaches.Save(ctx, k)
			})
			require.ErrorIs(t, err, tt.wantErr)

			stored, err := courses.GetByID(context.Background(), courseID)
			require.NoError(t, err)
			assert.False(t, stored.IsAssigned())

			storedCoach, err := coaches.GetByID(context.Background(), coachID)
			require.NoError(t, err)
			assert.Empty(t, storedCoach.Commitments())
		})
	}
}
