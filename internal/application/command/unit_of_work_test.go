package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/internal/infrastructure/locking"
)

// interruptedCoaches runs interrupt before every Save, standing in for a
// request that is cancelled or a store that fails between the course write
// and the coach write.
type interruptedCoaches struct {
	coach.Repository
	interrupt func() error
}

func (r interruptedCoaches) Save(ctx context.Context, c *coach.Coach) error {
	if err := r.interrupt(); err != nil {
		return err
	}
	return r.Repository.Save(ctx, c)
}

var errDiskFull = errors.New("disk full")

type interruption struct {
	name    string
	build   func(cancel context.CancelFunc) func() error
	wantErr error
}

var interruptions = []interruption{
	{
		name:    "context cancelled",
		build:   func(cancel context.CancelFunc) func() error { return func() error { cancel(); return nil } },
		wantErr: context.Canceled,
	},
	{
		name:    "coach save fails",
		build:   func(context.CancelFunc) func() error { return func() error { return errDiskFull } },
		wantErr: errDiskFull,
	},
}

func (f *fixture) interruptedDeps(interrupt func() error) Dependencies {
	return Dependencies{
		Courses: f.courses,
		Coaches: interruptedCoaches{Repository: f.coaches, interrupt: interrupt},
		Locker:  locking.NewKeyedMutex(),
		Tx:      f.store,
		Events:  f.events,
	}
}

func TestAssignCoach_InterruptedSecondWrite(t *testing.T) {
	for _, tt := range interruptions {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			courseID := f.confirmedCourse(t, "Go", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})
			coachID := f.coach(t, "ben")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			h := NewAssignCoachHandler(f.interruptedDeps(tt.build(cancel)))
			_, err := h.Handle(ctx, AssignCoachCommand{CourseID: courseID, CoachID: coachID})
			require.ErrorIs(t, err, tt.wantErr)

			storedCourse, err := f.courses.GetByID(f.ctx, courseID)
			require.NoError(t, err)
			assert.False(t, storedCourse.IsAssigned())

			storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
			require.NoError(t, err)
			assert.Empty(t, storedCoach.Commitments())
			assert.NotContains(t, f.events.types(), shared.EventCoachAssigned)

			_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: courseID, CoachID: coachID})
			require.NoError(t, err)
		})
	}
}

func TestUnassignCoach_InterruptedSecondWrite(t *testing.T) {
	for _, tt := range interruptions {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			courseID := f.confirmedCourse(t, "Go", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})
			coachID := f.coach(t, "ben")
			_, err := f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: courseID, CoachID: coachID})
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			h := NewUnassignCoachHandler(f.interruptedDeps(tt.build(cancel)))
			_, err = h.Handle(ctx, UnassignCoachCommand{CourseID: courseID})
			require.ErrorIs(t, err, tt.wantErr)

			storedCourse, err := f.courses.GetByID(f.ctx, courseID)
			require.NoError(t, err)
			assigned, ok := storedCourse.AssignedCoachID()
			require.True(t, ok)
			assert.Equal(t, coachID, assigned)

			storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
			require.NoError(t, err)
			assert.Len(t, storedCoach.CommitmentsFor(courseID), 1)
			assert.NotContains(t, f.events.types(), shared.EventCoachUnassigned)

			_, err = f.h.UnassignCoach.Handle(f.ctx, UnassignCoachCommand{CourseID: courseID})
			require.NoError(t, err)
		})
	}
}
