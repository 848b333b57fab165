package command

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/internal/infrastructure/locking"
	"github.com/horses-for-courses/planner/internal/infrastructure/persistence/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	ctx      context.Context
	h        *Handlers
	store    *memory.Store
	courses  *memory.CourseRepository
	coaches  *memory.CoachRepository
	events   *recordingPublisher
	sequence atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		ctx:     context.Background(),
		store:   store,
		courses: store.Courses,
		coaches: store.Coaches,
		events:  &recordingPublisher{},
	}
	f.h = NewHandlers(Dependencies{
		Courses: f.courses,
		Coaches: f.coaches,
		Locker:  locking.NewKeyedMutex(),
		Tx:      store,
		Events:  f.events,
		NewID:   func() string { return fmt.Sprintf("id-%d", f.sequence.Add(1)) },
	})
	return f
}

func (f *fixture) course(t *testing.T, name string, from, to time.Time, skills []shared.Skill, slots ...SlotInput) string {
	t.Helper()
	res, err := f.h.CreateCourse.Handle(f.ctx, CreateCourseCommand{Name: name, StartDate: from, EndDate: to})
	require.NoError(t, err)
	id := res.Course.ID()

	_, err = f.h.UpdateCourseSkills.Handle(f.ctx, UpdateCourseSkillsCommand{CourseID: id, Add: skills})
	require.NoError(t, err)
	_, err = f.h.UpdateCourseTimeSlots.Handle(f.ctx, UpdateCourseTimeSlotsCommand{CourseID: id, Add: slots})
	require.NoError(t, err)
	return id
}

func (f *fixture) confirmedCourse(t *testing.T, name string, from, to time.Time, skills []shared.Skill, slots ...SlotInput) string {
	t.Helper()
	id := f.course(t, name, from, to, skills, slots...)
	_, err := f.h.ConfirmCourse.Handle(f.ctx, ConfirmCourseCommand{CourseID: id})
	require.NoError(t, err)
	return id
}

func (f *fixture) coach(t *testing.T, name string, skills ...shared.Skill) string {
	t.Helper()
	res, err := f.h.RegisterCoach.Handle(f.ctx, RegisterCoachCommand{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	_, err = f.h.UpdateCoachSkills.Handle(f.ctx, UpdateCoachSkillsCommand{CoachID: res.Coach.ID(), Add: skills})
	require.NoError(t, err)
	return res.Coach.ID()
}

var (
	aug1  = shared.Date(2025, 8, 1)
	aug31 = shared.Date(2025, 8, 31)
)

func TestCreateCourse(t *testing.T) {
	f := newFixture(t)

	res, err := f.h.CreateCourse.Handle(f.ctx, CreateCourseCommand{Name: "Fullstack", StartDate: aug1, EndDate: aug31})
	require.NoError(t, err)
	assert.Equal(t, "id-1", res.Course.ID())

	stored, err := f.courses.GetByID(f.ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Fullstack", stored.Name())
	assert.Equal(t, []shared.EventType{shared.EventCourseCreated}, f.events.types())

	_, err = f.h.CreateCourse.Handle(f.ctx, CreateCourseCommand{Name: "", StartDate: aug1, EndDate: aug31})
	assert.True(t, shared.IsValidation(err))

	_, err = f.h.CreateCourse.Handle(f.ctx, CreateCourseCommand{Name: "Go", StartDate: aug31, EndDate: aug1})
	assert.True(t, shared.IsValidation(err))

	_, err = f.h.CreateCourse.Handle(f.ctx, CreateCourseCommand{Name: "Go"})
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateCourseSkills(t *testing.T) {
	f := newFixture(t)
	id := f.course(t, "Go", aug1, aug31, nil)

	res, err := f.h.UpdateCourseSkills.Handle(f.ctx, UpdateCourseSkillsCommand{
		CourseID: id,
		Add:      []shared.Skill{shared.SkillBackend, shared.SkillBackend, shared.SkillDevOps},
		Remove:   []shared.Skill{shared.SkillDevOps, shared.SkillAgile},
	})
	require.NoError(t, err)
	assert.Equal(t, []shared.Skill{shared.SkillBackend}, res.Course.RequiredSkills().Slice())

	_, err = f.h.UpdateCourseSkills.Handle(f.ctx, UpdateCourseSkillsCommand{CourseID: "nope"})
	assert.True(t, shared.IsNotFound(err))
}

func TestUpdateCourseTimeSlots_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	id := f.course(t, "Go", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})

	cases := map[string]UpdateCourseTimeSlotsCommand{
		"invalid slot in batch": {CourseID: id, Add: []SlotInput{
			{"Tuesday", "09:00", "11:00"},
			{"Saturday", "09:00", "11:00"},
		}},
		"unknown day": {CourseID: id, Add: []SlotInput{{"Funday", "09:00", "11:00"}}},
		"bad time":    {CourseID: id, Add: []SlotInput{{"Tuesday", "9am", "11:00"}}},
		"duplicate of existing slot": {CourseID: id, Add: []SlotInput{
			{"Wednesday", "13:00", "15:00"},
			{"Monday", "09:00", "11:00"},
		}},
	}

	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.h.UpdateCourseTimeSlots.Handle(f.ctx, cmd)
			require.Error(t, err)

			stored, err := f.courses.GetByID(f.ctx, id)
			require.NoError(t, err)
			assert.Len(t, stored.TimeSlots(), 1)
		})
	}
}

func TestUpdateCourseTimeSlots_DedupesAndRemoves(t *testing.T) {
	f := newFixture(t)
	id := f.course(t, "Go", aug1, aug31, nil)

	res, err := f.h.UpdateCourseTimeSlots.Handle(f.ctx, UpdateCourseTimeSlotsCommand{
		CourseID: id,
		Add: []SlotInput{
			{"Monday", "09:00", "11:00"},
			{"monday", "09:00", "11:00"},
			{"Friday", "14:00", "16:00"},
		},
		Remove: []SlotInput{{"Friday", "14:00", "16:00"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Course.TimeSlots(), 1)
	assert.Equal(t, time.Monday, res.Course.TimeSlots()[0].Day())
}

func TestConfirmCourse(t *testing.T) {
	f := newFixture(t)
	empty := f.course(t, "Empty", aug1, aug31, nil)

	_, err := f.h.ConfirmCourse.Handle(f.ctx, ConfirmCourseCommand{CourseID: empty})
	assert.ErrorIs(t, err, course.ErrNoTimeSlots)

	id := f.confirmedCourse(t, "Go", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})

	_, err = f.h.ConfirmCourse.Handle(f.ctx, ConfirmCourseCommand{CourseID: id})
	assert.ErrorIs(t, err, course.ErrAlreadyConfirmed)

	_, err = f.h.UpdateCourseSkills.Handle(f.ctx, UpdateCourseSkillsCommand{CourseID: id, Add: []shared.Skill{shared.SkillAgile}})
	assert.True(t, shared.IsState(err))
	_, err = f.h.UpdateCourseTimeSlots.Handle(f.ctx, UpdateCourseTimeSlotsCommand{CourseID: id, Add: []SlotInput{{"Friday", "09:00", "11:00"}}})
	assert.True(t, shared.IsState(err))
}

func TestAssignCoach(t *testing.T) {
	f := newFixture(t)
	courseID := f.confirmedCourse(t, "Fullstack", aug1, aug31, []shared.Skill{shared.SkillFrontend},
		SlotInput{"Monday", "09:00", "11:00"})
	coachID := f.coach(t, "ben", shared.SkillFrontend)

	res, err := f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: courseID, CoachID: coachID})
	require.NoError(t, err)
	assert.True(t, res.Course.IsAssigned())

	storedCourse, err := f.courses.GetByID(f.ctx, courseID)
	require.NoError(t, err)
	assigned, _ := storedCourse.AssignedCoachID()
	assert.Equal(t, coachID, assigned)

	storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseID}, storedCoach.AssignedCourseIDs())

	assert.Contains(t, f.events.types(), shared.EventCoachAssigned)
}

func TestAssignCoach_Failures(t *testing.T) {
	f := newFixture(t)
	first := f.confirmedCourse(t, "First", aug1, aug31, nil, SlotInput{"Monday", "10:00", "12:00"})
	overlapping := f.confirmedCourse(t, "Second", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})
	needsBackend := f.confirmedCourse(t, "Backend", aug1, aug31, []shared.Skill{shared.SkillBackend},
		SlotInput{"Friday", "09:00", "11:00"})
	draft := f.course(t, "Draft", aug1, aug31, nil, SlotInput{"Tuesday", "09:00", "11:00"})
	coachID := f.coach(t, "ben")

	_, err := f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: first, CoachID: coachID})
	require.NoError(t, err)

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: overlapping, CoachID: coachID})
	assert.True(t, shared.IsAvailability(err))

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: needsBackend, CoachID: coachID})
	assert.True(t, shared.IsEligibility(err))

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: draft, CoachID: coachID})
	assert.ErrorIs(t, err, course.ErrNotConfirmed)

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: first, CoachID: "ghost"})
	assert.True(t, shared.IsNotFound(err))

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: first})
	assert.True(t, shared.IsValidation(err))

	storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, storedCoach.AssignedCourseIDs())

	for _, id := range []string{overlapping, needsBackend, draft} {
		c, err := f.courses.GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.False(t, c.IsAssigned(), id)
	}
}

func TestAssignCoach_SameSlotDisjointPeriods(t *testing.T) {
	f := newFixture(t)
	fri := SlotInput{"Friday", "10:00", "12:00"}
	q1 := f.confirmedCourse(t, "Q1", shared.Date(2025, 1, 1), shared.Date(2025, 3, 31), nil, fri)
	q2 := f.confirmedCourse(t, "Q2", shared.Date(2025, 4, 1), shared.Date(2025, 6, 30), nil, fri)
	coachID := f.coach(t, "ann")

	_, err := f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: q1, CoachID: coachID})
	require.NoError(t, err)
	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: q2, CoachID: coachID})
	require.NoError(t, err)
}

func TestUnassignCoach(t *testing.T) {
	f := newFixture(t)
	courseID := f.confirmedCourse(t, "Go", aug1, aug31, nil, SlotInput{"Monday", "09:00", "11:00"})
	coachID := f.coach(t, "ben")

	_, err := f.h.UnassignCoach.Handle(f.ctx, UnassignCoachCommand{CourseID: courseID})
	assert.ErrorIs(t, err, course.ErrNoCoachAssigned)
	assert.True(t, shared.IsState(err))

	_, err = f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: courseID, CoachID: coachID})
	require.NoError(t, err)

	res, err := f.h.UnassignCoach.Handle(f.ctx, UnassignCoachCommand{CourseID: courseID})
	require.NoError(t, err)
	assert.False(t, res.Course.IsAssigned())
	assert.Empty(t, res.Coach.CommitmentsFor(courseID))

	storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
	require.NoError(t, err)
	assert.Empty(t, storedCoach.Commitments())

	storedCourse, err := f.courses.GetByID(f.ctx, courseID)
	require.NoError(t, err)
	assert.False(t, storedCourse.IsAssigned())
	assert.True(t, storedCourse.IsConfirmed())

	assert.Contains(t, f.events.types(), shared.EventCoachUnassigned)
}

func TestAssignCoach_ConcurrentOverlappingCourses(t *testing.T) {
	f := newFixture(t)
	coachID := f.coach(t, "ben")

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.confirmedCourse(t, fmt.Sprintf("Course %d", i), aug1, aug31, nil, SlotInput{"Tuesday", "09:00", "11:00"})
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.h.AssignCoach.Handle(f.ctx, AssignCoachCommand{CourseID: id, CoachID: coachID}); err == nil {
				succeeded.Add(1)
			} else {
				assert.True(t, shared.IsAvailability(err), err.Error())
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	storedCoach, err := f.coaches.GetByID(f.ctx, coachID)
	require.NoError(t, err)
	assert.Len(t, storedCoach.Commitments(), 1)
}

func TestUpdateCoachSkills(t *testing.T) {
	f := newFixture(t)
	coachID := f.coach(t, "ann", shared.SkillAgile)

	res, err := f.h.UpdateCoachSkills.Handle(f.ctx, UpdateCoachSkillsCommand{
		CoachID: coachID,
		Add:     []shared.Skill{shared.SkillDotNet, shared.SkillDotNet},
		Remove:  []shared.Skill{shared.SkillAgile, shared.SkillSecurity},
	})
	require.NoError(t, err)
	assert.Equal(t, []shared.Skill{shared.SkillDotNet}, res.Coach.Skills().Slice())

	_, err = f.h.UpdateCoachSkills.Handle(f.ctx, UpdateCoachSkillsCommand{CoachID: coachID, Add: []shared.Skill{"Cobol"}})
	assert.True(t, shared.IsValidation(err))

	stored, err := f.coaches.GetByID(f.ctx, coachID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Skills().Len())

	_, err = f.h.RegisterCoach.Handle(f.ctx, RegisterCoachCommand{Name: "", Email: "x@example.com"})
	assert.True(t, shared.IsValidation(err))
}
