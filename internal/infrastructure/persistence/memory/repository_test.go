package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

func newCourse(t *testing.T, id, name string, start time.Time) *course.Course {
	t.Helper()
	c, err := course.New(course.NewCourseParams{ID: id, Name: name, StartDate: start, EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	return c
}

func TestCourseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository()

	c := newCourse(t, "c1", "Go", shared.Date(2025, 9, 1))
	require.NoError(t, repo.Add(ctx, c))
	assert.True(t, shared.IsConflict(repo.Add(ctx, c)))

	// unsaved mutations stay local
	require.NoError(t, c.AddRequiredSkill(shared.SkillBackend))
	stored, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RequiredSkills().Len())

	require.NoError(t, repo.Save(ctx, c))
	stored, err = repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, stored.RequiredSkills().Contains(shared.SkillBackend))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, course.ErrCourseNotFound)
	assert.ErrorIs(t, repo.Save(ctx, newCourse(t, "ghost", "Ghost", shared.Date(2025, 1, 1))), course.ErrCourseNotFound)
}

func TestCourseRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository()

	require.NoError(t, repo.Add(ctx, newCourse(t, "3", "Zig", shared.Date(2025, 9, 1))))
	require.NoError(t, repo.Add(ctx, newCourse(t, "2", "Ada", shared.Date(2025, 9, 1))))
	require.NoError(t, repo.Add(ctx, newCourse(t, "1", "Rust", shared.Date(2025, 3, 1))))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID()
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestCoachRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCoachRepository()

	ann, err := coach.New(coach.NewCoachParams{ID: "b", Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	zoe, err := coach.New(coach.NewCoachParams{ID: "a", Name: "Zoe", Email: "zoe@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Add(ctx, zoe))
	require.NoError(t, repo.Add(ctx, ann))

	require.NoError(t, ann.AddSkill(shared.SkillAgile))
	require.NoError(t, repo.Save(ctx, ann))

	got, err := repo.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.True(t, got.HasSkill(shared.SkillAgile))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ann", list[0].Name())

	_, err = repo.GetByID(ctx, "zzz")
	assert.True(t, shared.IsNotFound(err))
}

func TestRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCourseRepository().List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewCoachRepository().GetByID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	c := newCourse(t, "c1", "Go", shared.Date(2025, 9, 1))
	require.NoError(t, store.Courses.Add(ctx, c))
	ben, err := coach.New(coach.NewCoachParams{ID: "k1", Name: "Ben", Email: "ben@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.Coaches.Add(ctx, ben))

	t.Run("failed unit leaves nothing behind", func(t *testing.T) {
		require.NoError(t, c.AddRequiredSkill(shared.SkillAgile))
		errBoom := errors.New("boom")

		err := store.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, store.Courses.Save(ctx, c))

			staged, err := store.Courses.GetByID(ctx, "c1")
			require.NoError(t, err)
			assert.True(t, staged.RequiredSkills().Contains(shared.SkillAgile), "reads see staged writes")

			outside, err := store.Courses.GetByID(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, 0, outside.RequiredSkills().Len(), "others do not")
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		stored, err := store.Courses.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.RequiredSkills().Len())
	})

	t.Run("cancellation after the last save still commits", func(t *testing.T) {
		txCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, ben.AddSkill(shared.SkillBackend))

		err := store.WithinTx(txCtx, func(ctx context.Context) error {
			if err := store.Courses.Save(ctx, c); err != nil {
				return err
			}
			if err := store.Coaches.Save(ctx, ben); err != nil {
				return err
			}
			cancel()
			return nil
		})
		require.NoError(t, err)

		stored, err := store.Courses.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, stored.RequiredSkills().Contains(shared.SkillAgile))
		got, err := store.Coaches.GetByID(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, got.HasSkill(shared.SkillBackend))
	})

	t.Run("unknown ids are rejected while staging", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context) error {
			return store.Courses.Save(ctx, newCourse(t, "ghost", "Ghost", shared.Date(2025, 1, 1)))
		})
		assert.ErrorIs(t, err, course.ErrCourseNotFound)
	})

	t.Run("repositories outside the store write through", func(t *testing.T) {
		other := NewCourseRepository()
		require.NoError(t, other.Add(ctx, newCourse(t, "x", "Rust", shared.Date(2025, 1, 1))))
		renamed := newCourse(t, "x", "Rust", shared.Date(2025, 1, 1))
		require.NoError(t, renamed.AddRequiredSkill(shared.SkillDevOps))

		err := store.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, other.Save(ctx, renamed))
			return errors.New("rolled back")
		})
		require.Error(t, err)

		got, err := other.GetByID(ctx, "x")
		require.NoError(t, err)
		assert.True(t, got.RequiredSkills().Contains(shared.SkillDevOps))
	})
}
