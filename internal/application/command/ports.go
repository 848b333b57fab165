// Package command contains write operations (CQRS - Commands).
// Every handler loads aggregates, applies domain rules, persists the result and
// publishes a domain event once the change is committed.
package command

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Locker grants exclusive access to a key until the release function is called.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Transactor runs fn inside a unit of work. Repositories that support
// transactions pick it up from the context passed to fn.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Dependencies is shared by all command handlers.
// Courses, Coaches and Locker are required.
type Dependencies struct {
	Courses course.Repository
	Coaches coach.Repository
	Locker  Locker

	// Tx defaults to running fn directly.
	Tx Transactor

	// Events is optional.
	Events shared.EventPublisher

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// NewID defaults to random UUIDs.
	NewID func() string
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Tx == nil {
		d.Tx = directTx{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

type directTx struct{}

func (directTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CourseLockKey is the lock key guarding a course.
func CourseLockKey(id string) string { return "course:" + id }

// CoachLockKey is the lock key guarding a coach.
func CoachLockKey(id string) string { return "coach:" + id }

// lock acquires every key in lexicographic order so that two handlers locking
// overlapping sets can never deadlock. Keys are released in reverse order.
func (d Dependencies) lock(ctx context.Context, keys ...string) (func(), error) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	releases := make([]func(), 0, len(sorted))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, key := range sorted {
		release, err := d.Locker.Acquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func (d Dependencies) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, d.Logger)
}

// publish hands the event to the bus. Publishing happens after commit, so a
// failure is logged rather than returned.
func (d Dependencies) publish(ctx context.Context, event shared.Event) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(event); err != nil {
		d.log(ctx).Warn("failed to publish event",
			zap.String("event_type", string(event.EventType())),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(err),
		)
	}
}

// rejected logs a domain rule violation.
func (d Dependencies) rejected(ctx context.Context, op string, err error, fields ...zap.Field) {
	fields = append(fields, logger.Operation(op), zap.Error(err))
	d.log(ctx).Debug("command rejected", fields...)
}

func validationError(domain, op, message string) error {
	return shared.NewDomainError(domain, op, shared.ErrValidation, message)
}
