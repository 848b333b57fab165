// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents a committed state change.
const (
	// Course events
	EventCourseCreated       EventType = "course.created"
	EventCourseSkillsUpdated EventType = "course.skills_updated"
	EventCourseSlotsUpdated  EventType = "course.timeslots_updated"
	EventCourseConfirmed     EventType = "course.confirmed"
	EventCoachAssigned       EventType = "course.coach_assigned"
	EventCoachUnassigned     EventType = "course.coach_unassigned"

	// Coach events
	EventCoachRegistered    EventType = "coach.registered"
	EventCoachSkillsUpdated EventType = "coach.skills_updated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler handles a published event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Course Events
// ═══════════════════════════════════════════════════════════════════════════

// CourseEvent is emitted for course lifecycle changes that carry no extra data
// beyond the course name (created, skills/time slots updated, confirmed).
type CourseEvent struct {
	BaseEvent
	Name string `json:"name"`
}

// Payload implements Event interface.
func (e CourseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name": e.Name,
	}
}

// NewCourseEvent creates a CourseEvent of the given type.
func NewCourseEvent(eventType EventType, courseID, name string) CourseEvent {
	return CourseEvent{
		BaseEvent: NewBaseEvent(eventType, courseID),
		Name:      name,
	}
}

// AssignmentEvent is emitted when a coach is assigned to or released from a course.
type AssignmentEvent struct {
	BaseEvent
	CoachID string `json:"coach_id"`
	Slots   int    `json:"slots"`
}

// Payload implements Event interface.
func (e AssignmentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"coach_id": e.CoachID,
		"slots":    e.Slots,
	}
}

// NewCoachAssignedEvent creates an assignment event.
func NewCoachAssignedEvent(courseID, coachID string, slots int) AssignmentEvent {
	return AssignmentEvent{
		BaseEvent: NewBaseEvent(EventCoachAssigned, courseID),
		CoachID:   coachID,
		Slots:     slots,
	}
}

// NewCoachUnassignedEvent creates an unassignment event.
func NewCoachUnassignedEvent(courseID, coachID string, slots int) AssignmentEvent {
	return AssignmentEvent{
		BaseEvent: NewBaseEvent(EventCoachUnassigned, courseID),
		CoachID:   coachID,
		Slots:     slots,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Coach Events
// ═══════════════════════════════════════════════════════════════════════════

// CoachEvent is emitted when a coach registers or changes skills.
type CoachEvent struct {
	BaseEvent
	Name   string   `json:"name"`
	Skills []string `json:"skills,omitempty"`
}

// Payload implements Event interface.
func (e CoachEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":   e.Name,
		"skills": e.Skills,
	}
}

// NewCoachEvent creates a CoachEvent of the given type.
func NewCoachEvent(eventType EventType, coachID, name string, skills SkillSet) CoachEvent {
	names := make([]string, 0, skills.Len())
	for _, s := range skills.Slice() {
		names = append(names, s.String())
	}
	return CoachEvent{
		BaseEvent: NewBaseEvent(eventType, coachID),
		Name:      name,
		Skills:    names,
	}
}
