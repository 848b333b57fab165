// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Skill Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Skill is a capability label from a fixed tag set.
type Skill string

const (
	SkillAgile         Skill = "Agile"
	SkillBackend       Skill = "Backend"
	SkillFrontend      Skill = "Frontend"
	SkillDevOps        Skill = "DevOps"
	SkillSecurity      Skill = "Security"
	SkillCommunication Skill = "Communication"
	SkillDotNet        Skill = "DotNet"
)

var knownSkills = []Skill{
	SkillAgile,
	SkillBackend,
	SkillFrontend,
	SkillDevOps,
	SkillSecurity,
	SkillCommunication,
	SkillDotNet,
}

// AllSkills returns every known skill in declaration order.
func AllSkills() []Skill {
	out := make([]Skill, len(knownSkills))
	copy(out, knownSkills)
	return out
}

// IsValid checks that the skill belongs to the tag set.
func (s Skill) IsValid() bool {
	for _, k := range knownSkills {
		if s == k {
			return true
		}
	}
	return false
}

// String returns the canonical name.
func (s Skill) String() string {
	return string(s)
}

// ParseSkill resolves a skill name case-insensitively.
func ParseSkill(name string) (Skill, error) {
	trimmed := strings.TrimSpace(name)
	for _, k := range knownSkills {
		if strings.EqualFold(trimmed, string(k)) {
			return k, nil
		}
	}
	names := make([]string, 0, len(knownSkills))
	for _, k := range AllSkills() {
		names = append(names, k.String())
	}
	return "", NewDomainError("skill", "Parse", ErrValidation,
		fmt.Sprintf("unknown skill %q, expected one of: %s", name, strings.Join(names, ", ")))
}

// SkillSet is an unordered set of skills. The zero value is an empty set ready to use
// for reads; use NewSkillSet before mutating.
type SkillSet map[Skill]struct{}

// NewSkillSet creates a set holding the given skills.
func NewSkillSet(skills ...Skill) SkillSet {
	set := make(SkillSet, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	return set
}

// Add inserts a skill. It reports whether the set changed.
func (s SkillSet) Add(skill Skill) bool {
	if _, ok := s[skill]; ok {
		return false
	}
	s[skill] = struct{}{}
	return true
}

// Remove deletes a skill. It reports whether the set changed.
func (s SkillSet) Remove(skill Skill) bool {
	if _, ok := s[skill]; !ok {
		return false
	}
	delete(s, skill)
	return true
}

// Contains reports membership.
func (s SkillSet) Contains(skill Skill) bool {
	_, ok := s[skill]
	return ok
}

// ContainsAll reports whether other is a subset of s.
func (s SkillSet) ContainsAll(other SkillSet) bool {
	for skill := range other {
		if !s.Contains(skill) {
			return false
		}
	}
	return true
}

// Len returns the number of skills.
func (s SkillSet) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s SkillSet) Clone() SkillSet {
	out := make(SkillSet, len(s))
	for skill := range s {
		out[skill] = struct{}{}
	}
	return out
}

// Slice returns the skills sorted by name.
func (s SkillSet) Slice() []Skill {
	out := make([]Skill, 0, len(s))
	for skill := range s {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeOfDay Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

const (
	// OfficeOpen is the earliest allowed slot start.
	OfficeOpen TimeOfDay = 9 * 60
	// OfficeClose is the latest allowed slot end.
	OfficeClose TimeOfDay = 17 * 60
	// MinSlotDuration is the shortest allowed slot.
	MinSlotDuration = time.Hour
)

// NewTimeOfDay creates a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, NewDomainError("timeofday", "New", ErrValidation,
			fmt.Sprintf("invalid time of day %02d:%02d", hour, minute))
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is NewTimeOfDay for constants known to be valid.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM" (seconds, if present, must be zero).
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	layouts := []string{"15:04", "15:04:05"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, strings.TrimSpace(value))
		if err != nil {
			continue
		}
		if t.Second() != 0 {
			break
		}
		return NewTimeOfDay(t.Hour(), t.Minute())
	}
	return 0, NewDomainError("timeofday", "Parse", ErrValidation,
		fmt.Sprintf("invalid time %q, expected HH:MM", value))
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component.
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// String formats as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeSlot Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeSlot is a weekly interval confined to office hours on a weekday.
// Fields are unexported so a TimeSlot can only come from NewTimeSlot; the struct
// is comparable, so == is value equality.
type TimeSlot struct {
	day   time.Weekday
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeSlot validates and creates a TimeSlot.
func NewTimeSlot(day time.Weekday, start, end TimeOfDay) (TimeSlot, error) {
	if day < time.Sunday || day > time.Saturday {
		return TimeSlot{}, NewDomainError("timeslot", "New", ErrValidation, "invalid day of week")
	}
	if start >= end {
		return TimeSlot{}, NewDomainError("timeslot", "New", ErrValidation, "start time must be before end time")
	}
	if start < OfficeOpen || end > OfficeClose {
		return TimeSlot{}, NewDomainError("timeslot", "New", ErrValidation,
			"time slot must be within office hours (09:00 - 17:00)")
	}
	if day == time.Saturday || day == time.Sunday {
		return TimeSlot{}, NewDomainError("timeslot", "New", ErrValidation, "lessons must be scheduled on weekdays only")
	}
	slot := TimeSlot{day: day, start: start, end: end}
	if slot.Duration() < MinSlotDuration {
		return TimeSlot{}, NewDomainError("timeslot", "New", ErrValidation, "time slot must be at least 1 hour long")
	}
	return slot, nil
}

// ParseWeekday resolves an English weekday name case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	trimmed := strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(trimmed, d.String()) {
			return d, nil
		}
	}
	return 0, NewDomainError("timeslot", "ParseWeekday", ErrValidation, fmt.Sprintf("unknown day %q", name))
}

// Day returns the weekday.
func (t TimeSlot) Day() time.Weekday { return t.day }

// Start returns the start time.
func (t TimeSlot) Start() TimeOfDay { return t.start }

// End returns the end time.
func (t TimeSlot) End() TimeOfDay { return t.end }

// Duration returns the slot length.
func (t TimeSlot) Duration() time.Duration {
	return time.Duration(t.end-t.start) * time.Minute
}

// ConflictsWith reports whether both slots fall on the same day and their
// half-open intervals overlap.
func (t TimeSlot) ConflictsWith(other TimeSlot) bool {
	return t.day == other.day && t.start < other.end && t.end > other.start
}

// String formats as "Monday 09:00-11:00".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.day, t.start, t.end)
}

// Less orders slots by day, then start, then end.
func (t TimeSlot) Less(other TimeSlot) bool {
	if t.day != other.day {
		return t.day < other.day
	}
	if t.start != other.start {
		return t.start < other.start
	}
	return t.end < other.end
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	start time.Time
	end   time.Time
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, WrapError("date", "Parse", ErrValidation,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	return t, nil
}

// NewDateRange validates and creates a DateRange.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return DateRange{}, NewDomainError("daterange", "New", ErrValidation, "start date must not be after end date")
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the first day.
func (r DateRange) Start() time.Time { return r.start }

// End returns the last day.
func (r DateRange) End() time.Time { return r.end }

// IsValid reports whether start <= end.
func (r DateRange) IsValid() bool {
	return !r.start.After(r.end)
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !r.end.Before(other.start)
}

// String formats as "2025-01-01..2025-03-31".
func (r DateRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}
