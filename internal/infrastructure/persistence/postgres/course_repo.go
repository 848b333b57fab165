package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// CourseRepository implements course.Repository on PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new PostgreSQL course repository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

var _ course.Repository = (*CourseRepository)(nil)

const courseColumns = `id, name, start_date, end_date, required_skills, time_slots, confirmed, assigned_coach_id`

// Add stores a new course.
func (r *CourseRepository) Add(ctx context.Context, c *course.Course) error {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return err
	}
	row, err := courseToRow(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = q.Exec(ctx, query,
		row.ID, row.Name, row.StartDate, row.EndDate,
		row.RequiredSkills, row.TimeSlots, row.Confirmed, row.AssignedCoachID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "Add", shared.ErrConflict,
				fmt.Sprintf("course %s already exists", c.ID()))
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetByID loads a course by id.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*course.Course, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	c, err := scanCourse(q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, course.ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// Save overwrites the stored state of an existing course.
func (r *CourseRepository) Save(ctx context.Context, c *course.Course) error {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return err
	}
	row, err := courseToRow(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE courses SET
			name = $2,
			start_date = $3,
			end_date = $4,
			required_skills = $5,
			time_slots = $6,
			confirmed = $7,
			assigned_coach_id = $8,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		row.ID, row.Name, row.StartDate, row.EndDate,
		row.RequiredSkills, row.TimeSlots, row.Confirmed, row.AssignedCoachID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("course", "Save", shared.ErrNotFound, "assigned coach does not exist", err)
		}
		return fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return course.ErrCourseNotFound
	}
	return nil
}

// List returns all courses ordered by start date, then name.
func (r *CourseRepository) List(ctx context.Context) ([]*course.Course, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY start_date, name, id`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROW MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// slotRecord is the JSONB element stored in courses.time_slots.
type slotRecord struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type courseRow struct {
	ID              string
	Name            string
	StartDate       time.Time
	EndDate         time.Time
	RequiredSkills  []string
	TimeSlots       []byte
	Confirmed       bool
	AssignedCoachID *string
}

func courseToRow(c *course.Course) (courseRow, error) {
	s := c.Snapshot()

	slots, err := encodeSlots(s.TimeSlots)
	if err != nil {
		return courseRow{}, err
	}

	row := courseRow{
		ID:             s.ID,
		Name:           s.Name,
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		RequiredSkills: skillNames(s.RequiredSkills),
		TimeSlots:      slots,
		Confirmed:      s.Confirmed,
	}
	if s.AssignedCoachID != "" {
		id := s.AssignedCoachID
		row.AssignedCoachID = &id
	}
	return row, nil
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var r courseRow
	err := row.Scan(
		&r.ID, &r.Name, &r.StartDate, &r.EndDate,
		&r.RequiredSkills, &r.TimeSlots, &r.Confirmed, &r.AssignedCoachID,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return r.toDomain()
}

func (r courseRow) toDomain() (*course.Course, error) {
	slots, err := decodeSlots(r.TimeSlots)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", r.ID, err)
	}
	skills, err := parseSkills(r.RequiredSkills)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", r.ID, err)
	}

	s := course.Snapshot{
		ID:             r.ID,
		Name:           r.Name,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		TimeSlots:      slots,
		RequiredSkills: skills,
		Confirmed:      r.Confirmed,
	}
	if r.AssignedCoachID != nil {
		s.AssignedCoachID = *r.AssignedCoachID
	}
	return course.Reconstitute(s)
}

func encodeSlots(slots []shared.TimeSlot) ([]byte, error) {
	records := make([]slotRecord, 0, len(slots))
	for _, slot := range slots {
		records = append(records, slotRecord{
			Day:   slot.Day().String(),
			Start: slot.Start().String(),
			End:   slot.End().String(),
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode time slots: %w", err)
	}
	return data, nil
}

func decodeSlots(data []byte) ([]shared.TimeSlot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []slotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}

	slots := make([]shared.TimeSlot, 0, len(records))
	for _, rec := range records {
		day, err := shared.ParseWeekday(rec.Day)
		if err != nil {
			return nil, err
		}
		start, err := shared.ParseTimeOfDay(rec.Start)
		if err != nil {
			return nil, err
		}
		end, err := shared.ParseTimeOfDay(rec.End)
		if err != nil {
			return nil, err
		}
		slot, err := shared.NewTimeSlot(day, start, end)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func skillNames(skills []shared.Skill) []string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.String())
	}
	return names
}

func parseSkills(names []string) ([]shared.Skill, error) {
	skills := make([]shared.Skill, 0, len(names))
	for _, name := range names {
		skill, err := shared.ParseSkill(name)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}
