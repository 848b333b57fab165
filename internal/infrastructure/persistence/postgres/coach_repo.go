package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// CoachRepository implements coach.Repository on PostgreSQL.
// Commitments live in coach_commitments and are rewritten on every save, so
// Save should run inside a Transactor.
type CoachRepository struct {
	conn *Connection
}

// NewCoachRepository creates a new PostgreSQL coach repository.
func NewCoachRepository(conn *Connection) *CoachRepository {
	return &CoachRepository{conn: conn}
}

var _ coach.Repository = (*CoachRepository)(nil)

// Add stores a new coach together with any commitments it already holds.
func (r *CoachRepository) Add(ctx context.Context, c *coach.Coach) error {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return err
	}
	s := c.Snapshot()

	query := `INSERT INTO coaches (id, name, email, skills) VALUES ($1, $2, $3, $4)`
	if _, err := q.Exec(ctx, query, s.ID, s.Name, s.Email, skillNames(s.Skills)); err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("coach", "Add", shared.ErrConflict,
				fmt.Sprintf("coach %s already exists", s.ID))
		}
		return fmt.Errorf("insert coach: %w", err)
	}

	return writeCommitments(ctx, q, s.ID, s.Commitments)
}

// GetByID loads a coach and its commitments.
func (r *CoachRepository) GetByID(ctx context.Context, id string) (*coach.Coach, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	var s coach.Snapshot
	var skills []string
	err = q.QueryRow(ctx, `SELECT id, name, email, skills FROM coaches WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Email, &skills)
	if err != nil {
		if IsNoRows(err) {
			return nil, coach.ErrCoachNotFound
		}
		return nil, fmt.Errorf("get coach: %w", err)
	}

	if s.Skills, err = parseSkills(skills); err != nil {
		return nil, fmt.Errorf("coach %s: %w", id, err)
	}

	byCoach, err := loadCommitments(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	s.Commitments = byCoach[id]

	return coach.Reconstitute(s)
}

// Save overwrites the coach row and replaces its commitments.
func (r *CoachRepository) Save(ctx context.Context, c *coach.Coach) error {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return err
	}
	s := c.Snapshot()

	query := `
		UPDATE coaches SET
			name = $2,
			email = $3,
			skills = $4,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, s.ID, s.Name, s.Email, skillNames(s.Skills))
	if err != nil {
		return fmt.Errorf("update coach: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coach.ErrCoachNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM coach_commitments WHERE coach_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clear commitments: %w", err)
	}
	return writeCommitments(ctx, q, s.ID, s.Commitments)
}

// List returns all coaches ordered by name.
func (r *CoachRepository) List(ctx context.Context) ([]*coach.Coach, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT id, name, email, skills FROM coaches ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}

	var snapshots []coach.Snapshot
	var ids []string
	for rows.Next() {
		var s coach.Snapshot
		var skills []string
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &skills); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan coach: %w", err)
		}
		if s.Skills, err = parseSkills(skills); err != nil {
			rows.Close()
			return nil, fmt.Errorf("coach %s: %w", s.ID, err)
		}
		snapshots = append(snapshots, s)
		ids = append(ids, s.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coaches: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	byCoach, err := loadCommitments(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	coaches := make([]*coach.Coach, 0, len(snapshots))
	for _, s := range snapshots {
		s.Commitments = byCoach[s.ID]
		c, err := coach.Reconstitute(s)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMITMENTS
// ══════════════════════════════════════════════════════════════════════════════

const insertCommitment = `
	INSERT INTO coach_commitments
		(coach_id, position, course_id, day, start_minute, end_minute, start_date, end_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// commitmentRow is the flat form of coach.Commitment.
type commitmentRow struct {
	CoachID     string
	CourseID    string
	Day         int16
	StartMinute int16
	EndMinute   int16
	StartDate   time.Time
	EndDate     time.Time
}

func newCommitmentRow(coachID string, c coach.Commitment) commitmentRow {
	return commitmentRow{
		CoachID:     coachID,
		CourseID:    c.CourseID,
		Day:         int16(c.Slot.Day()),
		StartMinute: int16(c.Slot.Start()),
		EndMinute:   int16(c.Slot.End()),
		StartDate:   c.Period.Start(),
		EndDate:     c.Period.End(),
	}
}

func (r commitmentRow) toDomain() (coach.Commitment, error) {
	slot, err := shared.NewTimeSlot(time.Weekday(r.Day), shared.TimeOfDay(r.StartMinute), shared.TimeOfDay(r.EndMinute))
	if err != nil {
		return coach.Commitment{}, err
	}
	period, err := shared.NewDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return coach.Commitment{}, err
	}
	return coach.Commitment{CourseID: r.CourseID, Slot: slot, Period: period}, nil
}

func writeCommitments(ctx context.Context, q Querier, coachID string, commitments []coach.Commitment) error {
	if len(commitments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, c := range commitments {
		row := newCommitmentRow(coachID, c)
		batch.Queue(insertCommitment,
			row.CoachID, i, row.CourseID, row.Day, row.StartMinute, row.EndMinute, row.StartDate, row.EndDate)
	}

	results := q.SendBatch(ctx, batch)
	for range commitments {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			if IsForeignKeyViolation(err) {
				return shared.WrapError("coach", "Save", shared.ErrNotFound, "committed course does not exist", err)
			}
			return fmt.Errorf("insert commitment: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert commitments: %w", err)
	}
	return nil
}

func loadCommitments(ctx context.Context, q Querier, coachIDs []string) (map[string][]coach.Commitment, error) {
	query := `
		SELECT coach_id, course_id, day, start_minute, end_minute, start_date, end_date
		FROM coach_commitments
		WHERE coach_id = ANY($1)
		ORDER BY coach_id, position
	`
	rows, err := q.Query(ctx, query, coachIDs)
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]coach.Commitment, len(coachIDs))
	for rows.Next() {
		var r commitmentRow
		if err := rows.Scan(&r.CoachID, &r.CourseID, &r.Day, &r.StartMinute, &r.EndMinute, &r.StartDate, &r.EndDate); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		c, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("coach %s: %w", r.CoachID, err)
		}
		out[r.CoachID] = append(out[r.CoachID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}
	return out, nil
}
