package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindercare/kindercare/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const caseCols = `id, parent_id, child_id, clinic_id, symptoms, severity, duration, input_type,
	attachments, status, triage_verdict, red_flags, triage_summary, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.ParentID, &c.ChildID, &c.ClinicID, &c.Symptoms, &c.Severity, &c.Duration, &c.InputType,
		&c.Attachments, &c.Status, &c.Triage.Verdict, &c.Triage.RedFlags, &c.Triage.Summary, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.Attachments == nil {
		c.Attachments = []Attachment{}
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	c.ID = uuid.New()
	if c.Attachments == nil {
		c.Attachments = []Attachment{}
	}
	if c.Triage.RedFlags == nil {
		c.Triage.RedFlags = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO symptom_case (id, parent_id, child_id, clinic_id, symptoms, severity, duration, input_type,
			attachments, status, triage_verdict, red_flags, triage_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		c.ID, c.ParentID, c.ChildID, c.ClinicID, c.Symptoms, c.Severity, c.Duration, c.InputType,
		c.Attachments, c.Status, c.Triage.Verdict, c.Triage.RedFlags, c.Triage.Summary,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM symptom_case WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	notes, err := r.notes(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Notes = notes
	return c, nil
}

func (r *repoPG) notes(ctx context.Context, caseID uuid.UUID) ([]Note, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, author_id, text, created_at FROM case_note
		WHERE case_id = $1 ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := []Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.CaseID, &n.AuthorID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Case, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, v interface{}) {
		where += fmt.Sprintf(" AND "+clause, idx)
		args = append(args, v)
		idx++
	}
	if f.ParentID != nil {
		add("parent_id = $%d", *f.ParentID)
	}
	if f.ChildID != nil {
		add("child_id = $%d", *f.ChildID)
	}
	if f.ClinicID != "" {
		add("clinic_id = $%d", f.ClinicID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM symptom_case`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + caseCols + ` FROM symptom_case` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (time.Time, error) {
	var updatedAt time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE symptom_case SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`, id, from, to).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrStale
	}
	return updatedAt, err
}

func (r *repoPG) AddNote(ctx context.Context, n *Note) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO case_note (case_id, author_id, text) VALUES ($1, $2, $3)
		RETURNING id, created_at`, n.CaseID, n.AuthorID, n.Text).Scan(&n.ID, &n.CreatedAt)
}

func (r *repoPG) AppendAttachment(ctx context.Context, id uuid.UUID, status Status, a Attachment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE symptom_case SET attachments = attachments || $3::jsonb, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, status, []Attachment{a})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}
