package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/sqlerr"
	"github.com/jackc/pgx/v5"
)

const smileyTable = "smiles"

const smileyColumns = "id, code, smile_url, emotion, display"

// SmileyInput carries the writable columns of a smiley.
type SmileyInput struct {
	Code    string `json:"code" yaml:"code"`
	URL     string `json:"smile_url" yaml:"smile_url"`
	Emotion string `json:"emotion" yaml:"emotion"`
	Display bool   `json:"display" yaml:"display"`
}

// SmileyRepository stores smileys in the smiles table.
type SmileyRepository struct {
	db DBTX
}

func NewSmileyRepository(db DBTX) *SmileyRepository {
	return &SmileyRepository{db: db}
}

func scanSmiley(row pgx.Row) (filter.Smiley, error) {
	var s filter.Smiley
	err := row.Scan(&s.ID, &s.Code, &s.URL, &s.Emotion, &s.Display)
	return s, err
}

// List returns smileys ordered by id. With displayOnly set, only the ones
// shown in the picker are returned.
func (r *SmileyRepository) List(ctx context.Context, displayOnly bool) ([]filter.Smiley, error) {
	query := `SELECT ` + smileyColumns + ` FROM smiles`
	if displayOnly {
		query += ` WHERE display`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list smileys: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (filter.Smiley, error) {
		return scanSmiley(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list smileys: %w", err)
	}
	return list, nil
}

func (r *SmileyRepository) Get(ctx context.Context, id int64) (filter.Smiley, error) {
	s, err := scanSmiley(r.db.QueryRow(ctx,
		`SELECT `+smileyColumns+` FROM smiles WHERE id = $1`, id))
	if err != nil {
		return filter.Smiley{}, wrapNoRows(fmt.Sprintf("get smiley %d", id), err)
	}
	return s, nil
}

func (r *SmileyRepository) Create(ctx context.Context, in SmileyInput) (filter.Smiley, error) {
	s, err := scanSmiley(r.db.QueryRow(ctx,
		`INSERT INTO smiles (code, smile_url, emotion, display)
		VALUES ($1, $2, $3, $4)
		RETURNING `+smileyColumns,
		in.Code, in.URL, in.Emotion, in.Display))
	if err != nil {
		return filter.Smiley{}, fmt.Errorf("create smiley: %w", err)
	}
	return s, nil
}

func (r *SmileyRepository) Update(ctx context.Context, id int64, in SmileyInput) (filter.Smiley, error) {
	s, err := scanSmiley(r.db.QueryRow(ctx,
		`UPDATE smiles
		SET code = $2, smile_url = $3, emotion = $4, display = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+smileyColumns,
		id, in.Code, in.URL, in.Emotion, in.Display))
	if err != nil {
		return filter.Smiley{}, wrapNoRows(fmt.Sprintf("update smiley %d", id), err)
	}
	return s, nil
}

func (r *SmileyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM smiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete smiley %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete smiley %d: %w", id, sqlerr.NoRows(smileyTable))
	}
	return nil
}

// Import upserts a smiley pack by code in one transaction and returns the
// number of rows written.
func (r *SmileyRepository) Import(ctx context.Context, pack []SmileyInput) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("import smileys: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, in := range pack {
		_, err := tx.Exec(ctx,
			`INSERT INTO smiles (code, smile_url, emotion, display)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO UPDATE
			SET smile_url = EXCLUDED.smile_url, emotion = EXCLUDED.emotion,
				display = EXCLUDED.display, updated_at = NOW()`,
			in.Code, in.URL, in.Emotion, in.Display)
		if err != nil {
			return 0, fmt.Errorf("import smiley %q: %w", in.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("import smileys: %w", err)
	}
	return len(pack), nil
}

func wrapNoRows(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sqlerr.NoRows(smileyTable))
	}
	return fmt.Errorf("%s: %w", op, err)
}
