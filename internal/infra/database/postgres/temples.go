package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

var _ domain.TemplesRepo = (*PGRepo)(nil)

const templeColumns = "id, name, image, location, description, created_at, updated_at"

func scanTemple(row pgx.Row) (domain.Temple, error) {
	var t domain.Temple
	err := row.Scan(&t.ID, &t.Name, &t.Image, &t.Location, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *PGRepo) CreateTemple(ctx context.Context, t domain.Temple) (domain.Temple, error) {
	q := r.qb().Insert(fmt.Sprintf("%s.temples", r.schema)).
		Columns("name", "image", "location", "description").
		Values(t.Name, t.Image, t.Location, t.Description).
		Suffix("RETURNING " + templeColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateTemple", sqlStr, args)

	start := time.Now()
	out, err := scanTemple(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateTemple scan error after %s: %v", time.Since(start), err)
		return domain.Temple{}, err
	}
	r.logger.Printf("CreateTemple ok in %s id=%s name=%q", time.Since(start), out.ID, out.Name)
	return out, nil
}

func (r *PGRepo) TempleByID(ctx context.Context, id domain.TempleID) (domain.Temple, error) {
	q := r.qb().Select(templeColumns).
		From(fmt.Sprintf("%s.temples", r.schema)).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("TempleByID", sqlStr, args)

	start := time.Now()
	out, err := scanTemple(r.pool.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Temple{}, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("TempleByID scan error after %s: %v", time.Since(start), err)
		return domain.Temple{}, err
	}
	r.logger.Printf("TempleByID ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

func (r *PGRepo) TemplesList(ctx context.Context) ([]domain.Temple, error) {
	q := r.qb().Select(templeColumns).
		From(fmt.Sprintf("%s.temples", r.schema)).
		OrderBy("name ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("TemplesList", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("TemplesList query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.Temple
	for rows.Next() {
		t, err := scanTemple(rows)
		if err != nil {
			r.logger.Printf("TemplesList scan error: %v", err)
			return nil, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("TemplesList rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("TemplesList ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}

// UpdateTemple applies only the fields present in the patch; empty patch
// fields keep the stored values.
func (r *PGRepo) UpdateTemple(ctx context.Context, id domain.TempleID, p domain.TemplePatch) (domain.Temple, error) {
	set := map[string]any{"updated_at": sq.Expr("now()")}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}

	q := r.qb().Update(fmt.Sprintf("%s.temples", r.schema)).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + templeColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UpdateTemple", sqlStr, args)

	start := time.Now()
	out, err := scanTemple(r.pool.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Temple{}, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("UpdateTemple scan error after %s: %v", time.Since(start), err)
		return domain.Temple{}, err
	}
	r.logger.Printf("UpdateTemple ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

func (r *PGRepo) DeleteTemple(ctx context.Context, id domain.TempleID) error {
	q := r.qb().Delete(fmt.Sprintf("%s.temples", r.schema)).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("DeleteTemple", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("DeleteTemple exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("DeleteTemple no rows affected in %s", time.Since(start))
		return domain.ErrNotFound
	}
	r.logger.Printf("DeleteTemple ok in %s id=%s", time.Since(start), id)
	return nil
}
