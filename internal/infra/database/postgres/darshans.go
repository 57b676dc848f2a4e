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

var _ domain.DarshansRepo = (*PGRepo)(nil)

const darshanColumns = "id, temple_id, day, images, created_at, updated_at"

func refsToStrings(refs []domain.BlobRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	return out
}

func stringsToRefs(ss []string) []domain.BlobRef {
	out := make([]domain.BlobRef, len(ss))
	for i, s := range ss {
		out[i] = domain.BlobRef(s)
	}
	return out
}

func (r *PGRepo) scanDarshan(row pgx.Row) (domain.Darshan, error) {
	var (
		d      domain.Darshan
		day    time.Time
		images []string
	)
	if err := row.Scan(&d.ID, &d.TempleID, &day, &images, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return domain.Darshan{}, err
	}
	d.Day = r.dayFromDate(day)
	d.Images = stringsToRefs(images)
	return d, nil
}

// Upsert creates the (temple, day) record or fully replaces its image list.
// The compound unique constraint resolves concurrent inserts at the DB, so
// repeated uploads for the same day supersede rather than duplicate.
func (r *PGRepo) Upsert(ctx context.Context, templeID domain.TempleID, day domain.DayKey, images []domain.BlobRef) (domain.Darshan, error) {
	q := r.qb().Insert(fmt.Sprintf("%s.darshans", r.schema)).
		Columns("temple_id", "day", "images").
		Values(templeID, day.String(), refsToStrings(images)).
		Suffix("ON CONFLICT ON CONSTRAINT darshans_temple_day_key DO UPDATE SET images = EXCLUDED.images, updated_at = now()").
		Suffix("RETURNING " + darshanColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Upsert", sqlStr, args)

	start := time.Now()
	d, err := r.scanDarshan(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("Upsert scan error after %s: %v", time.Since(start), err)
		return domain.Darshan{}, err
	}
	r.logger.Printf("Upsert ok in %s temple=%s day=%s images=%d", time.Since(start), templeID, day, len(d.Images))
	return d, nil
}

func (r *PGRepo) Find(ctx context.Context, templeID domain.TempleID, day domain.DayKey) (domain.Darshan, error) {
	q := r.qb().Select(darshanColumns).
		From(fmt.Sprintf("%s.darshans", r.schema)).
		Where(sq.Eq{"temple_id": templeID, "day": day.String()})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Find", sqlStr, args)

	start := time.Now()
	d, err := r.scanDarshan(r.pool.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		r.logger.Printf("Find no record in %s temple=%s day=%s", time.Since(start), templeID, day)
		return domain.Darshan{}, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("Find scan error after %s: %v", time.Since(start), err)
		return domain.Darshan{}, err
	}
	r.logger.Printf("Find ok in %s temple=%s day=%s images=%d", time.Since(start), templeID, day, len(d.Images))
	return d, nil
}

// RemoveImage filters ref out of the stored list. The record is deleted when
// the list reaches zero: no empty orphan records stay behind. The update only
// matches when the ref is actually in the list, so a foreign or already-gone
// ref reports removed=false and leaves the record untouched.
func (r *PGRepo) RemoveImage(ctx context.Context, templeID domain.TempleID, day domain.DayKey, ref domain.BlobRef) ([]domain.BlobRef, bool, error) {
	q := r.qb().Update(fmt.Sprintf("%s.darshans", r.schema)).
		Set("images", sq.Expr("array_remove(images, ?)", string(ref))).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"temple_id": templeID, "day": day.String()}).
		Where(sq.Expr("? = ANY(images)", string(ref))).
		Suffix("RETURNING images")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("RemoveImage", sqlStr, args)

	start := time.Now()
	var images []string
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&images)
	if errors.Is(err, pgx.ErrNoRows) {
		// no record, or the ref was not in its list; Find tells which
		d, err := r.Find(ctx, templeID, day)
		if err != nil {
			return nil, false, err
		}
		r.logger.Printf("RemoveImage ref not referenced in %s temple=%s day=%s", time.Since(start), templeID, day)
		return d.Images, false, nil
	}
	if err != nil {
		r.logger.Printf("RemoveImage scan error after %s: %v", time.Since(start), err)
		return nil, false, err
	}

	if len(images) == 0 {
		if err := r.Delete(ctx, templeID, day); err != nil {
			return nil, false, err
		}
		r.logger.Printf("RemoveImage emptied record, deleted temple=%s day=%s", templeID, day)
		return []domain.BlobRef{}, true, nil
	}
	r.logger.Printf("RemoveImage ok in %s temple=%s day=%s remaining=%d", time.Since(start), templeID, day, len(images))
	return stringsToRefs(images), true, nil
}

// FindOlderThan returns every record strictly before cutoff, oldest first.
// Plain MVCC read: the sweeper must tolerate records changing before purge.
func (r *PGRepo) FindOlderThan(ctx context.Context, cutoff domain.DayKey) ([]domain.Darshan, error) {
	q := r.qb().Select(darshanColumns).
		From(fmt.Sprintf("%s.darshans", r.schema)).
		Where(sq.Lt{"day": cutoff.String()}).
		OrderBy("day ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("FindOlderThan", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("FindOlderThan query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.Darshan
	for rows.Next() {
		d, err := r.scanDarshan(rows)
		if err != nil {
			r.logger.Printf("FindOlderThan scan error: %v", err)
			return nil, err
		}
		res = append(res, d)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("FindOlderThan rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("FindOlderThan ok in %s cutoff=%s count=%d", time.Since(start), cutoff, len(res))
	return res, nil
}

// Delete removes the record; already-gone records are success so the sweeper
// can retry a purge.
func (r *PGRepo) Delete(ctx context.Context, templeID domain.TempleID, day domain.DayKey) error {
	q := r.qb().Delete(fmt.Sprintf("%s.darshans", r.schema)).
		Where(sq.Eq{"temple_id": templeID, "day": day.String()})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Delete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("Delete exec error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("Delete ok in %s temple=%s day=%s rows=%d", time.Since(start), templeID, day, tag.RowsAffected())
	return nil
}
