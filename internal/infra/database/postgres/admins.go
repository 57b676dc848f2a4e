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

var _ domain.AdminsRepo = (*PGRepo)(nil)

func (r *PGRepo) CreateAdmin(ctx context.Context, username, passHash string) (domain.Admin, error) {
	q := r.qb().Insert(fmt.Sprintf("%s.admins", r.schema)).
		Columns("username", "pass_hash").
		Values(username, passHash).
		Suffix("RETURNING id, username, pass_hash, created_at")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateAdmin", sqlStr, args)

	start := time.Now()
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PassHash, &a.CreatedAt); err != nil {
		r.logger.Printf("CreateAdmin scan error after %s: %v", time.Since(start), err)
		return domain.Admin{}, err
	}
	r.logger.Printf("CreateAdmin ok in %s id=%s username=%s", time.Since(start), a.ID, a.Username)
	return a, nil
}

func (r *PGRepo) AdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	q := r.qb().Select("id", "username", "pass_hash", "created_at").
		From(fmt.Sprintf("%s.admins", r.schema)).
		Where(sq.Eq{"username": username})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("AdminByUsername", sqlStr, args)

	start := time.Now()
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	var a domain.Admin
	err := row.Scan(&a.ID, &a.Username, &a.PassHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Admin{}, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("AdminByUsername scan error after %s: %v", time.Since(start), err)
		return domain.Admin{}, err
	}
	r.logger.Printf("AdminByUsername ok in %s id=%s", time.Since(start), a.ID)
	return a, nil
}
