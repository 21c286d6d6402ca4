package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/EgorLis/my-records/internal/domain"
)

var recordColumns = []string{"id", "file1", "file2", "file3", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var rec domain.Record
	err := row.Scan(&rec.ID, &rec.File1, &rec.File2, &rec.File3, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (r *PGRepo) FindByID(ctx context.Context, id domain.RecordID) (domain.Record, error) {
	q := r.qb().Select(recordColumns...).
		From(r.table()).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("FindByID", sqlStr, args)

	start := time.Now()
	rec, err := scanRecord(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("FindByID not found in %s id=%s", time.Since(start), id)
			return domain.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Printf("FindByID scan error after %s: %v", time.Since(start), err)
		return domain.Record{}, err
	}
	r.logger.Printf("FindByID ok in %s id=%s", time.Since(start), id)
	return rec, nil
}

// Upsert: один INSERT ... ON CONFLICT, тройка ключей меняется атомарно.
func (r *PGRepo) Upsert(ctx context.Context, rec domain.Record) error {
	q := r.qb().Insert(r.table()).
		Columns("id", "file1", "file2", "file3").
		Values(rec.ID, rec.File1, rec.File2, rec.File3).
		Suffix("ON CONFLICT (id) DO UPDATE SET file1 = EXCLUDED.file1, file2 = EXCLUDED.file2, file3 = EXCLUDED.file3, updated_at = now()")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Upsert", sqlStr, args)

	start := time.Now()
	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		r.logger.Printf("Upsert exec error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("Upsert ok in %s id=%s", time.Since(start), rec.ID)
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id domain.RecordID) error {
	q := r.qb().Delete(r.table()).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("Delete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("Delete exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("Delete no rows affected in %s id=%s", time.Since(start), id)
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	r.logger.Printf("Delete ok in %s id=%s", time.Since(start), id)
	return nil
}

// List: страница в порядке создания; page начинается с 1
func (r *PGRepo) List(ctx context.Context, page, pageSize int) ([]domain.Record, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, domain.ErrBadParams
	}
	q := r.qb().Select(recordColumns...).
		From(r.table()).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sqlStr, args, _ := q.ToSql()
	r.logSQL("List", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("List query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	res := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Printf("List scan error: %v", err)
			return nil, err
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("List rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("List ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}

func (r *PGRepo) Count(ctx context.Context) (int, error) {
	q := r.qb().Select("count(*)").From(r.table())
	sqlStr, args, _ := q.ToSql()
	r.logSQL("Count", sqlStr, args)

	var n int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		r.logger.Printf("Count scan error: %v", err)
		return 0, err
	}
	return n, nil
}
