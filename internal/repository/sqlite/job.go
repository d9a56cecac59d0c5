package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *tdjobs.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}

	stored := *j
	stored.ID = 0
	data, err := encode(stored)
	if err != nil {
		return 0, err
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO jobs (owner_id, status, data, created, updated) VALUES (?, ?, ?, ?, ?)`, j.OwnerID, j.Status, data, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJob(ctx context.Context, id int64) (*tdjobs.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, data FROM jobs WHERE id = ?`, id)
	var (
		rowID int64
		data  string
	)
	if err := row.Scan(&rowID, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var j tdjobs.Job
	if err := decode(data, &j); err != nil {
		return nil, err
	}
	j.ID = rowID
	return &j, nil
}

func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *tdjobs.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	stored := *j
	stored.ID = 0
	data, err := encode(stored)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE jobs SET owner_id = ?, status = ?, data = ?, updated = ? WHERE id = ?`, j.OwnerID, j.Status, data, now(), j.ID)
	return err
}

func (r *SQLiteRepo) ListJobs(ctx context.Context) ([]tdjobs.Job, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, data FROM jobs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tdjobs.Job
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var j tdjobs.Job
		if err := decode(data, &j); err != nil {
			return nil, err
		}
		j.ID = id
		out = append(out, j)
	}
	return out, rows.Err()
}
