package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

func invitationData(inv *tdjobs.Invitation) (string, error) {
	stored := *inv
	stored.ID = 0
	stored.Job = nil
	return encode(stored)
}

func (r *SQLiteRepo) CreateInvitation(ctx context.Context, inv *tdjobs.Invitation) (int64, error) {
	if inv == nil {
		return 0, fmt.Errorf("invitation is nil")
	}

	data, err := invitationData(inv)
	if err != nil {
		return 0, err
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO invitations (job_id, provider_id, status, data, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.JobID, inv.ProviderID, inv.Status, data, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetInvitation(ctx context.Context, id int64) (*tdjobs.Invitation, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, data FROM invitations WHERE id = ?`, id)
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

	var inv tdjobs.Invitation
	if err := decode(data, &inv); err != nil {
		return nil, err
	}
	inv.ID = rowID
	return &inv, nil
}

func (r *SQLiteRepo) UpdateInvitation(ctx context.Context, inv *tdjobs.Invitation) error {
	if inv == nil {
		return fmt.Errorf("invitation is nil")
	}

	data, err := invitationData(inv)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE invitations SET status = ?, data = ?, updated = ? WHERE id = ?`, inv.Status, data, now(), inv.ID)
	return err
}

func (r *SQLiteRepo) ListInvitations(ctx context.Context) ([]tdjobs.Invitation, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, data FROM invitations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tdjobs.Invitation
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var inv tdjobs.Invitation
		if err := decode(data, &inv); err != nil {
			return nil, err
		}
		inv.ID = id
		out = append(out, inv)
	}
	return out, rows.Err()
}
