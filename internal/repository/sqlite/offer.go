package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talosdigital/tdjobs/pkg/repository"
	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

// offerData strips the id and the embedded entities before encoding.
func offerData(o *tdjobs.Offer) (string, error) {
	stored := *o
	stored.ID = 0
	stored.Job = nil
	stored.Invitation = nil
	return encode(stored)
}

func (r *SQLiteRepo) CreateOffer(ctx context.Context, o *tdjobs.Offer) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("offer is nil")
	}

	data, err := offerData(o)
	if err != nil {
		return 0, err
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO offers (job_id, invitation_id, provider_id, status, data, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.JobID, nullID(o.InvitationID), o.ProviderID, o.Status, data, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetOffer(ctx context.Context, id int64) (*tdjobs.Offer, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, data FROM offers WHERE id = ?`, id)
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

	var o tdjobs.Offer
	if err := decode(data, &o); err != nil {
		return nil, err
	}
	o.ID = rowID
	return &o, nil
}

func (r *SQLiteRepo) UpdateOffer(ctx context.Context, o *tdjobs.Offer) error {
	if o == nil {
		return fmt.Errorf("offer is nil")
	}

	data, err := offerData(o)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE offers SET status = ?, data = ?, updated = ? WHERE id = ?`, o.Status, data, now(), o.ID)
	return err
}

func (r *SQLiteRepo) ListOffers(ctx context.Context) ([]repository.OfferRow, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, data, created FROM offers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.OfferRow
	for rows.Next() {
		var (
			id      int64
			data    string
			created int64
		)
		if err := rows.Scan(&id, &data, &created); err != nil {
			return nil, err
		}
		var o tdjobs.Offer
		if err := decode(data, &o); err != nil {
			return nil, err
		}
		o.ID = id
		out = append(out, repository.OfferRow{Offer: o, Created: time.UnixMilli(created).UTC()})
	}
	return out, rows.Err()
}
