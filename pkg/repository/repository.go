package repository

import (
	"context"
	"time"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

// Repository interfaces backing the fake marketplace server. Get methods
// return (nil, nil) when the id does not exist. Entities are stored without
// their embedded job or invitation; the server embeds them on the way out.

type JobRepo interface {
	CreateJob(ctx context.Context, j *tdjobs.Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*tdjobs.Job, error)
	UpdateJob(ctx context.Context, j *tdjobs.Job) error
	ListJobs(ctx context.Context) ([]tdjobs.Job, error)
}

// OfferRow is a stored offer together with its creation time, which the
// offer itself does not expose.
type OfferRow struct {
	Offer   tdjobs.Offer
	Created time.Time
}

type OfferRepo interface {
	CreateOffer(ctx context.Context, o *tdjobs.Offer) (int64, error)
	GetOffer(ctx context.Context, id int64) (*tdjobs.Offer, error)
	UpdateOffer(ctx context.Context, o *tdjobs.Offer) error
	ListOffers(ctx context.Context) ([]OfferRow, error)
}

type InvitationRepo interface {
	CreateInvitation(ctx context.Context, inv *tdjobs.Invitation) (int64, error)
	GetInvitation(ctx context.Context, id int64) (*tdjobs.Invitation, error)
	UpdateInvitation(ctx context.Context, inv *tdjobs.Invitation) error
	ListInvitations(ctx context.Context) ([]tdjobs.Invitation, error)
}

// Store groups the three repositories.
type Store interface {
	JobRepo
	OfferRepo
	InvitationRepo
}
