// Package tdjobs is a client for the TDJobs marketplace REST API. It exposes
// the Job, Offer and Invitation resources as typed values plus the create,
// find, search and status transition operations the service offers.
package tdjobs

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

const (
	jobsPath        = "jobs"
	offersPath      = "offers"
	invitationsPath = "invitations"
)

// Client talks to a single TDJobs service. Each resource is reached through
// its service field; all three are bound to the same base URL and secret.
type Client struct {
	cfg    Config
	client *http.Client

	Jobs        *JobService
	Offers      *OfferService
	Invitations *InvitationService

	closed int32 // atomic flag for Close()
}

// NewClient creates a client bound to cfg. A nil httpClient gets a default
// client using cfg.Timeout. To point at another service build a new Client;
// a Client never changes its configuration.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	c := &Client{cfg: cfg, client: httpClient}
	c.Jobs = &JobService{res: c.resource(base, jobsPath)}
	c.Offers = &OfferService{res: c.resource(base, offersPath)}
	c.Invitations = &InvitationService{res: c.resource(base, invitationsPath)}
	c.Offers.jobs, c.Offers.invitations = c.Jobs, c.Invitations
	c.Invitations.jobs = c.Jobs

	logger.Info("tdjobs: NewClient created", slog.String("base_url", base), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

// NewDefaultClient creates a client with a tuned transport.
func NewDefaultClient(cfg Config) (*Client, error) {
	defaultClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

func (c *Client) resource(base, path string) resource {
	return resource{
		client:   c.client,
		endpoint: fmt.Sprintf("%s/%s", base, path),
		secret:   c.cfg.ApplicationSecret,
		timeout:  c.cfg.Timeout,
	}
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases idle connections held by the underlying transport. Close is
// idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
			logger.Info("tdjobs: client Close() called - CloseIdleConnections invoked")
		}
	}
	return nil
}

// package-level logger for pkg/tdjobs; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

// SetLogger sets the logger used by pkg/tdjobs. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
