// Command tdjobs calls the TDJobs service from the command line and prints
// the results as JSON.
//
//	tdjobs [-config file] <jobs|offers|invitations> <action> [args]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/talosdigital/tdjobs/internal/config"
	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

const usage = `usage: tdjobs [-config file] <resource> <action> [args]

resources and actions:
  jobs         create <json> | find <id> | search [json] | page <n> <per> [json]
               update <id> <json> | activate|deactivate|close|start|finish <id>
  offers       create <json> | find <id> | search [json] | page <n> <per> [json]
               send|withdraw|accept|reject <id> | resend <id> <reason> [metadata]
               return <id> <reason>
  invitations  create <json> | find <id> | search [json] | page <n> <per> [json]
               send|withdraw|accept|reject <id>
`

var errUsage = errors.New("invalid arguments")

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdjobs: load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tdjobs: %v\n", err)
		os.Exit(1)
	}
	if level, _ := cfg.Level(); level < slog.LevelInfo {
		tdjobs.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	client, err := tdjobs.NewDefaultClient(cfg.Client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdjobs: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := run(context.Background(), client, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tdjobs: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run dispatches one command and writes its result to out.
func run(ctx context.Context, c *tdjobs.Client, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	var (
		result any
		err    error
	)
	switch args[0] {
	case "jobs":
		result, err = runJobs(ctx, c.Jobs, args[1], args[2:])
	case "offers":
		result, err = runOffers(ctx, c.Offers, args[1], args[2:])
	case "invitations":
		result, err = runInvitations(ctx, c.Invitations, args[1], args[2:])
	default:
		return fmt.Errorf("%w: unknown resource %q", errUsage, args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runJobs(ctx context.Context, s *tdjobs.JobService, action string, args []string) (any, error) {
	switch action {
	case "create":
		var j tdjobs.Job
		if err := argJSON(args, 0, &j); err != nil {
			return nil, err
		}
		return s.Create(ctx, j)
	case "find":
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Find(ctx, id)
	case "search":
		q, err := optQuery(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Search(ctx, q)
	case "page":
		page, perPage, q, err := pageArgs(args)
		if err != nil {
			return nil, err
		}
		return s.PaginatedSearch(ctx, q, page, perPage)
	case "update":
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		var j tdjobs.Job
		if err := argJSON(args, 1, &j); err != nil {
			return nil, err
		}
		return s.Update(ctx, id, j)
	case tdjobs.JobActivate, tdjobs.JobDeactivate, tdjobs.JobClose, tdjobs.JobStart, tdjobs.JobFinish:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.StatusRequest(ctx, id, action)
	}
	return nil, fmt.Errorf("%w: unknown jobs action %q", errUsage, action)
}

func runOffers(ctx context.Context, s *tdjobs.OfferService, action string, args []string) (any, error) {
	switch action {
	case "create":
		var o tdjobs.Offer
		if err := argJSON(args, 0, &o); err != nil {
			return nil, err
		}
		return s.Create(ctx, o)
	case "find":
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Find(ctx, id)
	case "search":
		q, err := optQuery(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Search(ctx, q)
	case "page":
		page, perPage, q, err := pageArgs(args)
		if err != nil {
			return nil, err
		}
		return s.PaginatedSearch(ctx, q, page, perPage)
	case tdjobs.OfferResend:
		id, reason, err := idReason(args)
		if err != nil {
			return nil, err
		}
		params := tdjobs.ResendParams{Reason: reason}
		if len(args) > 2 {
			if err := argJSON(args, 2, &params.Metadata); err != nil {
				return nil, err
			}
		}
		return s.Resend(ctx, id, params)
	case tdjobs.OfferReturn:
		id, reason, err := idReason(args)
		if err != nil {
			return nil, err
		}
		return s.Return(ctx, id, tdjobs.ReturnParams{Reason: reason})
	case tdjobs.OfferSend, tdjobs.OfferWithdraw, tdjobs.OfferAccept, tdjobs.OfferReject:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.StatusRequest(ctx, id, action, nil)
	}
	return nil, fmt.Errorf("%w: unknown offers action %q", errUsage, action)
}

func runInvitations(ctx context.Context, s *tdjobs.InvitationService, action string, args []string) (any, error) {
	switch action {
	case "create":
		var inv tdjobs.Invitation
		if err := argJSON(args, 0, &inv); err != nil {
			return nil, err
		}
		return s.Create(ctx, inv)
	case "find":
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Find(ctx, id)
	case "search":
		q, err := optQuery(args, 0)
		if err != nil {
			return nil, err
		}
		return s.Search(ctx, q)
	case "page":
		page, perPage, q, err := pageArgs(args)
		if err != nil {
			return nil, err
		}
		return s.PaginatedSearch(ctx, q, page, perPage)
	case tdjobs.InvitationSend, tdjobs.InvitationWithdraw, tdjobs.InvitationAccept, tdjobs.InvitationReject:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		return s.StatusRequest(ctx, id, action)
	}
	return nil, fmt.Errorf("%w: unknown invitations action %q", errUsage, action)
}

func arg(args []string, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", errUsage, i+1)
	}
	return args[i], nil
}

func argJSON(args []string, i int, v any) error {
	raw, err := arg(args, i)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: argument %d is not valid JSON: %v", errUsage, i+1, err)
	}
	return nil
}

func optQuery(args []string, i int) (tdjobs.Query, error) {
	q := tdjobs.Query{}
	if i >= len(args) {
		return q, nil
	}
	if err := argJSON(args, i, &q); err != nil {
		return nil, err
	}
	return q, nil
}

func pageArgs(args []string) (int, int, tdjobs.Query, error) {
	if len(args) < 2 {
		return 0, 0, nil, fmt.Errorf("%w: page needs <n> <per>", errUsage)
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: page must be a number", errUsage)
	}
	perPage, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: per page must be a number", errUsage)
	}
	q, err := optQuery(args, 2)
	return page, perPage, q, err
}

func idReason(args []string) (string, string, error) {
	id, err := arg(args, 0)
	if err != nil {
		return "", "", err
	}
	reason, err := arg(args, 1)
	return id, reason, err
}
