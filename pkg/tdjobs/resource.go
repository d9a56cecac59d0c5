package tdjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SecretHeader carries the application secret on every request.
	SecretHeader = "Application-Secret"
	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	maxErrorBody = 4096
)

// resource performs requests against {base_url}/{resource_path}.
type resource struct {
	client   *http.Client
	endpoint string
	secret   string
	timeout  time.Duration
}

type response struct {
	status int
	body   []byte
}

// errorMessage extracts the "error" field the server puts in failure bodies,
// falling back to the raw body text.
func (r *response) errorMessage() string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(r.body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

func (r resource) do(ctx context.Context, method, path string, query Query, body any) (*response, error) {
	u := r.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("tdjobs: encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("tdjobs: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SecretHeader, r.secret)
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tdjobs: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tdjobs: read response: %w", err)
	}

	logger.Debug("tdjobs: request",
		slog.String("method", method),
		slog.String("url", r.endpoint+path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
		slog.String("request_id", reqID),
	)

	return &response{status: resp.StatusCode, body: b}, nil
}

// call performs one round trip, maps a non-2xx status through errs and
// decodes a successful body into out (when out is non-nil).
func (r resource) call(ctx context.Context, method, path string, query Query, body any, errs statusMap, out any) error {
	resp, err := r.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status >= 300 {
		return errs.classify(resp.status, resp.errorMessage())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("tdjobs: decode %s %s: %w", method, path, err)
	}
	return nil
}

// fetchPage performs a paginated search and decodes the envelope whose item list
// lives under key.
func fetchPage[T any](ctx context.Context, r resource, path string, query Query, key string) (*Page[T], error) {
	resp, err := r.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, searchErrors.classify(resp.status, resp.errorMessage())
	}
	p, err := decodePage[T](resp.body, key)
	if err != nil {
		return nil, fmt.Errorf("tdjobs: decode GET %s: %w", path, err)
	}
	return p, nil
}

func idPath(id int64, action string) string {
	if action == "" {
		return "/" + strconv.FormatInt(id, 10)
	}
	return "/" + strconv.FormatInt(id, 10) + "/" + action
}

// ValidID reports whether id is an integer: any Go integer value, an
// integral float, a json.Number or a string holding a base-10 integer.
func ValidID(id any) bool {
	_, ok := intID(id)
	return ok
}

// ParseID converts id to an int64, returning a WrongAttributes error when
// ValidID would report false.
func ParseID(id any) (int64, error) {
	n, ok := intID(id)
	if !ok {
		return 0, newError(ErrWrongAttributes, 0, "id has to be an integer.")
	}
	return n, nil
}

func intID(id any) (int64, bool) {
	switch v := id.(type) {
	case nil:
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}

	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
