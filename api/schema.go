package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

const dateProp = `{"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}"}`

var (
	jobProps = `{
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 1},
		"owner_id": {"type": "string", "minLength": 1},
		"due_date": ` + dateProp + `,
		"invitation_only": {"type": "boolean"},
		"metadata": {"type": "object"},
		"start_date": ` + dateProp + `,
		"finish_date": ` + dateProp + `
	}`

	createJobSchema = `{
		"type": "object",
		"required": ["name", "description", "owner_id", "start_date", "finish_date"],
		"properties": ` + jobProps + `
	}`

	updateJobSchema = `{
		"type": "object",
		"properties": ` + jobProps + `
	}`

	createOfferSchema = `{
		"type": "object",
		"required": ["job_id", "provider_id"],
		"properties": {
			"job_id": {"type": "integer", "minimum": 1},
			"invitation_id": {"type": "integer", "minimum": 1},
			"provider_id": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"metadata": {"type": "object"}
		}
	}`

	offerReasonSchema = `{
		"type": "object",
		"properties": {
			"reason": {"type": "string"},
			"metadata": {"type": "object"}
		}
	}`

	createInvitationSchema = `{
		"type": "object",
		"required": ["job_id", "provider_id"],
		"properties": {
			"job_id": {"type": "integer", "minimum": 1},
			"provider_id": {"type": "string", "minLength": 1},
			"description": {"type": "string"}
		}
	}`
)

// schemaSet holds the compiled payload schemas.
type schemaSet struct {
	createJob        *jsonschema.Schema
	updateJob        *jsonschema.Schema
	createOffer      *jsonschema.Schema
	offerReason      *jsonschema.Schema
	createInvitation *jsonschema.Schema
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(src), rs); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return rs, nil
}

func newSchemaSet() (*schemaSet, error) {
	var (
		s   schemaSet
		err error
	)
	if s.createJob, err = compileSchema("create_job", createJobSchema); err != nil {
		return nil, err
	}
	if s.updateJob, err = compileSchema("update_job", updateJobSchema); err != nil {
		return nil, err
	}
	if s.createOffer, err = compileSchema("create_offer", createOfferSchema); err != nil {
		return nil, err
	}
	if s.offerReason, err = compileSchema("offer_reason", offerReasonSchema); err != nil {
		return nil, err
	}
	if s.createInvitation, err = compileSchema("create_invitation", createInvitationSchema); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate checks body against schema and returns a readable message of
// every violation, or "" when body is valid. An empty body counts as {}.
func validate(ctx context.Context, schema *jsonschema.Schema, body []byte) (string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return "body is not valid JSON", nil
	}
	verrs, err := schema.ValidateBytes(ctx, body)
	if err != nil {
		return "", fmt.Errorf("schema validate error: %w", err)
	}
	if len(verrs) == 0 {
		return "", nil
	}
	msgs := make([]string, 0, len(verrs))
	for _, v := range verrs {
		if v.PropertyPath != "" && v.PropertyPath != "/" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.TrimPrefix(v.PropertyPath, "/"), v.Message))
			continue
		}
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; "), nil
}
