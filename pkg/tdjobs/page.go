package tdjobs

import (
	"encoding/json"
	"fmt"
)

// Page is the paginated search envelope. Items holds the entities the server
// listed under the resource key ("jobs", "offers" or "invitations"); a Page
// itself encodes them as items.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	Items       []T `json:"items"`
}

func decodePage[T any](body []byte, key string) (*Page[T], error) {
	var p Page[T]
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	p.Items = nil

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	items, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("missing %q in pagination envelope", key)
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, err
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return &p, nil
}

// paginate adds the page and per_page parameters, skipping non-positive values.
func paginate(q Query, page, perPage int) Query {
	out := make(Query, len(q)+2)
	for k, v := range q {
		out[k] = v
	}
	if page > 0 {
		out["page"] = page
	}
	if perPage > 0 {
		out["per_page"] = perPage
	}
	return out
}
