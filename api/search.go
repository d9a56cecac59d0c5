package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const defaultPerPage = 10

// parseNested turns Rails style parameters (a[b][c]=1, a[]=x) into nested
// maps and slices.
func parseNested(values url.Values) map[string]any {
	out := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segs := splitKey(key)
		for _, v := range values[key] {
			assign(out, segs, v)
		}
	}
	return out
}

func splitKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i < 0 {
		return []string{key}
	}
	segs := []string{key[:i]}
	rest := key[i:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs
}

func assign(m map[string]any, segs []string, value string) {
	head := segs[0]
	if len(segs) == 1 {
		m[head] = value
		return
	}
	if segs[1] == "" {
		list, _ := m[head].([]any)
		m[head] = append(list, value)
		return
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[head] = child
	}
	assign(child, segs[1:], value)
}

var modifiers = map[string]bool{"gt": true, "lt": true, "geq": true, "leq": true, "like": true, "in": true}

// toDoc converts an entity into the generic form filters are applied to.
func toDoc(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matchAll reports whether doc satisfies every filter.
func matchAll(doc map[string]any, filters map[string]any) bool {
	for field, cond := range filters {
		if !matchValue(doc[field], cond) {
			return false
		}
	}
	return true
}

// matchValue applies one filter. A scalar condition means equality, a list
// means membership, a map either holds modifiers or filters a nested object
// such as metadata.
func matchValue(value any, cond any) bool {
	switch c := cond.(type) {
	case []any:
		return matchIn(value, c)
	case map[string]any:
		for k, v := range c {
			if !modifiers[k] {
				nested, ok := value.(map[string]any)
				if !ok || !matchValue(nested[k], v) {
					return false
				}
				continue
			}
			if !applyModifier(value, k, v) {
				return false
			}
		}
		return true
	default:
		return equal(value, c)
	}
}

func applyModifier(value any, mod string, arg any) bool {
	if value == nil {
		return false
	}
	switch mod {
	case "in":
		switch list := arg.(type) {
		case []any:
			return matchIn(value, list)
		default:
			return equal(value, arg)
		}
	case "like":
		return strings.Contains(strings.ToLower(scalar(value)), strings.ToLower(scalar(arg)))
	}

	cmp := compare(value, arg)
	switch mod {
	case "gt":
		return cmp > 0
	case "lt":
		return cmp < 0
	case "geq":
		return cmp >= 0
	case "leq":
		return cmp <= 0
	}
	return false
}

func matchIn(value any, list []any) bool {
	for _, item := range list {
		if equal(value, item) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil {
		return false
	}
	return compare(a, b) == 0
}

// compare orders numerically when both sides are numbers and as strings otherwise.
func compare(a, b any) int {
	as, bs := scalar(a), scalar(b)
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(as, bs)
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// pagination reads page and per_page from the top-level parameters.
func pagination(values url.Values) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	if v := values.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if v := values.Get("per_page"); v != "" {
		if perPage, err = strconv.Atoi(v); err != nil || perPage < 1 {
			return 0, 0, fmt.Errorf("per_page must be a positive integer")
		}
	}
	return page, perPage, nil
}

// paginate slices items into the envelope the client expects, with the
// item list stored under key.
func paginate[T any](items []T, page, perPage int, key string) map[string]any {
	total := len(items)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return map[string]any{
		"current_page": page,
		"total_pages":  totalPages,
		"total_items":  total,
		key:            items[start:end],
	}
}

// checkKeys rejects filters outside allowed.
func checkKeys(filters map[string]any, allowed map[string]bool) error {
	for k := range filters {
		if !allowed[k] {
			return fmt.Errorf("invalid filter %q", k)
		}
	}
	return nil
}
