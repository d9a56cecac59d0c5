package tdjobs

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Query holds search filters. Nested maps and slices are encoded the way
// Rails parses them, e.g.
//
//	Query{"metadata": map[string]any{"price": map[string]any{"lt": 2.25}}}
//
// becomes metadata[price][lt]=2.25 and
//
//	Query{"status": map[string]any{"in": []string{"CREATED", "ACTIVE"}}}
//
// becomes status[in][]=CREATED&status[in][]=ACTIVE.
type Query map[string]any

// Values flattens the query into url.Values.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, k := range sortedKeys(q) {
		appendValue(v, k, q[k])
	}
	return v
}

// Encode returns the query in URL encoded form, sorted by key.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// With returns a copy of q with key set to value.
func (q Query) With(key string, value any) Query {
	out := make(Query, len(q)+1)
	for k, v := range q {
		out[k] = v
	}
	out[key] = value
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendValue(v url.Values, key string, value any) {
	switch x := value.(type) {
	case nil:
		return
	case Query:
		appendMap(v, key, map[string]any(x))
		return
	case map[string]any:
		appendMap(v, key, x)
		return
	case string:
		v.Add(key, x)
		return
	case []byte:
		v.Add(key, string(x))
		return
	case bool:
		v.Add(key, strconv.FormatBool(x))
		return
	case float64:
		v.Add(key, strconv.FormatFloat(x, 'f', -1, 64))
		return
	case float32:
		v.Add(key, strconv.FormatFloat(float64(x), 'f', -1, 32))
		return
	case time.Time:
		v.Add(key, x.Format(time.RFC3339))
		return
	case Date:
		v.Add(key, x.String())
		return
	case *Date:
		if x != nil {
			v.Add(key, x.String())
		}
		return
	case fmt.Stringer:
		v.Add(key, x.String())
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if !rv.IsNil() {
			appendValue(v, key, rv.Elem().Interface())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			appendValue(v, key+"[]", rv.Index(i).Interface())
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			v.Add(key, fmt.Sprint(value))
			return
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		appendMap(v, key, m)
	default:
		v.Add(key, fmt.Sprint(value))
	}
}

func appendMap(v url.Values, key string, m map[string]any) {
	for _, k := range sortedKeys(m) {
		appendValue(v, key+"["+k+"]", m[k])
	}
}
