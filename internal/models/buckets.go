package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Buckets maps genre labels to counts in the order the backend emitted them.
//
// Go maps do not keep insertion order, so the JSON object is read token by token.
// A repeated key keeps its first position and takes the last value. null is a no-op.
type Buckets []GenreCount

// Get returns the count for genre.
func (b Buckets) Get(genre string) (int, bool) {
	for _, g := range b {
		if g.Genre == genre {
			return g.Count, true
		}
	}
	return 0, false
}

func (b Buckets) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Genre)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(g.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *Buckets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("buckets: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("buckets: expected object, got %v", tok)
	}

	out := Buckets{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("buckets: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("buckets: expected string key, got %v", tok)
		}

		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("buckets: value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			out[i].Count = count
			continue
		}
		index[key] = len(out)
		out = append(out, GenreCount{Genre: key, Count: count})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("buckets: %w", err)
	}

	*b = out
	return nil
}
