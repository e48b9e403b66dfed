package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenreList is an ordered list of genre tags.
//
// It decodes from a JSON array, a comma-separated string or null, so every
// legacy shape of the genre field is resolved here and nowhere else.
type GenreList []string

// ParseGenres splits a comma-separated genre string.
func ParseGenres(s string) GenreList {
	var out GenreList
	for _, part := range strings.Split(s, ",") {
		if g := strings.TrimSpace(part); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// MarshalJSON writes a nil list as [].
func (g GenreList) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(g))
}

func (g *GenreList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := GenreList{}
		for _, item := range list {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		*g = out
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("genre list: expected array or string: %w", err)
	}
	*g = ParseGenres(single)
	return nil
}

// Set returns the distinct genres.
func (g GenreList) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(g))
	for _, genre := range g {
		set[genre] = struct{}{}
	}
	return set
}
