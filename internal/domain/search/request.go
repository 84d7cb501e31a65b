// Package search holds the search request and result shapes shared by the
// keyword, PDF and semantic search paths.
package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringOrList accepts either a JSON string or an array of strings. Clients
// send filter values both ways.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
			return nil
		}
		*s = StringOrList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*s = StringOrList(list)
	return nil
}

// Request is the body of a search call: free text plus optional field filters.
type Request struct {
	SearchText      string       `json:"search_text"`
	Programs        StringOrList `json:"programs,omitempty"`
	AgesStudied     StringOrList `json:"ages_studied,omitempty"`
	FocusPopulation string       `json:"focus_population,omitempty"`
	Domain          string       `json:"domain,omitempty"`
	Subdomain1      string       `json:"subdomain_1,omitempty"`
	Subdomain2      string       `json:"subdomain_2,omitempty"`
	Subdomain3      string       `json:"subdomain_3,omitempty"`
	ResourceType    string       `json:"resource_type,omitempty"`
	Topic           string       `json:"topic,omitempty"`
	Year            string       `json:"year,omitempty"`
	Status          string       `json:"Status,omitempty"`
	CFDANumber      string       `json:"CFDA_number,omitempty"`
	Summary         string       `json:"summary,omitempty"`
	Title           string       `json:"title,omitempty"`
	PublishedDate   string       `json:"published_date,omitempty"`
	ChangedDate     string       `json:"changed_date,omitempty"`
}

// HasFilters reports whether any field filter is set.
func (r *Request) HasFilters() bool {
	return len(r.Programs) > 0 ||
		len(r.AgesStudied) > 0 ||
		r.FocusPopulation != "" ||
		r.Domain != "" ||
		r.Subdomain1 != "" ||
		r.Subdomain2 != "" ||
		r.Subdomain3 != "" ||
		r.ResourceType != "" ||
		r.Topic != "" ||
		r.Year != "" ||
		r.Status != "" ||
		r.CFDANumber != "" ||
		r.Summary != "" ||
		r.Title != "" ||
		r.PublishedDate != "" ||
		r.ChangedDate != ""
}

// FilterString builds the OData $filter expression for the request. Collection
// fields use any() membership tests joined with "or"; scalar fields use plain
// equality. Clauses are joined with "and". Returns "" when no filter is set.
func (r *Request) FilterString() string {
	var clauses []string

	if f := collectionClause("programs", "p", r.Programs); f != "" {
		clauses = append(clauses, f)
	}
	if f := collectionClause("ages_studied", "a", r.AgesStudied); f != "" {
		clauses = append(clauses, f)
	}
	if r.FocusPopulation != "" {
		clauses = append(clauses, fmt.Sprintf("(focus_population/any(f: f eq '%s'))", escapeODataString(r.FocusPopulation)))
	}

	scalars := []struct {
		field string
		value string
	}{
		{"domain", r.Domain},
		{"subdomain_1", r.Subdomain1},
		{"subdomain_2", r.Subdomain2},
		{"subdomain_3", r.Subdomain3},
		{"resource_type", r.ResourceType},
		{"topic", r.Topic},
		{"year", r.Year},
		{"Status", r.Status},
		{"CFDA_number", r.CFDANumber},
		{"title", r.Title},
		{"published_date", r.PublishedDate},
		{"changed_date", r.ChangedDate},
	}
	for _, s := range scalars {
		if s.value != "" {
			clauses = append(clauses, fmt.Sprintf("%s eq '%s'", s.field, escapeODataString(s.value)))
		}
	}

	return strings.Join(clauses, " and ")
}

func collectionClause(field, variable string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s/any(%s: %s eq '%s')", field, variable, variable, escapeODataString(v)))
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// escapeODataString doubles single quotes, the OData string-literal escape.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
