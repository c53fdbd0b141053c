package types

import (
	"fmt"
	"strings"
)

// RecordType is the discriminant of a SearchableRecord
type RecordType string

const (
	RecordProject    RecordType = "project"
	RecordWriting    RecordType = "writing"
	RecordExperience RecordType = "experience"
	RecordSkill      RecordType = "skill"
	RecordProfile    RecordType = "profile"
)

// AllRecordTypes returns every record type in display order
func AllRecordTypes() []RecordType {
	return []RecordType{RecordProject, RecordWriting, RecordExperience, RecordSkill, RecordProfile}
}

// Valid reports whether t is one of the known record types
func (t RecordType) Valid() bool {
	switch t {
	case RecordProject, RecordWriting, RecordExperience, RecordSkill, RecordProfile:
		return true
	}
	return false
}

// ParseRecordType parses a record type case-insensitively
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown record type %q", s)
	}
	return t, nil
}

// Technology is a named tool or language attached to a record
type Technology struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Metadata holds optional fields whose presence depends on the record type
type Metadata struct {
	PublishedDate string `json:"publishedDate,omitempty"`
	ReadTime      string `json:"readTime,omitempty"`
	Client        string `json:"client,omitempty"`
	Role          string `json:"role,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Featured      bool   `json:"featured,omitempty"`
	Status        string `json:"status,omitempty"`
}

// SearchableRecord is the normalized unit indexed and returned by search
type SearchableRecord struct {
	ID           string       `json:"id"`
	Type         RecordType   `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category,omitempty"`
	Tags         []string     `json:"tags"`
	Technologies []Technology `json:"technologies"`
	Metadata     Metadata     `json:"metadata"`
	URL          string       `json:"url,omitempty"`
}

// Key returns the identity of the record across types
func (r *SearchableRecord) Key() string {
	return string(r.Type) + ":" + r.ID
}

// Validate checks that the record can be indexed
func (r *SearchableRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &RecordValidationError{Source: string(r.Type), Reason: "id is required"}
	}
	if !r.Type.Valid() {
		return &RecordValidationError{Source: string(r.Type), ID: r.ID, Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}
	if strings.TrimSpace(r.Title) == "" {
		return &RecordValidationError{Source: string(r.Type), ID: r.ID, Reason: "title is required"}
	}
	return nil
}

// Clone returns a deep copy so index snapshots never share slices with callers
func (r SearchableRecord) Clone() SearchableRecord {
	dst := r
	if r.Tags != nil {
		dst.Tags = append([]string(nil), r.Tags...)
	}
	if r.Technologies != nil {
		dst.Technologies = append([]Technology(nil), r.Technologies...)
	}
	return dst
}

// TechnologyNames returns the technology names in order
func (r *SearchableRecord) TechnologyNames() []string {
	names := make([]string, len(r.Technologies))
	for i, t := range r.Technologies {
		names[i] = t.Name
	}
	return names
}
