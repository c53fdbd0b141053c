package content

import (
	"github.com/dshills/portfolio-search/pkg/types"
)

// RawContent is a record as stored by its source, before normalization.
// The variant set is closed: *Project, *Writing, *Experience, *Skill, *Profile.
type RawContent interface {
	Kind() types.RecordType
	sealed()
}

// Project is a portfolio project entry
type Project struct {
	Slug         string             `yaml:"slug"`
	Title        string             `yaml:"title"`
	Summary      string             `yaml:"summary"`
	Description  string             `yaml:"description"`
	Category     string             `yaml:"category"`
	Tags         []string           `yaml:"tags"`
	Technologies []types.Technology `yaml:"technologies"`
	Client       string             `yaml:"client"`
	Role         string             `yaml:"role"`
	Status       string             `yaml:"status"`
	Featured     bool               `yaml:"featured"`
	URL          string             `yaml:"url"`
}

// Writing is an article, either authored locally or syndicated from a platform
type Writing struct {
	Slug          string   `yaml:"slug"`
	Title         string   `yaml:"title"`
	Excerpt       string   `yaml:"excerpt"`
	Body          string   `yaml:"body"`
	Category      string   `yaml:"category"`
	Tags          []string `yaml:"tags"`
	PublishedDate string   `yaml:"publishedDate"`
	ReadTime      string   `yaml:"readTime"`
	Platform      string   `yaml:"platform"`
	Featured      bool     `yaml:"featured"`
	URL           string   `yaml:"url"`
}

// Experience is a position held at a company
type Experience struct {
	ID           string             `yaml:"id"`
	Company      string             `yaml:"company"`
	Role         string             `yaml:"role"`
	Summary      string             `yaml:"summary"`
	Highlights   []string           `yaml:"highlights"`
	StartDate    string             `yaml:"startDate"`
	EndDate      string             `yaml:"endDate"`
	Location     string             `yaml:"location"`
	Technologies []types.Technology `yaml:"technologies"`
}

// Skill is a named competency with related tools
type Skill struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Level    string   `yaml:"level"`
	Keywords []string `yaml:"keywords"`
	Tools    []string `yaml:"tools"`
}

// Profile is the site owner's profile
type Profile struct {
	Name        string   `yaml:"name"`
	Headline    string   `yaml:"headline"`
	Bio         string   `yaml:"bio"`
	Location    string   `yaml:"location"`
	Specialties []string `yaml:"specialties"`
}

func (*Project) Kind() types.RecordType    { return types.RecordProject }
func (*Writing) Kind() types.RecordType    { return types.RecordWriting }
func (*Experience) Kind() types.RecordType { return types.RecordExperience }
func (*Skill) Kind() types.RecordType      { return types.RecordSkill }
func (*Profile) Kind() types.RecordType    { return types.RecordProfile }

func (*Project) sealed()    {}
func (*Writing) sealed()    {}
func (*Experience) sealed() {}
func (*Skill) sealed()      {}
func (*Profile) sealed()    {}
