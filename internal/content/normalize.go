package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/portfolio-search/pkg/types"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every non-alphanumeric run into "-"
func Slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// Normalize converts one raw record into a SearchableRecord. It is the only
// place raw source shapes are interpreted. The returned error is always a
// *types.RecordValidationError.
func Normalize(source string, raw RawContent) (types.SearchableRecord, error) {
	var rec types.SearchableRecord

	switch c := raw.(type) {
	case *Project:
		rec = normalizeProject(c)
	case *Writing:
		rec = normalizeWriting(c)
	case *Experience:
		rec = normalizeExperience(c)
	case *Skill:
		rec = normalizeSkill(c)
	case *Profile:
		rec = normalizeProfile(c)
	default:
		return rec, &types.RecordValidationError{
			Source: source,
			Reason: fmt.Sprintf("unsupported content %T", raw),
		}
	}

	rec.Tags = cleanList(rec.Tags)
	rec.Technologies = cleanTechnologies(rec.Technologies)

	if err := rec.Validate(); err != nil {
		var rve *types.RecordValidationError
		if errors.As(err, &rve) {
			rve.Source = source
			return rec, rve
		}
		return rec, err
	}
	return rec, nil
}

func normalizeProject(p *Project) types.SearchableRecord {
	id := firstNonEmpty(p.Slug, Slugify(p.Title))
	url := p.URL
	if url == "" && id != "" {
		url = "/projects/" + id
	}
	return types.SearchableRecord{
		ID:           id,
		Type:         types.RecordProject,
		Title:        strings.TrimSpace(p.Title),
		Description:  joinText(p.Summary, p.Description),
		Category:     strings.TrimSpace(p.Category),
		Tags:         p.Tags,
		Technologies: p.Technologies,
		Metadata: types.Metadata{
			Client:   p.Client,
			Role:     p.Role,
			Status:   p.Status,
			Featured: p.Featured,
		},
		URL: url,
	}
}

func normalizeWriting(w *Writing) types.SearchableRecord {
	id := firstNonEmpty(w.Slug, Slugify(w.Title))
	url := w.URL
	if url == "" && id != "" {
		url = "/writing/" + id
	}
	description := w.Excerpt
	if description == "" {
		description = excerpt(w.Body, 280)
	}
	readTime := w.ReadTime
	if readTime == "" && w.Body != "" {
		readTime = EstimateReadTime(w.Body)
	}
	return types.SearchableRecord{
		ID:          id,
		Type:        types.RecordWriting,
		Title:       strings.TrimSpace(w.Title),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(w.Category),
		Tags:        w.Tags,
		Metadata: types.Metadata{
			PublishedDate: w.PublishedDate,
			ReadTime:      readTime,
			Platform:      w.Platform,
			Featured:      w.Featured,
		},
		URL: url,
	}
}

func normalizeExperience(e *Experience) types.SearchableRecord {
	title := strings.TrimSpace(e.Role)
	if e.Company != "" {
		if title == "" {
			title = e.Company
		} else {
			title = title + " at " + e.Company
		}
	}
	id := firstNonEmpty(e.ID, Slugify(e.Company+" "+e.Role))
	endDate := e.EndDate
	if endDate == "" {
		endDate = "Present"
	}
	return types.SearchableRecord{
		ID:           id,
		Type:         types.RecordExperience,
		Title:        title,
		Description:  joinText(append([]string{e.Summary}, e.Highlights...)...),
		Technologies: e.Technologies,
		Metadata: types.Metadata{
			Client:    e.Company,
			Role:      e.Role,
			StartDate: e.StartDate,
			EndDate:   endDate,
		},
		URL: "/experience#" + id,
	}
}

func normalizeSkill(s *Skill) types.SearchableRecord {
	id := firstNonEmpty(s.ID, Slugify(s.Name))
	techs := make([]types.Technology, 0, len(s.Tools))
	for _, tool := range s.Tools {
		techs = append(techs, types.Technology{Name: tool, Category: s.Category})
	}
	description := s.Level
	if description != "" {
		description = s.Level + " " + strings.ToLower(firstNonEmpty(s.Category, "skill"))
	}
	return types.SearchableRecord{
		ID:           id,
		Type:         types.RecordSkill,
		Title:        strings.TrimSpace(s.Name),
		Description:  description,
		Category:     strings.TrimSpace(s.Category),
		Tags:         s.Keywords,
		Technologies: techs,
		URL:          "/skills#" + id,
	}
}

func normalizeProfile(p *Profile) types.SearchableRecord {
	return types.SearchableRecord{
		ID:          firstNonEmpty(Slugify(p.Name), "profile"),
		Type:        types.RecordProfile,
		Title:       strings.TrimSpace(p.Name),
		Description: joinText(p.Headline, p.Bio),
		Tags:        p.Specialties,
		URL:         "/about",
	}
}

// EstimateReadTime returns "N min read" at 200 words per minute
func EstimateReadTime(body string) string {
	words := len(strings.Fields(body))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

func excerpt(body string, max int) string {
	text := strings.Join(strings.Fields(body), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// cleanList trims entries and drops empties, keeping order
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func cleanTechnologies(techs []types.Technology) []types.Technology {
	out := make([]types.Technology, 0, len(techs))
	for _, t := range techs {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
