package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawContent
		check func(t *testing.T, rec types.SearchableRecord)
	}{
		{
			name: "Project",
			raw: &Project{
				Title:        "Payment Gateway",
				Summary:      "A card processing gateway.",
				Category:     "Backend",
				Tags:         []string{" payments ", "", "fintech"},
				Technologies: []types.Technology{{Name: "Go", Category: "language"}, {Name: " "}},
				Client:       "Acme",
				Role:         "Lead Engineer",
				Featured:     true,
			},
			check: func(t *testing.T, rec types.SearchableRecord) {
				assert.Equal(t, "payment-gateway", rec.ID)
				assert.Equal(t, types.RecordProject, rec.Type)
				assert.Equal(t, "/projects/payment-gateway", rec.URL)
				assert.Equal(t, []string{"payments", "fintech"}, rec.Tags)
				assert.Equal(t, []types.Technology{{Name: "Go", Category: "language"}}, rec.Technologies)
				assert.Equal(t, "Acme", rec.Metadata.Client)
				assert.Equal(t, "Lead Engineer", rec.Metadata.Role)
				assert.True(t, rec.Metadata.Featured)
			},
		},
		{
			name: "WritingWithBody",
			raw: &Writing{
				Slug:     "payments",
				Title:    "Building Scalable Payment Systems",
				Body:     "Idempotency keys make retries safe.",
				Platform: "Medium",
				URL:      "https://medium.com/@me/payments",
			},
			check: func(t *testing.T, rec types.SearchableRecord) {
				assert.Equal(t, "payments", rec.ID)
				assert.Equal(t, "Idempotency keys make retries safe.", rec.Description)
				assert.Equal(t, "1 min read", rec.Metadata.ReadTime)
				assert.Equal(t, "Medium", rec.Metadata.Platform)
				assert.Equal(t, "https://medium.com/@me/payments", rec.URL)
			},
		},
		{
			name: "Experience",
			raw: &Experience{
				Company:    "Globex",
				Role:       "Staff Engineer",
				Summary:    "Owned the billing platform.",
				Highlights: []string{"Cut costs 30%."},
				StartDate:  "2021-03",
			},
			check: func(t *testing.T, rec types.SearchableRecord) {
				assert.Equal(t, "Staff Engineer at Globex", rec.Title)
				assert.Equal(t, "globex-staff-engineer", rec.ID)
				assert.Equal(t, "Owned the billing platform. Cut costs 30%.", rec.Description)
				assert.Equal(t, "Present", rec.Metadata.EndDate)
				assert.Equal(t, "Globex", rec.Metadata.Client)
			},
		},
		{
			name: "Skill",
			raw:  &Skill{Name: "Kubernetes", Category: "Infrastructure", Level: "Advanced", Tools: []string{"Helm", "Kustomize"}},
			check: func(t *testing.T, rec types.SearchableRecord) {
				assert.Equal(t, "kubernetes", rec.ID)
				assert.Equal(t, "Infrastructure", rec.Category)
				assert.Equal(t, []string{"Helm", "Kustomize"}, rec.TechnologyNames())
				assert.Equal(t, "Advanced infrastructure", rec.Description)
			},
		},
		{
			name: "Profile",
			raw:  &Profile{Name: "Jane Doe", Headline: "Backend engineer", Bio: "Builds payment systems.", Specialties: []string{"Go"}},
			check: func(t *testing.T, rec types.SearchableRecord) {
				assert.Equal(t, "jane-doe", rec.ID)
				assert.Equal(t, "Backend engineer Builds payment systems.", rec.Description)
				assert.Equal(t, "/about", rec.URL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize("test", tt.raw)
			require.NoError(t, err)
			tt.check(t, rec)
		})
	}
}

func TestNormalizeInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  RawContent
	}{
		{name: "MissingTitle", raw: &Project{Slug: "x"}},
		{name: "NoIdentity", raw: &Writing{}},
		{name: "EmptyExperience", raw: &Experience{ID: "e1"}},
		{name: "Nil", raw: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("src", tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidRecord))

			var rve *types.RecordValidationError
			require.ErrorAs(t, err, &rve)
			assert.Equal(t, "src", rve.Source)
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "aws-cost-optimization", Slugify("AWS Cost Optimization!"))
	assert.Equal(t, "c-go", Slugify("  C++ & Go "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestEstimateReadTime(t *testing.T) {
	assert.Equal(t, "1 min read", EstimateReadTime("short"))
	body := ""
	for i := 0; i < 401; i++ {
		body += "word "
	}
	assert.Equal(t, "3 min read", EstimateReadTime(body))
}
