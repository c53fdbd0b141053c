package content

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// FeedSource syndicates writing from an RSS or Atom feed (Medium, Dev.to, a
// personal blog). Each feed item becomes one Writing record.
type FeedSource struct {
	name     string
	url      string
	platform string
	client   *http.Client
	featured map[string]bool
	policy   *bluemonday.Policy
}

// FeedOption configures a FeedSource
type FeedOption func(*FeedSource)

// WithHTTPClient sets the client used to fetch the feed
func WithHTTPClient(c *http.Client) FeedOption {
	return func(s *FeedSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithPlatform overrides the platform name, which defaults to the feed title
func WithPlatform(platform string) FeedOption {
	return func(s *FeedSource) { s.platform = platform }
}

// WithFeatured marks items whose link or slug is listed as featured
func WithFeatured(keys ...string) FeedOption {
	return func(s *FeedSource) {
		for _, k := range keys {
			s.featured[k] = true
		}
	}
}

// NewFeedSource creates a writing source backed by the feed at url
func NewFeedSource(name, url string, opts ...FeedOption) *FeedSource {
	s := &FeedSource{
		name:     name,
		url:      url,
		client:   &http.Client{Timeout: 15 * time.Second},
		featured: make(map[string]bool),
		policy:   bluemonday.StrictPolicy(),
	}
	s.policy.AddSpaceWhenStrippingTag(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FeedSource) Name() string { return s.name }

// Load fetches and parses the feed
func (s *FeedSource) Load(ctx context.Context) ([]RawContent, error) {
	fp := gofeed.NewParser()
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", s.url, err)
	}

	platform := s.platform
	if platform == "" {
		platform = strings.TrimSpace(feed.Title)
	}

	out := make([]RawContent, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		out = append(out, s.toWriting(item, platform))
	}
	return out, nil
}

func (s *FeedSource) toWriting(item *gofeed.Item, platform string) *Writing {
	slug := Slugify(item.Title)
	if slug == "" {
		slug = Slugify(item.GUID)
	}

	w := &Writing{
		Slug:     slug,
		Title:    strings.TrimSpace(item.Title),
		Excerpt:  s.plainText(item.Description),
		Body:     s.plainText(item.Content),
		Tags:     append([]string(nil), item.Categories...),
		Platform: platform,
		URL:      item.Link,
		Featured: s.featured[item.Link] || s.featured[slug],
	}
	if item.PublishedParsed != nil {
		w.PublishedDate = item.PublishedParsed.UTC().Format("2006-01-02")
	} else {
		w.PublishedDate = item.Published
	}
	if w.Excerpt == "" && w.Body != "" {
		w.Excerpt = excerpt(w.Body, 280)
	}
	return w
}

// plainText strips all markup from feed HTML and collapses whitespace
func (s *FeedSource) plainText(markup string) string {
	if markup == "" {
		return ""
	}
	text := html.UnescapeString(s.policy.Sanitize(markup))
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
