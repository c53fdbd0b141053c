package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Jane on Medium</title>
  <link>https://medium.com/@jane</link>
  <description>Stories by Jane</description>
  <item>
    <title>Building Scalable Payment Systems</title>
    <link>https://medium.com/@jane/payments</link>
    <guid>https://medium.com/p/1</guid>
    <category>payments</category>
    <category>distributed-systems</category>
    <pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate>
    <description><![CDATA[<p>How we handled <b>10k</b> TPS &amp; stayed sane.</p>]]></description>
    <content:encoded><![CDATA[<h1>Intro</h1><p>Idempotency keys   make retries safe.</p>]]></content:encoded>
  </item>
  <item>
    <title>Notes on Go Generics</title>
    <link>https://medium.com/@jane/generics</link>
    <guid>https://medium.com/p/2</guid>
  </item>
</channel>
</rss>`

func TestFeedSourceLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	src := NewFeedSource("medium", srv.URL,
		WithHTTPClient(srv.Client()),
		WithFeatured("https://medium.com/@jane/payments"),
	)
	assert.Equal(t, "medium", src.Name())

	raw, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 2)

	w := raw[0].(*Writing)
	assert.Equal(t, "building-scalable-payment-systems", w.Slug)
	assert.Equal(t, "Building Scalable Payment Systems", w.Title)
	assert.Equal(t, "How we handled 10k TPS & stayed sane.", w.Excerpt)
	assert.Equal(t, "Intro Idempotency keys make retries safe.", w.Body)
	assert.Equal(t, []string{"payments", "distributed-systems"}, w.Tags)
	assert.Equal(t, "2024-01-02", w.PublishedDate)
	assert.Equal(t, "Jane on Medium", w.Platform)
	assert.True(t, w.Featured)

	second := raw[1].(*Writing)
	assert.False(t, second.Featured)
	assert.Empty(t, second.Excerpt)

	rec, err := Normalize("medium", second)
	require.NoError(t, err)
	assert.Equal(t, "https://medium.com/@jane/generics", rec.URL)
}

func TestFeedSourcePlatformOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	raw, err := NewFeedSource("medium", srv.URL, WithPlatform("Medium")).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Medium", raw[0].(*Writing).Platform)
}

func TestFeedSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewFeedSource("medium", srv.URL).Load(context.Background())
	assert.Error(t, err)
}
