package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, "", srv.Client()), srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetForcesParameters(t *testing.T) {
	var got map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		writeJSON(t, w, MoviePage{Page: 1})
	})

	_, err := c.Search(context.Background(), "fight club", 2)
	require.NoError(t, err)

	assert.Equal(t, "test-key", got["api_key"])
	assert.Equal(t, "false", got["include_adult"])
	assert.Equal(t, "en-US", got["language"], "default language applies")
	assert.Equal(t, "fight club", got["query"])
	assert.Equal(t, "2", got["page"])
}

func TestDiscoverLanguageOverride(t *testing.T) {
	var lang string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lang = r.URL.Query().Get("language")
		writeJSON(t, w, MoviePage{Page: 1})
	})

	_, err := c.Discover(context.Background(), DiscoverQuery{Language: "de-DE"})
	require.NoError(t, err)
	assert.Equal(t, "de-DE", lang)
}

func TestSearchFiltersAdultAndPosterless(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, MoviePage{
			Page: 1,
			Results: []MovieSummary{
				{ID: 1, Title: "Good", PosterPath: "/a.jpg"},
				{ID: 2, Title: "Adult", PosterPath: "/b.jpg", Adult: true},
				{ID: 3, Title: "No poster"},
				{ID: 4, Title: "Also good", PosterPath: "/c.jpg"},
			},
			TotalPages:   9,
			TotalResults: 170,
		})
	})

	p, err := c.Search(context.Background(), "good", 1)
	require.NoError(t, err)
	require.Len(t, p.Results, 2)
	assert.Equal(t, int64(1), p.Results[0].ID)
	assert.Equal(t, int64(4), p.Results[1].ID)
	assert.Equal(t, 2, p.TotalResults, "count reflects the filtered set")
	assert.Equal(t, 9, p.TotalPages, "page count passes through")
}

func TestDetailsNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"not found"}`, http.StatusNotFound)
	})

	_, err := c.Details(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestDetailsDecodes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		writeJSON(t, w, MovieDetails{ID: 550, Title: "Fight Club", Runtime: 139})
	})

	d, err := c.Details(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", d.Title)
	assert.Equal(t, 139, d.Runtime)
}

func TestSimilarTruncatesAndRecounts(t *testing.T) {
	results := make([]MovieSummary, 5)
	for i := range results {
		results[i] = MovieSummary{ID: int64(i + 1)}
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, MoviePage{Page: 1, Results: results, TotalPages: 40, TotalResults: 800})
	})

	p, err := c.Similar(context.Background(), 550, 2)
	require.NoError(t, err)
	assert.Len(t, p.Results, 2)
	assert.Equal(t, 2, p.TotalResults)
	assert.Equal(t, 1, p.TotalPages, "counters describe the truncated set")

	p, err = c.Similar(context.Background(), 550, 0)
	require.NoError(t, err)
	assert.Len(t, p.Results, 5, "default limit of 25 keeps all five")

	p, err = c.Similar(context.Background(), 550, 60)
	require.NoError(t, err)
	assert.Len(t, p.Results, 5, "limit clamps to 50")
}

func TestVideosKeepsOnlyYouTubeTrailers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"results": []Video{
			{ID: "1", Site: "YouTube", Type: "Trailer", Key: "abc"},
			{ID: "2", Site: "YouTube", Type: "Clip", Key: "def"},
			{ID: "3", Site: "Vimeo", Type: "Trailer", Key: "ghi"},
			{ID: "4", Site: "YouTube", Type: "Trailer", Key: "jkl"},
		}})
	})

	videos, err := c.Videos(context.Background(), 550)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "abc", videos[0].Key)
	assert.Equal(t, "jkl", videos[1].Key)
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Popular(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMovieNotFound)
}

func TestPageDefaultsToFirst(t *testing.T) {
	var page string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page = r.URL.Query().Get("page")
		writeJSON(t, w, MoviePage{Page: 1})
	})

	_, err := c.Popular(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, "1", page)
}
