// Package tmdb implements a thin client for The Movie Database
// HTTP API. It forwards requests mostly untransformed: no caching,
// no retries, no rate limiting. Adult content is excluded on every
// call and the configured language is applied unless the caller
// overrides it.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrMovieNotFound is returned by Details when TMDB reports 404 for
// the requested id.
var ErrMovieNotFound = errors.New("tmdb: movie not found")

// Client talks to one TMDB deployment. Construct with NewClient;
// there is no package-level instance.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	httpc    *http.Client
}

// NewClient builds a Client. baseURL and language fall back to
// DefaultBaseURL and "en-US"; httpc may be nil for a default client
// with a 10s timeout.
func NewClient(apiKey, baseURL, language string, httpc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if language == "" {
		language = "en-US"
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, language: language, httpc: httpc}
}

// MovieSummary is one entry of a TMDB listing response.
type MovieSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	Adult       bool    `json:"adult"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// MoviePage is a paginated listing as TMDB returns it.
type MoviePage struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record for a single movie.
type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Runtime     int     `json:"runtime"`
	Popularity  float64 `json:"popularity"`
	Genres      []Genre `json:"genres"`
}

type Video struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

type Review struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url"`
}

// ReviewPage is a paginated review listing, pagination passed
// through untouched.
type ReviewPage struct {
	Page         int      `json:"page"`
	Results      []Review `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// DiscoverQuery holds the supported discover filters. Zero values
// are omitted from the request.
type DiscoverQuery struct {
	SortBy             string
	Page               int
	WithGenres         string
	Language           string
	PrimaryReleaseYear int
}

// get performs a GET against the API and decodes the JSON body.
// The api key, language and include_adult=false are always applied;
// params may override language only.
func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("include_adult", "false")
	if params.Get("language") == "" {
		params.Set("language", c.language)
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMovieNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: HTTP %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}

// Popular returns the popular-movies listing for one page.
func (c *Client) Popular(ctx context.Context, page int) (*MoviePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(page)))
	var out MoviePage
	if err := c.get(ctx, "/movie/popular", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var out struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// Search runs a title search. Adult results and results without a
// poster are dropped and the result count reflects the filtered
// set; total_pages passes through as reported upstream.
func (c *Client) Search(ctx context.Context, query string, page int) (*MoviePage, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(pageOrFirst(page)))
	var out MoviePage
	if err := c.get(ctx, "/search/movie", q, &out); err != nil {
		return nil, err
	}
	kept := out.Results[:0]
	for _, m := range out.Results {
		if m.Adult || m.PosterPath == "" {
			continue
		}
		kept = append(kept, m)
	}
	out.Results = kept
	out.TotalResults = len(kept)
	return &out, nil
}

// Discover runs a filtered discover query.
func (c *Client) Discover(ctx context.Context, dq DiscoverQuery) (*MoviePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(dq.Page)))
	if dq.SortBy != "" {
		q.Set("sort_by", dq.SortBy)
	}
	if dq.WithGenres != "" {
		q.Set("with_genres", dq.WithGenres)
	}
	if dq.Language != "" {
		q.Set("language", dq.Language)
	}
	if dq.PrimaryReleaseYear > 0 {
		q.Set("primary_release_year", strconv.Itoa(dq.PrimaryReleaseYear))
	}
	var out MoviePage
	if err := c.get(ctx, "/discover/movie", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Details fetches the full record for one movie. Unknown ids map to
// ErrMovieNotFound.
func (c *Client) Details(ctx context.Context, id int64) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similar returns up to limit similar movies. The limit is clamped
// to [1,50] with a default of 25; truncation happens locally and
// the page counters are recomputed to describe the truncated set.
func (c *Client) Similar(ctx context.Context, id int64, limit int) (*MoviePage, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 50 {
		limit = 50
	}
	var out MoviePage
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10)+"/similar", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	out.Page = 1
	out.TotalPages = 1
	out.TotalResults = len(out.Results)
	return &out, nil
}

// Reviews returns one page of reviews with upstream pagination
// untouched.
func (c *Client) Reviews(ctx context.Context, id int64, page int) (*ReviewPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(page)))
	var out ReviewPage
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10)+"/reviews", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Videos returns the movie's official YouTube trailers; everything
// else TMDB lists for the movie is dropped.
func (c *Client) Videos(ctx context.Context, id int64) ([]Video, error) {
	var out struct {
		Results []Video `json:"results"`
	}
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10)+"/videos", nil, &out); err != nil {
		return nil, err
	}
	trailers := make([]Video, 0, len(out.Results))
	for _, v := range out.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			trailers = append(trailers, v)
		}
	}
	return trailers, nil
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
