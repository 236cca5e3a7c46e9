package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIRISHRV/moviereco/internal/model"
	"github.com/GIRISHRV/moviereco/internal/queue"
	"github.com/GIRISHRV/moviereco/internal/repository"
	"github.com/GIRISHRV/moviereco/internal/tmdb"
)

// ----- fakes -----

type fakeMovieStore struct {
	mu     sync.Mutex
	byTMDB map[int64]model.Movie
	nextID uint64
}

func newFakeMovieStore() *fakeMovieStore {
	return &fakeMovieStore{byTMDB: map[int64]model.Movie{}}
}

func (s *fakeMovieStore) GetByTMDBID(_ context.Context, tmdbID int64) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byTMDB[tmdbID]
	if !ok {
		return model.Movie{}, sql.ErrNoRows
	}
	return m, nil
}

func (s *fakeMovieStore) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTMDB[m.TMDBID]; ok {
		return repository.ErrMovieExists
	}
	s.nextID++
	m.ID = s.nextID
	s.byTMDB[m.TMDBID] = *m
	return nil
}

func (s *fakeMovieStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTMDB)
}

// racingMovieStore reports a miss on lookup until Create has been
// attempted, and rejects the create as a duplicate, emulating a
// concurrent insert that won the unique key first.
type racingMovieStore struct {
	movie      model.Movie
	createSeen bool
}

func (s *racingMovieStore) GetByTMDBID(_ context.Context, tmdbID int64) (model.Movie, error) {
	if !s.createSeen {
		return model.Movie{}, sql.ErrNoRows
	}
	return s.movie, nil
}

func (s *racingMovieStore) Create(_ context.Context, m *model.Movie) error {
	s.createSeen = true
	return repository.ErrMovieExists
}

type historyKey struct{ user, movie uint64 }

type fakeHistoryStore struct {
	mu        sync.Mutex
	entries   map[historyKey]int
	seq       int
	lastLimit int
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{entries: map[historyKey]int{}}
}

func (s *fakeHistoryStore) Add(_ context.Context, userID, movieID uint64, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := historyKey{userID, movieID}
	if _, ok := s.entries[k]; ok {
		return false, nil
	}
	s.seq++
	s.entries[k] = s.seq
	return true, nil
}

func (s *fakeHistoryStore) List(_ context.Context, userID uint64, limit int) ([]model.WatchedMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	type row struct {
		movie uint64
		seq   int
	}
	var rows []row
	for k, seq := range s.entries {
		if k.user == userID {
			rows = append(rows, row{k.movie, seq})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]model.WatchedMovie, 0, len(rows))
	for _, r := range rows {
		w := model.WatchedMovie{}
		w.ID = r.movie
		out = append(out, w)
	}
	return out, nil
}

func (s *fakeHistoryStore) Remove(_ context.Context, userID, movieID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := historyKey{userID, movieID}
	if _, ok := s.entries[k]; !ok {
		return repository.ErrNotInHistory
	}
	delete(s.entries, k)
	return nil
}

type watchlistKey struct {
	user  uint64
	movie int64
}

type fakeWatchlistStore struct {
	mu      sync.Mutex
	entries map[watchlistKey]model.WatchlistEntry
	nextID  uint64
}

func newFakeWatchlistStore() *fakeWatchlistStore {
	return &fakeWatchlistStore{entries: map[watchlistKey]model.WatchlistEntry{}}
}

func (s *fakeWatchlistStore) Get(_ context.Context, userID uint64, movieID int64) (model.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[watchlistKey{userID, movieID}]
	if !ok {
		return model.WatchlistEntry{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *fakeWatchlistStore) Add(_ context.Context, e *model.WatchlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := watchlistKey{e.UserID, e.MovieID}
	if _, ok := s.entries[k]; ok {
		return repository.ErrAlreadyListed
	}
	s.nextID++
	e.ID = s.nextID
	s.entries[k] = *e
	return nil
}

func (s *fakeWatchlistStore) Remove(_ context.Context, userID uint64, movieID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := watchlistKey{userID, movieID}
	if _, ok := s.entries[k]; !ok {
		return false, nil
	}
	delete(s.entries, k)
	return true, nil
}

func (s *fakeWatchlistStore) List(_ context.Context, userID uint64) ([]model.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WatchlistEntry
	for k, e := range s.entries {
		if k.user == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeRatingStore struct {
	mu      sync.Mutex
	entries map[watchlistKey]model.Rating
	seq     int
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{entries: map[watchlistKey]model.Rating{}}
}

func (s *fakeRatingStore) Upsert(_ context.Context, userID uint64, movieID int64, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	k := watchlistKey{userID, movieID}
	r, ok := s.entries[k]
	if !ok {
		r = model.Rating{ID: uint64(len(s.entries) + 1), UserID: userID, MovieID: movieID}
	}
	r.Value = value
	r.UpdatedAt = time.Unix(int64(s.seq), 0)
	s.entries[k] = r
	return nil
}

func (s *fakeRatingStore) Get(_ context.Context, userID uint64, movieID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[watchlistKey{userID, movieID}]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return r.Value, nil
}

func (s *fakeRatingStore) ListByUser(_ context.Context, userID uint64) ([]model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Rating
	for k, r := range s.entries {
		if k.user == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

type fakeMetadata struct {
	mu     sync.Mutex
	movies map[int64]*tmdb.MovieDetails
	calls  int
}

func newFakeMetadata(movies ...*tmdb.MovieDetails) *fakeMetadata {
	f := &fakeMetadata{movies: map[int64]*tmdb.MovieDetails{}}
	for _, m := range movies {
		f.movies[m.ID] = m
	}
	return f
}

func (f *fakeMetadata) Details(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	m, ok := f.movies[id]
	if !ok {
		return nil, tmdb.ErrMovieNotFound
	}
	return m, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// ----- fixtures -----

func fightClub() *tmdb.MovieDetails {
	return &tmdb.MovieDetails{
		ID:          550,
		Title:       "Fight Club",
		Overview:    "An insomniac office worker.",
		PosterPath:  "/fc.jpg",
		ReleaseDate: "1999-10-15",
		VoteAverage: 8.4,
		VoteCount:   26280,
		Runtime:     139,
	}
}

type env struct {
	movies    *fakeMovieStore
	history   *fakeHistoryStore
	watchlist *fakeWatchlistStore
	ratings   *fakeRatingStore
	metadata  *fakeMetadata
	events    *fakeEvents
	lib       *Library
}

func newEnv(t *testing.T, metadata *fakeMetadata) *env {
	t.Helper()
	e := &env{
		movies:    newFakeMovieStore(),
		history:   newFakeHistoryStore(),
		watchlist: newFakeWatchlistStore(),
		ratings:   newFakeRatingStore(),
		metadata:  metadata,
		events:    &fakeEvents{},
	}
	e.lib = NewLibrary(e.movies, e.history, e.watchlist, e.ratings, e.metadata, e.events)
	return e
}

// ----- tests -----

func TestResolveMovieCreatesRowOnce(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	ctx := context.Background()

	m1, err := e.lib.ResolveMovie(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", m1.Title)
	assert.Equal(t, int64(550), m1.TMDBID)
	assert.NotZero(t, m1.ID)
	assert.Equal(t, 1999, m1.ReleaseDate.Year())

	m2, err := e.lib.ResolveMovie(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, 1, e.movies.count())
	assert.Equal(t, 1, e.metadata.calls, "second resolve must be a cache hit")
}

func TestResolveMovieUnknownWritesNothing(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	_, err := e.lib.ResolveMovie(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Zero(t, e.movies.count())
}

func TestResolveMovieLostInsertRetriesAsLookup(t *testing.T) {
	store := &racingMovieStore{movie: model.Movie{ID: 7, TMDBID: 550, Title: "Fight Club"}}
	lib := NewLibrary(store, newFakeHistoryStore(), newFakeWatchlistStore(), newFakeRatingStore(), newFakeMetadata(fightClub()), nil)

	m, err := lib.ResolveMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), m.ID)
}

func TestConcurrentFirstReferenceSingleRow(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.lib.ToggleWatchlist(ctx, uint64(i+1), 550)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, e.movies.count(), "both users share one cached movie row")
}

func TestAddToHistoryIdempotent(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	ctx := context.Background()

	added, err := e.lib.AddToHistory(ctx, 1, 550)
	require.NoError(t, err)
	assert.True(t, added)

	again, err := e.lib.AddToHistory(ctx, 1, 550)
	require.NoError(t, err)
	assert.False(t, again)

	assert.Len(t, e.history.entries, 1)
	assert.Equal(t, 1, e.events.count(), "no event for the no-op add")
}

func TestAddToHistoryUnknownMovie(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	_, err := e.lib.AddToHistory(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Empty(t, e.history.entries)
}

func TestHistoryOrderAndDefaultLimit(t *testing.T) {
	meta := newFakeMetadata(fightClub(),
		&tmdb.MovieDetails{ID: 551, Title: "Second"},
		&tmdb.MovieDetails{ID: 552, Title: "Third"})
	e := newEnv(t, meta)
	ctx := context.Background()

	for _, id := range []int64{550, 551, 552} {
		_, err := e.lib.AddToHistory(ctx, 1, id)
		require.NoError(t, err)
	}

	watched, err := e.lib.History(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, watched, 2)
	assert.Greater(t, watched[0].ID, watched[1].ID, "newest first")

	_, err = e.lib.History(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, e.history.lastLimit, "non-positive limit falls back to 12")
}

func TestRemoveFromHistoryMissing(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	err := e.lib.RemoveFromHistory(context.Background(), 1, 42)
	assert.ErrorIs(t, err, repository.ErrNotInHistory)
}

func TestToggleWatchlistRoundTrip(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	ctx := context.Background()

	listed, err := e.lib.ToggleWatchlist(ctx, 1, 550)
	require.NoError(t, err)
	assert.True(t, listed)

	entries, err := e.lib.Watchlist(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fight Club", entries[0].Title)
	assert.Equal(t, "/fc.jpg", entries[0].PosterPath)
	assert.Equal(t, int64(550), entries[0].MovieID)

	listed, err = e.lib.ToggleWatchlist(ctx, 1, 550)
	require.NoError(t, err)
	assert.False(t, listed)

	entries, err = e.lib.Watchlist(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToggleWatchlistUnknownMovie(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	_, err := e.lib.ToggleWatchlist(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	entries, _ := e.lib.Watchlist(context.Background(), 1)
	assert.Empty(t, entries)
}

func TestRateRange(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	ctx := context.Background()

	assert.ErrorIs(t, e.lib.Rate(ctx, 1, 550, -0.5), ErrInvalidRating)
	assert.ErrorIs(t, e.lib.Rate(ctx, 1, 550, 5.5), ErrInvalidRating)
	assert.NoError(t, e.lib.Rate(ctx, 1, 550, 0))
	assert.NoError(t, e.lib.Rate(ctx, 1, 550, 5))
}

func TestRateUpsertsInPlace(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	ctx := context.Background()

	require.NoError(t, e.lib.Rate(ctx, 1, 550, 3))
	require.NoError(t, e.lib.Rate(ctx, 1, 550, 4.5))

	assert.Len(t, e.ratings.entries, 1)
	value, ok, err := e.lib.Rating(ctx, 1, 550)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.5, value)
}

func TestRatingAbsent(t *testing.T) {
	e := newEnv(t, newFakeMetadata())
	_, ok, err := e.lib.Rating(context.Background(), 1, 550)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateNeedsNoMovieRow(t *testing.T) {
	// The metadata fake knows nothing, so any resolution attempt
	// would fail; rating must still succeed.
	e := newEnv(t, newFakeMetadata())
	require.NoError(t, e.lib.Rate(context.Background(), 1, 550, 4))
	assert.Zero(t, e.movies.count())
	assert.Zero(t, e.metadata.calls)
}

func TestRatingsOmitUnresolvableMovies(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	ctx := context.Background()

	require.NoError(t, e.lib.Rate(ctx, 1, 550, 4))
	require.NoError(t, e.lib.Rate(ctx, 1, 999, 2))

	rated, err := e.lib.Ratings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rated, 1)
	assert.Equal(t, int64(550), rated[0].MovieID)
	assert.Equal(t, "Fight Club", rated[0].Title)
	assert.Equal(t, 4.0, rated[0].Rating)
}

func TestRatingsOrderedByRecency(t *testing.T) {
	meta := newFakeMetadata(fightClub(), &tmdb.MovieDetails{ID: 551, Title: "Second"})
	e := newEnv(t, meta)
	ctx := context.Background()

	require.NoError(t, e.lib.Rate(ctx, 1, 550, 4))
	require.NoError(t, e.lib.Rate(ctx, 1, 551, 3))
	require.NoError(t, e.lib.Rate(ctx, 1, 550, 5))

	rated, err := e.lib.Ratings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rated, 2)
	assert.Equal(t, int64(550), rated[0].MovieID, "re-rated movie moves to the front")
}

func TestPublishFailureDoesNotFailWrites(t *testing.T) {
	e := newEnv(t, newFakeMetadata(fightClub()))
	e.events.err = errors.New("broker down")

	added, err := e.lib.AddToHistory(context.Background(), 1, 550)
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, e.lib.Rate(context.Background(), 1, 550, 4))
}

func TestNilPublisherIsAllowed(t *testing.T) {
	movies := newFakeMovieStore()
	lib := NewLibrary(movies, newFakeHistoryStore(), newFakeWatchlistStore(), newFakeRatingStore(), newFakeMetadata(fightClub()), nil)
	added, err := lib.AddToHistory(context.Background(), 1, 550)
	require.NoError(t, err)
	assert.True(t, added)
}
