package datamanager

import (
	"testing"

	"movieweb/database"
	"movieweb/models"
	"movieweb/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLManager(t *testing.T, provider MetadataProvider) (*SQLDataManager, *database.DB) {
	t.Helper()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})
	return NewSQLDataManager(db, provider), db
}

func TestSQLDataManager_AddUser(t *testing.T) {
	m, _ := setupSQLManager(t, &stubProvider{})

	id, err := m.AddUser("Ana", "ana@example.com", "hashed-secret")
	assert.NoError(t, err)
	assert.Equal(t, "1", id)

	users, err := m.GetAllUsers()
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
	assert.Equal(t, "ana@example.com", users[0].Email)
	assert.Equal(t, "hashed-secret", users[0].Password)
}

func TestSQLDataManager_GetUserMovies_UnknownUser(t *testing.T) {
	m, _ := setupSQLManager(t, &stubProvider{})

	movies, err := m.GetUserMovies("99")
	assert.NoError(t, err)
	assert.Empty(t, movies)
}

// Two users adding the same title share one catalog row: the second add
// reuses it without a second provider lookup, and both favorites point at
// the same catalog id.
func TestSQLDataManager_AddMovie_SharedCatalog(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{
		Title: "Matrix", Director: "Wachowski", Rating: 8.7, Year: "1999", Genre: "Sci-Fi",
	}}
	m, db := setupSQLManager(t, provider)

	ana, err := m.AddUser("Ana", "", "")
	require.NoError(t, err)
	ben, err := m.AddUser("Ben", "", "")
	require.NoError(t, err)

	require.NoError(t, m.AddMovie(ana, "Matrix"))
	require.NoError(t, m.AddMovie(ben, "Matrix"))
	assert.Equal(t, 1, provider.calls)

	var catalogRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movies WHERE title = ?`, "Matrix").Scan(&catalogRows))
	assert.Equal(t, 1, catalogRows)

	var favoriteRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_movies`).Scan(&favoriteRows))
	assert.Equal(t, 2, favoriteRows)

	anaMovies, err := m.GetUserMovies(ana)
	assert.NoError(t, err)
	benMovies, err := m.GetUserMovies(ben)
	assert.NoError(t, err)
	require.Len(t, anaMovies, 1)
	require.Len(t, benMovies, 1)
	assert.Equal(t, anaMovies[0].ID, benMovies[0].ID)
	assert.Equal(t, "Matrix", anaMovies[0].Name)
}

func TestSQLDataManager_AddMovie_PersistsCanonicalTitle(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{
		Title: "The Matrix", Director: "Wachowski", Rating: 8.7, Year: "1999",
	}}
	m, _ := setupSQLManager(t, provider)

	id, err := m.AddUser("Ana", "", "")
	require.NoError(t, err)

	require.NoError(t, m.AddMovie(id, "matrix"))
	movies, err := m.GetUserMovies(id)
	assert.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "The Matrix", movies[0].Name)
}

func TestSQLDataManager_AddMovie_LookupFailed(t *testing.T) {
	m, db := setupSQLManager(t, &stubProvider{err: services.ErrNotFound})

	id, err := m.AddUser("Ana", "", "")
	require.NoError(t, err)

	err = m.AddMovie(id, "No Such Movie")
	assert.ErrorIs(t, err, services.ErrNotFound)

	// No partial state: neither a catalog row nor a favorite was written.
	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&rows))
	assert.Zero(t, rows)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_movies`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestSQLDataManager_AddMovie_UnknownUser(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{Title: "Matrix"}}
	m, _ := setupSQLManager(t, provider)

	err := m.AddMovie("99", "Matrix")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, provider.calls)
}

// Updating a favorite touches the association row only; the shared catalog
// entry and other users' favorites keep their original fields.
func TestSQLDataManager_UpdateMovie_FavoriteOnly(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{
		Title: "Matrix", Director: "Wachowski", Rating: 8.7, Year: "1999",
	}}
	m, db := setupSQLManager(t, provider)

	ana, _ := m.AddUser("Ana", "", "")
	ben, _ := m.AddUser("Ben", "", "")
	require.NoError(t, m.AddMovie(ana, "Matrix"))
	require.NoError(t, m.AddMovie(ben, "Matrix"))

	anaMovies, err := m.GetUserMovies(ana)
	require.NoError(t, err)
	movieID := anaMovies[0].ID

	require.NoError(t, m.UpdateMovie(ana, movieID, models.MovieUpdate{
		Name: "Matrix (again)", Director: "Wachowski", Rating: 10, Year: "1999", Note: "classic",
	}))

	anaMovies, err = m.GetUserMovies(ana)
	require.NoError(t, err)
	assert.Equal(t, "Matrix (again)", anaMovies[0].Name)
	assert.Equal(t, "classic", anaMovies[0].Note)

	benMovies, err := m.GetUserMovies(ben)
	require.NoError(t, err)
	assert.Equal(t, "Matrix", benMovies[0].Name)

	var catalogTitle string
	require.NoError(t, db.QueryRow(`SELECT title FROM movies WHERE id = ?`, movieID).Scan(&catalogTitle))
	assert.Equal(t, "Matrix", catalogTitle)
}

func TestSQLDataManager_UpdateMovie_NotFound(t *testing.T) {
	m, _ := setupSQLManager(t, &stubProvider{})

	err := m.UpdateMovie("1", "99", models.MovieUpdate{Name: "x"})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

// Deleting a favorite never cascades to the catalog row.
func TestSQLDataManager_DeleteMovie_KeepsCatalog(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{Title: "Matrix", Rating: 8.7}}
	m, db := setupSQLManager(t, provider)

	ana, _ := m.AddUser("Ana", "", "")
	ben, _ := m.AddUser("Ben", "", "")
	require.NoError(t, m.AddMovie(ana, "Matrix"))
	require.NoError(t, m.AddMovie(ben, "Matrix"))

	anaMovies, err := m.GetUserMovies(ana)
	require.NoError(t, err)
	movieID := anaMovies[0].ID

	assert.NoError(t, m.DeleteMovie(ana, movieID))

	anaMovies, err = m.GetUserMovies(ana)
	assert.NoError(t, err)
	assert.Empty(t, anaMovies)

	benMovies, err := m.GetUserMovies(ben)
	assert.NoError(t, err)
	assert.Len(t, benMovies, 1)

	var catalogRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&catalogRows))
	assert.Equal(t, 1, catalogRows)

	// Idempotent-safe: the pair is gone, so a second delete reports failure.
	assert.ErrorIs(t, m.DeleteMovie(ana, movieID), ErrMovieNotFound)
}

func TestSQLDataManager_Reviews(t *testing.T) {
	provider := &stubProvider{info: &models.MovieInfo{Title: "Matrix", Rating: 8.7}}
	m, _ := setupSQLManager(t, provider)

	ana, _ := m.AddUser("Ana", "", "")
	ben, _ := m.AddUser("Ben", "", "")
	require.NoError(t, m.AddMovie(ana, "Matrix"))
	require.NoError(t, m.AddMovie(ben, "Matrix"))

	movies, err := m.GetUserMovies(ana)
	require.NoError(t, err)
	movieID := movies[0].ID

	assert.NoError(t, m.AddReview(ana, movieID, 9.5, "Mind-bending."))
	assert.NoError(t, m.AddReview(ben, movieID, 7.0, "Good, not great."))

	reviews, err := m.GetReviewsForMovie(movieID)
	assert.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, ana, reviews[0].UserID)
	assert.Equal(t, 9.5, reviews[0].Rating)
	assert.Equal(t, "Good, not great.", reviews[1].Review)

	reviews, err = m.GetReviewsForMovie("99")
	assert.NoError(t, err)
	assert.Empty(t, reviews)
}

// The relational backend is the only one exposing reviews.
func TestReviewManagerImplementations(t *testing.T) {
	var dm DataManager

	dm = &SQLDataManager{}
	_, ok := dm.(ReviewManager)
	assert.True(t, ok)

	dm = &JSONDataManager{}
	_, ok = dm.(ReviewManager)
	assert.False(t, ok)

	dm = &CSVDataManager{}
	_, ok = dm.(ReviewManager)
	assert.False(t, ok)
}
