// Package services provides external service integrations.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"movieweb/models"
)

// ErrNotFound is returned when the metadata provider explicitly reports
// that no movie matches the queried title. Any other failure (transport
// error, non-2xx status, undecodable body) is a plain error.
var ErrNotFound = errors.New("omdb: movie not found")

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "http://www.omdbapi.com/"

// OMDBService handles interactions with the OMDb API
type OMDBService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// omdbMovie represents a movie response from the OMDb API
type omdbMovie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDBRating string `json:"imdbRating"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Poster     string `json:"Poster"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// NewOMDBService creates a new OMDb service instance. An empty baseURL
// falls back to the public endpoint.
func NewOMDBService(baseURL, apiKey string) *OMDBService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OMDBService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchByTitle fetches movie details from OMDb by free-text title.
// The returned record carries OMDb's canonical title, which callers
// persist instead of the query string.
func (s *OMDBService) SearchByTitle(title string) (*models.MovieInfo, error) {
	endpoint := fmt.Sprintf("%s?apikey=%s&t=%s", s.baseURL, url.QueryEscape(s.apiKey), url.QueryEscape(title))

	resp, err := s.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie from OMDb: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OMDb API returned status %d", resp.StatusCode)
	}

	var movie omdbMovie
	if err := json.NewDecoder(resp.Body).Decode(&movie); err != nil {
		return nil, fmt.Errorf("failed to decode OMDb response: %w", err)
	}

	// OMDb reports "no match" inside a 200 response.
	if movie.Response == "False" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}

	return convertToMovieInfo(movie), nil
}

func convertToMovieInfo(movie omdbMovie) *models.MovieInfo {
	info := &models.MovieInfo{
		Title:     movie.Title,
		Year:      movie.Year,
		Genre:     movie.Genre,
		Director:  movie.Director,
		Writer:    movie.Writer,
		Actors:    movie.Actors,
		Plot:      movie.Plot,
		Language:  movie.Language,
		Country:   movie.Country,
		Poster:    movie.Poster,
		MediaType: movie.Type,
	}

	// imdbRating is a decimal string, or "N/A" for unrated titles.
	if movie.IMDBRating != "" && movie.IMDBRating != "N/A" {
		rating, err := strconv.ParseFloat(movie.IMDBRating, 64)
		if err != nil {
			log.Printf("Failed to parse imdbRating %q: %v", movie.IMDBRating, err)
		} else {
			info.Rating = rating
		}
	}

	return info
}
