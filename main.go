// Package main provides the main entry point for the movie favorites application.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"movieweb/database"
	"movieweb/datamanager"
	"movieweb/models"
	"movieweb/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// App represents the application with its dependencies
type App struct {
	dataManager datamanager.DataManager
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	omdbAPIKey := os.Getenv("OMDB_API_KEY")
	if omdbAPIKey == "" {
		log.Fatal("OMDB_API_KEY environment variable is required")
	}
	omdbService := services.NewOMDBService(os.Getenv("OMDB_URL"), omdbAPIKey)

	backend := getEnv("DATA_BACKEND", "json")
	dataFile := getEnv("DATA_FILE", "user_data/users.json")

	// Exactly one backend is active for the lifetime of the process.
	dataManager, cleanup, err := newDataManager(backend, dataFile, omdbService)
	if err != nil {
		log.Fatal("Failed to initialize data manager: ", err)
	}
	defer cleanup()
	log.Printf("Using %s backend with data file %s", backend, dataFile)

	app := &App{dataManager: dataManager}

	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", healthHandler).Methods("GET")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users", app.getUsersHandler).Methods("GET")
	api.HandleFunc("/users", app.registerUserHandler).Methods("POST")
	api.HandleFunc("/users/{user_id}/movies", app.getUserMoviesHandler).Methods("GET")
	api.HandleFunc("/users/{user_id}/movies", app.addMovieHandler).Methods("POST")
	api.HandleFunc("/users/{user_id}/movies/{movie_id}", app.updateMovieHandler).Methods("PUT")
	api.HandleFunc("/users/{user_id}/movies/{movie_id}", app.deleteMovieHandler).Methods("DELETE")
	api.HandleFunc("/users/{user_id}/movies/{movie_id}/reviews", app.addReviewHandler).Methods("POST")
	api.HandleFunc("/movies/{movie_id}/reviews", app.getReviewsHandler).Methods("GET")

	port := getEnv("PORT", "8080")
	log.Println("Server starting on :" + port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

// newDataManager constructs the backend selected by configuration. The
// returned cleanup releases backend resources on shutdown.
func newDataManager(backend, dataFile string, provider datamanager.MetadataProvider) (datamanager.DataManager, func(), error) {
	noop := func() {}
	switch backend {
	case "json":
		return datamanager.NewJSONDataManager(dataFile, provider), noop, nil
	case "csv":
		return datamanager.NewCSVDataManager(dataFile, provider), noop, nil
	case "sqlite":
		db, err := database.NewDB(dataFile)
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(); err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				log.Printf("Failed to close database: %v", err)
			}
		}
		return datamanager.NewSQLDataManager(db, provider), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want json, csv or sqlite)", backend)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (app *App) getUsersHandler(w http.ResponseWriter, _ *http.Request) {
	users, err := app.dataManager.GetAllUsers()
	if err != nil {
		if errors.Is(err, datamanager.ErrStoreNotFound) {
			writeJSON(w, http.StatusOK, []struct{}{})
			return
		}
		log.Printf("Error getting users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (app *App) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	// The persistence layer only ever sees the finished hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	id, err := app.dataManager.AddUser(req.Name, req.Email, string(hash))
	if err != nil {
		log.Printf("Error adding user: %v", err)
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (app *App) getUserMoviesHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	movies, err := app.dataManager.GetUserMovies(userID)
	if err != nil {
		if errors.Is(err, datamanager.ErrStoreNotFound) {
			writeJSON(w, http.StatusOK, []struct{}{})
			return
		}
		log.Printf("Error getting movies for user %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (app *App) addMovieHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	if err := app.dataManager.AddMovie(userID, req.Title); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			http.Error(w, "Movie not found!", http.StatusNotFound)
		case errors.Is(err, datamanager.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		default:
			log.Printf("Error adding movie for user %s: %v", userID, err)
			http.Error(w, "Failed to add movie", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Movie added successfully."})
}

func (app *App) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, movieID := vars["user_id"], vars["movie_id"]

	var update models.MovieUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.dataManager.UpdateMovie(userID, movieID, update); err != nil {
		if errors.Is(err, datamanager.ErrMovieNotFound) || errors.Is(err, datamanager.ErrUserNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		log.Printf("Error updating movie %s for user %s: %v", movieID, userID, err)
		http.Error(w, "Failed to update movie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie has been updated successfully!"})
}

func (app *App) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, movieID := vars["user_id"], vars["movie_id"]

	if err := app.dataManager.DeleteMovie(userID, movieID); err != nil {
		if errors.Is(err, datamanager.ErrMovieNotFound) || errors.Is(err, datamanager.ErrUserNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting movie %s for user %s: %v", movieID, userID, err)
		http.Error(w, "Failed to delete movie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "The movie has been deleted successfully"})
}

func (app *App) addReviewHandler(w http.ResponseWriter, r *http.Request) {
	rm, ok := app.dataManager.(datamanager.ReviewManager)
	if !ok {
		http.Error(w, "Reviews are not supported by the active backend", http.StatusNotFound)
		return
	}

	vars := mux.Vars(r)
	userID, movieID := vars["user_id"], vars["movie_id"]

	var req struct {
		Rating float64 `json:"rating"`
		Review string  `json:"review"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := rm.AddReview(userID, movieID, req.Rating, req.Review); err != nil {
		log.Printf("Error adding review for movie %s: %v", movieID, err)
		http.Error(w, "Failed to submit review", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Review submitted successfully"})
}

func (app *App) getReviewsHandler(w http.ResponseWriter, r *http.Request) {
	rm, ok := app.dataManager.(datamanager.ReviewManager)
	if !ok {
		http.Error(w, "Reviews are not supported by the active backend", http.StatusNotFound)
		return
	}

	movieID := mux.Vars(r)["movie_id"]
	reviews, err := rm.GetReviewsForMovie(movieID)
	if err != nil {
		log.Printf("Error getting reviews for movie %s: %v", movieID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
