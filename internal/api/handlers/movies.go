package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tubedash/tubedash/internal/database"
	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

type MovieHandler struct {
	db *database.PostgresDB
}

func NewMovieHandler(db *database.PostgresDB) *MovieHandler {
	return &MovieHandler{db: db}
}

// CreateMovie godoc
// @Summary Create a production task
// @Tags movies
// @Accept json
// @Produce json
// @Param request body models.CreateMovieRequest true "Movie"
// @Success 201 {object} models.Movie
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/movies [post]
// @Security ApiKeyAuth
func (h *MovieHandler) CreateMovie(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	movie := &models.Movie{
		Title:     req.Title,
		Status:    req.Status,
		ChannelID: req.ChannelID,
		Notes:     req.Notes,
	}
	if err := h.db.CreateMovie(ctx, movie); err != nil {
		utils.LogError(ctx, "Failed to create movie", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusCreated, movie)
}

// ListMovies godoc
// @Summary List production tasks
// @Tags movies
// @Produce json
// @Success 200 {object} models.MovieListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/movies [get]
// @Security ApiKeyAuth
func (h *MovieHandler) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()

	movies, err := h.db.ListMovies(ctx)
	if err != nil {
		utils.LogError(ctx, "Failed to list movies", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}

	c.JSON(http.StatusOK, models.MovieListResponse{
		Total:  len(movies),
		Movies: movies,
	})
}

// UpdateMovie godoc
// @Summary Update a production task
// @Tags movies
// @Accept json
// @Produce json
// @Param movie_id path string true "Movie ID"
// @Param request body models.UpdateMovieRequest true "Fields to update"
// @Success 200 {object} models.Movie
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/movies/{movie_id} [put]
// @Security ApiKeyAuth
func (h *MovieHandler) UpdateMovie(c *gin.Context) {
	ctx := c.Request.Context()

	movieID, err := uuid.Parse(c.Param("movie_id"))
	if err != nil {
		errorResponse(c, utils.NewValidationError("Invalid movie ID", map[string]interface{}{
			"movie_id": c.Param("movie_id"),
		}))
		return
	}

	var req models.UpdateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	movie, err := h.db.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, utils.NewMovieNotFoundError(movieID.String()))
			return
		}
		utils.LogError(ctx, "Failed to load movie", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	if req.Title != "" {
		movie.Title = req.Title
	}
	if req.Status != "" {
		movie.Status = req.Status
	}
	if req.Notes != nil {
		movie.Notes = *req.Notes
	}

	if err := h.db.UpdateMovie(ctx, movie); err != nil {
		utils.LogError(ctx, "Failed to update movie", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusOK, movie)
}

// DeleteMovie godoc
// @Summary Delete a production task
// @Tags movies
// @Produce json
// @Param movie_id path string true "Movie ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/movies/{movie_id} [delete]
// @Security ApiKeyAuth
func (h *MovieHandler) DeleteMovie(c *gin.Context) {
	ctx := c.Request.Context()

	movieID, err := uuid.Parse(c.Param("movie_id"))
	if err != nil {
		errorResponse(c, utils.NewValidationError("Invalid movie ID", map[string]interface{}{
			"movie_id": c.Param("movie_id"),
		}))
		return
	}

	if err := h.db.DeleteMovie(ctx, movieID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, utils.NewMovieNotFoundError(movieID.String()))
			return
		}
		utils.LogError(ctx, "Failed to delete movie", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
