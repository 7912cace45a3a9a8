package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todoapp/internal/middleware"
	"todoapp/internal/models"
	"todoapp/internal/services"
	"todoapp/internal/store"
)

type Handler struct {
	db     *sql.DB
	todos  *services.ToDoService
	users  store.UserRepository
	jwtKey string
	log    *log.Logger
}

func New(db *sql.DB, todos *services.ToDoService, users store.UserRepository, jwtKey string, logger *log.Logger) *Handler {
	return &Handler{db: db, todos: todos, users: users, jwtKey: jwtKey, log: logger}
}

// Router wires every route. The /todos group sits behind the bearer-token
// gate.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(h.log))

	router.GET("/health", h.Health)

	auth := router.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)

	todos := router.Group("/todos", middleware.Auth(h.jwtKey))
	todos.GET("", h.ListToDos)
	todos.POST("", h.CreateToDo)
	todos.POST("/upload", h.UploadToDos)
	todos.GET("/:id", h.GetToDo)
	todos.PUT("/:id", h.UpdateToDo)
	todos.DELETE("/:id", h.DeleteToDo)

	return router
}

func parseId(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps service errors to responses. Anything unrecognised is
// logged and reported as a generic internal error.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "conflict"})
	default:
		_ = c.Error(err)
		h.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}
