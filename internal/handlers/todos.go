package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todoapp/internal/models"
	"todoapp/internal/services"
)

func (h *Handler) ListToDos(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid page"})
		return
	}

	result, err := h.todos.List(c.Request.Context(), c.Query("sortOrder"), c.Query("searchString"), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) CreateToDo(c *gin.Context) {
	request := &models.ToDo{}
	err := c.ShouldBindBodyWithJSON(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), *request)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, todo)
}

func (h *Handler) GetToDo(c *gin.Context) {
	todoId, err := parseId(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), todoId)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *Handler) UpdateToDo(c *gin.Context) {
	todoId, err := parseId(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	request := &models.ToDo{}
	err = c.ShouldBindBodyWithJSON(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), todoId, *request)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *Handler) DeleteToDo(c *gin.Context) {
	todoId, err := parseId(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.todos.Delete(c.Request.Context(), todoId); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadToDos imports a CSV or XLSX file sent as multipart field "file".
// Every failure other than a missing file looks the same to the caller.
func (h *Handler) UploadToDos(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file.Size == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no file selected"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.uploadFailed(c, file.Filename, err)
		return
	}
	defer f.Close()

	imported, err := h.todos.Upload(c.Request.Context(), file.Filename, f)
	if errors.Is(err, services.ErrNoFileSelected) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no file selected"})
		return
	}
	if err != nil {
		h.uploadFailed(c, file.Filename, err)
		return
	}

	h.log.Info("upload imported", "file", file.Filename, "records", imported)
	c.JSON(http.StatusOK, models.UploadResponse{Imported: imported})
}

func (h *Handler) uploadFailed(c *gin.Context, filename string, err error) {
	_ = c.Error(err)
	h.log.Warn("upload rejected", "file", filename, "err", err)
	c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "file could not be uploaded"})
}
