package handlers

import (
	"net/http"
	"strconv"

	"taskboard/internal/auth"
	dom "taskboard/internal/domain"
	"taskboard/internal/dto"
	"taskboard/internal/repo"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxPageSize = 100
	// Keeps (page-1)*size well inside int range so the OFFSET can never
	// go negative on a crafted page number.
	maxPageNumber = 1 << 30
)

type TaskHandler struct {
	svc      *service.TaskService
	pageSize int
}

func NewTaskHandler(svc *service.TaskService, pageSize int) *TaskHandler {
	return &TaskHandler{svc: svc, pageSize: pageSize}
}

// List godoc
// @Summary      List tasks
// @Description  Signed-in callers see only their own tasks; anonymous callers see all tasks.
// @Tags         tasks
// @Produce      json
// @Param        completed  query  string  false  "Filter by completion status (true/false)"
// @Param        page       query  int     false  "Page number"
// @Param        page_size  query  int     false  "Page size"
// @Success      200  {object}  dto.TaskPage
// @Failure      400  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var owner *int64
	if userID := auth.UserIDFromContext(c); userID > 0 {
		owner = &userID
	}

	completed, ok := parseCompleted(c)
	if !ok {
		return
	}
	page, size, ok := h.parsePage(c)
	if !ok {
		return
	}

	f := repo.TaskFilter{
		Owner:     owner,
		Completed: completed,
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	list, count, err := h.svc.ListPage(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.TaskPage{
		Count:   count,
		Results: tasksToResponses(list),
	}
	if int64(page*size) < count {
		resp.Next = pageURL(c, page+1)
	}
	if page > 1 {
		resp.Previous = pageURL(c, page-1)
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create a task
// @Description  The new task is owned by the session user; any owner in the body is ignored.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.FieldErrors
// @Failure      403   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrorBody(err))
		return
	}

	// Validation accepts the body either way; creation itself needs a session.
	userID := auth.UserIDFromContext(c)
	if userID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "You must be logged in to create a task."})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), userID, req.Title, req.Description, req.Completed)
	if err != nil {
		if err == service.ErrBlankTitle {
			c.JSON(http.StatusBadRequest, blankTitleBody())
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(t))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), auth.UserIDFromContext(c), id)
	if err != nil {
		if err == service.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Replace godoc
// @Summary      Replace a task
// @Description  Overwrites title, description and completed. Owner and timestamps are not client-settable.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int  true  "Task ID"
// @Param        body  body      dto.ReplaceTaskRequest  true  "Full task body"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.FieldErrors
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Replace(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplaceTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrorBody(err))
		return
	}
	t, err := h.svc.Replace(c.Request.Context(), auth.UserIDFromContext(c), id, req.Title, req.Description, req.Completed)
	if err != nil {
		if err == service.ErrBlankTitle {
			c.JSON(http.StatusBadRequest, blankTitleBody())
			return
		}
		if err == service.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Patch godoc
// @Summary      Partially update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int  true  "Task ID"
// @Param        body  body      dto.PatchTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.FieldErrors
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PatchTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrorBody(err))
		return
	}
	t, err := h.svc.Patch(c.Request.Context(), auth.UserIDFromContext(c), id, req.Title, req.Description, req.Completed)
	if err != nil {
		if err == service.ErrBlankTitle {
			c.JSON(http.StatusBadRequest, blankTitleBody())
			return
		}
		if err == service.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Security     CookieAuth
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.svc.Delete(c.Request.Context(), auth.UserIDFromContext(c), id)
	if err != nil {
		if err == service.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// parseCompleted reads the optional ?completed= filter. Writes a 400 and
// returns ok=false on anything other than "true"/"false".
func parseCompleted(c *gin.Context) (*bool, bool) {
	raw, present := c.GetQuery("completed")
	if !present {
		return nil, true
	}
	switch raw {
	case "true":
		v := true
		return &v, true
	case "false":
		v := false
		return &v, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed must be true or false"})
		return nil, false
	}
}

func (h *TaskHandler) parsePage(c *gin.Context) (page, size int, ok bool) {
	page, size = 1, h.pageSize
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageNumber {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return 0, 0, false
		}
		page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
			return 0, 0, false
		}
		size = n
	}
	return page, size, true
}

// pageURL rebuilds the request URL as an absolute URL with the given
// page number.
func pageURL(c *gin.Context, page int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	s := u.String()
	return &s
}

func blankTitleBody() dto.FieldErrors {
	return dto.FieldErrors{Errors: map[string]string{"title": "This field may not be blank."}}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		User:        t.Username,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}
