package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// POST /api/users
// body: { "email": "...", "name": "...", "age": 42 }
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Age   *int   `json:"age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.users.Create(c.Request.Context(), services.CreateUserInput{Email: req.Email, Name: req.Name, Age: req.Age})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Status(c, http.StatusCreated, gin.H{"user": u})
}

// GET /api/users?limit=&offset=
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"users": users})
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"user": u})
}

// PUT /api/users/:id
// body: any of { "email", "name", "age" }
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Email *string `json:"email"`
		Name  *string `json:"name"`
		Age   *int    `json:"age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, services.UpdateUserInput{Email: req.Email, Name: req.Name, Age: req.Age})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"user": u})
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
