package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/internal/application/pipeline"
)

// ClientHandler serves the /clients resource.
type ClientHandler struct {
	clients pipeline.ClientService
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(clients pipeline.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.clients.Create(c.Request.Context(), ownerID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (h *ClientHandler) List(c *gin.Context) {
	out, err := h.clients.List(c.Request.Context(), ownerID(c), parsePagination(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "clientID")
	if !ok {
		return
	}
	out, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}

func (h *ClientHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, "clientID")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.clients.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}

func (h *ClientHandler) AddContact(c *gin.Context) {
	id, ok := pathID(c, "clientID")
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Role  string `json:"role"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.clients.AddContact(c.Request.Context(), pipeline.AddContactInput{
		ClientID: id,
		Name:     req.Name,
		Role:     req.Role,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, out)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "clientID")
	if !ok {
		return
	}
	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
