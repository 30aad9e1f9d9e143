package handlers

import (
	"errors"

	"appointment-app-server/internal/middleware"
	"appointment-app-server/internal/models"
	"appointment-app-server/internal/store"
	"appointment-app-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler handles client (reminder recipient) related requests.
type ClientHandler struct {
	Clients store.ClientStore
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clients store.ClientStore) *ClientHandler {
	return &ClientHandler{Clients: clients}
}

// CreateClientRequest represents the request body for creating a client.
type CreateClientRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Notes       string `json:"notes"`
}

// CreateClient handles creating a new client for the logged-in user.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	client := models.Client{
		UserID:      userID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	}

	if err := h.Clients.Create(c.Request.Context(), &client); err != nil {
		utils.InternalServerError(c, "Failed to create client: "+err.Error())
		return
	}

	utils.Created(c, "Client created successfully", client)
}

// GetClientsForUser handles listing the logged-in user's clients.
func (h *ClientHandler) GetClientsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	clients, err := h.Clients.ListByUser(c.Request.Context(), userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch clients: "+err.Error())
		return
	}

	utils.Success(c, "Clients fetched successfully", clients)
}

// GetClientByID handles fetching a single client by its ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	client, ok := h.loadOwned(c)
	if !ok {
		return
	}
	utils.Success(c, "Client fetched successfully", client)
}

// UpdateClientRequest represents the request body for updating a client.
type UpdateClientRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Notes       *string `json:"notes"`
}

// UpdateClient handles updating a client's details.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	client, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Email != "" {
		client.Email = req.Email
	}
	if req.PhoneNumber != nil {
		client.PhoneNumber = *req.PhoneNumber
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if err := h.Clients.Save(c.Request.Context(), client); err != nil {
		utils.InternalServerError(c, "Failed to update client: "+err.Error())
		return
	}

	utils.Success(c, "Client updated successfully", client)
}

// DeleteClient handles deleting a client.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	client, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if err := h.Clients.Delete(c.Request.Context(), client.ID); err != nil {
		utils.InternalServerError(c, "Failed to delete client: "+err.Error())
		return
	}

	utils.Success(c, "Client deleted successfully", nil)
}

func (h *ClientHandler) loadOwned(c *gin.Context) (*models.Client, bool) {
	client, err := h.Clients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Client not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && client.UserID != userID {
		utils.Forbidden(c, "You are not authorized to access this client")
		return nil, false
	}
	return client, true
}
