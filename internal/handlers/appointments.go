package handlers

import (
	"errors"
	"time"

	"appointment-app-server/internal/middleware"
	"appointment-app-server/internal/models"
	"appointment-app-server/internal/recurrence"
	"appointment-app-server/internal/reminders"
	"appointment-app-server/internal/store"
	"appointment-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppointmentHandler handles appointment related requests. Every write goes
// through the reminder planner so the pending reminder plan always matches
// the persisted appointment.
type AppointmentHandler struct {
	Appointments store.AppointmentStore
	Clients      store.ClientStore
	Planner      *reminders.Planner
	Expander     *recurrence.Expander
	Log          *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointments store.AppointmentStore, clients store.ClientStore, planner *reminders.Planner, expander *recurrence.Expander, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		Appointments: appointments,
		Clients:      clients,
		Planner:      planner,
		Expander:     expander,
		Log:          log,
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	ClientID        string    `json:"clientId" binding:"required,uuid"`
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	Timezone        string    `json:"timezone"`
	IsRecurring     bool      `json:"isRecurring"`
	RecurrenceRule  string    `json:"recurrenceRule"`
	ReminderOffsets []string  `json:"reminderOffsets"`
}

// CreateAppointment handles creating a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	ctx := c.Request.Context()

	// Verify the client exists and belongs to the requesting user
	client, err := h.Clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Client not found")
		} else {
			utils.InternalServerError(c, "Database error verifying client: "+err.Error())
		}
		return
	}
	if client.UserID != userID {
		utils.Forbidden(c, "Client does not belong to you")
		return
	}

	if req.StartTime.Before(time.Now()) {
		utils.BadRequest(c, "Appointment start time must be in the future.")
		return
	}

	if req.IsRecurring {
		if _, err := recurrence.ParseRule(req.RecurrenceRule); err != nil {
			utils.BadRequest(c, "Invalid recurrence rule: "+err.Error())
			return
		}
	}

	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	appointment := models.Appointment{
		UserID:          userID,
		ClientID:        req.ClientID,
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		Timezone:        req.Timezone,
		Status:          models.StatusScheduled,
		IsRecurring:     req.IsRecurring,
		RecurrenceRule:  req.RecurrenceRule,
		ReminderOffsets: req.ReminderOffsets,
	}

	if err := h.Appointments.Create(ctx, &appointment); err != nil {
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	if err := h.Planner.Replan(ctx, &appointment); err != nil {
		h.Log.Error("failed to plan reminders for new appointment",
			zap.String("appointment_id", appointment.ID),
			zap.Error(err))
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser handles fetching the appointments of the logged-in user.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointments, err := h.Appointments.ListByUser(c.Request.Context(), userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, ok := h.loadOwned(c)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentRequest represents the request body for updating an appointment.
// Zero-value fields are left unchanged.
type UpdateAppointmentRequest struct {
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	StartTime       *time.Time `json:"startTime"`
	Timezone        string     `json:"timezone"`
	RecurrenceRule  *string    `json:"recurrenceRule"`
	ReminderOffsets *[]string  `json:"reminderOffsets"`
}

// UpdateAppointment handles updating an appointment's details. The reminder
// plan is recomputed afterwards so stale scheduled entries never survive an
// edit.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	appointment, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.Title != "" {
		appointment.Title = req.Title
	}
	if req.Description != nil {
		appointment.Description = *req.Description
	}
	if req.StartTime != nil {
		appointment.StartTime = *req.StartTime
	}
	if req.Timezone != "" {
		appointment.Timezone = req.Timezone
	}
	if req.RecurrenceRule != nil {
		if *req.RecurrenceRule != "" {
			if _, err := recurrence.ParseRule(*req.RecurrenceRule); err != nil {
				utils.BadRequest(c, "Invalid recurrence rule: "+err.Error())
				return
			}
		}
		appointment.RecurrenceRule = *req.RecurrenceRule
		appointment.IsRecurring = *req.RecurrenceRule != ""
	}
	if req.ReminderOffsets != nil {
		appointment.ReminderOffsets = *req.ReminderOffsets
	}

	ctx := c.Request.Context()
	if err := h.Appointments.Save(ctx, appointment); err != nil {
		utils.InternalServerError(c, "Failed to update appointment: "+err.Error())
		return
	}

	if err := h.Planner.Replan(ctx, appointment); err != nil {
		h.Log.Error("failed to replan reminders after update",
			zap.String("appointment_id", appointment.ID),
			zap.Error(err))
	}

	utils.Success(c, "Appointment updated successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=scheduled completed cancelled missed"`
}

// UpdateAppointmentStatus handles updating the status of an appointment.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointment, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment.Status = req.Status

	ctx := c.Request.Context()
	if err := h.Appointments.Save(ctx, appointment); err != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		return
	}

	// Cancelled and completed appointments keep their audit trail but need no
	// further reminders.
	if req.Status == models.StatusCancelled || req.Status == models.StatusCompleted {
		if err := h.Planner.CancelScheduled(ctx, appointment.ID); err != nil {
			h.Log.Error("failed to drop scheduled reminders",
				zap.String("appointment_id", appointment.ID),
				zap.Error(err))
		}
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}

// RescheduleAppointmentRequest represents the request body for rescheduling an appointment.
type RescheduleAppointmentRequest struct {
	NewStartTime time.Time `json:"newStartTime" binding:"required"`
}

// RescheduleAppointment handles moving an appointment to a new start time.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appointment, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.NewStartTime.Before(time.Now()) {
		utils.BadRequest(c, "New start time must be in the future.")
		return
	}

	appointment.StartTime = req.NewStartTime
	appointment.Status = models.StatusScheduled

	ctx := c.Request.Context()
	if err := h.Appointments.Save(ctx, appointment); err != nil {
		utils.InternalServerError(c, "Failed to reschedule appointment: "+err.Error())
		return
	}

	if err := h.Planner.Replan(ctx, appointment); err != nil {
		h.Log.Error("failed to replan reminders after reschedule",
			zap.String("appointment_id", appointment.ID),
			zap.Error(err))
	}

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// DeleteAppointment handles deleting an appointment together with its
// reminder entries.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	appointment, ok := h.loadOwned(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Planner.DeleteReminders(ctx, appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to delete reminders: "+err.Error())
		return
	}
	if err := h.Appointments.Delete(ctx, appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to delete appointment: "+err.Error())
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}

// ExpandRecurring triggers one on-demand expansion pass over all master
// recurring appointments. Admin only; the daily job does the same thing on a
// schedule.
func (h *AppointmentHandler) ExpandRecurring(c *gin.Context) {
	created, err := h.Expander.ExpandAll(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to expand recurring appointments: "+err.Error())
		return
	}
	utils.Success(c, "Recurring appointments expanded", gin.H{"instancesCreated": created})
}

// loadOwned fetches the appointment from the path parameter and enforces that
// the requesting user owns it (admins may access any appointment). On failure
// it writes the error response and returns ok=false.
func (h *AppointmentHandler) loadOwned(c *gin.Context) (*models.Appointment, bool) {
	appointment, err := h.Appointments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && appointment.UserID != userID {
		utils.Forbidden(c, "You are not authorized to access this appointment")
		return nil, false
	}
	return appointment, true
}
