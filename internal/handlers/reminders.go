package handlers

import (
	"errors"

	"appointment-app-server/internal/middleware"
	"appointment-app-server/internal/models"
	"appointment-app-server/internal/reminders"
	"appointment-app-server/internal/store"
	"appointment-app-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReminderHandler exposes the reminder entries of an appointment and the
// manual due-reminder sweep.
type ReminderHandler struct {
	Appointments store.AppointmentStore
	Reminders    store.ReminderStore
	Sweep        *reminders.Sweep
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(appointments store.AppointmentStore, reminderStore store.ReminderStore, sweep *reminders.Sweep) *ReminderHandler {
	return &ReminderHandler{
		Appointments: appointments,
		Reminders:    reminderStore,
		Sweep:        sweep,
	}
}

// GetRemindersForAppointment handles listing the reminder entries of one
// appointment, scheduled and historical alike.
func (h *ReminderHandler) GetRemindersForAppointment(c *gin.Context) {
	appointment, err := h.Appointments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && appointment.UserID != userID {
		utils.Forbidden(c, "You are not authorized to access this appointment")
		return
	}

	entries, err := h.Reminders.ListByAppointment(c.Request.Context(), appointment.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch reminders: "+err.Error())
		return
	}

	utils.Success(c, "Reminders fetched successfully", entries)
}

// ProcessDueReminders runs one due-reminder sweep immediately. Admin only;
// the periodic job does the same thing every few minutes.
func (h *ReminderHandler) ProcessDueReminders(c *gin.Context) {
	processed, errored := h.Sweep.Run(c.Request.Context())
	utils.Success(c, "Due reminders processed", gin.H{
		"processed": processed,
		"errored":   errored,
	})
}
