package appointment

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/cmd/models"
	"github.com/medibook/medibook-server/cmd/utils"
	"gorm.io/gorm"
)

type AppointmentHandler struct {
	db *gorm.DB

	// Optional policy toggles, both off by default. The permissive
	// behavior is the contract; these close two known gaps for
	// deployments that want them closed.
	strictDoubleBooking      bool
	strictFeedbackCompletion bool
}

func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{
		db:                       db,
		strictDoubleBooking:      os.Getenv("STRICT_DOUBLE_BOOKING") == "true",
		strictFeedbackCompletion: os.Getenv("STRICT_FEEDBACK_COMPLETION") == "true",
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointment", h.BookAppointment).Methods("POST")
	router.HandleFunc("/dashboard/appointments", h.GetPatientAppointments).Methods("GET")
	router.HandleFunc("/appointments/{id}/cancel", h.CancelAppointment).Methods("PUT")
	router.HandleFunc("/appointments/{id}/feedback", h.SubmitFeedback).Methods("PUT")
	router.HandleFunc("/doctor/appointments", h.GetDoctorAppointments).Methods("GET")
	router.HandleFunc("/appointments/{id}/complete", h.CompleteAppointment).Methods("PATCH")
	router.HandleFunc("/appointments/{id}/cancel", h.CancelAppointmentByDoctor).Methods("PATCH")
}

// requireRole resolves the bearer token to a user and checks the role the
// endpoint demands. Every failure collapses into the same 401 message.
func (h *AppointmentHandler) requireRole(w http.ResponseWriter, r *http.Request, role string) (*models.User, bool) {
	user, err := utils.AuthorizedUser(h.db, r, role)
	if err != nil {
		http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

func appointmentIDFromRequest(w http.ResponseWriter, r *http.Request) (uint, bool) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return 0, false
	}
	return uint(appointmentID), true
}

func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}

	var bookingRequest struct {
		DoctorID            uint      `json:"doctor_id"`
		AppointmentDatetime time.Time `json:"appointment_datetime"`
		Reason              string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&bookingRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	if h.strictDoubleBooking {
		var existing models.Appointment
		if err := h.db.Where("doctor_id = ? AND appointment_datetime = ? AND is_cancelled = ?",
			bookingRequest.DoctorID, bookingRequest.AppointmentDatetime, false).
			First(&existing).Error; err == nil {
			http.Error(w, "Doctor is already booked at this time", http.StatusBadRequest)
			return
		}
	}

	appointment := models.Appointment{
		DoctorID:            bookingRequest.DoctorID,
		PatientID:           user.ID,
		AppointmentDatetime: bookingRequest.AppointmentDatetime,
		Reason:              bookingRequest.Reason,
	}

	if err := h.db.Create(&appointment).Error; err != nil {
		http.Error(w, "Error creating appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// GetPatientAppointments buckets the caller's appointments into upcoming,
// past and cancelled. The cancelled flag wins over everything; a row that
// is neither cancelled, completed nor in the future lands in no bucket.
func (h *AppointmentHandler) GetPatientAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}

	var appointments []models.Appointment
	if err := h.db.Where("patient_id = ?", user.ID).Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	upcoming := []map[string]interface{}{}
	past := []map[string]interface{}{}
	cancelled := []map[string]interface{}{}

	for _, appointment := range appointments {
		doctorName := h.doctorUsername(appointment.DoctorID)

		entry := map[string]interface{}{
			"id":                   appointment.ID,
			"doctor_id":            appointment.DoctorID,
			"doctor_name":          doctorName,
			"appointment_datetime": appointment.AppointmentDatetime,
			"reason":               appointment.Reason,
		}

		switch {
		case appointment.IsCancelled:
			cancelled = append(cancelled, entry)
		case !appointment.AppointmentDatetime.Before(now) && !appointment.IsCompleted:
			upcoming = append(upcoming, entry)
		case appointment.IsCompleted:
			entry["is_completed"] = appointment.IsCompleted
			entry["feedback"] = appointment.Feedback
			past = append(past, entry)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upcoming":  upcoming,
		"past":      past,
		"cancelled": cancelled,
	})
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}
	appointmentID, ok := appointmentIDFromRequest(w, r)
	if !ok {
		return
	}

	// Scoping the lookup to the caller makes a foreign appointment
	// indistinguishable from a missing one.
	var appointment models.Appointment
	if err := h.db.Where("id = ? AND patient_id = ?", appointmentID, user.ID).
		First(&appointment).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if appointment.IsCancelled {
		http.Error(w, "Appointment is already cancelled", http.StatusBadRequest)
		return
	}

	if err := h.db.Model(&appointment).Update("is_cancelled", true).Error; err != nil {
		http.Error(w, "Error cancelling appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Appointment cancelled successfully",
	})
}

// SubmitFeedback overwrites the feedback text on one of the caller's
// appointments. Completion is not a precondition unless the strict
// toggle is set.
func (h *AppointmentHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}
	appointmentID, ok := appointmentIDFromRequest(w, r)
	if !ok {
		return
	}

	var feedbackRequest struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&feedbackRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	var appointment models.Appointment
	if err := h.db.Where("id = ? AND patient_id = ?", appointmentID, user.ID).
		First(&appointment).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if h.strictFeedbackCompletion && !appointment.IsCompleted {
		http.Error(w, "Feedback can only be submitted for completed appointments", http.StatusBadRequest)
		return
	}

	if err := h.db.Model(&appointment).Update("feedback", feedbackRequest.Feedback).Error; err != nil {
		http.Error(w, "Error submitting feedback", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Feedback submitted successfully",
	})
}

// GetDoctorAppointments buckets the caller's appointments into upcoming,
// completed and cancelled, with the same precedence and silent drop as
// the patient dashboard: cancelled first, then completed, then future.
func (h *AppointmentHandler) GetDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	var appointments []models.Appointment
	if err := h.db.Where("doctor_id = ?", user.ID).Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	upcoming := []map[string]interface{}{}
	completed := []map[string]interface{}{}
	cancelled := []map[string]interface{}{}

	for _, appointment := range appointments {
		entry := map[string]interface{}{
			"id":                   appointment.ID,
			"patient_name":         h.patientUsername(appointment.PatientID),
			"appointment_datetime": appointment.AppointmentDatetime,
			"reason":               appointment.Reason,
			"feedback":             appointment.Feedback,
		}

		switch {
		case appointment.IsCancelled:
			cancelled = append(cancelled, entry)
		case appointment.IsCompleted:
			completed = append(completed, entry)
		case !appointment.AppointmentDatetime.Before(now):
			upcoming = append(upcoming, entry)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upcoming":  upcoming,
		"completed": completed,
		"cancelled": cancelled,
	})
}

func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}
	appointmentID, ok := appointmentIDFromRequest(w, r)
	if !ok {
		return
	}

	var appointment models.Appointment
	if err := h.db.Where("id = ? AND doctor_id = ?", appointmentID, user.ID).
		First(&appointment).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if appointment.IsCompleted {
		http.Error(w, "Appointment is already completed", http.StatusBadRequest)
		return
	}

	if err := h.db.Model(&appointment).Update("is_completed", true).Error; err != nil {
		http.Error(w, "Error completing appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Appointment marked as completed successfully",
	})
}

func (h *AppointmentHandler) CancelAppointmentByDoctor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}
	appointmentID, ok := appointmentIDFromRequest(w, r)
	if !ok {
		return
	}

	var appointment models.Appointment
	if err := h.db.Where("id = ? AND doctor_id = ?", appointmentID, user.ID).
		First(&appointment).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if appointment.IsCancelled {
		http.Error(w, "Appointment is already cancelled", http.StatusBadRequest)
		return
	}

	if err := h.db.Model(&appointment).Update("is_cancelled", true).Error; err != nil {
		http.Error(w, "Error cancelling appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Appointment cancelled successfully",
	})
}

func (h *AppointmentHandler) doctorUsername(doctorUserID uint) string {
	var doctor models.Doctor
	if err := h.db.Preload("User").Where("user_id = ?", doctorUserID).First(&doctor).Error; err != nil || doctor.User == nil {
		return "Unknown"
	}
	return doctor.User.Username
}

func (h *AppointmentHandler) patientUsername(patientUserID uint) string {
	var patient models.Patient
	if err := h.db.Preload("User").Where("user_id = ?", patientUserID).First(&patient).Error; err != nil || patient.User == nil {
		return "Unknown"
	}
	return patient.User.Username
}
