package feedback

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/cmd/models"
	"github.com/medibook/medibook-server/cmd/utils"
	"github.com/medibook/medibook-server/service/ai"
	"gorm.io/gorm"
)

const noFeedbackSummary = "No feedbacks available."

const summaryPrompt = "Summarize the following patient feedbacks into short phrases that can be directly displayed under 'Feedback Insights' on a website. Do not include any introductory phrases, headers, or follow-up questions, and avoid phrases like 'Here is a summary'. Only provide the key feedback points. This summary is intended for doctor to improve his service. So the response should be addressed to a doctor. Remember not to include any introductory phrases, headers, or follow-up questions. Feedbacks: %s"

type FeedbackHandler struct {
	db *gorm.DB
	ai ai.Client
}

func NewFeedbackHandler(db *gorm.DB, aiClient ai.Client) *FeedbackHandler {
	return &FeedbackHandler{db: db, ai: aiClient}
}

func (h *FeedbackHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/doctors/{id}/feedbacks", h.GetDoctorFeedbacks).Methods("GET")
	router.HandleFunc("/doctor/feedback-summary", h.GetFeedbackSummary).Methods("GET")
}

// GetDoctorFeedbacks lists every non-null feedback left on a doctor's
// appointments, keyed by the doctor's user id
func (h *FeedbackHandler) GetDoctorFeedbacks(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorUserID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	var doctor models.Doctor
	if err := h.db.Where("user_id = ?", doctorUserID).First(&doctor).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}

	var appointments []models.Appointment
	if err := h.db.Where("doctor_id = ? AND feedback IS NOT NULL", doctorUserID).
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving feedbacks", http.StatusInternalServerError)
		return
	}

	feedbacks := make([]map[string]interface{}, 0, len(appointments))
	for _, appointment := range appointments {
		feedbacks = append(feedbacks, map[string]interface{}{
			"id":       appointment.ID,
			"feedback": appointment.Feedback,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(feedbacks)
}

// GetFeedbackSummary condenses all of the calling doctor's feedback into a
// few display-ready phrases. With no feedback on file the fixed sentinel
// is returned and the AI collaborator is never called.
func (h *FeedbackHandler) GetFeedbackSummary(w http.ResponseWriter, r *http.Request) {
	user, err := utils.AuthorizedUser(h.db, r, models.RoleDoctor)
	if err != nil {
		http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}

	var appointments []models.Appointment
	if err := h.db.Where("doctor_id = ? AND feedback IS NOT NULL", user.ID).
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving feedbacks", http.StatusInternalServerError)
		return
	}

	feedbacks := make([]string, 0, len(appointments))
	for _, appointment := range appointments {
		if appointment.Feedback != nil && *appointment.Feedback != "" {
			feedbacks = append(feedbacks, *appointment.Feedback)
		}
	}

	if len(feedbacks) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"summary": noFeedbackSummary,
		})
		return
	}

	prompt := fmt.Sprintf(summaryPrompt, strings.Join(feedbacks, "; "))
	reply, err := h.ai.ChatCompletion([]ai.Message{
		{Role: "user", Content: prompt},
	}, 150, 0.7)
	if err != nil {
		log.Printf("Error generating feedback summary: %v", err)
		http.Error(w, "Error generating feedback summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"summary": strings.TrimSpace(reply),
	})
}
