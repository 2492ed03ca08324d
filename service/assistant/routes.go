package assistant

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/cmd/models"
	"github.com/medibook/medibook-server/service/ai"
	"gorm.io/gorm"
)

const recommenderPrompt = "You are an assistant that specializes in identifying the required medical doctor specialization based on symptoms. Provide only one word which is the specialization. For example, Cardiologist, Dermatologist, etc."

const assistantPrompt = "You are a medical assistant helping a patient prepare for their doctor's appointment. Based on the symptoms they provide, generate a concise list of questions they should ask their doctor and possible information they should prepare before the appointment. Keep responses short, brief and to the point. Ask one question at a time. Do not ask many questions."

type AssistantHandler struct {
	db *gorm.DB
	ai ai.Client
}

func NewAssistantHandler(db *gorm.DB, aiClient ai.Client) *AssistantHandler {
	return &AssistantHandler{db: db, ai: aiClient}
}

// RegisterRoutes sets up the open AI-assisted endpoints. Neither carries
// patient-identifying data, so no bearer token is required.
func (h *AssistantHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/recommend-doctor", h.RecommendDoctor).Methods("POST")
	router.HandleFunc("/virtual-assistant", h.VirtualAssistant).Methods("POST")
}

// RecommendDoctor maps free-text symptoms to a single specialization word
// via the AI collaborator, then matches it against registered doctors.
func (h *AssistantHandler) RecommendDoctor(w http.ResponseWriter, r *http.Request) {
	var recommenderRequest struct {
		Symptoms string `json:"symptoms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&recommenderRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	reply, err := h.ai.ChatCompletion([]ai.Message{
		{Role: "system", Content: recommenderPrompt},
		{Role: "user", Content: recommenderRequest.Symptoms},
	}, 10, 0.5)
	if err != nil {
		log.Printf("Error in AI recommendation request: %v", err)
		http.Error(w, "Failed to get a recommendation from AI.", http.StatusInternalServerError)
		return
	}

	specialization := strings.TrimSpace(reply)

	var doctors []models.Doctor
	if err := h.db.Preload("User").
		Where("LOWER(specialization) LIKE ?", "%"+strings.ToLower(specialization)+"%").
		Find(&doctors).Error; err != nil {
		http.Error(w, "Error retrieving doctors", http.StatusInternalServerError)
		return
	}

	if len(doctors) == 0 {
		http.Error(w, "No doctors found for the given specialization.", http.StatusNotFound)
		return
	}

	doctorsList := make([]map[string]interface{}, 0, len(doctors))
	for _, doctor := range doctors {
		username := "Unknown"
		if doctor.User != nil {
			username = doctor.User.Username
		}
		doctorsList = append(doctorsList, map[string]interface{}{
			"id":             doctor.ID,
			"user_id":        doctor.UserID,
			"username":       username,
			"specialization": doctor.Specialization,
			"experience":     doctor.Experience,
			"address":        doctor.Address,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"doctors": doctorsList,
	})
}

// VirtualAssistant forwards the caller's chat history to the AI
// collaborator and splits the reply into display-ready suggestion lines.
func (h *AssistantHandler) VirtualAssistant(w http.ResponseWriter, r *http.Request) {
	var assistantRequest struct {
		ChatHistory []ai.Message `json:"chatHistory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&assistantRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	messages := append([]ai.Message{
		{Role: "system", Content: assistantPrompt},
	}, assistantRequest.ChatHistory...)

	reply, err := h.ai.ChatCompletion(messages, 150, 0.7)
	if err != nil {
		log.Printf("Error communicating with AI collaborator: %v", err)
		http.Error(w, "Error generating response from AI", http.StatusInternalServerError)
		return
	}

	suggestions := formatAssistantReply(strings.TrimSpace(reply))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"suggestions": suggestions,
	})
}

// formatAssistantReply splits the reply on '*' into bulleted lines and
// labels the first line as the assistant's, matching what the web client
// renders.
func formatAssistantReply(text string) []string {
	parts := strings.Split(text, "*")
	formatted := []string{"<strong>Assistant:</strong> " + strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		formatted = append(formatted, "• "+strings.TrimSpace(part))
	}
	return strings.Split(strings.Join(formatted, "<br>"), "<br>")
}
