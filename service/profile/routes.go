package profile

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/cmd/models"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	db *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

func (h *ProfileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/patient-profile", h.CreatePatientProfile).Methods("POST")
	router.HandleFunc("/doctor-profile", h.CreateDoctorProfile).Methods("POST")
	router.HandleFunc("/doctors", h.GetAllDoctors).Methods("GET")
	router.HandleFunc("/doctors/{id}", h.GetDoctorByUserID).Methods("GET")
}

// CreatePatientProfile attaches a patient profile to an existing user.
// The user's role is not checked here; any existing user id is accepted.
func (h *ProfileHandler) CreatePatientProfile(w http.ResponseWriter, r *http.Request) {
	var profileRequest struct {
		UserID  uint   `json:"user_id"`
		Age     int    `json:"age"`
		Gender  string `json:"gender"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&profileRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	var user models.User
	if err := h.db.First(&user, profileRequest.UserID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var existingProfile models.Patient
	if err := h.db.Where("user_id = ?", profileRequest.UserID).First(&existingProfile).Error; err == nil {
		http.Error(w, "Patient profile already exists for this user", http.StatusBadRequest)
		return
	}

	patient := models.Patient{
		UserID:  profileRequest.UserID,
		Age:     profileRequest.Age,
		Gender:  profileRequest.Gender,
		Address: profileRequest.Address,
	}

	if err := h.db.Create(&patient).Error; err != nil {
		http.Error(w, "Error creating patient profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      patient.ID,
		"user_id": patient.UserID,
		"age":     patient.Age,
		"gender":  patient.Gender,
		"address": patient.Address,
	})
}

func (h *ProfileHandler) CreateDoctorProfile(w http.ResponseWriter, r *http.Request) {
	var profileRequest struct {
		UserID         uint   `json:"user_id"`
		Specialization string `json:"specialization"`
		Experience     int    `json:"experience"`
		Qualification  string `json:"qualification"`
		Address        string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&profileRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusUnprocessableEntity)
		return
	}

	var user models.User
	if err := h.db.First(&user, profileRequest.UserID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if user.Role != models.RoleDoctor {
		http.Error(w, "Only users with role 'doctor' can create a doctor profile", http.StatusBadRequest)
		return
	}

	var existingProfile models.Doctor
	if err := h.db.Where("user_id = ?", profileRequest.UserID).First(&existingProfile).Error; err == nil {
		http.Error(w, "Doctor profile already exists for this user", http.StatusBadRequest)
		return
	}

	doctor := models.Doctor{
		UserID:         profileRequest.UserID,
		Specialization: profileRequest.Specialization,
		Experience:     profileRequest.Experience,
		Qualification:  profileRequest.Qualification,
		Address:        profileRequest.Address,
	}

	if err := h.db.Create(&doctor).Error; err != nil {
		http.Error(w, "Error creating doctor profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctorResponse(&doctor, user.Username))
}

// GetAllDoctors lists every doctor joined with the owning username
func (h *ProfileHandler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	var doctors []models.Doctor
	if err := h.db.Preload("User").Find(&doctors).Error; err != nil {
		http.Error(w, "Error retrieving doctors", http.StatusInternalServerError)
		return
	}

	response := make([]map[string]interface{}, 0, len(doctors))
	for _, doctor := range doctors {
		username := "Unknown"
		if doctor.User != nil {
			username = doctor.User.Username
		}
		response = append(response, doctorResponse(&doctor, username))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetDoctorByUserID looks a doctor up by the owning user's id, not the
// profile row id
func (h *ProfileHandler) GetDoctorByUserID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	var doctor models.Doctor
	if err := h.db.Preload("User").Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}

	username := "Unknown"
	if doctor.User != nil {
		username = doctor.User.Username
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctorResponse(&doctor, username))
}

func doctorResponse(doctor *models.Doctor, username string) map[string]interface{} {
	return map[string]interface{}{
		"id":             doctor.ID,
		"user_id":        doctor.UserID,
		"specialization": doctor.Specialization,
		"experience":     doctor.Experience,
		"qualification":  doctor.Qualification,
		"address":        doctor.Address,
		"username":       username,
	}
}
