package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, *mux.Router) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Patient{}, &models.Doctor{}))

	router := mux.NewRouter()
	NewProfileHandler(db).RegisterRoutes(router)
	return db, router
}

func createUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	username := role + "_" + uuid.NewString()[:8]
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func doRequest(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreatePatientProfile(t *testing.T) {
	db, router := setupTest(t)
	patient := createUser(t, db, models.RolePatient)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": patient.ID,
		"age":     34,
		"gender":  "female",
		"address": "12 Clinic Road",
	})
	rr := doRequest(router, httptest.NewRequest("POST", "/patient-profile", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, float64(patient.ID), created["user_id"])
	assert.Equal(t, float64(34), created["age"])

	// Duplicate profile for the same user is rejected
	rr = doRequest(router, httptest.NewRequest("POST", "/patient-profile", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Patient profile already exists for this user")
}

func TestCreatePatientProfileUnknownUser(t *testing.T) {
	_, router := setupTest(t)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": 9999,
		"age":     40,
		"gender":  "male",
		"address": "Nowhere",
	})
	rr := doRequest(router, httptest.NewRequest("POST", "/patient-profile", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "User not found")
}

func TestCreatePatientProfileSkipsRoleCheck(t *testing.T) {
	db, router := setupTest(t)
	doctor := createUser(t, db, models.RoleDoctor)

	// A doctor's user id is accepted; the endpoint does not check roles
	body, _ := json.Marshal(map[string]interface{}{
		"user_id": doctor.ID,
		"age":     50,
		"gender":  "male",
		"address": "1 Hospital Way",
	})
	rr := doRequest(router, httptest.NewRequest("POST", "/patient-profile", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func doctorProfileBody(userID uint) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"user_id":        userID,
		"specialization": "Cardiologist",
		"experience":     12,
		"qualification":  "MD",
		"address":        "5 Heart Lane",
	})
	return body
}

func TestCreateDoctorProfile(t *testing.T) {
	db, router := setupTest(t)
	doctor := createUser(t, db, models.RoleDoctor)

	rr := doRequest(router, httptest.NewRequest("POST", "/doctor-profile", bytes.NewReader(doctorProfileBody(doctor.ID))))
	require.Equal(t, http.StatusOK, rr.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, doctor.Username, created["username"])
	assert.Equal(t, "Cardiologist", created["specialization"])

	rr = doRequest(router, httptest.NewRequest("POST", "/doctor-profile", bytes.NewReader(doctorProfileBody(doctor.ID))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Doctor profile already exists for this user")
}

func TestCreateDoctorProfileRejectsWrongRole(t *testing.T) {
	db, router := setupTest(t)
	patient := createUser(t, db, models.RolePatient)

	rr := doRequest(router, httptest.NewRequest("POST", "/doctor-profile", bytes.NewReader(doctorProfileBody(patient.ID))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Only users with role 'doctor' can create a doctor profile")
}

func TestGetDoctorRoundTrip(t *testing.T) {
	db, router := setupTest(t)
	doctor := createUser(t, db, models.RoleDoctor)

	rr := doRequest(router, httptest.NewRequest("POST", "/doctor-profile", bytes.NewReader(doctorProfileBody(doctor.ID))))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, httptest.NewRequest("GET", fmt.Sprintf("/doctors/%d", doctor.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, "Cardiologist", fetched["specialization"])
	assert.Equal(t, float64(12), fetched["experience"])
	assert.Equal(t, "MD", fetched["qualification"])
	assert.Equal(t, "5 Heart Lane", fetched["address"])
	assert.Equal(t, doctor.Username, fetched["username"])
}

func TestGetDoctorNotFound(t *testing.T) {
	_, router := setupTest(t)

	rr := doRequest(router, httptest.NewRequest("GET", "/doctors/424242", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Doctor not found")
}

func TestGetAllDoctors(t *testing.T) {
	db, router := setupTest(t)
	first := createUser(t, db, models.RoleDoctor)
	second := createUser(t, db, models.RoleDoctor)

	for _, u := range []*models.User{first, second} {
		rr := doRequest(router, httptest.NewRequest("POST", "/doctor-profile", bytes.NewReader(doctorProfileBody(u.ID))))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doRequest(router, httptest.NewRequest("GET", "/doctors", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var doctors []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doctors))
	assert.Len(t, doctors, 2)
	usernames := []string{doctors[0]["username"].(string), doctors[1]["username"].(string)}
	assert.Contains(t, usernames, first.Username)
	assert.Contains(t, usernames, second.Username)
}
