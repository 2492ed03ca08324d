package assistant

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
	"github.com/medibook/medibook-server/service/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubAI struct {
	calls    int
	messages []ai.Message
	reply    string
	err      error
}

func (s *stubAI) ChatCompletion(messages []ai.Message, maxTokens int, temperature float64) (string, error) {
	s.calls++
	s.messages = messages
	return s.reply, s.err
}

func setupTest(t *testing.T) (*gorm.DB, *stubAI, *mux.Router) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Doctor{}))

	stub := &stubAI{}
	router := mux.NewRouter()
	NewAssistantHandler(db, stub).RegisterRoutes(router)
	return db, stub, router
}

func createDoctor(t *testing.T, db *gorm.DB, specialization string) *models.User {
	t.Helper()
	username := "doctor_" + uuid.NewString()[:8]
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		Role:         models.RoleDoctor,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Doctor{
		UserID:         user.ID,
		Specialization: specialization,
		Qualification:  "MD",
		Experience:     7,
		Address:        "9 Practice Road",
	}).Error)
	return &user
}

func doRequest(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func recommendRequest(symptoms string) *http.Request {
	body, _ := json.Marshal(map[string]string{"symptoms": symptoms})
	return httptest.NewRequest("POST", "/recommend-doctor", bytes.NewReader(body))
}

func TestRecommendDoctor(t *testing.T) {
	db, stub, router := setupTest(t)
	cardiologist := createDoctor(t, db, "Cardiologist")
	createDoctor(t, db, "Dermatologist")

	stub.reply = "Cardiologist\n"

	rr := doRequest(router, recommendRequest("chest pain and shortness of breath"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, stub.calls)

	// System instruction goes first, caller symptoms after
	require.Len(t, stub.messages, 2)
	assert.Equal(t, "system", stub.messages[0].Role)
	assert.Equal(t, "chest pain and shortness of breath", stub.messages[1].Content)

	var response struct {
		Doctors []map[string]interface{} `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Doctors, 1)
	assert.Equal(t, "Cardiologist", response.Doctors[0]["specialization"])
	assert.Equal(t, cardiologist.Username, response.Doctors[0]["username"])
}

func TestRecommendDoctorMatchIsCaseInsensitive(t *testing.T) {
	db, stub, router := setupTest(t)
	createDoctor(t, db, "Cardiologist")

	stub.reply = "cardiologist"

	rr := doRequest(router, recommendRequest("chest pain"))
	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Doctors []map[string]interface{} `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Len(t, response.Doctors, 1)
}

func TestRecommendDoctorNoMatch(t *testing.T) {
	db, stub, router := setupTest(t)
	createDoctor(t, db, "Dermatologist")

	stub.reply = "Neurologist"

	rr := doRequest(router, recommendRequest("headaches"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "No doctors found for the given specialization.")
}

func TestRecommendDoctorAIFailure(t *testing.T) {
	_, stub, router := setupTest(t)
	stub.err = fmt.Errorf("upstream unavailable")

	rr := doRequest(router, recommendRequest("chest pain"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to get a recommendation from AI.")
}

func assistantRequest(history []ai.Message) *http.Request {
	body, _ := json.Marshal(map[string]interface{}{"chatHistory": history})
	return httptest.NewRequest("POST", "/virtual-assistant", bytes.NewReader(body))
}

func TestVirtualAssistant(t *testing.T) {
	_, stub, router := setupTest(t)
	stub.reply = "Here is how to prepare*Note when the pain started*Bring your medication list"

	rr := doRequest(router, assistantRequest([]ai.Message{
		{Role: "user", Content: "I have chest pain"},
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	// The caller's history is forwarded behind the system instruction
	require.Len(t, stub.messages, 2)
	assert.Equal(t, "system", stub.messages[0].Role)
	assert.Equal(t, "I have chest pain", stub.messages[1].Content)

	var response struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Suggestions, 3)
	assert.Equal(t, "<strong>Assistant:</strong> Here is how to prepare", response.Suggestions[0])
	assert.Equal(t, "• Note when the pain started", response.Suggestions[1])
	assert.Equal(t, "• Bring your medication list", response.Suggestions[2])
}

func TestVirtualAssistantSingleLineReply(t *testing.T) {
	_, stub, router := setupTest(t)
	stub.reply = "When did the symptoms start?"

	rr := doRequest(router, assistantRequest([]ai.Message{
		{Role: "user", Content: "I feel dizzy"},
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Suggestions, 1)
	assert.Equal(t, "<strong>Assistant:</strong> When did the symptoms start?", response.Suggestions[0])
}

func TestVirtualAssistantAIFailure(t *testing.T) {
	_, stub, router := setupTest(t)
	stub.err = fmt.Errorf("upstream unavailable")

	rr := doRequest(router, assistantRequest([]ai.Message{
		{Role: "user", Content: "hello"},
	}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error generating response from AI")
}
