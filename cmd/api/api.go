package api

import (
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/medibook/medibook-server/service/ai"
	"github.com/medibook/medibook-server/service/appointment"
	"github.com/medibook/medibook-server/service/assistant"
	"github.com/medibook/medibook-server/service/feedback"
	"github.com/medibook/medibook-server/service/profile"
	"github.com/medibook/medibook-server/service/user"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()

	aiClient := ai.NewGroqClient()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(router)

	profileHandler := profile.NewProfileHandler(s.db)
	profileHandler.RegisterRoutes(router)

	appointmentHandler := appointment.NewAppointmentHandler(s.db)
	appointmentHandler.RegisterRoutes(router)

	feedbackHandler := feedback.NewFeedbackHandler(s.db, aiClient)
	feedbackHandler.RegisterRoutes(router)

	assistantHandler := assistant.NewAssistantHandler(s.db, aiClient)
	assistantHandler.RegisterRoutes(router)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, corsHandler(router))
}
