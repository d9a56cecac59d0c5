package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes wires the system endpoints and, behind the Application-Secret
// check, the jobs, offers and invitations endpoints.
func SetupRoutes(srv *Server, secret, version, buildTime string) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	systemHandler := &SystemHandler{}

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// Protected routes
	api := r.NewRoute().Subrouter()
	api.Use(SecretMiddleware(secret))

	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("", srv.CreateJob).Methods("POST")
	jobs.HandleFunc("/search", srv.SearchJobs).Methods("GET")
	jobs.HandleFunc("/search/pagination", srv.PaginatedSearchJobs).Methods("GET")
	jobs.HandleFunc("/{id:[0-9]+}", srv.GetJob).Methods("GET")
	jobs.HandleFunc("/{id:[0-9]+}", srv.UpdateJob).Methods("PUT")
	jobs.HandleFunc("/{id:[0-9]+}/{action}", srv.JobAction).Methods("PUT")

	offers := api.PathPrefix("/offers").Subrouter()
	offers.HandleFunc("", srv.CreateOffer).Methods("POST")
	offers.HandleFunc("", srv.SearchOffers).Methods("GET")
	offers.HandleFunc("/pagination", srv.PaginatedSearchOffers).Methods("GET")
	offers.HandleFunc("/{id:[0-9]+}", srv.GetOffer).Methods("GET")
	offers.HandleFunc("/{id:[0-9]+}/{action}", srv.OfferAction).Methods("PUT")

	invitations := api.PathPrefix("/invitations").Subrouter()
	invitations.HandleFunc("", srv.CreateInvitation).Methods("POST")
	invitations.HandleFunc("", srv.SearchInvitations).Methods("GET")
	invitations.HandleFunc("/pagination", srv.PaginatedSearchInvitations).Methods("GET")
	invitations.HandleFunc("/{id:[0-9]+}", srv.GetInvitation).Methods("GET")
	invitations.HandleFunc("/{id:[0-9]+}/{action}", srv.InvitationAction).Methods("PUT")

	return r
}
