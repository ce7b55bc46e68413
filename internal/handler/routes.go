package handler

import (
	"net/http"

	"github.com/Dan9191/quotation-service/internal/httputil"
	"github.com/Dan9191/quotation-service/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter registers every route and wraps the router in the middleware
// that must also see unmatched requests (CORS preflight, 404s).
func NewRouter(h *Handler, tokens middleware.TokenVerifier) http.Handler {
	r := mux.NewRouter()
	requireAuth := middleware.AuthMiddleware(tokens, h.log)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("", h.Index).Methods(http.MethodGet)

	// Public routes
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", h.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authRouter.Handle("/profile", requireAuth(http.HandlerFunc(h.Profile))).Methods(http.MethodGet)

	// Protected routes
	quotes := api.PathPrefix("/quotations").Subrouter()
	quotes.Use(requireAuth)
	quotes.HandleFunc("", h.ListQuotations).Methods(http.MethodGet)
	quotes.HandleFunc("", h.CreateQuotation).Methods(http.MethodPost)
	quotes.HandleFunc("/{id:[0-9]+}", h.UpdateQuotation).Methods(http.MethodPatch)
	quotes.HandleFunc("/{id:[0-9]+}/status", h.UpdateQuotationStatus).Methods(http.MethodPatch)
	quotes.Handle("/{id:[0-9]+}", middleware.AdminMiddleware(http.HandlerFunc(h.DeleteQuotation))).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var handler http.Handler = r
	handler = middleware.Recovery(h.log)(handler)
	handler = middleware.Logging(h.log)(handler)
	handler = middleware.RequestID(handler)
	return middleware.CORS(handler)
}
