package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/Dan9191/quotation-service/internal/httputil"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/Dan9191/quotation-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Version is reported by the API root endpoint.
const Version = "1.0.0"

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type authResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// signupRequest keeps role raw so a non-string value is coerced, not rejected.
type signupRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     json.RawMessage `json:"role"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RequestedRole(req.Role),
	})
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	res, err := h.svc.Login(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

// Profile returns the identity carried by the caller's token
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := httputil.UserFromContext(r.Context())
	if !ok {
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]models.PublicUser{"user": user})
}

// Index describes the API
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Quotation Management API",
		"version": Version,
		"auth":    "Quotation routes require an Authorization: Bearer <token> header; DELETE also requires the admin role",
		"endpoints": map[string]any{
			"auth": map[string]string{
				"signup":  "/api/auth/signup",
				"login":   "/api/auth/login",
				"profile": "/api/auth/profile",
			},
			"quotations": map[string]string{
				"get":    "/api/quotations",
				"post":   "/api/quotations",
				"patch":  "/api/quotations/:id",
				"delete": "/api/quotations/:id",
				"status": "/api/quotations/:id/status",
			},
		},
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation("Invalid quotation id")
	}
	return id, nil
}
