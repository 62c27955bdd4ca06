package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=customer admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AuthHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewAuthHandler(service user.Service) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router, guard *Guard) {
	router.Post("/api/auth/register", h.handleRegister)
	router.Post("/api/auth/login", h.handleLogin)
	router.With(guard.Require(auth.OpViewProfile)).Get("/api/auth/me", h.handleMe)
	router.With(guard.Require(auth.OpListUsers)).Get("/api/auth/users", h.handleListUsers)
	router.Post("/api/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	role, err := auth.ParseRole(requestPayload.Role)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Register(r.Context(), user.RegisterInput{
		Name:     requestPayload.Name,
		Email:    requestPayload.Email,
		Password: requestPayload.Password,
		Role:     role,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	result, err := h.service.Login(r.Context(), requestPayload.Email, requestPayload.Password)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log in")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)

	found, err := h.service.GetUserByID(r.Context(), caller.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get current user")
		return
	}

	respondWithJSON(w, http.StatusOK, found.Public())
}

func (h *AuthHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list users")
		return
	}

	response := make([]user.PublicUser, 0, len(users))
	for i := range users {
		response = append(response, users[i].Public())
	}

	respondWithJSON(w, http.StatusOK, response)
}

// Tokens are stateless, so logging out only tells the client to drop its copy.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, LogoutResponse{Success: true, Message: "Logged out successfully"})
}
