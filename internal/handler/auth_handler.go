package handler

import (
	"context"
	"errors"
	"net/http"

	"go-task-manager/internal/middleware"
	"go-task-manager/internal/model"
	"go-task-manager/internal/service"
)

type authService interface {
	Register(ctx context.Context, username string, email string, password string) (model.AuthResult, error)
	Login(ctx context.Context, username string, password string) (model.AuthResult, error)
	Verify(raw string) (model.Claims, error)
}

type AuthHandler struct {
	service      authService
	maxBodyBytes int64
}

func NewAuthHandler(service authService, maxBodyBytes int64) *AuthHandler {
	return &AuthHandler{service: service, maxBodyBytes: maxBodyBytes}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Register(withClientIP(r), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(withClientIP(r), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// Verify answers the gateway. Every failure, including an unreadable body,
// is a 401 with valid:false so callers never mistake it for an outage.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload model.VerifyRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &payload); err != nil {
		writeInvalidToken(w, "BAD_REQUEST", "invalid JSON body")
		return
	}

	claims, err := h.service.Verify(payload.Token)
	if err != nil {
		code := "INVALID_TOKEN"
		if errors.Is(err, model.ErrTokenExpired) {
			code = "TOKEN_EXPIRED"
		}
		writeInvalidToken(w, code, "Invalid token")
		return
	}

	writeSuccess(w, http.StatusOK, model.VerifyResponse{Valid: true, User: &claims})
}

func writeInvalidToken(w http.ResponseWriter, code string, message string) {
	writeSuccess(w, http.StatusUnauthorized, model.VerifyResponse{
		Valid: false,
		Error: &model.APIError{Code: code, Message: message},
	})
}

func withClientIP(r *http.Request) context.Context {
	return service.WithClientIP(r.Context(), middleware.ClientIP(r))
}
