package http

import (
	"encoding/json"
	"net/http"

	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/pkg/httpx"
)

// RegisterHandler serves POST /api/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.AuthService.Register(r.Context(), service.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeAuthSuccess(w, res, "Registration successful")
}
