package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/quizmehq/quizme/internal/admin/domain"
	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/pkg/httpx"
	"github.com/quizmehq/quizme/pkg/slogx"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func writeAuthSuccess(w http.ResponseWriter, res *service.AuthResult, message string) {
	setAuthCookies(w, res.Pair)
	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, authResponse{
		AccessToken:  res.Pair.AccessToken,
		RefreshToken: res.Pair.RefreshToken,
		User:         toUserResponse(res.User),
	}, message)
}

// writeServiceError maps service sentinels to envelope responses. The
// messages are user-facing; UIs surface them verbatim.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		httpx.WriteError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrUserDisabled):
		httpx.WriteError(w, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, "Username is already taken")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "Email is already registered")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
