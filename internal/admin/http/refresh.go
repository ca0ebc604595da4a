package http

import (
	"encoding/json"
	"net/http"

	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/pkg/adminsdk"
	"github.com/quizmehq/quizme/pkg/httpx"
)

// RefreshHandler serves POST /api/auth/refresh-token. The token comes
// from the request body, falling back to the mirror cookie so browser
// navigation can refresh without script involvement.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	res, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		// A rejected refresh ends the session; drop the mirror too.
		clearAuthCookies(w)
		writeServiceError(w, r, err)
		return
	}

	writeAuthSuccess(w, res, "Token refreshed")
}

func refreshTokenFromRequest(r *http.Request) string {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if c, err := r.Cookie(adminsdk.RefreshTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
