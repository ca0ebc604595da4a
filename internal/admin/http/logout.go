package http

import (
	"net/http"

	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/pkg/httpx"
)

// LogoutHandler serves POST /api/auth/logout. Revocation is idempotent;
// the response is success whether or not the token was known.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearAuthCookies(w)
	httpx.WriteSuccess(w, http.StatusOK, nil, "Logged out successfully")
}
