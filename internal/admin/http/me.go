package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/internal/admin/store"
	"github.com/quizmehq/quizme/pkg/httpx"
	"github.com/quizmehq/quizme/pkg/jwtx"
)

// MeHandler serves GET /api/auth/me. Unlike the guard's unverified
// expiry peek, this handler fully verifies the signature and claims
// before trusting the token.
type MeHandler struct {
	AuthService *service.AuthService
	Verifier    jwtx.Verifier
	Issuer      string
}

type meResponse struct {
	User userResponse `json:"user"`
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	claims, err := h.Verifier.Verify(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	if err := claims.ValidateIssuer(h.Issuer); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	if err := claims.ValidateExpiry(); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Access token expired")
		return
	}

	user, err := h.AuthService.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "Unknown account")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, meResponse{User: toUserResponse(user)}, "")
}
