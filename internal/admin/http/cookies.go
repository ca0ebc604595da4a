package http

import (
	"net/http"

	"github.com/quizmehq/quizme/internal/admin/domain"
	"github.com/quizmehq/quizme/pkg/adminsdk"
)

// setAuthCookies mirrors the issued pair into cookies so the route
// guard can gate page navigation without reading client storage. Names
// and lifetimes match the SDK's mirror.
func setAuthCookies(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminsdk.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   adminsdk.AccessTokenCookieMaxAge,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     adminsdk.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   adminsdk.RefreshTokenCookieMaxAge,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both mirror cookies.
func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminsdk.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     adminsdk.RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	})
}
