package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/budgetflow/backend/src/logger"
)

const csrfCookieName = "_csrf_token"

// GetCSRFToken issues a fresh CSRF token as both a cookie and a response
// header/body, for the double-submit check in CSRFMiddleware.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := generateRandomToken()
	if err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		MaxAge:   int(time.Hour / time.Second),
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
}

// CSRFMiddleware enforces the double-submit cookie pattern: mutating
// requests must carry a header token matching the cookie token.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				hmac.Equal([]byte(headerToken), []byte(cookie.Value)) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF token validation failed",
				"method", r.Method, "path", r.URL.Path, "hasHeader", headerToken != "", "cookieErr", err)
			http.Error(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}

func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
