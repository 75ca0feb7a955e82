package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

const (
	csrfCookieName = "csrf_token"
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenBytes = 32
)

type csrfContextKey struct{}

// CSRFToken returns the request's CSRF token for embedding in forms.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// CSRF returns double-submit-cookie CSRF middleware. Every response
// carries a csrf_token cookie; mutating requests must echo the cookie's
// value in the csrf_token form field (or X-CSRF-Token header) or they are
// rejected with 403 before any handler logic runs. The secure flag marks
// the cookie Secure for production HTTPS deployments.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil {
				token = c.Value
			}
			if !validToken(token) {
				var err error
				token, err = generateToken()
				if err != nil {
					http.Error(w, "server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				// Safe methods pass through.
			default:
				submitted := r.Header.Get(csrfHeaderName)
				if submitted == "" {
					if err := parseTokenForm(r); err != nil {
						var tooLarge *http.MaxBytesError
						if errors.As(err, &tooLarge) {
							http.Error(w, "Request entity too large", http.StatusRequestEntityTooLarge)
							return
						}
						// Any other unparseable body simply carries no
						// token and fails the comparison below.
					}
					submitted = r.FormValue(csrfFieldName)
				}
				if !hmac.Equal([]byte(submitted), []byte(token)) || submitted == "" {
					http.Error(w, "Invalid or missing CSRF token", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseTokenForm parses either form encoding so the token field is
// readable. The parsed form stays cached on the request for the handler.
func parseTokenForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(16 << 20)
	}
	return r.ParseForm()
}

func generateToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func validToken(token string) bool {
	if len(token) != csrfTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
