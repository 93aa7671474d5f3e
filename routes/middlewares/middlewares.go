package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/log"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// setTokenCookies stores a bearer server token response in the cookies
// read by CookieAuth and by the browser client, and returns the access
// token cookie.
func setTokenCookies(w http.ResponseWriter, tokens tokenResponse) *http.Cookie {
	access := &http.Cookie{
		Path:     "/",
		Name:     AccessTokenCookie,
		Value:    tokens.AccessToken,
		MaxAge:   int(tokens.ExpiresIn),
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, access)

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
	})
	return access
}

// ClearTokenCookies expires both token cookies.
func ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Grant posts a token request to the bearer server and holds its answer.
func Grant(bearerServer *oauth.BearerServer, body url.Values) httpx.ResponseBuffer {
	resp := httpx.NewResponseBuffer()

	encoded := body.Encode()
	req, err := http.NewRequest("POST", "/", strings.NewReader(encoded))
	if err != nil {
		httpx.LogInternalError(resp, "auth.grant.new_request", err)
		return resp
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(encoded)))

	bearerServer.UserCredentials(resp, req)
	return resp
}

// Patroller checks for the 'patroller' role in an OAuth token signed with
// secret.
func Patroller(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), patroller).Handler(next)
	}
}

func patroller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		if !HasRole(claims, httpx.RolePatroller) {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HasRole looks for role in the comma separated roles claim.
func HasRole(claims map[string]string, role string) bool {
	rolesClaim, ok := claims["roles"]
	if !ok {
		return false
	}
	for _, r := range strings.Split(rolesClaim, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "GET" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(AccessTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != 401 {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			// token was empty or unauthorized
			refreshToken, err := r.Cookie(RefreshTokenCookie)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}

				// refresh token was empty: redirect to login page
				w.Header().Set("location", loginLocation)
				w.WriteHeader(http.StatusTemporaryRedirect)
				return
			}

			resp := Grant(bearerServer, url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			})
			if resp.Status() == 401 {
				// redirect to login page
				w.Header().Set("location", loginLocation)
				ClearTokenCookies(w)
				w.WriteHeader(http.StatusTemporaryRedirect)
				return
			}
			if resp.Status() != 200 {
				http.Error(w, http.StatusText(resp.Status()), resp.Status())
				return
			}

			var tokens tokenResponse
			err = json.Unmarshal(resp.Body(), &tokens)
			if err != nil {
				httpx.LogInternalError(w, "auth.refresh.parse", err)
				return
			}
			token = setTokenCookies(w, tokens)

			r.Header.Set("authorization", "Bearer "+token.Value)
			h.ServeHTTP(w, r)
		})
	}
}
