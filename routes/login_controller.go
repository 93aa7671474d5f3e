package routes

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login trades basic auth credentials for an access and a refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		resp := middlewares.Grant(app.BearerServer, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		if resp.Status() != http.StatusOK {
			log.WithFields(log.Fields{"user": user}).Info("login refused")
		}
		resp.Flush(w)
	}
}

// Refresh takes "Authorization: Refresh <token>". Each refresh token works
// once.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp := middlewares.Grant(app.BearerServer, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})
		resp.Flush(w)
	}
}

func Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middlewares.ClearTokenCookies(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
