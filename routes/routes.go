package routes

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/metrics"
	"github.com/mbolis/patrol-report/routes/middlewares"
)

// SessionHeader carries the form session token on event requests.
const SessionHeader = "X-Form-Session"

const reportID = `{id:^RPT-\d+-[0-9A-Z]+$}`

//go:embed static
var staticFiles embed.FS

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer, metrics.Middleware)

	root.Mount("/api", apiRouter(app))
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/static/*", http.FileServer(http.FS(staticFiles)))
	root.Get("/login", LoginPage())
	root.Post("/logout", Logout())

	root.Group(func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Patroller(app.TokenSecret))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/reports", http.StatusFound)
		})
		r.Get("/reports", ReportsPage(app))
		r.Get("/reports/"+reportID, ReportPage(app))
		r.Get("/reports/"+reportID+"/print", PrintPage(app))
	})

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Patroller(app.TokenSecret))

		r.Get("/schema", GetSchema(app))

		// CRUD report
		r.Get("/reports", ListReports(app))
		r.Post("/reports", CreateReport(app))
		r.Get("/reports/"+reportID, GetReport(app))
		r.Delete("/reports/"+reportID, DeleteReport(app))

		// form session
		r.Post("/reports/"+reportID+"/session", OpenSession(app))
		r.Post("/reports/"+reportID+"/events", PostEvent(app))
		r.Post("/reports/"+reportID+"/validate", ValidateReport(app))
		r.Put("/reports/"+reportID+"/status", SetStatus(app))
		r.Post("/reports/"+reportID+"/close", CloseSession(app))
	})

	return api
}
