package routes

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/metrics"
	"github.com/mbolis/patrol-report/printer"
	"github.com/mbolis/patrol-report/report"
	"github.com/mbolis/patrol-report/status"
)

//go:embed templates
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderPage(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		httpx.LogInternalError(w, "render."+name, err)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "login", struct{ Title, Goto string }{"Sign in", r.URL.Query().Get("goto")})
	}
}

type listPage struct {
	Title   string
	Reports []reportSummary
}

func ReportsPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := app.Reports.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.list_reports", err)
			return
		}

		page := listPage{Title: app.Schema.Title, Reports: make([]reportSummary, len(reports))}
		for i, rep := range reports {
			page.Reports[i] = summarize(app, rep)
		}
		renderPage(w, "list", page)
	}
}

type reportPage struct {
	Title    string
	ReportID string
	Session  string
	Form     template.HTML
	Panel    template.HTML
}

func ReportPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s, err := app.Sessions.Open(r.Context(), id)
		if errors.Is(err, report.ErrNotFound) {
			httpx.LogNotFound(w, "session.open", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "session.open", err)
			return
		}
		metrics.SetOpenSessions(app.Sessions.Len())
		st := s.State()

		var formHTML, panelHTML bytes.Buffer
		if err := app.Form.Render(&formHTML, st.Form()); err != nil {
			httpx.LogInternalError(w, "render.form", err)
			return
		}
		if err := status.Render(&panelHTML, st.Panel()); err != nil {
			httpx.LogInternalError(w, "render.panel", err)
			return
		}

		renderPage(w, "report", reportPage{
			Title:    app.Schema.Title,
			ReportID: id,
			Session:  st.Token,
			Form:     template.HTML(formHTML.String()),
			Panel:    template.HTML(panelHTML.String()),
		})
	}
}

type printPage struct {
	Title    string
	Document template.HTML
}

// PrintPage renders the saved report, after saving any edit still pending.
func PrintPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := app.Sessions.Flush(id); err != nil {
			httpx.LogInternalError(w, "session.flush", err)
			return
		}
		rep, err := app.Reports.Get(r.Context(), id)
		if errors.Is(err, report.ErrNotFound) {
			httpx.LogNotFound(w, "db.get_report", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_report", err)
			return
		}

		doc := printer.Build(app.Schema, rep.Data, rep.UnavailableFields, rep.ID, app.Now())
		var buf bytes.Buffer
		if err := printer.Render(&buf, doc); err != nil {
			httpx.LogInternalError(w, "render.print", err)
			return
		}

		renderPage(w, "print", printPage{Title: doc.Title, Document: template.HTML(buf.String())})
	}
}
