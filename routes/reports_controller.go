package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/metrics"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/report"
)

type reportSummary struct {
	ID                string       `json:"id"`
	DateCreated       time.Time    `json:"dateCreated"`
	Status            model.Status `json:"status"`
	PatientName       string       `json:"patientName"`
	Location          string       `json:"location"`
	OverallPercentage int          `json:"overallPercentage"`
}

func summarize(app app.App, rep model.Report) reportSummary {
	m := app.Engine.CalculateCompletion(rep.Data, rep.UnavailableFields)
	return reportSummary{
		ID:                rep.ID,
		DateCreated:       rep.DateCreated,
		Status:            rep.Status,
		PatientName:       rep.Data.String("patientName"),
		Location:          rep.Data.String("location"),
		OverallPercentage: m.OverallPercentage,
	}
}

func GetSchema(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Schema)
	}
}

func ListReports(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := app.Reports.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.list_reports", err)
			return
		}

		summaries := make([]reportSummary, len(reports))
		for i, rep := range reports {
			summaries[i] = summarize(app, rep)
		}
		render.JSON(w, r, summaries)
	}
}

func CreateReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := app.Reports.Create(r.Context(), app.Now())
		if err != nil {
			httpx.LogInternalError(w, "db.create_report", err)
			return
		}
		metrics.ReportCreated()
		log.ForReport(rep.ID).Info("report created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, rep)
	}
}

func GetReport(app app.App) http.HandlerFunc {
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

		render.JSON(w, r, rep)
	}
}

func DeleteReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		app.Sessions.Discard(id)
		metrics.SetOpenSessions(app.Sessions.Len())

		err := app.Reports.Delete(r.Context(), id)
		if errors.Is(err, report.ErrNotFound) {
			httpx.LogNotFound(w, "db.delete_report", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_report", err)
			return
		}
		metrics.ReportDeleted()
		log.ForReport(id).Info("report deleted")

		w.WriteHeader(http.StatusNoContent)
	}
}
