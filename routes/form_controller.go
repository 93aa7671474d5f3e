package routes

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/metrics"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/report"
	"github.com/mbolis/patrol-report/session"
	"github.com/mbolis/patrol-report/status"
)

// stateResponse is the session state plus what the browser needs to redraw:
// the highlighted fields, every field re-rendered and the status panel.
type stateResponse struct {
	session.State
	Highlight []string          `json:"highlight"`
	Fields    map[string]string `json:"fields"`
	PanelHTML string            `json:"panelHtml"`
	Valid     *bool             `json:"valid,omitempty"`
}

func buildState(app app.App, s *session.Session) (stateResponse, error) {
	st := s.State()

	tree, err := app.Form.Build(st.Form())
	if err != nil {
		return stateResponse{}, err
	}
	rendered, err := form.RenderFields(tree)
	if err != nil {
		return stateResponse{}, err
	}
	var panel bytes.Buffer
	if err := status.Render(&panel, st.Panel()); err != nil {
		return stateResponse{}, errors.Wrap(err, "panel")
	}

	return stateResponse{
		State:     st,
		Highlight: app.Form.Highlighted(st.Form()),
		Fields:    rendered,
		PanelHTML: panel.String(),
	}, nil
}

func writeState(w http.ResponseWriter, r *http.Request, app app.App, s *session.Session) {
	resp, err := buildState(app, s)
	if err != nil {
		httpx.LogInternalError(w, "render.state", err)
		return
	}
	render.JSON(w, r, resp)
}

// formSession finds the session named by the request header.
func formSession(app app.App, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, err := app.Sessions.Get(id, r.Header.Get(SessionHeader))
	if err != nil {
		httpx.LogNotFound(w, "session.get", id)
		return nil, false
	}
	return s, true
}

// sessionError answers for a failed session operation. It returns false when
// there was no error to report.
func sessionError(w http.ResponseWriter, code string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrRejectedEvent),
		errors.Is(err, model.ErrInvalidStatus):
		httpx.LogStatusErr(w, http.StatusUnprocessableEntity, log.DebugLevel, code, err)
	case errors.Is(err, session.ErrClosed):
		httpx.LogStatusErr(w, http.StatusConflict, log.DebugLevel, code, err)
	case errors.Is(err, session.ErrNotFound):
		httpx.LogNotFound(w, code, err)
	default:
		httpx.LogInternalError(w, code, err)
	}
	return true
}

func OpenSession(app app.App) http.HandlerFunc {
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

		writeState(w, r, app, s)
	}
}

func PostEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := formSession(app, w, r)
		if !ok {
			return
		}

		var ev fields.Event
		if err := render.DecodeJSON(r.Body, &ev); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid event: %s", err)
			return
		}

		err := s.Apply(ev)
		metrics.FormEvent(string(ev.Action), err)
		if sessionError(w, "form.event", err) {
			return
		}

		writeState(w, r, app, s)
	}
}

func ValidateReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := formSession(app, w, r)
		if !ok {
			return
		}

		valid, err := s.Validate()
		if sessionError(w, "form.validate", err) {
			return
		}

		resp, err := buildState(app, s)
		if err != nil {
			httpx.LogInternalError(w, "render.state", err)
			return
		}
		resp.Valid = &valid
		render.JSON(w, r, resp)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func SetStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := formSession(app, w, r)
		if !ok {
			return
		}

		var req statusRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		st, err := model.ParseStatus(req.Status)
		if sessionError(w, "form.status", err) {
			return
		}
		if sessionError(w, "form.status", s.SetStatus(st)) {
			return
		}

		writeState(w, r, app, s)
	}
}

// CloseSession saves what is pending and ends the session, when the report
// view is left.
func CloseSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := app.Sessions.Close(id, r.Header.Get(SessionHeader))
		metrics.SetOpenSessions(app.Sessions.Len())
		if sessionError(w, "session.close", err) {
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
