package app

import (
	"database/sql"
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/patrol-report/config"
	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/report"
	"github.com/mbolis/patrol-report/schema"
	"github.com/mbolis/patrol-report/session"
	"github.com/mbolis/patrol-report/validation"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Schema   *schema.Schema
	Engine   *validation.Engine
	Form     *form.Renderer
	Reports  *report.Repository
	Sessions *session.Manager
	Now      func() time.Time
}
