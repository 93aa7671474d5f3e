package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/patrol-report/app"
	"github.com/mbolis/patrol-report/config"
	"github.com/mbolis/patrol-report/database"
	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/httpx"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/metrics"
	"github.com/mbolis/patrol-report/report"
	"github.com/mbolis/patrol-report/routes"
	"github.com/mbolis/patrol-report/schema"
	"github.com/mbolis/patrol-report/session"
	"github.com/mbolis/patrol-report/status"
	"github.com/mbolis/patrol-report/store"
	"github.com/mbolis/patrol-report/validation"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	log.Configure(cfg.Debug, cfg.LogJSON)

	sc, err := loadSchema(cfg)
	if err != nil {
		log.Fatal("main.schema:", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.PatrollerPassword != "" {
		err = database.SavePatroller(context.Background(), db, cfg.PatrollerUser, cfg.PatrollerPassword)
		if err != nil {
			log.Fatal("main.db.patroller:", err)
		}
	}

	st, err := openStore(cfg, db)
	if err != nil {
		log.Fatal("main.store:", err)
	}
	defer st.Close()

	engine := validation.New(sc)
	renderer := form.New(sc, fields.NewRegistry())
	reports := report.NewRepository(st, sc)
	sessions := session.NewManager(reports, engine, renderer, session.Options{
		AutosaveDelay: cfg.AutosaveDelay,
		Rules:         status.Rules,
		OnSave:        metrics.Autosave,
	})

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Schema:       sc,
		Engine:       engine,
		Form:         renderer,
		Reports:      reports,
		Sessions:     sessions,
		Now:          time.Now,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeTokens(ctx, db)

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}

	if err := sessions.CloseAll(); err != nil {
		log.Error("main.sessions.close:", err)
	}
}

func loadSchema(cfg config.Config) (*schema.Schema, error) {
	sc := schema.AccidentReport
	if cfg.SchemaFile != "" {
		var err error
		sc, err = schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
	}
	return sc, sc.Check()
}

func openStore(cfg config.Config, db *sql.DB) (store.Store, error) {
	switch cfg.Store {
	case config.StoreLevelDB:
		return store.OpenLevelDB(cfg.LevelDBPath)
	case config.StoreMemory:
		return store.NewMemory(), nil
	default:
		return store.NewSQLite(db), nil
	}
}

func purgeTokens(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		n, err := database.PurgeTokens(ctx, db, time.Now())
		if err != nil {
			log.Warn("main.tokens.purge:", err)
		} else if n > 0 {
			log.Debugf("main.tokens.purge: %d expired", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
