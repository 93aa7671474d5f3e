// Package report keeps the list of accident reports under a single store
// key, newest first.
package report

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/schema"
	"github.com/mbolis/patrol-report/store"
)

var ErrNotFound = errors.New("report not found")

// IDField is the readonly field that shows a report its own id.
const IDField = "reportId"

type Repository struct {
	mu     sync.Mutex
	store  store.Store
	schema *schema.Schema
}

func NewRepository(s store.Store, sc *schema.Schema) *Repository {
	return &Repository{store: s, schema: sc}
}

// load reads the list. A missing or unreadable list is an empty one.
func (r *Repository) load(ctx context.Context) ([]model.Report, error) {
	raw, err := r.store.Get(ctx, store.ReportsKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []model.Report{}, nil
	}

	var reports []model.Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		log.WithFields(log.Fields{"key": store.ReportsKey}).
			Warnf("report.load: discarding unreadable list: %s", err)
		return []model.Report{}, nil
	}
	if reports == nil {
		reports = []model.Report{}
	}
	return reports, nil
}

func (r *Repository) write(ctx context.Context, reports []model.Report) error {
	raw, err := json.Marshal(reports)
	if err != nil {
		return errors.Wrap(err, "encode reports")
	}
	return r.store.Set(ctx, store.ReportsKey, raw)
}

func (r *Repository) List(ctx context.Context) ([]model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Create starts a new report from the schema defaults.
func (r *Repository) Create(ctx context.Context, now time.Time) (model.Report, error) {
	id, err := model.NewReportID(now)
	if err != nil {
		return model.Report{}, errors.Wrap(err, "new report id")
	}

	rep := model.Report{
		ID:                id,
		DateCreated:       now,
		Status:            model.StatusInProgress,
		UnavailableFields: model.FieldSet{},
		Data:              r.schema.InitialData(now),
	}
	if r.schema.FieldByName(IDField) != nil {
		rep.Data[IDField] = id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load(ctx)
	if err != nil {
		return model.Report{}, err
	}
	reports = append([]model.Report{rep}, reports...)
	if err := r.write(ctx, reports); err != nil {
		return model.Report{}, err
	}
	return rep, nil
}

func (r *Repository) Get(ctx context.Context, id string) (model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load(ctx)
	if err != nil {
		return model.Report{}, err
	}
	for _, rep := range reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return model.Report{}, errors.Wrapf(ErrNotFound, "%q", id)
}

// Save replaces the stored report with the same id.
func (r *Repository) Save(ctx context.Context, rep model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range reports {
		if reports[i].ID == rep.ID {
			reports[i] = rep
			return r.write(ctx, reports)
		}
	}
	return errors.Wrapf(ErrNotFound, "%q", rep.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range reports {
		if reports[i].ID == id {
			reports = append(reports[:i], reports[i+1:]...)
			return r.write(ctx, reports)
		}
	}
	return errors.Wrapf(ErrNotFound, "%q", id)
}
