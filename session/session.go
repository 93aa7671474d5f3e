// Package session owns the data of a report while it is open in the
// browser: it applies UI events, tracks which fields were touched, keeps the
// visible errors and saves the report once edits settle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/fields"
	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/status"
	"github.com/mbolis/patrol-report/validation"
)

var (
	ErrUnknownField  = form.ErrUnknownField
	ErrRejectedEvent = form.ErrRejectedEvent
	ErrClosed        = errors.New("session closed")
	ErrNotFound      = errors.New("session not found")
)

const dateLayout = "2006-01-02"

type Saver interface {
	Save(ctx context.Context, rep model.Report) error
}

type Options struct {
	// AutosaveDelay is how long edits must settle before a save.
	AutosaveDelay time.Duration
	Rules         []status.Rule
	// OnSave, when set, sees the outcome of every save.
	OnSave func(err error)
	Now    func() time.Time
}

type Session struct {
	mu          sync.Mutex
	token       string
	report      model.Report
	data        model.FormData
	errors      validation.Errors
	touched     model.FieldSet
	unavailable model.FieldSet
	status      model.Status
	// pendingBlur is a radio group waiting for the next interaction
	// elsewhere before it is validated.
	pendingBlur string
	// version counts mutations, to tell them apart from pure blurs.
	version uint64
	closed  bool

	engine   *validation.Engine
	renderer *form.Renderer
	saver    Saver
	opts     Options

	saveMu   sync.Mutex
	autosave *Debouncer
}

func New(token string, rep model.Report, engine *validation.Engine, renderer *form.Renderer, saver Saver, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rules == nil {
		opts.Rules = status.Rules
	}
	data := rep.Data.Clone()
	s := &Session{
		token:       token,
		report:      rep,
		data:        data,
		errors:      validation.Errors{},
		touched:     model.FieldSet{},
		unavailable: append(model.FieldSet{}, rep.UnavailableFields...),
		status:      rep.Status,
		engine:      engine,
		renderer:    renderer,
		saver:       saver,
		opts:        opts,
	}
	s.autosave = NewDebouncer(opts.AutosaveDelay, s.save)
	return s
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) ReportID() string {
	return s.report.ID
}

// mutate runs fn under the lock and schedules a save if fn changed
// anything.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	before := s.version
	err := fn()
	changed := s.version != before
	s.mu.Unlock()

	if changed {
		s.autosave.Trigger()
	}
	return err
}

// Apply routes a UI event through the form's controls.
func (s *Session) Apply(ev fields.Event) error {
	return s.mutate(func() error {
		return s.renderer.Dispatch(host{s}, ev)
	})
}

func (s *Session) SetStatus(st model.Status) error {
	if _, err := model.ParseStatus(string(st)); err != nil {
		return err
	}
	return s.mutate(func() error {
		if s.status != st {
			s.status = st
			s.version++
		}
		return nil
	})
}

// Validate checks every field and makes every error visible.
func (s *Session) Validate() (valid bool, err error) {
	err = s.mutate(func() error {
		s.pendingBlur = ""
		s.errors, valid = s.engine.Validate(s.data)
		for _, name := range s.engine.Schema().Names() {
			s.touched = s.touched.Add(name)
		}
		return nil
	})
	return
}

func (s *Session) snapshotLocked() model.Report {
	rep := s.report
	rep.Data = s.data.Clone()
	rep.UnavailableFields = append(model.FieldSet{}, s.unavailable...)
	rep.Status = s.status
	return rep
}

func (s *Session) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	rep := s.snapshotLocked()
	s.mu.Unlock()

	err := s.saver.Save(context.Background(), rep)
	if err != nil {
		log.ForReport(rep.ID).Errorf("session.autosave: %s", err)
	} else {
		log.ForReport(rep.ID).Debug("session.autosave: saved")
	}
	if s.opts.OnSave != nil {
		s.opts.OnSave(err)
	}
	return err
}

// Flush saves right away if a save is pending, and waits for an autosave
// already under way.
func (s *Session) Flush() error {
	return s.autosave.Flush()
}

// Close flushes and stops the session. Further calls fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.Flush()
}

// discard stops the session dropping any pending save.
func (s *Session) discard() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.autosave.Stop()
}

type State struct {
	Token       string                `json:"session"`
	ReportID    string                `json:"reportId"`
	DateCreated time.Time             `json:"dateCreated"`
	Data        model.FormData        `json:"data"`
	Errors      validation.Errors     `json:"errors"`
	Unavailable model.FieldSet        `json:"unavailableFields"`
	Status      model.Status          `json:"status"`
	Metrics     validation.Metrics    `json:"metrics"`
	Incomplete  []validation.FieldRef `json:"incompleteFields"`
	Reminders   []status.Reminder     `json:"reminders"`
	Pending     bool                  `json:"pendingSave"`
}

// State is a snapshot with every derived value recomputed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := validation.Errors{}
	for name, msg := range s.errors {
		if s.touched.Has(name) {
			visible[name] = msg
		}
	}
	data := s.data.Clone()
	unavailable := append(model.FieldSet{}, s.unavailable...)

	return State{
		Token:       s.token,
		ReportID:    s.report.ID,
		DateCreated: s.report.DateCreated,
		Data:        data,
		Errors:      visible,
		Unavailable: unavailable,
		Status:      s.status,
		Metrics:     s.engine.CalculateCompletion(data, unavailable),
		Incomplete:  s.engine.IncompleteFields(data, unavailable),
		Reminders:   status.Evaluate(s.opts.Rules, data),
		Pending:     s.autosave.Pending(),
	}
}

func (st State) Form() form.State {
	return form.State{
		ReportID:    st.ReportID,
		Data:        st.Data,
		Errors:      st.Errors,
		Unavailable: st.Unavailable,
		Status:      st.Status,
	}
}

func (st State) Panel() status.Panel {
	return status.Panel{
		ReportID:   st.ReportID,
		Status:     st.Status,
		Metrics:    st.Metrics,
		Reminders:  st.Reminders,
		Incomplete: st.Incomplete,
	}
}

// host applies dispatched updates to a session whose lock is held.
type host struct {
	s *Session
}

func (h host) Value(name string) any {
	return h.s.data[name]
}

func (h host) Change(u fields.Update) {
	s := h.s
	if s.unavailable.Has(u.Name) {
		log.Debugf("session.change: %s is unavailable", u.Name)
		return
	}

	if s.pendingBlur != "" && s.pendingBlur != u.Name {
		h.Blur(s.pendingBlur)
	}

	s.data[u.Name] = u.Value
	delete(s.errors, u.Name)
	s.touched = s.touched.Add(u.Name)
	if u.Blur == fields.BlurDeferred {
		s.pendingBlur = u.Name
	}
	h.stamp(u.Name)
	s.version++
}

// stamp dates the readonly fields stamped by source: today while source
// holds a value, empty otherwise.
func (h host) stamp(source string) {
	s := h.s
	for _, f := range s.engine.Schema().Fields() {
		if f.StampedBy != source {
			continue
		}
		if model.IsEmpty(s.data[source]) {
			delete(s.data, f.Name)
		} else if model.IsEmpty(s.data[f.Name]) {
			s.data[f.Name] = s.opts.Now().Format(dateLayout)
		}
	}
}

func (h host) Blur(name string) {
	s := h.s
	if s.pendingBlur != "" && s.pendingBlur != name {
		pending := s.pendingBlur
		s.pendingBlur = ""
		h.Blur(pending)
	}
	s.touched = s.touched.Add(name)
	s.engine.ValidateOnBlur(s.errors, s.data, name)
	if s.pendingBlur == name {
		s.pendingBlur = ""
	}
}

// ToggleAvailability flips name in or out of the unavailable set. Going
// unavailable clears the value for good.
func (h host) ToggleAvailability(name string) {
	s := h.s
	f := s.engine.Schema().FieldByName(name)
	if f == nil {
		return
	}

	if s.unavailable.Has(name) {
		s.unavailable = s.unavailable.Remove(name)
	} else {
		s.unavailable = s.unavailable.Add(name)
		s.data[name] = f.EmptyValue()
		delete(s.errors, name)
		if s.pendingBlur == name {
			s.pendingBlur = ""
		}
		h.stamp(name)
	}
	s.version++
}
