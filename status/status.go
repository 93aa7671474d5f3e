// Package status holds the reminder rules shown above a report and the
// completion panel built from the validation metrics.
package status

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/validation"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Severity string

const (
	Warning Severity = "warning"
	Alert   Severity = "alert"
)

type Rule struct {
	ID        string
	Severity  Severity
	Message   string
	Condition func(model.FormData) bool
}

type Reminder struct {
	ID       string   `json:"id"`
	Severity Severity `json:"type"`
	Message  string   `json:"message"`
}

func isMinor(d model.FormData) bool {
	age, ok := leadingInt(d.String("patientAge"))
	return ok && age < 18
}

// leadingInt reads the integer that s starts with once trimmed, so "17.5"
// and " 16" both count. It fails when no digit comes first.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

func hasHeadInjury(d model.FormData) bool {
	return d.Has("injuryTypes", "head")
}

func isStaff(d model.FormData) bool {
	g := d.String("guestType")
	return g == "staff" || g == "staff-off-duty"
}

// Rules are evaluated and shown in this order.
var Rules = []Rule{
	{
		ID:        "minor_patient",
		Severity:  Warning,
		Message:   "Patient is a minor - Remember to contact parent/guardian",
		Condition: isMinor,
	},
	{
		ID:        "head_injury",
		Severity:  Warning,
		Message:   "Head injury reported - Provide concussion information card",
		Condition: hasHeadInjury,
	},
	{
		ID:        "staff_injury",
		Severity:  Warning,
		Message:   "Staff injury reported - Notify supervisor",
		Condition: isStaff,
	},
	{
		ID:       "staff_involved_head_injury",
		Severity: Alert,
		Message:  "Staff member with head injury - Notify supervisor and Liz",
		Condition: func(d model.FormData) bool {
			return isStaff(d) && hasHeadInjury(d)
		},
	},
	{
		ID:       "severe_injury",
		Severity: Alert,
		Message:  "Severe injury - Ensure emergency services have been contacted",
		Condition: func(d model.FormData) bool {
			return d.String("injurySeverity") == "severe"
		},
	},
}

// Evaluate returns the reminders whose rule holds for data, in rule order.
func Evaluate(rules []Rule, data model.FormData) []Reminder {
	out := []Reminder{}
	for _, r := range rules {
		if r.Condition(data) {
			out = append(out, Reminder{ID: r.ID, Severity: r.Severity, Message: r.Message})
		}
	}
	return out
}

type Panel struct {
	ReportID   string                `json:"reportId"`
	Status     model.Status          `json:"status"`
	Metrics    validation.Metrics    `json:"metrics"`
	Reminders  []Reminder            `json:"reminders"`
	Incomplete []validation.FieldRef `json:"incompleteFields"`
}

func (p Panel) Completed() bool {
	return p.Status == model.StatusCompleted
}

func (p Panel) AllDone() bool {
	return p.Metrics.OverallPercentage == 100
}

// Statuses lists the choices of the status toggle.
func (Panel) Statuses() []model.Status {
	return []model.Status{model.StatusInProgress, model.StatusCompleted}
}

func Render(w io.Writer, p Panel) error {
	return templates.ExecuteTemplate(w, "panel", p)
}
