package model

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid report status")

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Report is one accident report. On the wire the form data is flattened
// into the same object as the metadata keys.
type Report struct {
	ID                string    `json:"id"`
	DateCreated       time.Time `json:"dateCreated"`
	Status            Status    `json:"status"`
	UnavailableFields FieldSet  `json:"unavailableFields"`
	Data              FormData  `json:"-"`
}

var reservedKeys = map[string]bool{
	"id":                true,
	"dateCreated":       true,
	"status":            true,
	"unavailableFields": true,
}

func (r Report) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Data)+len(reservedKeys))
	for k, v := range r.Data {
		if !reservedKeys[k] {
			flat[k] = v
		}
	}
	flat["id"] = r.ID
	flat["dateCreated"] = r.DateCreated.UTC().Format(time.RFC3339Nano)
	flat["status"] = r.Status
	unavailable := r.UnavailableFields
	if unavailable == nil {
		unavailable = FieldSet{}
	}
	flat["unavailableFields"] = unavailable
	return json.Marshal(flat)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	meta := struct {
		ID                string   `json:"id"`
		DateCreated       string   `json:"dateCreated"`
		Status            Status   `json:"status"`
		UnavailableFields FieldSet `json:"unavailableFields"`
	}{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}

	*r = Report{
		ID:                meta.ID,
		Status:            meta.Status,
		UnavailableFields: meta.UnavailableFields,
		Data:              FormData{},
	}
	if r.Status == "" {
		r.Status = StatusInProgress
	}
	if meta.DateCreated != "" {
		created, err := time.Parse(time.RFC3339Nano, meta.DateCreated)
		if err != nil {
			return err
		}
		r.DateCreated = created
	}

	for k, raw := range flat {
		if reservedKeys[k] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if list, ok := v.([]any); ok {
			v = ToStrings(list)
		}
		r.Data[k] = v
	}
	return nil
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReportID returns an id of the form RPT-<YYYYMMDD>-<7 base36 chars>.
func NewReportID(now time.Time) (string, error) {
	var suffix strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < 7; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix.WriteByte(base36[n.Int64()])
	}
	return "RPT-" + now.Format("20060102") + "-" + suffix.String(), nil
}
