package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// TimestampLayout is the ISO-8601 form used for ticket timestamps on the
// wire: UTC with millisecond precision, e.g. 2024-05-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reserved ticket keys.  They map to typed fields and never live in Extra.
const (
	KeyID        = "id"
	KeyCodigo    = "codigo"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// Ticket is a service request record.  The well-known fields are typed; every
// other attribute supplied by callers is kept verbatim in Extra and rendered
// at the top level of the JSON object.
//
// Fields:
//
//	ID        – sequential identifier, starting at 1.
//	Codigo    – display code, SR-YYYYMMDD-HHMMSS-XXXX.
//	CreatedAt – creation timestamp.
//	UpdatedAt – nil until the first update.
//	Extra     – open set of caller-supplied attributes.
type Ticket struct {
	ID        int64
	Codigo    string
	CreatedAt time.Time
	UpdatedAt *time.Time
	Extra     map[string]any
}

// IsReserved reports whether key maps to a typed Ticket field.
func IsReserved(key string) bool {
	switch key {
	case KeyID, KeyCodigo, KeyCreatedAt, KeyUpdatedAt:
		return true
	}
	return false
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clone returns a copy of the ticket whose Extra map can be modified without
// touching the original.  Nested attribute values are shared.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		out.UpdatedAt = &u
	}
	out.Extra = maps.Clone(t.Extra)
	return &out
}

// MarshalJSON flattens Extra next to the typed fields.
func (t Ticket) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Extra)+4)
	for k, v := range t.Extra {
		if !IsReserved(k) {
			m[k] = v
		}
	}
	m[KeyID] = t.ID
	m[KeyCodigo] = t.Codigo
	m[KeyCreatedAt] = FormatTimestamp(t.CreatedAt)
	if t.UpdatedAt != nil {
		m[KeyUpdatedAt] = FormatTimestamp(*t.UpdatedAt)
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON.  Unknown keys land in Extra.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Ticket
	for k, v := range raw {
		switch k {
		case KeyID:
			if err := json.Unmarshal(v, &out.ID); err != nil {
				return fmt.Errorf("ticket id: %w", err)
			}
		case KeyCodigo:
			if err := json.Unmarshal(v, &out.Codigo); err != nil {
				return fmt.Errorf("ticket codigo: %w", err)
			}
		case KeyCreatedAt:
			ts, err := parseTimestamp(v)
			if err != nil {
				return fmt.Errorf("ticket createdAt: %w", err)
			}
			out.CreatedAt = ts
		case KeyUpdatedAt:
			ts, err := parseTimestamp(v)
			if err != nil {
				return fmt.Errorf("ticket updatedAt: %w", err)
			}
			out.UpdatedAt = &ts
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[k] = val
		}
	}
	*t = out
	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
