package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is the flat field-to-scalar snapshot of a lead or client that
// triggered a workflow. It is never mutated by the engine.
type Record map[string]any

// EntityType is the kind of store entity a Record was taken from.
type EntityType string

const (
	EntityLead   EntityType = "lead"
	EntityClient EntityType = "client"
)

// Has reports whether field is present, even when its value is nil.
func (r Record) Has(field string) bool {
	_, ok := r[field]

	return ok
}

// ID returns the numeric id of the record.
func (r Record) ID() (int64, bool) {
	return ToInt64(r["id"])
}

// Entity infers whether the record is a lead or a client from its conversion
// field. Records carrying neither field are treated as leads.
func (r Record) Entity() EntityType {
	if r.Has("converted_from_lead_id") {
		return EntityClient
	}

	return EntityLead
}

// String returns the stringified value of field, or "" when absent.
func (r Record) String(field string) string {
	return Stringify(r[field])
}

// Stringify renders a scalar the way it is compared and substituted.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case *int64:
		if v == nil {
			return ""
		}

		return strconv.FormatInt(*v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}

		return v.UTC().Format(time.RFC3339)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(data)
	}
}

// ToFloat converts numbers and numeric strings to float64.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case *int64:
		if v == nil {
			return 0, false
		}

		return float64(*v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// ToInt64 converts integral numbers and numeric strings to int64.
func ToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)

		return id, err == nil
	}

	f, ok := ToFloat(value)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}

	return int64(f), true
}
