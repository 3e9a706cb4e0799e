// Package domain contains entity without logic, just meta-data
package domain

import "strconv"

// AlleyID names one collaboration session. Alleys are not pre-registered;
// the first join creates them.
type AlleyID string

// DesignItem is an opaque client-owned object placed on the shared canvas.
// The server only cares about its "id" field.
type DesignItem map[string]any

// Key returns the item's identifier normalized to a string, or false when
// the item carries no usable "id" field. JSON numbers decode as float64,
// so numeric ids are normalized through FormatFloat.
func (i DesignItem) Key() (string, bool) {
	return NormalizeID(i["id"])
}

// NormalizeID maps a decoded JSON value to the string form used as an item
// key. Clients send ids as strings or numbers; anything else is unusable.
func NormalizeID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
