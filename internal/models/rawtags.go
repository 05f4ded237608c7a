package models

import (
	"fmt"
	"strconv"
)

// RawTags is the tag dictionary produced by the metadata extractor. Keys are
// namespaced ("EXIF:Orientation", "File:MIMEType"); values are one of string,
// int64, float64 or nil. Numeric EXIF values arrive as native numbers, not
// EXIF-encoded strings.
type RawTags map[string]interface{}

// Has reports whether the key is present with a non-nil value
func (t RawTags) Has(key string) bool {
	v, ok := t[key]
	return ok && v != nil
}

// String returns the value rendered as a string
func (t RawTags) String(key string) (string, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// Int returns the value as an integer if it is numeric or a numeric string
func (t RawTags) Int(key string) (int, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		if i, err := strconv.Atoi(val); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// Float returns the value as a float64 if it is numeric or a numeric string
func (t RawTags) Float(key string) (float64, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
