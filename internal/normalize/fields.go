// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package normalize

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/goccy/go-json"
)

// record is a decoded raw object with keys folded by foldKey.
type record map[string]any

// foldKey maps vesselType, vessel_type, Vessel-Type and VESSELTYPE to the same key.
func foldKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		switch {
		case r == '_' || r == '-' || r == ' ':
			continue
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func decodeRecord(raw []byte) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errNotObject
	}
	return fold(m), nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const errNotObject = decodeError("record is not a JSON object")

func fold(m map[string]any) record {
	out := make(record, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = fold(nested)
		}
		out[foldKey(k)] = v
	}
	return out
}

// lookup returns the first present, non-null value among the aliases.
// An alias may address a nested object with a dot: "position.lat".
func (r record) lookup(aliases ...string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := r.path(alias); ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (r record) path(alias string) (any, bool) {
	cur := r
	parts := strings.Split(alias, ".")
	for i, p := range parts {
		v, ok := cur[foldKey(p)]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(record)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func (r record) str(aliases ...string) string {
	v, ok := r.lookup(aliases...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (r record) float(aliases ...string) (float64, bool) {
	v, ok := r.lookup(aliases...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// toFloat coerces JSON numbers and numeric strings such as " 12.5 " to
// float64. Separators are not accepted: "5,5" is not a number. NaN and Inf
// are refused.
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt coerces an integral JSON number or numeric string. Fractional
// values are refused.
func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// groupedNumber matches a quantity written with thousands separators, such
// as "1,250,000" or "12,500.5".
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// toQuantity is toFloat that also accepts thousands separators. Only
// quantities such as capacity use it; coordinates, heading and speed stay
// strict.
func toQuantity(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if groupedNumber.MatchString(s) {
			v = strings.ReplaceAll(s, ",", "")
		}
	}
	return toFloat(v)
}

// optionalQuantity returns a thousands-separated or plain quantity, or nil.
func (r record) optionalQuantity(aliases ...string) *float64 {
	v, ok := r.lookup(aliases...)
	if !ok {
		return nil
	}
	f, ok := toQuantity(v)
	if !ok {
		return nil
	}
	return &f
}

// optionalID returns a positive integer reference or nil.
func (r record) optionalID(aliases ...string) *int64 {
	v, ok := r.lookup(aliases...)
	if !ok {
		return nil
	}
	n, ok := toInt(v)
	if !ok || n <= 0 {
		return nil
	}
	return &n
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// toTime accepts RFC 3339 style strings and unix timestamps in seconds or
// milliseconds.
func toTime(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return time.Time{}, false
	}
	if f >= 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func (r record) timestamp(aliases ...string) (time.Time, bool) {
	v, ok := r.lookup(aliases...)
	if !ok {
		return time.Time{}, false
	}
	return toTime(v)
}

// list reads a list field given either as a JSON array or a
// comma-separated string.
func (r record) list(aliases ...string) []string {
	v, ok := r.lookup(aliases...)
	if !ok {
		return nil
	}
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.Split(t, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// coordinates extracts a latitude/longitude pair. A GeoJSON style
// "coordinates": [lng, lat] array is accepted when named fields are absent.
func (r record) coordinates() (lat, lng float64, latOK, lngOK bool) {
	lat, latOK = r.float(latAliases...)
	lng, lngOK = r.float(lngAliases...)
	if latOK && lngOK {
		return lat, lng, true, true
	}
	for _, alias := range []string{"coordinates", "geometry.coordinates", "position.coordinates"} {
		v, ok := r.path(alias)
		if !ok {
			continue
		}
		pair, ok := v.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		x, xOK := toFloat(pair[0])
		y, yOK := toFloat(pair[1])
		if xOK && yOK {
			return y, x, true, true
		}
	}
	return lat, lng, latOK, lngOK
}

var (
	latAliases = []string{"lat", "latitude", "position.lat", "position.latitude", "location.lat", "location.latitude", "coords.lat"}
	lngAliases = []string{"lng", "lon", "long", "longitude", "position.lng", "position.lon", "position.longitude", "location.lng", "location.lon", "location.longitude", "coords.lng", "coords.lon"}
)

// canonicalCountry maps ISO codes and common spellings to the English short
// name. Unrecognized input is returned trimmed.
func canonicalCountry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if c := countries.ByName(s); c != countries.Unknown {
		return c.String()
	}
	return s
}

// canonicalFlag maps a flag state to its ISO 3166-1 alpha-2 code.
func canonicalFlag(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if c := countries.ByName(s); c != countries.Unknown {
		return c.Alpha2()
	}
	return strings.ToUpper(s)
}
