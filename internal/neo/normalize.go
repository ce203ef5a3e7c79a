package neo

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnknownID is substituted when an otherwise well-formed record has no id.
const UnknownID = "unknown"

// Normalize converts a raw NeoWs record into an Object. It never fails the
// caller: malformed input returns ok=false and the record is dropped.
func Normalize(raw json.RawMessage) (obj Object, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			obj, ok = Object{}, false
		}
	}()

	rec, isObject := decodeObject(raw)
	if !isObject {
		return Object{}, false
	}

	obj.ID = stringOr(rec["id"], UnknownID)
	obj.Name = stringOr(rec["name"], "")
	if obj.Name == "" {
		obj.Name = obj.ID
	}

	obj.Diameter = meanDiameter(rec["estimated_diameter"])
	obj.Hazardous = truthy(rec["is_potentially_hazardous_asteroid"])

	if approach, found := firstApproach(rec["close_approach_data"]); found {
		obj.Velocity = positiveFloat(nested(approach, "relative_velocity", "kilometers_per_second"))
		obj.MissDistance = positiveFloat(nested(approach, "miss_distance", "kilometers"))
		if d, isString := approach["close_approach_date"].(string); isString && d != "" {
			obj.CloseApproachDate = &d
		}
	}

	return obj, true
}

// NormalizeAll runs Normalize over a batch and keeps only the survivors,
// preserving input order.
func NormalizeAll(raws []json.RawMessage) []Object {
	out := make([]Object, 0, len(raws))
	for _, raw := range raws {
		if obj, ok := Normalize(raw); ok {
			out = append(out, obj)
		}
	}
	return out
}

// decodeObject parses raw as a JSON object, keeping numbers as json.Number
// so large numeric ids survive unchanged.
func decodeObject(raw json.RawMessage) (map[string]interface{}, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok && m != nil
}

// meanDiameter averages estimated_diameter.kilometers min/max. Both bounds
// must be JSON numbers; strings or a single bound yield nil.
func meanDiameter(val interface{}) *float64 {
	lo, okLo := jsonNumber(nested(val, "kilometers", "estimated_diameter_min"))
	hi, okHi := jsonNumber(nested(val, "kilometers", "estimated_diameter_max"))
	if !okLo || !okHi {
		return nil
	}
	mean := (lo + hi) / 2
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean < 0 {
		return nil
	}
	return &mean
}

func firstApproach(val interface{}) (map[string]interface{}, bool) {
	list, ok := val.([]interface{})
	if !ok || len(list) == 0 {
		return nil, false
	}
	first, ok := list[0].(map[string]interface{})
	return first, ok
}

// nested walks a chain of object keys, returning nil at the first gap.
func nested(val interface{}, keys ...string) interface{} {
	cur := val
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func jsonNumber(val interface{}) (float64, bool) {
	n, ok := val.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// positiveFloat accepts NeoWs decimal strings or plain numbers. Unparseable,
// non-finite and negative values are treated as missing.
func positiveFloat(val interface{}) *float64 {
	var f float64
	switch v := val.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

func stringOr(val interface{}, fallback string) string {
	switch v := val.(type) {
	case string:
		if v != "" {
			return v
		}
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fallback
}

// truthy mirrors loose truthiness: false, 0, "" and null are false,
// anything else present is true.
func truthy(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	case string:
		return v != ""
	default:
		return true
	}
}
