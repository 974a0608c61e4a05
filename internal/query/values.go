package query

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// The helpers below read a Value the way the comparators need it. They
// accept every variant, including KindRaw payloads stored before the schema
// could validate them.

// isMissing reports an absent or null value. The empty string is defined.
func isMissing(v types.Value) bool {
	return v.IsNone() || (v.Kind() == types.KindRaw && v.Raw() == nil)
}

func textOf(v types.Value) string {
	switch v.Kind() {
	case types.KindText, types.KindOption:
		return v.Text()
	case types.KindNumber:
		return strconv.FormatFloat(v.Number(), 'f', -1, 64)
	case types.KindCheckbox:
		return strconv.FormatBool(v.Checkbox())
	case types.KindOptions, types.KindPeople:
		return strings.Join(v.IDs(), ",")
	case types.KindDate:
		if from := v.Date().From; from != nil {
			return *from
		}
		return ""
	case types.KindRaw:
		if s, err := cast.ToStringE(v.Raw()); err == nil {
			return s
		}
		data, err := json.Marshal(v.Raw())
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

func numberOf(v types.Value) (float64, bool) {
	if v.IsBlank() {
		return 0, false
	}
	switch v.Kind() {
	case types.KindNumber:
		return v.Number(), true
	case types.KindCheckbox:
		if v.Checkbox() {
			return 1, true
		}
		return 0, true
	case types.KindText:
		return coerceNumber(v.Text())
	case types.KindRaw:
		return coerceNumber(v.Raw())
	}
	return 0, false
}

func coerceNumber(x any) (float64, bool) {
	if s, ok := x.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		x = s
	}
	f, err := cast.ToFloat64E(x)
	if err != nil {
		return 0, false
	}
	return f, true
}

func instantOf(v types.Value) (time.Time, bool) {
	switch v.Kind() {
	case types.KindDate:
		return v.Date().Instant()
	case types.KindText:
		return types.ParseInstant(v.Text())
	case types.KindRaw:
		d, err := types.DecodeValue(types.PropertyDate, v.Raw())
		if err != nil {
			return time.Time{}, false
		}
		return d.Date().Instant()
	}
	return time.Time{}, false
}

func boolOf(v types.Value) bool {
	switch v.Kind() {
	case types.KindCheckbox:
		return v.Checkbox()
	case types.KindRaw:
		b, err := cast.ToBoolE(v.Raw())
		return err == nil && b
	}
	return false
}

// idsOf returns the option or user IDs of a value in stored order.
func idsOf(v types.Value) []string {
	switch v.Kind() {
	case types.KindOption:
		if v.OptionID() == "" {
			return nil
		}
		return []string{v.OptionID()}
	case types.KindOptions, types.KindPeople:
		return v.IDs()
	case types.KindText:
		if v.Text() == "" {
			return nil
		}
		return []string{v.Text()}
	case types.KindRaw:
		if p, err := types.DecodeValue(types.PropertyPerson, v.Raw()); err == nil {
			return p.IDs()
		}
	}
	return nil
}
