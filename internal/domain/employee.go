package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Null stands for a field the source sent as an explicit JSON null. It
// marshals back to null, while a nil field is dropped from the output.
var Null any = jsonNull{}

type jsonNull struct{}

func (jsonNull) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Employee is the normalized record forwarded to the queue as SpecificContent.
// Fields hold whatever the source sent (json.Number for numbers, Null for an
// explicit null); a nil field means the source omitted it.
type Employee struct {
	ID     any `json:"id,omitempty" mapstructure:"id"`
	Name   any `json:"name,omitempty" mapstructure:"employee_name"`
	Salary any `json:"salary,omitempty" mapstructure:"employee_salary"`
	Age    any `json:"age,omitempty" mapstructure:"employee_age"`
}

// Reference builds the queue item reference "emp-<id>".
// ok is false when the employee has no id.
func (e Employee) Reference() (string, bool) {
	id := scalarString(e.ID)
	if id == "" {
		return "", false
	}
	return "emp-" + id, true
}

// IDString renders the id for logs; empty when absent.
func (e Employee) IDString() string {
	return scalarString(e.ID)
}

// SalaryValue coerces the salary to a number. Null and blank strings count
// as 0, numeric strings are parsed and anything unusable (or absent) is NaN.
func (e Employee) SalaryValue() float64 {
	switch v := e.Salary.(type) {
	case jsonNull:
		return 0
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil, jsonNull:
		return ""
	case json.Number:
		return t.String()
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
