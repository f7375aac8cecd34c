package mappers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"queue-hires/internal/domain"
)

// ParseError means the source body could not be read as a usable JSON document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError means the body parsed but carried no data array, typically
// an upstream error object such as {"message":"Too Many Attempts."}.
type ShapeError struct {
	Message string
}

func (e *ShapeError) Error() string { return e.Message }

// NormalizeEmployees parses the source body and maps every element of its
// data array onto domain.Employee. Only id, employee_name, employee_salary and
// employee_age are kept; missing keys stay absent and null keys stay null.
func NormalizeEmployees(body string) ([]domain.Employee, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}

	obj, isObject := doc.(map[string]any)
	if doc == nil {
		return nil, &ParseError{Err: errors.New("source payload is null")}
	}

	var data []any
	if isObject {
		data, _ = obj["data"].([]any)
	}
	if data == nil {
		return nil, &ShapeError{Message: upstreamMessage(obj)}
	}

	if _, idx, found := lo.FindIndexOf(data, func(v any) bool { return v == nil }); found {
		return nil, &ParseError{Err: fmt.Errorf("data[%d] is null", idx)}
	}

	var decodeErr error
	employees := lo.Map(data, func(raw any, i int) domain.Employee {
		emp, err := toEmployee(raw)
		if err != nil && decodeErr == nil {
			decodeErr = fmt.Errorf("data[%d]: %w", i, err)
		}
		return emp
	})
	if decodeErr != nil {
		return nil, &ParseError{Err: decodeErr}
	}
	return employees, nil
}

func decodeDocument(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("source payload is not valid JSON: %w", err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("source payload is not valid JSON: unexpected data after top-level value")}
	}
	return doc, nil
}

func upstreamMessage(obj map[string]any) string {
	switch m := obj["message"].(type) {
	case nil:
		return domain.ErrNoDataArray.Error()
	case string:
		return m
	default:
		return fmt.Sprint(m)
	}
}

// Non-object elements have none of the four keys and map to an empty record.
// Keys sent as null keep domain.Null so they survive into SpecificContent.
func toEmployee(raw any) (domain.Employee, error) {
	var emp domain.Employee
	m, ok := raw.(map[string]any)
	if !ok {
		return emp, nil
	}
	m = lo.MapValues(m, func(v any, _ string) any {
		if v == nil {
			return domain.Null
		}
		return v
	})
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &emp,
		// source keys are case-sensitive
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return domain.Employee{}, err
	}
	if err := dec.Decode(m); err != nil {
		return domain.Employee{}, err
	}
	return emp, nil
}
