// Package validation checks comparison payloads against the declared result
// shape. The schema is compiled once; the first violation is reported with
// its path and expected type, and nothing is coerced or dropped.
package validation

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Error describes the first schema violation found in a payload.
type Error struct {
	Path     string
	Expected string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s: %s (expected %s)", e.Path, e.Message, e.Expected)
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiled() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	})
	return schema, schemaErr
}

// Validate checks raw against the comparison result schema. It returns nil
// when every declared field is present with the right shape, and an *Error
// for the first violation otherwise.
func Validate(raw []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("validation: compile schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation: load payload: %w", err)
	}
	if res.Valid() {
		return nil
	}
	return toError(res.Errors()[0])
}

func toError(re gojsonschema.ResultError) *Error {
	path := re.Field()
	// "required" violations report the parent object; append the missing
	// property so the path names the absent field itself.
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok && p != "" {
			if path == "" || path == "(root)" {
				path = p
			} else {
				path = path + "." + p
			}
		}
	}
	expected := re.Type()
	if v, ok := re.Details()["expected"]; ok {
		expected = fmt.Sprintf("%v", v)
	}
	return &Error{
		Path:     path,
		Expected: expected,
		Message:  re.Description(),
	}
}
