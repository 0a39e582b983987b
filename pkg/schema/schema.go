package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema pairs JSON deserialization with struct validation. A Schema is
// configured once per model and shared by the component that owns it; it is
// safe for concurrent use.
type Schema struct {
	validate *validator.Validate
	exclude  map[string]struct{}
	require  []string
	strip    []string
}

// Option configures a Schema.
type Option func(*Schema)

// Exclude removes the named JSON fields from dump output.
func Exclude(fields ...string) Option {
	return func(s *Schema) {
		for _, f := range fields {
			s.exclude[f] = struct{}{}
		}
	}
}

// Require marks JSON fields that must be present in a Load payload, on top
// of whatever `validate` tags the model declares.
func Require(fields ...string) Option {
	return func(s *Schema) {
		s.require = append(s.require, fields...)
	}
}

// Strip names JSON fields that are silently dropped from input payloads
// before decoding. Use it for server-managed fields a client may echo back,
// such as timestamps.
func Strip(fields ...string) Option {
	return func(s *Schema) {
		s.strip = append(s.strip, fields...)
	}
}

// New builds a Schema. Validation rules come from `validate` struct tags on
// the model; field names in error messages use the JSON tag names.
func New(opts ...Option) *Schema {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Schema{
		validate: v,
		exclude:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load strictly decodes a JSON object into dest and validates it. Unknown
// fields, missing required fields, and `validate` tag failures all surface
// as *ValidationError.
func (s *Schema) Load(data []byte, dest interface{}) error {
	payload, err := s.payload(data)
	if err != nil {
		return err
	}

	for _, field := range s.require {
		if _, ok := payload[field]; !ok {
			return newValidationError(field, "missing required field")
		}
	}

	if err := decodeStrict(payload, dest); err != nil {
		return err
	}

	return s.Validate(dest)
}

// LoadMap decodes a JSON object into a plain map for partial application via
// model.Apply. Strip fields are removed; no validation happens here, since
// validation of a partial payload is only meaningful once it has been merged
// onto an existing record (see Validate).
func (s *Schema) LoadMap(data []byte) (map[string]interface{}, error) {
	payload, err := s.payload(data)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, len(payload))
	for key, raw := range payload {
		var val interface{}
		if err := json.Unmarshal(raw, &val); err != nil {
			return nil, newValidationError(key, "malformed value")
		}
		fields[key] = val
	}
	return fields, nil
}

// Validate runs the `validate` tag rules against a fully-populated value.
func (s *Schema) Validate(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fromValidator(err)
	}
	return nil
}

// Dump serializes v into a map via its JSON tags, removing excluded fields.
func (s *Schema) Dump(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %T: %w", v, err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to serialize %T: %w", v, err)
	}

	for field := range s.exclude {
		delete(out, field)
	}
	return out, nil
}

// DumpMany serializes a slice of models. The result is never nil, so an
// empty list renders as [] rather than null.
func (s *Schema) DumpMany(items interface{}) ([]map[string]interface{}, error) {
	value := reflect.ValueOf(items)
	for value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice, got %T", items)
	}

	out := make([]map[string]interface{}, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		dumped, err := s.Dump(value.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, dumped)
	}
	return out, nil
}

// payload parses data as a JSON object and removes strip fields.
func (s *Schema) payload(data []byte) (map[string]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, newValidationError("_body", "expected a JSON object")
	}

	for _, field := range s.strip {
		delete(payload, field)
	}
	return payload, nil
}

func decodeStrict(payload map[string]json.RawMessage, dest interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		// json: unknown field "..." or a type mismatch; either way the
		// payload is at fault, not the server.
		return newValidationError("_body", err.Error())
	}
	return nil
}
