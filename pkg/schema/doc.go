// Package schema pairs strict JSON deserialization with declarative struct
// validation, backed by go-playground/validator.
//
// A model declares its rules with `validate` tags; a Schema adds per-use
// configuration on top: required payload keys, fields stripped from input,
// and fields excluded from output. Load and Dump are the two halves of the
// contract the component layer relies on.
package schema
