// Package model provides the base model type and field-application helpers
// that application models build on.
//
// Applications embed model.Base in their own GORM structs and get an integer
// primary key plus created/updated timestamps. Apply performs safe partial
// updates: it only touches the keys present in the input and rejects keys
// that do not correspond to a database column.
package model
