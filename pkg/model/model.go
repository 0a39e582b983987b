package model

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// ErrUnknownField is returned by Apply when the input names a key that does
// not map to a database-backed field on the model.
var ErrUnknownField = errors.New("unknown field")

// Base is the embeddable base for application models. It provides the
// integer primary key and timestamps that the component and CRUD layers
// rely on.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// schemaCache caches parsed model schemas across Apply calls
var schemaCache = &sync.Map{}

// BaseQuery returns the default query scope for a model. Components override
// this at their level, for instance to add default joins or exclude rows,
// rather than bloating the model itself.
func BaseQuery(db *gorm.DB, m interface{}) *gorm.DB {
	return db.Model(m)
}

// Apply sets the fields named in data on dest. Only the provided keys are
// touched, so existing values survive a partial payload. Keys are matched
// against the model's columns and struct field names; a key with no
// corresponding database-backed field yields ErrUnknownField.
//
// Apply does not persist dest; the caller controls when to save, which keeps
// it usable inside transactions.
func Apply(db *gorm.DB, dest interface{}, data map[string]interface{}) error {
	s, err := gormschema.Parse(dest, schemaCache, db.NamingStrategy)
	if err != nil {
		return fmt.Errorf("failed to parse model schema: %w", err)
	}

	value := reflect.ValueOf(dest)
	for value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	for key, val := range data {
		field := s.LookUpField(key)
		if field == nil || field.DBName == "" {
			return fmt.Errorf("%w: %q on %s", ErrUnknownField, key, s.Name)
		}
		if err := field.Set(value, val); err != nil {
			return fmt.Errorf("failed to set field %q on %s: %w", key, s.Name, err)
		}
	}

	return nil
}
