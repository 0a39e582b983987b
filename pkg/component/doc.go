// Package component provides the glue between models and schemas: a generic
// CRUD component over a GORM-backed table.
//
// A component is the single place for business logic around a model. The
// hook fields (BaseQuery, Search, FetchByID) allow per-model behavior
// without reimplementing the CRUD operations themselves.
package component
