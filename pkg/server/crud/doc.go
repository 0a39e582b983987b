// Package crud mounts generic create/read/update/delete HTTP endpoints for
// a component on a gorilla/mux router. It handles pagination query
// parameters, per-operation guarding, and the mapping from component errors
// to HTTP status codes.
package crud
