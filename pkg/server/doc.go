// Package server provides the HTTP server wrapper: a gorilla/mux router
// behind an access-logging handler with enforced timeouts, plus a health
// endpoint backed by a database ping.
package server
