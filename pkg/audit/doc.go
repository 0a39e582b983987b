// Package audit emits RFC5424 syslog audit events for resource operations
// and guard token checks.
//
// Events go to stdout by default. When AUDIT_DATABASE_URL is set, events are
// additionally persisted to a messages table in that database, which may be
// separate from the application database. Set CRUDKIT_AUDIT_ENABLED=false to
// turn auditing off entirely.
//
// Handlers log through the package-level Log:
//
//	audit.Log(audit.ResourceEvent{
//		Subject:   subject,
//		ClientIP:  ip,
//		Resource:  "/todos",
//		Operation: "create",
//		Success:   true,
//	})
package audit
