// Command todo is the example application for the CRUD toolkit.
//
// It wires a Todo model, its schema, and a component into a paginated CRUD
// API served at /todos.
//
// # Quick Start
//
//	# Run database migrations
//	todo db migrate
//
//	# Start the server
//	todo server
//
//	# With bearer-token guarding
//	export CRUDKIT_GUARD_SECRET=dev-secret
//	todo server &
//	curl -H "Authorization: Bearer $(todo token alice)" localhost:8000/todos
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - CRUDKIT_GUARD_SECRET: HMAC secret for guard tokens (optional)
//   - CRUDKIT_CONFIG_PATH: directory containing crudkit.yml
//   - CRUDKIT_LOG_LEVEL: set to "debug" for SQL logging
package main
