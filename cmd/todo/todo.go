package main

import (
	"net/url"

	"gorm.io/gorm"

	"crudkit/pkg/component"
	"crudkit/pkg/model"
	"crudkit/pkg/schema"
	"crudkit/pkg/server/crud"
)

// Todo is a single todo item.
type Todo struct {
	model.Base
	Text string `json:"text" validate:"required,min=1,max=255"`
	Done bool   `json:"done"`
}

func (Todo) TableName() string {
	return "todos"
}

// newTodoSchema builds the schema for todo payloads. Server-managed fields
// are stripped from input so clients can echo back a previously fetched
// item on update.
func newTodoSchema() *schema.Schema {
	return schema.New(
		schema.Strip("id", "created_at", "updated_at"),
		schema.Require("text"),
	)
}

// newTodoComponent builds the todo component. The search hook supports
// ?done=true|false and ?search=<substring> filters.
func newTodoComponent(db *gorm.DB) *component.Component[Todo] {
	c := component.New[Todo](db, newTodoSchema())
	c.Search = func(query *gorm.DB, filters url.Values) *gorm.DB {
		if done := filters.Get("done"); done != "" {
			query = query.Where("done = ?", done == "true" || done == "1")
		}
		if search := filters.Get("search"); search != "" {
			query = query.Where("text ILIKE ?", "%"+search+"%")
		}
		return query
	}
	return c
}

// newTodoResource mounts the component behind /todos. Guarding and limits
// are applied by the server command from configuration.
func newTodoResource(db *gorm.DB) *crud.Resource[Todo] {
	return &crud.Resource[Todo]{
		Component: newTodoComponent(db),
		Prefix:    "/todos",
	}
}
