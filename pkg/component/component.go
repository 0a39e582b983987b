package component

import (
	"context"
	"fmt"
	"net/url"

	"gorm.io/gorm"

	"crudkit/pkg/model"
	"crudkit/pkg/schema"
)

// Component glues a model to its schema and exposes CRUD operations against
// the database. The zero hooks give sensible defaults; set BaseQuery, Search
// or FetchByID to customize querying without subclassing anything.
type Component[T any] struct {
	DB     *gorm.DB
	Schema *schema.Schema

	// BaseQuery overrides the default query scope for the model. Default
	// joins and query optimization belong here, not on the model.
	BaseQuery func(db *gorm.DB) *gorm.DB

	// Search filters a list query from request parameters. The default
	// applies no filtering.
	Search func(db *gorm.DB, filters url.Values) *gorm.DB

	// FetchByID overrides single-item lookup, for instance to enforce a
	// permission scheme in business logic.
	FetchByID func(db *gorm.DB, id uint) (*T, error)
}

// New builds a component for a model type with its schema.
func New[T any](db *gorm.DB, s *schema.Schema) *Component[T] {
	return &Component[T]{DB: db, Schema: s}
}

// GetItems returns every item matching the filters, serialized through the
// schema. Use GetPage when pagination metadata is wanted.
func (c *Component[T]) GetItems(ctx context.Context, filters url.Values) ([]map[string]interface{}, error) {
	var items []T
	if err := c.searchQuery(ctx, filters).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return c.Schema.DumpMany(items)
}

// GetPage returns one page of items wrapped in pagination metadata.
func (c *Component[T]) GetPage(ctx context.Context, p ListParams) (*Page, error) {
	var total int64
	if err := c.searchQuery(ctx, p.Filters).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	offset := p.Offset
	if offset < 1 {
		offset = 1
	}

	query := c.searchQuery(ctx, p.Filters)
	if p.Limit > 0 {
		query = query.Limit(p.Limit).Offset((offset - 1) * p.Limit)
	}

	var items []T
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	dumped, err := c.Schema.DumpMany(items)
	if err != nil {
		return nil, err
	}

	var remaining int64
	if p.Limit > 0 {
		remaining = total - int64(p.Limit)*int64(offset-1) - int64(len(items))
		if remaining < 0 {
			remaining = 0
		}
	}

	page := &Page{
		Count:     total,
		Remaining: remaining,
		Offset:    offset,
		Limit:     p.Limit,
		Items:     dumped,
	}
	if remaining > 0 {
		page.Next = p.Next
	}
	if offset > 1 {
		page.Previous = p.Previous
	}
	return page, nil
}

// GetItem returns a single item by ID, serialized through the schema.
// gorm.ErrRecordNotFound passes through untouched so callers can map it to
// their own error format.
func (c *Component[T]) GetItem(ctx context.Context, id uint) (map[string]interface{}, error) {
	item, err := c.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Schema.Dump(item)
}

// CreateItem validates data against the schema, inserts the new item, and
// returns it serialized. Validation runs before any database operation so
// invalid payloads never produce database errors.
func (c *Component[T]) CreateItem(ctx context.Context, data []byte) (map[string]interface{}, error) {
	item := new(T)
	if err := c.Schema.Load(data, item); err != nil {
		return nil, err
	}

	if err := c.DB.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return c.Schema.Dump(item)
}

// UpdateItem applies the fields present in data to an existing item. Fields
// absent from the payload keep their stored values. The merged item is
// validated before saving.
func (c *Component[T]) UpdateItem(ctx context.Context, id uint, data []byte) (map[string]interface{}, error) {
	fields, err := c.Schema.LoadMap(data)
	if err != nil {
		return nil, err
	}

	item, err := c.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := model.Apply(c.DB, item, fields); err != nil {
		return nil, err
	}
	if err := c.Schema.Validate(item); err != nil {
		return nil, err
	}

	if err := c.DB.WithContext(ctx).Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return c.Schema.Dump(item)
}

// DeleteItem removes an item by ID and returns the data from the
// just-deleted item.
func (c *Component[T]) DeleteItem(ctx context.Context, id uint) (map[string]interface{}, error) {
	item, err := c.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dumped, err := c.Schema.Dump(item)
	if err != nil {
		return nil, err
	}

	if err := c.DB.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}
	return dumped, nil
}

func (c *Component[T]) baseQuery(ctx context.Context) *gorm.DB {
	db := model.BaseQuery(c.DB.WithContext(ctx), new(T))
	if c.BaseQuery != nil {
		return c.BaseQuery(db)
	}
	return db
}

func (c *Component[T]) searchQuery(ctx context.Context, filters url.Values) *gorm.DB {
	query := c.baseQuery(ctx)
	if c.Search != nil {
		return c.Search(query, filters)
	}
	return query
}

func (c *Component[T]) fetchByID(ctx context.Context, id uint) (*T, error) {
	if c.FetchByID != nil {
		return c.FetchByID(c.DB.WithContext(ctx), id)
	}

	item := new(T)
	if err := c.baseQuery(ctx).First(item, id).Error; err != nil {
		return nil, err
	}
	return item, nil
}
