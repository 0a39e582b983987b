package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudkit/pkg/component"
	"crudkit/pkg/model"
)

type task struct {
	model.Base
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func (task) TableName() string {
	return "tasks"
}

func newDB(t *testing.T) *component.MockDB {
	t.Helper()

	mock, err := component.NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close() })
	return mock
}

func TestApply(t *testing.T) {
	mock := newDB(t)

	t.Run("sets only the named fields", func(t *testing.T) {
		item := task{Base: model.Base{ID: 3}, Text: "old", Done: true}

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{"text": "new"})

		require.NoError(t, err)
		assert.Equal(t, "new", item.Text)
		assert.True(t, item.Done)
		assert.Equal(t, uint(3), item.ID)
	})

	t.Run("matches column names", func(t *testing.T) {
		var item task

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{
			"text": "x",
			"done": true,
		})

		require.NoError(t, err)
		assert.Equal(t, "x", item.Text)
		assert.True(t, item.Done)
	})

	t.Run("matches struct field names", func(t *testing.T) {
		var item task

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{"Text": "via struct name"})

		require.NoError(t, err)
		assert.Equal(t, "via struct name", item.Text)
	})

	t.Run("unknown key", func(t *testing.T) {
		var item task

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{"bogus": 1})

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrUnknownField)
		assert.Contains(t, err.Error(), "bogus")
	})

	t.Run("incompatible value", func(t *testing.T) {
		var item task

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{
			"text": map[string]interface{}{"nested": true},
		})

		assert.Error(t, err)
	})

	t.Run("empty data is a no-op", func(t *testing.T) {
		item := task{Text: "unchanged"}

		err := model.Apply(mock.GormDB, &item, map[string]interface{}{})

		require.NoError(t, err)
		assert.Equal(t, "unchanged", item.Text)
	})
}

func TestBaseQuery(t *testing.T) {
	mock := newDB(t)

	query := model.BaseQuery(mock.GormDB, &task{})

	require.NotNil(t, query)
	assert.Equal(t, &task{}, query.Statement.Model)
}
