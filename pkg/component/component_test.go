package component

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crudkit/pkg/model"
	"crudkit/pkg/schema"
)

type task struct {
	model.Base
	Text string `json:"text" validate:"required,min=1,max=255"`
	Done bool   `json:"done"`
}

func (task) TableName() string {
	return "tasks"
}

func newTaskComponent(t *testing.T) (*Component[task], *MockDB) {
	t.Helper()

	mock, err := NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close() })

	s := schema.New(
		schema.Strip("id", "created_at", "updated_at"),
		schema.Require("text"),
	)
	return New[task](mock.GormDB, s), mock
}

func taskRows(rows ...task) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "text", "done"})
	for _, r := range rows {
		out.AddRow(r.ID, r.CreatedAt, r.UpdatedAt, r.Text, r.Done)
	}
	return out
}

func TestGetItems(t *testing.T) {
	c, mock := newTaskComponent(t)
	now := time.Now()

	mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
		WillReturnRows(taskRows(
			task{Base: model.Base{ID: 1, CreatedAt: now, UpdatedAt: now}, Text: "one"},
			task{Base: model.Base{ID: 2, CreatedAt: now, UpdatedAt: now}, Text: "two", Done: true},
		))

	items, err := c.GetItems(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0]["text"])
	assert.Equal(t, true, items[1]["done"])
	assert.NoError(t, mock.VerifyExpectations())
}

func TestGetPage(t *testing.T) {
	t.Run("middle page", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT count\(.*\) FROM "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks" LIMIT 2 OFFSET 2`).
			WillReturnRows(taskRows(
				task{Base: model.Base{ID: 3}, Text: "three"},
				task{Base: model.Base{ID: 4}, Text: "four"},
			))

		page, err := c.GetPage(context.Background(), ListParams{
			Limit:    2,
			Offset:   2,
			Next:     "http://api/tasks?limit=2&offset=3",
			Previous: "http://api/tasks?limit=2&offset=1",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Count)
		assert.Equal(t, int64(1), page.Remaining)
		assert.Equal(t, 2, page.Offset)
		assert.Equal(t, 2, page.Limit)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, "http://api/tasks?limit=2&offset=3", page.Next)
		assert.Equal(t, "http://api/tasks?limit=2&offset=1", page.Previous)
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("last page has no next link", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT count\(.*\) FROM "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks" LIMIT 2 OFFSET 2`).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 3}, Text: "three"}))

		page, err := c.GetPage(context.Background(), ListParams{
			Limit:    2,
			Offset:   2,
			Next:     "next-url",
			Previous: "previous-url",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Remaining)
		assert.Empty(t, page.Next)
		assert.Equal(t, "previous-url", page.Previous)
	})

	t.Run("first page has no previous link", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT count\(.*\) FROM "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks" LIMIT 2`).
			WillReturnRows(taskRows(
				task{Base: model.Base{ID: 1}, Text: "one"},
				task{Base: model.Base{ID: 2}, Text: "two"},
			))

		page, err := c.GetPage(context.Background(), ListParams{
			Limit:    2,
			Offset:   1,
			Next:     "next-url",
			Previous: "previous-url",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Remaining)
		assert.Equal(t, "next-url", page.Next)
		assert.Empty(t, page.Previous)
	})

	t.Run("zero limit returns everything", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT count\(.*\) FROM "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WillReturnRows(taskRows(
				task{Base: model.Base{ID: 1}, Text: "one"},
				task{Base: model.Base{ID: 2}, Text: "two"},
			))

		page, err := c.GetPage(context.Background(), ListParams{Limit: 0, Offset: 1})

		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Count)
		assert.Equal(t, int64(0), page.Remaining)
		assert.Len(t, page.Items, 2)
		assert.Empty(t, page.Next)
	})
}

func TestGetItem(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(1).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 1}, Text: "one"}))

		item, err := c.GetItem(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, float64(1), item["id"])
		assert.Equal(t, "one", item["text"])
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("not found", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(99).
			WillReturnRows(taskRows())

		_, err := c.GetItem(context.Background(), 99)

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestCreateItem(t *testing.T) {
	t.Run("inserts and returns the item", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectBegin()
		mock.Mock.ExpectQuery(`INSERT INTO "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.Mock.ExpectCommit()

		item, err := c.CreateItem(context.Background(), []byte(`{"text": "new task"}`))

		require.NoError(t, err)
		assert.Equal(t, float64(7), item["id"])
		assert.Equal(t, "new task", item["text"])
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("invalid payload never reaches the database", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		_, err := c.CreateItem(context.Background(), []byte(`{"done": true}`))

		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "text")
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("client-supplied id is stripped", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectBegin()
		mock.Mock.ExpectQuery(`INSERT INTO "tasks"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.Mock.ExpectCommit()

		item, err := c.CreateItem(context.Background(), []byte(`{"id": 999, "text": "x"}`))

		require.NoError(t, err)
		assert.Equal(t, float64(8), item["id"])
	})
}

func TestUpdateItem(t *testing.T) {
	t.Run("partial payload keeps stored values", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(1).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 1}, Text: "old", Done: true}))
		mock.Mock.ExpectBegin()
		mock.Mock.ExpectExec(`UPDATE "tasks"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.Mock.ExpectCommit()

		item, err := c.UpdateItem(context.Background(), 1, []byte(`{"text": "new"}`))

		require.NoError(t, err)
		assert.Equal(t, "new", item["text"])
		assert.Equal(t, true, item["done"])
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("unknown field is rejected before saving", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(1).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 1}, Text: "old"}))

		_, err := c.UpdateItem(context.Background(), 1, []byte(`{"bogus": 1}`))

		assert.ErrorIs(t, err, model.ErrUnknownField)
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("merged item must still validate", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(1).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 1}, Text: "old"}))

		_, err := c.UpdateItem(context.Background(), 1, []byte(`{"text": ""}`))

		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "text")
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("missing item", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(99).
			WillReturnRows(taskRows())

		_, err := c.UpdateItem(context.Background(), 99, []byte(`{"text": "x"}`))

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestDeleteItem(t *testing.T) {
	t.Run("returns the deleted item", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(1).
			WillReturnRows(taskRows(task{Base: model.Base{ID: 1}, Text: "gone"}))
		mock.Mock.ExpectBegin()
		mock.Mock.ExpectExec(`DELETE FROM "tasks"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.Mock.ExpectCommit()

		item, err := c.DeleteItem(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, "gone", item["text"])
		assert.NoError(t, mock.VerifyExpectations())
	})

	t.Run("missing item", func(t *testing.T) {
		c, mock := newTaskComponent(t)

		mock.Mock.ExpectQuery(`SELECT \* FROM "tasks"`).
			WithArgs(99).
			WillReturnRows(taskRows())

		_, err := c.DeleteItem(context.Background(), 99)

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestSearchHook(t *testing.T) {
	c, mock := newTaskComponent(t)
	c.Search = func(db *gorm.DB, filters url.Values) *gorm.DB {
		if filters.Get("done") == "true" {
			return db.Where("done = ?", true)
		}
		return db
	}

	mock.Mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE done = \$1`).
		WithArgs(true).
		WillReturnRows(taskRows(task{Base: model.Base{ID: 2}, Text: "two", Done: true}))

	items, err := c.GetItems(context.Background(), url.Values{"done": []string{"true"}})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0]["done"])
	assert.NoError(t, mock.VerifyExpectations())
}
