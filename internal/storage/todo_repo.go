package storage

import (
	"encoding/json"
	"strings"
	"time"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// TodoRepo stores the to-do list as one JSON array.
type TodoRepo struct {
	db *DB
}

// NewTodoRepo creates a new todo repository.
func NewTodoRepo(db *DB) *TodoRepo {
	return &TodoRepo{db: db}
}

// List returns the stored items in insertion order. A missing or unreadable
// list is empty.
func (r *TodoRepo) List() ([]model.TodoItem, error) {
	data, err := r.db.GetBytes(model.KeyTodos)
	if IsErrKeyNotFound(err) {
		return []model.TodoItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []model.TodoItem
	if err := json.Unmarshal(data, &items); err != nil {
		logging.DebugLog("ignoring unreadable todo list", logging.KeyError, err)
		return []model.TodoItem{}, nil
	}
	if items == nil {
		items = []model.TodoItem{}
	}
	return items, nil
}

// Sorted returns the items in display order.
func (r *TodoRepo) Sorted() ([]model.TodoItem, error) {
	items, err := r.List()
	if err != nil {
		return nil, err
	}
	return model.SortTodos(items), nil
}

// SaveAll replaces the whole list.
func (r *TodoRepo) SaveAll(items []model.TodoItem) error {
	if items == nil {
		items = []model.TodoItem{}
	}
	return r.db.SetRaw(model.KeyTodos, items)
}

// Add appends an item. Titles are trimmed and must not be empty.
func (r *TodoRepo) Add(title string, due *time.Time, now time.Time) (*model.TodoItem, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errs.ErrTitleRequired
	}

	items, err := r.List()
	if err != nil {
		return nil, err
	}
	item := model.NewTodo(title, due, now)
	if err := r.SaveAll(append(items, item)); err != nil {
		return nil, err
	}
	return &item, nil
}

// Find resolves an id or a unique id prefix.
func (r *TodoRepo) Find(id string) (*model.TodoItem, error) {
	items, err := r.List()
	if err != nil {
		return nil, err
	}
	idx, err := findTodo(items, id)
	if err != nil {
		return nil, err
	}
	return &items[idx], nil
}

func findTodo(items []model.TodoItem, id string) (int, error) {
	match := -1
	for i, it := range items {
		if it.ID == id {
			return i, nil
		}
		if id != "" && strings.HasPrefix(it.ID, id) {
			if match >= 0 {
				return -1, errs.NewUserErrorWithField("id", id, "ambiguous todo id", "Use more characters of the id.")
			}
			match = i
		}
	}
	if match < 0 {
		return -1, errs.ErrTodoNotFound
	}
	return match, nil
}

// SetDue changes or, with a nil due, clears an item's due date.
func (r *TodoRepo) SetDue(id string, due *time.Time) (*model.TodoItem, error) {
	items, err := r.List()
	if err != nil {
		return nil, err
	}
	idx, err := findTodo(items, id)
	if err != nil {
		return nil, err
	}
	if due == nil {
		items[idx].ClearDue()
	} else {
		items[idx].SetDue(*due)
	}
	if err := r.SaveAll(items); err != nil {
		return nil, err
	}
	return &items[idx], nil
}

// Delete removes an item.
func (r *TodoRepo) Delete(id string) (*model.TodoItem, error) {
	items, err := r.List()
	if err != nil {
		return nil, err
	}
	idx, err := findTodo(items, id)
	if err != nil {
		return nil, err
	}
	removed := items[idx]
	items = append(items[:idx], items[idx+1:]...)
	return &removed, r.SaveAll(items)
}
