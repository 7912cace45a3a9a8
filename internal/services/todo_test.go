package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todoapp/internal/events"
	"todoapp/internal/importer"
	"todoapp/internal/models"
	"todoapp/internal/store"
)

type mockToDoRepository struct {
	listFn        func(ctx context.Context, q store.ListQuery) ([]models.ToDo, int, error)
	getFn         func(ctx context.Context, id uuid.UUID) (*models.ToDo, error)
	existsFn      func(ctx context.Context, id uuid.UUID) (bool, error)
	createFn      func(ctx context.Context, todo *models.ToDo) error
	createBatchFn func(ctx context.Context, todos []models.ToDo) error
	updateFn      func(ctx context.Context, todo *models.ToDo) error
	deleteFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockToDoRepository) List(ctx context.Context, q store.ListQuery) ([]models.ToDo, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return []models.ToDo{}, 0, nil
}

func (m *mockToDoRepository) Get(ctx context.Context, id uuid.UUID) (*models.ToDo, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockToDoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockToDoRepository) Create(ctx context.Context, todo *models.ToDo) error {
	if m.createFn != nil {
		return m.createFn(ctx, todo)
	}
	return nil
}

func (m *mockToDoRepository) CreateBatch(ctx context.Context, todos []models.ToDo) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, todos)
	}
	return nil
}

func (m *mockToDoRepository) Update(ctx context.Context, todo *models.ToDo) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, todo)
	}
	return nil
}

func (m *mockToDoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockCache files entries by generation the way the Redis cache does.
type mockCache struct {
	gen   int64
	pages map[string]*models.ToDoPage
	todos map[string]*models.ToDo
}

func newMockCache() *mockCache {
	return &mockCache{pages: map[string]*models.ToDoPage{}, todos: map[string]*models.ToDo{}}
}

func (m *mockCache) Generation(context.Context) (int64, error) {
	return m.gen, nil
}

func (m *mockCache) GetToDo(_ context.Context, gen int64, id uuid.UUID) (*models.ToDo, error) {
	return m.todos[fmt.Sprintf("%d:%s", gen, id)], nil
}

func (m *mockCache) SetToDo(_ context.Context, gen int64, todo *models.ToDo) error {
	m.todos[fmt.Sprintf("%d:%s", gen, todo.ID)] = todo
	return nil
}

func (m *mockCache) GetPage(_ context.Context, gen int64, key string) (*models.ToDoPage, error) {
	return m.pages[fmt.Sprintf("%d:%s", gen, key)], nil
}

func (m *mockCache) SetPage(_ context.Context, gen int64, key string, page *models.ToDoPage) error {
	m.pages[fmt.Sprintf("%d:%s", gen, key)] = page
	return nil
}

func (m *mockCache) Invalidate(context.Context) error {
	m.gen++
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newTestService(repo store.ToDoRepository) (*ToDoService, *mockCache, *recordingPublisher) {
	c := newMockCache()
	pub := &recordingPublisher{}
	return NewToDoService(repo, c, pub, log.New(io.Discard), importer.Options{StrictCSV: true}), c, pub
}

func validToDo() models.ToDo {
	return models.ToDo{
		Title:       "Buy milk",
		CreatedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestToDoService_List(t *testing.T) {
	t.Run("maps page to offset and builds metadata", func(t *testing.T) {
		var got store.ListQuery
		repo := &mockToDoRepository{
			listFn: func(_ context.Context, q store.ListQuery) ([]models.ToDo, int, error) {
				got = q
				return []models.ToDo{{Title: "a"}}, 11, nil
			},
		}
		service, _, _ := newTestService(repo)

		page, err := service.List(context.Background(), "created_desc", "a", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Limit != PageSize || got.Offset != 5 || got.Sort != models.SortCreatedDesc || got.Search != "a" {
			t.Errorf("unexpected query: %+v", got)
		}
		if page.PageCount != 3 || !page.HasNextPage || !page.HasPreviousPage {
			t.Errorf("unexpected page metadata: %+v", page)
		}
		if page.CurrentSort != "created_desc" || page.CurrentFilter != "a" {
			t.Errorf("unexpected sort/filter: %q/%q", page.CurrentSort, page.CurrentFilter)
		}
	})

	t.Run("unknown sort key falls back to title", func(t *testing.T) {
		var got store.ListQuery
		repo := &mockToDoRepository{
			listFn: func(_ context.Context, q store.ListQuery) ([]models.ToDo, int, error) {
				got = q
				return nil, 0, nil
			},
		}
		service, _, _ := newTestService(repo)

		page, err := service.List(context.Background(), "bogus", "", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Sort != models.SortTitle || page.CurrentSort != "Title" {
			t.Errorf("sort = %v / %q, want title ascending", got.Sort, page.CurrentSort)
		}
	})

	t.Run("page below one is a validation error", func(t *testing.T) {
		service, _, _ := newTestService(&mockToDoRepository{})
		if _, err := service.List(context.Background(), "", "", 0); !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("unaddressable page only counts", func(t *testing.T) {
		var got store.ListQuery
		repo := &mockToDoRepository{
			listFn: func(_ context.Context, q store.ListQuery) ([]models.ToDo, int, error) {
				got = q
				return []models.ToDo{}, 3, nil
			},
		}
		service, _, _ := newTestService(repo)

		page, err := service.List(context.Background(), "", "", math.MaxInt/PageSize+2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Limit != 0 || got.Offset != 0 {
			t.Errorf("unexpected query: %+v", got)
		}
		if len(page.Items) != 0 || page.TotalItems != 3 || page.PageCount != 1 || page.HasNextPage || !page.HasPreviousPage {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		boom := errors.New("connection refused")
		repo := &mockToDoRepository{
			listFn: func(context.Context, store.ListQuery) ([]models.ToDo, int, error) { return nil, 0, boom },
		}
		service, _, _ := newTestService(repo)
		if _, err := service.List(context.Background(), "", "", 1); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		calls := 0
		repo := &mockToDoRepository{
			listFn: func(context.Context, store.ListQuery) ([]models.ToDo, int, error) {
				calls++
				return nil, 0, nil
			},
		}
		service, _, _ := newTestService(repo)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			if _, err := service.List(ctx, "Title", "", 1); err != nil {
				t.Fatalf("List: %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("repository called %d times, want 1", calls)
		}
	})
}

func TestToDoService_Get(t *testing.T) {
	service, _, _ := newTestService(&mockToDoRepository{})
	if _, err := service.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// memoryRepo is a mockToDoRepository backed by a map, with a hook that runs
// in the middle of a read.
func memoryRepo(todos map[uuid.UUID]models.ToDo, duringRead func()) *mockToDoRepository {
	return &mockToDoRepository{
		getFn: func(_ context.Context, id uuid.UUID) (*models.ToDo, error) {
			todo, ok := todos[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			if duringRead != nil {
				hook := duringRead
				duringRead = nil
				hook()
			}
			return &todo, nil
		},
		listFn: func(context.Context, store.ListQuery) ([]models.ToDo, int, error) {
			items := make([]models.ToDo, 0, len(todos))
			for _, todo := range todos {
				items = append(items, todo)
			}
			if duringRead != nil {
				hook := duringRead
				duringRead = nil
				hook()
			}
			return items, len(items), nil
		},
		updateFn: func(_ context.Context, todo *models.ToDo) error {
			if _, ok := todos[todo.ID]; !ok {
				return store.ErrStale
			}
			todos[todo.ID] = *todo
			return nil
		},
	}
}

func TestToDoService_CacheWriteDuringRead(t *testing.T) {
	ctx := context.Background()

	t.Run("record", func(t *testing.T) {
		original := validToDo()
		original.ID = uuid.New()
		todos := map[uuid.UUID]models.ToDo{original.ID: original}

		var service *ToDoService
		repo := memoryRepo(todos, func() {
			edited := validToDo()
			edited.Title = "edited"
			if _, err := service.Update(ctx, original.ID, edited); err != nil {
				t.Fatalf("Update: %v", err)
			}
		})
		service, _, _ = newTestService(repo)

		if _, err := service.Get(ctx, original.ID); err != nil {
			t.Fatalf("Get: %v", err)
		}
		got, err := service.Get(ctx, original.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Title != "edited" {
			t.Errorf("Title = %q, want the value written during the first read", got.Title)
		}
	})

	t.Run("page", func(t *testing.T) {
		original := validToDo()
		original.ID = uuid.New()
		todos := map[uuid.UUID]models.ToDo{original.ID: original}

		var service *ToDoService
		repo := memoryRepo(todos, func() {
			edited := validToDo()
			edited.Title = "edited"
			if _, err := service.Update(ctx, original.ID, edited); err != nil {
				t.Fatalf("Update: %v", err)
			}
		})
		service, _, _ = newTestService(repo)

		if _, err := service.List(ctx, "", "", 1); err != nil {
			t.Fatalf("List: %v", err)
		}
		page, err := service.List(ctx, "", "", 1)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].Title != "edited" {
			t.Errorf("items = %+v, want the value written during the first read", page.Items)
		}
	})
}

func TestToDoService_Create(t *testing.T) {
	t.Run("assigns a new id", func(t *testing.T) {
		var stored models.ToDo
		repo := &mockToDoRepository{
			createFn: func(_ context.Context, todo *models.ToDo) error {
				stored = *todo
				return nil
			},
		}
		service, c, pub := newTestService(repo)

		input := validToDo()
		clientID := uuid.New()
		input.ID = clientID

		created, err := service.Create(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.ID == uuid.Nil || created.ID == clientID {
			t.Errorf("expected server-assigned id, got %s", created.ID)
		}
		if stored.ID != created.ID || stored.Title != "Buy milk" {
			t.Errorf("stored = %+v", stored)
		}
		if c.gen != 1 {
			t.Errorf("expected one cache invalidation, generation is %d", c.gen)
		}
		if len(pub.events) != 1 || pub.events[0].Action != events.ActionCreated {
			t.Errorf("events = %+v", pub.events)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		called := false
		repo := &mockToDoRepository{
			createFn: func(context.Context, *models.ToDo) error {
				called = true
				return nil
			},
		}
		service, _, _ := newTestService(repo)

		_, err := service.Create(context.Background(), models.ToDo{Title: "  "})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("error = %v, want ErrValidation", err)
		}
		if !strings.Contains(err.Error(), "title") || !strings.Contains(err.Error(), "createdDate") {
			t.Errorf("error %q should name missing fields", err)
		}
		if called {
			t.Error("repository should not be called")
		}
	})
}

func TestToDoService_Update(t *testing.T) {
	id := uuid.New()

	t.Run("success", func(t *testing.T) {
		service, c, pub := newTestService(&mockToDoRepository{})
		updated, err := service.Update(context.Background(), id, validToDo())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.ID != id {
			t.Errorf("ID = %s, want %s", updated.ID, id)
		}
		if c.gen != 1 {
			t.Errorf("expected one cache invalidation, generation is %d", c.gen)
		}
		if len(pub.events) != 1 || pub.events[0].Action != events.ActionUpdated {
			t.Errorf("events = %+v", pub.events)
		}
	})

	t.Run("mismatched body id", func(t *testing.T) {
		service, _, _ := newTestService(&mockToDoRepository{})
		input := validToDo()
		input.ID = uuid.New()
		if _, err := service.Update(context.Background(), id, input); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("record vanished", func(t *testing.T) {
		repo := &mockToDoRepository{
			updateFn: func(context.Context, *models.ToDo) error { return store.ErrStale },
			existsFn: func(context.Context, uuid.UUID) (bool, error) { return false, nil },
		}
		service, _, _ := newTestService(repo)
		if _, err := service.Update(context.Background(), id, validToDo()); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("stale but still present", func(t *testing.T) {
		repo := &mockToDoRepository{
			updateFn: func(context.Context, *models.ToDo) error { return store.ErrStale },
			existsFn: func(context.Context, uuid.UUID) (bool, error) { return true, nil },
		}
		service, _, _ := newTestService(repo)
		if _, err := service.Update(context.Background(), id, validToDo()); !errors.Is(err, ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		service, _, _ := newTestService(&mockToDoRepository{})
		if _, err := service.Update(context.Background(), id, models.ToDo{}); !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestToDoService_Delete(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		repo := &mockToDoRepository{
			deleteFn: func(context.Context, uuid.UUID) error { return store.ErrNotFound },
		}
		service, _, pub := newTestService(repo)
		if err := service.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		if len(pub.events) != 0 {
			t.Errorf("no event expected, got %+v", pub.events)
		}
	})

	t.Run("success", func(t *testing.T) {
		service, _, pub := newTestService(&mockToDoRepository{})
		if err := service.Delete(context.Background(), uuid.New()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pub.events) != 1 || pub.events[0].Action != events.ActionDeleted {
			t.Errorf("events = %+v", pub.events)
		}
	})
}

func TestToDoService_Upload(t *testing.T) {
	const header = "Title,IsCompleted,CreatedDate,UpdatedDate\n"

	t.Run("inserts all rows in one batch", func(t *testing.T) {
		var batches [][]models.ToDo
		repo := &mockToDoRepository{
			createBatchFn: func(_ context.Context, todos []models.ToDo) error {
				batches = append(batches, todos)
				return nil
			},
		}
		service, _, pub := newTestService(repo)

		body := header + "Buy milk,false,2024-01-01,2024-01-02\nWalk dog,true,2024-01-03,2024-01-04\n"
		n, err := service.Upload(context.Background(), "todos.csv", strings.NewReader(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 2 || len(batches) != 1 || len(batches[0]) != 2 {
			t.Fatalf("n = %d, batches = %v", n, batches)
		}
		if batches[0][0].ID == batches[0][1].ID {
			t.Error("rows share an id")
		}
		if len(pub.events) != 1 || pub.events[0].Count != 2 {
			t.Errorf("events = %+v", pub.events)
		}
	})

	t.Run("bad row aborts the batch", func(t *testing.T) {
		called := false
		repo := &mockToDoRepository{
			createBatchFn: func(context.Context, []models.ToDo) error {
				called = true
				return nil
			},
		}
		service, _, _ := newTestService(repo)

		body := header +
			"a,false,2024-01-01,2024-01-01\n" +
			"b,false,2024-01-01,2024-01-01\n" +
			"c,nope,2024-01-01,2024-01-01\n" +
			"d,false,2024-01-01,2024-01-01\n" +
			"e,false,2024-01-01,2024-01-01\n"
		n, err := service.Upload(context.Background(), "todos.csv", strings.NewReader(body))
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("error = %v, want ErrParseFailed", err)
		}
		if n != 0 || called {
			t.Errorf("n = %d, batch called = %v; want nothing committed", n, called)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		service, _, _ := newTestService(&mockToDoRepository{})
		_, err := service.Upload(context.Background(), "todos.txt", strings.NewReader(header))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		service, _, _ := newTestService(&mockToDoRepository{})
		if _, err := service.Upload(context.Background(), "todos.csv", strings.NewReader("")); !errors.Is(err, ErrNoFileSelected) {
			t.Errorf("error = %v, want ErrNoFileSelected", err)
		}
		if _, err := service.Upload(context.Background(), "todos.csv", nil); !errors.Is(err, ErrNoFileSelected) {
			t.Errorf("nil reader error = %v, want ErrNoFileSelected", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("disk full")
		repo := &mockToDoRepository{
			createBatchFn: func(context.Context, []models.ToDo) error { return boom },
		}
		service, c, _ := newTestService(repo)
		body := header + "a,false,2024-01-01,2024-01-01\n"
		if _, err := service.Upload(context.Background(), "todos.csv", strings.NewReader(body)); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
		if c.gen != 0 {
			t.Errorf("cache should not be invalidated on failure")
		}
	})
}
