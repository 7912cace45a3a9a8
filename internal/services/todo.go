package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todoapp/internal/cache"
	"todoapp/internal/events"
	"todoapp/internal/importer"
	"todoapp/internal/models"
	"todoapp/internal/pagination"
	"todoapp/internal/store"
)

// PageSize is the fixed number of records per listing page.
const PageSize = 5

type ToDoService struct {
	repo       store.ToDoRepository
	cache      cache.ToDoCache
	events     events.Publisher
	log        *log.Logger
	importOpts importer.Options
}

func NewToDoService(
	repo store.ToDoRepository,
	c cache.ToDoCache,
	publisher events.Publisher,
	logger *log.Logger,
	importOpts importer.Options,
) *ToDoService {
	if c == nil {
		c = cache.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ToDoService{
		repo:       repo,
		cache:      c,
		events:     publisher,
		log:        logger,
		importOpts: importOpts,
	}
}

// List returns one page of records whose title contains search, ordered by
// sortKey. Pages past the end are empty.
func (s *ToDoService) List(ctx context.Context, sortKey, search string, page int) (*models.ToDoPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrValidation)
	}
	order := models.ParseSortOrder(sortKey)

	key := fmt.Sprintf("%s|%d|%s", order, page, search)
	gen, useCache := s.generation(ctx)
	if useCache {
		if cached, err := s.cache.GetPage(ctx, gen, key); err != nil {
			s.log.Warn("page cache read failed", "key", key, "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	q := store.ListQuery{Search: search, Sort: order, Limit: PageSize}
	offset, ok := pagination.Offset(page, PageSize)
	if ok {
		q.Offset = offset
	} else {
		// Too far out to address; only the total is needed.
		q.Limit = 0
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	meta := pagination.NewMeta(page, PageSize, total)
	result := &models.ToDoPage{
		Items:           items,
		PageNumber:      meta.PageNumber,
		PageSize:        meta.PageSize,
		TotalItems:      meta.TotalItems,
		PageCount:       meta.PageCount,
		HasPreviousPage: meta.HasPrevious,
		HasNextPage:     meta.HasNext,
		CurrentSort:     order.String(),
		CurrentFilter:   search,
	}

	if useCache {
		if err := s.cache.SetPage(ctx, gen, key, result); err != nil {
			s.log.Warn("page cache write failed", "key", key, "err", err)
		}
	}
	return result, nil
}

func (s *ToDoService) Get(ctx context.Context, id uuid.UUID) (*models.ToDo, error) {
	gen, useCache := s.generation(ctx)
	if useCache {
		if cached, err := s.cache.GetToDo(ctx, gen, id); err != nil {
			s.log.Warn("record cache read failed", "id", id, "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	todo, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.SetToDo(ctx, gen, todo); err != nil {
			s.log.Warn("record cache write failed", "id", id, "err", err)
		}
	}
	return todo, nil
}

// Create stores a new record under a freshly generated id; any id in the
// input is ignored.
func (s *ToDoService) Create(ctx context.Context, input models.ToDo) (*models.ToDo, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	todo := input
	todo.ID = uuid.New()
	if err := s.repo.Create(ctx, &todo); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{Action: events.ActionCreated, ID: &todo.ID})
	return &todo, nil
}

// Update replaces the record stored under id. A body id that disagrees
// with id is treated as not found.
func (s *ToDoService) Update(ctx context.Context, id uuid.UUID, input models.ToDo) (*models.ToDo, error) {
	if input.ID != uuid.Nil && input.ID != id {
		return nil, ErrNotFound
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	todo := input
	todo.ID = id
	err := s.repo.Update(ctx, &todo)
	if errors.Is(err, store.ErrStale) {
		exists, existsErr := s.repo.Exists(ctx, id)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{Action: events.ActionUpdated, ID: &todo.ID})
	return &todo, nil
}

func (s *ToDoService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{Action: events.ActionDeleted, ID: &id})
	return nil
}

// Upload parses the whole file, then inserts every row in one batch. It
// returns the number of records inserted; on error nothing is inserted.
func (s *ToDoService) Upload(ctx context.Context, filename string, r io.Reader) (int, error) {
	if r == nil {
		return 0, ErrNoFileSelected
	}
	if _, err := importer.DetectFormat(filename); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	if buf.Len() == 0 {
		return 0, ErrNoFileSelected
	}

	todos, err := importer.Parse(bytes.NewReader(buf.Bytes()), filename, s.importOpts)
	if err != nil {
		return 0, err
	}
	if len(todos) == 0 {
		return 0, nil
	}

	if err := s.repo.CreateBatch(ctx, todos); err != nil {
		return 0, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{Action: events.ActionImported, Count: len(todos)})
	return len(todos), nil
}

func validate(todo models.ToDo) error {
	var missing []string
	if strings.TrimSpace(todo.Title) == "" {
		missing = append(missing, "title")
	}
	if todo.CreatedDate.IsZero() {
		missing = append(missing, "createdDate")
	}
	if todo.UpdatedDate.IsZero() {
		missing = append(missing, "updatedDate")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// generation reads the cache generation before a store read. On failure
// the caller bypasses the cache for that request.
func (s *ToDoService) generation(ctx context.Context) (int64, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("cache generation read failed", "err", err)
		return 0, false
	}
	return gen, true
}

func (s *ToDoService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("cache invalidation failed", "err", err)
	}
}

func (s *ToDoService) publish(ctx context.Context, event events.Event) {
	event.At = time.Now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("event publish failed", "action", event.Action, "err", err)
	}
}
