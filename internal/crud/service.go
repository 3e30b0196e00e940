// Package crud composes the API gateway, the query cache and payload
// validation into one uniform read/write bundle per entity kind, the
// shape every admin surface (CLI, dialogs, tables) consumes.
package crud

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/conflu/conflu-admin/internal/api"
	"github.com/conflu/conflu-admin/internal/cache"
	"github.com/conflu/conflu-admin/internal/model"
	"github.com/conflu/conflu-admin/internal/validator"
)

// ErrMutationInFlight is returned when a second create/update/delete of
// the same kind is submitted while one is still running. The service
// does not queue or serialize mutations.
var ErrMutationInFlight = errors.New("another mutation of this kind is already in flight")

// recentWindow is how far back a createdAt still counts as "recent"
// in Stats.
const recentWindow = 30 * 24 * time.Hour

// Stats is the derived aggregate for one entity kind. There is no
// server-side aggregation endpoint; both numbers come from the list read.
type Stats struct {
	Total  int
	Recent int
}

// Service is the CRUD bundle for one entity kind. T is the entity,
// C its create payload, U its partial-update payload.
//
// Mutations invalidate the kind's cached queries before returning, so
// any read issued after a successful mutation observes fresh data.
// Errors land on a per-operation slot for passive display and are also
// returned, letting the immediate caller keep a form open.
type Service[T model.Entity, C any, U any] struct {
	res      *api.Resource[T, C, U]
	cache    *cache.Cache
	validate *validator.Validator
	statsTTL time.Duration
	log      zerolog.Logger

	mu          sync.RWMutex
	items       []T
	listErr     error
	loadingList bool
	loadedOnce  bool
	creating    bool
	updating    bool
	deleting    bool
	createErr   error
	updateErr   error
	deleteErr   error
}

// NewService builds the bundle for one resource.
func NewService[T model.Entity, C any, U any](
	res *api.Resource[T, C, U],
	qc *cache.Cache,
	v *validator.Validator,
	statsTTL time.Duration,
	log zerolog.Logger,
) *Service[T, C, U] {
	return &Service[T, C, U]{
		res:      res,
		cache:    qc,
		validate: v,
		statsTTL: statsTTL,
		log:      log.With().Str("component", "crud").Str("kind", string(res.Kind())).Logger(),
	}
}

// Kind returns the entity kind this service manages.
func (s *Service[T, C, U]) Kind() model.Kind { return s.res.Kind() }

// Load reads the (possibly cached) list for the given filters and
// retains it as the current item set. The error is recorded on the
// list slot as well as returned; no other caller awaits a list read.
func (s *Service[T, C, U]) Load(ctx context.Context, f model.Filter) ([]T, error) {
	s.mu.Lock()
	s.loadingList = true
	s.mu.Unlock()

	query := ""
	if f != nil {
		query = f.Query().Encode()
	}

	raw, err := s.cache.Fetch(ctx, string(s.Kind()), query, func(ctx context.Context) ([]byte, error) {
		return s.res.ListRaw(ctx, f)
	})

	var items []T
	if err == nil {
		items, err = api.DecodeList[T](raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.listErr = err
		// An error before anything ever loaded keeps the loading state,
		// so consumers keep showing the skeleton rather than an empty table.
		s.loadingList = !s.loadedOnce
		return nil, err
	}
	s.items = items
	s.listErr = nil
	s.loadingList = false
	s.loadedOnce = true
	return items, nil
}

// Items returns the most recently loaded item set.
func (s *Service[T, C, U]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// IsLoadingList reports whether a list read is pending or the initial
// load has not completed successfully.
func (s *Service[T, C, U]) IsLoadingList() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingList
}

// ListError returns the last list read failure, nil after a success.
func (s *Service[T, C, U]) ListError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listErr
}

// Create validates and submits a new entity, then invalidates the
// kind's cached queries.
func (s *Service[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	if fields := s.validate.Struct(payload); fields != nil {
		err := &api.ValidationError{Fields: fields}
		s.mu.Lock()
		s.createErr = err
		s.mu.Unlock()
		return nil, err
	}

	if err := s.begin(&s.creating, &s.createErr); err != nil {
		return nil, err
	}

	item, err := s.res.Create(ctx, payload)

	s.mu.Lock()
	s.creating = false
	s.createErr = err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// IsCreating reports whether a create call is in flight.
func (s *Service[T, C, U]) IsCreating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creating
}

// CreateError returns the last create failure, nil after a success.
func (s *Service[T, C, U]) CreateError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createErr
}

// Update validates and submits a partial update, then invalidates the
// kind's cached queries.
func (s *Service[T, C, U]) Update(ctx context.Context, id int, payload U) (*T, error) {
	if fields := s.validate.Struct(payload); fields != nil {
		err := &api.ValidationError{Fields: fields}
		s.mu.Lock()
		s.updateErr = err
		s.mu.Unlock()
		return nil, err
	}

	if err := s.begin(&s.updating, &s.updateErr); err != nil {
		return nil, err
	}

	item, err := s.res.Update(ctx, id, payload)

	s.mu.Lock()
	s.updating = false
	s.updateErr = err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// IsUpdating reports whether an update call is in flight.
func (s *Service[T, C, U]) IsUpdating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updating
}

// UpdateError returns the last update failure, nil after a success.
func (s *Service[T, C, U]) UpdateError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateErr
}

// Delete removes an entity, then invalidates the kind's cached
// queries. A NotFoundError propagates; callers may treat it as a
// successful terminal state (the dialog orchestrator does).
func (s *Service[T, C, U]) Delete(ctx context.Context, id int) error {
	if err := s.begin(&s.deleting, &s.deleteErr); err != nil {
		return err
	}

	err := s.res.Delete(ctx, id)

	s.mu.Lock()
	s.deleting = false
	s.deleteErr = err
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// IsDeleting reports whether a delete call is in flight.
func (s *Service[T, C, U]) IsDeleting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleting
}

// DeleteError returns the last delete failure, nil after a success.
func (s *Service[T, C, U]) DeleteError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleteErr
}

// Stats derives {total, recent} from the unfiltered list read. Recent
// counts entities created within the last 30 days. The read shares the
// query cache under a longer freshness window and is invalidated by
// the same mutations as any other query of this kind.
func (s *Service[T, C, U]) Stats(ctx context.Context) (Stats, error) {
	raw, err := s.cache.FetchTTL(ctx, string(s.Kind()), "stats", s.statsTTL, func(ctx context.Context) ([]byte, error) {
		return s.res.ListRaw(ctx, nil)
	})
	if err != nil {
		return Stats{}, err
	}

	items, err := api.DecodeList[T](raw)
	if err != nil {
		return Stats{}, err
	}

	cutoff := time.Now().Add(-recentWindow)
	stats := Stats{Total: len(items)}
	for _, item := range items {
		if created := item.EntityCreatedAt(); created != nil && created.After(cutoff) {
			stats.Recent++
		}
	}
	return stats, nil
}

// begin flips an in-flight flag, rejecting overlapping mutations of
// the same kind.
func (s *Service[T, C, U]) begin(flag *bool, errSlot *error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *flag {
		return ErrMutationInFlight
	}
	*flag = true
	*errSlot = nil
	return nil
}

func (s *Service[T, C, U]) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, string(s.Kind())); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
