package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/conflu/conflu-admin/internal/api"
	"github.com/conflu/conflu-admin/internal/cache"
	"github.com/conflu/conflu-admin/internal/model"
	"github.com/conflu/conflu-admin/internal/validator"
)

// fakeBackend is a minimal in-memory REST backend for one collection.
// Items are loose maps so PATCH can merge arbitrary field subsets the
// way the real backend does.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int
	items  []map[string]any
	// block, when set, is waited on before POST handling returns.
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1}
}

func (b *fakeBackend) handler(collection string) http.Handler {
	prefix := "/" + collection + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")

		b.mu.Lock()
		defer b.mu.Unlock()

		switch {
		case rest == "" && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, b.items)
		case rest == "" && r.Method == http.MethodPost:
			if b.block != nil {
				b.mu.Unlock()
				<-b.block
				b.mu.Lock()
			}
			var item map[string]any
			json.NewDecoder(r.Body).Decode(&item)
			item["id"] = b.nextID
			item["created_at"] = time.Now().UTC().Format(time.RFC3339)
			b.nextID++
			b.items = append(b.items, item)
			writeJSON(w, http.StatusCreated, item)
		default:
			id, err := strconv.Atoi(rest)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			idx := -1
			for i, item := range b.items {
				if int(item["id"].(int)) == id {
					idx = i
					break
				}
			}
			if idx < 0 {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
				return
			}
			switch r.Method {
			case http.MethodGet:
				writeJSON(w, http.StatusOK, b.items[idx])
			case http.MethodPatch:
				var patch map[string]any
				json.NewDecoder(r.Body).Decode(&patch)
				for k, v := range patch {
					b.items[idx][k] = v
				}
				writeJSON(w, http.StatusOK, b.items[idx])
			case http.MethodDelete:
				b.items = append(b.items[:idx], b.items[idx+1:]...)
				w.WriteHeader(http.StatusNoContent)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) seed(item map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item["id"] = b.nextID
	b.nextID++
	b.items = append(b.items, item)
}

func newCourseService(t *testing.T, backend *fakeBackend) *Service[model.Course, model.CreateCourseRequest, model.UpdateCourseRequest] {
	t.Helper()
	srv := httptest.NewServer(backend.handler("cursos"))
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	qc := cache.New(cache.NewMemoryStore(), func(string) time.Duration { return time.Minute }, zerolog.Nop())
	return NewService(client.Courses(), qc, validator.New(), 10*time.Minute, zerolog.Nop())
}

func TestCreateThenListIncludesEntityOnce(t *testing.T) {
	svc := newCourseService(t, newFakeBackend())
	ctx := context.Background()

	// Prime the cache so the later list must be served post-invalidation.
	if _, err := svc.Load(ctx, nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	created, err := svc.Create(ctx, model.CreateCourseRequest{
		Name: "X", DurationHours: 10, Price: 99.90, CompanyID: 1,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	items, err := svc.Load(ctx, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	count := 0
	for _, item := range items {
		if item.ID == created.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("created entity appears %d times, want 1", count)
	}
	if items[0].Name != "X" {
		t.Errorf("name = %q, want X", items[0].Name)
	}
}

func TestDeleteThenListExcludesEntity(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(map[string]any{"nome": "Doomed", "carga_horaria": 4, "preco": 10.0, "empresa_id": 1})
	svc := newCourseService(t, backend)
	ctx := context.Background()

	items, err := svc.Load(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	id := items[0].ID

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	items, err = svc.Load(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range items {
		if item.ID == id {
			t.Fatalf("deleted id %d still listed", id)
		}
	}

	// Idempotent from the caller's perspective: the repeat surfaces
	// NotFound, a terminal state the caller may treat as success.
	err = svc.Delete(ctx, id)
	if !api.IsNotFound(err) {
		t.Fatalf("second Delete() error = %v, want NotFoundError", err)
	}
}

func TestPartialUpdatePreservesOtherFields(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(map[string]any{"nome": "Original", "descricao": "keep me", "carga_horaria": 8, "preco": 50.0, "empresa_id": 2})
	svc := newCourseService(t, backend)
	ctx := context.Background()

	items, err := svc.Load(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	id := items[0].ID

	newName := "Renamed"
	updated, err := svc.Update(ctx, id, model.UpdateCourseRequest{Name: &newName})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", updated.Name)
	}
	if updated.Description != "keep me" {
		t.Errorf("description = %q, want unchanged", updated.Description)
	}
	if updated.DurationHours != 8 || updated.Price != 50.0 || updated.CompanyID != 2 {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestCreateRejectsInvalidPayloadBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	svc := newCourseService(t, backend)

	_, err := svc.Create(context.Background(), model.CreateCourseRequest{
		Name: "X", DurationHours: 0, Price: 99.90, CompanyID: 1,
	})

	ve, ok := api.AsValidation(err)
	if !ok {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
	if _, ok := ve.Fields["carga_horaria"]; !ok {
		t.Errorf("fields = %v, want carga_horaria flagged", ve.Fields)
	}
	if svc.CreateError() == nil {
		t.Error("create error slot not recorded")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.items) != 0 {
		t.Error("invalid payload reached the backend")
	}
}

func TestMutationErrorSlotClearsOnSuccess(t *testing.T) {
	svc := newCourseService(t, newFakeBackend())
	ctx := context.Background()

	if _, err := svc.Create(ctx, model.CreateCourseRequest{Name: "X"}); err == nil {
		t.Fatal("want validation failure")
	}
	if svc.CreateError() == nil {
		t.Fatal("error slot empty after failure")
	}

	if _, err := svc.Create(ctx, model.CreateCourseRequest{
		Name: "Y", DurationHours: 2, CompanyID: 1,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if svc.CreateError() != nil {
		t.Errorf("error slot = %v after success, want nil", svc.CreateError())
	}
}

func TestConcurrentSameKindMutationRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	svc := newCourseService(t, backend)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Create(ctx, model.CreateCourseRequest{Name: "Slow", DurationHours: 1, CompanyID: 1})
		firstDone <- err
	}()

	// Wait until the first create reaches the backend.
	deadline := time.Now().Add(2 * time.Second)
	for !svc.IsCreating() {
		if time.Now().After(deadline) {
			t.Fatal("first create never reached in-flight state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := svc.Create(ctx, model.CreateCourseRequest{Name: "Fast", DurationHours: 1, CompanyID: 1})
	if !errors.Is(err, ErrMutationInFlight) {
		t.Fatalf("second Create() error = %v, want ErrMutationInFlight", err)
	}

	close(backend.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if svc.IsCreating() {
		t.Error("IsCreating still true after completion")
	}
}

func TestStatsCountsRecentEntities(t *testing.T) {
	backend := newFakeBackend()
	for _, age := range []int{40, 10, 2} {
		createdAt := time.Now().AddDate(0, 0, -age).UTC().Format(time.RFC3339)
		backend.seed(map[string]any{"nome": fmt.Sprintf("c%d", age), "carga_horaria": 1, "preco": 0.0, "empresa_id": 1, "created_at": createdAt})
	}
	svc := newCourseService(t, backend)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Recent != 2 {
		t.Errorf("recent = %d, want 2", stats.Recent)
	}
}

func TestListErrorRecordedAndSkeletonKeptOnInitialLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	qc := cache.New(cache.NewMemoryStore(), func(string) time.Duration { return time.Minute }, zerolog.Nop())
	svc := NewService(client.Courses(), qc, validator.New(), 10*time.Minute, zerolog.Nop())

	_, err := svc.Load(context.Background(), nil)
	if err == nil {
		t.Fatal("want list error")
	}
	if svc.ListError() == nil {
		t.Error("list error slot not recorded")
	}
	if !svc.IsLoadingList() {
		t.Error("initial load failure should keep the loading state for the skeleton fallback")
	}
}
