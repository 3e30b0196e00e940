package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/conflu/conflu-admin/internal/model"
)

// Resource is the typed gateway for one entity collection. T is the
// entity, C its create payload, U its partial-update payload.
type Resource[T any, C any, U any] struct {
	client *Client
	kind   model.Kind
}

// NewResource builds a typed resource over the shared client.
func NewResource[T any, C any, U any](c *Client, kind model.Kind) *Resource[T, C, U] {
	return &Resource[T, C, U]{client: c, kind: kind}
}

// Kind returns the entity kind this resource serves.
func (r *Resource[T, C, U]) Kind() model.Kind { return r.kind }

func (r *Resource[T, C, U]) collectionPath() string {
	return fmt.Sprintf("/%s/", r.kind)
}

func (r *Resource[T, C, U]) itemPath(id int) string {
	return fmt.Sprintf("/%s/%d/", r.kind, id)
}

// ListRaw fetches the collection and returns the raw JSON array. The
// CRUD layer routes list reads through the query cache, which stores
// the raw bytes.
func (r *Resource[T, C, U]) ListRaw(ctx context.Context, f model.Filter) ([]byte, error) {
	var query url.Values
	if f != nil {
		query = f.Query()
	}
	return r.client.get(ctx, r.collectionPath(), query)
}

// List fetches and decodes the collection. Never returns a nil slice.
func (r *Resource[T, C, U]) List(ctx context.Context, f model.Filter) ([]T, error) {
	raw, err := r.ListRaw(ctx, f)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](raw)
}

// Get fetches a single entity; a missing id yields a NotFoundError.
func (r *Resource[T, C, U]) Get(ctx context.Context, id int) (*T, error) {
	raw, err := r.client.get(ctx, r.itemPath(id), nil)
	if err != nil {
		return nil, err
	}
	var item T
	if err := decode(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create submits a new entity; the server assigns id and timestamps.
func (r *Resource[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	raw, err := r.client.post(ctx, r.collectionPath(), payload)
	if err != nil {
		return nil, err
	}
	var item T
	if err := decode(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies a partial update; fields absent from the payload keep
// their prior server value.
func (r *Resource[T, C, U]) Update(ctx context.Context, id int, payload U) (*T, error) {
	raw, err := r.client.patch(ctx, r.itemPath(id), payload)
	if err != nil {
		return nil, err
	}
	var item T
	if err := decode(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an entity. A repeat delete surfaces NotFoundError,
// which callers may treat as a successful terminal state.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id int) error {
	return r.client.delete(ctx, r.itemPath(id))
}

// Typed collections, mirroring the backend's three routes.

func (c *Client) Companies() *Resource[model.Company, model.CreateCompanyRequest, model.UpdateCompanyRequest] {
	return NewResource[model.Company, model.CreateCompanyRequest, model.UpdateCompanyRequest](c, model.KindCompany)
}

func (c *Client) Students() *Resource[model.Student, model.CreateStudentRequest, model.UpdateStudentRequest] {
	return NewResource[model.Student, model.CreateStudentRequest, model.UpdateStudentRequest](c, model.KindStudent)
}

func (c *Client) Courses() *Resource[model.Course, model.CreateCourseRequest, model.UpdateCourseRequest] {
	return NewResource[model.Course, model.CreateCourseRequest, model.UpdateCourseRequest](c, model.KindCourse)
}
