package model

import "time"

// Kind identifies an entity collection. Values double as the backend
// route segment and as the query-cache key prefix.
type Kind string

const (
	KindCompany Kind = "empresas"
	KindStudent Kind = "alunos"
	KindCourse  Kind = "cursos"
)

// BaseEntity carries the fields shared by every backend entity.
// The server owns id and timestamps; create payloads never send them.
type BaseEntity struct {
	ID        int        `json:"id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// EntityID returns the server-assigned identifier.
func (b BaseEntity) EntityID() int { return b.ID }

// EntityCreatedAt returns the creation timestamp, nil when the backend
// did not report one.
func (b BaseEntity) EntityCreatedAt() *time.Time { return b.CreatedAt }

// Entity is satisfied by every concrete entity via BaseEntity embedding.
type Entity interface {
	EntityID() int
	EntityCreatedAt() *time.Time
}
