package model

// Course represents a training course offered to a company (wire name: curso).
type Course struct {
	BaseEntity
	Name          string  `json:"nome"`
	Description   string  `json:"descricao"`
	DurationHours int     `json:"carga_horaria"`
	Price         float64 `json:"preco"`
	CompanyID     int     `json:"empresa_id"`
}

// CreateCourseRequest is the payload for creating a new course.
// Duration must be a positive number of hours; price may be zero for
// sponsored courses but never negative.
type CreateCourseRequest struct {
	Name          string  `json:"nome" validate:"required,max=100"`
	Description   string  `json:"descricao" validate:"omitempty,max=1000"`
	DurationHours int     `json:"carga_horaria" validate:"required,gt=0"`
	Price         float64 `json:"preco" validate:"gte=0"`
	CompanyID     int     `json:"empresa_id" validate:"required,gt=0"`
}

// UpdateCourseRequest is a partial update; nil fields keep their
// server-side value.
type UpdateCourseRequest struct {
	Name          *string  `json:"nome,omitempty" validate:"omitempty,max=100"`
	Description   *string  `json:"descricao,omitempty" validate:"omitempty,max=1000"`
	DurationHours *int     `json:"carga_horaria,omitempty" validate:"omitempty,gt=0"`
	Price         *float64 `json:"preco,omitempty" validate:"omitempty,gte=0"`
	CompanyID     *int     `json:"empresa_id,omitempty" validate:"omitempty,gt=0"`
}
