package model

// Student represents an enrolled student (wire name: aluno).
// CompanyID references an existing Company; the backend enforces the
// constraint, the client treats it as an opaque foreign key.
type Student struct {
	BaseEntity
	Name      string `json:"nome"`
	TaxID     string `json:"cpf"`
	Email     string `json:"email"`
	Phone     string `json:"telefone"`
	BirthDate string `json:"data_nascimento,omitempty"` // ISO date (2006-01-02)
	CompanyID int    `json:"empresa_id"`
}

// CreateStudentRequest is the payload for enrolling a new student.
type CreateStudentRequest struct {
	Name      string `json:"nome" validate:"required,min=2,max=100"`
	TaxID     string `json:"cpf" validate:"omitempty,len=11,numeric"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"telefone" validate:"omitempty,max=15"`
	BirthDate string `json:"data_nascimento,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompanyID int    `json:"empresa_id" validate:"required,gt=0"`
}

// UpdateStudentRequest is a partial update; nil fields keep their
// server-side value.
type UpdateStudentRequest struct {
	Name      *string `json:"nome,omitempty" validate:"omitempty,min=2,max=100"`
	TaxID     *string `json:"cpf,omitempty" validate:"omitempty,len=11,numeric"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"telefone,omitempty" validate:"omitempty,max=15"`
	BirthDate *string `json:"data_nascimento,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompanyID *int    `json:"empresa_id,omitempty" validate:"omitempty,gt=0"`
}
