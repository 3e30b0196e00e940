package model

// Company represents a partner company (wire name: empresa).
type Company struct {
	BaseEntity
	Name    string `json:"nome"`
	TaxID   string `json:"cnpj"`
	Email   string `json:"email"`
	Phone   string `json:"telefone"`
	Address string `json:"endereco"`
}

// CreateCompanyRequest is the payload for registering a new company.
type CreateCompanyRequest struct {
	Name    string `json:"nome" validate:"required,min=2,max=100"`
	TaxID   string `json:"cnpj" validate:"omitempty,len=14,numeric"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"telefone" validate:"omitempty,max=15"`
	Address string `json:"endereco" validate:"omitempty,max=100"`
}

// UpdateCompanyRequest is a partial update; nil fields keep their
// server-side value.
type UpdateCompanyRequest struct {
	Name    *string `json:"nome,omitempty" validate:"omitempty,min=2,max=100"`
	TaxID   *string `json:"cnpj,omitempty" validate:"omitempty,len=14,numeric"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"telefone,omitempty" validate:"omitempty,max=15"`
	Address *string `json:"endereco,omitempty" validate:"omitempty,max=100"`
}
