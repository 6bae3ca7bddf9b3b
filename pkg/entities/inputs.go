package entities

import (
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

// Input is a typed write request for one entity. Args returns the contract
// arguments in declaration order, without the id.
type Input interface {
	Validate() error
	Args() []any
}

// requireFields reports the first empty value of pairs (name, value, ...) as
// a ValidationError carrying message.
func requireFields(message string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return apperrors.NewValidationError(pairs[i], message, nil)
		}
	}
	return nil
}

// KnowledgeBaseInput is the body of a knowledge-base write.
type KnowledgeBaseInput struct {
	Title   string `json:"title"`
	Group   string `json:"group"`
	Content string `json:"content"`
}

func (in KnowledgeBaseInput) Validate() error {
	return requireFields("Title and content are required", "title", in.Title, "content", in.Content)
}

func (in KnowledgeBaseInput) Args() []any {
	return []any{in.Title, in.Group, in.Content}
}

// CustomerInput is the body of a customer write. Phone is optional.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (in CustomerInput) Validate() error {
	return requireFields("Name and email are required", "name", in.Name, "email", in.Email)
}

func (in CustomerInput) Args() []any {
	return []any{in.Name, in.Email, in.Phone}
}

// ProjectInput is the body of a project write.
type ProjectInput struct {
	Name     string `json:"name"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Details  string `json:"details"`
}

func (in ProjectInput) Validate() error {
	return requireFields("Name and customer are required", "name", in.Name, "customer", in.Customer)
}

func (in ProjectInput) Args() []any {
	return []any{in.Name, in.Customer, in.Status, in.Details}
}
