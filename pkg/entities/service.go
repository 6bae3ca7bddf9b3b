// Package entities exposes CRUD operations for the record contract's entity
// types on top of the chain submitter and caller.
package entities

import (
	"context"
	"math/big"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/records"
)

// Functions names the contract functions backing one entity.
type Functions struct {
	Create string
	Update string
	Delete string
	Get    string
	List   string
	IDs    string
}

// Service is the CRUD surface of one entity type. T is the decoded record,
// I the typed write input.
type Service[T any, I Input] struct {
	name      string
	fns       Functions
	codec     *records.Codec[T]
	submitter contracts.Submitter
	caller    contracts.Caller
}

// NewService creates a service for the entity called name.
func NewService[T any, I Input](name string, fns Functions, codec *records.Codec[T], submitter contracts.Submitter, caller contracts.Caller) *Service[T, I] {
	return &Service[T, I]{
		name:      name,
		fns:       fns,
		codec:     codec,
		submitter: submitter,
		caller:    caller,
	}
}

// Name returns the entity name used in routes and logs.
func (s *Service[T, I]) Name() string {
	return s.name
}

// Create validates in and submits the create transaction.
func (s *Service[T, I]) Create(ctx context.Context, in I) (*contracts.Receipt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.submitter.Submit(ctx, contracts.Intent{Function: s.fns.Create, Args: in.Args()})
}

// Update validates in and submits the update transaction for id.
func (s *Service[T, I]) Update(ctx context.Context, id uint64, in I) (*contracts.Receipt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	args := append([]any{toBig(id)}, in.Args()...)
	return s.submitter.Submit(ctx, contracts.Intent{Function: s.fns.Update, Args: args})
}

// Delete submits the delete transaction for id.
func (s *Service[T, I]) Delete(ctx context.Context, id uint64) (*contracts.Receipt, error) {
	return s.submitter.Submit(ctx, contracts.Intent{Function: s.fns.Delete, Args: []any{toBig(id)}})
}

// Get reads the record with id.
func (s *Service[T, I]) Get(ctx context.Context, id uint64) (T, error) {
	out, err := s.caller.Call(ctx, s.fns.Get, toBig(id))
	if err != nil {
		var zero T
		return zero, err
	}
	return s.codec.DecodeOne(out)
}

// List reads every record.
func (s *Service[T, I]) List(ctx context.Context) ([]T, error) {
	out, err := s.caller.Call(ctx, s.fns.List)
	if err != nil {
		return nil, err
	}
	return s.codec.DecodeAll(out)
}

// IDs returns the identifier list exactly as the contract reports it.
func (s *Service[T, I]) IDs(ctx context.Context) ([]*big.Int, error) {
	out, err := s.caller.Call(ctx, s.fns.IDs)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, apperrors.NewMalformedResultError(s.codec.Schema().Entity, "expected a single id array")
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, apperrors.NewMalformedResultError(s.codec.Schema().Entity, "id list is not an integer array")
	}
	return ids, nil
}

func toBig(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}

type (
	KnowledgeBaseService = Service[records.KnowledgeBase, KnowledgeBaseInput]
	CustomerService      = Service[records.Customer, CustomerInput]
	ProjectService       = Service[records.Project, ProjectInput]
)

// NewKnowledgeBaseService wires the knowledge-base functions.
func NewKnowledgeBaseService(submitter contracts.Submitter, caller contracts.Caller) *KnowledgeBaseService {
	return NewService[records.KnowledgeBase, KnowledgeBaseInput]("knowledge-base", Functions{
		Create: "createKnowledgeBase",
		Update: "updateKnowledgeBase",
		Delete: "deleteKnowledgeBase",
		Get:    "getKnowledgeBase",
		List:   "getAllKnowledgeBase",
		IDs:    "getAllKnowledgeBaseIds",
	}, records.KnowledgeBases, submitter, caller)
}

// NewCustomerService wires the customer functions.
func NewCustomerService(submitter contracts.Submitter, caller contracts.Caller) *CustomerService {
	return NewService[records.Customer, CustomerInput]("customers", Functions{
		Create: "createCustomer",
		Update: "updateCustomer",
		Delete: "deleteCustomer",
		Get:    "getCustomer",
		List:   "getAllCustomers",
		IDs:    "getAllCustomerIds",
	}, records.Customers, submitter, caller)
}

// NewProjectService wires the project functions. Listing joins customer
// information on the contract side.
func NewProjectService(submitter contracts.Submitter, caller contracts.Caller) *ProjectService {
	return NewService[records.Project, ProjectInput]("projects", Functions{
		Create: "createProject",
		Update: "updateProject",
		Delete: "deleteProject",
		Get:    "getProject",
		List:   "getAllProjectsWithCustomerInformation",
		IDs:    "getAllProjectIds",
	}, records.Projects, submitter, caller)
}

// Counts reads the per-entity totals.
func Counts(ctx context.Context, caller contracts.Caller) (records.Counts, error) {
	out, err := caller.Call(ctx, "getCounts")
	if err != nil {
		return records.Counts{}, err
	}
	return records.CountsCodec.DecodeOne(out)
}
