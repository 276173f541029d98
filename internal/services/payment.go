package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/payledger/apiserver/internal/events"
	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

// ErrUnknownCreator is returned when the authenticated caller has no matching
// user record. This should not normally occur post-authentication.
var ErrUnknownCreator = errors.New("unknown creator")

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	List(ctx context.Context) ([]types.Payment, error)
	Get(ctx context.Context, id int) (types.Payment, error)
	Create(ctx context.Context, payment types.Payment) (types.Payment, error)
	Update(ctx context.Context, payment types.Payment) (types.Payment, error)
	Delete(ctx context.Context, id int) error
	SetReceiptKey(ctx context.Context, id int, key string) error
}

// PaymentInput carries the caller-supplied payment fields. Amount is already
// validated and normalized at the boundary.
type PaymentInput struct {
	Amount      string
	PaymentType types.PaymentType
	Category    types.PaymentCategory
	Status      types.PaymentStatus
}

// PaymentService encapsulates payment use-cases. It trusts the caller
// identity passed to it; role checks happen upstream in the access gate.
type PaymentService struct {
	repo      PaymentRepository
	users     UserRepository
	publisher *events.Publisher
}

func NewPaymentService(repo PaymentRepository, users UserRepository, publisher *events.Publisher) *PaymentService {
	return &PaymentService{
		repo:      repo,
		users:     users,
		publisher: publisher,
	}
}

// Create resolves the caller to a user, stamps the current time, and
// persists the payment on their behalf.
func (s *PaymentService) Create(ctx context.Context, input PaymentInput, creatorEmail string) (types.Payment, error) {
	creator, err := s.users.GetByEmail(ctx, creatorEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Payment{}, ErrUnknownCreator
		}
		return types.Payment{}, err
	}

	created, err := s.repo.Create(ctx, types.Payment{
		Amount:      input.Amount,
		PaymentType: input.PaymentType,
		Category:    input.Category,
		Status:      input.Status,
		Date:        time.Now(),
		CreatedByID: creator.ID,
		CreatedBy:   creator.Name,
	})
	if err != nil {
		return types.Payment{}, err
	}

	s.publish(ctx, events.PaymentCreated, created)
	return created, nil
}

func (s *PaymentService) List(ctx context.Context) ([]types.Payment, error) {
	return s.repo.List(ctx)
}

func (s *PaymentService) Get(ctx context.Context, id int) (types.Payment, error) {
	return s.repo.Get(ctx, id)
}

// Update overwrites the four mutable fields in place. Date and creator are
// untouched.
func (s *PaymentService) Update(ctx context.Context, id int, input PaymentInput) (types.Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Payment{}, err
	}

	payment.Amount = input.Amount
	payment.PaymentType = input.PaymentType
	payment.Category = input.Category
	payment.Status = input.Status

	updated, err := s.repo.Update(ctx, payment)
	if err != nil {
		return types.Payment{}, err
	}

	s.publish(ctx, events.PaymentUpdated, updated)
	return updated, nil
}

func (s *PaymentService) Delete(ctx context.Context, id int) error {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.PaymentDeleted, payment)
	return nil
}

// publish is best-effort: a broker failure must never fail the API call.
func (s *PaymentService) publish(ctx context.Context, eventType events.Type, payment types.Payment) {
	if err := s.publisher.Publish(ctx, eventType, payment); err != nil {
		log.Printf("events: publish %s for payment %d failed: %v", eventType, payment.ID, err)
	}
}
