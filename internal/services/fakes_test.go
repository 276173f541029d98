package services

import (
	"context"
	"time"

	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for id := 1; id <= r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// fakePaymentRepo is an in-memory PaymentRepository for tests.
type fakePaymentRepo struct {
	nextID   int
	payments map[int]types.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[int]types.Payment)}
}

func (r *fakePaymentRepo) List(ctx context.Context) ([]types.Payment, error) {
	payments := make([]types.Payment, 0, len(r.payments))
	for id := 1; id <= r.nextID; id++ {
		if payment, ok := r.payments[id]; ok {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

func (r *fakePaymentRepo) Get(ctx context.Context, id int) (types.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return types.Payment{}, store.ErrNotFound
	}
	return payment, nil
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	r.nextID++
	payment.ID = r.nextID
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.payments[payment.ID] = payment
	return payment, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment types.Payment) (types.Payment, error) {
	if _, ok := r.payments[payment.ID]; !ok {
		return types.Payment{}, store.ErrNotFound
	}
	payment.UpdatedAt = time.Now()
	r.payments[payment.ID] = payment
	return payment, nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.payments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) SetReceiptKey(ctx context.Context, id int, key string) error {
	payment, ok := r.payments[id]
	if !ok {
		return store.ErrNotFound
	}
	payment.ReceiptKey = key
	payment.UpdatedAt = time.Now()
	r.payments[id] = payment
	return nil
}

// recordingBackend captures published event payloads for assertions.
type recordingBackend struct {
	channels []string
	attrs    []map[string]string
	bodies   [][]byte
}

func (b *recordingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channels = append(b.channels, channel)
	b.bodies = append(b.bodies, data)
	b.attrs = append(b.attrs, attrs)
	return "msg-1", nil
}

func (b *recordingBackend) Close() error {
	return nil
}
