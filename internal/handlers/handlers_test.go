package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/payledger/apiserver/internal/auth"
	"github.com/payledger/apiserver/internal/services"
	"github.com/payledger/apiserver/internal/storage"
	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

// newTestRouter wires the full route tree against in-memory repositories so
// the access-gate middleware and envelope handling are exercised end to end.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	userRepo := newMemUserRepo()
	paymentRepo := newMemPaymentRepo()

	userService := services.NewUserService(userRepo)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, nil)
	receiptService := services.NewReceiptService(paymentRepo, storage.NewStorage(newMemObjectStorage()))

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	gate := auth.NewGate(issuer)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, issuer)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, gate)
	})
	router.Route("/payments", func(r chi.Router) {
		PaymentRouter(r, paymentService, receiptService, gate)
	})
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var env envelope
	if strings.HasPrefix(recorder.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v (body: %s)", method, path, err, recorder.Body.String())
		}
	}
	return recorder, env
}

func registerAndLogin(t *testing.T, router http.Handler, name, email, password string, role types.Role) string {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"` + password + `","role":"` + string(role) + `"}`
	recorder, _ := doRequest(t, router, http.MethodPost, "/auth/register", "", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d (body: %s)", email, recorder.Code, recorder.Body.String())
	}

	loginBody := `{"email":"` + email + `","password":"` + password + `"}`
	recorder, env := doRequest(t, router, http.MethodPost, "/auth/login", "", loginBody)
	if recorder.Code != http.StatusOK {
		t.Fatalf("login %s: status %d (body: %s)", email, recorder.Code, recorder.Body.String())
	}

	var resp JwtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

// In-memory repositories mirroring the store contracts.

type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
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

func (r *memUserRepo) List(ctx context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for id := 1; id <= r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

type memPaymentRepo struct {
	nextID   int
	payments map[int]types.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[int]types.Payment)}
}

func (r *memPaymentRepo) List(ctx context.Context) ([]types.Payment, error) {
	payments := make([]types.Payment, 0, len(r.payments))
	for id := 1; id <= r.nextID; id++ {
		if payment, ok := r.payments[id]; ok {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

func (r *memPaymentRepo) Get(ctx context.Context, id int) (types.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return types.Payment{}, store.ErrNotFound
	}
	return payment, nil
}

func (r *memPaymentRepo) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	r.nextID++
	payment.ID = r.nextID
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.payments[payment.ID] = payment
	return payment, nil
}

func (r *memPaymentRepo) Update(ctx context.Context, payment types.Payment) (types.Payment, error) {
	if _, ok := r.payments[payment.ID]; !ok {
		return types.Payment{}, store.ErrNotFound
	}
	payment.UpdatedAt = time.Now()
	r.payments[payment.ID] = payment
	return payment, nil
}

func (r *memPaymentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.payments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memPaymentRepo) SetReceiptKey(ctx context.Context, id int, key string) error {
	payment, ok := r.payments[id]
	if !ok {
		return store.ErrNotFound
	}
	payment.ReceiptKey = key
	r.payments[id] = payment
	return nil
}

type memObjectStorage struct {
	objects map[string][]byte
}

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{objects: make(map[string][]byte)}
}

func (m *memObjectStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *memObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *memObjectStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjectStorage) Bucket() string { return "test-bucket" }
