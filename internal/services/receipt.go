package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/payledger/apiserver/internal/storage"
	"github.com/payledger/apiserver/types"
)

// ErrNoReceipt is returned when a payment has no attached receipt.
var ErrNoReceipt = errors.New("no receipt attached")

// ReceiptService stores and retrieves receipt documents attached to payments.
type ReceiptService struct {
	repo    PaymentRepository
	storage *storage.Storage
}

func NewReceiptService(repo PaymentRepository, st *storage.Storage) *ReceiptService {
	return &ReceiptService{
		repo:    repo,
		storage: st,
	}
}

// Attach uploads a receipt for the payment and records its object key.
// A previously attached receipt is replaced.
func (s *ReceiptService) Attach(ctx context.Context, paymentID int, filename, contentType string, data []byte) (types.Payment, error) {
	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return types.Payment{}, err
	}

	key := fmt.Sprintf("receipts/%d/%s%s", paymentID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Payment{}, err
	}

	if err := s.repo.SetReceiptKey(ctx, paymentID, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		return types.Payment{}, err
	}

	if payment.ReceiptKey != "" && payment.ReceiptKey != key {
		_ = s.storage.Delete(ctx, payment.ReceiptKey)
	}

	payment.ReceiptKey = key
	return payment, nil
}

// Open streams the receipt attached to the payment.
func (s *ReceiptService) Open(ctx context.Context, paymentID int) (io.ReadCloser, error) {
	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ReceiptKey == "" {
		return nil, ErrNoReceipt
	}
	return s.storage.Get(ctx, payment.ReceiptKey)
}
