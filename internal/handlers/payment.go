package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/payledger/apiserver/internal/auth"
	"github.com/payledger/apiserver/internal/services"
	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

const (
	maxReceiptMemory   = 8 << 20
	maxReceiptBytes    = 16 << 20
	formFieldReceipt   = "receipt"
	defaultContentType = "application/octet-stream"
)

// PaymentHandler provides HTTP handlers for payments.
type PaymentHandler struct {
	paymentService *services.PaymentService
	receiptService *services.ReceiptService
}

// NewPaymentHandler constructs a handler with the provided services.
// receiptService may be nil when object storage is not configured.
func NewPaymentHandler(paymentService *services.PaymentService, receiptService *services.ReceiptService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// PaymentRouter registers payment routes on the given router.
func PaymentRouter(
	r chi.Router,
	paymentService *services.PaymentService,
	receiptService *services.ReceiptService,
	gate *auth.Gate,
) {
	handler := NewPaymentHandler(paymentService, receiptService)

	r.With(requireOperation(gate, auth.OpPaymentCreate)).Post("/", handler.CreatePayment)
	r.With(requireOperation(gate, auth.OpPaymentList)).Get("/", handler.ListPayments)
	r.Route("/{paymentID}", func(r chi.Router) {
		r.With(requireOperation(gate, auth.OpPaymentGet)).Get("/", handler.GetPayment)
		r.With(requireOperation(gate, auth.OpPaymentUpdate)).Put("/", handler.UpdatePayment)
		r.With(requireOperation(gate, auth.OpPaymentDelete)).Delete("/", handler.DeletePayment)
		r.With(requireOperation(gate, auth.OpReceiptAttach)).Post("/receipt", handler.AttachReceipt)
		r.With(requireOperation(gate, auth.OpReceiptOpen)).Get("/receipt", handler.GetReceipt)
	})
}

// PaymentRequest is the JSON payload for create and update. Amount is kept
// as raw number text so precision survives validation.
type PaymentRequest struct {
	Amount      json.Number `json:"amount"`
	PaymentType string      `json:"paymentType"`
	Category    string      `json:"category"`
	Status      string      `json:"status"`
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	input, err := parsePaymentInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	created, err := h.paymentService.Create(r.Context(), input, identity.Email)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCreator) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create payment")
		return
	}

	writeSuccess(w, http.StatusCreated, "Payment created successfully", created)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	writeSuccess(w, http.StatusOK, "Payments retrieved successfully", payments)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaymentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.paymentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch payment")
		return
	}

	writeSuccess(w, http.StatusOK, "Payment retrieved successfully", payment)
}

func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaymentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := parsePaymentInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.paymentService.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update payment")
		return
	}

	writeSuccess(w, http.StatusOK, "Payment updated successfully", updated)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaymentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.paymentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete payment")
		return
	}

	writeSuccess(w, http.StatusOK, "Payment deleted successfully", nil)
}

// AttachReceipt uploads a receipt document for a payment.
func (h *PaymentHandler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	if h.receiptService == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt storage is not configured")
		return
	}

	id, err := parsePaymentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename, contentType, data, err := parseReceiptUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.receiptService.Attach(r.Context(), id, filename, contentType, data)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to attach receipt")
		return
	}

	writeSuccess(w, http.StatusCreated, "Receipt attached successfully", payment)
}

// GetReceipt streams the receipt attached to a payment.
func (h *PaymentHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	if h.receiptService == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt storage is not configured")
		return
	}

	id, err := parsePaymentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.receiptService.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		if errors.Is(err, services.ErrNoReceipt) {
			writeError(w, http.StatusNotFound, "no receipt attached")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch receipt")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", defaultContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func parsePaymentID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "paymentID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid payment id")
	}
	return id, nil
}

func parsePaymentInput(r *http.Request) (services.PaymentInput, error) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.PaymentInput{}, errors.New("invalid request")
	}

	amount, err := types.ParseAmount(req.Amount.String())
	if err != nil {
		return services.PaymentInput{}, err
	}

	paymentType := types.PaymentType(strings.TrimSpace(req.PaymentType))
	if !paymentType.Valid() {
		return services.PaymentInput{}, errors.New("invalid payment type")
	}

	category := types.PaymentCategory(strings.TrimSpace(req.Category))
	if !category.Valid() {
		return services.PaymentInput{}, errors.New("invalid category")
	}

	status := types.PaymentStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return services.PaymentInput{}, errors.New("invalid status")
	}

	return services.PaymentInput{
		Amount:      amount,
		PaymentType: paymentType,
		Category:    category,
		Status:      status,
	}, nil
}

func parseReceiptUpload(r *http.Request) (filename, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxReceiptMemory); err != nil {
		return "", "", nil, errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldReceipt]
	if len(files) == 0 {
		return "", "", nil, errors.New("receipt file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one receipt file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, errors.New("failed to read receipt file")
	}
	defer file.Close()

	data, err = readFileLimited(file, maxReceiptBytes)
	if err != nil {
		return "", "", nil, err
	}

	contentType = fileHeader.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}
	return fileHeader.Filename, contentType, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
