package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"wbuilder/internal/config"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/httputil"
)

const webhookSecretHeader = "X-Webhook-Secret"

// CreditsHandler handles balance, ledger history and purchases
type CreditsHandler struct {
	ledger        services.CreditLedger
	payments      services.PaymentService
	webhookSecret string
	logger        *slog.Logger
}

// NewCreditsHandler creates a new credits handler.
// An empty webhookSecret disables payment confirmation.
func NewCreditsHandler(ledger services.CreditLedger, payments services.PaymentService, webhookSecret string, logger *slog.Logger) *CreditsHandler {
	return &CreditsHandler{
		ledger:        ledger,
		payments:      payments,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// GetBalance handles GET /api/credits
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balance(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]int{"credits": balance})
}

// ListTransactions handles GET /api/credits/transactions?limit=N
func (h *CreditsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := min(QueryInt(r, "limit", 50), config.MaxTransactionHistory)
	history, err := h.ledger.History(r.Context(), httputil.GetUserID(r), limit)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, history)
}

// ListPlans handles GET /api/credits/plans
func (h *CreditsHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.payments.Plans())
}

type purchaseRequest struct {
	PlanID string `json:"plan_id"`
}

// CreatePurchase handles POST /api/credits/purchase
func (h *CreditsHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !parseBody(w, r, &req) {
		return
	}

	purchase, err := h.payments.CreatePurchase(r.Context(), httputil.GetUserID(r), req.PlanID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, purchase)
}

type confirmRequest struct {
	PurchaseID string `json:"purchase_id"`
}

// ConfirmPayment handles POST /api/payments/confirm.
// Called by the payment collaborator, authenticated by a shared secret header.
func (h *CreditsHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	given := r.Header.Get(webhookSecretHeader)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.webhookSecret)) != 1 {
		h.logger.Warn("payment confirmation rejected", "remote_addr", r.RemoteAddr)
		httputil.RespondKind(w, http.StatusUnauthorized, domain.KindUnauthorized, "invalid webhook secret")
		return
	}

	var req confirmRequest
	if !parseBody(w, r, &req) {
		return
	}

	purchase, err := h.payments.ConfirmPurchase(r.Context(), req.PurchaseID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, purchase)
}
