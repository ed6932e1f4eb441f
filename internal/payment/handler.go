package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/gateway"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

type Handler struct {
	Config  config.Config
	Service *Service
}

func NewHandler(cfg config.Config, svc *Service) *Handler {
	return &Handler{Config: cfg, Service: svc}
}

type InitializeRequest struct {
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency,omitempty"`
	Email     string `json:"email,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

func (h *Handler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req InitializeRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	charge, err := h.Service.InitializeCharge(r.Context(), usr, ChargeRequest{
		AccountID: req.AccountID,
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
	})
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusAccepted, "Payment initialized", charge)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "reference is required", nil)
		return
	}

	result, err := h.Service.VerifyCharge(r.Context(), reference)
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	writeResult(w, result)
}

func writeResult(w http.ResponseWriter, result *ReconciliationResult) {
	switch result.Outcome {
	case OutcomePartial:
		utils.BuildWarningResponse(w, http.StatusMultiStatus, result.Message, result)
	case OutcomeFailed:
		utils.WriteJSON(w, http.StatusOK, utils.Response{Status: "failed", Message: result.Message, Data: result})
	default:
		utils.BuildSuccessResponse(w, http.StatusOK, result.Message, result)
	}
}

// PaymentCallback is where the gateway sends the customer after checkout.
// It always redirects to the wallet view; the query carries the outcome.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	if reference == "" {
		h.redirect(w, r, "error", "Missing payment reference")
		return
	}

	result, err := h.Service.VerifyCharge(r.Context(), reference)
	if err != nil {
		msg := "Payment could not be verified, please try again"
		if apperrors.KindOf(err) == apperrors.KindGatewayTimeout {
			msg = "Payment provider is slow to respond, please check again shortly"
		}
		h.redirect(w, r, "error", msg)
		return
	}

	switch result.Outcome {
	case OutcomeSuccess, OutcomeNoOp:
		h.redirect(w, r, "success", result.Message)
	case OutcomePartial:
		h.redirect(w, r, "partial", result.Message+" Reference: "+result.Reference)
	default:
		h.redirect(w, r, "failed", result.Message)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, status, message string) {
	target, err := url.Parse(h.Config.WalletViewURL)
	if err != nil {
		logger.Error("Invalid wallet view URL", logger.WithError(err))
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	q := target.Query()
	q.Set("status", status)
	q.Set("message", message)
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// PaystackWebhook verifies the signature and then reconciles against the
// gateway itself; the payload is never trusted for amounts or status.
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		logger.Error("Webhook: Failed to read body", logger.WithError(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !gateway.VerifyWebhookSignature(h.Config.PaystackSecret, body, r.Header.Get("x-paystack-signature")) {
		logger.Warn("Webhook: Signature mismatch", logger.Fields{"remote_addr": r.RemoteAddr})
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if event.Event != "charge.success" || strings.TrimSpace(event.Data.Reference) == "" {
		logger.Debug("Webhook: Event ignored", logger.Fields{"event": event.Event})
		w.WriteHeader(http.StatusOK)
		return
	}

	result, err := h.Service.VerifyCharge(r.Context(), event.Data.Reference)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindValidation:
			// Retrying cannot fix an unattributable charge; it is already logged.
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	logger.Info("Webhook: Processed", logger.Fields{
		logger.ReferenceKey: result.Reference,
		"outcome":           result.Outcome,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	tx, err := h.Service.Ledger.GetByReference(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	if tx.AccountID != usr.ID {
		utils.BuildErrorResponse(w, http.StatusNotFound, "transaction not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction", tx)
}
