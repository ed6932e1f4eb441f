package wallet

import (
	"net/http"

	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/money"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Config config.Config
	Repo   Repository
	Ledger ledger.Repository
}

func NewHandler(cfg config.Config, repo Repository, ledgerRepo ledger.Repository) *Handler {
	return &Handler{Config: cfg, Repo: repo, Ledger: ledgerRepo}
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	wallet, err := h.Repo.GetOrCreate(r.Context(), usr.ID.String(), h.Config.DefaultCurrency)
	if err != nil {
		logger.Error("Failed to load wallet", logger.Merge(logger.WithError(err), logger.Fields{logger.UserIdKey: usr.ID.String()}))
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to load wallet", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Details", map[string]interface{}{
		"id":              wallet.ID,
		"balance":         wallet.Balance,
		"balance_display": money.Format(wallet.Balance, wallet.Currency),
		"currency":        wallet.Currency,
		"has_pin":         wallet.HasPin(),
	})
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)

	txs, err := h.Ledger.ListByAccount(r.Context(), usr.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch transactions", nil)
		return
	}

	count, _ := h.Ledger.CountByAccount(r.Context(), usr.ID.String())
	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction History", map[string]interface{}{
		"transactions": txs,
		"meta":         utils.NewPageMeta(count, limit, page),
	})
}

type SetPinRequest struct {
	Pin string `json:"pin"`
}

func (h *Handler) SetPin(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req SetPinRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if !validPin(req.Pin) {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "PIN must be 4 digits", nil)
		return
	}

	if _, err := h.Repo.GetOrCreate(r.Context(), usr.ID.String(), h.Config.DefaultCurrency); err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	hashedPin, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to secure PIN", nil)
		return
	}

	if err := h.Repo.SetPin(r.Context(), usr.ID.String(), string(hashedPin)); err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Wallet PIN set", nil)
}

func validPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
