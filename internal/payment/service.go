package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/internal/gateway"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/internal/metrics"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/internal/wallet"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/id"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/money"
	"golang.org/x/crypto/bcrypt"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoOp    Outcome = "idempotent_no_op"
	OutcomeFailed  Outcome = "failed"
	OutcomePartial Outcome = "partial_failure"
)

const supportMessage = "Your payment was received but your balance could not be updated. Please contact support with the reference."

type ChargeRequest struct {
	// AccountID and Email are the charge's declared owner. Either may be
	// empty, in which case the caller's own value is used.
	AccountID string
	Email     string
	Amount    int64
	Currency  string
}

type Charge struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
}

type ReconciliationResult struct {
	Reference     string           `json:"reference"`
	Outcome       Outcome          `json:"outcome"`
	GatewayStatus string           `json:"gateway_status,omitempty"`
	Status        ledger.Status    `json:"transaction_status,omitempty"`
	Direction     ledger.Direction `json:"direction,omitempty"`
	AccountID     string           `json:"account_id,omitempty"`
	Amount        int64            `json:"amount"`
	Currency      string           `json:"currency,omitempty"`
	Balance       *int64           `json:"balance,omitempty"`
	Message       string           `json:"message"`
	Warning       string           `json:"warning,omitempty"`
}

// CreateFunc creates a shipment and its line items as one unit and returns its id.
type CreateFunc func(ctx context.Context) (string, error)

type DebitResult struct {
	ShipmentID string  `json:"shipment_id"`
	Reference  string  `json:"reference"`
	Outcome    Outcome `json:"outcome"`
	Amount     int64   `json:"amount"`
	Balance    *int64  `json:"balance,omitempty"`
	Warning    string  `json:"warning,omitempty"`
}

// AccountLookup recovers the owner of a verified charge whose ledger row is missing.
type AccountLookup interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// Service owns every wallet mutation: gateway top-ups and shipment debits.
type Service struct {
	Config   config.Config
	Wallets  wallet.Repository
	Ledger   ledger.Repository
	Gateway  gateway.Verifier
	Accounts AccountLookup
}

func NewService(cfg config.Config, wallets wallet.Repository, ledgerRepo ledger.Repository, gw gateway.Verifier, accounts AccountLookup) *Service {
	return &Service{Config: cfg, Wallets: wallets, Ledger: ledgerRepo, Gateway: gw, Accounts: accounts}
}

func (s *Service) InitializeCharge(ctx context.Context, caller user.User, req ChargeRequest) (*Charge, error) {
	if caller.ID == uuid.Nil {
		return nil, apperrors.Unauthenticated("no authenticated account")
	}
	if req.AccountID != "" && req.AccountID != caller.ID.String() {
		return nil, apperrors.Unauthenticated("charge owner does not match the authenticated account")
	}
	if req.Email != "" && !strings.EqualFold(strings.TrimSpace(req.Email), caller.Email) {
		return nil, apperrors.Unauthenticated("email does not match the authenticated account")
	}
	if req.Amount <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	if req.Amount < s.Config.MinTransactionAmount {
		return nil, apperrors.Validation(fmt.Sprintf("amount can't be less than %s", money.Format(s.Config.MinTransactionAmount, s.Config.DefaultCurrency)))
	}

	currency, err := s.chargeCurrency(ctx, caller.ID.String(), req.Currency)
	if err != nil {
		return nil, err
	}

	reference := id.NewReference("dep")
	metadata := map[string]any{
		"account_id": caller.ID.String(),
		"direction":  string(ledger.DirectionCredit),
		"currency":   currency,
	}

	started, err := s.Gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:      req.Amount,
		Currency:    currency,
		Email:       caller.Email,
		Reference:   reference,
		CallbackURL: strings.TrimRight(s.Config.Host, "/") + "/api/payment/callback",
		Metadata:    metadata,
	})
	if err != nil {
		logger.Error("Gateway initialization failed", logger.Merge(logger.WithError(err), logger.Fields{
			logger.ReferenceKey: reference,
			logger.UserIdKey:    caller.ID.String(),
		}))
		return nil, err
	}
	if started.Reference != "" {
		reference = started.Reference
	}

	tx := &ledger.Transaction{
		Reference:   reference,
		AccountID:   caller.ID,
		Amount:      req.Amount,
		Currency:    currency,
		Direction:   ledger.DirectionCredit,
		GatewayName: s.Gateway.Name(),
		Metadata:    metadata,
	}
	if err := s.Ledger.InsertPending(ctx, tx); err != nil {
		// The gateway holds the authoritative record; verification rebuilds the row.
		logger.Warn("Pending transaction not recorded, continuing", logger.Merge(logger.WithError(err), logger.Fields{
			logger.ReferenceKey: reference,
		}))
	}

	return &Charge{Reference: reference, AuthorizationURL: started.AuthorizationURL, AccessCode: started.AccessCode}, nil
}

func (s *Service) chargeCurrency(ctx context.Context, accountID, requested string) (string, error) {
	requested = strings.ToUpper(strings.TrimSpace(requested))

	w, err := s.Wallets.GetByAccountID(ctx, accountID)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return "", err
		}
		if requested == "" {
			return s.Config.DefaultCurrency, nil
		}
		return requested, nil
	}

	if requested != "" && requested != w.Currency {
		return "", apperrors.Validation(fmt.Sprintf("wallet currency is %s, cannot charge in %s", w.Currency, requested))
	}
	return w.Currency, nil
}

// VerifyCharge reconciles reference with the gateway. Any number of calls,
// concurrent or not, produce at most one wallet mutation per reference.
func (s *Service) VerifyCharge(ctx context.Context, reference string) (*ReconciliationResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.Validation("reference is required")
	}
	fields := logger.Fields{logger.ReferenceKey: reference}

	v, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrReferenceNotFound):
			logger.Warn("Verification requested for unknown reference", fields)
			return s.record("verify", &ReconciliationResult{
				Reference: reference,
				Outcome:   OutcomeFailed,
				Message:   "Unknown payment reference",
			}), nil
		case apperrors.KindOf(err) == apperrors.KindGatewayTimeout:
			logger.Warn("Gateway verification timed out", logger.Merge(fields, logger.WithError(err)))
			metrics.ReconciliationOutcomes.WithLabelValues("verify", string(apperrors.KindGatewayTimeout)).Inc()
		default:
			logger.Error("Gateway verification failed", logger.Merge(fields, logger.WithError(err)))
			metrics.ReconciliationOutcomes.WithLabelValues("verify", string(apperrors.KindGateway)).Inc()
		}
		return nil, err
	}

	if v.Status != gateway.StatusSuccess {
		if v.Status == gateway.StatusFailed {
			if _, err := s.Ledger.MarkFailed(ctx, reference, v.GatewayTransactionID); err != nil {
				logger.Error("Failed to mark transaction failed", logger.Merge(fields, logger.WithError(err)))
			}
		}
		return s.record("verify", &ReconciliationResult{
			Reference:     reference,
			Outcome:       OutcomeFailed,
			GatewayStatus: v.RawStatus,
			Amount:        v.Amount,
			Currency:      v.Currency,
			Message:       "Payment was not successful",
		}), nil
	}

	existing, err := s.Ledger.GetByReference(ctx, reference)
	lookupFailed := err != nil && apperrors.KindOf(err) != apperrors.KindNotFound
	if lookupFailed {
		// The claim below is still atomic, so a failed read only costs the fast path.
		logger.Warn("Transaction lookup failed, falling back to claim", logger.Merge(fields, logger.WithError(err)))
		existing = nil
	}
	if existing != nil && existing.Status != ledger.StatusPending {
		return s.settled(ctx, existing, v), nil
	}

	var fallback *ledger.Transaction
	if existing == nil {
		fallback, err = s.synthesize(ctx, reference, v)
		if err != nil && lookupFailed {
			// A pending row may still exist; let the claim find it.
			logger.Warn("No fallback transaction for unread reference", logger.Merge(fields, logger.WithError(err)))
			fallback = nil
		} else if err != nil {
			logger.Error("CRITICAL: Verified payment cannot be attributed to an account", logger.Merge(fields, logger.WithError(err), logger.Fields{
				"amount":         v.Amount,
				"customer_email": v.CustomerEmail,
			}))
			metrics.ReconciliationOutcomes.WithLabelValues("verify", "unattributed").Inc()
			return nil, err
		}
	}

	claimed, tx, err := s.Ledger.ClaimCompletion(ctx, reference, v.GatewayTransactionID, fallback)
	if err != nil {
		logger.Error("Failed to complete transaction", logger.Merge(fields, logger.WithError(err)))
		metrics.ReconciliationOutcomes.WithLabelValues("verify", string(apperrors.KindInternal)).Inc()
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to record payment", err)
	}
	if !claimed {
		return s.settled(ctx, tx, v), nil
	}

	result := &ReconciliationResult{
		Reference:     reference,
		GatewayStatus: v.RawStatus,
		Status:        tx.Status,
		Direction:     tx.Direction,
		AccountID:     tx.AccountID.String(),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
	}

	if tx.Amount != v.Amount {
		return s.partial(ctx, result, fmt.Sprintf("gateway amount %d does not match recorded amount %d", v.Amount, tx.Amount)), nil
	}

	target, err := s.Wallets.GetOrCreate(ctx, tx.AccountID.String(), tx.Currency)
	if err != nil {
		logger.Error("Failed to load wallet for completed transaction", logger.Merge(fields, logger.WithError(err)))
		return s.partial(ctx, result, "wallet unavailable: "+err.Error()), nil
	}
	if target.Currency != tx.Currency {
		return s.partial(ctx, result, fmt.Sprintf("transaction currency %s does not match wallet currency %s", tx.Currency, target.Currency)), nil
	}

	w, err := s.Wallets.Adjust(ctx, tx.AccountID.String(), tx.Signed())
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInsufficientFunds {
			return s.partial(ctx, result, "insufficient_funds: debit would make the balance negative"), nil
		}
		logger.Error("Failed to update wallet balance", logger.Merge(fields, logger.WithError(err)))
		return s.partial(ctx, result, "wallet update failed: "+err.Error()), nil
	}

	result.Outcome = OutcomeSuccess
	result.Balance = &w.Balance
	result.Message = fmt.Sprintf("Wallet %s with %s", verb(tx.Direction), money.Format(tx.Amount, tx.Currency))
	logger.Info("Transaction reconciled", logger.Merge(fields, logger.Fields{
		logger.UserIdKey: result.AccountID,
		"amount":         tx.Amount,
		"direction":      tx.Direction,
	}))
	return s.record("verify", result), nil
}

// settled reports on a reference whose ledger row is already terminal.
func (s *Service) settled(ctx context.Context, tx *ledger.Transaction, v *gateway.Verification) *ReconciliationResult {
	result := &ReconciliationResult{
		Reference:     tx.Reference,
		GatewayStatus: v.RawStatus,
		Status:        tx.Status,
		Direction:     tx.Direction,
		AccountID:     tx.AccountID.String(),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Warning:       tx.Warning,
	}

	if tx.Status == ledger.StatusFailed {
		// The gateway now says success for a row we closed as failed; the
		// status cannot move back, so a person has to look at it.
		return s.partial(ctx, result, "gateway reports success for a transaction recorded as failed")
	}

	if tx.Warning != "" {
		// Already flagged when it first failed; report it again without
		// touching the wallet or the flag.
		result.Outcome = OutcomePartial
		result.Message = supportMessage
		return s.record("verify", result)
	}

	result.Outcome = OutcomeNoOp
	result.Message = "Payment already processed"
	if w, err := s.Wallets.GetByAccountID(ctx, result.AccountID); err == nil {
		result.Balance = &w.Balance
	}
	return s.record("verify", result)
}

func (s *Service) partial(ctx context.Context, result *ReconciliationResult, warning string) *ReconciliationResult {
	result.Outcome = OutcomePartial
	result.Warning = warning
	result.Message = supportMessage

	logger.Error("CRITICAL: Payment completed but wallet not updated", logger.Fields{
		logger.ReferenceKey: result.Reference,
		logger.UserIdKey:    result.AccountID,
		"amount":            result.Amount,
		"warning":           warning,
	})
	if err := s.Ledger.FlagWarning(ctx, result.Reference, warning); err != nil {
		logger.Error("Failed to flag reconciliation warning", logger.Merge(logger.WithError(err), logger.Fields{
			logger.ReferenceKey: result.Reference,
		}))
	}
	return s.record("verify", result)
}

func (s *Service) synthesize(ctx context.Context, reference string, v *gateway.Verification) (*ledger.Transaction, error) {
	accountID, err := s.resolveOwner(ctx, v)
	if err != nil {
		return nil, err
	}

	direction := ledger.DirectionCredit
	if d, ok := v.Metadata["direction"].(string); ok && ledger.Direction(d).Valid() {
		direction = ledger.Direction(d)
	}

	currency := strings.ToUpper(v.Currency)
	if currency == "" {
		currency = s.Config.DefaultCurrency
	}

	metadata := map[string]any{"synthesized": true, "channel": v.Channel}
	for k, val := range v.Metadata {
		metadata[k] = val
	}

	return &ledger.Transaction{
		Reference:   reference,
		AccountID:   accountID,
		Amount:      v.Amount,
		Currency:    currency,
		Direction:   direction,
		GatewayName: s.Gateway.Name(),
		Metadata:    metadata,
	}, nil
}

func (s *Service) resolveOwner(ctx context.Context, v *gateway.Verification) (uuid.UUID, error) {
	if raw, ok := v.Metadata["account_id"].(string); ok {
		if owner, err := uuid.Parse(raw); err == nil {
			return owner, nil
		}
	}

	if v.CustomerEmail != "" && s.Accounts != nil {
		usr, err := s.Accounts.FindByEmail(ctx, v.CustomerEmail)
		if err == nil {
			return usr.ID, nil
		}
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return uuid.Nil, err
		}
	}

	return uuid.Nil, apperrors.Validation("verified payment carries no resolvable account")
}

// AuthorizeDebit checks pin against the wallet PIN, when one is set.
func (s *Service) AuthorizeDebit(ctx context.Context, accountID, pin string) error {
	w, err := s.Wallets.GetByAccountID(ctx, accountID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil
		}
		return err
	}
	if !w.HasPin() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(w.PinHash), []byte(pin)); err != nil {
		return apperrors.Forbidden("invalid wallet PIN")
	}
	return nil
}

// DebitForShipment checks the balance, runs create, then debits. A created
// shipment is never rolled back; if the debit fails afterwards the result is
// a partial failure for an operator to settle.
func (s *Service) DebitForShipment(ctx context.Context, accountID string, amount int64, currency string, create CreateFunc) (*DebitResult, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	owner, err := uuid.Parse(accountID)
	if err != nil {
		return nil, apperrors.Validation("invalid account id")
	}

	w, err := s.Wallets.GetByAccountID(ctx, accountID)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
		w = &wallet.Wallet{Currency: currency}
	}
	if w.Currency != currency {
		return nil, apperrors.Validation(fmt.Sprintf("shipment is priced in %s but the wallet holds %s", currency, w.Currency)).
			WithDetail("wallet_currency", w.Currency).
			WithDetail("shipment_currency", currency)
	}
	if w.Balance < amount {
		metrics.ReconciliationOutcomes.WithLabelValues("debit", string(apperrors.KindInsufficientFunds)).Inc()
		return nil, apperrors.New(apperrors.KindInsufficientFunds, "insufficient balance").
			WithDetail("balance", w.Balance).
			WithDetail("requested", amount)
	}

	shipmentID, err := create(ctx)
	if err != nil {
		return nil, err
	}

	reference := id.NewReference("shp")
	tx := &ledger.Transaction{
		Reference:   reference,
		AccountID:   owner,
		Amount:      amount,
		Currency:    w.Currency,
		Direction:   ledger.DirectionDebit,
		GatewayName: ledger.GatewayWallet,
		Metadata:    map[string]any{"shipment_id": shipmentID},
	}
	fields := logger.Fields{logger.ReferenceKey: reference, logger.ShipmentIDKey: shipmentID, logger.UserIdKey: accountID}

	result := &DebitResult{ShipmentID: shipmentID, Reference: reference, Amount: amount}

	updated, err := s.Wallets.Adjust(ctx, accountID, -amount)
	if err != nil {
		result.Outcome = OutcomePartial
		result.Warning = "shipment created but wallet debit failed: " + err.Error()
		logger.Error("CRITICAL: Shipment created but debit failed", logger.Merge(fields, logger.WithError(err)))

		tx.Status = ledger.StatusFailed
		tx.Warning = result.Warning
		if err := s.Ledger.Record(ctx, tx); err != nil {
			logger.Error("Failed to record failed shipment debit", logger.Merge(fields, logger.WithError(err)))
		}
		metrics.ReconciliationOutcomes.WithLabelValues("debit", string(OutcomePartial)).Inc()
		return result, nil
	}

	tx.Status = ledger.StatusCompleted
	if err := s.Ledger.Record(ctx, tx); err != nil {
		logger.Warn("Shipment debit applied but not recorded in ledger", logger.Merge(fields, logger.WithError(err)))
	}

	result.Outcome = OutcomeSuccess
	result.Balance = &updated.Balance
	metrics.ReconciliationOutcomes.WithLabelValues("debit", string(OutcomeSuccess)).Inc()
	return result, nil
}

func (s *Service) record(operation string, result *ReconciliationResult) *ReconciliationResult {
	metrics.ReconciliationOutcomes.WithLabelValues(operation, string(result.Outcome)).Inc()
	return result
}

func verb(d ledger.Direction) string {
	if d == ledger.DirectionDebit {
		return "debited"
	}
	return "credited"
}
