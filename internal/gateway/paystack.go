package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zjoart/go-paystack-logistics/internal/metrics"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

type Paystack struct {
	baseURL  string
	secret   string
	channels []string
	client   *http.Client
}

// NewPaystack returns a client whose every call is bounded by timeout.
func NewPaystack(baseURL, secret string, channels []string, timeout time.Duration) *Paystack {
	return &Paystack{
		baseURL:  strings.TrimRight(baseURL, "/"),
		secret:   secret,
		channels: channels,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Paystack) Name() string { return "paystack" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"email":        req.Email,
		"amount":       req.Amount,
		"reference":    req.Reference,
		"currency":     req.Currency,
		"callback_url": req.CallbackURL,
		"metadata":     req.Metadata,
	}
	if len(p.channels) > 0 {
		payload["channels"] = p.channels
	}

	env, status, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		metrics.ObserveGateway("initialize", "error", start)
		return nil, err
	}

	if status != http.StatusOK || !env.Status {
		metrics.ObserveGateway("initialize", "rejected", start)
		logger.Error("Paystack initialize rejected", logger.Fields{
			"status_code":       status,
			"message":           env.Message,
			logger.ReferenceKey: req.Reference,
		})
		return nil, apperrors.New(apperrors.KindGateway, "gateway rejected initialization: "+env.Message)
	}

	var out Initialization
	if err := json.Unmarshal(env.Data, &out); err != nil {
		metrics.ObserveGateway("initialize", "error", start)
		return nil, apperrors.Wrap(apperrors.KindGateway, "failed to parse gateway response", err)
	}
	if out.Reference == "" {
		out.Reference = req.Reference
	}

	metrics.ObserveGateway("initialize", "ok", start)
	return &out, nil
}

type paystackVerifyData struct {
	ID        json.Number     `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	start := time.Now()

	env, status, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		metrics.ObserveGateway("verify", "error", start)
		return nil, err
	}

	if status == http.StatusNotFound || (status == http.StatusBadRequest && !env.Status) {
		metrics.ObserveGateway("verify", "not_found", start)
		return nil, ErrReferenceNotFound
	}

	if status != http.StatusOK || !env.Status {
		metrics.ObserveGateway("verify", "rejected", start)
		return nil, apperrors.New(apperrors.KindGateway, fmt.Sprintf("gateway verification failed (%d): %s", status, env.Message))
	}

	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		metrics.ObserveGateway("verify", "error", start)
		return nil, apperrors.Wrap(apperrors.KindGateway, "failed to parse gateway response", err)
	}
	if data.Reference != reference {
		metrics.ObserveGateway("verify", "rejected", start)
		return nil, apperrors.New(apperrors.KindGateway, fmt.Sprintf("gateway verified reference %q, not %q", data.Reference, reference))
	}

	metrics.ObserveGateway("verify", "ok", start)
	return &Verification{
		Reference:            data.Reference,
		Status:               NormalizeStatus(data.Status),
		RawStatus:            data.Status,
		Amount:               data.Amount,
		Currency:             data.Currency,
		GatewayTransactionID: data.ID.String(),
		Channel:              data.Channel,
		CustomerEmail:        data.Customer.Email,
		Metadata:             decodeMetadata(data.Metadata),
	}, nil
}

func (p *Paystack) do(ctx context.Context, method, path string, body interface{}) (*paystackEnvelope, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindGateway, "failed to encode gateway request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindGateway, "failed to build gateway request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, apperrors.Wrap(apperrors.KindGatewayTimeout, "gateway did not respond in time", err)
		}
		return nil, 0, apperrors.Wrap(apperrors.KindGateway, "failed to reach gateway", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if isTimeout(err) {
			return nil, resp.StatusCode, apperrors.Wrap(apperrors.KindGatewayTimeout, "gateway response timed out", err)
		}
		return nil, resp.StatusCode, apperrors.Wrap(apperrors.KindGateway, "failed to read gateway response", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		logger.Error("Paystack returned non-JSON body", logger.Fields{
			"status_code": resp.StatusCode,
			"body":        string(respBody),
		})
		return nil, resp.StatusCode, apperrors.Wrap(apperrors.KindGateway, "unexpected gateway response", err)
	}

	return &env, resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Paystack sends metadata back either as an object or as a JSON-encoded string.
func decodeMetadata(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}

	if err := json.Unmarshal(raw, &out); err == nil && out != nil {
		return out
	}

	out = map[string]any{}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		_ = json.Unmarshal([]byte(encoded), &out)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}
