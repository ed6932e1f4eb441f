// Package gateway talks to the payment gateway and translates its response
// states into the small vocabulary the reconciliation flow works with.
package gateway

import (
	"context"
	"errors"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
)

// ErrReferenceNotFound is returned by Verify when the gateway has no record of the reference.
var ErrReferenceNotFound = errors.New("gateway: reference not found")

type InitializeRequest struct {
	Amount      int64
	Currency    string
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type Initialization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Verification struct {
	Reference            string
	Status               Status
	RawStatus            string
	Amount               int64
	Currency             string
	GatewayTransactionID string
	Channel              string
	CustomerEmail        string
	Metadata             map[string]any
}

// Verifier is the only gateway capability the core consumes.
type Verifier interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// NormalizeStatus maps a raw gateway state onto success, failed or
// abandoned. Anything the customer could still complete counts as abandoned.
func NormalizeStatus(raw string) Status {
	switch raw {
	case "success":
		return StatusSuccess
	case "failed", "reversed":
		return StatusFailed
	default:
		return StatusAbandoned
	}
}
