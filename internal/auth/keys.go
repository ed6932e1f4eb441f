package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/zjoart/go-paystack-logistics/internal/key"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

// KeyHandler lets an account manage its own API keys.
type KeyHandler struct {
	Repo key.Repository
	now  func() time.Time
}

func NewKeyHandler(repo key.Repository) *KeyHandler {
	return &KeyHandler{Repo: repo, now: time.Now}
}

type CreateKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Expiry      string   `json:"expiry"`
}

type KeyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MaskedKey   string    `json:"masked_key"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsRevoked   bool      `json:"is_revoked"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *KeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	usr, ok := CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CreateKeyRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request body", map[string]string{"error": err.Error()})
		return
	}

	perms, err := validatePermissions(req.Permissions)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	now := h.now()
	expiresAt, err := parseExpiry(now, req.Expiry)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid expiry format. Use 1H, 1D, 1M, 1Y", nil)
		return
	}

	count, err := h.Repo.CountActive(r.Context(), usr.ID.String(), now)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to count keys", nil)
		return
	}
	if count >= key.MaxActiveKeys {
		utils.BuildErrorResponse(w, http.StatusForbidden, fmt.Sprintf("Maximum of %d active keys allowed", key.MaxActiveKeys), nil)
		return
	}

	raw, err := key.Generate()
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to generate key", nil)
		return
	}

	apiKey := key.APIKey{
		UserID:      usr.ID,
		Name:        strings.TrimSpace(req.Name),
		Key:         raw,
		MaskedKey:   key.MaskKey(raw),
		Permissions: pq.StringArray(perms),
		ExpiresAt:   expiresAt,
	}
	if err := h.Repo.CreateKey(r.Context(), &apiKey); err != nil {
		logger.Error("Failed to create API key", logger.Merge(logger.WithError(err), logger.Fields{logger.UserIdKey: usr.ID.String()}))
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create API key", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "API Key created, This key will only be shown once. Please save it securely.", map[string]interface{}{
		"id":          apiKey.ID,
		"api_key":     raw,
		"masked_key":  apiKey.MaskedKey,
		"permissions": perms,
		"expires_at":  apiKey.ExpiresAt,
	})
}

func (h *KeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	usr, ok := CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := h.Repo.Revoke(r.Context(), mux.Vars(r)["id"], usr.ID.String()); err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "API Key revoked successfully", nil)
}

func (h *KeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	usr, ok := CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	keys, err := h.Repo.ListByUser(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch keys", nil)
		return
	}

	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyResponse{
			ID:          k.ID.String(),
			Name:        k.Name,
			MaskedKey:   k.MaskedKey,
			Permissions: k.Permissions,
			ExpiresAt:   k.ExpiresAt,
			IsRevoked:   k.IsRevoked,
			CreatedAt:   k.CreatedAt,
		})
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "API Keys retrieved", out)
}

func parseExpiry(now time.Time, expiry string) (time.Time, error) {
	switch strings.ToUpper(expiry) {
	case "1H":
		return now.Add(time.Hour), nil
	case "1D":
		return now.Add(24 * time.Hour), nil
	case "1M":
		return now.AddDate(0, 1, 0), nil
	case "1Y":
		return now.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid expiry %q", expiry)
	}
}

func validatePermissions(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("at least one permission is required")
	}

	seen := make(map[key.Permission]bool, len(requested))
	var normalized []string
	for _, p := range requested {
		perm := key.Permission(strings.ToUpper(strings.TrimSpace(p)))
		if !allowed(perm) {
			return nil, fmt.Errorf("invalid permission: %s", p)
		}
		if seen[perm] {
			continue
		}
		seen[perm] = true
		normalized = append(normalized, string(perm))
	}
	return normalized, nil
}

func allowed(perm key.Permission) bool {
	for _, p := range key.AllowedPermissions {
		if p == perm {
			return true
		}
	}
	return false
}
