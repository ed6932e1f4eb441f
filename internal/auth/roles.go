package auth

import (
	"context"
	"strings"

	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
)

// RoleResolver resolves the operational role an account acts with. The
// shipment status machine takes one as a dependency instead of reading a
// global allowlist.
type RoleResolver interface {
	ResolveRole(ctx context.Context, accountID string) (user.Role, error)
}

type directoryRoleResolver struct {
	users  user.Repository
	admins map[string]struct{}
}

// NewRoleResolver reads users.role and promotes accounts whose email is in
// adminEmails to admin.
func NewRoleResolver(users user.Repository, adminEmails []string) RoleResolver {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &directoryRoleResolver{users: users, admins: admins}
}

func (r *directoryRoleResolver) ResolveRole(ctx context.Context, accountID string) (user.Role, error) {
	if accountID == "" {
		return "", apperrors.Unauthenticated("no authenticated account")
	}

	usr, err := r.users.FindByID(ctx, accountID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return "", apperrors.Unauthenticated("account not found")
		}
		return "", err
	}

	if _, ok := r.admins[strings.ToLower(usr.Email)]; ok {
		return user.RoleAdmin, nil
	}

	if !usr.Role.Valid() {
		return user.RoleCustomer, nil
	}
	return usr.Role, nil
}
