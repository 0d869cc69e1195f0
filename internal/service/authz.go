package service

import (
	"context"
	"errors"

	"ventamax/backend/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

// Capability names a privileged operation. Role checks happen here once
// instead of ad hoc string comparisons in every handler.
type Capability string

const (
	CapManageProducts     Capability = "manage_products"
	CapDeleteProduct      Capability = "delete_product"
	CapManageAccounts     Capability = "manage_accounts"
	CapPostTransaction    Capability = "post_transaction"
	CapDeleteTransaction  Capability = "delete_transaction"
	CapRecordSale         Capability = "record_sale"
	CapCancelSale         Capability = "cancel_sale"
	CapCommitCashClose    Capability = "commit_cash_close"
	CapManageShifts       Capability = "manage_shifts"
	CapUpdateExchangeRate Capability = "update_exchange_rate"
	CapManageUsers        Capability = "manage_users"
	CapViewAuditLogs      Capability = "view_audit_logs"
	CapViewReports        Capability = "view_reports"
)

var roleCapabilities = map[string]map[Capability]bool{
	domain.RoleOwner: {
		CapManageProducts:     true,
		CapDeleteProduct:      true,
		CapManageAccounts:     true,
		CapPostTransaction:    true,
		CapDeleteTransaction:  true,
		CapRecordSale:         true,
		CapCancelSale:         true,
		CapCommitCashClose:    true,
		CapManageShifts:       true,
		CapUpdateExchangeRate: true,
		CapManageUsers:        true,
		CapViewAuditLogs:      true,
		CapViewReports:        true,
	},
	domain.RoleAdmin: {
		CapManageProducts:     true,
		CapManageAccounts:     true,
		CapPostTransaction:    true,
		CapDeleteTransaction:  true,
		CapRecordSale:         true,
		CapCancelSale:         true,
		CapCommitCashClose:    true,
		CapManageShifts:       true,
		CapUpdateExchangeRate: true,
		CapViewAuditLogs:      true,
		CapViewReports:        true,
	},
	domain.RoleEmployee: {
		CapRecordSale:   true,
		CapManageShifts: true,
	},
}

// Can reports whether the actor may perform the capability. Superusers
// bypass the role table entirely.
func Can(actor domain.Actor, cap Capability) bool {
	if actor.Superuser {
		return true
	}
	caps, ok := roleCapabilities[actor.Role]
	if !ok {
		return false
	}
	return caps[cap]
}

// require resolves the actor from ctx and checks the capability.
func require(ctx context.Context, cap Capability) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrForbidden
	}
	if !Can(actor, cap) {
		return actor, ErrForbidden
	}
	return actor, nil
}
