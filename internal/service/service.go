package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/cache"
	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
	"ventamax/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const rateCacheKey = "exchange_rate"

type Service struct {
	repo    store.Repository
	rates   cache.RateCache
	rateTTL time.Duration
}

func New(repo store.Repository, rates cache.RateCache, rateTTL time.Duration) *Service {
	if rates == nil {
		rates = cache.NoopRateCache{}
	}
	if rateTTL <= 0 {
		rateTTL = 60 * time.Second
	}

	return &Service{
		repo:    repo,
		rates:   rates,
		rateTTL: rateTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := require(ctx, CapManageProducts); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	if req.Name == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.Quantity < 0 || req.UnitPrice.IsNegative() {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.UnitsPerBox < 1 {
		req.UnitsPerBox = 1
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		SKU:         req.SKU,
		Quantity:    req.Quantity,
		UnitsPerBox: req.UnitsPerBox,
		UnitPrice:   req.UnitPrice,
		Category:    strings.TrimSpace(req.Category),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", fmt.Sprintf("%d", created.ID), fmt.Sprintf("name=%s,qty=%d,price=%s", created.Name, created.Quantity, created.UnitPrice.StringFixed(2)))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := require(ctx, CapManageProducts); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.SKU != nil {
		updated.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Quantity = *req.Quantity
	}
	if req.UnitsPerBox != nil {
		if *req.UnitsPerBox < 1 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.UnitsPerBox = *req.UnitsPerBox
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.UnitPrice = *req.UnitPrice
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", fmt.Sprintf("%d", saved.ID), fmt.Sprintf("name=%s,qty=%d,price=%s", saved.Name, saved.Quantity, saved.UnitPrice.StringFixed(2)))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := require(ctx, CapDeleteProduct); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", fmt.Sprintf("%d", id), "")
	return nil
}

func (s *Service) GetExchangeRate(ctx context.Context) (domain.ExchangeRate, error) {
	if cached, ok, err := s.rates.Get(ctx, rateCacheKey); err == nil && ok {
		return *cached, nil
	}

	rate, err := s.repo.GetExchangeRate(ctx)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	if err := s.rates.Set(ctx, rateCacheKey, rate, s.rateTTL); err != nil {
		log.Printf("[service] WARN: failed to cache exchange rate: %v", err)
	}
	return *rate, nil
}

func (s *Service) UpdateExchangeRate(ctx context.Context, req domain.ExchangeRateUpdateRequest) (domain.ExchangeRate, error) {
	actor, err := require(ctx, CapUpdateExchangeRate)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	if !req.Rate.IsPositive() {
		return domain.ExchangeRate{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateExchangeRate(ctx, req.Rate, actor.Username)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	if err := s.rates.Set(ctx, rateCacheKey, updated, s.rateTTL); err != nil {
		log.Printf("[service] WARN: failed to refresh exchange rate cache: %v", err)
	}

	s.logAudit(ctx, "exchange_rate_update", "settings", rateCacheKey, fmt.Sprintf("rate=%s", updated.Rate.StringFixed(2)))
	return *updated, nil
}

// effectiveRate picks the rate a write path should use: the request's
// explicit rate when positive, the stored rate otherwise.
func (s *Service) effectiveRate(ctx context.Context, requested decimal.Decimal) (decimal.Decimal, error) {
	if requested.IsPositive() {
		return requested, nil
	}
	stored, err := s.GetExchangeRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return stored.Rate, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if _, err := require(ctx, CapViewAuditLogs); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Now().UTC().Format("2006-01-02"), nil
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", store.ErrInvalidInput
	}
	return parsed.Format("2006-01-02"), nil
}
