package brand

import (
	"context"
	"strings"

	"github.com/ignite/campaign-insights/internal/domain"
)

// Service implements brand business logic on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Brand, error) {
	return s.repo.List(ctx)
}

// Upsert trims and validates before saving.
func (s *Service) Upsert(ctx context.Context, b domain.Brand) (domain.Brand, error) {
	b.Brand = strings.TrimSpace(b.Brand)
	b.Industry = strings.TrimSpace(b.Industry)
	if b.Brand == "" {
		return domain.Brand{}, ErrMissingBrand
	}
	if b.Industry == "" {
		return domain.Brand{}, ErrMissingIndustry
	}
	if err := s.repo.Upsert(ctx, b); err != nil {
		return domain.Brand{}, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingBrand
	}
	return s.repo.Delete(ctx, name)
}

// FetchBrands returns the lookup as brand -> industry.
func (s *Service) FetchBrands(ctx context.Context) (map[string]string, error) {
	brands, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(brands))
	for _, b := range brands {
		out[b.Brand] = b.Industry
	}
	return out, nil
}
