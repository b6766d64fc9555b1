package service

import (
	"context"
	"errors"
	"strings"

	"github.com/storelane/storelane/internal/tenant/domain"
	"gorm.io/gorm"
)

type service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) domain.Service {
	return &service{repo: repo}
}

func (s *service) ResolveDomain(ctx context.Context, host string) (*domain.Resolution, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, domain.ErrTenantNotFound
	}

	binding, err := s.repo.FindBindingByDomain(ctx, host)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}

	tenant, err := s.repo.FindTenantByID(ctx, binding.TenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A binding without its tenant is registry corruption, the same
			// class of failure as a tenant without its company.
			return nil, domain.ErrCompanyMissing
		}
		return nil, err
	}

	company, err := s.repo.FindCompanyByTenantID(ctx, tenant.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompanyMissing
		}
		return nil, err
	}

	return &domain.Resolution{Tenant: tenant, Company: company}, nil
}
