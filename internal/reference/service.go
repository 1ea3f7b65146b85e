package reference

import (
	"context"

	"github.com/naebak/naebak-auth-service/pkg/db/models"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
)

// GovernorateDTO is the public shape of a governorate.
type GovernorateDTO struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
	Code   string `json:"code"`
}

// PartyDTO is the public shape of a party.
type PartyDTO struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	NameEn       string `json:"name_en"`
	Abbreviation string `json:"abbreviation"`
}

type listRepository interface {
	ListGovernorates(ctx context.Context) ([]models.Governorate, error)
	ListParties(ctx context.Context) ([]models.Party, error)
}

// Service serves the reference lists.
type Service interface {
	ListGovernorates(ctx context.Context) ([]GovernorateDTO, error)
	ListParties(ctx context.Context) ([]PartyDTO, error)
}

type service struct {
	repo listRepository
}

// NewService wraps repo.
func NewService(repo listRepository) Service {
	return &service{repo: repo}
}

func (s *service) ListGovernorates(ctx context.Context) ([]GovernorateDTO, error) {
	rows, err := s.repo.ListGovernorates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list governorates")
	}
	out := make([]GovernorateDTO, 0, len(rows))
	for _, g := range rows {
		out = append(out, GovernorateDTO{ID: g.ID, Name: g.Name, NameEn: g.NameEn, Code: g.Code})
	}
	return out, nil
}

func (s *service) ListParties(ctx context.Context) ([]PartyDTO, error) {
	rows, err := s.repo.ListParties(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list parties")
	}
	out := make([]PartyDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, PartyDTO{ID: p.ID, Name: p.Name, NameEn: p.NameEn, Abbreviation: p.Abbreviation})
	}
	return out, nil
}
