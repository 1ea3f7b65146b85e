package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/naebak/naebak-auth-service/api/responses"
	"github.com/naebak/naebak-auth-service/api/validators"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/pagination"
)

type userLister interface {
	List(ctx context.Context, query users.ListQuery) (*users.ListResult, error)
}

// ListUsers pages through accounts, optionally filtered by user_type and
// governorate_id. Mount behind RequireMember.
func ListUsers(repo userLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := repo.List(r.Context(), query)
		if err != nil {
			if errors.Is(err, pagination.ErrInvalidCursor) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "مؤشر الصفحة غير صالح").WithDetails(map[string]any{"field": "cursor"}))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users"))
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseListQuery(r *http.Request) (users.ListQuery, error) {
	var query users.ListQuery

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return query, err
	}
	query.Pagination = pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("user_type")); raw != "" {
		userType, err := enums.ParseUserType(raw)
		if err != nil {
			return query, pkgerrors.Wrap(pkgerrors.CodeInvalidUserType, err, "نوع المستخدم غير صالح")
		}
		query.UserType = &userType
	}

	govID, err := validators.ParseQueryInt(r, "governorate_id", 0, 1, 1<<31-1)
	if err != nil {
		return query, err
	}
	if govID > 0 {
		id := uint(govID)
		query.GovernorateID = &id
	}
	return query, nil
}
