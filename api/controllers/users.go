package controllers

import (
	"net/http"

	"github.com/svillagran/tienda-backend/api/responses"
	"github.com/svillagran/tienda-backend/api/validators"
	usersvc "github.com/svillagran/tienda-backend/internal/users"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

// AdminListUsers pages through registered accounts. Password hashes never
// leave the repository layer; the DTO carries profile fields only.
func AdminListUsers(repo *usersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users"))
			return
		}

		dtos := make([]*usersvc.UserDTO, 0, len(result.Users))
		for i := range result.Users {
			dtos = append(dtos, usersvc.FromModel(&result.Users[i]))
		}

		responses.WriteSuccess(w, map[string]any{
			"users":       dtos,
			"next_cursor": result.NextCursor,
		})
	}
}
