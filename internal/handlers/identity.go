package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/utils"
)

// Заголовки, из которых берется личность пользователя.
const (
	HeaderUserID         = "X-User-Id"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderRole           = "X-Role"
)

type actorKey struct{}

// Identity извлекает пользователя из заголовков запроса и кладет его в контекст.
// Запрос без полной личности получает 401.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.Actor{
			UserID:         r.Header.Get(HeaderUserID),
			OrganizationID: r.Header.Get(HeaderOrganizationID),
			Role:           models.Role(r.Header.Get(HeaderRole)),
		}
		if !actor.Valid() {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "missing or invalid identity headers")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// ActorFromContext возвращает пользователя, сохраненного Identity.
func ActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey{}).(models.Actor)
	return actor
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
