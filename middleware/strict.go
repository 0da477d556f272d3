package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/optionset/binding"
	"github.com/MrEthical07/optionset/store"
	"github.com/MrEthical07/optionset/token"
)

// RecordLoader loads the record a token subject refers to. *store.Store
// implements it.
type RecordLoader interface {
	Load(ctx context.Context, id string) (*store.Record, error)
}

// RequireStrict verifies the bearer token, then loads the record named by the
// token subject and matches p against the stored masks. A missing record is
// unauthorized.
func RequireStrict(tokens *token.Manager, records RecordLoader, p binding.Predicate) func(http.Handler) http.Handler {
	return guard(tokens, func(r *http.Request, claims *token.Claims) (bool, error) {
		if records == nil {
			return false, store.ErrRedisUnavailable
		}
		rec, err := records.Load(r.Context(), claims.Subject)
		if err != nil {
			return false, err
		}
		return p.Eval(rec.Mask), nil
	})
}
