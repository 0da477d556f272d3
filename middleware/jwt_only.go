package middleware

import (
	"net/http"

	"github.com/MrEthical07/optionset/binding"
	"github.com/MrEthical07/optionset/token"
)

// RequireToken returns middleware that accepts any valid bearer token.
func RequireToken(tokens *token.Manager) func(http.Handler) http.Handler {
	return Guard(tokens, binding.Predicate{})
}
