// Package middleware exposes HTTP guards that authorize requests by matching
// option-set masks.
//
// # Guards
//
//   - [Guard] checks the masks carried in the bearer token, no Redis call.
//   - [RequireToken] accepts any valid token.
//   - [RequireStrict] verifies the token, then matches the subject's stored
//     record so revoked members take effect before the token expires.
//
// Each guard reads the Authorization header and injects the verified claims
// into the request context.
//
// # What this package must NOT do
//
//   - Build predicates; callers pass a binding.Predicate from a Schema.
//   - Mutate stored masks.
package middleware
