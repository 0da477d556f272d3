// Package token issues and verifies signed JWTs that carry option-set masks.
//
// A token maps column names (binding.Names.Column) to the 8-byte big-endian
// mask encoding, so a service can evaluate a binding.Predicate against the
// caller's masks without reading the store. Tokens are signed with HS256 or
// Ed25519 via github.com/golang-jwt/jwt/v5; parsing pins the configured
// algorithm and enforces expiry, issuer and audience.
package token
