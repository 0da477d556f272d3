// Package optionset provides frozen, named bit-flag enumerations ("option sets")
// and the mask algebra that operates on them.
//
// A [Definition] is built once during initialization with [Definition.Declare]
// or [Definition.DeclareAll], then sealed with [Definition.Finalize]. Any read
// operation seals an open definition as well, so no member can be added after
// the first use.
//
//	var AdminPermission = optionset.Define("AdminPermission", "view", "edit", "delete")
//
//	mask, _ := AdminPermission.Mask([]string{"view", "edit"}) // 3
//	AdminPermission.Cast(mask)                                // [view edit]
//
// # Masks
//
// A mask is a plain uint64 owned by the caller; the definition only interprets
// and transforms it. Auto-assigned members take 1 << index, so one set holds at
// most [MaxMembers] members. Member names are case-insensitive: they are
// trimmed and lowercased on declaration and on lookup.
//
// # Concurrency
//
// Declarations are serialized internally. After finalization the member tables
// are immutable and every method is safe for concurrent use.
//
// # Architecture boundaries
//
// This package performs no I/O and never logs. Binding masks onto host entities
// lives in binding/, persistence in store/, signed mask claims in token/.
package optionset
