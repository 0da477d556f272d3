// Package binding attaches option-set definitions to mask fields of host
// entities and builds matching predicates over collections of them.
//
// An [Attribute] is the bundle of accessors for one (definition, field) pair:
// decode and encode, membership, add/remove, batch subtract/merge, the set
// algebra getters and the predicate getters. A [Schema] groups the attributes
// of one host type and turns requests such as
//
//	map[string][]string{"admin_permissions": {"edit"}, "roles": {"manager"}}
//
// into a [Predicate]: one clause (column & mask) == mask per option set, ANDed.
// Predicates evaluate in memory ([Schema.Filter]), render to SQL
// ([Predicate.SQL]), or run against the Redis store in store/.
//
// # Naming
//
// Short, plural and column names are derived from the definition's type name
// ("AdminPermission" -> admin_permission, admin_permissions,
// admin_permissions_mask) unless overridden through [Options].
//
// # What this package must NOT do
//
//   - Perform I/O itself; persistence goes through a caller-supplied [Persister],
//     or its [Updater] when the backend can update one column atomically.
//   - Swallow unknown members: they surface as optionset.ErrUnknownMember.
package binding
