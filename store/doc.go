// Package store persists option-set host entities in Redis and runs matching
// queries against them.
//
// # Design
//
// Each [Record] is a Redis hash at "<prefix>:rec:<id>" holding one 8-byte
// big-endian mask per column (optionset.EncodeMask) plus a version field; the
// set "<prefix>:ids" indexes every record. [Store.Update] performs
// read-modify-write mask changes in WATCH/MULTI optimistic transactions with
// bounded retry, so concurrent writers never lose bits. [Store.Match]
// evaluates a binding.Predicate, (mask & m) == m per clause, over pipelined
// HMGET batches.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for masks. Mask
// semantics come from the option-set definitions; predicates come from
// binding.Schema.
//
// # What this package must NOT do
//
//   - Interpret member names; it only stores and compares masks.
//   - Turn an unknown member into an empty result (predicate building fails first).
package store
