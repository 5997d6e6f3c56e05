// Package store provides durable storage for batch analysis runs.
//
// One run processes every translation unit of a compilation database;
// each unit's emitted module and status land in a result row keyed by
// a content-addressed ID, so re-running an unchanged unit produces the
// same identity. The store is a boundary concern: translation sessions
// themselves never persist anything.
package store
