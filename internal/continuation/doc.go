// Package continuation defines the handle a store hands out for a web
// continuation: the opaque payload supplied by the scripting layer together
// with its place in the continuation forest and its expiry bookkeeping.
//
// Handles are snapshots. Relationships are expressed by ID, and Parent or
// Children resolve those IDs against the owning store at call time, so a
// handle never keeps a removed node alive.
package continuation
