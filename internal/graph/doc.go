// Package graph provides a client for listing messages from the Microsoft
// Graph mail API.
//
// The client pushes what it can down to the server: an exact sender-address
// filter ($filter), a field projection ($select), page size ($top), and
// reverse-chronological ordering ($orderby). Pagination follows the
// @odata.nextLink continuation cursor one page at a time; the consumer stops
// further fetches by returning ErrStop from the iteration callback, so no
// pages are requested past the point where it has enough matches.
//
// Transient failures (429, 5xx, network errors) are retried with jittered
// exponential backoff; a server-provided Retry-After hint overrides the
// computed delay. Unauthorized responses invalidate the token provider's
// cache and fail immediately, as do other non-transient statuses. A page
// fetch that exhausts its retry budget fails the whole listing; the client
// never yields a silently partial stream.
//
// The client keeps no local state between calls; fetched messages are not
// persisted.
package graph
