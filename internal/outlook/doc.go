// Package outlook ties the authentication, retrieval, and filter layers
// into a single search pipeline and shapes the results for presentation.
//
// A search resolves a bearer token, streams messages from Microsoft Graph
// with the sender filter pushed down to the server, applies keyword matching
// in arrival order, and stops consuming pages as soon as the requested
// number of matches has been emitted. Matches are mapped one-to-one onto
// FormattedEmail records: an RFC 3339 UTC timestamp, the sender, a body
// preview, and a deep link that opens the message in the Outlook web client.
//
// Aggregate statistics (per-sender, per-day, and per-watched-keyword
// counts) are computed fresh on demand and never cached across calls.
//
// The package never prints or writes files; rendering belongs to the
// caller.
package outlook
