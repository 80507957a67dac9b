// Package msauth manages OAuth2 tokens for Microsoft Graph using the
// device-authorization grant (RFC 8628) against Microsoft Entra ID.
//
// The package owns the full token lifecycle:
//   - Initiating a device-code challenge and polling the token endpoint
//     until the user completes sign-in on a second device
//   - Caching the resulting token through a pluggable Store
//   - Silently refreshing an expired token, serialized so concurrent
//     callers cannot invalidate one another's refresh tokens
//
// A pre-obtained access token can be supplied as a bypass, in which case no
// device flow or refresh is ever attempted.
//
// The session is always in exactly one of four states: Unauthenticated,
// PendingDeviceCode, Authenticated, or Expired. There is no terminal state;
// a failed or denied flow returns the manager to Unauthenticated and a new
// flow can be started.
package msauth
