// Package client is the authenticated transport for the helpdesk REST API.
//
// Every feature-level call (tickets, users, stats, messages) goes through
// Client.Do, which attaches the stored access token as a bearer credential
// and transparently recovers from access-token expiry:
//
//	ISSUED -> (2xx) -> SUCCEEDED
//	ISSUED -> (401, NotRetried) -> REFRESHING
//	REFRESHING -> (refresh ok) -> REPLAYED -> SUCCEEDED | FAILED
//	REFRESHING -> (refresh fails) -> SESSION_TEARDOWN -> FAILED
//	ISSUED -> (401, Retried) -> SESSION_TEARDOWN -> FAILED
//	ISSUED -> (non-401 error) -> FAILED
//
// Concurrent 401s share a single in-flight refresh (singleflight), and a
// request whose token was already replaced by another refresh replays with
// the current token instead of refreshing again.
//
// Transport failures and timeouts are returned as *TransportError and never
// touch the session.
package client
