// Package session holds the client-side credential pair for the helpdesk API.
//
// A Session is an opaque access/refresh token pair. Exactly one Session is
// active per store; Save overwrites it, UpdateAccess mutates it after a
// refresh, and Clear destroys it on logout or unrecoverable refresh failure.
//
// Stores are durable where the backend allows it (file, Postgres, Redis) so a
// session survives process restarts, the way browser storage survives a reload.
// Request signing and the refresh protocol live in package client.
package session
