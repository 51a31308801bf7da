// Package helpdesk is the typed help-desk API built on the Session Client:
// authentication, tickets, messages, logs, users and dashboard stats, plus
// the client-side views (filtering, pagination, reports, message watching).
package helpdesk
