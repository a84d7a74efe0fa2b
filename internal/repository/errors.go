// Package repository defines the ticket store and the error values shared by
// its implementations.  Handlers use errors.Is against these sentinels to
// choose a response.
package repository

import "errors"

// ErrTicketNotFound is returned when no ticket carries the requested id.
// Handlers translate it into an HTTP 404 response.
var ErrTicketNotFound = errors.New("ticket not found")
