// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router configures HTTP routing for the Villa Vote API.

Routes use Go 1.22+ method and path patterns:

	mux.HandleFunc("POST /session/items/{id}", handler)

All API routes are wrapped with middleware.WithLogging. CORS is applied in
main around the whole mux.

# Endpoints

	GET  /health                   database ping
	GET  /                         API banner
	POST /session/...              session events (see package handlers)
	GET  /villas, /villas/{id}     catalog
	GET  /groups/{code}            lookup by join code
	GET  /groups/{id}/members
	GET  /groups/{id}/progress     one completion evaluation
	GET  /groups/{id}/results      aggregated ranking
*/
package router
