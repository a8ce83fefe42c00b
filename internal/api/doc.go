// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

/*
Package api serves the Footfall HTTP API with the chi router.

Endpoints:

	GET  /health                                   liveness and data directory status
	GET  /metrics                                  Prometheus metrics
	GET  /api/v1/pages                             page index
	GET  /api/v1/pages/{page}                      KPIs and chart specifications
	POST /api/v1/pages/{page}/refresh              fetch every report of a page
	GET  /api/v1/pages/{page}/charts/{chart}.png   PNG rendering of one chart
	GET  /api/v1/fetches                           manifest of fetched report files
	GET  /api/v1/ws                                refresh progress stream

Every JSON response uses the same envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "DATA_NOT_FOUND", "message": "...", "details": {...}}, "meta": {...}}

Page selectors are query parameters: weather_metric (customer), metric
(association), k and method (performance).
*/
package api
