// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

/*
Package main is the entry point for the Footfall server.

Footfall downloads people-counting reports from the counter vendor's web
API, stores them as spreadsheets in a data directory, and serves five
dashboard pages (customer, association, performance, time period and
traffic) as JSON plus PNG charts.

# Supervisor Tree

	Root ("footfall")
	├── background-layer
	│   ├── websocket-hub      (refresh progress)
	│   └── refresh-scheduler  (optional, SCHEDULE_ENABLED=true)
	└── api-layer
	    └── http-server

# Configuration

Settings are layered: built-in defaults, then config.yaml (or the file named
by CONFIG_PATH), then the environment. A .env file is read first if present.

	HTTP_PORT=3857             listen port
	DATA_DIR=data              report spreadsheets
	MANIFEST_DIR=data/manifest fetch history (badger)
	UPSTREAM_BASE_URL=...      counter vendor API
	WEATHER_API_KEY=...        timeline weather API key (required, no default)
	SCHEDULE_ENABLED=true      refresh every page on SCHEDULE_SPEC
	SCHEDULE_TOKEN=...         session token used by scheduled refreshes
	LOG_LEVEL=info             trace, debug, info, warn, error
	LOG_FORMAT=json            json or console

# Signals

SIGINT and SIGTERM cancel the root context. Each service gets
SHUTDOWN_TIMEOUT to stop; the HTTP server drains in-flight requests first.
*/
package main
