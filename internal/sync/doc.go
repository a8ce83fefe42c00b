// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

/*
Package sync pulls report files from the traffic reporting API and the
weather timeline API into the data directory.

Key Components:

  - Client: HTTP client for the reporting API. Every call is a JSON POST
    carrying the caller's bearer token, wrapped in a circuit breaker, an
    optional outbound rate limiter and an optional HTTP 429 backoff loop.
  - WeatherClient: GET client for the weather timeline, same protections.
  - Reports: the fixed request payloads, one per report file.
  - Fetcher: runs the fetch steps of a page refresh in order, saves each
    response, records it in the manifest and reports progress.

Response handling:

A report reply whose Content-Type is not application/json and whose body is
not empty is a spreadsheet and is saved byte for byte. A JSON reply is
either the row envelope {"msg": {"data": [...]}} (customer profile, saved
as CSV) or an error from the server, which fails the step with the reply
attached. Nothing is retried unless upstream.max_retries is raised, and
then only on HTTP 429.

Usage Example:

	client, err := sync.NewClient(sync.ClientConfig{BaseURL: cfg.Upstream.BaseURL})
	weather, err := sync.NewWeatherClient(sync.WeatherConfig{BaseURL: cfg.Weather.BaseURL})
	fetcher := sync.NewFetcher(client, weather, store, manifest, sync.Defaults{...})

	result, err := fetcher.Refresh(ctx, models.PageTraffic, params)
*/
package sync
