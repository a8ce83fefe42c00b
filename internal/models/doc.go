// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

/*
Package models defines the types shared between the fetch, analytics and API
layers.

Key Components:

  - Page: one of the five dashboard pages, with its report files and card
  - FetchParams: the inputs of a page refresh (token, date range, site)
  - RefreshResult / StepResult: the outcome of each fetch step
  - ProgressEvent: the message pushed to WebSocket clients while a refresh runs

Report file names are the ones the dashboard has always written, so an
existing data directory keeps working.
*/
package models
