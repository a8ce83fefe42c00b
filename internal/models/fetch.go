// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import "time"

// Date layouts used by the report API.
const (
	DateLayout      = "2006-01-02"
	SlashDateLayout = "2006/01/02"
)

// FetchParams are the inputs of a page refresh. Empty optional fields fall
// back to configuration defaults.
type FetchParams struct {
	Token     string    `json:"-"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	SiteCode  string    `json:"site_code"`
	UserID    string    `json:"user_id"`
	Location  string    `json:"location,omitempty"`
	APIKey    string    `json:"-"`
}

// Norm formats t as YYYY-MM-DD.
func Norm(t time.Time) string {
	return t.Format(DateLayout)
}

// Slash formats t as YYYY/MM/DD.
func Slash(t time.Time) string {
	return t.Format(SlashDateLayout)
}

// StepStatus is the state of one fetch step.
type StepStatus string

// Step states.
const (
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is the outcome of one fetch step of a refresh.
type StepResult struct {
	Step       string     `json:"step"` // "1/3"
	Report     string     `json:"report"`
	File       string     `json:"file"`
	Status     StepStatus `json:"status"`
	Bytes      int        `json:"bytes,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}

// RefreshResult summarises a page refresh. OK is true only when every step
// succeeded.
type RefreshResult struct {
	Page          Page         `json:"page"`
	OK            bool         `json:"ok"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	SiteCode      string       `json:"site_code"`
	Steps         []StepResult `json:"steps"`
	CorrelationID string       `json:"correlation_id,omitempty"`
}

// ProgressEvent is broadcast while a refresh runs.
type ProgressEvent struct {
	Page          Page       `json:"page"`
	Step          string     `json:"step"`
	Report        string     `json:"report"`
	Status        StepStatus `json:"status"`
	Message       string     `json:"message,omitempty"`
	Error         string     `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}
