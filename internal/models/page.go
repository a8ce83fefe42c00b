// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import "fmt"

// Page identifies a dashboard page.
type Page string

// The five dashboard pages.
const (
	PageCustomer    Page = "customer"
	PageAssociation Page = "association"
	PagePerformance Page = "performance"
	PageTimePeriod  Page = "timeperiod"
	PageTraffic     Page = "traffic"
)

// Report file names in the data directory.
const (
	FileCustomerProfile = "customer_profile.csv"
	FileDwellTime       = "dwell_time_export.xlsx"
	FileWeather         = "data_cuaca.csv"
	FileAssociation     = "area_association_export.xlsx"
	FilePerformance     = "area_performance_export.xlsx"
	FileTimeTraffic     = "time_period_traffic.xlsx"
	FileTimeFlowIn      = "time_period_flow_in.xlsx"
	FileTimeFlowOut     = "time_period_flow_out.xlsx"
	FileAreaTraffic     = "area_traffic.xlsx"
	FileGateFlow        = "gate_flow.xlsx"
)

// DashboardTitle heads the page index.
const DashboardTitle = "AI Traffic Data Dashboard"

// PageInfo is the card shown for a page on the index.
type PageInfo struct {
	Page        Page     `json:"page"`
	Card        string   `json:"card"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Route       string   `json:"route"`
	Files       []string `json:"files"`
}

var pages = []PageInfo{
	{
		Page:        PageCustomer,
		Card:        "Customer",
		Title:       "Customer Profile",
		Description: "Siapa yang datang? Profil usia dan gender pengunjung, waktu tinggal, dan pengaruh cuaca.",
		Route:       "/api/v1/pages/customer",
		Files:       []string{FileCustomerProfile, FileDwellTime, FileWeather},
	},
	{
		Page:        PageAssociation,
		Card:        "Relation",
		Title:       "Associated Area",
		Description: "Area mana yang dikunjungi bersama? Support, Confidence, dan Lift antar area.",
		Route:       "/api/v1/pages/association",
		Files:       []string{FileAssociation},
	},
	{
		Page:        PagePerformance,
		Card:        "Potency",
		Title:       "Area Performance",
		Description: "Seberapa efektif setiap area? Funnel dwell, interest, dan buying serta klaster area.",
		Route:       "/api/v1/pages/performance",
		Files:       []string{FilePerformance},
	},
	{
		Page:        PageTimePeriod,
		Card:        "Period",
		Title:       "Time Period Traffic Flow",
		Description: "Kapan pengunjung datang? Pola per jam dan per hari, weekday dan weekend.",
		Route:       "/api/v1/pages/timeperiod",
		Files:       []string{FileTimeTraffic, FileTimeFlowIn, FileTimeFlowOut},
	},
	{
		Page:        PageTraffic,
		Card:        "Traffic",
		Title:       "Area Traffic & Gate Flow",
		Description: "Area dan gerbang mana yang paling ramai? Customer per area dan arus masuk keluar per gerbang.",
		Route:       "/api/v1/pages/traffic",
		Files:       []string{FileAreaTraffic, FileGateFlow},
	},
}

// Pages returns the page cards in display order.
func Pages() []PageInfo {
	out := make([]PageInfo, len(pages))
	copy(out, pages)
	return out
}

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	for _, p := range pages {
		if string(p.Page) == s {
			return p.Page, nil
		}
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Info returns the card of p.
func (p Page) Info() PageInfo {
	for _, info := range pages {
		if info.Page == p {
			return info
		}
	}
	return PageInfo{Page: p}
}

// Files returns the report files p reads.
func (p Page) Files() []string {
	return append([]string(nil), p.Info().Files...)
}
