// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"github.com/tomtom215/footfall/internal/models"
)

// Kind is how a report reply is turned into a file.
type Kind int

// Report kinds.
const (
	// KindFile replies are spreadsheets saved as-is.
	KindFile Kind = iota
	// KindRows replies are the JSON row envelope, saved as CSV.
	KindRows
	// KindWeather is the weather timeline, saved as CSV.
	KindWeather
)

const lang = "en-us"

// Report is one fetch step.
type Report struct {
	Name    string
	Label   string
	File    string
	Path    string
	Referer string
	Kind    Kind
	payload func(p models.FetchParams) interface{}
}

// Payload builds the JSON body for p.
func (r Report) Payload(p models.FetchParams) interface{} {
	if r.payload == nil {
		return nil
	}
	return r.payload(p)
}

type siteTreeSelect struct {
	Source      string        `json:"source"`
	Type        string        `json:"type"`
	Code        string        `json:"code"`
	IsCloseShop string        `json:"iscloseshop,omitempty"`
	Operators   []interface{} `json:"operators"`
}

func siteTree(code string) []siteTreeSelect {
	return []siteTreeSelect{{Source: "0", Type: "0", Code: code, Operators: []interface{}{}}}
}

// numericSiteTree is the variant the time period endpoints accept, with
// numeric type and source.
type numericSiteTree struct {
	Code      string        `json:"code"`
	Type      int           `json:"type"`
	Source    int           `json:"source"`
	Operators []interface{} `json:"operators"`
}

type customerParams struct {
	IsClose         int              `json:"isClose"`
	Module          string           `json:"module"`
	DateType        string           `json:"dateType"`
	BeginDate       string           `json:"beginDate"`
	EndDate         string           `json:"endDate"`
	SiteTreeSelects []siteTreeSelect `json:"SiteTreeSelects"`
	ChildSite       string           `json:"childSite"`
	TabSiteType     int              `json:"tabSiteType"`
	Page            int              `json:"page"`
	PageSize        int              `json:"pageSize"`
}

type dwellParams struct {
	IsClose              int              `json:"isClose"`
	Module               string           `json:"Module"`
	AccurateType         string           `json:"accurateType"`
	DateType             string           `json:"dateType"`
	BeginDate            string           `json:"beginDate"`
	EndDate              string           `json:"endDate"`
	SelType              int              `json:"SelType"`
	SiteChooseType       int              `json:"siteChooseType"`
	TabSiteType          string           `json:"tabSiteType"`
	Indicator            string           `json:"indicator"`
	IndicatorColumnsData []string         `json:"indicatorcolumnsData"`
	AdvancedOptionsData  []interface{}    `json:"advancedOptionsData"`
	AdvancedOptions      string           `json:"advancedOptions"`
	ExportType           int              `json:"exportType"`
	SiteTreeSelects      []siteTreeSelect `json:"SiteTreeSelects"`
}

type relationParams struct {
	IsClose         int              `json:"isClose"`
	Module          string           `json:"module"`
	DateType        string           `json:"dateType"`
	BeginDate       string           `json:"beginDate"`
	EndDate         string           `json:"endDate"`
	SiteTreeSelects []siteTreeSelect `json:"SiteTreeSelects"`
}

type attentionParams struct {
	IsClose   int    `json:"isClose"`
	Module    string `json:"module"`
	DateType  string `json:"dateType"`
	BeginDate string `json:"beginDate"`
	EndDate   string `json:"endDate"`
	SiteKey   string `json:"siteKey"`
}

type timePeriodParams struct {
	BeginDate       string            `json:"beginDate"`
	EndDate         string            `json:"endDate"`
	DateType        string            `json:"dateType"`
	Module          string            `json:"module"`
	IsClose         int               `json:"isClose"`
	SiteTreeSelects []numericSiteTree `json:"siteTreeSelects"`
	PassFlowType    string            `json:"passFlowType,omitempty"`
	StartHourTime   string            `json:"startHourTime"`
	EndHourTime     string            `json:"endHourTime"`
}

type rankParams struct {
	SelType     string `json:"SelType"`
	Type        string `json:"Type"`
	SiteKeys    string `json:"SiteKeys"`
	BeginTime   string `json:"BeginTime"`
	EndTime     string `json:"EndTime"`
	Module      string `json:"Module"`
	IsClose     int    `json:"IsClose"`
	OrderbyName string `json:"orderbyName"`
	SortDesc    string `json:"sortDesc"`
}

// menuRequest is the outer body shared by every report call. MenuID is a
// number for most endpoints and a string for a few, so it stays untyped.
type menuRequest struct {
	MenuID interface{} `json:"menuId"`
	Lang   string      `json:"lang"`
	Params interface{} `json:"params"`
	UserID string      `json:"userId"`
}

// Report definitions, by page.
var (
	ReportCustomerProfile = Report{
		Name:    "customer_profile",
		Label:   "Customer Profile",
		File:    models.FileCustomerProfile,
		Path:    "customerPortrait/getAgeAndSexDetail",
		Referer: "/ReportsAnalysis/AccurateFlowS0600/customerPortrait/index.html",
		Kind:    KindRows,
		payload: func(p models.FetchParams) interface{} {
			return menuRequest{
				MenuID: 3000401,
				Lang:   lang,
				UserID: p.UserID,
				Params: customerParams{
					Module:          "BM00019S002",
					DateType:        "d",
					BeginDate:       models.Norm(p.StartDate),
					EndDate:         models.Norm(p.EndDate),
					SiteTreeSelects: siteTree(p.SiteCode),
					TabSiteType:     300,
					Page:            1,
					PageSize:        500,
				},
			}
		},
	}

	ReportDwellTime = Report{
		Name:    "dwell_time",
		Label:   "Dwell Time",
		File:    models.FileDwellTime,
		Path:    "SelfAccess/selfDataExport",
		Referer: "/ReportsAnalysis/AccurateFlowS0600/selfAccess/index.html",
		Kind:    KindFile,
		payload: func(p models.FetchParams) interface{} {
			tree := siteTree(p.SiteCode)
			tree[0].IsCloseShop = "0"
			return menuRequest{
				MenuID: "4000101",
				Lang:   lang,
				UserID: p.UserID,
				Params: dwellParams{
					Module:       "BM00025,BM00001,BM00019S001,BM00019S002,BM00019",
					AccurateType: "1",
					DateType:     "d",
					BeginDate:    models.Slash(p.StartDate),
					EndDate:      models.Slash(p.EndDate),
					SelType:      300,
					TabSiteType:  "300",
					Indicator:    "Accurate_Wander,Accurate_AvgWanderTime",
					IndicatorColumnsData: []string{
						"Accurate_Wander|Distribution of customers'dwell time",
						"Accurate_AvgWanderTime|Avg. dwell time",
					},
					AdvancedOptionsData: []interface{}{},
					ExportType:          1,
					SiteTreeSelects:     tree,
				},
			}
		},
	}

	ReportWeather = Report{
		Name:  "weather",
		Label: "Weather",
		File:  models.FileWeather,
		Kind:  KindWeather,
	}

	ReportAssociation = Report{
		Name:  "associated_area",
		Label: "Associated Area",
		File:  models.FileAssociation,
		Path:  "shopRelationController/ShopAreaRelationExportData",
		Kind:  KindFile,
		payload: func(p models.FetchParams) interface{} {
			return menuRequest{
				MenuID: 3000202,
				Lang:   lang,
				UserID: p.UserID,
				Params: relationParams{
					Module:          "BM00019S007",
					DateType:        "d",
					BeginDate:       models.Slash(p.StartDate),
					EndDate:         models.Slash(p.EndDate),
					SiteTreeSelects: siteTree(p.SiteCode),
				},
			}
		},
	}

	ReportPerformance = Report{
		Name:  "area_performance",
		Label: "Area Performance",
		File:  models.FilePerformance,
		Path:  "ShopAreaHeat/ShopAreaAttentionDataExport",
		Kind:  KindFile,
		payload: func(p models.FetchParams) interface{} {
			return menuRequest{
				MenuID: 3000201,
				Lang:   lang,
				UserID: p.UserID,
				Params: attentionParams{
					Module:    "BM00019S007",
					DateType:  "d",
					BeginDate: models.Slash(p.StartDate),
					EndDate:   models.Slash(p.EndDate),
					SiteKey:   p.SiteCode,
				},
			}
		},
	}

	ReportTimeTraffic = Report{
		Name:    "time_period_traffic",
		Label:   "Time Period Traffic",
		File:    models.FileTimeTraffic,
		Path:    "TimePeriodFlowAcc/CustomerFlowSumDetailExportData",
		Kind:    KindFile,
		payload: timePeriodPayload(3000103, "BM00019S002", ""),
	}

	ReportTimeFlowIn = Report{
		Name:    "time_period_flow_in",
		Label:   "Time Period Flow In",
		File:    models.FileTimeFlowIn,
		Path:    "TimePeriodFlow/CustomerFlowSumDetailExportData",
		Kind:    KindFile,
		payload: timePeriodPayload(2000103, "BM00001", "inSum"),
	}

	ReportTimeFlowOut = Report{
		Name:    "time_period_flow_out",
		Label:   "Time Period Flow Out",
		File:    models.FileTimeFlowOut,
		Path:    "TimePeriodFlow/CustomerFlowSumDetailExportData",
		Kind:    KindFile,
		payload: timePeriodPayload(2000103, "BM00001", "outSum"),
	}

	ReportAreaTraffic = Report{
		Name:    "area_traffic",
		Label:   "Area Traffic",
		File:    models.FileAreaTraffic,
		Path:    "PassengerRank/AccRankExportDetailsAPI",
		Kind:    KindFile,
		payload: rankPayload("400"),
	}

	ReportGateFlow = Report{
		Name:    "gate_flow",
		Label:   "Gate Flow",
		File:    models.FileGateFlow,
		Path:    "PassengerRank/AccRankExportDetailsAPI",
		Kind:    KindFile,
		payload: rankPayload("700"),
	}
)

func timePeriodPayload(menuID int, module, passFlowType string) func(models.FetchParams) interface{} {
	return func(p models.FetchParams) interface{} {
		return menuRequest{
			MenuID: menuID,
			Lang:   lang,
			UserID: p.UserID,
			Params: timePeriodParams{
				BeginDate: models.Norm(p.StartDate),
				EndDate:   models.Norm(p.EndDate),
				DateType:  "d",
				Module:    module,
				SiteTreeSelects: []numericSiteTree{
					{Code: p.SiteCode, Operators: []interface{}{}},
				},
				PassFlowType:  passFlowType,
				StartHourTime: "00:00",
				EndHourTime:   "23:00",
			},
		}
	}
}

// rankPayload builds the ranking export body; selType 400 ranks areas and
// 700 ranks gates.
func rankPayload(selType string) func(models.FetchParams) interface{} {
	return func(p models.FetchParams) interface{} {
		return menuRequest{
			MenuID: "3000102",
			Lang:   lang,
			UserID: p.UserID,
			Params: rankParams{
				SelType:     selType,
				Type:        "d",
				SiteKeys:    p.SiteCode,
				BeginTime:   models.Slash(p.StartDate),
				EndTime:     models.Slash(p.EndDate),
				Module:      "BM00019S002",
				OrderbyName: "inSum",
				SortDesc:    "desc",
			},
		}
	}
}

// PageReports returns the fetch steps of page in order.
func PageReports(page models.Page) []Report {
	switch page {
	case models.PageCustomer:
		return []Report{ReportCustomerProfile, ReportDwellTime, ReportWeather}
	case models.PageAssociation:
		return []Report{ReportAssociation}
	case models.PagePerformance:
		return []Report{ReportPerformance}
	case models.PageTimePeriod:
		return []Report{ReportTimeTraffic, ReportTimeFlowIn, ReportTimeFlowOut}
	case models.PageTraffic:
		return []Report{ReportAreaTraffic, ReportGateFlow}
	default:
		return nil
	}
}
