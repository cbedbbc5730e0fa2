package config

import (
	"os"
	"strings"
)

// SheetKind names a logical tab of the spreadsheet.
type SheetKind string

const (
	KindCampaigns SheetKind = "campaigns"
	KindPipeline  SheetKind = "pipeline"
	KindOneOnOne  SheetKind = "one-on-one"
	KindDrip      SheetKind = "drip"
	KindLeads     SheetKind = "leads"
	KindProspects SheetKind = "prospects"
	KindContent   SheetKind = "content"
	KindAnalytics SheetKind = "analytics"
	KindOther     SheetKind = "other"
)

// SheetConfig maps dashboard views to spreadsheet tabs.
type SheetConfig struct {
	Campaigns []string `yaml:"campaigns"`
	Pipeline  string   `yaml:"pipeline"`
	OneOnOne  string   `yaml:"one_on_one"`
	Drip      string   `yaml:"drip"`
	Leads     string   `yaml:"leads"`
	Prospects string   `yaml:"prospects"`
	Content   string   `yaml:"content"`
	Analytics string   `yaml:"analytics"`
	Other     string   `yaml:"other"`

	Range     string `yaml:"range"`
	WideRange string `yaml:"wide_range"`
}

func DefaultSheets() SheetConfig {
	return SheetConfig{
		Campaigns: []string{"Sheet1"},
		Pipeline:  "Pipeline",
		OneOnOne:  "1-1 RSM : All Campaign",
		Drip:      "RSM Stats - Drip",
		Range:     DefaultRange,
		WideRange: WideRange,
	}
}

func sheetsFromEnv() SheetConfig {
	s := DefaultSheets()

	// GOOGLE_SHEET_RANGE is "Tab!A1:Z1000"; its tab is the fallback campaign sheet.
	if r := os.Getenv("GOOGLE_SHEET_RANGE"); r != "" {
		tab, cells, found := strings.Cut(r, "!")
		if !found && looksLikeCells(tab) {
			tab, cells = "", tab
		}
		if tab = strings.TrimSpace(tab); tab != "" {
			s.Campaigns = []string{tab}
		}
		if cells = strings.TrimSpace(cells); cells != "" {
			s.Range = cells
		}
	}
	if list := splitList(os.Getenv("GOOGLE_SHEET_CAMPAIGNS")); len(list) > 0 {
		s.Campaigns = list
	}

	s.Pipeline = getEnv("GOOGLE_SHEET_PIPELINE", s.Pipeline)
	s.OneOnOne = getEnv("GOOGLE_SHEET_ONE_ON_ONE", s.OneOnOne)
	s.Drip = getEnv("GOOGLE_SHEET_DRIP", s.Drip)
	s.Leads = os.Getenv("GOOGLE_SHEET_LEADS")
	s.Prospects = os.Getenv("GOOGLE_SHEET_PROSPECTS")
	s.Content = os.Getenv("GOOGLE_SHEET_CONTENT")
	s.Analytics = os.Getenv("GOOGLE_SHEET_ANALYTICS")
	s.Other = os.Getenv("GOOGLE_SHEET_OTHER")
	return s
}

func looksLikeCells(s string) bool {
	return strings.Contains(s, ":")
}

// Merge returns s with every non-empty field of o applied on top.
func (s SheetConfig) Merge(o SheetConfig) SheetConfig {
	if len(o.Campaigns) > 0 {
		s.Campaigns = o.Campaigns
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.Pipeline, o.Pipeline)
	set(&s.OneOnOne, o.OneOnOne)
	set(&s.Drip, o.Drip)
	set(&s.Leads, o.Leads)
	set(&s.Prospects, o.Prospects)
	set(&s.Content, o.Content)
	set(&s.Analytics, o.Analytics)
	set(&s.Other, o.Other)
	set(&s.Range, o.Range)
	set(&s.WideRange, o.WideRange)
	return s
}

// Tab resolves a sheet kind, or an explicit tab name, to a tab. Unset kinds
// fall back to the first campaign tab.
func (s SheetConfig) Tab(kind string) string {
	if IsCampaignKind(kind) {
		return s.FirstCampaign()
	}

	var tab string
	switch SheetKind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindPipeline:
		tab = s.Pipeline
	case KindOneOnOne, "oneonone":
		tab = s.OneOnOne
	case KindDrip:
		tab = s.Drip
	case KindLeads:
		tab = s.Leads
	case KindProspects:
		tab = s.Prospects
	case KindContent:
		tab = s.Content
	case KindAnalytics:
		tab = s.Analytics
	case KindOther:
		tab = s.Other
	default:
		return strings.TrimSpace(kind)
	}
	if tab == "" {
		return s.FirstCampaign()
	}
	return tab
}

func (s SheetConfig) FirstCampaign() string {
	if len(s.Campaigns) == 0 {
		return "Sheet1"
	}
	return s.Campaigns[0]
}

// OpenRateTabs are the tabs pooled for open-rate metrics.
func (s SheetConfig) OpenRateTabs() []string {
	var tabs []string
	for _, t := range []string{s.OneOnOne, s.Drip} {
		if t != "" {
			tabs = append(tabs, t)
		}
	}
	return tabs
}

// IsCampaignKind reports whether kind selects the campaign tabs.
func IsCampaignKind(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", string(KindCampaigns), "campaigndata":
		return true
	}
	return false
}
