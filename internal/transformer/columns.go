package transformer

import (
	"strings"

	"campaign-dashboard/internal/models"
)

// MatchMode controls how loosely a candidate name may match a header.
type MatchMode int

const (
	// MatchExact tries an exact match, then a case-insensitive one, both on trimmed text.
	MatchExact MatchMode = iota
	// MatchContains additionally accepts a header containing the candidate or
	// the candidate containing the header ("Open" finds "Open Rate").
	MatchContains
)

func (m MatchMode) String() string {
	if m == MatchContains {
		return "contains"
	}
	return "exact"
}

// ResolveColumn returns the index of the header best matching the candidates,
// or -1. Candidates are tried one at a time in the order given, so the caller's
// ordering decides ties.
func ResolveColumn(headers []string, candidates []string, mode MatchMode) int {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	for _, candidate := range candidates {
		name := strings.TrimSpace(candidate)
		if name == "" {
			continue
		}

		for i, h := range trimmed {
			if h == name {
				return i
			}
		}
		for i, h := range trimmed {
			if strings.EqualFold(h, name) {
				return i
			}
		}
		if mode != MatchContains {
			continue
		}

		lowerName := strings.ToLower(name)
		for i, h := range trimmed {
			if h == "" {
				continue
			}
			lowerHeader := strings.ToLower(h)
			if strings.Contains(lowerHeader, lowerName) || strings.Contains(lowerName, lowerHeader) {
				return i
			}
		}
	}
	return -1
}

// ColumnRule is the candidate list and match mode for one logical field.
type ColumnRule struct {
	Candidates []string  `yaml:"candidates"`
	Mode       MatchMode `yaml:"-"`
	Contains   bool      `yaml:"contains"`
}

func (r ColumnRule) mode() MatchMode {
	if r.Contains {
		return MatchContains
	}
	return r.Mode
}

// Aliases maps each logical field to its column rule.
type Aliases map[models.Field]ColumnRule

// DefaultAliases returns the stock header variants seen across the campaign,
// drip and pipeline tabs.
func DefaultAliases() Aliases {
	return Aliases{
		models.FieldDate:            {Candidates: []string{"Date", "date", "DATE", "Setup Date", "setup date", "SETUP DATE"}},
		models.FieldCampaignName:    {Candidates: []string{"Name", "name", "Campaign Name", "campaignName", "Campaign", "campaign_name"}},
		models.FieldProject:         {Candidates: []string{"Project Name", "Project", "project", "PROJECT", "projectName"}},
		models.FieldSolutionArea:    {Candidates: []string{"Solution", "solution", "Solution Area", "solutionArea", "SOLUTION", "solution_area"}},
		models.FieldEmailTool:       {Candidates: []string{"Tool", "tool", "Email Tool", "emailTool", "TOOL", "email_tool", "EmailTool"}},
		models.FieldSend:            {Candidates: []string{"Send", "send", "SEND", "sent", "Sent", "SENT", "Contacts Sent", "Contacts", "contacts", "CONTACTS"}},
		models.FieldOpenRate:        {Candidates: []string{"Open", "open", "OPEN", "Open Rate", "openRate", "open_rate", "Open%"}},
		models.FieldClickRate:       {Candidates: []string{"Click", "click", "CLICK", "Click Rate", "clickRate", "click_rate", "Click%"}},
		models.FieldBounceRate:      {Candidates: []string{"Bounce", "bounce", "BOUNCE", "Bounce Rate", "bounceRate", "bounce_rate", "Bounce%"}},
		models.FieldUnsubscribeRate: {Candidates: []string{"unsub", "Unsub", "UNSUB", "Unsubscribe", "unsubscribe", "Unsubscribe Rate", "unsubscribeRate", "unsubscribe_rate", "Unsubscribe%"}},
		models.FieldLeads:           {Candidates: []string{"Leads", "leads", "LEADS", "Lead", "lead"}},
		models.FieldStatus:          {Candidates: []string{"Status", "status", "STATUS", "Campaign Status", "campaignStatus"}},
		models.FieldFirstName:       {Candidates: []string{"First Name", "first name", "FirstName", "firstname", "First_Name"}},
		models.FieldMonth:           {Candidates: []string{"Month", "month", "MONTH"}},
	}
}

// Merge returns a copy of a with every rule in overrides replacing its field.
func (a Aliases) Merge(overrides Aliases) Aliases {
	out := make(Aliases, len(a)+len(overrides))
	for f, r := range a {
		out[f] = r
	}
	for f, r := range overrides {
		if len(r.Candidates) == 0 && !r.Contains {
			continue
		}
		if len(r.Candidates) == 0 {
			r.Candidates = a[f].Candidates
		}
		out[f] = r
	}
	return out
}

// With returns a copy of a where the given field uses rule.
func (a Aliases) With(f models.Field, rule ColumnRule) Aliases {
	return a.Merge(Aliases{f: rule})
}

// ColumnMap is the header-index mapping of one grid, built once and reused
// for every row of that grid.
type ColumnMap struct {
	Headers []string
	index   map[models.Field]int
}

// NewColumnMap resolves every aliased field against headers.
func NewColumnMap(headers []string, aliases Aliases) *ColumnMap {
	m := &ColumnMap{
		Headers: headers,
		index:   make(map[models.Field]int, len(aliases)),
	}
	for field, rule := range aliases {
		if i := ResolveColumn(headers, rule.Candidates, rule.mode()); i >= 0 {
			m.index[field] = i
		}
	}
	return m
}

// Index returns the column of a field, or -1.
func (m *ColumnMap) Index(f models.Field) int {
	if i, ok := m.index[f]; ok {
		return i
	}
	return -1
}

// Has reports whether the field was resolved.
func (m *ColumnMap) Has(f models.Field) bool {
	_, ok := m.index[f]
	return ok
}

// Cell returns the raw cell of a field in row, or nil.
func (m *ColumnMap) Cell(row []interface{}, f models.Field) interface{} {
	return models.CellAt(row, m.Index(f))
}

// Missing lists the fields of aliases that have no column, in display order.
func (m *ColumnMap) Missing(aliases Aliases) []models.Field {
	var missing []models.Field
	for _, f := range models.AllFields {
		if _, wanted := aliases[f]; !wanted {
			continue
		}
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
