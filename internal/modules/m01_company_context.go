package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/adapter"
	"github.com/aristath/sentinel/internal/citation"
	"github.com/aristath/sentinel/internal/ratelimit"
	"github.com/aristath/sentinel/internal/retry"
)

// verticalKeywords is the fixed vertical keyword table that classifyVertical
// scores industry+description text against. It is an ordered slice rather
// than a map so that ties resolve deterministically to the earlier entry.
var verticalKeywords = []struct {
	Vertical string
	Keywords []string
}{
	{"Commerce", []string{"retail", "ecommerce", "e-commerce", "shop", "store", "marketplace", "wholesale"}},
	{"Content", []string{"media", "publishing", "news", "content", "streaming", "editorial"}},
	{"Support", []string{"support", "helpdesk", "documentation", "knowledge base", "customer service"}},
}

var businessModelKeywords = []struct {
	Model    string
	Keywords []string
}{
	{"B2C", []string{"consumer", "shopper", "customer", "retail"}},
	{"B2B", []string{"enterprise", "business", "b2b", "wholesale", "distributor"}},
	{"B2B2C", []string{"platform", "marketplace", "partner network"}},
}

// m01CompanyData is M01's typed output payload.
type m01CompanyData struct {
	Domain          string
	CompanyName     string
	Ticker          string
	Exchange        string
	IsPublic        bool
	HQCity          string
	HQState         string
	HQCountry       string
	Industry        string
	Vertical        string
	SubVertical     string
	BusinessModel   string
	EmployeeCount   int
	StoreCount      int
	FoundedYear     int
	Description     string
	Brands          []string
	DataQualityScore float64
}

// M01CompanyContext is Wave 1, no dependencies.
type M01CompanyContext struct {
	fetch func(ctx context.Context, domain string) (m01CompanyData, citation.SourceCitation, error)
}

// NewM01CompanyContext wires the default mock-fixture-backed data source
// through the adapter resilience stack.
func NewM01CompanyContext() *M01CompanyContext {
	a := adapter.New(adapter.Config[m01CompanyData]{
		Name:        "web-search",
		SourceType:  citation.WebSearch,
		RateLimiter: ratelimit.NewTokenBucket(ratelimit.Defaults["web-search"].RefillRate, ratelimit.Defaults["web-search"].Capacity),
		RetryConfig: retry.DefaultConfig(),
		MakeRequest: func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
			domain := params["domain"]
			if f, ok := lookupFixture(domain); ok {
				return f, nil
			}
			return companyFixture{}, nil
		},
		ParseResponse: func(endpoint string, raw any, params map[string]string) (m01CompanyData, error) {
			domain := params["domain"]
			f := raw.(companyFixture)
			if f.Name == "" {
				return extractFromDomain(domain), nil
			}
			return m01CompanyData{
				Domain: domain, CompanyName: f.Name, Ticker: f.Ticker, Exchange: f.Exchange, IsPublic: f.IsPublic,
				HQCity: f.HQCity, HQState: f.HQState, HQCountry: f.HQCountry, Industry: f.Industry,
				Vertical: f.Vertical, SubVertical: f.SubVertical, BusinessModel: f.BusinessModel,
				EmployeeCount: f.EmployeeCount, StoreCount: f.StoreCount, FoundedYear: f.FoundedYear,
				Description: f.Description, Brands: f.Brands,
			}, nil
		},
		BuildSourceURL: func(endpoint string, params map[string]string) string {
			return fmt.Sprintf("https://websearch.internal/company?domain=%s", params["domain"])
		},
	})

	return &M01CompanyContext{
		fetch: func(ctx context.Context, domain string) (m01CompanyData, citation.SourceCitation, error) {
			_, known := lookupFixture(domain)
			confidence := 0.5
			if known {
				confidence = 0.9
			}
			resp, err := a.Call(ctx, "company", map[string]string{"domain": domain}, adapter.Options{})
			if err != nil {
				return m01CompanyData{}, citation.SourceCitation{}, err
			}
			cit := resp.Citation
			cit.ConfidenceScore = confidence
			if !known {
				cit.SourceType = citation.CompanySite
				cit.Notes = "Data inferred from domain name"
			}
			return resp.Data, cit, nil
		},
	}
}

// extractFromDomain builds a minimal company record when no fixture or
// upstream source has data, mirroring the reference module's private
// company fallback.
func extractFromDomain(domain string) m01CompanyData {
	base := domain
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	name := strings.Join(parts, " ")
	return m01CompanyData{
		Domain:      domain,
		CompanyName: name,
		IsPublic:    false,
		Description: fmt.Sprintf("%s is a company operating at %s.", name, domain),
	}
}

func (m *M01CompanyContext) ID() string           { return "m01_company_context" }
func (m *M01CompanyContext) Wave() int            { return 1 }
func (m *M01CompanyContext) DependsOn() []string  { return nil }
func (m *M01CompanyContext) TimeoutSeconds() int  { return 60 }

func (m *M01CompanyContext) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	data, primaryCitation, err := m.fetch(ctx, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	if data.Vertical == "" {
		data.Vertical = classifyVertical(data.Industry, data.Description)
	}
	if data.BusinessModel == "" {
		data.BusinessModel = detectBusinessModel(data.Industry, data.Description)
	}
	data.DataQualityScore = calculateDataQuality(data)

	result := ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: primaryCitation,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"company_name":       data.CompanyName,
			"ticker":             data.Ticker,
			"exchange":           data.Exchange,
			"is_public":          data.IsPublic,
			"hq_city":            data.HQCity,
			"hq_state":           data.HQState,
			"hq_country":         data.HQCountry,
			"industry":           data.Industry,
			"vertical":           data.Vertical,
			"sub_vertical":       data.SubVertical,
			"business_model":     data.BusinessModel,
			"employee_count":     data.EmployeeCount,
			"store_count":        data.StoreCount,
			"founded_year":       data.FoundedYear,
			"description":        data.Description,
			"brands":             data.Brands,
			"data_quality_score": data.DataQualityScore,
		},
	}
	return result, nil
}

// classifyVertical scores industry+description against verticalKeywords,
// breaking ties toward the first-listed (highest-priority) vertical and
// defaulting to Commerce when every score is zero.
func classifyVertical(industry, description string) string {
	text := strings.ToLower(industry + " " + description)
	best := "Commerce"
	bestScore := -1
	for _, v := range verticalKeywords {
		score := 0
		for _, kw := range v.Keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = v.Vertical
		}
	}
	if bestScore <= 0 {
		return "Commerce"
	}
	return best
}

// detectBusinessModel mirrors classifyVertical's scoring approach for the
// B2B/B2C/B2B2C classification, defaulting to B2C.
func detectBusinessModel(industry, description string) string {
	text := strings.ToLower(industry + " " + description)
	best := "B2C"
	bestScore := -1
	for _, bm := range businessModelKeywords {
		score := 0
		for _, kw := range bm.Keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = bm.Model
		}
	}
	if bestScore <= 0 {
		return "B2C"
	}
	return best
}

// calculateDataQuality is the exact weighted coverage formula from the
// reference module, capped at 1.0.
func calculateDataQuality(d m01CompanyData) float64 {
	score := 0.0
	if d.CompanyName != "" {
		score += 0.2
	}
	if d.HQCity != "" || d.HQCountry != "" {
		score += 0.1
	}
	if d.Industry != "" {
		score += 0.1
	}
	if d.Description != "" && len(d.Description) > 20 {
		score += 0.15
	}
	if d.EmployeeCount > 0 {
		score += 0.1
	}
	if d.IsPublic && d.Ticker != "" {
		score += 0.15
	} else if !d.IsPublic {
		score += 0.075
	}
	if len(d.Brands) > 0 {
		score += 0.1
	}
	if d.FoundedYear > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
