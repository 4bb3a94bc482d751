package api

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/rgehrsitz/ichra/internal/session"
)

const employeesJSON = `[
	{"employee_id": "A", "age": 30, "state": "oh", "rating_area_id": 1, "family_status": "EE", "monthly_income": 4000, "current_er_monthly": "250.00"},
	{"employee_id": "B", "age": 50, "state": "OH", "rating_area_id": "1", "family_status": "EE", "monthly_income": "4000", "current_er_monthly": 250}
]`

const premiumsJSON = `{"plan_year": 2026, "rates": [
	{"state": "OH", "rating_area_id": 1, "age_band": "30", "lcsp": "400", "slcsp": "450"},
	{"state": "OH", "rating_area_id": 1, "age_band": "50", "lcsp": "800", "slcsp": "850"}
]}`

func body(extra string) string {
	b := `{"employees": ` + employeesJSON + `, "premiums": ` + premiumsJSON
	if extra != "" {
		b += ", " + extra
	}
	return b + "}"
}

func do(t *testing.T, s *Server, method, path, reqBody string) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if reqBody != "" {
		ctx.Request.SetBodyString(reqBody)
	}
	s.Handler()(ctx)
	return ctx
}

type envelope struct {
	RequestID string          `json:"request_id"`
	SessionID string          `json:"session_id"`
	PlanYear  int             `json:"plan_year"`
	Result    json.RawMessage `json:"result"`
}

func decodeOK(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, string(ctx.Response.Header.Peek(RequestIDHeader)), env.RequestID)
	assert.NotEmpty(t, env.SessionID)
	return env
}

func decodeError(t *testing.T, ctx *fasthttp.RequestCtx, status int) ErrorResponse {
	t.Helper()
	require.Equal(t, status, ctx.Response.StatusCode())
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, status, resp.Status)
	return resp
}

func TestHealthz(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	ctx := do(t, s, "GET", "/healthz", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.ContentType()), "application/json")
	assert.JSONEq(t, `{"status":"ok","plan_year":2026}`, string(ctx.Response.Body()))

	_, err := uuid.Parse(string(ctx.Response.Header.Peek(RequestIDHeader)))
	assert.NoError(t, err, "Every response carries a request ID")

	decodeError(t, do(t, s, "POST", "/healthz", ""), fasthttp.StatusMethodNotAllowed)
}

func TestRouting_Errors(t *testing.T) {
	s := NewServer(nil, session.Sources{})

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"unknown path", "POST", "/v1/unknown", "{}", 404, "not found"},
		{"wrong method", "GET", "/v1/analyze", "", 405, "method not allowed"},
		{"invalid json", "POST", "/v1/analyze", "{", 400, "invalid request body"},
		{"no employees", "POST", "/v1/analyze", `{"employees": []}`, 400, "at least one employee"},
		{"no premiums", "POST", "/v1/analyze", `{"employees": ` + employeesJSON + `}`, 400, "no premium table"},
		{"nested value", "POST", "/v1/analyze", `{"employees": [{"employee_id": {"x": 1}}], "premiums": ` + premiumsJSON + `}`, 400, "employee 1"},
		{"invalid premium table", "POST", "/v1/analyze", `{"employees": ` + employeesJSON + `, "premiums": {"plan_year": 2026}}`, 400, ""},
		{"plan year mismatch", "POST", "/v1/analyze", `{"employees": ` + employeesJSON + `, "premiums": {"plan_year": 2025, "rates": [{"state": "OH", "rating_area_id": 1, "age_band": "30", "lcsp": "400"}]}}`, 400, ""},
		{"strategy missing", "POST", "/v1/strategy", body(""), 400, "strategy is required"},
		{"strategy unknown", "POST", "/v1/strategy", body(`"strategy": {"type": "bonus"}`), 400, "unsupported strategy type"},
		{"unknown mode", "POST", "/v1/compare", body(`"mode": "turbo"`), 400, "unknown operating mode"},
		{"unsupported harbor", "POST", "/v1/solve", body(`"safe_harbor": "w2_wages"`), 400, "unsupported safe harbor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeError(t, do(t, s, tt.method, tt.path, tt.body), tt.status)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestAnalyze(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/analyze", body("")))
	assert.Equal(t, 2026, env.PlanYear)

	var analysis domain.WorkforceAnalysis
	require.NoError(t, json.Unmarshal(env.Result, &analysis))
	assert.Nil(t, analysis.Error)
	assert.Equal(t, 2, analysis.Summary.TotalEmployees)
	assert.Equal(t, 2, analysis.Summary.EmployeesAnalyzed)
	require.Len(t, analysis.Employees, 2)
	assert.Equal(t, "OH", analysis.Employees[0].State)
	assert.True(t, decimal.NewFromInt(800).Equal(analysis.Employees[1].LCSP))
}

func TestEachRequestGetsItsOwnSession(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	first := decodeOK(t, do(t, s, "POST", "/v1/analyze", body("")))
	second := decodeOK(t, do(t, s, "POST", "/v1/analyze", body("")))
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestServerSourcesUsedWithoutPremiums(t *testing.T) {
	table := premium.RateTable{
		PlanYear: 2026,
		Rates: []premium.RateEntry{
			{State: "OH", RatingArea: 1, AgeBand: "30", LCSP: decimal.NewFromInt(400)},
			{State: "OH", RatingArea: 1, AgeBand: "50", LCSP: decimal.NewFromInt(800)},
		},
	}
	s := NewServer(nil, session.Sources{LCSP: table.LCSP()})
	env := decodeOK(t, do(t, s, "POST", "/v1/analyze", `{"employees": `+employeesJSON+`}`))

	var analysis domain.WorkforceAnalysis
	require.NoError(t, json.Unmarshal(env.Result, &analysis))
	assert.Equal(t, 0, analysis.Summary.EmployeesWithoutPremium)
}

func TestStrategy(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/strategy",
		body(`"strategy": {"type": "flat_amount", "amount": 300}, "safe_harbor": "fpl"`)))

	var result domain.StrategyResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, domain.KindFlatAmount, result.Kind)
	assert.True(t, decimal.NewFromInt(600).Equal(result.TotalMonthly))
	require.NotNil(t, result.Affordability, "A requested safe harbor adds an affordability test")
	assert.Equal(t, domain.SafeHarborFPL, result.Affordability.SafeHarbor)
	assert.Equal(t, 2, result.Affordability.EmployeesAnalyzed)
}

func TestSolve(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/solve", body("")))

	var result struct {
		SafeHarbor domain.SafeHarbor      `json:"safe_harbor"`
		Strategy   *domain.StrategyResult `json:"strategy"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, domain.SafeHarborRateOfPay, result.SafeHarbor, "Census income selects rate of pay")
	require.NotNil(t, result.Strategy)
	assert.Equal(t, 2, result.Strategy.EmployeesCovered)
}

func TestCompare(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/compare", body(`"mode": "standard"`)))

	var set struct {
		Mode     string            `json:"mode"`
		Outcomes []json.RawMessage `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &set))
	assert.Equal(t, "non_ale_standard", set.Mode)
	assert.Len(t, set.Outcomes, 3)
}

func TestRecommend(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/recommend", body(`"apply": "flat"`)))

	var out RecommendResult
	require.NoError(t, json.Unmarshal(env.Result, &out))
	require.NotNil(t, out.Recommendations)
	require.NotEmpty(t, out.Recommendations.Recommendations)
	assert.Equal(t, domain.RecommendFlat, out.Recommendations.Recommendations[0].Type)
	require.NotNil(t, out.ClassModel)
	assert.Equal(t, 2, out.ClassModel.EmployeesAssigned)

	resp := decodeError(t, do(t, s, "POST", "/v1/recommend", body(`"apply": "location"`)), 400)
	assert.Contains(t, resp.Message, "no location recommendation")
}

func TestPatterns(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/patterns", body("")))

	var out struct {
		Patterns *domain.PatternResult      `json:"patterns"`
		Renewal  []domain.RenewalProjection `json:"renewal"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &out))
	require.NotNil(t, out.Patterns)
	assert.Empty(t, out.Renewal, "No renewal column, no projection")
}

func TestSubsidy(t *testing.T) {
	s := NewServer(nil, session.Sources{})
	env := decodeOK(t, do(t, s, "POST", "/v1/subsidy", body(`"contributions": {"A": "0", "B": "0"}`)))

	var summary domain.SubsidyWorkforceSummary
	require.NoError(t, json.Unmarshal(env.Result, &summary))
	assert.Equal(t, 2, summary.TotalEmployees)
	assert.Equal(t, 2, summary.Under65)
	require.Len(t, summary.Employees, 2)
	assert.True(t, summary.Employees[0].ERContribution.IsZero())

	env = decodeOK(t, do(t, s, "POST", "/v1/subsidy", body("")))
	require.NoError(t, json.Unmarshal(env.Result, &summary))
	assert.True(t, decimal.NewFromInt(250).Equal(summary.Employees[1].ERContribution), "Defaults to the current contribution")
}

func TestSubsidy_RequiresBenchmark(t *testing.T) {
	table := premium.RateTable{PlanYear: 2026, Rates: []premium.RateEntry{
		{State: "OH", RatingArea: 1, AgeBand: "30", LCSP: decimal.NewFromInt(400)},
	}}
	s := NewServer(nil, session.Sources{LCSP: table.LCSP()})
	resp := decodeError(t, do(t, s, "POST", "/v1/subsidy", `{"employees": `+employeesJSON+`}`), 400)
	assert.Contains(t, resp.Message, "SLCSP")
}

func TestScalar(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"E1"`, "E1", false},
		{`4000.50`, "4000.50", false},
		{`null`, "", false},
		{`true`, "true", false},
		{`[1]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := scalar(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
