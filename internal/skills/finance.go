package skills

import (
	"encoding/json"
	"fmt"
	"math"
)

func builtinSkills() []Skill {
	return []Skill{
		revenueProjectionSkill(),
		tamSamSomSkill(),
		unitEconomicsSkill(),
		breakevenSkill(),
		runwaySkill(),
		pricingLadderSkill(),
	}
}

func numberProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RevenueProjection is the result of the revenue_projection skill.
type RevenueProjection struct {
	YearlyRevenue []float64 `json:"yearly_revenue"`
	TotalRevenue  float64   `json:"total_revenue"`
	FinalMonthly  float64   `json:"final_monthly_revenue"`
	CAGR          float64   `json:"cagr_pct"`
}

func revenueProjectionSkill() Skill {
	return Skill{
		Name:        "revenue_projection",
		Description: "Project revenue over multiple years from a starting monthly revenue and a compounding monthly growth rate. Returns per-year totals, cumulative total, and CAGR.",
		Properties: map[string]any{
			"starting_monthly_revenue": numberProp("Current monthly revenue in the session currency"),
			"monthly_growth_rate_pct":  numberProp("Expected month-over-month growth rate in percent"),
			"years":                    numberProp("Projection horizon in years (default 5, max 10)"),
		},
		Required: []string{"starting_monthly_revenue", "monthly_growth_rate_pct"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				Starting float64 `json:"starting_monthly_revenue"`
				Growth   float64 `json:"monthly_growth_rate_pct"`
				Years    int     `json:"years"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			if p.Starting < 0 {
				return nil, fmt.Errorf("starting_monthly_revenue must be >= 0")
			}
			if p.Growth <= -100 {
				return nil, fmt.Errorf("monthly_growth_rate_pct must be > -100")
			}
			years := p.Years
			if years <= 0 {
				years = 5
			}
			if years > 10 {
				years = 10
			}

			growth := 1 + p.Growth/100
			monthly := p.Starting
			result := RevenueProjection{YearlyRevenue: make([]float64, years)}
			for y := 0; y < years; y++ {
				var yearTotal float64
				for m := 0; m < 12; m++ {
					yearTotal += monthly
					monthly *= growth
				}
				result.YearlyRevenue[y] = round2(yearTotal)
				result.TotalRevenue += yearTotal
			}
			result.TotalRevenue = round2(result.TotalRevenue)
			result.FinalMonthly = round2(monthly / growth)

			first := result.YearlyRevenue[0]
			last := result.YearlyRevenue[years-1]
			if first > 0 && years > 1 {
				result.CAGR = round2((math.Pow(last/first, 1/float64(years-1)) - 1) * 100)
			}
			return result, nil
		},
	}
}

// MarketSizing is the result of the tam_sam_som skill.
type MarketSizing struct {
	TAM float64 `json:"tam"`
	SAM float64 `json:"sam"`
	SOM float64 `json:"som"`
}

func tamSamSomSkill() Skill {
	return Skill{
		Name:        "tam_sam_som",
		Description: "Compute TAM/SAM/SOM market sizing from the total addressable market, the serviceable segment share, and the realistically obtainable share.",
		Properties: map[string]any{
			"tam":         numberProp("Total addressable market value"),
			"sam_percent": numberProp("Serviceable segment as a percent of TAM (0-100)"),
			"som_percent": numberProp("Obtainable share as a percent of SAM (0-100)"),
		},
		Required: []string{"tam", "sam_percent", "som_percent"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				TAM        float64 `json:"tam"`
				SAMPercent float64 `json:"sam_percent"`
				SOMPercent float64 `json:"som_percent"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			if p.TAM < 0 {
				return nil, fmt.Errorf("tam must be >= 0")
			}
			if p.SAMPercent < 0 || p.SAMPercent > 100 {
				return nil, fmt.Errorf("sam_percent must be between 0 and 100")
			}
			if p.SOMPercent < 0 || p.SOMPercent > 100 {
				return nil, fmt.Errorf("som_percent must be between 0 and 100")
			}

			sam := p.TAM * p.SAMPercent / 100
			return MarketSizing{
				TAM: round2(p.TAM),
				SAM: round2(sam),
				SOM: round2(sam * p.SOMPercent / 100),
			}, nil
		},
	}
}

// UnitEconomics is the result of the unit_economics skill.
type UnitEconomics struct {
	CAC           float64 `json:"cac"`
	LTV           float64 `json:"ltv"`
	LTVToCACRatio float64 `json:"ltv_to_cac_ratio"`
	PaybackMonths float64 `json:"payback_months"`
}

func unitEconomicsSkill() Skill {
	return Skill{
		Name:        "unit_economics",
		Description: "Compute CAC, LTV, LTV:CAC ratio and CAC payback period from acquisition spend and per-customer revenue metrics.",
		Properties: map[string]any{
			"marketing_spend":     numberProp("Total acquisition spend for the period"),
			"new_customers":       numberProp("Customers acquired in the same period"),
			"avg_monthly_revenue": numberProp("Average monthly revenue per customer"),
			"gross_margin_pct":    numberProp("Gross margin in percent (0-100)"),
			"monthly_churn_pct":   numberProp("Monthly customer churn in percent (0-100)"),
		},
		Required: []string{"marketing_spend", "new_customers", "avg_monthly_revenue", "gross_margin_pct", "monthly_churn_pct"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				Spend     float64 `json:"marketing_spend"`
				Customers float64 `json:"new_customers"`
				ARPU      float64 `json:"avg_monthly_revenue"`
				Margin    float64 `json:"gross_margin_pct"`
				Churn     float64 `json:"monthly_churn_pct"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			if p.Customers <= 0 {
				return nil, fmt.Errorf("new_customers must be > 0")
			}
			if p.Churn <= 0 || p.Churn > 100 {
				return nil, fmt.Errorf("monthly_churn_pct must be in (0, 100]")
			}
			if p.Margin < 0 || p.Margin > 100 {
				return nil, fmt.Errorf("gross_margin_pct must be between 0 and 100")
			}

			cac := p.Spend / p.Customers
			monthlyGross := p.ARPU * p.Margin / 100
			ltv := monthlyGross / (p.Churn / 100)

			result := UnitEconomics{
				CAC: round2(cac),
				LTV: round2(ltv),
			}
			if cac > 0 {
				result.LTVToCACRatio = round2(ltv / cac)
			}
			if monthlyGross > 0 {
				result.PaybackMonths = round2(cac / monthlyGross)
			}
			return result, nil
		},
	}
}

// Breakeven is the result of the breakeven_analysis skill.
type Breakeven struct {
	Units              float64 `json:"breakeven_units"`
	Revenue            float64 `json:"breakeven_revenue"`
	ContributionMargin float64 `json:"contribution_margin_per_unit"`
}

func breakevenSkill() Skill {
	return Skill{
		Name:        "breakeven_analysis",
		Description: "Compute the breakeven point in units and revenue from monthly fixed costs, unit price, and unit variable cost.",
		Properties: map[string]any{
			"monthly_fixed_costs": numberProp("Fixed costs per month"),
			"unit_price":          numberProp("Selling price per unit"),
			"unit_variable_cost":  numberProp("Variable cost per unit"),
		},
		Required: []string{"monthly_fixed_costs", "unit_price", "unit_variable_cost"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				Fixed    float64 `json:"monthly_fixed_costs"`
				Price    float64 `json:"unit_price"`
				Variable float64 `json:"unit_variable_cost"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			margin := p.Price - p.Variable
			if margin <= 0 {
				return nil, fmt.Errorf("unit_price must exceed unit_variable_cost")
			}

			units := p.Fixed / margin
			return Breakeven{
				Units:              math.Ceil(units),
				Revenue:            round2(math.Ceil(units) * p.Price),
				ContributionMargin: round2(margin),
			}, nil
		},
	}
}

// Runway is the result of the runway skill.
type Runway struct {
	// Months until cash runs out; -1 when net burn is zero or negative.
	Months  float64 `json:"months"`
	NetBurn float64 `json:"net_monthly_burn"`
}

func runwaySkill() Skill {
	return Skill{
		Name:        "runway",
		Description: "Compute cash runway in months from the current cash balance, monthly operating costs, and monthly revenue. Returns -1 months when the business is cash-flow positive.",
		Properties: map[string]any{
			"cash_balance":    numberProp("Current cash on hand"),
			"monthly_costs":   numberProp("Total monthly operating costs"),
			"monthly_revenue": numberProp("Current monthly revenue (default 0)"),
		},
		Required: []string{"cash_balance", "monthly_costs"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				Cash    float64 `json:"cash_balance"`
				Costs   float64 `json:"monthly_costs"`
				Revenue float64 `json:"monthly_revenue"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			if p.Cash < 0 {
				return nil, fmt.Errorf("cash_balance must be >= 0")
			}

			burn := p.Costs - p.Revenue
			if burn <= 0 {
				return Runway{Months: -1, NetBurn: round2(burn)}, nil
			}
			return Runway{
				Months:  round2(p.Cash / burn),
				NetBurn: round2(burn),
			}, nil
		},
	}
}

// PricingTier is one rung of the pricing_ladder result.
type PricingTier struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MarginPct float64 `json:"margin_pct"`
}

func pricingLadderSkill() Skill {
	return Skill{
		Name:        "pricing_ladder",
		Description: "Derive a three-tier pricing ladder (entry, standard, premium) from unit cost and a target margin, anchored by an optional competitor price.",
		Properties: map[string]any{
			"unit_cost":         numberProp("Fully loaded cost per unit"),
			"target_margin_pct": numberProp("Target gross margin in percent (0-99)"),
			"competitor_price":  numberProp("Reference competitor price (optional)"),
		},
		Required: []string{"unit_cost", "target_margin_pct"},
		Run: func(raw json.RawMessage) (any, error) {
			var p struct {
				Cost       float64 `json:"unit_cost"`
				Margin     float64 `json:"target_margin_pct"`
				Competitor float64 `json:"competitor_price"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
			if p.Cost < 0 {
				return nil, fmt.Errorf("unit_cost must be >= 0")
			}
			if p.Margin < 0 || p.Margin >= 100 {
				return nil, fmt.Errorf("target_margin_pct must be in [0, 100)")
			}

			standard := p.Cost / (1 - p.Margin/100)
			if p.Competitor > 0 {
				// Anchor midway between cost-plus and the market reference.
				standard = (standard + p.Competitor) / 2
			}
			entry := standard * 0.8
			premium := standard * 1.4

			tiers := []PricingTier{
				{Name: "entry", Price: round2(entry), MarginPct: marginAt(entry, p.Cost)},
				{Name: "standard", Price: round2(standard), MarginPct: marginAt(standard, p.Cost)},
				{Name: "premium", Price: round2(premium), MarginPct: marginAt(premium, p.Cost)},
			}
			return map[string]any{"tiers": tiers}, nil
		},
	}
}

func marginAt(price, cost float64) float64 {
	if price <= 0 {
		return 0
	}
	return round2((price - cost) / price * 100)
}
