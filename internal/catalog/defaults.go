package catalog

import "github.com/planforge/planforge/internal/skills"

// Default returns the built-in starter catalog. `planforge init` writes
// these same documents to disk for editing; tests and first runs use
// them directly.
func Default(registry *skills.Registry) (*Catalog, error) {
	return Parse([]byte(DefaultPhasesYAML), []byte(DefaultAgentsYAML), registry)
}

// DefaultPhasesYAML is the starter phase/question catalog.
const DefaultPhasesYAML = `phases:
  - id: foundations
    name: Foundations
    questions:
      - id: business_path
        type: choice
        text: Are you starting a new business or growing an existing one?
        required: true
        options: [new, existing]
      - id: business_idea
        type: text
        text: Describe your business idea in a few sentences.
        required: true
      - id: industry
        type: text
        text: What industry or sector are you in?
        required: true
      - id: team_size
        type: number
        text: How many people are on the team today?
        required: false
      - id: current_revenue
        type: number
        text: What is your current monthly revenue?
        required: true
        condition: "business_path == 'existing'"

  - id: market
    name: Market & Customers
    questions:
      - id: target_region
        type: text
        text: Which geographic market are you targeting first?
        required: true
      - id: customer_type
        type: choice
        text: Who do you primarily sell to?
        required: true
        options: [b2b, b2c, mixed]
      - id: customer_pain
        type: text
        text: What problem do you solve for those customers?
        required: true
      - id: tam_estimate
        type: number
        text: What is your estimate of the total addressable market?
        required: false
        skill_trigger: tam_sam_som
      - id: competitors
        type: text
        text: Who are your main competitors?
        required: false

  - id: finance
    name: Financial Plan
    questions:
      - id: pricing_model
        type: choice
        text: How will you charge customers?
        required: true
        options: [subscription, one_time, usage]
      - id: monthly_costs
        type: number
        text: What are your expected monthly operating costs?
        required: true
      - id: cash_balance
        type: number
        text: How much cash do you have available to invest?
        required: true
        skill_trigger: runway
      - id: funding_plan
        type: choice
        text: How do you plan to fund the business?
        required: true
        options: [bootstrapped, investors]
        condition: "business_path == 'new'"
      - id: finance_review
        type: checkpoint
        text: Review your financial assumptions before continuing.
        required: false

  - id: gtm
    name: Go-to-Market
    questions:
      - id: launch_channels
        type: multiSelect
        text: Which channels will you use to reach customers?
        required: true
        options: [online, retail, partnerships, outbound, events]
      - id: marketing_budget
        type: number
        text: What monthly marketing budget can you commit?
        required: false
      - id: sales_motion
        type: choice
        text: Will customers buy self-serve or through a sales process?
        required: true
        options: [self_serve, sales_led]
        condition: "customer_type in ['b2b', 'mixed']"
      - id: launch_date
        type: date
        text: When do you want to launch?
        required: false
`

// DefaultAgentsYAML is the starter agent catalog and selection table.
const DefaultAgentsYAML = `agents:
  - id: business_strategist
    display_name: Business Strategist
    system_prompt: |
      You are a pragmatic business strategist helping a founder build a
      business plan. Work from the conversation context you are given.
      Be concrete and concise; prefer numbered recommendations over
      generalities. When cost or cash questions come up, use your tools
      instead of estimating in your head.
    allowed_skills: [breakeven_analysis, runway]

  - id: market_analyst
    display_name: Market Analyst
    system_prompt: |
      You are a market analyst. Size markets, identify segments and
      competitive dynamics, and ground every claim in the answers the
      founder has given. Use the tam_sam_som tool for any market sizing
      rather than doing arithmetic yourself.
    allowed_skills: [tam_sam_som]

  - id: customer_profiler
    display_name: Customer Profiler
    system_prompt: |
      You are a customer research specialist. Build crisp customer
      profiles: who buys, why they buy, what they pay for today, and
      what would make them switch. Stay within what the founder's
      answers support.
    allowed_skills: []

  - id: financial_modeler
    display_name: Financial Modeler
    system_prompt: |
      You are a startup financial modeler. Produce projections, unit
      economics and breakeven analysis from the founder's numbers.
      Always compute with your tools; never invent figures. State the
      assumptions behind every projection.
    allowed_skills: [revenue_projection, unit_economics, breakeven_analysis, runway]

  - id: gtm_strategist
    display_name: Go-to-Market Strategist
    system_prompt: |
      You are a go-to-market strategist. Recommend channels, pricing
      and a launch sequence that fit the founder's customer type and
      budget. Use the pricing_ladder and unit_economics tools to keep
      recommendations grounded in the numbers.
    allowed_skills: [unit_economics, pricing_ladder]

  - id: risk_assessor
    display_name: Risk Assessor
    system_prompt: |
      You are a business risk assessor. Identify the top risks in the
      founder's plan - market, execution, financial and regulatory -
      and propose one mitigation per risk. Flag cash risks using the
      runway tool.
    allowed_skills: [runway]

selection:
  default: [business_strategist, market_analyst]
  phases:
    - phase: foundations
      primary: [business_strategist]
      rules:
        - condition: "business_path == 'existing'"
          add: [risk_assessor]
    - phase: market
      primary: [market_analyst, customer_profiler]
      rules:
        - condition: "customer_type in ['b2b', 'mixed']"
          add: [gtm_strategist]
    - phase: finance
      primary: [financial_modeler, business_strategist]
      rules:
        - condition: "funding_plan == 'investors'"
          add: [risk_assessor]
    - phase: gtm
      primary: [gtm_strategist, customer_profiler]
      rules:
        - condition: "pricing_model == 'subscription'"
          add: [financial_modeler]
`
