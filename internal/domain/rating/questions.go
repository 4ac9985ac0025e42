package rating

// Domain slot numbers.  Slot 5 is reserved in storage and currently unused.
const (
	DomainCustomerDemand = 1
	DomainMoats          = 2
	DomainTechStack      = 3
	DomainAICompetition  = 4
)

// Question is one sub-question within a domain.  Text is snapshotted onto
// each DomainScore row at evaluation time so later wording changes do not
// rewrite history.
type Question struct {
	Key      string
	Text     string
	Guidance string
}

// Domain is one of the four fixed risk categories.
type Domain struct {
	Number      int
	Name        string
	Description string
	Questions   []Question
}

// Domains is the fixed question catalog driving every analysis.
var Domains = []Domain{
	{
		Number:      DomainCustomerDemand,
		Name:        "Customer Demand",
		Description: "Assesses whether the software's core use case will persist and remain valuable in an AI-enabled world.",
		Questions: []Question{
			{
				Key:      "durability_of_use_case",
				Text:     "Durability of use case: Will the software's use case persist in an AI-enabled world?",
				Guidance: "Consider whether AI could fully automate or eliminate the need for this software. E.g., call center software may be at high risk if AI agents handle calls directly.",
			},
			{
				Key:      "cost_of_failure_switching",
				Text:     "High cost of failure / switching costs: Will customers tolerate unreliability of AI or risk moving solutions?",
				Guidance: "Consider mission-criticality, regulatory requirements, and how painful it would be to switch. Higher switching costs = lower risk.",
			},
			{
				Key:      "customer_sophistication",
				Text:     "Customer sophistication: Will customers rely on the software vendor to provide AI functionality or vibe code their own in-house?",
				Guidance: "Less sophisticated customers (e.g., SMBs) are more likely to stay with vendors. Highly technical customers may build their own AI solutions.",
			},
		},
	},
	{
		Number:      DomainMoats,
		Name:        "Moats",
		Description: "Evaluates the structural characteristics, competitive moats, and pricing resilience of the software product.",
		Questions: []Question{
			{
				Key:      "data_control_system_of_record",
				Text:     "Control over data / system of record vs. workflow: Does the business manage critical customer data or is it purely workflow based?",
				Guidance: "Systems of record (managing complex, real-time data) are harder to displace than pure workflow tools. Data gravity creates moats.",
			},
			{
				Key:      "platform_vs_point",
				Text:     "Platform vs point solution: Is the product the backbone of where work gets done, or simply an add-on tool?",
				Guidance: "Platforms that are the \"choke point\" for customer workflows are more defensible than point solutions that can be easily replaced.",
			},
			{
				Key:      "pricing_model",
				Text:     "Pricing model: Is pricing based on consumption, seats, or outcomes? Is the pricing model moving in that direction?",
				Guidance: "Seat-based pricing is at risk as AI reduces headcount. Consumption and outcome-based models are more resilient to AI-driven seat compression.",
			},
			{
				Key:      "structural_moats",
				Text:     "Does the business have network effects, proprietary data, a self-improving product, a captured market, or regulatory lock-in?",
				Guidance: "Evaluate each moat type: network effects (value grows with users), proprietary data (unique training data), self-improving loops, captive customers, regulatory barriers.",
			},
		},
	},
	{
		Number:      DomainTechStack,
		Name:        "Tech Stack",
		Description: "Evaluates the company's technical foundation and readiness to incorporate AI.",
		Questions: []Question{
			{
				Key:      "cloud_native_modern",
				Text:     "Is the tech cloud-native, modular, and modern?",
				Guidance: "Legacy on-premise architectures are harder to integrate with AI. Cloud-native, microservices-based architectures can more easily adopt AI capabilities.",
			},
			{
				Key:      "tech_debt",
				Text:     "Is there tech debt?",
				Guidance: "Significant tech debt slows AI adoption and makes the company more vulnerable to nimble AI-native competitors.",
			},
			{
				Key:      "integration_capability",
				Text:     "Does the software easily integrate with other software?",
				Guidance: "Strong API ecosystem and integration capabilities allow the product to participate in AI-enhanced workflows rather than being bypassed.",
			},
			{
				Key:      "ai_strategy",
				Text:     "Does the company have a clear AI strategy?",
				Guidance: "Evaluate whether the company has articulated and is executing on a coherent AI strategy, including product roadmap, partnerships, and investment.",
			},
		},
	},
	{
		Number:      DomainAICompetition,
		Name:        "AI Competition",
		Description: "Evaluates the competitive threat from both incumbent AI offerings and AI-native startups.",
		Questions: []Question{
			{
				Key:      "incumbent_ai_comparison",
				Text:     "How does the company's products compare with other incumbent AI offerings?",
				Guidance: "Assess whether competitors in the same space have stronger AI capabilities, better AI integration, or more advanced AI features.",
			},
			{
				Key:      "ai_native_startups",
				Text:     "Are there AI-native startups attacking the same use case? Are they well funded?",
				Guidance: "Well-funded AI-native startups pose a significant threat as they can build from scratch without legacy constraints. Consider funding levels and traction.",
			},
		},
	},
}

// DomainByNumber returns the catalog entry for a domain slot, or nil for an
// unknown slot.
func DomainByNumber(number int) *Domain {
	for i := range Domains {
		if Domains[i].Number == number {
			return &Domains[i]
		}
	}
	return nil
}

// QuestionText returns the catalog wording for a question within a domain.
// Falls back to the key itself when the catalog has no entry, so unknown
// keys from the AI never leave the snapshot column empty.
func QuestionText(domainNumber int, key string) string {
	d := DomainByNumber(domainNumber)
	if d == nil {
		return key
	}
	for _, q := range d.Questions {
		if q.Key == key {
			return q.Text
		}
	}
	return key
}

// SectorClassifications groups the recommended sector list by expected AI
// disruption exposure.  Reference context for the analyst prompt and the UI
// sector picker; free-text sectors outside this list are still accepted.
var SectorClassifications = map[string][]string{
	"Expected Tailwinds": {
		"Cybersecurity",
		"Data Management",
		"Hardware / Infrastructure",
	},
	"Low Risk / Insulated": {
		"Office of the CFO / ERP",
		"Tech Services",
		"Classifieds / Marketplaces",
		"Vertical Software",
	},
	"Medium Risk": {
		"Application Software",
		"Human Capital Management",
		"DevOps / Infrastructure Software",
	},
	"High Risk": {
		"CRM / Customer Engagement",
		"EdTech",
		"AdTech",
		"Data Analytics",
	},
}

// AllSectors flattens SectorClassifications into a single list.
func AllSectors() []string {
	out := make([]string, 0, 14)
	for _, group := range []string{"Expected Tailwinds", "Low Risk / Insulated", "Medium Risk", "High Risk"} {
		out = append(out, SectorClassifications[group]...)
	}
	return out
}
