package validate

// Rule is one family of checks run over an artifact.
type Rule interface {
	Name() string
	Evaluate(art *Artifact) Result
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds an engine with every built-in rule.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ParseIssuesRule())
	engine.Register(ReferencesRule())
	engine.Register(GraphRule())
	engine.Register(ConventionsRule())
	engine.Register(ConfigurationRule())
	engine.Register(SummaryRule())
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in registration order.
func (e *RulesEngine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate executes all registered rules and returns their sorted report.
func (e *RulesEngine) Evaluate(art *Artifact) *Report {
	var combined Result
	for _, rule := range e.rules {
		combined.Merge(rule.Evaluate(art))
	}
	return newReport(combined)
}
