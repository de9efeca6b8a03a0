package domain

// Classifier decides what to do with a dead job.
type Classifier struct {
	discard []Rule
	retry   []Rule
}

// NewClassifier creates a classifier with the built-in rule sets.
func NewClassifier() *Classifier {
	return NewClassifierWithRules(DiscardRules(), RetryRules())
}

// NewClassifierWithRules creates a classifier from explicit rule lists.
func NewClassifierWithRules(discard, retry []Rule) *Classifier {
	return &Classifier{discard: discard, retry: retry}
}

// Classify returns the action for a job. Discard rules are checked first,
// matching the order in which a page is processed.
func (c *Classifier) Classify(jobClass, errorText string) Action {
	row := JobRow{JobClass: jobClass, ErrorText: errorText}
	if _, ok := c.Match(ActionDiscard, row); ok {
		return ActionDiscard
	}
	if _, ok := c.Match(ActionRetry, row); ok {
		return ActionRetry
	}
	return ActionNone
}

// Match tests the row against a single rule family and returns the first
// rule that applies.
func (c *Classifier) Match(action Action, row JobRow) (Rule, bool) {
	for _, r := range c.Rules(action) {
		if r.Matches(row.JobClass, row.ErrorText) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns the rule family for an action.
func (c *Classifier) Rules(action Action) []Rule {
	switch action {
	case ActionDiscard:
		return c.discard
	case ActionRetry:
		return c.retry
	default:
		return nil
	}
}
