package domain

// MoralRule is a named, weighted criterion used to score free text.
// Weight is the signed contribution a rule adds to an action's score
// when it fires; firing is binary, there is no partial credit.
type MoralRule struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}
