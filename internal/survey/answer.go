package survey

// Answer is one of the three response kinds a checklist question accepts.
type Answer int

const (
	AnswerAffirmative Answer = iota
	AnswerNegative
	AnswerPartial
)

// String returns the wire value used in submitted records.
func (a Answer) String() string {
	switch a {
	case AnswerAffirmative:
		return "Affirmative"
	case AnswerNegative:
		return "Negative"
	case AnswerPartial:
		return "Partial"
	default:
		return "Unknown"
	}
}

// Token returns the compact form carried in callback payloads.
func (a Answer) Token() string {
	switch a {
	case AnswerAffirmative:
		return "yes"
	case AnswerNegative:
		return "no"
	case AnswerPartial:
		return "part"
	default:
		return ""
	}
}

// ParseAnswer decodes a callback payload token.
func ParseAnswer(token string) (Answer, bool) {
	switch token {
	case "yes":
		return AnswerAffirmative, true
	case "no":
		return AnswerNegative, true
	case "part":
		return AnswerPartial, true
	default:
		return 0, false
	}
}

// NeedsComment reports whether the answer requires an explanatory comment
// before the record can be submitted.
func (a Answer) NeedsComment() bool {
	return a == AnswerNegative || a == AnswerPartial
}
