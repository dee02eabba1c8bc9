package calculator

import "strings"

// Attributes are the employee facts the allowance eligibility policy matches
// against.
type Attributes struct {
	PositionTitle  string
	DepartmentName string
	PayGrade       string
	ContractType   string
	WorkType       string
}

// EligibilityPolicy decides whether an allowance applies to an employee.
// It is a pure function so rules can be unit-tested and swapped without
// touching the calculator.
type EligibilityPolicy interface {
	Eligible(allowanceName string, attrs Attributes) bool
}

// KeywordPolicy is the deterministic keyword-matching policy: case-insensitive
// substring tests evaluated in a fixed priority order, first match wins.
// An allowance whose name carries no category keyword at all is treated as
// general-purpose and granted by default.
type KeywordPolicy struct {
	Universal  []string
	Position   []string
	Department []string
	Contract   []string
	Work       []string
}

// NewKeywordPolicy returns the stock keyword lists.
func NewKeywordPolicy() *KeywordPolicy {
	return &KeywordPolicy{
		Universal: []string{
			"housing", "transport", "meal", "medical", "insurance",
			"benefit", "general", "uniform", "communication",
		},
		Position: []string{
			"manager", "engineer", "developer", "supervisor", "director",
			"sales", "technician", "analyst", "specialist",
		},
		Department: []string{
			"engineering", "finance", "marketing", "operations",
			"support", "legal", "procurement",
		},
		Contract: []string{"permanent", "probation", "temporary", "internship", "freelance"},
		Work:     []string{"remote", "onsite", "field", "shift", "hybrid", "office"},
	}
}

func (p *KeywordPolicy) Eligible(allowanceName string, attrs Attributes) bool {
	name := strings.ToLower(allowanceName)

	// (a) universal allowances always apply
	if containsAny(name, p.Universal) {
		return true
	}

	// (b) position-title keyword intersection
	if intersects(name, attrs.PositionTitle, p.Position) {
		return true
	}

	// (c) department-name keyword intersection
	if intersects(name, attrs.DepartmentName, p.Department) {
		return true
	}

	// (d) pay-grade token match, only for allowances naming a grade
	if strings.Contains(name, "grade") && attrs.PayGrade != "" &&
		strings.Contains(name, strings.ToLower(attrs.PayGrade)) {
		return true
	}

	// (e) contract-type keyword intersection
	if intersects(name, attrs.ContractType, p.Contract) {
		return true
	}

	// (f) work-type keyword intersection
	if intersects(name, attrs.WorkType, p.Work) {
		return true
	}

	// (g) uncategorised names are assumed general-purpose; categorised names
	// with no intersecting attribute are excluded.
	return !p.categorised(name)
}

func (p *KeywordPolicy) categorised(name string) bool {
	if containsAny(name, p.Universal) || containsAny(name, p.Position) ||
		containsAny(name, p.Department) || containsAny(name, p.Contract) ||
		containsAny(name, p.Work) {
		return true
	}
	return strings.Contains(name, "grade")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// intersects reports whether the allowance name and the employee attribute
// share at least one keyword from the list.
func intersects(name, attr string, keywords []string) bool {
	if attr == "" {
		return false
	}
	attr = strings.ToLower(attr)
	for _, kw := range keywords {
		if strings.Contains(name, kw) && strings.Contains(attr, kw) {
			return true
		}
	}
	return false
}
