// ABOUTME: Rule-based role-inference engine for new contacts.
// ABOUTME: One ordered rule list backs Classify (first match), AllPossibleRoles, and ValidateRoleAssignment.
package inference

import (
	"fmt"
	"strings"

	"github.com/doron007/realtechee-auth/internal/authz"
)

// Confidence is the qualitative certainty attached to a recommendation.
// It is review guidance for humans, never a gate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Contact is the loosely structured identity input to inference. Email is
// the only required field; everything else may be blank, a placeholder, or
// arbitrarily cased — fields are normalized before matching.
type Contact struct {
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Brokerage string `json:"brokerage,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Recommendation is one inferred role with its supporting explanation.
type Recommendation struct {
	Role        authz.Role `json:"role"`
	Explanation string     `json:"explanation"`
	Confidence  Confidence `json:"confidence"`
}

// Validation is the outcome of checking a proposed role against the rules.
type Validation struct {
	Valid      bool            `json:"valid"`
	Reasoning  string          `json:"reasoning"`
	Confidence Confidence      `json:"confidence"`
	Suggested  *Recommendation `json:"suggested,omitempty"`
}

// fields holds a contact's attributes normalized for matching: trimmed,
// lowercased, with placeholder values blanked out.
type fields struct {
	email     string
	company   string
	brokerage string
}

// rule pairs a name with a predicate that either produces a recommendation
// or reports no match. Rules are evaluated strictly in list order.
type rule struct {
	name  string
	match func(f fields) (Recommendation, bool)
}

// Engine evaluates the ordered rule list. It is pure and safe for
// concurrent use; construct once and share.
type Engine struct {
	protectedEmail string
	operatorNames  []string
	rules          []rule
}

// New creates an Engine. protectedEmail is the reserved super-admin address;
// operatorNames are company-name substrings identifying the platform
// operator itself (staff contacts classify as admin).
func New(protectedEmail string, operatorNames []string) *Engine {
	e := &Engine{
		protectedEmail: normalize(protectedEmail),
		operatorNames:  lowerAll(operatorNames),
	}
	e.rules = []rule{
		{name: "protected_identity", match: e.matchProtectedIdentity},
		{name: "admin", match: e.matchAdmin},
		{name: "agent", match: matchAgent},
		{name: "provider", match: matchProvider},
		{name: "srm", match: matchSRM},
		{name: "accounting", match: matchAccounting},
		{name: "default", match: matchDefault},
	}
	return e
}

// Classify returns the primary recommendation for contact: the first
// matching rule wins. The final default rule always matches, so a
// recommendation is always returned — a blank email short-circuits straight
// to it, since inference is advisory and must not fail the caller's flow.
func (e *Engine) Classify(contact Contact) Recommendation {
	rec := e.evaluate(contact)[0]
	observeClassification(ruleNameForRole(rec.Role), rec)
	return rec
}

// AllPossibleRoles evaluates every rule and returns all matches in rule
// order, for audit and admin review. The default recommendation (homeowner,
// low) is always the final element.
func (e *Engine) AllPossibleRoles(contact Contact) []Recommendation {
	return e.evaluate(contact)
}

// ValidateRoleAssignment reports whether any matching rule — not necessarily
// the first — justifies proposedRole for contact. When none does, the top
// recommendation is attached as a suggestion. Advisory only: a human may
// always override the inference.
func (e *Engine) ValidateRoleAssignment(contact Contact, proposedRole authz.Role) Validation {
	recs := e.evaluate(contact)
	for _, rec := range recs {
		if rec.Role == proposedRole {
			return Validation{
				Valid:      true,
				Reasoning:  rec.Explanation,
				Confidence: rec.Confidence,
			}
		}
	}
	top := recs[0]
	return Validation{
		Valid: false,
		Reasoning: fmt.Sprintf("no classification rule supports %q; recommended role is %q (%s)",
			proposedRole, top.Role, top.Explanation),
		Confidence: top.Confidence,
		Suggested:  &top,
	}
}

// evaluate runs the full rule list and returns every match. Never empty:
// the default rule matches unconditionally.
func (e *Engine) evaluate(contact Contact) []Recommendation {
	f := normalizeContact(contact)
	if f.email == "" {
		// Email is required input; without it no signal rule is credible.
		rec, _ := matchDefault(f)
		return []Recommendation{rec}
	}

	var recs []Recommendation
	for _, r := range e.rules {
		if rec, ok := r.match(f); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// ruleNameForRole maps a recommended role back to the rule that produced it.
// Each rule recommends exactly one role, so the mapping is total.
func ruleNameForRole(role authz.Role) string {
	switch role {
	case authz.RoleSuperAdmin:
		return "protected_identity"
	case authz.RoleAdmin:
		return "admin"
	case authz.RoleAgent:
		return "agent"
	case authz.RoleProvider:
		return "provider"
	case authz.RoleSRM:
		return "srm"
	case authz.RoleAccounting:
		return "accounting"
	default:
		return "default"
	}
}

// ── Rules ─────────────────────────────────────────────────────────────────────

// matchProtectedIdentity: the reserved super-admin address classifies as
// super_admin unconditionally, bypassing every other rule.
func (e *Engine) matchProtectedIdentity(f fields) (Recommendation, bool) {
	if e.protectedEmail == "" || f.email != e.protectedEmail {
		return Recommendation{}, false
	}
	return Recommendation{
		Role:        authz.RoleSuperAdmin,
		Explanation: "reserved super admin address",
		Confidence:  ConfidenceHigh,
	}, true
}

// matchAdmin: administrative mailbox patterns and/or the platform operator's
// own company name. Both signals together are high confidence; either alone
// is medium.
func (e *Engine) matchAdmin(f fields) (Recommendation, bool) {
	emailHit := containsAny(f.email, adminEmailSignals)
	operatorHit := containsAny(f.company, e.operatorNames) || containsAny(f.brokerage, e.operatorNames)

	switch {
	case emailHit && operatorHit:
		return Recommendation{
			Role:        authz.RoleAdmin,
			Explanation: "administrative email pattern and platform operator company",
			Confidence:  ConfidenceHigh,
		}, true
	case emailHit:
		return Recommendation{
			Role:        authz.RoleAdmin,
			Explanation: "administrative email pattern",
			Confidence:  ConfidenceMedium,
		}, true
	case operatorHit:
		return Recommendation{
			Role:        authz.RoleAdmin,
			Explanation: "platform operator company",
			Confidence:  ConfidenceMedium,
		}, true
	}
	return Recommendation{}, false
}

// matchAgent: a real brokerage value is the strongest agent signal. Failing
// that, agent-ish email substrings and known real-estate brands in the
// company field each count; both together are high confidence.
func matchAgent(f fields) (Recommendation, bool) {
	if f.brokerage != "" {
		return Recommendation{
			Role:        authz.RoleAgent,
			Explanation: "brokerage field provided",
			Confidence:  ConfidenceHigh,
		}, true
	}

	emailHit := containsAny(f.email, agentEmailSignals)
	brandHit := containsAny(f.company, realEstateBrands)
	switch {
	case emailHit && brandHit:
		return Recommendation{
			Role:        authz.RoleAgent,
			Explanation: "agent email pattern and real estate company",
			Confidence:  ConfidenceHigh,
		}, true
	case emailHit:
		return Recommendation{
			Role:        authz.RoleAgent,
			Explanation: "agent email pattern",
			Confidence:  ConfidenceMedium,
		}, true
	case brandHit:
		return Recommendation{
			Role:        authz.RoleAgent,
			Explanation: "real estate company",
			Confidence:  ConfidenceMedium,
		}, true
	}
	return Recommendation{}, false
}

// matchProvider: a company without a brokerage suggests a service business,
// unless the company value describes a person (self/retired/etc.).
func matchProvider(f fields) (Recommendation, bool) {
	if f.company == "" || f.brokerage != "" {
		return Recommendation{}, false
	}
	if containsAny(f.company, homeownerCompanySignals) {
		return Recommendation{}, false
	}
	return Recommendation{
		Role:        authz.RoleProvider,
		Explanation: "company provided without brokerage",
		Confidence:  ConfidenceMedium,
	}, true
}

// matchSRM: seniority substrings in the email local part or domain.
func matchSRM(f fields) (Recommendation, bool) {
	if !containsAny(f.email, srmEmailSignals) {
		return Recommendation{}, false
	}
	return Recommendation{
		Role:        authz.RoleSRM,
		Explanation: "seniority email pattern",
		Confidence:  ConfidenceMedium,
	}, true
}

// matchAccounting: finance substrings in the email.
func matchAccounting(f fields) (Recommendation, bool) {
	if !containsAny(f.email, accountingEmailSignals) {
		return Recommendation{}, false
	}
	return Recommendation{
		Role:        authz.RoleAccounting,
		Explanation: "finance email pattern",
		Confidence:  ConfidenceMedium,
	}, true
}

// matchDefault always matches. The product default for unmatched contacts is
// homeowner, not guest — keep it that way.
func matchDefault(fields) (Recommendation, bool) {
	return Recommendation{
		Role:        authz.RoleHomeowner,
		Explanation: "no classification signals matched",
		Confidence:  ConfidenceLow,
	}, true
}

// ── Normalization ─────────────────────────────────────────────────────────────

func normalizeContact(c Contact) fields {
	return fields{
		email:     normalize(c.Email),
		company:   normalizeOptional(c.Company),
		brokerage: normalizeOptional(c.Brokerage),
	}
}

// normalize trims and lowercases. No locale-aware folding — simple ASCII
// lowering matches how the rest of the platform compares these fields.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeOptional normalizes and blanks placeholder values so callers can
// treat "n/a" and friends as absent uniformly.
func normalizeOptional(s string) string {
	n := normalize(s)
	if _, ok := placeholderValues[n]; ok {
		return ""
	}
	return n
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
