// ABOUTME: Signal tables for the role-inference rules.
// ABOUTME: All matching is lowercase substring; placeholder values count as absent.
package inference

// placeholderValues are field contents treated as "no value". Contact rows
// imported from CSVs and form submissions frequently carry these literally.
var placeholderValues = map[string]struct{}{
	"":     {},
	"none": {},
	"n/a":  {},
	"null": {},
}

// adminEmailSignals mark administrative mailboxes.
var adminEmailSignals = []string{"admin", "administrator", "management", "manager"}

// agentEmailSignals mark real-estate agent mailboxes.
var agentEmailSignals = []string{"agent", "realtor", "broker", "realty"}

// realEstateBrands are company names of known brokerages and agencies.
// Matching any of these in the company field is an agent signal even when
// the brokerage field was left blank.
var realEstateBrands = []string{
	"re/max",
	"remax",
	"keller williams",
	"coldwell banker",
	"century 21",
	"berkshire hathaway",
	"sotheby",
	"compass",
	"exp realty",
	"douglas elliman",
	"redfin",
	"equity union",
}

// homeownerCompanySignals mark company values that describe a person rather
// than a business; such contacts are homeowners, not providers.
var homeownerCompanySignals = []string{
	"self", "personal", "private", "individual", "homeowner", "retired", "unemployed",
}

// srmEmailSignals mark seniority/relationship-management mailboxes.
var srmEmailSignals = []string{
	"srm", "senior", "relationship", "manager", "director", "vp", "vice president",
}

// accountingEmailSignals mark finance mailboxes.
var accountingEmailSignals = []string{
	"accounting", "finance", "bookkeeper", "cpa", "accountant", "bookkeeping",
}
