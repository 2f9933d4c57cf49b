package models

// MatchType selects how a keyword is compared to a description.
type MatchType string

const (
	MatchContains MatchType = "contains"
	MatchWord     MatchType = "word"
	MatchPrefix   MatchType = "prefix"
)

// CategoryRule maps description keywords to a category label.
type CategoryRule struct {
	Category  string          `yaml:"category"`
	Keywords  []string        `yaml:"keywords"`
	Match     MatchType       `yaml:"match"`
	Priority  int             `yaml:"priority"`
	AppliesTo TransactionType `yaml:"applies_to"`
}

// SignConstraint restricts a type rule to inflows or outflows.
type SignConstraint string

const (
	SignAny      SignConstraint = "any"
	SignNegative SignConstraint = "negative"
	SignPositive SignConstraint = "positive"
)

// TypeRule overrides sign-based classification when a keyword matches.
type TypeRule struct {
	Name     string          `yaml:"name"`
	Keywords []string        `yaml:"keywords"`
	Match    MatchType       `yaml:"match"`
	Sign     SignConstraint  `yaml:"sign"`
	Type     TransactionType `yaml:"type"`
}

// RuleSet is the top level of categories.yaml. VendorCategories maps an exact
// vendor name (case-insensitive) to a category and wins over keyword rules.
type RuleSet struct {
	TypeRules        []TypeRule        `yaml:"type_rules"`
	Categories       []CategoryRule    `yaml:"categories"`
	VendorCategories map[string]string `yaml:"vendor_categories"`
	NoisePrefixes    []string          `yaml:"noise_prefixes"`
}

// SignConvention describes how a bank encodes the direction of money.
type SignConvention string

const (
	// SignSigned: negative amounts are outflows.
	SignSigned SignConvention = "signed"
	// SignInverted: positive amounts are outflows (credit card exports).
	SignInverted SignConvention = "inverted"
	// SignIndicator: unsigned amount plus a debit/credit flag column.
	SignIndicator SignConvention = "indicator"
	// SignSplit: separate unsigned debit and credit columns.
	SignSplit SignConvention = "split"
)

// ColumnMap lists acceptable header names per canonical column.
type ColumnMap struct {
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
	Amount      []string `yaml:"amount"`
	Debit       []string `yaml:"debit"`
	Credit      []string `yaml:"credit"`
	Indicator   []string `yaml:"indicator"`
	Reference   []string `yaml:"reference"`
	Account     []string `yaml:"account"`
}

// BankProfile is the per-bank knowledge needed to normalize an export.
type BankProfile struct {
	Name           string         `yaml:"name"`
	Aliases        []string       `yaml:"aliases"`
	Columns        ColumnMap      `yaml:"columns"`
	DateLayouts    []string       `yaml:"date_layouts"`
	Sign           SignConvention `yaml:"sign"`
	DebitMarkers   []string       `yaml:"debit_markers"`
	CreditMarkers  []string       `yaml:"credit_markers"`
	DecimalComma   bool           `yaml:"decimal_comma"`
	RequireHeaders []string       `yaml:"require_headers"`
}

// BankCatalog is the top level of banks.yaml.
type BankCatalog struct {
	Banks []BankProfile `yaml:"banks"`
}
