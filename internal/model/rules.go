package model

// KeywordRule binds a subject keyword to an outcome category. Rules are
// matched as case-insensitive substrings of the subject, in slice order;
// the first hit wins.
type KeywordRule struct {
	Keyword  string
	Category Category
}

// SenderRules holds the ordered keyword rules for one monitored sender.
// The Sender value is matched as a case-insensitive substring of the
// message's From address.
type SenderRules struct {
	Sender string
	Rules  []KeywordRule
}

// FallbackGroup is a set of generic keywords that all map to one
// category. Groups are tried in slice order after the sender tables;
// Label is reported as the matched keyword when the group hits.
type FallbackGroup struct {
	Label    string
	Keywords []string
	Category Category
}

// RuleTable is the full, ordered classification table: per-sender rules,
// the sender whose rules apply when no sender matches, and the generic
// fallback groups. It is built once at startup and read-only afterwards.
type RuleTable struct {
	Senders       []SenderRules
	DefaultSender string
	Fallbacks     []FallbackGroup
}

// TitlePrefixes holds the per-sender work item title prefixes, keyed by
// the category a message classified into. Senders are matched the same
// way as in the rule table.
type TitlePrefixes struct {
	Sender   string
	Prefixes map[Category]string
}

// DefaultRuleTable returns the built-in classification table. The
// fallback keyword groups intentionally mix English and Spanish terms;
// the monitored systems notify in both.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		Senders: []SenderRules{
			{
				Sender: "azuredevops@microsoft.com",
				Rules: []KeywordRule{
					{Keyword: "failed", Category: CategoryFailure},
					{Keyword: "succeeded", Category: CategorySuccess},
					{Keyword: "warning", Category: CategoryWarning},
				},
			},
			{
				Sender: "os-certificacionoperaciones@osde.com.ar",
				Rules: []KeywordRule{
					{Keyword: "failed", Category: CategoryFailure},
					{Keyword: "success", Category: CategorySuccess},
					{Keyword: "unstable", Category: CategoryWarning},
				},
			},
		},
		DefaultSender: "azuredevops@microsoft.com",
		Fallbacks: []FallbackGroup{
			{
				Label:    "failed",
				Keywords: []string{"failed", "failure", "error", "falló", "fallo", "fallida"},
				Category: CategoryFailure,
			},
			{
				Label:    "success",
				Keywords: []string{"succeeded", "success", "exitoso", "completado", "exitosa"},
				Category: CategorySuccess,
			},
			{
				Label:    "warning",
				Keywords: []string{"warning", "unstable", "advertencia", "inestable"},
				Category: CategoryWarning,
			},
		},
	}
}

// DefaultTitlePrefixes returns the built-in per-sender title prefixes.
func DefaultTitlePrefixes() []TitlePrefixes {
	return []TitlePrefixes{
		{
			Sender: "azuredevops@microsoft.com",
			Prefixes: map[Category]string{
				CategoryFailure: "🚨 Azure DevOps pipeline failed",
				CategorySuccess: "✅ Azure DevOps pipeline succeeded",
				CategoryWarning: "⚠️ Azure DevOps pipeline warning",
			},
		},
		{
			Sender: "os-certificacionoperaciones@osde.com.ar",
			Prefixes: map[Category]string{
				CategoryFailure: "🚨 Test run failed",
				CategorySuccess: "✅ Test run succeeded",
			},
		},
	}
}
