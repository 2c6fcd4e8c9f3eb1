// Package classify maps a message's sender and subject to an outcome
// category using an ordered rule table with sender-specific rules and
// generic keyword fallbacks.
package classify

import (
	"strings"

	"github.com/lmedina/mailboard/internal/model"
)

// Classifier resolves (sender, subject) pairs against a fixed rule
// table. The table is read-only; a Classifier is safe for reuse.
type Classifier struct {
	table model.RuleTable
}

// New creates a Classifier over the given rule table.
func New(table model.RuleTable) *Classifier {
	return &Classifier{table: table}
}

// Classify determines the outcome category for a message. It returns
// the category, the keyword that matched, and whether any rule matched
// at all; ok == false means the message requires no action.
//
// Resolution order is fixed: the first sender entry whose address is a
// substring of the normalized sender selects that sender's rules (the
// default sender's rules otherwise), then keywords are tried in table
// order, then the generic fallback groups in group order. The first
// substring hit at any stage is authoritative; there is no scoring.
func (c *Classifier) Classify(subject, sender string) (model.Category, string, bool) {
	subjectLower := strings.ToLower(subject)
	senderLower := strings.ToLower(strings.TrimSpace(sender))

	rules := c.senderRules(senderLower)
	for _, rule := range rules {
		if strings.Contains(subjectLower, strings.ToLower(rule.Keyword)) {
			return rule.Category, rule.Keyword, true
		}
	}

	for _, group := range c.table.Fallbacks {
		for _, keyword := range group.Keywords {
			if strings.Contains(subjectLower, strings.ToLower(keyword)) {
				return group.Category, group.Label, true
			}
		}
	}

	return "", "", false
}

// senderRules selects the keyword rules for a sender address, falling
// back to the default sender's rules when no entry matches.
func (c *Classifier) senderRules(senderLower string) []model.KeywordRule {
	for _, entry := range c.table.Senders {
		if strings.Contains(senderLower, strings.ToLower(entry.Sender)) {
			return entry.Rules
		}
	}
	for _, entry := range c.table.Senders {
		if entry.Sender == c.table.DefaultSender {
			return entry.Rules
		}
	}
	return nil
}
