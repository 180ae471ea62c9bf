// Package catalog implements search, synonym and quick-pick matching
// over the read-only drug catalog supplied to an edit session.
package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/medboard/bedside-api/internal/model"
)

const (
	// minTermLen is the shortest effective term worth matching.
	minTermLen = 2
	// maxResults caps every result list the matcher produces.
	maxResults = 20
	// compoundSeparator joins components of a compound order, e.g.
	// "Solutio Ringeri + Natrium chloratum".
	compoundSeparator = "+"
)

// synonyms maps registry names to the colloquial and international
// names clinicians actually type. Lookup is by exact entry name or by
// any key that is a substring of the entry name, so "Natrium chloratum
// 0.9%" picks up the "Natrium chloratum" aliases.
var synonyms = map[string][]string{
	"Paracetamolum":            {"paracetamol", "acetaminophen", "apap"},
	"Metamizolum":              {"metamizole", "pyralgin", "dipyrone"},
	"Acidum acetylsalicylicum": {"aspirin", "asa", "polopiryna"},
	"Ibuprofenum":              {"ibuprofen", "nurofen"},
	"Ketoprofenum":             {"ketoprofen", "ketonal"},
	"Morphini sulfas":          {"morphine", "mf"},
	"Fentanylum":               {"fentanyl"},
	"Adrenalinum":              {"adrenaline", "epinephrine"},
	"Atropinum":                {"atropine"},
	"Amiodaronum":              {"amiodarone", "cordarone"},
	"Furosemidum":              {"furosemide", "lasix"},
	"Natrium chloratum":        {"nacl", "saline", "sol. fizjologiczna"},
	"Kalium chloratum":         {"kcl", "potassium chloride"},
	"Solutio Ringeri":          {"ringer", "ringer lactate", "rl"},
	"Glucosum":                 {"glucose", "dextrose"},
	"Metoclopramidum":          {"metoclopramide", "mcp"},
	"Omeprazolum":              {"omeprazole"},
	"Diazepamum":               {"diazepam", "relanium"},
	"Clemastinum":              {"clemastine"},
	"Hydrocortisonum":          {"hydrocortisone", "corhydron"},
}

// priorityDrugs drives the quick-pick bank: resuscitation and
// first-line ED drugs, in the order they should surface.
var priorityDrugs = []string{
	"Adrenalin",
	"Amiodaron",
	"Atropin",
	"Morphin",
	"Fentanyl",
	"Paracetamol",
	"Metamizol",
	"Furosemid",
	"Natrium chloratum",
	"Glucos",
}

// Matcher performs pure in-memory matching over one session's catalog
// snapshot. Catalog order is preserved in every result list.
type Matcher struct {
	entries []model.CatalogEntry
}

func NewMatcher(entries []model.CatalogEntry) *Matcher {
	return &Matcher{entries: entries}
}

// EffectiveTerm extracts the term a query actually searches for. In
// compound mode only the text after the last '+' counts, so typing
// "Ring + Na" searches for "Na".
func EffectiveTerm(query string, compoundMode bool) string {
	if compoundMode {
		if idx := strings.LastIndex(query, compoundSeparator); idx >= 0 {
			query = query[idx+len(compoundSeparator):]
		}
	}
	return strings.TrimSpace(query)
}

// Search returns active catalog entries whose name or any synonym
// alias contains the effective term, case-insensitively, capped at 20.
func (m *Matcher) Search(query string, compoundMode bool) []model.CatalogEntry {
	term := EffectiveTerm(query, compoundMode)
	if utf8.RuneCountInString(term) < minTermLen {
		return nil
	}

	var results []model.CatalogEntry
	for _, entry := range m.entries {
		if !entry.Active {
			continue
		}
		if containsFold(entry.Name, term) || anyAliasMatches(entry.Name, term) {
			results = append(results, entry)
			if len(results) == maxResults {
				break
			}
		}
	}
	return results
}

// ResolveSynonymMatch explains why an entry matched a query. It
// returns the first matching alias, or "" when the entry name itself
// matched (no annotation needed) or nothing matched at all.
func (m *Matcher) ResolveSynonymMatch(entryName, query string, compoundMode bool) string {
	term := EffectiveTerm(query, compoundMode)
	if utf8.RuneCountInString(term) < minTermLen {
		return ""
	}
	if containsFold(entryName, term) {
		return ""
	}
	for _, alias := range aliasesFor(entryName) {
		if containsFold(alias, term) {
			return alias
		}
	}
	return ""
}

// Selection is the result of picking an entry from the search results:
// the new value for the medication-name field, and dose/route values
// to copy over when the catalog carries them.
type Selection struct {
	Name  string
	Dose  string
	Route string
}

// Select applies a pick. In compound mode the last '+'-delimited
// segment of the current query is replaced by the chosen name and a
// trailing " + " invites the next component; dose and route are left
// alone. A plain pick overwrites the name outright and carries the
// entry's dose/route when present.
func (m *Matcher) Select(query string, entry model.CatalogEntry, compoundMode bool) Selection {
	if compoundMode {
		prefix := ""
		if idx := strings.LastIndex(query, compoundSeparator); idx >= 0 {
			prefix = query[:idx+len(compoundSeparator)] + " "
		}
		return Selection{Name: prefix + entry.Name + " " + compoundSeparator + " "}
	}
	return Selection{
		Name:  entry.Name,
		Dose:  entry.Dose,
		Route: entry.Route,
	}
}

// PriorityQuickPicks filters the bank down to priority drugs and
// orders them by the position of the first priority term their name
// contains. Order among same-rank entries follows the bank.
func (m *Matcher) PriorityQuickPicks(bank []model.CatalogEntry) []model.CatalogEntry {
	type ranked struct {
		entry model.CatalogEntry
		rank  int
	}

	var picks []ranked
	for _, entry := range bank {
		if !entry.Active {
			continue
		}
		if rank := priorityRank(entry.Name); rank < len(priorityDrugs) {
			picks = append(picks, ranked{entry: entry, rank: rank})
		}
	}

	// Insertion sort keeps ties in bank order.
	for i := 1; i < len(picks); i++ {
		for j := i; j > 0 && picks[j].rank < picks[j-1].rank; j-- {
			picks[j], picks[j-1] = picks[j-1], picks[j]
		}
	}

	out := make([]model.CatalogEntry, 0, len(picks))
	for _, p := range picks {
		out = append(out, p.entry)
		if len(out) == maxResults {
			break
		}
	}
	return out
}

func priorityRank(name string) int {
	for i, term := range priorityDrugs {
		if containsFold(name, term) {
			return i
		}
	}
	return len(priorityDrugs)
}

func aliasesFor(entryName string) []string {
	if aliases, ok := synonyms[entryName]; ok {
		return aliases
	}
	for key, aliases := range synonyms {
		if containsFold(entryName, key) {
			return aliases
		}
	}
	return nil
}

func anyAliasMatches(entryName, term string) bool {
	for _, alias := range aliasesFor(entryName) {
		if containsFold(alias, term) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
