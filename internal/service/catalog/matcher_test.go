package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medboard/bedside-api/internal/model"
)

func testEntries() []model.CatalogEntry {
	return []model.CatalogEntry{
		{Name: "Paracetamolum", Dose: "1g", Route: "IV", Active: true},
		{Name: "Natrium chloratum 0.9%", Dose: "500ml", Route: "IV", Active: true},
		{Name: "Solutio Ringeri", Dose: "500ml", Route: "IV", Active: true},
		{Name: "Morphini sulfas", Dose: "5mg", Route: "IV", Active: true},
		{Name: "Adrenalinum", Dose: "1mg", Route: "IV", Active: true},
		{Name: "Glucosum 5%", Dose: "500ml", Route: "IV", Active: true},
		{Name: "Ketoprofenum", Dose: "100mg", Route: "IV", Active: false},
	}
}

func TestSearch_MatchesByNamePrefix(t *testing.T) {
	m := NewMatcher(testEntries())

	results := m.Search("pa", false)
	require.Len(t, results, 1)
	assert.Equal(t, "Paracetamolum", results[0].Name)
}

func TestSearch_TermTooShort(t *testing.T) {
	m := NewMatcher(testEntries())

	assert.Empty(t, m.Search("p", false))
	assert.Empty(t, m.Search("", false))
	assert.Empty(t, m.Search("  p  ", false))
}

func TestSearch_TermLengthCountsRunesNotBytes(t *testing.T) {
	m := NewMatcher([]model.CatalogEntry{
		{Name: "Płyn wieloelektrolitowy", Dose: "500ml", Route: "IV", Active: true},
	})

	// "ł" is two bytes but one character, still below the minimum.
	assert.Empty(t, m.Search("ł", false))

	results := m.Search("pł", false)
	require.Len(t, results, 1)
	assert.Equal(t, "Płyn wieloelektrolitowy", results[0].Name)
}

func TestSearch_CompoundModeUsesLastSegment(t *testing.T) {
	m := NewMatcher(testEntries())

	// Only "Na" after the last '+' is searched; "Ring" is ignored.
	// Both "Natrium" and "Adrenalinum" contain "na", in catalog order.
	results := m.Search("Ring + Na", true)
	require.Len(t, results, 2)
	assert.Equal(t, "Natrium chloratum 0.9%", results[0].Name)
	assert.Equal(t, "Adrenalinum", results[1].Name)

	// Without compound mode the whole string is the term.
	assert.Empty(t, m.Search("Ring + Na", false))
}

func TestSearch_MatchesBySynonym(t *testing.T) {
	m := NewMatcher(testEntries())

	results := m.Search("saline", false)
	require.Len(t, results, 1)
	assert.Equal(t, "Natrium chloratum 0.9%", results[0].Name)

	results = m.Search("morphine", false)
	require.Len(t, results, 1)
	assert.Equal(t, "Morphini sulfas", results[0].Name)
}

func TestSearch_SkipsInactiveEntries(t *testing.T) {
	m := NewMatcher(testEntries())

	assert.Empty(t, m.Search("ketoprofen", false))
}

func TestSearch_CapsResults(t *testing.T) {
	entries := make([]model.CatalogEntry, 0, 30)
	for i := 0; i < 30; i++ {
		entries = append(entries, model.CatalogEntry{
			Name:   fmt.Sprintf("Testamolum %d", i+1),
			Active: true,
		})
	}
	m := NewMatcher(entries)

	results := m.Search("testamol", false)
	require.Len(t, results, maxResults)
	// Catalog order is preserved up to the cap.
	assert.Equal(t, "Testamolum 1", results[0].Name)
	assert.Equal(t, "Testamolum 20", results[19].Name)
}

func TestResolveSynonymMatch(t *testing.T) {
	m := NewMatcher(testEntries())

	// Name matched directly, no annotation.
	assert.Equal(t, "", m.ResolveSynonymMatch("Paracetamolum", "para", false))

	// Matched through an alias.
	assert.Equal(t, "acetaminophen", m.ResolveSynonymMatch("Paracetamolum", "acetamino", false))
	assert.Equal(t, "saline", m.ResolveSynonymMatch("Natrium chloratum 0.9%", "salin", false))

	// No match at all.
	assert.Equal(t, "", m.ResolveSynonymMatch("Paracetamolum", "furosemid", false))
}

func TestSelect_PlainOverwritesNameDoseRoute(t *testing.T) {
	m := NewMatcher(testEntries())

	sel := m.Select("para", testEntries()[0], false)
	assert.Equal(t, Selection{Name: "Paracetamolum", Dose: "1g", Route: "IV"}, sel)
}

func TestSelect_CompoundReplacesLastSegment(t *testing.T) {
	m := NewMatcher(testEntries())

	sel := m.Select("Solutio Ringeri + Na", testEntries()[1], true)
	assert.Equal(t, "Solutio Ringeri + Natrium chloratum 0.9% + ", sel.Name)
	assert.Empty(t, sel.Dose)
	assert.Empty(t, sel.Route)

	// First component of a compound: no prefix yet.
	sel = m.Select("Ring", testEntries()[2], true)
	assert.Equal(t, "Solutio Ringeri + ", sel.Name)
}

func TestPriorityQuickPicks_OrderAndFiltering(t *testing.T) {
	m := NewMatcher(nil)

	bank := []model.CatalogEntry{
		{Name: "Glucosum 5%", Active: true},
		{Name: "Omeprazolum", Active: true}, // not a priority drug
		{Name: "Paracetamolum", Active: true},
		{Name: "Adrenalinum", Active: true},
		{Name: "Morphini sulfas", Active: false}, // inactive
	}

	picks := m.PriorityQuickPicks(bank)
	require.Len(t, picks, 3)
	assert.Equal(t, "Adrenalinum", picks[0].Name)
	assert.Equal(t, "Paracetamolum", picks[1].Name)
	assert.Equal(t, "Glucosum 5%", picks[2].Name)
}

func TestEffectiveTerm(t *testing.T) {
	assert.Equal(t, "Na", EffectiveTerm("Ring + Na", true))
	assert.Equal(t, "Ring + Na", EffectiveTerm("Ring + Na", false))
	assert.Equal(t, "c", EffectiveTerm("a + b + c", true))
	assert.Equal(t, "plain", EffectiveTerm("  plain  ", true))
}
