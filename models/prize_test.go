// models/prize_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPrize() Prize {
	return Prize{
		Name:            "Best Fix",
		CashValue:       100,
		WinningProjects: 3,
		Description:     "Awarded to the best accepted fix",
	}
}

func TestCatalogAddAssignsSequentialIDs(t *testing.T) {
	var cat PrizeCatalog

	first, err := cat.Add(validPrize())
	require.NoError(t, err)
	assert.Equal(t, 0, first.ID)

	second, err := cat.Add(validPrize())
	require.NoError(t, err)
	assert.Equal(t, 1, second.ID)
	assert.Len(t, cat.Prizes, 2)
}

func TestCatalogAddValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Prize)
	}{
		{"empty name", func(p *Prize) { p.Name = "" }},
		{"zero cash value", func(p *Prize) { p.CashValue = 0 }},
		{"negative cash value", func(p *Prize) { p.CashValue = -50 }},
		{"zero winners in fixed mode", func(p *Prize) { p.WinningProjects = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cat PrizeCatalog
			p := validPrize()
			tt.mutate(&p)

			_, err := cat.Add(p)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, cat.Prizes, "catalog must be unchanged after rejected add")
			assert.Equal(t, 0, cat.NextID)
		})
	}
}

func TestCatalogAllValidSubmissionsForcesOneWinner(t *testing.T) {
	var cat PrizeCatalog
	p := validPrize()
	p.EveryValidSubmissions = true
	p.WinningProjects = 7 // stale form value, must be overridden

	added, err := cat.Add(p)
	require.NoError(t, err)
	assert.True(t, added.EveryValidSubmissions)
	assert.Equal(t, 1, added.WinningProjects)

	// Zero winners is also fine in this mode; the count is not in play.
	p = validPrize()
	p.EveryValidSubmissions = true
	p.WinningProjects = 0
	added, err = cat.Add(p)
	require.NoError(t, err)
	assert.Equal(t, 1, added.WinningProjects)
}

func TestCatalogRemoveDoesNotReuseIDs(t *testing.T) {
	var cat PrizeCatalog

	first, err := cat.Add(validPrize())
	require.NoError(t, err)
	assert.Equal(t, 0, first.ID)
	require.Len(t, cat.Prizes, 1)

	require.NoError(t, cat.Remove(first.ID))
	assert.Empty(t, cat.Prizes)

	next, err := cat.Add(validPrize())
	require.NoError(t, err)
	assert.Equal(t, 1, next.ID, "ids continue after removal, never reused")
}

func TestCatalogRemoveUnknownPrize(t *testing.T) {
	var cat PrizeCatalog
	err := cat.Remove(3)
	assert.ErrorIs(t, err, ErrPrizeNotFound)
}

func TestCatalogEditReplacesInPlace(t *testing.T) {
	var cat PrizeCatalog
	_, err := cat.Add(validPrize())
	require.NoError(t, err)
	second, err := cat.Add(validPrize())
	require.NoError(t, err)

	replacement := validPrize()
	replacement.Name = "Runner Up"
	replacement.CashValue = 40

	edited, err := cat.Edit(second.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, second.ID, edited.ID, "id is preserved across edit")
	assert.Equal(t, "Runner Up", cat.Prizes[1].Name)
	assert.Equal(t, float64(40), cat.Prizes[1].CashValue)

	bad := validPrize()
	bad.CashValue = 0
	_, err = cat.Edit(second.ID, bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Runner Up", cat.Prizes[1].Name, "rejected edit leaves the prize unchanged")
}

func TestPrizeViewTruncation(t *testing.T) {
	p := Prize{
		Name:            "Grand Champion Prize",
		CashValue:       500,
		WinningProjects: 1,
		Description:     "This description is definitely longer than fifty-five characters in total.",
	}

	view := p.View()
	assert.Equal(t, "Grand Ch", view.Name)
	assert.Len(t, []rune(view.Description), 55)
	assert.Equal(t, "Grand Champion Prize", p.Name, "full values are retained on the record")
}

func TestCatalogPayloadFieldNames(t *testing.T) {
	var cat PrizeCatalog
	p := validPrize()
	p.PaidInCrypto = true
	_, err := cat.Add(p)
	require.NoError(t, err)

	payload, err := cat.Payload()
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded, 1)

	for _, key := range []string{
		"id",
		"prize_name",
		"cash_value",
		"number_of_winning_projects",
		"every_valid_submissions",
		"prize_description",
		"paid_in_cryptocurrency",
	} {
		assert.Contains(t, decoded[0], key)
	}
}

func TestEmptyCatalogPayload(t *testing.T) {
	var cat PrizeCatalog
	payload, err := cat.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(payload))
}
