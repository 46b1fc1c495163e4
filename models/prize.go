// models/prize.go
package models

import (
	"encoding/json"
	"fmt"
)

// Prize is one reward unit in a hunt's catalog. The JSON keys are the
// publish payload contract and must stay stable — published hunts carry
// this serialization verbatim.
type Prize struct {
	ID                    int     `json:"id"`
	Name                  string  `json:"prize_name"`
	CashValue             float64 `json:"cash_value"`
	WinningProjects       int     `json:"number_of_winning_projects"`
	EveryValidSubmissions bool    `json:"every_valid_submissions"`
	Description           string  `json:"prize_description"`
	PaidInCrypto          bool    `json:"paid_in_cryptocurrency"`
}

// PrizeView is the catalog-entry listing shape: name and description are
// truncated for display, the stored Prize keeps the full values.
type PrizeView struct {
	ID           int     `json:"id"`
	Name         string  `json:"prize_name"`
	CashValue    float64 `json:"cash_value"`
	Winners      int     `json:"number_of_winning_projects"`
	AllValid     bool    `json:"every_valid_submissions"`
	Description  string  `json:"prize_description"`
	PaidInCrypto bool    `json:"paid_in_cryptocurrency"`
}

const (
	prizeNameViewLimit = 8
	prizeDescViewLimit = 55
)

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (p Prize) View() PrizeView {
	return PrizeView{
		ID:           p.ID,
		Name:         truncateRunes(p.Name, prizeNameViewLimit),
		CashValue:    p.CashValue,
		Winners:      p.WinningProjects,
		AllValid:     p.EveryValidSubmissions,
		Description:  truncateRunes(p.Description, prizeDescViewLimit),
		PaidInCrypto: p.PaidInCrypto,
	}
}

// ValidationError rejects a catalog mutation without touching the catalog.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validatePrize(p *Prize) error {
	if p.Name == "" {
		return &ValidationError{Field: "prize_name", Reason: "must not be empty"}
	}
	if p.CashValue <= 0 {
		return &ValidationError{Field: "cash_value", Reason: "must be greater than zero"}
	}
	if p.EveryValidSubmissions {
		// All-valid-submissions and a fixed winner count are mutually
		// exclusive; the winner count collapses to 1.
		p.WinningProjects = 1
		return nil
	}
	if p.WinningProjects <= 0 {
		return &ValidationError{Field: "number_of_winning_projects", Reason: "must be greater than zero"}
	}
	return nil
}

// PrizeCatalog is the ordered draft catalog held server-side on the hunt
// row until publish. Prize ids are monotonic and never reused after
// removal.
type PrizeCatalog struct {
	Prizes []Prize `json:"prizes"`
	NextID int     `json:"next_id"`
}

func (cat *PrizeCatalog) Add(p Prize) (Prize, error) {
	if err := validatePrize(&p); err != nil {
		return Prize{}, err
	}
	p.ID = cat.NextID
	cat.NextID++
	cat.Prizes = append(cat.Prizes, p)
	return p, nil
}

func (cat *PrizeCatalog) Edit(id int, p Prize) (Prize, error) {
	if err := validatePrize(&p); err != nil {
		return Prize{}, err
	}
	for i := range cat.Prizes {
		if cat.Prizes[i].ID == id {
			p.ID = id
			cat.Prizes[i] = p
			return p, nil
		}
	}
	return Prize{}, fmt.Errorf("prize %d: %w", id, ErrPrizeNotFound)
}

func (cat *PrizeCatalog) Remove(id int) error {
	for i := range cat.Prizes {
		if cat.Prizes[i].ID == id {
			cat.Prizes = append(cat.Prizes[:i], cat.Prizes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("prize %d: %w", id, ErrPrizeNotFound)
}

func (cat *PrizeCatalog) Views() []PrizeView {
	views := make([]PrizeView, 0, len(cat.Prizes))
	for _, p := range cat.Prizes {
		views = append(views, p.View())
	}
	return views
}

// Payload serializes the ordered catalog as the opaque publish payload.
func (cat *PrizeCatalog) Payload() ([]byte, error) {
	if cat.Prizes == nil {
		return json.Marshal([]Prize{})
	}
	return json.Marshal(cat.Prizes)
}
