package cashflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

// Limits are the soft thresholds behind validation warnings. Tenants
// override them in settings/general; zero values take the defaults.
type Limits struct {
	LargeMovementAmount float64
	RapidWindow         time.Duration
	RapidCount          int
	LowBalance          float64
}

func DefaultLimits() Limits {
	return Limits{
		LargeMovementAmount: 10000,
		RapidWindow:         10 * time.Minute,
		RapidCount:          5,
		LowBalance:          500,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.LargeMovementAmount <= 0 {
		l.LargeMovementAmount = d.LargeMovementAmount
	}
	if l.RapidWindow <= 0 {
		l.RapidWindow = d.RapidWindow
	}
	if l.RapidCount <= 0 {
		l.RapidCount = d.RapidCount
	}
	if l.LowBalance <= 0 {
		l.LowBalance = d.LowBalance
	}
	return l
}

// ValidationResult separates hard errors (the movement must not be
// recorded) from warnings the cashier can acknowledge.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateMovement checks a proposed movement against the ledger rules.
// Pure function: balance is the tenant's current balance, today the
// movements already recorded today. Callers persist only valid movements.
func ValidateMovement(m *domain.CashMovement, balance float64, today []domain.CashMovement, limits Limits) ValidationResult {
	limits = limits.withDefaults()
	result := ValidationResult{}

	if m.Type != domain.MovementIn && m.Type != domain.MovementOut {
		result.Errors = append(result.Errors, fmt.Sprintf("type must be %q or %q", domain.MovementIn, domain.MovementOut))
	}
	if m.Amount <= 0 {
		result.Errors = append(result.Errors, "amount must be greater than zero")
	}
	if m.Type == domain.MovementOut && m.Amount > balance {
		result.Errors = append(result.Errors, fmt.Sprintf("insufficient balance: %.2f available, %.2f requested", balance, m.Amount))
	}
	if len(strings.TrimSpace(m.Reason)) < 3 {
		result.Errors = append(result.Errors, "reason must be at least 3 characters")
	}

	reference := strings.TrimSpace(m.Reference)
	if len(reference) < 3 {
		result.Errors = append(result.Errors, "reference must be at least 3 characters")
	} else {
		for i := range today {
			if strings.TrimSpace(today[i].Reference) == reference {
				result.Errors = append(result.Errors, fmt.Sprintf("reference %q already used today", reference))
				break
			}
		}
	}

	if m.Amount >= limits.LargeMovementAmount {
		result.Warnings = append(result.Warnings, fmt.Sprintf("large movement: %.2f is at or above the %.2f threshold", m.Amount, limits.LargeMovementAmount))
	}

	recent := 0
	cutoff := time.Now().Add(-limits.RapidWindow)
	for i := range today {
		if today[i].CreatedAt.Valid && today[i].CreatedAt.Time.After(cutoff) {
			recent++
		}
	}
	if recent >= limits.RapidCount {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d movements recorded in the last %s", recent, limits.RapidWindow))
	}

	if m.Type == domain.MovementOut && m.Amount <= balance && balance-m.Amount < limits.LowBalance {
		result.Warnings = append(result.Warnings, fmt.Sprintf("balance after movement drops to %.2f, below the %.2f low-water mark", balance-m.Amount, limits.LowBalance))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// BalanceOf folds a movement list into a balance starting from the
// tenant's configured initial amount.
func BalanceOf(initial float64, movements []domain.CashMovement) float64 {
	balance := initial
	for i := range movements {
		switch movements[i].Type {
		case domain.MovementIn:
			balance += movements[i].Amount
		case domain.MovementOut:
			balance -= movements[i].Amount
		}
	}
	return balance
}
