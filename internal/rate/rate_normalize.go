package rate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Snapshot is the canonical rate shape the rest of the engine sees. It is
// captured onto ledger entries at creation time so later rate-table edits
// never change historical pay.
type Snapshot struct {
	Type        string
	AmountCents int64
}

// legacyTypeAliases maps the field spellings found in historical rate rows
// onto the canonical rate types. Normalization happens only here; no other
// package ever inspects legacy shapes.
var legacyTypeAliases = map[string]string{
	"per_visit": TypePerVisit,
	"per-visit": TypePerVisit,
	"pervisit":  TypePerVisit,
	"visit":     TypePerVisit,
	"flat":      TypePerVisit,
	"hourly":    TypeHourly,
	"hour":      TypeHourly,
	"per_hour":  TypeHourly,
	"monthly":   TypeMonthly,
	"month":     TypeMonthly,
	"salary":    TypeMonthly,
	"salaried":  TypeMonthly,
}

// normalize collapses a stored rate row, canonical or legacy, into a
// Snapshot. ok is false when the row carries no usable type or amount.
func normalize(r *EmployeeRate) (Snapshot, bool) {
	if r == nil {
		return Snapshot{}, false
	}

	rateType := canonicalType(r.RateType)
	if rateType == "" && r.LegacyType != nil {
		rateType = canonicalType(*r.LegacyType)
	}
	if rateType == "" {
		return Snapshot{}, false
	}

	amount := r.AmountCents
	if amount == 0 && r.LegacyAmount != nil {
		// Legacy rows stored dollars as floats; convert to cents exactly.
		amount = decimal.NewFromFloat(*r.LegacyAmount).
			Mul(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}
	if amount <= 0 {
		return Snapshot{}, false
	}

	return Snapshot{Type: rateType, AmountCents: amount}, true
}

func canonicalType(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	return legacyTypeAliases[key]
}
