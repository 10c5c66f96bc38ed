// Package blocs carries the static trade-bloc reference table: membership
// by agreement and illustrative world-trade shares. The table is maintained
// by hand and revised when agreements change.
package blocs

import (
	"time"

	"geofrag/internal/model"
)

// Compile returns the reference table stamped with the given time. Callers
// get fresh maps they may mutate. Never fails.
func Compile(now time.Time) model.TradeBlocs {
	agreements := map[string][]string{
		"USMCA":    {"USA", "CAN", "MEX"},
		"EU":       {"DEU", "FRA", "ITA", "ESP", "NLD", "POL", "BEL", "GRC", "PRT", "CZE"},
		"RCEP":     {"CHN", "JPN", "KOR", "AUS", "NZL", "SGP", "MYS", "THA", "IDN", "PHL"},
		"ASEAN":    {"SGP", "MYS", "THA", "IDN", "PHL", "VNM", "MMR", "KHM", "LAO", "BRN"},
		"Mercosur": {"BRA", "ARG", "URY", "PRY"},
		"AfCFTA":   {"NGA", "EGY", "ZAF", "ETH", "KEN", "GHA", "TZA", "UGA"},
	}

	// Shares sum to 100 with the residual under Other.
	tradeShares := map[string]int{
		"USMCA":    24,
		"EU":       21,
		"RCEP":     28,
		"ASEAN":    12,
		"Mercosur": 5,
		"AfCFTA":   3,
		"Other":    7,
	}

	return model.TradeBlocs{
		Agreements:  agreements,
		TradeShares: tradeShares,
		Updated:     now.Format(time.RFC3339),
	}
}
