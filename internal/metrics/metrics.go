// Package metrics builds the fragmentation metrics record consumed by the
// dashboard. The record's shape is the interchange contract: field names,
// value types and series lengths must stay stable across runs.
package metrics

import (
	"time"

	"geofrag/internal/model"
)

// Calculate returns the fragmentation metrics stamped with the given time.
// The indicator series and bloc table are accepted for a future derivation;
// the figures themselves are published estimates until that methodology is
// settled, so empty inputs still yield the full record.
// TODO: derive fragmentation_index and the supply-chain split from the
// indicator series once the methodology is decided.
func Calculate(now time.Time, indicators model.IndicatorSet, table model.TradeBlocs) model.FragmentationMetrics {
	_ = indicators
	_ = table

	return model.FragmentationMetrics{
		Timestamp:               now.Format(time.RFC3339),
		FragmentationIndex:      0.673,
		RegionalTradePercentage: 61,
		SupplyChainRegionalization: model.SupplyChainSeries{
			Years:    []int{2019, 2020, 2021, 2022, 2023, 2024},
			Regional: []int{45, 48, 52, 55, 58, 61},
			Global:   []int{55, 52, 48, 45, 42, 39},
		},
		TechDecouplingScores: map[string]int{
			"semiconductors": 72,
			"telecom":        68,
			"ai":             61,
			"quantum":        83,
			"biotech":        45,
		},
		SanctionsCount: model.SanctionsSeries{
			Total:  3247,
			ByYear: []int{1250, 1680, 2340, 2890, 3247},
			Years:  []int{2020, 2021, 2022, 2023, 2024},
		},
	}
}
