package model

// Ref is the {id, value} pair the World Bank API uses for indicator and
// country references.
type Ref struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Observation is one World Bank API v2 data point. Date carries the
// four-character year string exactly as returned by the source.
type Observation struct {
	Indicator       Ref      `json:"indicator"`
	Country         Ref      `json:"country"`
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
	Unit            string   `json:"unit"`
	ObsStatus       string   `json:"obs_status"`
	Decimal         int      `json:"decimal"`
}

// IndicatorSet maps an indicator short name (trade_gdp_ratio, fdi_inflows,
// fdi_gdp_ratio, exports) to its filtered observation list.
type IndicatorSet map[string][]Observation

// CountrySeries is the per-country slice of the FDI/GDP output file.
// CountryCode holds the ISO3 alpha code and CountryName the two-letter code
// the API was queried with; downstream consumers rely on both fields as-is.
type CountrySeries struct {
	CountryCode string             `json:"country_code"`
	CountryName string             `json:"country_name"`
	Values      map[string]float64 `json:"values"`
}

// FDIGDPMetadata describes the indicator behind the FDI/GDP slice.
type FDIGDPMetadata struct {
	Source      string `json:"source"`
	Indicator   string `json:"indicator"`
	Description string `json:"description"`
}

// FDIGDPSlice is the standalone FDI-as-percent-of-GDP output file.
type FDIGDPSlice struct {
	Metadata FDIGDPMetadata           `json:"metadata"`
	Data     map[string]CountrySeries `json:"data"`
}

// CurrencyShares maps a currency code (or "Other") to its percentage share of
// global reserves. Shares are not required to sum to 100.
type CurrencyShares map[string]float64

// TradeBlocs holds trade-agreement membership plus illustrative trade shares.
// Member order inside each agreement is preserved; the share table covers the
// named blocs plus "Other".
type TradeBlocs struct {
	Agreements  map[string][]string `json:"agreements"`
	TradeShares map[string]int      `json:"trade_shares"`
	Updated     string              `json:"updated"`
}

// SupplyChainSeries tracks regional versus global supply-chain percentages
// per year. The three slices are index-aligned.
type SupplyChainSeries struct {
	Years    []int `json:"years"`
	Regional []int `json:"regional"`
	Global   []int `json:"global"`
}

// SanctionsSeries is the cumulative sanctions count time series. ByYear and
// Years are index-aligned; Total repeats the last ByYear entry.
type SanctionsSeries struct {
	Total  int   `json:"total"`
	ByYear []int `json:"by_year"`
	Years  []int `json:"years"`
}

// FragmentationMetrics is the fixed-shape metrics record consumed by the
// dashboard. Field names, value types and series lengths are an interchange
// contract and must stay stable.
type FragmentationMetrics struct {
	Timestamp                  string            `json:"timestamp"`
	FragmentationIndex         float64           `json:"fragmentation_index"`
	RegionalTradePercentage    int               `json:"regional_trade_percentage"`
	SupplyChainRegionalization SupplyChainSeries `json:"supply_chain_regionalization"`
	TechDecouplingScores       map[string]int    `json:"tech_decoupling_scores"`
	SanctionsCount             SanctionsSeries   `json:"sanctions_count"`
}

// UncertaintySet maps a FRED series ID to its raw decoded observations
// payload. Payloads are kept loose on purpose: the file republishes whatever
// the source returned.
type UncertaintySet map[string]map[string]any

// Metadata heads the master record.
type Metadata struct {
	LastUpdated string   `json:"last_updated"`
	Sources     []string `json:"sources"`
	Status      string   `json:"status"`
}

// MasterRecord is the primary aggregate written to fragmentation_data.json.
type MasterRecord struct {
	Metadata             Metadata             `json:"metadata"`
	TradeBlocs           TradeBlocs           `json:"trade_blocs"`
	CurrencyShares       CurrencyShares       `json:"currency_shares"`
	FragmentationMetrics FragmentationMetrics `json:"fragmentation_metrics"`
	WorldBankIndicators  IndicatorSet         `json:"world_bank_indicators"`
	EconomicUncertainty  UncertaintySet       `json:"economic_uncertainty"`
}
