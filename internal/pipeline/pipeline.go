// Package pipeline runs one collection pass: fetch every source, merge the
// results into the master record, and write the output files. A failing
// source degrades to its documented fallback and never aborts the run, so
// downstream consumers always find a complete set of files.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"geofrag/internal/blocs"
	"geofrag/internal/metrics"
	"geofrag/internal/model"
	"geofrag/internal/sources"
	"geofrag/internal/sources/fred"
	"geofrag/internal/sources/imf"
	"geofrag/internal/sources/worldbank"
	"geofrag/internal/store"
)

const (
	MasterFile     = "fragmentation_data.json"
	TradeBlocsFile = "trade_blocs.json"
	MetricsFile    = "metrics.json"
	FDIGDPFile     = "fdi_gdp_data.json"

	DefaultIndexPath = "index.html"

	StatusSuccess = "success"
	StatusPartial = "partial"
)

var masterSources = []string{"World Bank", "IMF", "FRED", "Calculated"}

type WorldBankSource interface {
	Fetch(ctx context.Context) (*worldbank.Bundle, error)
}

type IMFSource interface {
	Fetch(ctx context.Context) (model.CurrencyShares, error)
}

type FREDSource interface {
	Fetch(ctx context.Context) (model.UncertaintySet, error)
}

var (
	_ WorldBankSource = (*worldbank.Client)(nil)
	_ IMFSource       = (*imf.Client)(nil)
	_ FREDSource      = (*fred.Client)(nil)
)

// Pipeline wires the three remote sources, the static bloc table and the
// run archive together. Zero-value optional fields get safe defaults: a
// discarding logger, the wall clock, a NopStore.
type Pipeline struct {
	WorldBank WorldBankSource
	IMF       IMFSource
	FRED      FREDSource

	Store     store.Store
	OutDir    string
	IndexPath string
	Log       *logrus.Logger
	Now       func() time.Time
}

// Result summarizes one run for the caller and the archive.
type Result struct {
	RunID    string
	Status   string
	Outcomes []sources.Outcome
	Master   *model.MasterRecord
}

// Run executes one collection pass. Source failures degrade to fallbacks
// and are reported through the outcomes; only output-write failures are
// returned as errors.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.Log == nil {
		p.Log = logrus.New()
		p.Log.SetOutput(io.Discard)
	}

	now := p.now()
	runID := uuid.NewString()
	log := p.Log.WithField("run_id", runID)
	log.Info("collection run starting")

	bundle, wbOutcome := p.fetchWorldBank(ctx)
	shares, imfOutcome := p.fetchIMF(ctx)
	uncertainty, fredOutcome := p.fetchFRED(ctx)
	table := blocs.Compile(now)

	outcomes := []sources.Outcome{wbOutcome, imfOutcome, fredOutcome}
	status := StatusSuccess
	if sources.AnyFailed(outcomes) {
		status = StatusPartial
	}

	fragMetrics := metrics.Calculate(now, bundle.Indicators, table)
	master := &model.MasterRecord{
		Metadata: model.Metadata{
			LastUpdated: now.Format(time.RFC3339),
			Sources:     masterSources,
			Status:      status,
		},
		TradeBlocs:           table,
		CurrencyShares:       shares,
		FragmentationMetrics: fragMetrics,
		WorldBankIndicators:  bundle.Indicators,
		EconomicUncertainty:  uncertainty,
	}

	if err := p.writeOutputs(master, table, fragMetrics, bundle.FDIGDP); err != nil {
		return nil, err
	}

	record := store.RunRecord{
		ID:         runID,
		StartedAt:  now,
		FinishedAt: p.now(),
		Status:     status,
		Outcomes:   outcomes,
	}
	if err := p.archive().SaveRun(ctx, record); err != nil {
		// The outputs are already on disk; a broken archive only loses history.
		log.WithError(err).Warn("run archive write failed")
	}

	log.WithFields(logrus.Fields{"status": status, "out": p.OutDir}).Info("collection run complete")
	return &Result{
		RunID:    runID,
		Status:   status,
		Outcomes: outcomes,
		Master:   master,
	}, nil
}

func (p *Pipeline) fetchWorldBank(ctx context.Context) (*worldbank.Bundle, sources.Outcome) {
	outcome := sources.Outcome{Source: "worldbank", Status: sources.StatusOK}
	if p.WorldBank == nil {
		outcome.Status = sources.StatusSkipped
		outcome.Reason = "no client configured"
		return emptyBundle(), outcome
	}

	bundle, err := p.WorldBank.Fetch(ctx)
	if err != nil {
		p.Log.WithError(err).Warn("world bank fetch degraded, keeping empty indicators")
		outcome.Status = sources.StatusFailed
		outcome.Reason = err.Error()
		return emptyBundle(), outcome
	}
	return bundle, outcome
}

func (p *Pipeline) fetchIMF(ctx context.Context) (model.CurrencyShares, sources.Outcome) {
	outcome := sources.Outcome{Source: "imf", Status: sources.StatusOK}
	if p.IMF == nil {
		outcome.Status = sources.StatusSkipped
		outcome.Reason = "no client configured"
		return imf.FallbackShares(), outcome
	}

	shares, err := p.IMF.Fetch(ctx)
	if err != nil {
		p.Log.WithError(err).Warn("imf fetch degraded, using published share table")
		outcome.Status = sources.StatusFailed
		outcome.Reason = err.Error()
		return imf.FallbackShares(), outcome
	}
	return shares, outcome
}

func (p *Pipeline) fetchFRED(ctx context.Context) (model.UncertaintySet, sources.Outcome) {
	outcome := sources.Outcome{Source: "fred", Status: sources.StatusOK}
	if p.FRED == nil {
		outcome.Status = sources.StatusSkipped
		outcome.Reason = "no client configured"
		return model.UncertaintySet{}, outcome
	}

	set, err := p.FRED.Fetch(ctx)
	if err != nil {
		if errors.Is(err, fred.ErrMissingAPIKey) {
			p.Log.Info("fred api key not set, skipping uncertainty series")
			outcome.Status = sources.StatusSkipped
		} else {
			p.Log.WithError(err).Warn("fred fetch degraded, keeping empty uncertainty set")
			outcome.Status = sources.StatusFailed
		}
		outcome.Reason = err.Error()
		return model.UncertaintySet{}, outcome
	}
	return set, outcome
}

func (p *Pipeline) writeOutputs(master *model.MasterRecord, table model.TradeBlocs, fragMetrics model.FragmentationMetrics, fdi model.FDIGDPSlice) error {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return fmt.Errorf("pipeline: create output dir: %w", err)
	}

	files := []struct {
		name  string
		value any
	}{
		{MasterFile, master},
		{TradeBlocsFile, table},
		{MetricsFile, fragMetrics},
		{FDIGDPFile, fdi},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(p.OutDir, f.name), f.value); err != nil {
			return fmt.Errorf("pipeline: write %s: %w", f.name, err)
		}
	}

	indexPath := p.IndexPath
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	if err := os.WriteFile(indexPath, []byte(indexHTML), 0o644); err != nil {
		return fmt.Errorf("pipeline: write index page: %w", err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Geoeconomic Fragmentation Dashboard</title>
    <meta http-equiv="refresh" content="0; url=dashboard.html">
</head>
<body>
    <p>Loading dashboard...</p>
</body>
</html>`

func emptyBundle() *worldbank.Bundle {
	return &worldbank.Bundle{
		Indicators: model.IndicatorSet{},
		FDIGDP:     worldbank.EmptyFDIGDP(),
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *Pipeline) archive() store.Store {
	if p.Store != nil {
		return p.Store
	}
	return &store.NopStore{}
}
