// Package syncer drives the periodic reconciliation between the vendor
// catalog and the spreadsheet work queue: snapshot the catalog, append
// the audit rows, then price every flagged queue row in batches.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sosanhsach/pricesync/internal/logger"
	"github.com/sosanhsach/pricesync/internal/queue"
	"github.com/sosanhsach/pricesync/internal/retrypolicy"
)

const (
	// checkColumnIndex is the 1-based work-queue column scanned for run
	// flags.
	checkColumnIndex = 2

	// statusSuccess is the operator-facing success message.
	statusSuccess = "Cập nhật thành công"
)

var defaultChunkRetry = retrypolicy.Policy{MaxRetries: 5, Interval: 10 * time.Second}

// Settings holds the per-deployment parameters of one orchestrator.
type Settings struct {
	// SheetID and SheetName locate the work queue.
	SheetID   string
	SheetName string

	// DataSheetName is the audit sheet; audit rows start at
	// DataStartIndex.
	DataSheetName  string
	DataStartIndex int

	// RelaxCell is the work-queue cell holding the inter-cycle delay
	// override, in seconds.
	RelaxCell string

	// BatchSize rows are processed per chunk, with BatchDelay between
	// chunks.
	BatchSize  int
	BatchDelay time.Duration

	// CycleDelay is the fallback inter-cycle delay when the relax cell
	// is blank or unparsable.
	CycleDelay time.Duration
}

// Orchestrator runs one full sync cycle at a time.
type Orchestrator struct {
	model    *queue.Model
	catalog  CatalogSource
	settings Settings

	chunkRetry retrypolicy.Policy
	now        func() time.Time
	sleep      func(time.Duration)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChunkRetry overrides the retry policy applied around each chunk.
func WithChunkRetry(p retrypolicy.Policy) Option {
	return func(o *Orchestrator) {
		o.chunkRetry = p
	}
}

// WithClock injects the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithSleep injects the sleep function used for inter-batch pacing.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// NewOrchestrator creates an orchestrator over the given work-queue model
// and catalog source.
func NewOrchestrator(model *queue.Model, catalog CatalogSource, settings Settings, opts ...Option) *Orchestrator {
	if settings.DataStartIndex < 1 {
		settings.DataStartIndex = 3
	}
	if settings.BatchSize < 1 {
		settings.BatchSize = 10
	}
	if settings.CycleDelay <= 0 {
		settings.CycleDelay = 10 * time.Second
	}

	o := &Orchestrator{
		model:      model,
		catalog:    catalog,
		settings:   settings,
		chunkRetry: defaultChunkRetry,
		now:        time.Now,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunCycle executes one sync cycle: fetch the catalog snapshot, append
// the audit rows, then price every flagged queue row chunk by chunk.
// It returns the delay to observe before the next cycle, read from the
// operator relax cell.
func (o *Orchestrator) RunCycle(ctx context.Context) (time.Duration, error) {
	started := o.now()

	catalog, err := BuildCatalog(ctx, o.catalog)
	if err != nil {
		return 0, fmt.Errorf("failed to build catalog snapshot: %w", err)
	}

	if err := o.appendAudit(ctx, catalog); err != nil {
		return 0, fmt.Errorf("failed to append audit rows: %w", err)
	}

	indexes, err := o.model.RunIndexes(ctx, o.settings.SheetID, o.settings.SheetName, checkColumnIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to discover run rows: %w", err)
	}
	logger.Infof("Found %d flagged rows in %s", len(indexes), o.settings.SheetName)

	chunks := SplitChunks(indexes, o.settings.BatchSize)
	for i, chunk := range chunks {
		err := o.chunkRetry.Do(ctx, "ProcessChunk", func() error {
			return o.processChunk(ctx, catalog, chunk)
		})
		if err != nil {
			return 0, fmt.Errorf("failed to process chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 && o.settings.BatchDelay > 0 {
			o.sleep(o.settings.BatchDelay)
		}
	}

	logger.Infof("Sync cycle finished in %s (%d rows)", o.now().Sub(started), len(indexes))
	return o.readRelaxDelay(ctx), nil
}

// appendAudit writes one audit row per (skuGroup, denomination) pair in
// the snapshot, groups in the vendor's listing order and denominations
// sorted within each group, starting at the configured data start index.
func (o *Orchestrator) appendAudit(ctx context.Context, catalog Catalog) error {
	updatedAt := queue.FormatTimestamp(o.now())
	var rows []queue.AuditRow
	for _, group := range catalog.Groups {
		entry := catalog.Entries[group]

		keys := make([]string, 0, len(entry.Denominations))
		for key := range entry.Denominations {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			rows = append(rows, queue.AuditRow{
				Index:           o.settings.DataStartIndex + len(rows),
				Sequence:        len(rows) + 1,
				SkuGroup:        group,
				DenominationKey: key,
				Price:           entry.Denominations[key].String(),
				UpdatedAt:       updatedAt,
			})
		}
	}

	if err := o.model.AppendAuditRows(ctx, o.settings.SheetID, o.settings.DataSheetName, rows); err != nil {
		return err
	}
	logger.Infof("Appended %d audit rows to %s", len(rows), o.settings.DataSheetName)
	return nil
}

// processChunk prices one chunk of flagged rows: fetch the directives,
// join them against the catalog, write the static columns back, then
// write resolved free-form price cells.
func (o *Orchestrator) processChunk(ctx context.Context, catalog Catalog, indexes []int) error {
	rows, err := o.model.BatchGet(ctx, o.settings.SheetID, o.settings.SheetName, indexes)
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		ts := queue.FormatTimestamp(o.now())

		price, ok := catalog.Lookup(row.SkuGroup, row.DenominationKey)
		if !ok {
			row.Price = ""
			row.Status = fmt.Sprintf("%s GAME_NAME: %s hoặc DENOMINATION: %s không hợp lệ",
				ts, row.SkuGroup, row.DenominationKey)
			continue
		}

		entry := catalog.Entries[row.SkuGroup]
		row.Price = price.String()
		row.GameNote = entry.Notes
		row.Currency = entry.Currency
		row.Status = fmt.Sprintf("%s %s", ts, statusSuccess)
	}

	if err := o.model.BatchUpdate(ctx, o.settings.SheetID, o.settings.SheetName, rows); err != nil {
		return err
	}

	return o.writeFreeForm(ctx, rows)
}

// writeFreeForm mirrors rows that carry the run marker and full routing
// fields into their dynamically resolved cells on the target sheets. The
// computed price is written verbatim: rows whose catalog join failed
// carry an empty price, which clears any stale value in the target cell.
func (o *Orchestrator) writeFreeForm(ctx context.Context, rows []queue.Directive) error {
	var eligible []queue.Directive
	for _, row := range rows {
		if row.FillInFlag != queue.FlagRun || !row.HasRouting() {
			continue
		}
		eligible = append(eligible, row)
	}
	if len(eligible) == 0 {
		return nil
	}

	resolved, unresolved, err := o.model.ResolveNoteCells(ctx, eligible)
	if err != nil {
		return err
	}
	if len(unresolved) > 0 {
		logger.Warnf("No lookup-code match for rows %v, skipping their free-form writes", unresolved)
	}

	// Group resolved writes per target sheet, in first-seen order.
	type target struct {
		sheetID   string
		sheetName string
	}
	var order []target
	updates := map[target][]queue.CellUpdate{}
	for _, row := range eligible {
		cell, ok := resolved[row.Index]
		if !ok {
			continue
		}
		key := target{sheetID: cell.SheetID, sheetName: cell.SheetName}
		if _, seen := updates[key]; !seen {
			order = append(order, key)
		}
		updates[key] = append(updates[key], queue.CellUpdate{
			Cell:  cell.Cell,
			Value: row.Price,
		})
	}

	for _, key := range order {
		if err := o.model.FreeStyleBatchUpdate(ctx, key.sheetID, key.sheetName, updates[key]); err != nil {
			return err
		}
	}
	return nil
}

// readRelaxDelay reads the operator relax cell and interprets it as a
// delay in seconds. A blank or unparsable cell falls back to the
// configured cycle delay.
func (o *Orchestrator) readRelaxDelay(ctx context.Context) time.Duration {
	value, err := o.model.CellValue(ctx, o.settings.SheetID, o.settings.SheetName, o.settings.RelaxCell)
	if err != nil {
		logger.Warnf("Failed to read relax cell %s: %v", o.settings.RelaxCell, err)
		return o.settings.CycleDelay
	}
	if value == nil {
		return o.settings.CycleDelay
	}

	text := strings.TrimSpace(fmt.Sprint(value))
	if text == "" {
		return o.settings.CycleDelay
	}
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil || seconds < 0 {
		logger.Warnf("Relax cell %s holds %q, using default delay", o.settings.RelaxCell, text)
		return o.settings.CycleDelay
	}
	return time.Duration(seconds * float64(time.Second))
}
