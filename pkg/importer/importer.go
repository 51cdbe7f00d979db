// Package importer loads spreadsheet uploads into the entity collections.
// Bad rows are reported, never fatal; rows are inserted in independent
// batches so one failing batch does not undo the others.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/metrics"
	"github.com/propgraph/propgraph/pkg/store/gormstore"
)

type Collection string

const (
	MasterDevelopments Collection = "masterDevelopment"
	SubDevelopments    Collection = "subDevelopment"
	Projects           Collection = "project"
	Inventories        Collection = "inventory"
	Customers          Collection = "customer"
)

const (
	defaultBatchSize = 5000
	insertChunk      = 500
	lookupChunk      = 500
)

func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case MasterDevelopments, SubDevelopments, Projects, Inventories, Customers:
		return c, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

type Importer struct {
	db        *gorm.DB
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

func New(db *gorm.DB, cfg config.ImportConfig, logger *zap.Logger) *Importer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Importer{db: db, batchSize: batchSize, timeout: cfg.Timeout, logger: logger}
}

// ImportFile imports the upload at path and removes the file on every
// return path.
func (i *Importer) ImportFile(ctx context.Context, c Collection, path, userID string) (*Report, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			i.logger.Warn("Failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}()

	sheet, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, c, sheet, userID)
}

func (i *Importer) Import(ctx context.Context, c Collection, sheet *Sheet, userID string) (*Report, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	switch c {
	case MasterDevelopments:
		return run(ctx, i, masterDevelopmentImport, sheet, userID)
	case SubDevelopments:
		return run(ctx, i, subDevelopmentImport, sheet, userID)
	case Projects:
		return run(ctx, i, projectImport, sheet, userID)
	case Inventories:
		return run(ctx, i, inventoryImport, sheet, userID)
	case Customers:
		return run(ctx, i, customerImport, sheet, userID)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

// variant describes how one collection is imported.
type variant[T any] struct {
	collection Collection
	entity     string
	headers    *HeaderMap
	required   []string
	// strict rejects uploads carrying headers outside the map.
	strict   bool
	build    func(row Row, userID string, refs *refs) (*T, error)
	key      func(item *T) string
	existing func(ctx context.Context, db *gorm.DB, items []*T) (map[string]bool, error)
	// parents lists the lookups build needs.
	parents []parentKind
}

type candidate[T any] struct {
	row  int
	key  string
	item *T
}

func run[T any](ctx context.Context, i *Importer, v *variant[T], sheet *Sheet, userID string) (*Report, error) {
	start := time.Now()

	if v.strict {
		if err := checkHeaders(sheet.Headers, v.headers, v.required); err != nil {
			return nil, err
		}
	}

	var rows []Row
	for idx, cells := range sheet.Rows {
		if row, ok := newRow(idx+1, cells, sheet.Headers, v.headers); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", errs.ErrInvalidFormat)
	}

	refs, err := loadRefs(ctx, i.db, v.parents)
	if err != nil {
		return nil, err
	}

	report := newReport()
	report.TotalEntries = len(rows)

	seen := make(map[string]int, len(rows))
	candidates := make([]candidate[T], 0, len(rows))
	for _, row := range rows {
		if missing := row.Missing(v.required); len(missing) > 0 {
			report.invalid(row.Number, "", "missing required field(s): "+strings.Join(missing, ", "))
			continue
		}
		item, err := v.build(row, userID, refs)
		if err != nil {
			report.invalid(row.Number, "", err.Error())
			continue
		}
		key := v.key(item)
		if first, ok := seen[key]; ok {
			report.duplicate(row.Number, key, fmt.Sprintf("duplicate of row %d in file", first))
			continue
		}
		seen[key] = row.Number
		candidates = append(candidates, candidate[T]{row: row.Number, key: key, item: item})
	}

	items := make([]*T, len(candidates))
	for idx, c := range candidates {
		items[idx] = c.item
	}
	stored, err := v.existing(ctx, i.db, items)
	if err != nil {
		return nil, fmt.Errorf("look up existing %s records: %w", v.entity, err)
	}

	survivors := make([]*T, 0, len(candidates))
	for _, c := range candidates {
		if stored[c.key] {
			report.duplicate(c.row, c.key, "already exists")
			continue
		}
		survivors = append(survivors, c.item)
	}

	repo := gormstore.NewRepository[T](i.db, v.entity)
	for lo := 0; lo < len(survivors); lo += i.batchSize {
		hi := lo + i.batchSize
		if hi > len(survivors) {
			hi = len(survivors)
		}
		err := repo.CreateBatch(ctx, survivors[lo:hi], insertChunk)
		if err != nil {
			i.logger.Warn("Import batch failed",
				zap.String("collection", string(v.collection)),
				zap.Int("start", lo),
				zap.Int("end", hi-1),
				zap.Error(err),
			)
		}
		report.batch(lo, hi, err)
	}
	report.Success = len(report.FailedBatches) == 0

	observe(v.collection, report, time.Since(start))
	i.logger.Info("Import finished",
		zap.String("collection", string(v.collection)),
		zap.String("user_id", userID),
		zap.Int("total", report.TotalEntries),
		zap.Int("inserted", report.InsertedEntries),
		zap.Int("invalid", report.SkippedInvalidEntries),
		zap.Int("duplicate", report.SkippedDuplicateEntries),
		zap.Int("failed", report.FailedEntries),
	)
	return report, nil
}

// checkHeaders rejects an upload whose header row holds unknown columns or
// lacks a required one.
func checkHeaders(headers []string, m *HeaderMap, required []string) error {
	present := make(map[string]bool)
	for _, h := range headers {
		if NormalizeHeader(h) == "" {
			continue
		}
		field, ok := m.Lookup(h)
		if !ok {
			return fmt.Errorf("%w: unexpected column %q", errs.ErrInvalidFormat, h)
		}
		present[field] = true
	}
	for _, field := range required {
		if !present[field] {
			return fmt.Errorf("%w: missing column for %s", errs.ErrInvalidFormat, field)
		}
	}
	return nil
}

func observe(c Collection, r *Report, elapsed time.Duration) {
	label := string(c)
	metrics.ImportRowsTotal.WithLabelValues(label, "inserted").Add(float64(r.InsertedEntries))
	metrics.ImportRowsTotal.WithLabelValues(label, "invalid").Add(float64(r.SkippedInvalidEntries))
	metrics.ImportRowsTotal.WithLabelValues(label, "duplicate").Add(float64(r.SkippedDuplicateEntries))
	metrics.ImportRowsTotal.WithLabelValues(label, "failed").Add(float64(r.FailedEntries))
	metrics.ImportDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func chunked[V any](values []V, size int, fn func([]V) error) error {
	for lo := 0; lo < len(values); lo += size {
		hi := lo + size
		if hi > len(values) {
			hi = len(values)
		}
		if err := fn(values[lo:hi]); err != nil {
			return err
		}
	}
	return nil
}
