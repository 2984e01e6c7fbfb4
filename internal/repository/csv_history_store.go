package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	applogger "CostCast/pkg/logger"
	"CostCast/pkg/util"
)

var historyHeader = []string{"ds", "y"}

// CSVHistoryStore reads <dir>/<dataset>.csv files with a ds,y header.
// Parsed datasets are memoized; the files are not expected to change at runtime.
type CSVHistoryStore struct {
	dir string
	l   *applogger.Logger

	mu     sync.RWMutex
	loaded map[string]models.ForecastSeries
}

func NewCSVHistoryStore(dir string, l *applogger.Logger) *CSVHistoryStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CSVHistoryStore{dir: dir, l: l, loaded: make(map[string]models.ForecastSeries)}
}

func (s *CSVHistoryStore) Load(_ context.Context, dataset string) (models.ForecastSeries, error) {
	s.mu.RLock()
	series, ok := s.loaded[dataset]
	s.mu.RUnlock()
	if ok {
		return series, nil
	}

	if strings.ContainsAny(dataset, `/\`) || dataset == "" {
		return nil, fmt.Errorf("invalid dataset name %q", dataset)
	}
	path := filepath.Join(s.dir, dataset+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", dataset, err)
	}
	defer f.Close()

	series, err = ParseHistoryCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}

	s.mu.Lock()
	s.loaded[dataset] = series
	s.mu.Unlock()

	s.l.Debug("history dataset loaded",
		applogger.String("dataset", dataset),
		applogger.Int("rows", len(series)),
	)
	return series, nil
}

func (s *CSVHistoryStore) Close() error { return nil }

// ParseHistoryCSV reads a ds,y table into an ascending monthly series.
// Extra columns after y are ignored.
func ParseHistoryCSV(r io.Reader) (models.ForecastSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("history CSV is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !validateHeader(header, historyHeader) {
		return nil, fmt.Errorf("history CSV header mismatch. Expected: %v, Got: %v", historyHeader, header)
	}

	var out models.ForecastSeries
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(record) < len(historyHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row, len(historyHeader), len(record))
		}
		ds, ok := util.ParseTime(strings.TrimSpace(record[0]))
		if !ok {
			return nil, fmt.Errorf("row %d: invalid date %q", row, record[0])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid value %q: %w", row, record[1], err)
		}
		out = append(out, models.ForecastPoint{Date: util.MonthStart(ds), Value: y})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("history CSV has no data rows")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, fmt.Errorf("duplicate month %s", util.FormatYearMonth(out[i].Date))
		}
	}
	return out, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) < len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}

var _ domrepo.HistoryStore = (*CSVHistoryStore)(nil)
