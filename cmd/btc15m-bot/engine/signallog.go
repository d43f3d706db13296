package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

// SignalLog appends one CSV row per tick so the signal history is easy to
// eyeball in a spreadsheet and survives database resets.
type SignalLog struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

var signalHeader = []string{
	"timestamp", "market", "price", "price_to_beat", "regime", "remaining_min",
	"signal", "recommendation", "phase", "strength", "edge_up", "edge_down",
	"model_up", "agreement", "reason",
}

// recommendation rebuilds the display string from the snapshot's decision
// fields, e.g. "STRONG ENTRY (EARLY)" or "NO TRADE (low_agreement)".
func recommendation(snap *storage.Snapshot) string {
	if snap.Signal == "NO TRADE" {
		return fmt.Sprintf("NO TRADE (%s)", snap.Reason)
	}
	return fmt.Sprintf("%s ENTRY (%s)", snap.Strength, snap.Phase)
}

// OpenSignalLog opens or creates the CSV file at path, writing the header
// row for a fresh file.
func OpenSignalLog(path string) (*SignalLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create signal log dir: %w", err)
		}
	}

	info, err := os.Stat(path)
	fresh := errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open signal log: %w", err)
	}

	sl := &SignalLog{f: f, w: csv.NewWriter(f)}
	if fresh {
		if err := sl.w.Write(signalHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write signal log header: %w", err)
		}
		sl.w.Flush()
		if err := sl.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write signal log header: %w", err)
		}
	}
	return sl, nil
}

// Append writes one snapshot row and flushes immediately so rows survive a
// crash.
func (sl *SignalLog) Append(snap *storage.Snapshot) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	row := []string{
		snap.Timestamp.UTC().Format(time.RFC3339),
		snap.MarketSlug,
		strconv.FormatFloat(snap.Price, 'f', 2, 64),
		strconv.FormatFloat(snap.PriceToBeat, 'f', 2, 64),
		snap.Regime,
		strconv.FormatFloat(snap.RemainingMinutes, 'f', 1, 64),
		snap.Signal,
		recommendation(snap),
		snap.Phase,
		snap.Strength,
		strconv.FormatFloat(snap.EdgeUp, 'f', 4, 64),
		strconv.FormatFloat(snap.EdgeDown, 'f', 4, 64),
		strconv.FormatFloat(snap.ModelUp, 'f', 4, 64),
		strconv.Itoa(snap.Agreement),
		snap.Reason,
	}
	if err := sl.w.Write(row); err != nil {
		return err
	}
	sl.w.Flush()
	return sl.w.Error()
}

// Close flushes and closes the underlying file.
func (sl *SignalLog) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.w.Flush()
	return sl.f.Close()
}
