package expirations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/JaimeStill/warden/pkg/storage"
)

// ReportKey returns the archive key of a run report:
// <prefix>/YYYY/MM/DD/<runID>.json, dated by the run start in UTC.
func ReportKey(prefix, runID string, started time.Time) string {
	started = started.UTC()
	return path.Join(
		prefix,
		started.Format("2006"),
		started.Format("01"),
		started.Format("02"),
		runID+".json",
	)
}

func archiveSummary(ctx context.Context, store storage.System, key string, s *Summary) error {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := store.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		return fmt.Errorf("upload report %s: %w", key, err)
	}
	return nil
}
