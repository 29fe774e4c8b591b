// Package agent runs on the edge controller and keeps the local store in
// step with the cloud peer: pull what the cloud created, push what happened
// on site while offline.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"facegate/internal/model"
	"facegate/internal/service"
)

// Agent periodically exchanges snapshots with the cloud peer. Each direction
// keeps its own watermark in the sync_states table, so a crash between pull
// and push never loses or duplicates data; re-running a cycle is idempotent
// by the reconciler's own guarantees.
type Agent struct {
	db          *gorm.DB
	syncService *service.SyncService
	peerURL     string
	interval    time.Duration
	httpClient  *http.Client
}

// New creates a sync agent targeting peerURL.
func New(db *gorm.DB, syncService *service.SyncService, peerURL string, interval time.Duration) *Agent {
	return &Agent{
		db:          db,
		syncService: syncService,
		peerURL:     peerURL,
		interval:    interval,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Run loops until the context is cancelled. A failed cycle is logged and
// retried on the next tick; network partition is the normal case here, not
// an error worth escalating.
func (a *Agent) Run(ctx context.Context) {
	log.Printf("[Agent] Sync agent started, peer %s, interval %s", a.peerURL, a.interval)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// First cycle immediately; the controller may have been offline for days.
	if err := a.RunOnce(ctx); err != nil {
		log.Printf("[Agent] Sync cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Agent] Sync agent stopped")
			return
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				log.Printf("[Agent] Sync cycle failed: %v", err)
			}
		}
	}
}

// RunOnce performs one pull+push cycle.
func (a *Agent) RunOnce(ctx context.Context) error {
	if err := a.pull(ctx); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	if err := a.push(ctx); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// pull fetches the peer's snapshot since the last pull watermark and merges
// it into the local store.
func (a *Agent) pull(ctx context.Context) error {
	since := a.watermark(model.SyncStateLastPull)

	url := fmt.Sprintf("%s/sync/all?since=%s", a.peerURL, since.UTC().Format(time.RFC3339Nano))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("peer returned %d: %s", resp.StatusCode, body)
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	result, err := a.syncService.ImportSnapshot(&snap)
	if err != nil {
		return err
	}
	log.Printf("[Agent] Pull applied %d operators, %d logs, %d admins (%d errors)",
		result.OperatorsApplied, result.LogsApplied, result.AdminsApplied, len(result.Errors))

	return a.setWatermark(model.SyncStateLastPull, snap.GeneratedAt)
}

// push exports the local delta and posts it to the peer. Records are marked
// synced only after the peer acknowledged the batch.
func (a *Agent) push(ctx context.Context) error {
	since := a.watermark(model.SyncStateLastPush)

	snap, err := a.syncService.ExportSince(since)
	if err != nil {
		return err
	}
	if len(snap.Operators) == 0 && len(snap.Logs) == 0 && len(snap.Admins) == 0 {
		return a.setWatermark(model.SyncStateLastPush, snap.GeneratedAt)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.peerURL+"/sync/all", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("peer returned %d: %s", resp.StatusCode, body)
	}

	var result model.ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode import result: %w", err)
	}
	log.Printf("[Agent] Push delivered %d operators, %d logs, %d admins (%d errors)",
		result.OperatorsApplied, result.LogsApplied, result.AdminsApplied, len(result.Errors))

	// Items the peer could not apply stay unsynced so the next cycle resends
	// them.
	if err := a.syncService.MarkSynced(pruneRejected(snap, result.Errors)); err != nil {
		return err
	}
	return a.setWatermark(model.SyncStateLastPush, snap.GeneratedAt)
}

// pruneRejected drops the snapshot items the peer listed as failed, keyed the
// same way ImportSnapshot keys its error reports.
func pruneRejected(snap *model.Snapshot, errs []model.ImportError) *model.Snapshot {
	if len(errs) == 0 {
		return snap
	}

	rejectedOps := make(map[string]struct{})
	rejectedLogs := make(map[string]struct{})
	for _, e := range errs {
		switch e.Kind {
		case "operator":
			rejectedOps[e.Item] = struct{}{}
		case "log":
			rejectedLogs[e.Item] = struct{}{}
		}
	}

	kept := &model.Snapshot{
		Operators:   []model.OperatorSyncItem{},
		Logs:        []model.LoginLogSyncItem{},
		Admins:      snap.Admins,
		GeneratedAt: snap.GeneratedAt,
	}
	for _, op := range snap.Operators {
		if _, ok := rejectedOps[op.OperatorID]; !ok {
			kept.Operators = append(kept.Operators, op)
		}
	}
	for _, l := range snap.Logs {
		if _, ok := rejectedLogs[fmt.Sprintf("%s@%s", l.OperatorID, l.LoginTime)]; !ok {
			kept.Logs = append(kept.Logs, l)
		}
	}
	return kept
}

// watermark reads a stored watermark, falling back to the epoch floor so a
// fresh store pulls everything.
func (a *Agent) watermark(key string) time.Time {
	var state model.SyncState
	if err := a.db.Where("key = ?", key).First(&state).Error; err != nil {
		return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return service.ParseSince(state.Value)
}

func (a *Agent) setWatermark(key, value string) error {
	state := model.SyncState{Key: key, Value: value}
	return a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
}
