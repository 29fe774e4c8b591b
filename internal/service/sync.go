package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"facegate/internal/codec"
	"facegate/internal/model"
	"facegate/internal/storage"
)

// timeWire is the timestamp format written into snapshots. Nanosecond
// precision keeps the (operator_id, login_time) key exact across a round trip.
const timeWire = time.RFC3339Nano

// watermarkFloor is the fallback for an unparsable `since` parameter.
var watermarkFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// SyncService reconciles the local store with snapshots exchanged with the
// remote peer. 双向同步：导出本地增量，合并远端增量。
type SyncService struct {
	db     *gorm.DB
	assets *storage.AssetStore
}

// NewSyncService creates a new sync service.
func NewSyncService(db *gorm.DB, assets *storage.AssetStore) *SyncService {
	return &SyncService{db: db, assets: assets}
}

// ParseSince parses the `since` query parameter. Anything unparsable falls
// back to the 2000-01-01 floor so a confused peer gets a full snapshot rather
// than an error.
func ParseSince(s string) time.Time {
	if t, err := parseTimestamp(s); err == nil {
		return t
	}
	return watermarkFloor
}

// parseTimestamp accepts the ISO8601 variants peers are known to produce.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

func parseOptionalTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeWire)
	return &s
}

// ExportSince produces a self-contained snapshot of everything created after
// the watermark, plus records whose local mutations have not been pushed yet
// (soft deletes and field updates keep their original creation timestamp, so
// the synced flag is what gets them onto the wire). Face images are inlined
// so the snapshot needs no follow-up asset fetches.
func (s *SyncService) ExportSince(since time.Time) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		Operators:   []model.OperatorSyncItem{},
		Logs:        []model.LoginLogSyncItem{},
		Admins:      []model.AdminSyncItem{},
		GeneratedAt: time.Now().UTC().Format(timeWire),
	}

	var operators []model.Operator
	if err := s.db.Where("created_at > ? OR synced_to_cloud = ?", since, false).Find(&operators).Error; err != nil {
		return nil, fmt.Errorf("export operators: %w", err)
	}
	for i := range operators {
		snap.Operators = append(snap.Operators, s.exportOperator(&operators[i]))
	}

	var logs []model.LoginLog
	if err := s.db.Where("created_at > ? OR synced_to_cloud = ?", since, false).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}
	for i := range logs {
		l := &logs[i]
		snap.Logs = append(snap.Logs, model.LoginLogSyncItem{
			OperatorID: l.OperatorID,
			LoginTime:  l.LoginTime.Format(timeWire),
			LogoutTime: formatOptionalTimestamp(l.LogoutTime),
			Shift:      l.Shift,
			Date:       l.Date,
			Deleted:    l.Deleted,
			DeletedAt:  formatOptionalTimestamp(l.DeletedAt),
		})
	}

	var admins []model.Admin
	if err := s.db.Where("created_at > ?", since).Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("export admins: %w", err)
	}
	for _, a := range admins {
		snap.Admins = append(snap.Admins, model.AdminSyncItem{
			Username:       a.Username,
			HashedPassword: a.HashedPassword,
			CreatedAt:      a.CreatedAt.Format(timeWire),
		})
	}

	return snap, nil
}

func (s *SyncService) exportOperator(op *model.Operator) model.OperatorSyncItem {
	item := model.OperatorSyncItem{
		OperatorID:     op.OperatorID,
		Name:           op.Name,
		MachineNo:      op.MachineNo,
		Shift:          op.Shift,
		Status:         op.Status,
		CreatedAt:      op.CreatedAt.Format(timeWire),
		Deleted:        op.Deleted,
		DeletedAt:      formatOptionalTimestamp(op.DeletedAt),
		CloudUpdatedAt: formatOptionalTimestamp(op.CloudUpdatedAt),
	}
	if op.FaceImagePath != nil && *op.FaceImagePath != "" {
		data, err := s.assets.Load(*op.FaceImagePath)
		if err != nil {
			// The record still syncs; only the image is left behind.
			log.Printf("[Sync] Could not read face image for %s: %v", op.OperatorID, err)
		} else {
			encoded := codec.Encode(data)
			item.FaceImageB64 = &encoded
		}
	}
	return item
}

// ImportSnapshot merges a snapshot from the remote peer. Operators are
// applied before logs so edge-first create order never leaves a log waiting
// on its operator. Per-item failures are collected and reported; the batch
// commits as a single transaction so readers never observe a half-applied
// merge.
func (s *SyncService) ImportSnapshot(snap *model.Snapshot) (*model.ImportResult, error) {
	result := &model.ImportResult{Errors: []model.ImportError{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range snap.Operators {
			item := &snap.Operators[i]
			applied, err := s.importOperator(tx, item)
			if err != nil {
				result.Errors = append(result.Errors, model.ImportError{
					Kind: "operator", Item: item.OperatorID, Reason: err.Error(),
				})
				continue
			}
			if applied {
				result.OperatorsApplied++
			}
		}

		stored, err := s.loadLogKeys(tx)
		if err != nil {
			return err
		}
		for i := range snap.Logs {
			item := &snap.Logs[i]
			applied, err := s.importLog(tx, item, stored)
			if err != nil {
				result.Errors = append(result.Errors, model.ImportError{
					Kind: "log", Item: fmt.Sprintf("%s@%s", item.OperatorID, item.LoginTime), Reason: err.Error(),
				})
				continue
			}
			if applied {
				result.LogsApplied++
			}
		}

		for i := range snap.Admins {
			item := &snap.Admins[i]
			applied, err := s.importAdmin(tx, item)
			if err != nil {
				result.Errors = append(result.Errors, model.ImportError{
					Kind: "admin", Item: item.Username, Reason: err.Error(),
				})
				continue
			}
			if applied {
				result.AdminsApplied++
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}

	log.Printf("[Sync] Imported snapshot: %d operators, %d logs, %d admins, %d errors",
		result.OperatorsApplied, result.LogsApplied, result.AdminsApplied, len(result.Errors))
	return result, nil
}

// importOperator applies one incoming operator through the conflict resolver.
// Counted as applied on Create and Update; Skip leaves the local copy alone
// and is not a failure.
func (s *SyncService) importOperator(tx *gorm.DB, item *model.OperatorSyncItem) (bool, error) {
	if item.OperatorID == "" {
		return false, fmt.Errorf("missing operator_id")
	}
	createdAt, err := parseTimestamp(item.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("bad created_at: %v", err)
	}
	deletedAt, err := parseOptionalTimestamp(item.DeletedAt)
	if err != nil {
		return false, fmt.Errorf("bad deleted_at: %v", err)
	}
	cloudUpdatedAt, err := parseOptionalTimestamp(item.CloudUpdatedAt)
	if err != nil {
		return false, fmt.Errorf("bad cloud_updated_at: %v", err)
	}

	incoming := &model.Operator{
		OperatorID:     item.OperatorID,
		Name:           item.Name,
		MachineNo:      item.MachineNo,
		Shift:          item.Shift,
		Status:         item.Status,
		CreatedAt:      createdAt,
		Deleted:        item.Deleted,
		DeletedAt:      deletedAt,
		CloudUpdatedAt: cloudUpdatedAt,
	}

	var existing *model.Operator
	var found model.Operator
	if err := tx.Where("operator_id = ?", item.OperatorID).First(&found).Error; err == nil {
		existing = &found
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	decision := ResolveOperator(existing, incoming)
	if decision == DecisionSkip {
		return false, nil
	}

	var facePath *string
	if item.FaceImageB64 != nil {
		data, err := codec.Decode(*item.FaceImageB64)
		if err != nil {
			return false, fmt.Errorf("bad face image: %v", err)
		}
		path, err := s.assets.Save(item.OperatorID, data)
		if err != nil {
			return false, fmt.Errorf("store face image: %v", err)
		}
		facePath = &path
	}

	now := time.Now()
	if decision == DecisionCreate {
		incoming.FaceImagePath = facePath
		incoming.SyncedToCloud = true
		incoming.CloudUpdatedAt = &now
		if incoming.Status == "" {
			incoming.Status = model.OperatorStatusOffline
		}
		return true, tx.Create(incoming).Error
	}

	updates := map[string]interface{}{
		"name":             incoming.Name,
		"machine_no":       incoming.MachineNo,
		"shift":            incoming.Shift,
		"status":           incoming.Status,
		"deleted":          incoming.Deleted,
		"deleted_at":       incoming.DeletedAt,
		"synced_to_cloud":  true,
		"cloud_updated_at": &now,
	}
	if facePath != nil {
		updates["face_image_path"] = facePath
	}
	return true, tx.Model(&model.Operator{}).Where("operator_id = ?", item.OperatorID).Updates(updates).Error
}

// loadLogKeys builds the dedup index over every locally stored login event.
func (s *SyncService) loadLogKeys(tx *gorm.DB) (map[LogKey]struct{}, error) {
	var rows []model.LoginLog
	if err := tx.Select("operator_id", "login_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load log keys: %w", err)
	}
	keys := make(map[LogKey]struct{}, len(rows))
	for _, r := range rows {
		keys[NewLogKey(r.OperatorID, r.LoginTime)] = struct{}{}
	}
	return keys, nil
}

// importLog inserts one incoming event unless its natural key already exists.
// A duplicate is not an error; it is the idempotence guarantee working.
func (s *SyncService) importLog(tx *gorm.DB, item *model.LoginLogSyncItem, stored map[LogKey]struct{}) (bool, error) {
	if item.OperatorID == "" {
		return false, fmt.Errorf("missing operator_id")
	}
	loginTime, err := parseTimestamp(item.LoginTime)
	if err != nil {
		return false, fmt.Errorf("bad login_time: %v", err)
	}
	key := NewLogKey(item.OperatorID, loginTime)
	if IsDuplicateLog(key, stored) {
		return false, nil
	}
	logoutTime, err := parseOptionalTimestamp(item.LogoutTime)
	if err != nil {
		return false, fmt.Errorf("bad logout_time: %v", err)
	}
	deletedAt, err := parseOptionalTimestamp(item.DeletedAt)
	if err != nil {
		return false, fmt.Errorf("bad deleted_at: %v", err)
	}

	now := time.Now()
	entry := model.LoginLog{
		OperatorID:    item.OperatorID,
		LoginTime:     loginTime,
		LogoutTime:    logoutTime,
		Shift:         item.Shift,
		Date:          item.Date,
		Deleted:       item.Deleted,
		DeletedAt:     deletedAt,
		SyncedToCloud: true,
		SyncedAt:      &now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return false, err
	}
	stored[key] = struct{}{}
	return true, nil
}

// importAdmin creates the account when the username is absent locally.
// Existing admins are never touched by merge; password changes stay local.
func (s *SyncService) importAdmin(tx *gorm.DB, item *model.AdminSyncItem) (bool, error) {
	if item.Username == "" {
		return false, fmt.Errorf("missing username")
	}
	var count int64
	if err := tx.Model(&model.Admin{}).Where("username = ?", item.Username).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	admin := model.Admin{
		Username:       item.Username,
		HashedPassword: item.HashedPassword,
	}
	if t, err := parseTimestamp(item.CreatedAt); err == nil {
		admin.CreatedAt = t
	}
	return true, tx.Create(&admin).Error
}

// MarkSynced flags every record in a successfully pushed snapshot as synced,
// so the next export does not resend it. Called by the sync agent after the
// peer acknowledged the POST.
func (s *SyncService) MarkSynced(snap *model.Snapshot) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, op := range snap.Operators {
			if err := tx.Model(&model.Operator{}).
				Where("operator_id = ?", op.OperatorID).
				Update("synced_to_cloud", true).Error; err != nil {
				return err
			}
		}
		for _, l := range snap.Logs {
			loginTime, err := parseTimestamp(l.LoginTime)
			if err != nil {
				continue
			}
			if err := tx.Model(&model.LoginLog{}).
				Where("operator_id = ? AND login_time = ?", l.OperatorID, loginTime).
				Updates(map[string]interface{}{"synced_to_cloud": true, "synced_at": &now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
