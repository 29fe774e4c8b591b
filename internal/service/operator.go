package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"facegate/internal/model"
	"facegate/internal/storage"
)

// ErrOperatorNotFound is returned when an operator id resolves to nothing
// (or to a soft-deleted record, which reads treat the same way).
var ErrOperatorNotFound = errors.New("operator not found")

// OperatorCreate is the input for registering a new operator.
type OperatorCreate struct {
	Name       string
	OperatorID string
	MachineNo  string
	Shift      *string
}

// OperatorUpdate carries the mutable operator fields; nil means unchanged.
type OperatorUpdate struct {
	Name      *string `json:"name"`
	MachineNo *string `json:"machine_no"`
	Shift     *string `json:"shift"`
	Status    *string `json:"status"`
}

// OperatorService handles operator registry CRUD plus the login/logout
// check-in flow. Every mutation clears the synced flag and stamps
// CloudUpdatedAt so the reconciler picks the record up on the next export.
type OperatorService struct {
	db         *gorm.DB
	assets     *storage.AssetStore
	dispatcher *SignalDispatcher
	presence   *PresenceService
}

// NewOperatorService creates a new operator service.
func NewOperatorService(db *gorm.DB, assets *storage.AssetStore, dispatcher *SignalDispatcher, presence *PresenceService) *OperatorService {
	return &OperatorService{db: db, assets: assets, dispatcher: dispatcher, presence: presence}
}

// Create registers a new operator, optionally storing a face image.
func (s *OperatorService) Create(ctx context.Context, input OperatorCreate, faceImage []byte) (*model.Operator, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Operator{}).Where("operator_id = ?", input.OperatorID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("operator with ID %s already exists", input.OperatorID)
	}

	op := &model.Operator{
		OperatorID: input.OperatorID,
		Name:       input.Name,
		MachineNo:  input.MachineNo,
		Shift:      input.Shift,
		Status:     model.OperatorStatusOffline,
	}
	if len(faceImage) > 0 {
		path, err := s.assets.Save(input.OperatorID, faceImage)
		if err != nil {
			return nil, err
		}
		op.FaceImagePath = &path
	}

	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, err
	}
	return op, nil
}

// List returns all operators that are not soft-deleted.
func (s *OperatorService) List(ctx context.Context) ([]model.Operator, error) {
	var operators []model.Operator
	err := s.db.WithContext(ctx).Where("deleted = ?", false).Find(&operators).Error
	return operators, err
}

// Get returns one operator by its operator id.
func (s *OperatorService) Get(ctx context.Context, operatorID string) (*model.Operator, error) {
	var op model.Operator
	if err := s.db.WithContext(ctx).Where("operator_id = ? AND deleted = ?", operatorID, false).First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

// Update applies the non-nil fields and marks the record for sync.
func (s *OperatorService) Update(ctx context.Context, operatorID string, input OperatorUpdate) (*model.Operator, error) {
	op, err := s.Get(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"synced_to_cloud":  false,
		"cloud_updated_at": &now,
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.MachineNo != nil {
		updates["machine_no"] = *input.MachineNo
	}
	if input.Shift != nil {
		updates["shift"] = input.Shift
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}

	if err := s.db.WithContext(ctx).Model(op).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, operatorID)
}

// Delete soft-deletes the operator and its login logs. The rows stay in
// place so the deletion itself replicates to the peer.
func (s *OperatorService) Delete(ctx context.Context, operatorID string) error {
	var op model.Operator
	if err := s.db.WithContext(ctx).Where("operator_id = ?", operatorID).First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOperatorNotFound
		}
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&op).Updates(map[string]interface{}{
			"deleted":          true,
			"deleted_at":       &now,
			"synced_to_cloud":  false,
			"cloud_updated_at": &now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.LoginLog{}).Where("operator_id = ?", operatorID).Updates(map[string]interface{}{
			"deleted":         true,
			"deleted_at":      &now,
			"synced_to_cloud": false,
		}).Error
	})
}

// Login records a shift check-in: the operator goes Active, an open login
// log is created, the unlock signal fires and presence is updated. Signal or
// presence failures never fail the check-in itself.
func (s *OperatorService) Login(ctx context.Context, operatorID, shift, date string) (*model.LoginLog, error) {
	op, err := s.Get(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	entry := &model.LoginLog{
		OperatorID: operatorID,
		LoginTime:  time.Now(),
		Shift:      shift,
		Date:       date,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(op).Update("status", model.OperatorStatusActive).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.OnLogin(operatorID, op.MachineNo)
	if err := s.presence.SetActive(ctx, op.MachineNo, operatorID); err != nil {
		log.Printf("[Operator] Presence update failed: %v", err)
	}
	return entry, nil
}

// Logout closes the most recent open login log and locks the machine.
// Missing open log is tolerated: the logout still flips the status and
// publishes the lock signal.
func (s *OperatorService) Logout(ctx context.Context, operatorID string) error {
	op, err := s.Get(ctx, operatorID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(op).Update("status", model.OperatorStatusOffline).Error; err != nil {
		return err
	}

	var entry model.LoginLog
	err = s.db.WithContext(ctx).
		Where("operator_id = ? AND logout_time IS NULL", operatorID).
		Order("login_time DESC").
		First(&entry).Error
	if err == nil {
		now := time.Now()
		if err := s.db.WithContext(ctx).Model(&entry).Update("logout_time", &now).Error; err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	s.dispatcher.OnLogout(operatorID, op.MachineNo)
	if err := s.presence.SetOffline(ctx, op.MachineNo); err != nil {
		log.Printf("[Operator] Presence update failed: %v", err)
	}
	return nil
}

// Logs returns the login history for one operator, newest first.
func (s *OperatorService) Logs(ctx context.Context, operatorID string) ([]model.LoginLog, error) {
	var logs []model.LoginLog
	err := s.db.WithContext(ctx).
		Where("operator_id = ? AND deleted = ?", operatorID, false).
		Order("login_time DESC").
		Find(&logs).Error
	return logs, err
}
