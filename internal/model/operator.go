package model

import "time"

// Operator shift labels.
const (
	ShiftDay   = "Day"
	ShiftNight = "Night"
)

// Operator status values.
const (
	OperatorStatusActive  = "Active"
	OperatorStatusOffline = "Offline"
)

// Operator is a machine operator registered on either peer.
//
// OperatorID is the join key across the cloud and edge stores: it is assigned
// once by whichever peer first creates the record and never regenerated.
// Deletion is a soft delete with explicit columns (not gorm.DeletedAt) so the
// deletion itself can replicate to the other peer.
type Operator struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	OperatorID    string     `json:"operator_id" gorm:"uniqueIndex;size:50"`
	Name          string     `json:"name" gorm:"size:100"`
	MachineNo     string     `json:"machine_no" gorm:"size:50"`
	Shift         *string    `json:"shift" gorm:"size:10"` // Day / Night, unset allowed
	Status        string     `json:"status" gorm:"size:10;default:Offline"`
	FaceImagePath *string    `json:"face_image_path"`
	CreatedAt     time.Time  `json:"created_at"`
	Deleted       bool       `json:"deleted" gorm:"default:false"`
	DeletedAt     *time.Time `json:"deleted_at"`
	// 同步跟踪字段
	SyncedToCloud  bool       `json:"synced_to_cloud" gorm:"default:false"`
	CloudUpdatedAt *time.Time `json:"cloud_updated_at"`
}

// UpdateTimestamp returns the timestamp used for last-write-wins conflict
// resolution: CloudUpdatedAt when set, CreatedAt otherwise.
func (o *Operator) UpdateTimestamp() time.Time {
	if o.CloudUpdatedAt != nil {
		return *o.CloudUpdatedAt
	}
	return o.CreatedAt
}
