package model

// Wire types for the /sync/all exchange. Timestamps travel as ISO8601 strings
// so a snapshot is self-contained and peers with different DB backends can
// parse items individually; a malformed timestamp fails only its own item.

// OperatorSyncItem is one operator record in a snapshot.
type OperatorSyncItem struct {
	OperatorID   string  `json:"operator_id"`
	Name         string  `json:"name"`
	MachineNo    string  `json:"machine_no"`
	Shift        *string `json:"shift"`
	Status       string  `json:"status"`
	FaceImageB64 *string `json:"face_image_b64"`
	CreatedAt    string  `json:"created_at"`
	Deleted      bool    `json:"deleted"`
	DeletedAt    *string `json:"deleted_at"`
	// CloudUpdatedAt carries the origin's last mutation time so the receiver
	// can run last-write-wins against its own copy.
	CloudUpdatedAt *string `json:"cloud_updated_at"`
}

// LoginLogSyncItem is one login event in a snapshot.
type LoginLogSyncItem struct {
	OperatorID string  `json:"operator_id"`
	LoginTime  string  `json:"login_time"`
	LogoutTime *string `json:"logout_time"`
	Shift      string  `json:"shift"`
	Date       string  `json:"date"`
	Deleted    bool    `json:"deleted"`
	DeletedAt  *string `json:"deleted_at"`
}

// AdminSyncItem is one admin account in a snapshot. The password hash crosses
// the wire only so a fresh edge store can bootstrap; merge never updates an
// existing admin.
type AdminSyncItem struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	CreatedAt      string `json:"created_at"`
}

// Snapshot is a self-contained "everything created since the watermark"
// payload. GeneratedAt is the watermark the caller should use next time.
type Snapshot struct {
	Operators   []OperatorSyncItem `json:"operators"`
	Logs        []LoginLogSyncItem `json:"logs"`
	Admins      []AdminSyncItem    `json:"admins"`
	GeneratedAt string             `json:"generated_at"`
}

// ImportError describes one snapshot item that could not be applied.
type ImportError struct {
	Kind   string `json:"kind"` // operator / log / admin
	Item   string `json:"item"` // natural key of the failing item
	Reason string `json:"reason"`
}

// ImportResult reports per-kind applied counts for one import call.
type ImportResult struct {
	OperatorsApplied int           `json:"operators_applied"`
	LogsApplied      int           `json:"logs_applied"`
	AdminsApplied    int           `json:"admins_applied"`
	Errors           []ImportError `json:"errors"`
}
