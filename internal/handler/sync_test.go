package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facegate/internal/database"
	"facegate/internal/model"
	"facegate/internal/service"
	"facegate/internal/storage"
)

func newSyncRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	assets, err := storage.NewAssetStore(t.TempDir())
	require.NoError(t, err)

	h := NewSyncHandler(service.NewSyncService(db, assets))
	r := gin.New()
	r.GET("/sync/all", h.Export)
	r.POST("/sync/all", h.Import)
	return r, db
}

func TestSyncExport(t *testing.T) {
	r, db := newSyncRouter(t)

	require.NoError(t, db.Create(&model.Operator{
		OperatorID: "OP1",
		Name:       "Zhang Wei",
		MachineNo:  "M-07",
		CreatedAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sync/all?since=2026-01-01T00:00:00Z", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Operators, 1)
	assert.Equal(t, "OP1", snap.Operators[0].OperatorID)
	assert.NotEmpty(t, snap.GeneratedAt)
}

func TestSyncExportHonorsWatermark(t *testing.T) {
	r, db := newSyncRouter(t)

	require.NoError(t, db.Create(&model.Operator{
		OperatorID:    "OLD",
		Name:          "Old",
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SyncedToCloud: true,
	}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sync/all?since=2026-02-01T00:00:00Z", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Empty(t, snap.Operators)
}

func TestSyncImport(t *testing.T) {
	r, db := newSyncRouter(t)

	snap := model.Snapshot{
		Operators: []model.OperatorSyncItem{{
			OperatorID: "OP1",
			Name:       "Zhang Wei",
			MachineNo:  "M-07",
			CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		}},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(snap)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/all", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result model.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.OperatorsApplied)

	var count int64
	require.NoError(t, db.Model(&model.Operator{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncImportRejectsBadJSON(t *testing.T) {
	r, _ := newSyncRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/all", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
