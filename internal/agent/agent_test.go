package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

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

func newEdge(t *testing.T) (*gorm.DB, *service.SyncService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	assets, err := storage.NewAssetStore(t.TempDir())
	require.NoError(t, err)
	return db, service.NewSyncService(db, assets)
}

// fakePeer serves /sync/all the way the cloud API does. Operator ids listed
// in reject are reported back as per-item import errors.
type fakePeer struct {
	mu       sync.Mutex
	snapshot model.Snapshot
	received []model.Snapshot
	reject   map[string]bool
}

func (p *fakePeer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync/all", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(p.snapshot)
		case http.MethodPost:
			var snap model.Snapshot
			if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			p.received = append(p.received, snap)

			result := model.ImportResult{Errors: []model.ImportError{}}
			for _, op := range snap.Operators {
				if p.reject[op.OperatorID] {
					result.Errors = append(result.Errors, model.ImportError{
						Kind: "operator", Item: op.OperatorID, Reason: "bad created_at",
					})
					continue
				}
				result.OperatorsApplied++
			}
			result.LogsApplied = len(snap.Logs)
			json.NewEncoder(w).Encode(result)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func TestRunOncePullsAndPushes(t *testing.T) {
	db, syncService := newEdge(t)

	// Local unsynced activity waiting to be pushed.
	loginAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&model.Operator{
		OperatorID: "EDGE1",
		Name:       "Li Na",
		MachineNo:  "M-02",
		CreatedAt:  loginAt,
	}).Error)
	require.NoError(t, db.Create(&model.LoginLog{
		OperatorID: "EDGE1",
		LoginTime:  loginAt,
		Date:       "2026-03-01",
		CreatedAt:  loginAt,
	}).Error)

	// The cloud has one operator the edge has never seen.
	peer := &fakePeer{
		snapshot: model.Snapshot{
			Operators: []model.OperatorSyncItem{{
				OperatorID: "CLOUD1",
				Name:       "Wang Fang",
				MachineNo:  "M-09",
				CreatedAt:  loginAt.Format(time.RFC3339Nano),
			}},
			Logs:        []model.LoginLogSyncItem{},
			Admins:      []model.AdminSyncItem{},
			GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	srv := httptest.NewServer(peer.handler())
	defer srv.Close()

	a := New(db, syncService, srv.URL, time.Minute)
	require.NoError(t, a.RunOnce(context.Background()))

	// Pull: the cloud operator landed locally.
	var pulled model.Operator
	require.NoError(t, db.Where("operator_id = ?", "CLOUD1").First(&pulled).Error)
	assert.Equal(t, "Wang Fang", pulled.Name)

	// Push: the peer received the local delta.
	peer.mu.Lock()
	received := append([]model.Snapshot(nil), peer.received...)
	peer.mu.Unlock()
	require.Len(t, received, 1)
	ids := make([]string, 0, len(received[0].Operators))
	for _, op := range received[0].Operators {
		ids = append(ids, op.OperatorID)
	}
	// The first cycle may echo the freshly pulled operator back; the merge
	// on the peer is idempotent, so only EDGE1 matters here.
	assert.Contains(t, ids, "EDGE1")
	require.Len(t, received[0].Logs, 1)

	// Ack marked the local records synced.
	var op model.Operator
	require.NoError(t, db.Where("operator_id = ?", "EDGE1").First(&op).Error)
	assert.True(t, op.SyncedToCloud)

	// Both watermarks were persisted.
	var states []model.SyncState
	require.NoError(t, db.Find(&states).Error)
	keys := make(map[string]bool, len(states))
	for _, s := range states {
		keys[s.Key] = true
	}
	assert.True(t, keys[model.SyncStateLastPull])
	assert.True(t, keys[model.SyncStateLastPush])
}

func TestRunOnceSecondCycleIsQuiet(t *testing.T) {
	db, syncService := newEdge(t)

	loginAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&model.Operator{
		OperatorID: "EDGE1",
		Name:       "Li Na",
		CreatedAt:  loginAt,
	}).Error)

	peer := &fakePeer{
		snapshot: model.Snapshot{
			Operators:   []model.OperatorSyncItem{},
			Logs:        []model.LoginLogSyncItem{},
			Admins:      []model.AdminSyncItem{},
			GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	srv := httptest.NewServer(peer.handler())
	defer srv.Close()

	a := New(db, syncService, srv.URL, time.Minute)
	require.NoError(t, a.RunOnce(context.Background()))
	require.NoError(t, a.RunOnce(context.Background()))

	// The second cycle has nothing new; the empty-delta fast path means no
	// second POST reaches the peer.
	peer.mu.Lock()
	defer peer.mu.Unlock()
	assert.Len(t, peer.received, 1)
}

func TestPushKeepsRejectedItemsUnsynced(t *testing.T) {
	db, syncService := newEdge(t)

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&model.Operator{
		OperatorID: "EDGE1",
		Name:       "Li Na",
		CreatedAt:  created,
	}).Error)
	require.NoError(t, db.Create(&model.Operator{
		OperatorID: "EDGE2",
		Name:       "Chen Jie",
		CreatedAt:  created,
	}).Error)

	peer := &fakePeer{
		snapshot: model.Snapshot{
			Operators:   []model.OperatorSyncItem{},
			Logs:        []model.LoginLogSyncItem{},
			Admins:      []model.AdminSyncItem{},
			GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
		},
		reject: map[string]bool{"EDGE2": true},
	}
	srv := httptest.NewServer(peer.handler())
	defer srv.Close()

	a := New(db, syncService, srv.URL, time.Minute)
	require.NoError(t, a.RunOnce(context.Background()))

	// The accepted operator is flagged; the rejected one is not.
	var accepted, rejected model.Operator
	require.NoError(t, db.Where("operator_id = ?", "EDGE1").First(&accepted).Error)
	require.NoError(t, db.Where("operator_id = ?", "EDGE2").First(&rejected).Error)
	assert.True(t, accepted.SyncedToCloud)
	assert.False(t, rejected.SyncedToCloud, "rejected items must stay queued for retry")

	// The next cycle resends only the rejected operator, past the watermark.
	require.NoError(t, a.RunOnce(context.Background()))

	peer.mu.Lock()
	defer peer.mu.Unlock()
	require.Len(t, peer.received, 2)
	require.Len(t, peer.received[1].Operators, 1)
	assert.Equal(t, "EDGE2", peer.received[1].Operators[0].OperatorID)
}

func TestRunOncePeerDown(t *testing.T) {
	db, syncService := newEdge(t)

	a := New(db, syncService, "http://127.0.0.1:1", time.Minute)
	err := a.RunOnce(context.Background())
	require.Error(t, err, "partition is reported, next tick retries")

	// Nothing was marked synced and no watermark moved.
	var states []model.SyncState
	require.NoError(t, db.Find(&states).Error)
	assert.Empty(t, states)
}
