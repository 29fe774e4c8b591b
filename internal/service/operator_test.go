package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facegate/internal/model"
	"facegate/internal/storage"
)

func newTestOperatorService(t *testing.T) (*OperatorService, *fakePublisher) {
	t.Helper()
	db := newTestDB(t, "ops")
	assets, err := storage.NewAssetStore(t.TempDir())
	require.NoError(t, err)

	pub := &fakePublisher{result: true}
	dispatcher := NewSignalDispatcher(pub, nil)
	presence := NewPresenceService(nil)
	return NewOperatorService(db, assets, dispatcher, presence), pub
}

func TestOperatorCreateAndGet(t *testing.T) {
	svc, _ := newTestOperatorService(t)
	ctx := context.Background()

	shift := model.ShiftDay
	op, err := svc.Create(ctx, OperatorCreate{
		Name:       "Zhang Wei",
		OperatorID: "OP1",
		MachineNo:  "M-07",
		Shift:      &shift,
	}, []byte("face bytes"))
	require.NoError(t, err)
	assert.Equal(t, model.OperatorStatusOffline, op.Status)
	require.NotNil(t, op.FaceImagePath)

	got, err := svc.Get(ctx, "OP1")
	require.NoError(t, err)
	assert.Equal(t, "Zhang Wei", got.Name)

	// Duplicate operator id is rejected.
	_, err = svc.Create(ctx, OperatorCreate{Name: "Other", OperatorID: "OP1"}, nil)
	require.Error(t, err)
}

func TestOperatorUpdateMarksForSync(t *testing.T) {
	svc, _ := newTestOperatorService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, OperatorCreate{Name: "Zhang Wei", OperatorID: "OP1", MachineNo: "M-07"}, nil)
	require.NoError(t, err)

	name := "Zhang W."
	got, err := svc.Update(ctx, "OP1", OperatorUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Zhang W.", got.Name)
	assert.False(t, got.SyncedToCloud)
	require.NotNil(t, got.CloudUpdatedAt, "mutations must stamp the LWW timestamp")
}

func TestOperatorLoginLogoutFlow(t *testing.T) {
	svc, pub := newTestOperatorService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, OperatorCreate{Name: "Zhang Wei", OperatorID: "OP1", MachineNo: "M-07"}, nil)
	require.NoError(t, err)

	entry, err := svc.Login(ctx, "OP1", model.ShiftDay, "2026-03-01")
	require.NoError(t, err)
	assert.Nil(t, entry.LogoutTime)

	got, err := svc.Get(ctx, "OP1")
	require.NoError(t, err)
	assert.Equal(t, model.OperatorStatusActive, got.Status)

	require.NoError(t, svc.Logout(ctx, "OP1"))

	got, err = svc.Get(ctx, "OP1")
	require.NoError(t, err)
	assert.Equal(t, model.OperatorStatusOffline, got.Status)

	logs, err := svc.Logs(ctx, "OP1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].LogoutTime, "logout closes the open log")

	// One unlock on login, one lock on logout.
	require.Len(t, pub.signals, 2)
	assert.Equal(t, model.SignalActionUnlock, pub.signals[0].Action)
	assert.Equal(t, "M-07", pub.signals[0].MachineNo)
	assert.Equal(t, model.SignalActionLock, pub.signals[1].Action)
}

func TestOperatorLoginSurvivesBrokerOutage(t *testing.T) {
	svc, pub := newTestOperatorService(t)
	pub.result = false
	ctx := context.Background()

	_, err := svc.Create(ctx, OperatorCreate{Name: "Zhang Wei", OperatorID: "OP1", MachineNo: "M-07"}, nil)
	require.NoError(t, err)

	// The check-in commits even though the signal was not delivered.
	_, err = svc.Login(ctx, "OP1", model.ShiftDay, "2026-03-01")
	require.NoError(t, err)

	got, err := svc.Get(ctx, "OP1")
	require.NoError(t, err)
	assert.Equal(t, model.OperatorStatusActive, got.Status)
}

func TestOperatorLogoutWithoutOpenLog(t *testing.T) {
	svc, _ := newTestOperatorService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, OperatorCreate{Name: "Zhang Wei", OperatorID: "OP1", MachineNo: "M-07"}, nil)
	require.NoError(t, err)

	// Never logged in; logout is still accepted.
	require.NoError(t, svc.Logout(ctx, "OP1"))
}

func TestOperatorDeleteIsSoft(t *testing.T) {
	svc, _ := newTestOperatorService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, OperatorCreate{Name: "Zhang Wei", OperatorID: "OP1", MachineNo: "M-07"}, nil)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "OP1", model.ShiftDay, "2026-03-01")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "OP1"))

	_, err = svc.Get(ctx, "OP1")
	assert.ErrorIs(t, err, ErrOperatorNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The row survives for replication, flagged for the next push.
	var raw model.Operator
	require.NoError(t, svc.db.Where("operator_id = ?", "OP1").First(&raw).Error)
	assert.True(t, raw.Deleted)
	assert.False(t, raw.SyncedToCloud)
	require.NotNil(t, raw.CloudUpdatedAt)

	var rawLog model.LoginLog
	require.NoError(t, svc.db.Where("operator_id = ?", "OP1").First(&rawLog).Error)
	assert.True(t, rawLog.Deleted)
}

func TestOperatorGetUnknown(t *testing.T) {
	svc, _ := newTestOperatorService(t)
	_, err := svc.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}
