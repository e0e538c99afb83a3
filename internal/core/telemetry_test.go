package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/model"
)

func TestServerStats_LatestAndHistory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ServerStats.Latest(f.ctx)
	requireKind(t, err, KindNotFound)

	for i := 0; i < 5; i++ {
		_, err := f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 10 + i, MemoryUsage: 20, DiskUsage: 30})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	latest, err := f.svc.ServerStats.Latest(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, latest.CPUUsage)

	hist, err := f.svc.ServerStats.History(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []int{14, 13, 12}, []int{hist[0].CPUUsage, hist[1].CPUUsage, hist[2].CPUUsage})

	all, err := f.svc.ServerStats.History(f.ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestServerStats_RecordValidation(t *testing.T) {
	f := newFixture(t)
	_, user := f.user(t, "alice", model.RoleUser)

	_, err := f.svc.ServerStats.Record(f.ctx, user, ServerStatsInput{CPUUsage: 10})
	requireKind(t, err, KindForbidden)
	_, err = f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 101})
	requireKind(t, err, KindInvalidInput)
}

func TestServerStats_AlertsOnlyWhenCrossingThreshold(t *testing.T) {
	f := newFixture(t)

	record := func(cpu int) {
		_, err := f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: cpu})
		require.NoError(t, err)
	}
	record(50)
	assert.Empty(t, f.pub.published())

	record(95)
	require.Len(t, f.pub.published(), 1)
	alert := f.pub.published()[0]
	assert.Equal(t, model.NotificationWarning, alert.Type)
	assert.True(t, alert.IsBroadcast())

	record(97)
	assert.Len(t, f.pub.published(), 1, "staying above the threshold must not re-alert")

	record(40)
	record(91)
	assert.Len(t, f.pub.published(), 2)
}

func TestServerStats_BackfillKeepsLatestAndDoesNotAlert(t *testing.T) {
	f := newFixture(t)

	now := f.clock.Now()
	_, err := f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 40})
	require.NoError(t, err)

	earlier := now.Add(-time.Hour)
	_, err = f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 97, Timestamp: &earlier})
	require.NoError(t, err)
	assert.Empty(t, f.pub.published(), "an old sample is history, not the current state")

	latest, err := f.svc.ServerStats.Latest(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, latest.CPUUsage)

	f.clock.Advance(time.Minute)
	_, err = f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 96})
	require.NoError(t, err)
	assert.Len(t, f.pub.published(), 1, "the edge is measured against the newest sample (40)")
}

func TestSecurityScans_RecordAlwaysNotifies(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SecurityScan.Latest(f.ctx)
	requireKind(t, err, KindNotFound)

	clean, err := f.svc.SecurityScan.Record(f.ctx, System, SecurityScanInput{ScanType: model.ScanTypeMalware, FilesScanned: 100})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, clean.Status)
	require.NotNil(t, clean.CompletedAt)
	assert.Contains(t, clean.Summary, "100 files")

	f.clock.Advance(time.Hour)
	_, err = f.svc.SecurityScan.Record(f.ctx, System, SecurityScanInput{ScanType: model.ScanTypeFull, ThreatsFound: 2, FilesScanned: 50})
	require.NoError(t, err)

	pub := f.pub.published()
	require.Len(t, pub, 2)
	assert.Equal(t, model.NotificationSuccess, pub[0].Type)
	assert.Equal(t, model.NotificationWarning, pub[1].Type)
	assert.Equal(t, model.PriorityHigh, pub[1].Priority)

	latest, err := f.svc.SecurityScan.Latest(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.ThreatsFound)

	scans, err := f.svc.SecurityScan.List(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, model.ScanTypeFull, scans[0].ScanType)
}

func TestSecurityScans_AdminOnly(t *testing.T) {
	f := newFixture(t)
	_, user := f.user(t, "alice", model.RoleUser)
	_, err := f.svc.SecurityScan.Record(f.ctx, user, SecurityScanInput{ScanType: model.ScanTypeMalware})
	requireKind(t, err, KindForbidden)
}

func TestNotifications_ScopingAndBroadcast(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "root", model.RoleAdmin)
	alice, aliceActor := f.user(t, "alice", model.RoleUser)
	_, bobActor := f.user(t, "bob", model.RoleUser)

	broadcast, err := f.svc.Notification.Create(f.ctx, admin, NotificationInput{Title: "Maintenance", Message: "Tonight"})
	require.NoError(t, err)
	assert.True(t, broadcast.IsBroadcast())
	assert.Equal(t, model.NotificationInfo, broadcast.Type)
	assert.Equal(t, model.PriorityNormal, broadcast.Priority)

	f.clock.Advance(time.Second)
	direct, err := f.svc.Notification.Create(f.ctx, admin, NotificationInput{UserID: &alice.ID, Title: "Hi", Message: "Welcome"})
	require.NoError(t, err)

	own, err := f.svc.Notification.Create(f.ctx, bobActor, NotificationInput{Title: "Note", Message: "to self"})
	require.NoError(t, err)
	require.NotNil(t, own.UserID)

	_, err = f.svc.Notification.Create(f.ctx, bobActor, NotificationInput{UserID: &alice.ID, Title: "x", Message: "y"})
	requireKind(t, err, KindForbidden)

	list, err := f.svc.Notification.List(f.ctx, aliceActor, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, direct.ID, list[0].ID)
	assert.Equal(t, broadcast.ID, list[1].ID)

	_, err = f.svc.Notification.Get(f.ctx, bobActor, direct.ID)
	requireKind(t, err, KindForbidden)
	_, err = f.svc.Notification.MarkRead(f.ctx, aliceActor, broadcast.ID)
	requireKind(t, err, KindForbidden)

	assert.Len(t, f.pub.published(), 3)
}

func TestNotifications_MarkReadAndLimit(t *testing.T) {
	f := newFixture(t)
	alice, actor := f.user(t, "alice", model.RoleUser)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Notification.Notify(f.ctx, &model.Notification{UserID: &alice.ID, Title: "t", Message: "m"}))
	}

	limited, err := f.svc.Notification.List(f.ctx, actor, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := f.svc.Notification.MarkRead(f.ctx, actor, limited[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	count, err := f.svc.Notification.MarkAllRead(f.ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.svc.Notification.Delete(f.ctx, actor, n.ID))
	_, err = f.svc.Notification.Get(f.ctx, actor, n.ID)
	requireKind(t, err, KindNotFound)
}
