package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// =============================================================================
// Geofence Tests
// =============================================================================

func TestNewPunchRegion(t *testing.T) {
	r := NewPunchRegion(118.810202, 31.912279, 150)

	assert.Equal(t, PunchRegionID, r.Identifier)
	assert.Equal(t, 118.810202, r.Longitude)
	assert.Equal(t, 31.912279, r.Latitude)
	assert.Equal(t, 150.0, r.Radius)
	assert.True(t, r.NotifyOnEnter)
	assert.True(t, r.NotifyOnExit)
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, MinRadius, ClampRadius(50))
	assert.Equal(t, MinRadius, ClampRadius(-1))
	assert.Equal(t, MinRadius, ClampRadius(math.NaN()))
	assert.Equal(t, MinRadius, ClampRadius(math.Inf(1)))
	assert.Equal(t, 100.0, ClampRadius(100))
	assert.Equal(t, 250.5, ClampRadius(250.5))
}

func TestUserGeofenceConfigJSON(t *testing.T) {
	t.Run("null_address", func(t *testing.T) {
		cfg := UserGeofenceConfig{Longitude: 1, Latitude: 2, Radius: 100, UpdatedAt: 42}
		data, err := json.Marshal(&cfg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"longitude":1,"latitude":2,"address":null,"radius":100,"updatedAt":42}`, string(data))
	})

	t.Run("region_clamps", func(t *testing.T) {
		cfg := UserGeofenceConfig{Longitude: 1, Latitude: 2, Radius: 20, Address: strPtr("南京")}
		assert.Equal(t, MinRadius, cfg.Region().Radius)
		assert.Equal(t, "南京", cfg.AddressOrEmpty())
		assert.Equal(t, int64(0), cfg.Updated().UnixMilli())
	})
}

func TestGeofenceEventType(t *testing.T) {
	assert.Equal(t, "enter", GeofenceEnter.String())
	assert.Equal(t, "exit", GeofenceExit.String())
	assert.Equal(t, "unknown(7)", GeofenceEventType(7).String())

	ev, err := ParseGeofenceEventType("exit")
	require.NoError(t, err)
	assert.Equal(t, GeofenceExit, ev)

	_, err = ParseGeofenceEventType("dwell")
	assert.Error(t, err)
}

// =============================================================================
// Todo Tests
// =============================================================================

func TestNewTodo(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	item := NewTodo("  写周报  ", &due, now)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "写周报", item.Title)
	assert.Equal(t, now.UnixMilli(), item.CreatedAt)
	require.NotNil(t, item.DueDate)
	assert.Equal(t, "2026-10-20T00:00:00.000Z", *item.DueDate)

	undated := NewTodo("x", nil, now)
	assert.False(t, undated.HasDue())
	assert.NotEqual(t, item.ID, undated.ID)
}

func TestTodoJSONShape(t *testing.T) {
	item := TodoItem{ID: "a", Title: "t", CreatedAt: 5}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","title":"t","dueDate":null,"createdAt":5}`, string(data))
}

func TestSortTodos(t *testing.T) {
	items := []TodoItem{
		{ID: "u2", CreatedAt: 20},
		{ID: "d2", DueDate: strPtr("2026-10-21T00:00:00.000Z"), CreatedAt: 1},
		{ID: "u1", CreatedAt: 10},
		{ID: "d1", DueDate: strPtr("2026-10-15T00:00:00.000Z"), CreatedAt: 99},
	}

	sorted := SortTodos(items)

	ids := make([]string, len(sorted))
	for i, it := range sorted {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"d1", "d2", "u1", "u2"}, ids)

	t.Run("input_untouched", func(t *testing.T) {
		assert.Equal(t, "u2", items[0].ID)
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, sorted, SortTodos(sorted))
	})

	t.Run("stable_for_equal_keys", func(t *testing.T) {
		same := []TodoItem{
			{ID: "a", DueDate: strPtr("2026-01-01T00:00:00.000Z")},
			{ID: "b", DueDate: strPtr("2026-01-01T00:00:00.000Z")},
		}
		out := SortTodos(same)
		assert.Equal(t, "a", out[0].ID)
		assert.Equal(t, "b", out[1].ID)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, SortTodos(nil))
	})
}

func TestDueStatusAt(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	now := time.Date(2026, 10, 14, 23, 30, 0, 0, loc)

	at := func(y int, m time.Month, d, h int) TodoItem {
		var item TodoItem
		item.SetDue(time.Date(y, m, d, h, 0, 0, 0, loc))
		return item
	}

	tests := []struct {
		name string
		item TodoItem
		want DueStatus
	}{
		{"undated", TodoItem{}, DueNormal},
		{"yesterday", at(2026, 10, 13, 22), DueOverdue},
		{"earlier_today", at(2026, 10, 14, 1), DueWarning},
		{"in_three_days", at(2026, 10, 17, 8), DueWarning},
		{"in_four_days", at(2026, 10, 18, 0), DueNormal},
		{"unparsable", TodoItem{DueDate: strPtr("soon")}, DueNormal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.item.DueStatusAt(now))
		})
	}
}

func TestDueLabel(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	item := TodoItem{DueDate: strPtr("2026-10-19T16:30:00.000Z")}
	assert.Equal(t, "2026-10-20", item.DueLabel(loc))
	assert.Empty(t, TodoItem{}.DueLabel(loc))
}

// =============================================================================
// Webhook / Notification Tests
// =============================================================================

func TestDetectWebhookType(t *testing.T) {
	assert.Equal(t, WebhookTypeDiscord, DetectWebhookType("https://discord.com/api/webhooks/1/x"))
	assert.Equal(t, WebhookTypeSlack, DetectWebhookType("https://hooks.slack.com/services/T/B/X"))
	assert.Equal(t, WebhookTypeGeneric, DetectWebhookType("https://example.com/hook"))
}

func TestIsValidWebhookName(t *testing.T) {
	assert.True(t, IsValidWebhookName("team-chat_1"))
	assert.False(t, IsValidWebhookName(""))
	assert.False(t, IsValidWebhookName("-leading"))
	assert.False(t, IsValidWebhookName("has space"))
}

func TestNewNotification(t *testing.T) {
	n := NewNotification(NotifyPunchEnter, "打卡提醒", "您已进入打卡地点，请打卡").
		WithChannel("punch-reminder").
		WithField("region", PunchRegionID)

	assert.Equal(t, ColorBrand, n.Color)
	assert.Equal(t, "punch-reminder", n.ChannelID)
	assert.Equal(t, PunchRegionID, n.Fields["region"])
	assert.Equal(t, "Arrived", n.TypeLabel())
}

func TestGeneratedKeys(t *testing.T) {
	assert.Equal(t, "@violet/geofence-task:punch-geofence-task", GenerateRegistrationKey(GeofenceTaskName))
	assert.Equal(t, "@violet/geofence-presence:punch-geofence-task", GeneratePresenceKey(GeofenceTaskName))
	assert.Equal(t, "@violet/permission:foreground", GeneratePermissionKey("foreground"))
	assert.Equal(t, "@violet/notification-channel:punch-reminder", GenerateChannelKey("punch-reminder"))
	assert.Equal(t, "webhook:slack", GenerateWebhookKey("slack"))
}
