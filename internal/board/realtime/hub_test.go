package realtime

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/internal/board/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(slog.New(slog.DiscardHandler))
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func testEvent(id string) Event {
	return NewActivityEvent(domain.Activity{
		ID:        id,
		Username:  "alice",
		Kind:      domain.ActivityCreateTask,
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}, nil, nil, nil)
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.send:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishWithNoMembers(t *testing.T) {
	h := newTestHub(t)

	// Must not block or panic with nobody listening.
	h.Publish(GroupActivities, testEvent("01"))

	require.Equal(t, 0, h.Count(GroupActivities))
}

func TestPublishReachesEveryMember(t *testing.T) {
	h := newTestHub(t)

	a, b := NewClient(nil), NewClient(nil)
	h.Join(GroupActivities, a)
	h.Join(GroupActivities, b)
	require.Equal(t, 2, h.Count(GroupActivities))

	h.Publish(GroupActivities, testEvent("01"))

	require.Equal(t, "01", receive(t, a).ActivityID)
	require.Equal(t, "01", receive(t, b).ActivityID)
}

func TestLateJoinerGetsNoReplay(t *testing.T) {
	h := newTestHub(t)

	early := NewClient(nil)
	h.Join(GroupActivities, early)

	h.Publish(GroupActivities, testEvent("01"))
	require.Equal(t, "01", receive(t, early).ActivityID)

	late := NewClient(nil)
	h.Join(GroupActivities, late)

	h.Publish(GroupActivities, testEvent("02"))

	require.Equal(t, "02", receive(t, early).ActivityID)
	require.Equal(t, "02", receive(t, late).ActivityID)
	require.Empty(t, late.send)
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := newTestHub(t)

	c := NewClient(nil)
	h.Join(GroupActivities, c)
	h.Publish(GroupActivities, testEvent("01"))
	require.Equal(t, "01", receive(t, c).ActivityID)

	h.Leave(GroupActivities, c)
	require.Equal(t, 0, h.Count(GroupActivities))

	h.Publish(GroupActivities, testEvent("02"))

	// Give the dispatch loop a beat, then confirm nothing arrived.
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, c.send)
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := newTestHub(t)

	c := NewClient(nil)
	h.Leave(GroupActivities, c) // never joined
	h.Join(GroupActivities, c)
	h.Leave(GroupActivities, c)
	h.Leave(GroupActivities, c)

	require.Equal(t, 0, h.Count(GroupActivities))
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	h := newTestHub(t)

	c := NewClient(nil)
	h.Join(GroupActivities, c)

	const n = 10
	for i := 0; i < n; i++ {
		h.Publish(GroupActivities, testEvent(fmt.Sprintf("%02d", i)))
	}

	for i := 0; i < n; i++ {
		require.Equal(t, fmt.Sprintf("%02d", i), receive(t, c).ActivityID)
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	h := newTestHub(t)

	slow := NewClient(nil)
	h.Join(GroupActivities, slow)

	// Nobody drains slow.send, so the buffer fills and the hub severs it.
	for i := 0; i < sendBacklog+5; i++ {
		h.Publish(GroupActivities, testEvent(fmt.Sprintf("%02d", i)))
	}

	require.Eventually(t, func() bool {
		return h.Count(GroupActivities) == 0
	}, time.Second, 10*time.Millisecond)

	select {
	case <-slow.closed:
	default:
		t.Fatal("slow client was not detached")
	}
}

func TestEventPayloadShape(t *testing.T) {
	taskID := "T1"
	title := "Write report"
	a := domain.Activity{
		ID:          "A1",
		Username:    "bob",
		Kind:        domain.ActivityMoveTask,
		Description: "moved Write report to Done",
		TaskID:      &taskID,
		CreatedAt:   time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	e := NewActivityEvent(a, &title, nil, nil)

	require.Equal(t, "activity", e.Type)
	require.Equal(t, "A1", e.ActivityID)
	require.Equal(t, "bob", e.User)
	require.Equal(t, "Move Task", e.ActivityType)
	require.Equal(t, "14/03/2025 09:26:53", e.CreatedAt)
	require.Equal(t, &taskID, e.TaskID)
	require.Equal(t, &title, e.TaskTitle)
	require.Nil(t, e.SubtaskID)
	require.Nil(t, e.ListName)
}
