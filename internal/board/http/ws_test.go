package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/internal/board/realtime"
)

func dialSocket(t *testing.T, client *http.Client, baseURL string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/activities"
	dialer := websocket.Dialer{Jar: client.Jar}
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// expectClose reads until the server closes the connection and returns the
// close code it sent.
func expectClose(t *testing.T, conn *websocket.Conn) int {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	return closeErr.Code
}

func TestSocketRejectsUnauthenticated(t *testing.T) {
	server, _ := newTestServer(t, true)
	client := newClient(t)

	conn := dialSocket(t, client, server.URL)
	require.Equal(t, CloseUnauthenticated, expectClose(t, conn))
}

func TestSocketRejectsWhenFeedUnavailable(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "teacher", true)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dialSocket(t, client, server.URL)
	require.Equal(t, CloseUnavailable, expectClose(t, conn))
}

func TestSocketDeliversActivity(t *testing.T) {
	r, st := newTestRouter(t, true)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	seedUser(t, st, "teacher", true)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dialSocket(t, client, server.URL)

	// Wait for the handler to join the feed before triggering an event;
	// the hub has no replay, so a publish before Join would be lost.
	require.Eventually(t, func() bool {
		return r.Hub.Count(realtime.GroupActivities) == 1
	}, 5*time.Second, 10*time.Millisecond)

	resp, _ = postJSON(t, client, server.URL+"/api/lists", map[string]string{
		"name": "Homework",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event realtime.Event
	require.NoError(t, conn.ReadJSON(&event))

	require.Equal(t, "activity", event.Type)
	require.Equal(t, "teacher", event.User)
	require.Equal(t, "Create List", event.ActivityType)
	require.NotNil(t, event.ListName)
	require.Equal(t, "Homework", *event.ListName)
	require.Contains(t, event.Description, `"Homework"`)
}
