package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// doJSON issues a request with a method the http.Client helpers do not
// cover (PATCH, DELETE).
func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func TestBoardRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t, false)
	client := newClient(t)

	resp, _ := getJSON(t, client, server.URL+"/api/board")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBoardCRUDOverHTTP(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "teacher", true)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Empty shared board to start.
	resp, body := getJSON(t, client, server.URL+"/api/board")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["shared"])
	require.Empty(t, body["lists"])

	resp, body = postJSON(t, client, server.URL+"/api/lists", map[string]string{
		"name": "To Do",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	list := body["list"].(map[string]any)
	listID := list["id"].(string)
	require.Equal(t, "To Do", list["name"])
	require.Equal(t, "yellow", list["color"]) // default colour

	resp, body = doJSON(t, client, "PATCH", server.URL+"/api/lists/"+listID+"/color", map[string]string{
		"color": "blue",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "blue", body["list"].(map[string]any)["color"])

	resp, body = postJSON(t, client, server.URL+"/api/tasks", map[string]any{
		"list_id":  listID,
		"title":    "Mark essays",
		"due_date": "2026-09-05T17:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := body["task"].(map[string]any)
	taskID := task["id"].(string)
	require.Equal(t, "Mark essays", task["title"])

	resp, body = postJSON(t, client, server.URL+"/api/tasks/"+taskID+"/subtasks", map[string]any{
		"title":    "Year 9 pile",
		"due_date": "2026-09-04T17:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	subtask := body["subtask"].(map[string]any)
	subtaskID := subtask["id"].(string)
	require.Equal(t, false, subtask["completed"])

	resp, body = postJSON(t, client, server.URL+"/api/subtasks/"+subtaskID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["subtask"].(map[string]any)["completed"])

	// Everything shows up in one board snapshot.
	resp, body = getJSON(t, client, server.URL+"/api/board")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lists := body["lists"].([]any)
	require.Len(t, lists, 1)
	tasks := lists[0].(map[string]any)["tasks"].([]any)
	require.Len(t, tasks, 1)
	subtasks := tasks[0].(map[string]any)["subtasks"].([]any)
	require.Len(t, subtasks, 1)

	resp, _ = doJSON(t, client, "DELETE", server.URL+"/api/tasks/"+taskID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, client, server.URL+"/api/board")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, body["lists"].([]any)[0].(map[string]any)["tasks"])
}

func TestStudentCannotDeleteOverHTTP(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "teacher", true)
	seedUser(t, st, "sam", false)

	adminClient := newClient(t)
	resp, _ := login(t, adminClient, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, adminClient, server.URL+"/api/lists", map[string]string{
		"name": "Shared work",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	listID := body["list"].(map[string]any)["id"].(string)

	// Invite the student onto the shared board.
	resp, _ = postJSON(t, adminClient, server.URL+"/api/invitations", map[string]string{
		"username": "sam",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	studentClient := newClient(t)
	resp, _ = login(t, studentClient, server.URL, "sam", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, studentClient, server.URL+"/api/invitations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	invitations := body["invitations"].([]any)
	require.Len(t, invitations, 1)
	invID := invitations[0].(map[string]any)["id"].(string)

	resp, _ = postJSON(t, studentClient, server.URL+"/api/invitations/"+invID+"/accept", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The student now sees the shared list but cannot delete it.
	resp, body = getJSON(t, studentClient, server.URL+"/api/board")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["shared"])
	require.Len(t, body["lists"].([]any), 1)

	resp, body = doJSON(t, studentClient, "DELETE", server.URL+"/api/lists/"+listID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestActivityFeedOverHTTP(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "teacher", true)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, client, server.URL+"/api/lists", map[string]string{"name": "Admin"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := getJSON(t, client, server.URL+"/api/activities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	activities := body["activities"].([]any)
	require.Len(t, activities, 1)
	activity := activities[0].(map[string]any)
	require.Equal(t, "Create List", activity["kind_label"])
	activityID := activity["id"].(string)

	resp, body = postJSON(t, client, server.URL+"/api/activities/"+activityID+"/comments", map[string]string{
		"body": "good start",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"])

	resp, body = getJSON(t, client, server.URL+"/api/activities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := body["activities"].([]any)[0].(map[string]any)["comments"].([]any)
	require.Len(t, comments, 1)
	require.Equal(t, "good start", comments[0].(map[string]any)["body"])
}

func TestFeedForbiddenForStudents(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "sam", false)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "sam", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = getJSON(t, client, server.URL+"/api/activities")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateUserOverHTTP(t *testing.T) {
	server, st := newTestServer(t, false)
	seedUser(t, st, "teacher", true)
	client := newClient(t)

	resp, _ := login(t, client, server.URL, "teacher", testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, client, server.URL+"/api/users", map[string]string{
		"username": "newkid",
		"email":    "newkid@example.edu",
		"password": "a long enough passphrase",
		"role":     "student",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "newkid", body["user"].(map[string]any)["username"])

	// Duplicate username conflicts.
	resp, body = postJSON(t, client, server.URL+"/api/users", map[string]string{
		"username": "newkid",
		"email":    "other@example.edu",
		"password": "a long enough passphrase",
		"role":     "student",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, false, body["success"])

	resp, body = getJSON(t, client, server.URL+"/api/students")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	students := body["students"].([]any)
	require.Len(t, students, 1)
	require.Equal(t, "newkid", students[0].(map[string]any)["username"])
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t, false)
	client := newClient(t)

	resp, err := client.Get(server.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(server.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
