package webservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{Location: srv.URL, HTTP: srv.Client()}
}

func TestPollUpdated(t *testing.T) {
	t.Parallel()

	var gotPrefer, gotUpdateID string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathZoneConfig {
			t.Errorf("path: %s", r.URL.Path)
		}
		gotPrefer = r.Header.Get("Prefer")
		gotUpdateID = r.Header.Get("updateID")
		w.Header().Set("updateID", "17")
		_, _ = w.Write([]byte("<zoneConfig/>"))
	}))

	body, id, result, err := c.Poll(context.Background(), PathZoneConfig, "16", 15*time.Second)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result != PollUpdated {
		t.Fatalf("result: %v", result)
	}
	if string(body) != "<zoneConfig/>" {
		t.Fatalf("body: %q", body)
	}
	if id != "17" {
		t.Fatalf("new cursor: %q", id)
	}
	if gotPrefer != "wait=15" {
		t.Fatalf("Prefer header: %q", gotPrefer)
	}
	if gotUpdateID != "16" {
		t.Fatalf("updateID header: %q", gotUpdateID)
	}
}

func TestPollFirstCallOmitsCursor(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Updateid"]; ok {
			t.Errorf("first poll must not send a cursor, got %q", r.Header.Get("updateID"))
		}
		w.Header().Set("updateID", "1")
		_, _ = w.Write([]byte("<hostInfo/>"))
	}))

	if _, _, _, err := c.Poll(context.Background(), PathHostInfo, "", 15*time.Second); err != nil {
		t.Fatalf("Poll: %v", err)
	}
}

func TestPollUnchangedKeepsCursor(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))

	body, id, result, err := c.Poll(context.Background(), PathDevices, "42", time.Second)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result != PollUnchanged {
		t.Fatalf("result: %v", result)
	}
	if body != nil {
		t.Fatalf("unexpected body: %q", body)
	}
	if id != "42" {
		t.Fatalf("cursor must be retained, got %q", id)
	}
}

func TestPollServerError(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	if _, _, _, err := c.Poll(context.Background(), PathSystemState, "", time.Second); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestPollCancellable(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, _, err := c.Poll(ctx, PathHostInfo, "", 15*time.Second); err == nil {
		t.Fatalf("expected error when the context expires mid-poll")
	}
}

func TestConnectRoomsToZoneQuery(t *testing.T) {
	t.Parallel()

	var path, zoneUDN, roomUDNs string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		zoneUDN = r.URL.Query().Get("zoneUDN")
		roomUDNs = r.URL.Query().Get("roomUDNs")
	}))

	err := c.ConnectRoomsToZone(context.Background(), "z1", []string{"r1", "r2", "r3"})
	if err != nil {
		t.Fatalf("ConnectRoomsToZone: %v", err)
	}
	if path != "/connectRoomsToZone" {
		t.Fatalf("path: %s", path)
	}
	if zoneUDN != "z1" {
		t.Fatalf("zoneUDN: %q", zoneUDN)
	}
	if roomUDNs != "r1,r2,r3" {
		t.Fatalf("roomUDNs: %q", roomUDNs)
	}
}

func TestConnectRoomsToZoneNewZoneOmitsUDN(t *testing.T) {
	t.Parallel()

	var query string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
	}))

	if err := c.ConnectRoomsToZone(context.Background(), "", []string{"r1"}); err != nil {
		t.Fatalf("ConnectRoomsToZone: %v", err)
	}
	if query != "roomUDNs=r1" {
		t.Fatalf("query: %q", query)
	}
}

func TestDropRoomAndStandby(t *testing.T) {
	t.Parallel()

	type call struct{ path, room string }
	var calls []call
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.URL.Path, r.URL.Query().Get("roomUDN")})
	}))

	ctx := context.Background()
	if err := c.DropRoom(ctx, "r1"); err != nil {
		t.Fatalf("DropRoom: %v", err)
	}
	if err := c.EnterManualStandby(ctx, "r1"); err != nil {
		t.Fatalf("EnterManualStandby: %v", err)
	}
	if err := c.LeaveStandby(ctx, "r1"); err != nil {
		t.Fatalf("LeaveStandby: %v", err)
	}

	want := []call{
		{"/dropRoomJob", "r1"},
		{"/enterManualStandby", "r1"},
		{"/leaveStandby", "r1"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestActionErrorStatus(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	if err := c.DropRoom(context.Background(), "r1"); err == nil {
		t.Fatalf("expected error on 400")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Ping" {
			t.Errorf("path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`<response><hardwareModel>Raumfeld One</hardwareModel><hardwareNumber>12345</hardwareNumber></response>`))
	}))

	pong, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong.HardwareModel != "Raumfeld One" || pong.HardwareNumber != "12345" {
		t.Fatalf("pong: %+v", pong)
	}
}
