package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/musicroom/internal/config"
	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type AppFlowSuite struct {
	suite.Suite
}

type visitor struct {
	t      provider.T
	base   string
	client *http.Client
}

func (v *visitor) do(method string, path string, body any) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(v.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, v.base+path, reader)
	require.NoError(v.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	require.NoError(v.t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(v.t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func freePort(t provider.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
}

// startApp runs the whole service on a free port with in-memory storage.
func startApp(t provider.T) string {
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	cfg.Storage.Mode = config.StorageModeMemory
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = freePort(t)
	cfg.HTTP.Mode = gin.TestMode
	cfg.Session.Secret = "test-secret"
	cfg.Playback.PollInterval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Go(ctx, cfg) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Errorf("app did not stop")
		}
	})

	base := "http://" + cfg.HTTP.Host + ":" + cfg.HTTP.Port + "/api/v1"
	require.True(t, waitForService(base), "service did not come up")
	return base
}

func waitForService(base string) bool {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(base + "/rooms")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func newVisitor(t provider.T, base string) *visitor {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &visitor{t: t, base: base, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (s *AppFlowSuite) TestRoomLifecycle(t provider.T) {
	base := startApp(t)
	host, guest := newVisitor(t, base), newVisitor(t, base)

	status, room := host.do(http.MethodPost, "/rooms", map[string]any{"votes_to_skip": 2})
	require.Equal(t, http.StatusCreated, status)
	code, _ := room["code"].(string)
	require.Len(t, code, model.RoomCodeLength)

	status, _ = guest.do(http.MethodPost, "/rooms/"+code+"/join", nil)
	require.Equal(t, http.StatusOK, status)
	status, inRoom := guest.do(http.MethodGet, "/user-in-room", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, code, inRoom["code"])

	// No linked account: nothing to show, and guests have no track to vote on.
	status, _ = guest.do(http.MethodGet, "/playback/current-song", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = guest.do(http.MethodPost, "/playback/skip", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = host.do(http.MethodPost, "/playback/skip", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	status, linked := host.do(http.MethodGet, "/spotify/is-authenticated", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, linked["status"])

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	status, _ = host.do(http.MethodPost, "/rooms/leave", nil)
	require.Equal(t, http.StatusNoContent, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == model.EventRoomClosed {
			assert.Equal(t, code, msg["room_code"])
			break
		}
	}

	status, _ = guest.do(http.MethodGet, "/rooms/"+code, nil)
	assert.Equal(t, http.StatusNotFound, status)
	_, inRoom = guest.do(http.MethodGet, "/user-in-room", nil)
	assert.Equal(t, "", inRoom["code"])
}

func TestAppFlowSuite(t *testing.T) {
	suite.RunSuite(t, new(AppFlowSuite))
}
