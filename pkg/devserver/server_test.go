package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lecternhq/lectern/pkg/protocol"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func dialTest(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var v map[string]any
	if err := wsjson.Read(ctx, conn, &v); err != nil {
		t.Fatalf("Read: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	url := startTestServer(t)

	resp, err := http.Get(url + "/healthz")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %s", body)
	}
}

func TestWelcomeOnConnect(t *testing.T) {
	conn := dialTest(t, startTestServer(t))

	v := readReply(t, conn)
	if v["type"] != "welcome" {
		t.Errorf("type = %v, want welcome", v["type"])
	}
	if content, _ := v["content"].(string); content == "" {
		t.Error("welcome carries no content")
	}
}

func TestReplies(t *testing.T) {
	fileData := "data:text/plain;base64,aGk="
	filename := "notes.pdf"
	fileType := "application/pdf"
	fileSize := int64(2)

	tests := []struct {
		name       string
		send       any
		wantStatus string
		wantField  string
		wantValue  string
	}{
		{
			name:       "text gets success message",
			send:       protocol.NewEnvelope("explain osmosis", nil),
			wantStatus: "success",
			wantField:  "message",
			wantValue:  `Let me think about "explain osmosis". (dev server echo)`,
		},
		{
			name: "file gets file confirmation",
			send: protocol.Envelope{
				Text:     "here you go",
				FileData: &fileData,
				Filename: &filename,
				FileType: &fileType,
				FileSize: &fileSize,
			},
			wantStatus: "success",
			wantField:  "filename",
			wantValue:  "notes.pdf",
		},
		{
			name:       "empty text gets error",
			send:       protocol.NewEnvelope("", nil),
			wantStatus: "error",
			wantField:  "message",
			wantValue:  "empty message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialTest(t, startTestServer(t))
			readReply(t, conn) // welcome

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := wsjson.Write(ctx, conn, tt.send); err != nil {
				t.Fatalf("Write: %v", err)
			}

			v := readReply(t, conn)
			if v["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", v["status"], tt.wantStatus)
			}
			if v[tt.wantField] != tt.wantValue {
				t.Errorf("%s = %v, want %q", tt.wantField, v[tt.wantField], tt.wantValue)
			}
		})
	}
}

func TestInvalidFrameGetsError(t *testing.T) {
	conn := dialTest(t, startTestServer(t))
	readReply(t, conn) // welcome

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("not-json")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	v := readReply(t, conn)
	if v["status"] != "error" || v["message"] != "invalid message format" {
		raw, _ := json.Marshal(v)
		t.Errorf("reply = %s, want invalid-format error", raw)
	}
}
