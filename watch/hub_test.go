package watch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"courtside/globals"
	"courtside/middleware"
	"courtside/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &middleware.Claims{
		UserID: userID,
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server, string) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	router := httprouter.New()
	router.GET("/ws/classes", hub.HandleWS)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	t.Cleanup(hub.Stop)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/classes"
	return hub, server, url
}

func TestHubBroadcastsClassEvents(t *testing.T) {
	hub, _, url := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+signToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the server side to register the subscription.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	class := models.ClassSlot{ID: "c1", InstructorName: "Ana Kovac", IsAvailable: true}
	hub.ClassChanged("created", class)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event ClassEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Action != "created" {
		t.Errorf("action = %q, want created", event.Action)
	}
	if event.Class.ID != "c1" {
		t.Errorf("class id = %q, want c1", event.Class.ID)
	}
}

func TestHubAuthenticatesViaHeader(t *testing.T) {
	hub, _, url := newHubServer(t)

	header := http.Header{"Authorization": []string{"Bearer " + signToken(t, "u1")}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubRejectsUnauthenticatedSubscribers(t *testing.T) {
	_, _, url := newHubServer(t)

	cases := []struct {
		name string
		url  string
	}{
		{"no token", url},
		{"garbage token", url + "?token=not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tc.url, nil)
			if err == nil {
				t.Fatal("dial succeeded, want rejection")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %v, want 401", resp)
			}
		})
	}
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub, _, url := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+signToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// Broadcasting after the disconnect must not panic and the dead
	// connection ends up removed.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.ClassChanged("updated", models.ClassSlot{ID: "c2"})
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("dead connection never dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
