package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
	apperrors "github.com/marviero/backoffice/pkg/errors"
)

// --- Mock Lookups ---

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.User, error) {
	args := m.Called(ctx, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockPublicLookup struct {
	mock.Mock
}

func (m *mockPublicLookup) GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.PublicUser, error) {
	args := m.Called(ctx, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicUser), args.Error(1)
}

// --- Test Harness ---

type harness struct {
	srv     *httptest.Server
	issuer  *auth.TokenIssuer
	users   *mockUserLookup
	publics *mockPublicLookup
	hub     *Hub
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	users := new(mockUserLookup)
	publics := new(mockPublicLookup)
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute, 168*time.Hour, time.Hour)
	hub := NewHub(log)
	handler := NewHandler(hub, NewGate(issuer, auth.NewResolver(users, publics)), "", log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeDefault)
	mux.HandleFunc("/ws-private", handler.ServePrivate)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &harness{srv: srv, issuer: issuer, users: users, publics: publics, hub: hub}
}

func (h *harness) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (h *harness) connect(t *testing.T, path, token string) (*websocket.Conn, Frame) {
	t.Helper()
	conn := h.dial(t, path)
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameHello, Token: token}))

	var reply Frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&reply))
	return conn, reply
}

func (h *harness) staffToken(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := h.issuer.SignSocketToken(user.UpdatedAt, domain.UserTypePrivate)
	require.NoError(t, err)
	return token
}

func adminUser() *domain.User {
	return &domain.User{
		ID:        "admin-1",
		Email:     "admin@example.com",
		Role:      domain.RoleAdmin,
		IsActive:  true,
		UpdatedAt: domain.Now(),
	}
}

func clientUser(clientID string) *domain.User {
	return &domain.User{
		ID:        "staff-1",
		Email:     "staff@example.com",
		Role:      domain.RoleClient,
		ClientID:  &clientID,
		IsActive:  true,
		UpdatedAt: domain.Now(),
	}
}

// --- Connection Gate Tests ---

func TestConnect_NoToken(t *testing.T) {
	h := newHarness(t)

	_, reply := h.connect(t, "/ws", "")

	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "Authentication required", reply.Message)
	assert.Equal(t, 0, h.hub.ConnectionCount())
}

func TestConnect_GarbageToken(t *testing.T) {
	h := newHarness(t)

	_, reply := h.connect(t, "/ws", "not-a-jwt")

	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "Invalid token", reply.Message)
}

func TestConnect_AccessTokenWrongPurpose(t *testing.T) {
	h := newHarness(t)
	user := adminUser()

	access, err := h.issuer.SignAccessToken(user.UpdatedAt, domain.UserTypePrivate)
	require.NoError(t, err)

	_, reply := h.connect(t, "/ws", access)

	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "Invalid token purpose", reply.Message)
	h.users.AssertNotCalled(t, "GetByUpdatedAt", mock.Anything, mock.Anything)
}

func TestConnect_Success(t *testing.T) {
	h := newHarness(t)
	user := adminUser()
	h.users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	_, reply := h.connect(t, "/ws", h.staffToken(t, user))

	assert.Equal(t, FrameWelcome, reply.Type)
	assert.Equal(t, "Connected", reply.Message)
	assert.NotEmpty(t, reply.SocketID)
	assert.NotEmpty(t, reply.Now)
}

func TestConnect_UnknownSnapshot(t *testing.T) {
	h := newHarness(t)
	user := adminUser()
	h.users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(nil, apperrors.ErrNotFound)

	_, reply := h.connect(t, "/ws", h.staffToken(t, user))

	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "User not found", reply.Message)
}

func TestConnect_TokenFromQuery(t *testing.T) {
	h := newHarness(t)
	user := adminUser()
	h.users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	conn := h.dial(t, "/ws?token="+h.staffToken(t, user))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameHello}))

	var reply Frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, FrameWelcome, reply.Type)
}

func TestPrivateNamespace_RejectsPublicBeforeLookup(t *testing.T) {
	h := newHarness(t)

	token, err := h.issuer.SignSocketToken(domain.Now(), domain.UserTypePublic)
	require.NoError(t, err)

	_, reply := h.connect(t, "/ws-private", token)

	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "Namespace is for private users only", reply.Message)
	// neither table is queried once the type check fails
	h.users.AssertNotCalled(t, "GetByUpdatedAt", mock.Anything, mock.Anything)
	h.publics.AssertNotCalled(t, "GetByUpdatedAt", mock.Anything, mock.Anything)
}

func TestPrivateNamespace_IgnoresQueryToken(t *testing.T) {
	h := newHarness(t)
	user := adminUser()

	conn := h.dial(t, "/ws-private?token="+h.staffToken(t, user))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameHello}))

	var reply Frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&reply))

	// the query carrier only works on the default endpoint
	assert.Equal(t, FrameConnectError, reply.Type)
	assert.Equal(t, "Authentication required", reply.Message)
}

func TestPrivateNamespace_StaffConnects(t *testing.T) {
	h := newHarness(t)
	user := clientUser("client-1")
	h.users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	_, reply := h.connect(t, "/ws-private", h.staffToken(t, user))

	assert.Equal(t, FrameWelcome, reply.Type)
}

// --- Room Authorization Tests ---

func TestJoin_AdminRoom(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(log)

	admin := &Client{id: "s1", hub: hub, identity: &domain.Identity{ID: "u1", Role: domain.RoleAdmin, Type: domain.UserTypePrivate}, send: make(chan []byte, 1)}
	clientID := "client-1"
	staff := &Client{id: "s2", hub: hub, identity: &domain.Identity{ID: "u2", Role: domain.RoleClient, Type: domain.UserTypePrivate, ClientID: &clientID}, send: make(chan []byte, 1)}
	public := &Client{id: "s3", hub: hub, identity: &domain.Identity{ID: "u3", Role: domain.RolePublicUser, Type: domain.UserTypePublic}, send: make(chan []byte, 1)}

	hub.register(admin)
	hub.register(staff)
	hub.register(public)

	hub.Join(admin, AdminRoom)
	hub.Join(staff, AdminRoom)
	hub.Join(public, AdminRoom)

	assert.True(t, hub.InRoom(admin, AdminRoom))
	assert.False(t, hub.InRoom(staff, AdminRoom))
	assert.False(t, hub.InRoom(public, AdminRoom))
}

func TestJoin_ClientRoomIdentityBound(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(log)

	admin := &Client{id: "s1", hub: hub, identity: &domain.Identity{ID: "u1", Role: domain.RoleAdmin, Type: domain.UserTypePrivate}, send: make(chan []byte, 1)}
	clientID := "client-1"
	staff := &Client{id: "s2", hub: hub, identity: &domain.Identity{ID: "u2", Role: domain.RoleClient, Type: domain.UserTypePrivate, ClientID: &clientID}, send: make(chan []byte, 1)}
	public := &Client{id: "s3", hub: hub, identity: &domain.Identity{ID: "u3", Role: domain.RolePublicUser, Type: domain.UserTypePublic}, send: make(chan []byte, 1)}

	hub.register(admin)
	hub.register(staff)
	hub.register(public)

	// admin joins any tenant room
	hub.Join(admin, ClientRoom("client-2"))
	assert.True(t, hub.InRoom(admin, ClientRoom("client-2")))

	// staff joins only its own tenant room
	hub.Join(staff, ClientRoom("client-1"))
	hub.Join(staff, ClientRoom("client-2"))
	assert.True(t, hub.InRoom(staff, ClientRoom("client-1")))
	assert.False(t, hub.InRoom(staff, ClientRoom("client-2")))

	// public joins nothing
	hub.Join(public, ClientRoom("client-1"))
	assert.False(t, hub.InRoom(public, ClientRoom("client-1")))
}

func TestJoin_Idempotent(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(log)

	admin := &Client{id: "s1", hub: hub, identity: &domain.Identity{ID: "u1", Role: domain.RoleAdmin, Type: domain.UserTypePrivate}, send: make(chan []byte, 2)}
	hub.register(admin)

	hub.Join(admin, AdminRoom)
	hub.Join(admin, AdminRoom)

	hub.Broadcast(AdminRoom, "order.created", json.RawMessage(`{"order_id":"o1"}`))
	assert.Len(t, admin.send, 1)
}

func TestBroadcast_ReachesRoomOnly(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(log)

	clientID := "client-1"
	member := &Client{id: "s1", hub: hub, identity: &domain.Identity{ID: "u1", Role: domain.RoleClient, Type: domain.UserTypePrivate, ClientID: &clientID}, send: make(chan []byte, 4)}
	outsider := &Client{id: "s2", hub: hub, identity: &domain.Identity{ID: "u2", Role: domain.RoleAdmin, Type: domain.UserTypePrivate}, send: make(chan []byte, 4)}

	hub.register(member)
	hub.register(outsider)
	hub.Join(member, ClientRoom("client-1"))

	hub.Broadcast(ClientRoom("client-1"), "order.updated", json.RawMessage(`{"order_id":"o1","status":"CONFIRMED"}`))

	require.Len(t, member.send, 1)
	assert.Empty(t, outsider.send)

	var frame Frame
	require.NoError(t, json.Unmarshal(<-member.send, &frame))
	assert.Equal(t, FrameEvent, frame.Type)
	assert.Equal(t, "order.updated", frame.Event)
	assert.JSONEq(t, `{"order_id":"o1","status":"CONFIRMED"}`, string(frame.Payload))
}

func TestJoinOverWire(t *testing.T) {
	h := newHarness(t)
	user := adminUser()
	h.users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	conn, reply := h.connect(t, "/ws-private", h.staffToken(t, user))
	require.Equal(t, FrameWelcome, reply.Type)

	require.NoError(t, conn.WriteJSON(Frame{Type: FrameJoinAdmin}))

	// the join is processed by the read pump; wait for it to land
	require.Eventually(t, func() bool {
		h.hub.mu.RLock()
		defer h.hub.mu.RUnlock()
		return len(h.hub.rooms[AdminRoom]) == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.hub.Broadcast(AdminRoom, "order.created", json.RawMessage(`{"order_id":"o1"}`))

	var frame Frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, FrameEvent, frame.Type)
	assert.Equal(t, "order.created", frame.Event)
}
