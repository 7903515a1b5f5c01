package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/auth"
	"github.com/rmehta/truthdare/internal/middleware"
)

// OutboundFrame is one message pushed to a connected bridge adapter, which
// relays it to the chat platform.
type OutboundFrame struct {
	Type    string     `json:"type"`
	RoomID  int64      `json:"room_id"`
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Gateway accepts websocket connections from chat-platform bridge adapters
// and implements Messenger on top of them. Inbound frames are decoded into
// InboundEvents and handed to the dispatch handler; Notify fans outbound
// frames to every connected adapter. Last-seen identities from inbound
// traffic are cached so ResolveIdentity rarely needs the user directory.
type Gateway struct {
	log   *logrus.Logger
	users UserDirectory

	handler func(context.Context, InboundEvent)

	mu    sync.Mutex
	conns map[*bridgeConn]struct{}
	ids   map[int64]map[int64]Identity
}

type bridgeConn struct {
	out    chan OutboundFrame
	cancel context.CancelFunc
}

// NewGateway builds a gateway over the given user directory. The dispatch
// handler must be set with SetHandler before serving.
func NewGateway(logger *logrus.Logger, users UserDirectory) *Gateway {
	return &Gateway{
		log:   logger,
		users: users,
		conns: make(map[*bridgeConn]struct{}),
		ids:   make(map[int64]map[int64]Identity),
	}
}

// SetHandler installs the inbound event handler. Each event is handled on
// its own goroutine; ordering between rooms is not guaranteed and ordering
// within a room is enforced by the engine's per-room lock.
func (g *Gateway) SetHandler(fn func(context.Context, InboundEvent)) {
	g.handler = fn
}

// Handler returns the HTTP handler for the bridge websocket endpoint.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adapter, err := auth.VerifyBridgeToken(bearerToken(r))
		if err != nil {
			g.log.Warnf("bridge auth failed: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols: []string{"bridge"},
		})
		if err != nil {
			g.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "bridge" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the bridge subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &bridgeConn{
			out:    make(chan OutboundFrame, 64),
			cancel: cancel,
		}
		g.addConn(conn)
		middleware.LogWebSocketConnect(g.log, r.RemoteAddr, r.URL.Path)
		g.log.WithField("adapter", adapter).Info("Bridge connected")

		go g.writePump(ctx, c, conn)
		err = g.readPump(ctx, c)

		g.removeConn(conn)
		cancel()
		middleware.LogWebSocketDisconnect(g.log, r.RemoteAddr, r.URL.Path, err)
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (g *Gateway) addConn(conn *bridgeConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[conn] = struct{}{}
}

func (g *Gateway) removeConn(conn *bridgeConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, conn)
}

func (g *Gateway) readPump(ctx context.Context, c *websocket.Conn) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var ev InboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			g.log.Warnf("invalid bridge frame: %v", err)
			continue
		}
		g.observe(ev)
		if g.handler != nil {
			go g.handler(context.WithoutCancel(ctx), ev)
		}
	}
}

func (g *Gateway) writePump(ctx context.Context, c *websocket.Conn, conn *bridgeConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-conn.out:
			data, err := json.Marshal(frame)
			if err != nil {
				g.log.Errorf("marshal outbound frame: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				g.log.Warnf("bridge write error: %v", err)
				return
			}
		}
	}
}

// observe caches the sender's identity and refreshes the persistent name
// cache. Directory failures are logged, not surfaced; a stale name is better
// than a failed transition.
func (g *Gateway) observe(ev InboundEvent) {
	if ev.UserID == 0 {
		return
	}
	id := Identity{
		DisplayName: ev.DisplayName,
		Username:    ev.Username,
		IsAdmin:     ev.IsAdmin,
	}

	g.mu.Lock()
	room, ok := g.ids[ev.RoomID]
	if !ok {
		room = make(map[int64]Identity)
		g.ids[ev.RoomID] = room
	}
	room[ev.UserID] = id
	g.mu.Unlock()

	if g.users != nil && (ev.Username != "" || ev.DisplayName != "") {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.users.UpsertUserInfo(ctx, ev.UserID, ev.Username, ev.DisplayName); err != nil {
			g.log.Warnf("failed to cache user %d info: %v", ev.UserID, err)
		}
	}
}

// ResolveIdentity checks the live cache first, then the user directory.
func (g *Gateway) ResolveIdentity(ctx context.Context, roomID, userID int64) (Identity, error) {
	g.mu.Lock()
	if room, ok := g.ids[roomID]; ok {
		if id, ok := room[userID]; ok {
			g.mu.Unlock()
			return id, nil
		}
	}
	g.mu.Unlock()

	if g.users != nil {
		username, displayName, err := g.users.LookupUser(ctx, userID)
		if err == nil {
			return Identity{DisplayName: displayName, Username: username}, nil
		}
	}
	return Identity{}, ErrLookupFailed
}

// Notify fans the message out to every connected bridge. Full adapter
// buffers drop the frame for that adapter rather than blocking a
// transition.
func (g *Gateway) Notify(_ context.Context, roomID int64, text string, buttons [][]Button) error {
	frame := OutboundFrame{
		Type:    "notify",
		RoomID:  roomID,
		Text:    text,
		Buttons: buttons,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.conns) == 0 {
		return errors.New("no bridge adapter connected")
	}
	for conn := range g.conns {
		select {
		case conn.out <- frame:
		default:
			g.log.Warn("bridge buffer full, dropping frame")
		}
	}
	return nil
}
