package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the real-time connection multiplexer. It owns the presence
// tracker and the registry, drives one read loop per connection, and fans
// messages out to subscriber snapshots. Collaborators (auth, membership,
// persistence, roster) are injected as narrow interfaces.
type Hub struct {
	log      *slog.Logger
	presence *PresenceTracker
	registry *Registry

	tokens     TokenResolver
	membership MembershipChecker
	store      MessageStore
	roster     RosterLookup

	// Optional collaborators; nil disables them.
	mirror PresenceMirror
	events EventPublisher

	ctx    context.Context
	cancel context.CancelFunc
}

// HubOption customizes optional hub collaborators.
type HubOption func(*Hub)

// WithPresenceMirror mirrors online/offline transitions to an external
// store, best-effort.
func WithPresenceMirror(mirror PresenceMirror) HubOption {
	return func(h *Hub) { h.mirror = mirror }
}

// WithEventPublisher publishes chat lifecycle events to the audit stream,
// best-effort.
func WithEventPublisher(events EventPublisher) HubOption {
	return func(h *Hub) { h.events = events }
}

func NewHub(log *slog.Logger, tokens TokenResolver, membership MembershipChecker, store MessageStore, roster RosterLookup, opts ...HubOption) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		log:        log,
		presence:   NewPresenceTracker(),
		registry:   NewRegistry(),
		tokens:     tokens,
		membership: membership,
		store:      store,
		roster:     roster,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Presence exposes the tracker for read-only queries from the REST layer.
func (h *Hub) Presence() *PresenceTracker { return h.presence }

// Attach runs the Connecting -> Open transition for a freshly upgraded
// transport: resolve the token, register the connection, emit the presence
// snapshot to it and a presence event to everyone else, then start the read
// loop. On authentication failure the transport is closed with a policy
// violation status and no state is created.
func (h *Hub) Attach(conn Conn, token string) (*Client, error) {
	identity, err := h.tokens.Resolve(h.ctx, token)
	if err != nil {
		h.log.Info("Handshake rejected", "error", err)
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"), deadline)
		conn.Close()
		if !errors.Is(err, ErrUnauthenticated) {
			err = errors.Join(ErrUnauthenticated, err)
		}
		return nil, err
	}

	client := newClient(conn, identity)

	count := h.presence.Connect(client.userID)
	h.registry.Register(client)
	h.log.Info("Client registered", "clientID", client.id, "userID", client.userID, "connections", count)

	if err := client.writeFrame(NewPresenceSnapshotFrame(h.presence.Snapshot())); err != nil {
		h.drop(client, "snapshot write failed")
		return nil, err
	}

	if count == 1 {
		if h.mirror != nil {
			if err := h.mirror.SetUserOnline(h.ctx, client.userID); err != nil {
				h.log.Error("Failed to mirror user online", "userID", client.userID, "error", err)
			}
		}
		h.broadcastAllExcept(client.id, NewPresenceFrame(client.userID, true))
	}

	go client.pingLoop()
	go h.readLoop(client)

	return client, nil
}

// readLoop is the Open-state dispatch loop: one inbound frame at a time,
// strictly sequential for this connection, until the transport fails or
// closes. Its exit is the Open -> Closed transition.
func (h *Hub) readLoop(c *Client) {
	defer h.drop(c, "connection closed")

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Error("Read error", "clientID", c.id, "userID", c.userID, "error", err)
			}
			return
		}
		h.dispatch(c, data)
	}
}

// drop is the single Open -> Closed teardown path. Every removal trigger
// (read error, failed send, forced close, shutdown) funnels here, and the
// sync.Once guarantees the registry and presence count are adjusted exactly
// once per connection even when triggers race.
func (h *Hub) drop(c *Client, reason string) {
	c.teardown.Do(func() {
		c.markClosed()
		c.conn.Close()

		if !h.registry.Unregister(c) {
			return
		}
		remaining := h.presence.Disconnect(c.userID)
		h.log.Info("Client unregistered", "clientID", c.id, "userID", c.userID, "reason", reason, "connections", remaining)

		if remaining == 0 {
			if h.mirror != nil {
				if err := h.mirror.SetUserOffline(h.ctx, c.userID); err != nil {
					h.log.Error("Failed to mirror user offline", "userID", c.userID, "error", err)
				}
			}
			h.broadcastAllExcept(c.id, NewPresenceFrame(c.userID, false))
		}
	})
}

// Stop closes every live connection and stops accepting work.
func (h *Hub) Stop() {
	h.cancel()
	for _, c := range h.registry.AllConnections() {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		h.drop(c, "server shutdown")
	}
}

// RemoveUserFromRoom force-unsubscribes all of a user's connections from a
// room, used when chat membership is revoked while the user is connected.
func (h *Hub) RemoveUserFromRoom(chatID, userID uint) {
	for _, c := range h.registry.ConnectionsFor(userID) {
		h.registry.Unsubscribe(c, chatID)
	}
}

func (h *Hub) dispatch(c *Client, data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.log.Debug("Undecodable frame", "clientID", c.id, "error", err)
		c.writeError(ErrCodeInvalidPayload, "malformed frame")
		return
	}

	switch frame.Type {
	case FrameTypeSubscribe:
		h.handleSubscribe(c, frame.ChatID)
	case FrameTypeUnsubscribe:
		h.handleUnsubscribe(c, frame.ChatID)
	case FrameTypeSendMessage:
		h.handleSendMessage(c, &frame)
	default:
		c.writeError(ErrCodeInvalidPayload, "unknown frame type")
	}
}

func (h *Hub) handleSubscribe(c *Client, chatID uint) {
	if chatID == 0 {
		c.writeError(ErrCodeInvalidPayload, "chat_id is required")
		return
	}

	ok, err := h.membership.IsMember(h.ctx, chatID, c.userID)
	if err != nil {
		h.log.Error("Membership check failed", "chatID", chatID, "userID", c.userID, "error", err)
		c.writeError(ErrCodeStorageError, "membership check failed")
		return
	}
	if !ok {
		c.writeError(ErrCodeForbidden, "not a member of this chat")
		return
	}

	h.registry.Subscribe(c, chatID)
	c.writeFrame(NewSubscribedFrame(chatID))
}

func (h *Hub) handleUnsubscribe(c *Client, chatID uint) {
	if chatID == 0 {
		c.writeError(ErrCodeInvalidPayload, "chat_id is required")
		return
	}

	// Removal is always safe, no membership re-check.
	h.registry.Unsubscribe(c, chatID)
	c.writeFrame(NewUnsubscribedFrame(chatID))
}

func (h *Hub) handleSendMessage(c *Client, frame *InboundFrame) {
	chatID := frame.ChatID
	if chatID == 0 {
		c.writeError(ErrCodeInvalidPayload, "chat_id is required")
		return
	}

	ok, err := h.membership.IsMember(h.ctx, chatID, c.userID)
	if err != nil {
		h.log.Error("Membership check failed", "chatID", chatID, "userID", c.userID, "error", err)
		c.writeError(ErrCodeStorageError, "membership check failed")
		return
	}
	if !ok {
		c.writeError(ErrCodeForbidden, "not a member of this chat")
		return
	}

	stored, err := h.store.Persist(h.ctx, chatID, c.userID, OutgoingMessage{
		Content:      frame.Content,
		ContentType:  frame.ContentType,
		Ciphertext:   frame.Ciphertext,
		Nonce:        frame.Nonce,
		Algo:         frame.Algo,
		AttachmentID: frame.AttachmentID,
		Items:        frame.Items,
	})
	if err != nil {
		// A message that failed to persist must not be broadcast.
		h.log.Error("Message persist failed", "chatID", chatID, "userID", c.userID, "error", err)
		c.writeError(ErrCodeStorageError, "failed to store message")
		return
	}

	h.DistributeStored(chatID, c.userID, stored)
}

// DistributeStored pushes stored message rows to the chat's subscribers and
// nudges every other member with a new_message frame. The REST send path
// calls this after persisting, so socket and HTTP sends fan out identically.
func (h *Hub) DistributeStored(chatID, senderID uint, stored []*WireMessage) {
	for _, msg := range stored {
		h.BroadcastRoom(chatID, NewMessageFrame(chatID, msg))
		if h.events != nil {
			if err := h.events.PublishMessageStored(h.ctx, chatID, senderID, msg.ID); err != nil {
				h.log.Error("Failed to publish message event", "messageID", msg.ID, "error", err)
			}
		}
	}

	members, err := h.roster.MembersOf(h.ctx, chatID)
	if err != nil {
		h.log.Error("Roster lookup failed", "chatID", chatID, "error", err)
		return
	}
	for _, memberID := range members {
		if memberID == senderID {
			continue
		}
		h.NotifyUser(memberID, NewNewMessageFrame(chatID))
	}
}
