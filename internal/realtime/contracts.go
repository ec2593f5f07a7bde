package realtime

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned by TokenResolver when the credential
	// token is invalid or expired. The handshake is rejected and no
	// connection state is created.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrClientClosed is returned by a send against a connection that has
	// already been torn down.
	ErrClientClosed = errors.New("client connection closed")
)

// Identity is the authenticated principal a connection belongs to.
type Identity struct {
	ID       uint
	Username string
}

// TokenResolver resolves a handshake credential token to a user identity.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// MembershipChecker reports whether a user participates in a chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID, userID uint) (bool, error)
}

// OutgoingMessage is the payload of an inbound send_message frame, handed
// to the store for persistence.
type OutgoingMessage struct {
	Content      *string
	ContentType  string
	Ciphertext   *string
	Nonce        *string
	Algo         *string
	AttachmentID *uint
	// Items carries per-recipient encrypted copies. When non-empty, one
	// logical message fans out into len(Items) stored rows.
	Items []EncryptedItem
}

// MessageStore durably persists a message. It may return more than one
// stored record: encrypted group messages store one row per recipient, and
// each row is broadcast independently.
type MessageStore interface {
	Persist(ctx context.Context, chatID, senderID uint, msg OutgoingMessage) ([]*WireMessage, error)
}

// RosterLookup lists the user ids participating in a chat, used to target
// new_message notifications after a send.
type RosterLookup interface {
	MembersOf(ctx context.Context, chatID uint) ([]uint, error)
}

// PresenceMirror receives online/offline transitions so presence can be
// observed outside the process (e.g. by the REST layer through Redis).
// Implementations must be best-effort; mirror failures never affect the
// connection.
type PresenceMirror interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

// EventPublisher receives chat lifecycle events for the audit stream.
type EventPublisher interface {
	PublishMessageStored(ctx context.Context, chatID, senderID, messageID uint) error
}
