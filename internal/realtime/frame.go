package realtime

import (
	"encoding/json"
	"time"
)

// ProtocolVersion is carried in the "v" field of every frame envelope.
const ProtocolVersion = 1

// FrameType identifies a WebSocket frame using a custom enum type for better type safety
type FrameType string

const (
	// Client -> server
	FrameTypeSubscribe   FrameType = "subscribe"
	FrameTypeUnsubscribe FrameType = "unsubscribe"
	FrameTypeSendMessage FrameType = "send_message"

	// Server -> client
	FrameTypePresenceSnapshot FrameType = "presence_snapshot"
	FrameTypePresence         FrameType = "presence"
	FrameTypeSubscribed       FrameType = "subscribed"
	FrameTypeUnsubscribed     FrameType = "unsubscribed"
	FrameTypeMessage          FrameType = "message"
	FrameTypeNewMessage       FrameType = "new_message"
	FrameTypeError            FrameType = "error"

	// Cross-cutting notifications, delivered via NotifyUser/BroadcastAll
	FrameTypeUsersChanged    FrameType = "users_changed"
	FrameTypeChatsChanged    FrameType = "chats_changed"
	FrameTypeUnreadUpdate    FrameType = "unread_update"
	FrameTypeRemovedFromChat FrameType = "removed_from_chat"
)

// String returns the string representation of the FrameType
func (ft FrameType) String() string {
	return string(ft)
}

// Error codes sent in error frames. Codes are stable wire contract.
const (
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeStorageError   = "STORAGE_ERROR"
)

// InboundFrame is the superset of all fields a client may send. The Type
// field selects which of them are meaningful.
type InboundFrame struct {
	V            int             `json:"v"`
	Type         FrameType       `json:"type"`
	ChatID       uint            `json:"chat_id"`
	Content      *string         `json:"content,omitempty"`
	ContentType  string          `json:"content_type,omitempty"`
	Ciphertext   *string         `json:"ciphertext,omitempty"`
	Nonce        *string         `json:"nonce,omitempty"`
	Algo         *string         `json:"algo,omitempty"`
	AttachmentID *uint           `json:"attachment_id,omitempty"`
	Items        []EncryptedItem `json:"items,omitempty"`
}

// EncryptedItem is one per-recipient encrypted copy of a logical message.
type EncryptedItem struct {
	RecipientID uint   `json:"recipient_id"`
	Ciphertext  string `json:"ciphertext"`
	Nonce       string `json:"nonce"`
	Algo        string `json:"algo"`
}

// Frame is a generic outbound envelope. Only the fields relevant to the
// frame type are populated; the rest marshal away via omitempty.
type Frame struct {
	V             int          `json:"v"`
	Type          FrameType    `json:"type"`
	ChatID        *uint        `json:"chat_id,omitempty"`
	Message       *WireMessage `json:"message,omitempty"`
	UserID        *uint        `json:"user_id,omitempty"`
	Online        *bool        `json:"online,omitempty"`
	OnlineUserIDs []uint       `json:"online_user_ids,omitempty"`
}

// ErrorFrame is kept separate from Frame because its "message" field is a
// human-readable string, not a message body.
type ErrorFrame struct {
	V       int       `json:"v"`
	Type    FrameType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message,omitempty"`
}

// WireMessage is the full message body carried by a "message" frame.
type WireMessage struct {
	ID          uint            `json:"id"`
	Content     *string         `json:"content"`
	ContentType string          `json:"content_type"`
	Ciphertext  *string         `json:"ciphertext"`
	Nonce       *string         `json:"nonce"`
	Algo        *string         `json:"algo"`
	RecipientID *uint           `json:"recipient_id,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Sender      WireSender      `json:"sender"`
	Attachment  *WireAttachment `json:"attachment,omitempty"`
}

type WireSender struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type WireAttachment struct {
	ID        uint    `json:"id"`
	Filename  string  `json:"filename"`
	MimeType  string  `json:"mime_type"`
	SizeBytes int64   `json:"size_bytes"`
	Nonce     *string `json:"nonce,omitempty"`
	Algo      *string `json:"algo,omitempty"`
}

func (f *Frame) encode() []byte {
	data, err := json.Marshal(f)
	if err != nil {
		// Frames are built from plain value types; a marshal failure here is
		// a programming error, not a runtime condition.
		panic(err)
	}
	return data
}

func (f *ErrorFrame) encode() []byte {
	data, err := json.Marshal(f)
	if err != nil {
		panic(err)
	}
	return data
}

// Frame constructors for type safety and consistency

func NewPresenceSnapshotFrame(onlineUserIDs []uint) *Frame {
	if onlineUserIDs == nil {
		onlineUserIDs = []uint{}
	}
	return &Frame{V: ProtocolVersion, Type: FrameTypePresenceSnapshot, OnlineUserIDs: onlineUserIDs}
}

func NewPresenceFrame(userID uint, online bool) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypePresence, UserID: &userID, Online: &online}
}

func NewSubscribedFrame(chatID uint) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeSubscribed, ChatID: &chatID}
}

func NewUnsubscribedFrame(chatID uint) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeUnsubscribed, ChatID: &chatID}
}

func NewMessageFrame(chatID uint, msg *WireMessage) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeMessage, ChatID: &chatID, Message: msg}
}

// NewNewMessageFrame builds the lightweight activity signal that carries no
// message body, only the chat it happened in.
func NewNewMessageFrame(chatID uint) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeNewMessage, ChatID: &chatID}
}

func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{V: ProtocolVersion, Type: FrameTypeError, Code: code, Message: message}
}

func NewUsersChangedFrame() *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeUsersChanged}
}

func NewChatsChangedFrame() *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeChatsChanged}
}

func NewUnreadUpdateFrame(chatID uint) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeUnreadUpdate, ChatID: &chatID}
}

func NewRemovedFromChatFrame(chatID uint) *Frame {
	return &Frame{V: ProtocolVersion, Type: FrameTypeRemovedFromChat, ChatID: &chatID}
}
