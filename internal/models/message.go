package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Content type constants
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeFile  = "file"
)

/** --------------------ENTITIES-------------------- */

// Message is one stored message row. An encrypted group message stores one
// row per recipient, all sharing the same logical send.
type Message struct {
	gorm.Model
	ChatID      uint    `gorm:"index;not null" json:"chat_id"`
	SenderID    uint    `gorm:"index;not null" json:"sender_id"`
	RecipientID *uint   `gorm:"index" json:"recipient_id,omitempty"` // per-recipient encrypted rows only
	Content     *string `json:"content"`
	ContentType string  `gorm:"not null;default:text" json:"content_type"`
	Ciphertext  *string `gorm:"type:text" json:"ciphertext"`
	Nonce       *string `json:"nonce"`
	Algo        *string `json:"algo"`

	AttachmentID *uint       `json:"attachment_id,omitempty"`
	Attachment   *Attachment `gorm:"foreignKey:AttachmentID" json:"attachment,omitempty"`
	Sender       *User       `gorm:"foreignKey:SenderID" json:"-"`
}

// Attachment is the metadata row for a blob stored in the object store.
type Attachment struct {
	gorm.Model
	Filename  string  `gorm:"not null" json:"filename"`
	MimeType  string  `gorm:"not null" json:"mime_type"`
	SizeBytes int64   `json:"size_bytes"`
	ObjectKey string  `gorm:"uniqueIndex;not null" json:"-"`
	Nonce     *string `json:"nonce,omitempty"`
	Algo      *string `json:"algo,omitempty"`
}

// DeriveContentType maps an attachment MIME type onto the message content
// type used by clients to pick a renderer.
func DeriveContentType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ContentTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return ContentTypeVideo
	default:
		return ContentTypeFile
	}
}

/** -------------------- DTOs -------------------- */

type SendMessageRequest struct {
	Content      *string            `json:"content,omitempty"`
	ContentType  string             `json:"content_type"`
	Ciphertext   *string            `json:"ciphertext,omitempty"`
	Nonce        *string            `json:"nonce,omitempty"`
	Algo         *string            `json:"algo,omitempty"`
	AttachmentID *uint              `json:"attachment_id,omitempty"`
	Items        []EncryptedItemDTO `json:"items,omitempty"`
}

type EncryptedItemDTO struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Ciphertext  string `json:"ciphertext" binding:"required"`
	Nonce       string `json:"nonce" binding:"required"`
	Algo        string `json:"algo" binding:"required"`
}

type MessageResponse struct {
	ID          uint                `json:"id"`
	ChatID      uint                `json:"chat_id"`
	Content     *string             `json:"content"`
	ContentType string              `json:"content_type"`
	Ciphertext  *string             `json:"ciphertext"`
	Nonce       *string             `json:"nonce"`
	Algo        *string             `json:"algo"`
	RecipientID *uint               `json:"recipient_id,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
	Sender      SenderResponse      `json:"sender"`
	Attachment  *AttachmentResponse `json:"attachment,omitempty"`
}

type SenderResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type AttachmentResponse struct {
	ID        uint    `json:"id"`
	Filename  string  `json:"filename"`
	MimeType  string  `json:"mime_type"`
	SizeBytes int64   `json:"size_bytes"`
	Nonce     *string `json:"nonce,omitempty"`
	Algo      *string `json:"algo,omitempty"`
}

func NewMessageResponse(m *Message) MessageResponse {
	out := MessageResponse{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Content:     m.Content,
		ContentType: m.ContentType,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		Algo:        m.Algo,
		RecipientID: m.RecipientID,
		Timestamp:   m.CreatedAt,
	}
	if m.Sender != nil {
		out.Sender = SenderResponse{ID: m.Sender.ID, Username: m.Sender.Username}
	} else {
		out.Sender = SenderResponse{ID: m.SenderID}
	}
	if m.Attachment != nil {
		out.Attachment = &AttachmentResponse{
			ID:        m.Attachment.ID,
			Filename:  m.Attachment.Filename,
			MimeType:  m.Attachment.MimeType,
			SizeBytes: m.Attachment.SizeBytes,
			Nonce:     m.Attachment.Nonce,
			Algo:      m.Attachment.Algo,
		}
	}
	return out
}
