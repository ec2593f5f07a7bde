package models

import (
	"time"

	"gorm.io/gorm"
)

// Chat type constants
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

/** --------------------ENTITIES-------------------- */

// Chat is a logical room connections subscribe to for full message bodies.
type Chat struct {
	gorm.Model
	ChatType string  `gorm:"not null;type:varchar(20);check:chat_type IN ('private', 'group')" json:"chat_type"`
	Title    *string `json:"title,omitempty"` // group chats only

	Participants []*User `gorm:"many2many:chat_participants" json:"-"`
}

// UserChatState keeps per-user read progress for one chat.
type UserChatState struct {
	UserID            uint `gorm:"primaryKey" json:"user_id"`
	ChatID            uint `gorm:"primaryKey" json:"chat_id"`
	LastReadMessageID uint `json:"last_read_message_id"`
	UpdatedAt         time.Time
}

/** -------------------- DTOs -------------------- */

type PrivateChatRequest struct {
	TargetUserID uint `json:"target_user_id" binding:"required"`
}

type GroupChatRequest struct {
	Title     string `json:"title" binding:"required,min=1,max=100"`
	MemberIDs []uint `json:"member_ids" binding:"required,min=1"`
}

type UpdateMembersRequest struct {
	MemberIDs []uint `json:"member_ids" binding:"required,min=1"`
}

type MarkReadRequest struct {
	LastReadMessageID uint `json:"last_read_message_id" binding:"required"`
}

type ChatResponse struct {
	ID           uint           `json:"id"`
	ChatType     string         `json:"chat_type"`
	Title        *string        `json:"title,omitempty"`
	Participants []UserResponse `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
}

func NewChatResponse(c *Chat) ChatResponse {
	participants := make([]UserResponse, 0, len(c.Participants))
	for _, u := range c.Participants {
		participants = append(participants, NewUserResponse(u))
	}
	return ChatResponse{
		ID:           c.ID,
		ChatType:     c.ChatType,
		Title:        c.Title,
		Participants: participants,
		CreatedAt:    c.CreatedAt,
	}
}
