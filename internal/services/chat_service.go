package services

import (
	"context"
	"errors"
	"fmt"

	"chat-relay/internal/models"
	"chat-relay/internal/realtime"
	"chat-relay/internal/repositories/mysql"

	"gorm.io/gorm"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrNotMember    = errors.New("user is not a member of this chat")
	ErrEmptyMessage = errors.New("message has no content, ciphertext or attachment")
	ErrSelfChat     = errors.New("cannot open a private chat with yourself")
	ErrUserNotFound = errors.New("user not found")
	ErrNotGroupChat = errors.New("membership can only change on group chats")
	ErrLastMember   = errors.New("cannot remove every member of a chat")
)

// ChatService owns chat rooms, membership and message persistence. It
// implements realtime.MembershipChecker, realtime.MessageStore and
// realtime.RosterLookup, so the hub authorizes subscriptions and persists
// sends through the same code path as the REST API.
type ChatService struct {
	chatRepo       *mysql.ChatRepository
	userRepo       *mysql.UserRepository
	messageRepo    *mysql.MessageRepository
	attachmentRepo *mysql.AttachmentRepository
	stateRepo      *mysql.ChatStateRepository
}

func NewChatService(
	chatRepo *mysql.ChatRepository,
	userRepo *mysql.UserRepository,
	messageRepo *mysql.MessageRepository,
	attachmentRepo *mysql.AttachmentRepository,
	stateRepo *mysql.ChatStateRepository,
) *ChatService {
	return &ChatService{
		chatRepo:       chatRepo,
		userRepo:       userRepo,
		messageRepo:    messageRepo,
		attachmentRepo: attachmentRepo,
		stateRepo:      stateRepo,
	}
}

// =============================================================================
// Chats
// =============================================================================

// CreatePrivateChat opens a private chat between two users, reusing the
// existing one when the pair already has a chat. The second return value
// reports whether a new chat was created.
func (s *ChatService) CreatePrivateChat(userID, targetID uint) (*models.ChatResponse, bool, error) {
	if userID == targetID {
		return nil, false, ErrSelfChat
	}

	if existing, err := s.chatRepo.FindPrivateBetween(userID, targetID); err == nil {
		resp := models.NewChatResponse(existing)
		return &resp, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup private chat: %w", err)
	}

	participants, err := s.loadUsers([]uint{userID, targetID})
	if err != nil {
		return nil, false, err
	}

	chat := &models.Chat{
		ChatType:     models.ChatTypePrivate,
		Participants: participants,
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, false, fmt.Errorf("create chat: %w", err)
	}

	resp := models.NewChatResponse(chat)
	return &resp, true, nil
}

// CreateGroupChat creates a group chat. The creator is always a member,
// whether or not they listed themselves.
func (s *ChatService) CreateGroupChat(creatorID uint, req *models.GroupChatRequest) (*models.ChatResponse, error) {
	memberIDs := append([]uint{creatorID}, req.MemberIDs...)
	participants, err := s.loadUsers(dedupe(memberIDs))
	if err != nil {
		return nil, err
	}

	title := req.Title
	chat := &models.Chat{
		ChatType:     models.ChatTypeGroup,
		Title:        &title,
		Participants: participants,
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	resp := models.NewChatResponse(chat)
	return &resp, nil
}

func (s *ChatService) ListChats(userID uint) ([]models.ChatResponse, error) {
	chats, err := s.chatRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	out := make([]models.ChatResponse, 0, len(chats))
	for _, chat := range chats {
		out = append(out, models.NewChatResponse(chat))
	}
	return out, nil
}

func (s *ChatService) GetChat(chatID, userID uint) (*models.ChatResponse, error) {
	if err := s.requireMember(chatID, userID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("load chat: %w", err)
	}

	resp := models.NewChatResponse(chat)
	return &resp, nil
}

// RemoveMembers drops the given users from a group chat and returns the ids
// actually removed. The caller is responsible for pushing removed_from_chat
// frames and force-unsubscribing live connections.
func (s *ChatService) RemoveMembers(chatID, actorID uint, memberIDs []uint) ([]uint, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if chat.ChatType != models.ChatTypeGroup {
		return nil, ErrNotGroupChat
	}
	if err := s.requireMember(chatID, actorID); err != nil {
		return nil, err
	}

	current, err := s.chatRepo.MemberIDs(chatID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	memberSet := make(map[uint]struct{}, len(current))
	for _, id := range current {
		memberSet[id] = struct{}{}
	}

	var removed []uint
	var victims []*models.User
	for _, id := range dedupe(memberIDs) {
		if _, ok := memberSet[id]; !ok {
			continue
		}
		removed = append(removed, id)
		victims = append(victims, &models.User{Model: gorm.Model{ID: id}})
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if len(removed) >= len(current) {
		return nil, ErrLastMember
	}

	if err := s.chatRepo.RemoveParticipants(chat, victims); err != nil {
		return nil, fmt.Errorf("remove participants: %w", err)
	}
	return removed, nil
}

// MarkRead advances the caller's read pointer for a chat.
func (s *ChatService) MarkRead(userID, chatID, lastReadMessageID uint) (*models.UserChatState, error) {
	if err := s.requireMember(chatID, userID); err != nil {
		return nil, err
	}
	state, err := s.stateRepo.Upsert(userID, chatID, lastReadMessageID)
	if err != nil {
		return nil, fmt.Errorf("update read state: %w", err)
	}
	return state, nil
}

// =============================================================================
// Messages
// =============================================================================

func (s *ChatService) ListMessages(chatID, userID uint) ([]models.MessageResponse, error) {
	if err := s.requireMember(chatID, userID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.FindByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, models.NewMessageResponse(m))
	}
	return out, nil
}

// SendMessage persists a REST-submitted message and returns a response per
// stored row.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uint, req *models.SendMessageRequest) ([]models.MessageResponse, []*realtime.WireMessage, error) {
	msg := realtime.OutgoingMessage{
		Content:      req.Content,
		ContentType:  req.ContentType,
		Ciphertext:   req.Ciphertext,
		Nonce:        req.Nonce,
		Algo:         req.Algo,
		AttachmentID: req.AttachmentID,
	}
	for _, item := range req.Items {
		msg.Items = append(msg.Items, realtime.EncryptedItem(item))
	}

	wire, err := s.Persist(ctx, chatID, senderID, msg)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.MessageResponse, 0, len(wire))
	for _, wm := range wire {
		out = append(out, wireToResponse(chatID, wm))
	}
	return out, wire, nil
}

// =============================================================================
// realtime collaborator interfaces
// =============================================================================

func (s *ChatService) IsMember(ctx context.Context, chatID, userID uint) (bool, error) {
	return s.chatRepo.IsMember(chatID, userID)
}

func (s *ChatService) MembersOf(ctx context.Context, chatID uint) ([]uint, error) {
	return s.chatRepo.MemberIDs(chatID)
}

// Persist stores one logical message. Plaintext and single-ciphertext sends
// store one row; per-recipient encrypted sends store one row per item. Each
// stored row becomes one wire message, broadcast independently.
func (s *ChatService) Persist(ctx context.Context, chatID, senderID uint, msg realtime.OutgoingMessage) ([]*realtime.WireMessage, error) {
	ok, err := s.chatRepo.IsMember(chatID, senderID)
	if err != nil {
		return nil, fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}

	rows, err := s.buildRows(chatID, senderID, msg)
	if err != nil {
		return nil, err
	}
	if err := s.messageRepo.CreateAll(rows); err != nil {
		return nil, fmt.Errorf("store messages: %w", err)
	}

	out := make([]*realtime.WireMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, toWireMessage(row))
	}
	return out, nil
}

func (s *ChatService) buildRows(chatID, senderID uint, msg realtime.OutgoingMessage) ([]*models.Message, error) {
	contentType := msg.ContentType
	if contentType == "" {
		contentType = models.ContentTypeText
	}

	var attachmentID *uint
	if msg.AttachmentID != nil {
		attachment, err := s.attachmentRepo.FindByID(*msg.AttachmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("attachment %d: %w", *msg.AttachmentID, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("load attachment: %w", err)
		}
		contentType = models.DeriveContentType(attachment.MimeType)
		attachmentID = &attachment.ID
	}

	if len(msg.Items) > 0 {
		rows := make([]*models.Message, 0, len(msg.Items))
		for _, item := range msg.Items {
			recipientID := item.RecipientID
			ciphertext := item.Ciphertext
			nonce := item.Nonce
			algo := item.Algo
			rows = append(rows, &models.Message{
				ChatID:       chatID,
				SenderID:     senderID,
				RecipientID:  &recipientID,
				ContentType:  contentType,
				Ciphertext:   &ciphertext,
				Nonce:        &nonce,
				Algo:         &algo,
				AttachmentID: attachmentID,
			})
		}
		return rows, nil
	}

	hasContent := msg.Content != nil && *msg.Content != ""
	hasCiphertext := msg.Ciphertext != nil && *msg.Ciphertext != ""
	if !hasContent && !hasCiphertext && attachmentID == nil {
		return nil, ErrEmptyMessage
	}

	return []*models.Message{{
		ChatID:       chatID,
		SenderID:     senderID,
		Content:      msg.Content,
		ContentType:  contentType,
		Ciphertext:   msg.Ciphertext,
		Nonce:        msg.Nonce,
		Algo:         msg.Algo,
		AttachmentID: attachmentID,
	}}, nil
}

// =============================================================================
// helpers
// =============================================================================

func (s *ChatService) requireMember(chatID, userID uint) error {
	ok, err := s.chatRepo.IsMember(chatID, userID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

func (s *ChatService) loadUsers(ids []uint) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
			}
			return nil, fmt.Errorf("load user %d: %w", id, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func toWireMessage(m *models.Message) *realtime.WireMessage {
	wm := &realtime.WireMessage{
		ID:          m.ID,
		Content:     m.Content,
		ContentType: m.ContentType,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		Algo:        m.Algo,
		RecipientID: m.RecipientID,
		Timestamp:   m.CreatedAt,
	}
	if m.Sender != nil {
		wm.Sender = realtime.WireSender{ID: m.Sender.ID, Username: m.Sender.Username}
	} else {
		wm.Sender = realtime.WireSender{ID: m.SenderID}
	}
	if m.Attachment != nil {
		wm.Attachment = &realtime.WireAttachment{
			ID:        m.Attachment.ID,
			Filename:  m.Attachment.Filename,
			MimeType:  m.Attachment.MimeType,
			SizeBytes: m.Attachment.SizeBytes,
			Nonce:     m.Attachment.Nonce,
			Algo:      m.Attachment.Algo,
		}
	}
	return wm
}

func wireToResponse(chatID uint, wm *realtime.WireMessage) models.MessageResponse {
	resp := models.MessageResponse{
		ID:          wm.ID,
		ChatID:      chatID,
		Content:     wm.Content,
		ContentType: wm.ContentType,
		Ciphertext:  wm.Ciphertext,
		Nonce:       wm.Nonce,
		Algo:        wm.Algo,
		RecipientID: wm.RecipientID,
		Timestamp:   wm.Timestamp,
		Sender:      models.SenderResponse{ID: wm.Sender.ID, Username: wm.Sender.Username},
	}
	if wm.Attachment != nil {
		resp.Attachment = &models.AttachmentResponse{
			ID:        wm.Attachment.ID,
			Filename:  wm.Attachment.Filename,
			MimeType:  wm.Attachment.MimeType,
			SizeBytes: wm.Attachment.SizeBytes,
			Nonce:     wm.Attachment.Nonce,
			Algo:      wm.Attachment.Algo,
		}
	}
	return resp
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
