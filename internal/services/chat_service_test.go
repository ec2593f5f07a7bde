package services

import (
	"errors"
	"testing"

	"chat-relay/internal/models"
	"chat-relay/internal/realtime"
)

func strPtr(s string) *string { return &s }

func TestBuildRowsPlaintext(t *testing.T) {
	s := &ChatService{}

	rows, err := s.buildRows(7, 3, realtime.OutgoingMessage{
		Content: strPtr("hello"),
	})
	if err != nil {
		t.Fatalf("buildRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.ChatID != 7 || row.SenderID != 3 {
		t.Errorf("row addressed to chat %d sender %d", row.ChatID, row.SenderID)
	}
	if row.Content == nil || *row.Content != "hello" {
		t.Errorf("content not preserved: %v", row.Content)
	}
	if row.ContentType != models.ContentTypeText {
		t.Errorf("expected default content type text, got %q", row.ContentType)
	}
	if row.RecipientID != nil {
		t.Errorf("plaintext rows must not carry a recipient id")
	}
}

func TestBuildRowsEncryptedFanOut(t *testing.T) {
	s := &ChatService{}

	rows, err := s.buildRows(7, 3, realtime.OutgoingMessage{
		Items: []realtime.EncryptedItem{
			{RecipientID: 4, Ciphertext: "aaa", Nonce: "n1", Algo: "xchacha20"},
			{RecipientID: 5, Ciphertext: "bbb", Nonce: "n2", Algo: "xchacha20"},
		},
	})
	if err != nil {
		t.Fatalf("buildRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per item, got %d", len(rows))
	}

	for i, want := range []uint{4, 5} {
		if rows[i].RecipientID == nil || *rows[i].RecipientID != want {
			t.Errorf("row %d recipient = %v, want %d", i, rows[i].RecipientID, want)
		}
		if rows[i].Ciphertext == nil || *rows[i].Ciphertext == "" {
			t.Errorf("row %d missing ciphertext", i)
		}
		if rows[i].Content != nil {
			t.Errorf("encrypted rows must not carry plaintext content")
		}
	}
}

func TestBuildRowsRejectsEmptyMessage(t *testing.T) {
	s := &ChatService{}

	_, err := s.buildRows(7, 3, realtime.OutgoingMessage{})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	empty := ""
	_, err = s.buildRows(7, 3, realtime.OutgoingMessage{Content: &empty})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage for blank content, got %v", err)
	}
}

func TestToWireMessageMapping(t *testing.T) {
	recipient := uint(9)
	m := &models.Message{
		ChatID:      7,
		SenderID:    3,
		RecipientID: &recipient,
		Ciphertext:  strPtr("ct"),
		Nonce:       strPtr("n"),
		Algo:        strPtr("xchacha20"),
		ContentType: models.ContentTypeText,
		Sender:      &models.User{Username: "alice"},
		Attachment: &models.Attachment{
			Filename:  "photo.png",
			MimeType:  "image/png",
			SizeBytes: 2048,
		},
	}
	m.ID = 11
	m.Sender.ID = 3
	m.Attachment.ID = 5

	wm := toWireMessage(m)
	if wm.ID != 11 {
		t.Errorf("id = %d, want 11", wm.ID)
	}
	if wm.Sender.ID != 3 || wm.Sender.Username != "alice" {
		t.Errorf("sender = %+v", wm.Sender)
	}
	if wm.RecipientID == nil || *wm.RecipientID != 9 {
		t.Errorf("recipient = %v, want 9", wm.RecipientID)
	}
	if wm.Attachment == nil || wm.Attachment.Filename != "photo.png" {
		t.Errorf("attachment not mapped: %+v", wm.Attachment)
	}

	resp := wireToResponse(7, wm)
	if resp.ChatID != 7 || resp.ID != 11 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Attachment == nil || resp.Attachment.MimeType != "image/png" {
		t.Errorf("response attachment not mapped: %+v", resp.Attachment)
	}
}

func TestToWireMessageWithoutPreloadedSender(t *testing.T) {
	m := &models.Message{
		ChatID:      7,
		SenderID:    3,
		Content:     strPtr("hi"),
		ContentType: models.ContentTypeText,
	}

	wm := toWireMessage(m)
	if wm.Sender.ID != 3 {
		t.Errorf("sender id should fall back to the row's sender_id, got %d", wm.Sender.ID)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]uint{1, 2, 2, 3, 1})
	want := []uint{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe = %v, want %v", got, want)
		}
	}
}
