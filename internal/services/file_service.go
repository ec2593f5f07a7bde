package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"chat-relay/internal/database"
	"chat-relay/internal/models"
	"chat-relay/internal/repositories/mysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// downloadURLTTL bounds how long a presigned attachment link stays valid.
const downloadURLTTL = 15 * time.Minute

// FileService stores attachment blobs in the object store and their
// metadata rows in MySQL. Blobs may arrive pre-encrypted; the nonce and
// algo travel with the metadata so recipients can decrypt after download.
type FileService struct {
	minioClient    *database.MinIOClient
	attachmentRepo *mysql.AttachmentRepository
}

func NewFileService(minioClient *database.MinIOClient, attachmentRepo *mysql.AttachmentRepository) *FileService {
	return &FileService{
		minioClient:    minioClient,
		attachmentRepo: attachmentRepo,
	}
}

// Upload streams the file into the object store under a random key and
// records the attachment metadata.
func (s *FileService) Upload(ctx context.Context, file *multipart.FileHeader, nonce, algo *string) (*models.AttachmentResponse, error) {
	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	objectKey := fmt.Sprintf("attachments/%s", uuid.NewString())
	if err := s.minioClient.Upload(ctx, objectKey, file, mimeType); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	attachment := &models.Attachment{
		Filename:  file.Filename,
		MimeType:  mimeType,
		SizeBytes: file.Size,
		ObjectKey: objectKey,
		Nonce:     nonce,
		Algo:      algo,
	}
	if err := s.attachmentRepo.Create(attachment); err != nil {
		return nil, fmt.Errorf("store attachment metadata: %w", err)
	}

	return attachmentResponse(attachment), nil
}

// DownloadURL returns a short-lived presigned link for an attachment blob.
func (s *FileService) DownloadURL(ctx context.Context, attachmentID uint) (string, *models.AttachmentResponse, error) {
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAttachmentNotFound
		}
		return "", nil, fmt.Errorf("load attachment: %w", err)
	}

	url, err := s.minioClient.PresignedGetURL(ctx, attachment.ObjectKey, downloadURLTTL)
	if err != nil {
		return "", nil, fmt.Errorf("presign url: %w", err)
	}
	return url, attachmentResponse(attachment), nil
}

func attachmentResponse(a *models.Attachment) *models.AttachmentResponse {
	return &models.AttachmentResponse{
		ID:        a.ID,
		Filename:  a.Filename,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		Nonce:     a.Nonce,
		Algo:      a.Algo,
	}
}
