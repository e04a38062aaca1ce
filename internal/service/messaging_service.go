package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/notification"
	"github.com/homenest/homenest-api/pkg/storage"
	"go.uber.org/zap"
)

// MaxAttachmentSize caps a single message attachment
const MaxAttachmentSize = 25 << 20

var errNotMember = apperr.New(apperr.ErrForbidden, "You are not a member of this conversation")

var allowedAttachments = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"application/pdf": true,
	"application/zip": true,
	"audio/mpeg":      true,
}

// MessagingService handles direct conversations between members
type MessagingService struct {
	tx           *repository.Transactor
	convRepo     *repository.ConversationRepository
	msgRepo      *repository.MessageRepository
	userRepo     *repository.UserRepository
	propertyRepo *repository.PropertyRepository
	storage      storage.Storage
	events       EventPublisher
	notifier     notification.Notifier
	now          func() time.Time
}

func NewMessagingService(
	tx *repository.Transactor,
	convRepo *repository.ConversationRepository,
	msgRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	propertyRepo *repository.PropertyRepository,
	store storage.Storage,
	events EventPublisher,
	notifier notification.Notifier,
) *MessagingService {
	return &MessagingService{
		tx:           tx,
		convRepo:     convRepo,
		msgRepo:      msgRepo,
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
		storage:      store,
		events:       events,
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateDirect returns the thread between the caller and receiver about
// the given listing, creating it on first contact
func (s *MessagingService) GetOrCreateDirect(ctx context.Context, myID uuid.UUID, req model.DirectConversationRequest) (*model.ConversationResponse, error) {
	if req.ReceiverID == myID {
		return nil, apperr.New(apperr.ErrInvalidInput, "You cannot start a conversation with yourself")
	}
	if _, err := s.userRepo.FindByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return nil, err
	}
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.FindByID(ctx, *req.PropertyID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, errPropertyNotFound
			}
			return nil, err
		}
	}

	var conv *model.Conversation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.convRepo.FindDirect(ctx, myID, req.ReceiverID, req.PropertyID)
		if err == nil {
			conv = existing
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		now := s.now()
		created := &model.Conversation{
			PropertyID: req.PropertyID,
			CreatedAt:  now,
			UpdatedAt:  now,
			Members: []model.ConversationMember{
				{UserID: myID, JoinedAt: now, LastReadAt: &now},
				{UserID: req.ReceiverID, JoinedAt: now},
			},
		}
		if err := s.convRepo.Create(ctx, created); err != nil {
			return err
		}
		conv, err = s.convRepo.FindByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, conv, myID)
}

// GetConversations returns the caller's threads, most recent activity first
func (s *MessagingService) GetConversations(ctx context.Context, userID uuid.UUID) ([]model.ConversationResponse, error) {
	conversations, err := s.convRepo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]model.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		resp, err := s.decorate(ctx, &conversations[i], userID)
		if err != nil {
			return nil, err
		}
		result = append(result, *resp)
	}
	return result, nil
}

func (s *MessagingService) decorate(ctx context.Context, conv *model.Conversation, userID uuid.UUID) (*model.ConversationResponse, error) {
	lastMsg, err := s.msgRepo.GetLastMessage(ctx, conv.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	conv.LastMessage = lastMsg

	var lastRead *time.Time
	for _, m := range conv.Members {
		if m.UserID == userID {
			lastRead = m.LastReadAt
			break
		}
	}
	unread, err := s.msgRepo.CountUnread(ctx, conv.ID, userID, lastRead)
	if err != nil {
		return nil, err
	}
	return &model.ConversationResponse{Conversation: *conv, UnreadCount: unread}, nil
}

// SendMessage posts a message and fans it out to the other members
func (s *MessagingService) SendMessage(ctx context.Context, senderID, convID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	if err := s.requireMember(ctx, convID, senderID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && req.FileURL == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "Message cannot be empty")
	}

	now := s.now()
	msg := &model.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		FileURL:        req.FileURL,
		FileName:       req.FileName,
		CreatedAt:      now,
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.msgRepo.Create(ctx, msg); err != nil {
			return err
		}
		if err := s.convRepo.TouchUpdatedAt(ctx, convID, now); err != nil {
			return err
		}
		return s.convRepo.UpdateLastRead(ctx, convID, senderID, now)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.msgRepo.FindByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	s.fanOut(ctx, full)
	return full, nil
}

func (s *MessagingService) fanOut(ctx context.Context, msg *model.Message) {
	memberIDs, err := s.convRepo.GetMemberIDs(ctx, msg.ConversationID)
	if err != nil {
		logger.Warn(ctx, "Failed to load conversation members", zap.String("conversation_id", msg.ConversationID.String()), zap.Error(err))
		return
	}

	recipients := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != msg.SenderID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}

	if s.events != nil {
		event := &model.WSEvent{Type: model.WSEventNewMessage, Payload: msg}
		for _, id := range recipients {
			s.events.SendToUser(id, event)
		}
	}

	if s.notifier != nil {
		title := "New message"
		if msg.Sender != nil {
			title = msg.Sender.Name
		}
		body := msg.Content
		if body == "" {
			body = "Sent an attachment"
		}
		push := notification.Push{
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":            model.WSEventNewMessage,
				"conversation_id": msg.ConversationID.String(),
			},
		}
		if err := s.notifier.Notify(ctx, recipients, push); err != nil {
			logger.Warn(ctx, "Message push failed", zap.String("message_id", msg.ID.String()), zap.Error(err))
		}
	}
}

// UploadAttachment stores a file for a conversation; the returned URL is then
// sent as the FileURL of a message
func (s *MessagingService) UploadAttachment(ctx context.Context, userID, convID uuid.UUID, file io.Reader, header *multipart.FileHeader) (*model.AttachmentResponse, error) {
	if err := s.requireMember(ctx, convID, userID); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, errStorageUnavailable
	}
	if header.Size > MaxAttachmentSize {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s exceeds the 25MB limit", header.Filename))
	}
	if !allowedAttachments[storage.ContentType(header)] {
		return nil, apperr.New(apperr.ErrInvalidInput, "Unsupported file type")
	}

	result, err := s.storage.Upload(ctx, file, header, "attachments/"+convID.String())
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistenceFailure, "Failed to store file", err)
	}
	return &model.AttachmentResponse{
		URL:      result.URL,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	}, nil
}

// GetMessages returns a page of messages older than before, newest first
func (s *MessagingService) GetMessages(ctx context.Context, userID, convID uuid.UUID, before *uuid.UUID, limit int) ([]model.Message, error) {
	if err := s.requireMember(ctx, convID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.msgRepo.GetConversationMessages(ctx, convID, before, limit)
}

// MarkAsRead moves the caller's read marker to now and tells the other members
func (s *MessagingService) MarkAsRead(ctx context.Context, userID, convID uuid.UUID) error {
	if err := s.requireMember(ctx, convID, userID); err != nil {
		return err
	}
	now := s.now()
	if err := s.convRepo.UpdateLastRead(ctx, convID, userID, now); err != nil {
		return err
	}

	if s.events != nil {
		memberIDs, err := s.convRepo.GetMemberIDs(ctx, convID)
		if err != nil {
			return nil
		}
		event := &model.WSEvent{
			Type:    model.WSEventMessageRead,
			Payload: model.MessageReadEvent{ConversationID: convID, UserID: userID, ReadAt: now},
		}
		for _, id := range memberIDs {
			if id != userID {
				s.events.SendToUser(id, event)
			}
		}
	}
	return nil
}

// MemberIDs returns the members of a conversation the caller belongs to
func (s *MessagingService) MemberIDs(ctx context.Context, userID, convID uuid.UUID) ([]uuid.UUID, error) {
	if err := s.requireMember(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.convRepo.GetMemberIDs(ctx, convID)
}

func (s *MessagingService) requireMember(ctx context.Context, convID, userID uuid.UUID) error {
	ok, err := s.convRepo.IsMember(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotMember
	}
	return nil
}
