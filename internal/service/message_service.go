package service

import (
	"context"
	"net/url"

	"marketplace-storefront/internal/models"
)

// MessageService maps /messages endpoints.
type MessageService struct{ base }

// NewConversationRequest opens a thread about a product and carries its
// first message.
type NewConversationRequest struct {
	ProductID   string `json:"productId"`
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
	ClientKey   string `json:"clientKey,omitempty"`
}

type SendMessageRequest struct {
	Content   string `json:"content"`
	ClientKey string `json:"clientKey,omitempty"`
}

func (s *MessageService) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := s.client.Get(ctx, "/messages/conversations", nil, &convs); err != nil {
		return nil, err
	}
	for i := range convs {
		s.images.Conversation(&convs[i])
	}
	return convs, nil
}

// GetConversation returns the thread with its full message list.
func (s *MessageService) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.client.Get(ctx, "/messages/conversations/"+url.PathEscape(id), nil, &conv); err != nil {
		return nil, err
	}
	s.images.Conversation(&conv)
	return &conv, nil
}

func (s *MessageService) CreateConversation(ctx context.Context, req *NewConversationRequest) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.client.Post(ctx, "/messages/conversations", req, &conv); err != nil {
		return nil, err
	}
	s.images.Conversation(&conv)
	return &conv, nil
}

func (s *MessageService) SendMessage(ctx context.Context, conversationID string, req *SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	if err := s.client.Post(ctx, "/messages/conversations/"+url.PathEscape(conversationID)+"/messages", req, &msg); err != nil {
		return nil, err
	}
	if msg.ConversationID == "" {
		msg.ConversationID = conversationID
	}
	return &msg, nil
}

func (s *MessageService) MarkRead(ctx context.Context, conversationID string) error {
	return s.client.Put(ctx, "/messages/conversations/"+url.PathEscape(conversationID)+"/read", nil, nil)
}

func (s *MessageService) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count       int `json:"count"`
		UnreadCount int `json:"unreadCount"`
	}
	if err := s.client.Get(ctx, "/messages/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return max(resp.Count, resp.UnreadCount), nil
}
