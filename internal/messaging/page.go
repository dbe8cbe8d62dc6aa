// Package messaging holds the messages page state: the conversation sidebar,
// the active thread and optimistic sends.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Mode string

const (
	ModeNone     Mode = "none"
	ModeExisting Mode = "existing"
	ModeNew      Mode = "new"
)

var ErrSelfMessage = errors.New("cannot message yourself")

type API interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, req *service.NewConversationRequest) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID string, req *service.SendMessageRequest) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID string) error
}

// UserSource returns the signed-in user or nil.
type UserSource interface {
	User() *models.User
}

// Draft is a conversation being composed from a product deep link.
type Draft struct {
	ProductID string           `json:"productId"`
	SellerID  string           `json:"sellerId"`
	Messages  []models.Message `json:"messages"`
}

type View struct {
	Mode          Mode                  `json:"mode"`
	Conversations []models.Conversation `json:"conversations"`
	Active        *models.Conversation  `json:"active,omitempty"`
	Draft         *Draft                `json:"draft,omitempty"`
	Loading       bool                  `json:"loading"`
	Sending       bool                  `json:"sending"`
	Error         string                `json:"error,omitempty"`
}

type Page struct {
	api    API
	users  UserSource
	logger *zap.Logger
	now    func() time.Time

	// OnSent runs after the server accepted a message.
	OnSent func(ctx context.Context, msg *models.Message)

	mu       sync.Mutex
	mode     Mode
	convs    []models.Conversation
	active   *models.Conversation
	draft    *Draft
	loading  bool
	sending  int
	err      string
	selected uint64
}

func NewPage(api API, users UserSource) *Page {
	return &Page{
		api:    api,
		users:  users,
		logger: util.GetLogger(),
		now:    time.Now,
		mode:   ModeNone,
	}
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Page) viewLocked() View {
	v := View{
		Mode:          p.mode,
		Conversations: append([]models.Conversation(nil), p.convs...),
		Loading:       p.loading,
		Sending:       p.sending > 0,
		Error:         p.err,
	}
	if p.active != nil {
		c := *p.active
		c.Messages = append([]models.Message(nil), p.active.Messages...)
		v.Active = &c
	}
	if p.draft != nil {
		d := *p.draft
		d.Messages = append([]models.Message(nil), p.draft.Messages...)
		v.Draft = &d
	}
	return v
}

func (p *Page) userID() string {
	if p.users == nil {
		return ""
	}
	if u := p.users.User(); u != nil {
		return u.ID
	}
	return ""
}

// Load fetches the conversation sidebar.
func (p *Page) Load(ctx context.Context) View {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	convs, err := p.api.ListConversations(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.logger.Error("Failed to load conversations", zap.Error(err))
		p.err = apiclient.Message(err, "Failed to load conversations")
		return p.viewLocked()
	}
	p.err = ""
	p.setConversationsLocked(convs)
	return p.viewLocked()
}

// setConversationsLocked replaces the sidebar, keeping the unread badge of
// the active thread at zero.
func (p *Page) setConversationsLocked(convs []models.Conversation) {
	if p.active != nil {
		for i := range convs {
			if convs[i].ID == p.active.ID {
				convs[i].UnreadCount = 0
			}
		}
	}
	p.convs = convs
}

// Select enters an existing conversation: fetch the thread, mark it read and
// zero its sidebar badge without refetching the list.
func (p *Page) Select(ctx context.Context, id string) View {
	ctx, span := util.StartSpan(ctx, "Messages.Select")
	defer span.End()

	p.mu.Lock()
	p.selected++
	seq := p.selected
	p.mode = ModeExisting
	p.draft = nil
	p.loading = true
	if p.active != nil && p.active.ID != id {
		p.active = nil
	}
	p.mu.Unlock()

	conv, err := p.api.GetConversation(ctx, id)

	p.mu.Lock()
	if seq != p.selected {
		defer p.mu.Unlock()
		return p.viewLocked()
	}
	p.loading = false
	if err != nil {
		defer p.mu.Unlock()
		p.logger.Error("Failed to load conversation", zap.String("conversation_id", id), zap.Error(err))
		p.err = apiclient.Message(err, "Failed to load conversation")
		return p.viewLocked()
	}
	p.err = ""
	p.applyConversationLocked(conv)
	for i := range p.convs {
		if p.convs[i].ID == id {
			p.convs[i].UnreadCount = 0
		}
	}
	p.mu.Unlock()

	if err := p.api.MarkRead(ctx, id); err != nil {
		p.logger.Warn("Failed to mark conversation read", zap.String("conversation_id", id), zap.Error(err))
	}
	return p.View()
}

// applyConversationLocked installs an authoritative thread, keeping local
// messages the server has not acknowledged yet.
func (p *Page) applyConversationLocked(conv *models.Conversation) {
	var local []models.Message
	if p.active != nil && p.active.ID == conv.ID {
		local = p.active.Messages
	}
	next := *conv
	next.Messages = Merge(conv.Messages, local)
	next.UnreadCount = 0
	p.active = &next
}

// Merge returns the server thread followed by the local optimistic messages
// whose client key and id are both absent from it. Acknowledged copies are
// dropped so a message never appears twice.
func Merge(server, local []models.Message) []models.Message {
	keys := make(map[string]bool, len(server))
	ids := make(map[string]bool, len(server))
	out := make([]models.Message, 0, len(server)+len(local))
	for _, m := range server {
		if m.ClientKey != "" {
			keys[m.ClientKey] = true
		}
		ids[m.ID] = true
		out = append(out, m)
	}
	for _, m := range local {
		if m.ClientKey == "" || m.Delivery == "" {
			continue
		}
		if keys[m.ClientKey] || ids[m.ID] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// OpenDeepLink handles ?product=&seller=. An existing thread for the pair is
// selected; otherwise a new conversation draft is started.
func (p *Page) OpenDeepLink(ctx context.Context, productID, sellerID string) View {
	if sellerID != "" && sellerID == p.userID() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.err = "You cannot message yourself"
		return p.viewLocked()
	}

	p.mu.Lock()
	loaded := p.convs != nil
	p.mu.Unlock()
	if !loaded {
		if v := p.Load(ctx); v.Error != "" {
			return v
		}
	}

	p.mu.Lock()
	var existing string
	for _, c := range p.convs {
		if c.Product != nil && c.Product.ID == productID && c.HasParticipant(sellerID) {
			existing = c.ID
			break
		}
	}
	if existing == "" {
		p.selected++
		p.mode = ModeNew
		p.active = nil
		p.draft = &Draft{ProductID: productID, SellerID: sellerID}
		defer p.mu.Unlock()
		return p.viewLocked()
	}
	p.mu.Unlock()
	return p.Select(ctx, existing)
}

// Send appends an optimistic message to the visible thread right away, then
// posts it. In new mode the first send creates the conversation.
func (p *Page) Send(ctx context.Context, content string) View {
	ctx, span := util.StartSpan(ctx, "Messages.Send")
	defer span.End()

	content = strings.TrimSpace(content)

	p.mu.Lock()
	if content == "" || p.mode == ModeNone {
		defer p.mu.Unlock()
		return p.viewLocked()
	}
	// The first message of a new thread creates it; later ones wait for its id.
	if p.mode == ModeNew && p.sending > 0 {
		defer p.mu.Unlock()
		return p.viewLocked()
	}
	local := models.Message{
		ID:        fmt.Sprintf("local-%d", p.now().UnixNano()),
		SenderID:  p.userID(),
		Content:   content,
		CreatedAt: p.now(),
		ClientKey: uuid.New().String(),
		Delivery:  models.DeliveryPending,
	}
	mode := p.mode
	var convID string
	var draft Draft
	if mode == ModeExisting {
		if p.active == nil {
			defer p.mu.Unlock()
			return p.viewLocked()
		}
		convID = p.active.ID
		local.ConversationID = convID
		p.active.Messages = append(p.active.Messages, local)
	} else {
		p.draft.Messages = append(p.draft.Messages, local)
		draft = *p.draft
	}
	p.sending++
	p.err = ""
	p.mu.Unlock()

	var err error
	if mode == ModeExisting {
		err = p.sendExisting(ctx, convID, local)
	} else {
		err = p.sendNew(ctx, draft, local)
	}

	p.mu.Lock()
	p.sending--
	if err != nil {
		p.markLocked(local.ClientKey, models.DeliveryFailed, "")
		p.err = apiclient.Message(err, "Failed to send message")
		p.mu.Unlock()
		util.MessagesSentTotal.WithLabelValues("failed").Inc()
		p.logger.Error("Failed to send message", zap.Error(err))
		return p.View()
	}
	p.mu.Unlock()
	util.MessagesSentTotal.WithLabelValues("sent").Inc()

	p.refreshList(ctx)
	return p.View()
}

func (p *Page) sendExisting(ctx context.Context, convID string, local models.Message) error {
	msg, err := p.api.SendMessage(ctx, convID, &service.SendMessageRequest{
		Content:   local.Content,
		ClientKey: local.ClientKey,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.markLocked(local.ClientKey, models.DeliverySent, msg.ID)
	p.mu.Unlock()

	if p.OnSent != nil {
		p.OnSent(ctx, msg)
	}
	return nil
}

func (p *Page) sendNew(ctx context.Context, draft Draft, local models.Message) error {
	conv, err := p.api.CreateConversation(ctx, &service.NewConversationRequest{
		ProductID:   draft.ProductID,
		RecipientID: draft.SellerID,
		Content:     local.Content,
		ClientKey:   local.ClientKey,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.mode == ModeNew && p.draft != nil && p.draft.ProductID == draft.ProductID {
		local.ConversationID = conv.ID
		local.Delivery = models.DeliverySent
		next := *conv
		next.Messages = Merge(conv.Messages, []models.Message{local})
		p.mode = ModeExisting
		p.draft = nil
		p.active = &next
	}
	p.mu.Unlock()

	if p.OnSent != nil {
		local.ConversationID = conv.ID
		p.OnSent(ctx, &local)
	}
	return nil
}

// markLocked updates the delivery state of the optimistic message with key.
// A non-empty id records the server id so a later fetch can drop the copy.
func (p *Page) markLocked(key, delivery, id string) {
	var msgs []models.Message
	switch {
	case p.active != nil:
		msgs = p.active.Messages
	case p.draft != nil:
		msgs = p.draft.Messages
	}
	for i := range msgs {
		if msgs[i].ClientKey != key {
			continue
		}
		msgs[i].Delivery = delivery
		if id != "" {
			msgs[i].ID = id
		}
		return
	}
}

func (p *Page) refreshList(ctx context.Context) {
	convs, err := p.api.ListConversations(ctx)
	if err != nil {
		p.logger.Warn("Failed to refresh conversations", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.setConversationsLocked(convs)
	p.mu.Unlock()
}

// Refresh refetches the sidebar and the active thread.
func (p *Page) Refresh(ctx context.Context) View {
	view := p.Load(ctx)
	if view.Mode != ModeExisting || view.Active == nil {
		return view
	}

	id := view.Active.ID
	p.mu.Lock()
	seq := p.selected
	p.mu.Unlock()

	conv, err := p.api.GetConversation(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.selected {
		return p.viewLocked()
	}
	if err != nil {
		p.logger.Warn("Failed to refresh conversation", zap.String("conversation_id", id), zap.Error(err))
		p.err = apiclient.Message(err, "Failed to load conversation")
		return p.viewLocked()
	}
	p.applyConversationLocked(conv)
	return p.viewLocked()
}

// Close leaves the active thread.
func (p *Page) Close() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected++
	p.mode = ModeNone
	p.active = nil
	p.draft = nil
	p.err = ""
	return p.viewLocked()
}
