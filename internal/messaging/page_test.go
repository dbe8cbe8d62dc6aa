package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessagesAPI struct {
	mock.Mock
}

func (m *mockMessagesAPI) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]models.Conversation)
	return c, args.Error(1)
}

func (m *mockMessagesAPI) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Conversation)
	return c, args.Error(1)
}

func (m *mockMessagesAPI) CreateConversation(ctx context.Context, req *service.NewConversationRequest) (*models.Conversation, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*models.Conversation)
	return c, args.Error(1)
}

func (m *mockMessagesAPI) SendMessage(ctx context.Context, id string, req *service.SendMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, id, req)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockMessagesAPI) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type staticUser struct{ user *models.User }

func (s staticUser) User() *models.User { return s.user }

var (
	buyer  = models.User{ID: "u-buyer", Name: "Buyer"}
	seller = models.User{ID: "u-seller", Name: "Seller"}
)

func conversation(id string, unread int, msgs ...models.Message) models.Conversation {
	return models.Conversation{
		ID:           id,
		Participants: []models.User{buyer, seller},
		Product:      &models.ProductRef{ID: "p-1", Name: "Desk"},
		UnreadCount:  unread,
		Messages:     msgs,
	}
}

func newPage(api *mockMessagesAPI) *Page {
	p := NewPage(api, staticUser{user: &buyer})
	p.now = func() time.Time { return time.Unix(1700000000, 0) }
	return p
}

func TestSelectZeroesUnreadWithoutRefetch(t *testing.T) {
	api := new(mockMessagesAPI)
	api.On("ListConversations", mock.Anything).
		Return([]models.Conversation{conversation("c-1", 3), conversation("c-2", 1)}, nil).Once()
	c1 := conversation("c-1", 3, models.Message{ID: "m-1", Content: "Is it available?"})
	api.On("GetConversation", mock.Anything, "c-1").Return(&c1, nil)
	api.On("MarkRead", mock.Anything, "c-1").Return(nil)

	p := newPage(api)
	p.Load(context.Background())
	view := p.Select(context.Background(), "c-1")

	assert.Equal(t, ModeExisting, view.Mode)
	require.NotNil(t, view.Active)
	assert.Len(t, view.Active.Messages, 1)
	assert.Equal(t, 0, view.Conversations[0].UnreadCount)
	assert.Equal(t, 1, view.Conversations[1].UnreadCount)
	api.AssertNumberOfCalls(t, "ListConversations", 1)
}

func TestSendAppendsOnceAndDedupsOnRefetch(t *testing.T) {
	api := new(mockMessagesAPI)
	c1 := conversation("c-1", 0, models.Message{ID: "m-1", SenderID: seller.ID, Content: "Hi"})
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{c1}, nil)
	api.On("GetConversation", mock.Anything, "c-1").Return(&c1, nil).Once()
	api.On("MarkRead", mock.Anything, "c-1").Return(nil)

	p := newPage(api)
	p.Load(context.Background())
	p.Select(context.Background(), "c-1")

	var key string
	api.On("SendMessage", mock.Anything, "c-1", mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(2).(*service.SendMessageRequest)
		key = req.ClientKey

		// The optimistic copy is visible while the request is in flight.
		view := p.View()
		require.Len(t, view.Active.Messages, 2)
		assert.Equal(t, models.DeliveryPending, view.Active.Messages[1].Delivery)
		assert.True(t, view.Sending)
	}).Return(&models.Message{ID: "m-2", ConversationID: "c-1", Content: "Still for sale?"}, nil)

	var sent *models.Message
	p.OnSent = func(ctx context.Context, m *models.Message) { sent = m }

	view := p.Send(context.Background(), "  Still for sale?  ")
	require.Len(t, view.Active.Messages, 2)
	assert.Equal(t, "Still for sale?", view.Active.Messages[1].Content)
	assert.Equal(t, models.DeliverySent, view.Active.Messages[1].Delivery)
	assert.Equal(t, "m-2", view.Active.Messages[1].ID)
	assert.NotEmpty(t, key)
	require.NotNil(t, sent)
	assert.Equal(t, "m-2", sent.ID)

	withReply := conversation("c-1", 0,
		models.Message{ID: "m-1", SenderID: seller.ID, Content: "Hi"},
		models.Message{ID: "m-2", SenderID: buyer.ID, Content: "Still for sale?", ClientKey: key},
	)
	api.On("GetConversation", mock.Anything, "c-1").Return(&withReply, nil).Once()

	view = p.Refresh(context.Background())
	assert.Len(t, view.Active.Messages, 2)
}

func TestSendFailureMarksMessage(t *testing.T) {
	api := new(mockMessagesAPI)
	c1 := conversation("c-1", 0)
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{c1}, nil)
	api.On("GetConversation", mock.Anything, "c-1").Return(&c1, nil)
	api.On("MarkRead", mock.Anything, "c-1").Return(nil)
	api.On("SendMessage", mock.Anything, "c-1", mock.Anything).Return(nil, errors.New("timeout"))

	p := newPage(api)
	p.Load(context.Background())
	p.Select(context.Background(), "c-1")

	view := p.Send(context.Background(), "hello")
	require.Len(t, view.Active.Messages, 1)
	assert.Equal(t, models.DeliveryFailed, view.Active.Messages[0].Delivery)
	assert.Equal(t, "Failed to send message", view.Error)

	// A failed local copy survives the next authoritative fetch.
	view = p.Refresh(context.Background())
	assert.Len(t, view.Active.Messages, 1)
}

func TestSendBlankIsIgnored(t *testing.T) {
	api := new(mockMessagesAPI)
	p := newPage(api)
	p.mode = ModeExisting
	p.active = &models.Conversation{ID: "c-1"}

	view := p.Send(context.Background(), "   ")
	assert.Empty(t, view.Active.Messages)
	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeepLinkSelectsExistingThread(t *testing.T) {
	api := new(mockMessagesAPI)
	c1 := conversation("c-1", 2)
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{c1}, nil)
	api.On("GetConversation", mock.Anything, "c-1").Return(&c1, nil)
	api.On("MarkRead", mock.Anything, "c-1").Return(nil)

	view := newPage(api).OpenDeepLink(context.Background(), "p-1", seller.ID)

	assert.Equal(t, ModeExisting, view.Mode)
	assert.Equal(t, "c-1", view.Active.ID)
}

func TestDeepLinkStartsDraftAndFirstSendCreates(t *testing.T) {
	api := new(mockMessagesAPI)
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{}, nil).Once()

	p := newPage(api)
	view := p.OpenDeepLink(context.Background(), "p-9", seller.ID)
	require.Equal(t, ModeNew, view.Mode)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "p-9", view.Draft.ProductID)

	created := models.Conversation{ID: "c-9", Participants: []models.User{buyer, seller}}
	api.On("CreateConversation", mock.Anything, mock.MatchedBy(func(req *service.NewConversationRequest) bool {
		return req.ProductID == "p-9" && req.RecipientID == seller.ID && req.Content == "Hello" && req.ClientKey != ""
	})).Return(&created, nil)
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{created}, nil)

	view = p.Send(context.Background(), "Hello")

	assert.Equal(t, ModeExisting, view.Mode)
	assert.Nil(t, view.Draft)
	require.NotNil(t, view.Active)
	assert.Equal(t, "c-9", view.Active.ID)
	assert.Len(t, view.Active.Messages, 1)
	assert.Len(t, view.Conversations, 1)
}

func TestSecondSendWaitsForNewThread(t *testing.T) {
	api := new(mockMessagesAPI)
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{}, nil).Once()

	p := newPage(api)
	p.OpenDeepLink(context.Background(), "p-9", seller.ID)

	var during View
	created := models.Conversation{ID: "c-9", Participants: []models.User{buyer, seller}}
	api.On("CreateConversation", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { during = p.Send(context.Background(), "Are you there?") }).
		Return(&created, nil).Once()
	api.On("ListConversations", mock.Anything).Return([]models.Conversation{created}, nil)

	view := p.Send(context.Background(), "Hello")

	api.AssertNumberOfCalls(t, "CreateConversation", 1)
	require.NotNil(t, during.Draft)
	assert.Len(t, during.Draft.Messages, 1)
	require.NotNil(t, view.Active)
	assert.Len(t, view.Active.Messages, 1)
	assert.Equal(t, "Hello", view.Active.Messages[0].Content)
}

func TestDeepLinkToSelf(t *testing.T) {
	view := newPage(new(mockMessagesAPI)).OpenDeepLink(context.Background(), "p-1", buyer.ID)
	assert.Equal(t, "You cannot message yourself", view.Error)
	assert.Equal(t, ModeNone, view.Mode)
}

func TestMerge(t *testing.T) {
	server := []models.Message{
		{ID: "m-1"},
		{ID: "m-2", ClientKey: "k-2"},
	}
	local := []models.Message{
		{ID: "local-1", ClientKey: "k-2", Delivery: models.DeliveryPending},
		{ID: "m-3", ClientKey: "k-3", Delivery: models.DeliverySent},
		{ID: "local-4", ClientKey: "k-4", Delivery: models.DeliveryFailed},
		{ID: "m-1"},
	}

	merged := Merge(server, local)

	ids := make([]string, 0, len(merged))
	for _, m := range merged {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m-1", "m-2", "m-3", "local-4"}, ids)
}
