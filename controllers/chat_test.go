package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/etiditalex/CMFagency-sub001/config"
	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

type mockConversationStore struct {
	mock.Mock
}

func (m *mockConversationStore) FindBySessionKey(ctx context.Context, key string) (*models.Conversation, error) {
	args := m.Called(ctx, key)
	if conv := args.Get(0); conv != nil {
		return conv.(*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	args := m.Called(ctx, conv)
	conv.ID = 1
	return args.Error(0)
}

func (m *mockConversationStore) SetStatus(ctx context.Context, id uint, status models.ConversationStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockConversationStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockConversationStore) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConversationStore) RecentKnowledge(ctx context.Context, limit int) ([]models.KnowledgeSnippet, error) {
	args := m.Called(ctx, limit)
	if snippets := args.Get(0); snippets != nil {
		return snippets.([]models.KnowledgeSnippet), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, userMessage)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, to []string, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		PublicSiteURL: "https://cmfagency.co.ke",
		OpsEmail:      "ops@cmfagency.co.ke",
	}
}

func postChat(t *testing.T, ctrl *ChatController, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	ctrl.HandleMessage(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleMessage_MissingFields(t *testing.T) {
	ctrl := NewChatController(new(mockConversationStore), new(mockCompleter), nil, testConfig())

	for _, body := range []string{
		`{}`,
		`{"sessionId":"abc"}`,
		`{"message":"hello"}`,
		`{"sessionId":"  ","message":"hello"}`,
	} {
		rec := postChat(t, ctrl, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		var errBody map[string]string
		_ = json.NewDecoder(rec.Body).Decode(&errBody)
		assert.NotEmpty(t, errBody["error"])
	}
}

func TestHandleMessage_BotReply(t *testing.T) {
	store := new(mockConversationStore)
	llm := new(mockCompleter)
	ctrl := NewChatController(store, llm, nil, testConfig())

	conv := &models.Conversation{ID: 7, SessionKey: "s1", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s1").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("RecentKnowledge", mock.Anything, knowledgeSnippets).Return([]models.KnowledgeSnippet{
		{Title: "Tickets", Body: "Gala tickets cost 3000 KES"},
	}, nil)
	llm.On("Complete", mock.Anything, mock.Anything, "how much are tickets?").
		Return("Gala tickets are 3000 KES each.", nil)

	rec := postChat(t, ctrl, `{"sessionId":"s1","message":"how much are tickets?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, models.RoleAssistant, resp.Role)
	assert.Equal(t, "Gala tickets are 3000 KES each.", resp.Message)
	assert.False(t, resp.HandoffTriggered)

	// knowledge flows into the system prompt
	llm.AssertCalled(t, "Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Gala tickets cost 3000 KES")
	}), "how much are tickets?")

	// user message and assistant reply are both persisted
	store.AssertNumberOfCalls(t, "AppendMessage", 2)
}

func TestHandleMessage_CreatesConversation(t *testing.T) {
	store := new(mockConversationStore)
	llm := new(mockCompleter)
	ctrl := NewChatController(store, llm, nil, testConfig())

	store.On("FindBySessionKey", mock.Anything, "fresh").Return(nil, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(conv *models.Conversation) bool {
		return conv.SessionKey == "fresh" && conv.Status == models.StatusBot
	})).Return(nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("RecentKnowledge", mock.Anything, knowledgeSnippets).Return(nil, nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Hi there!", nil)

	rec := postChat(t, ctrl, `{"sessionId":"fresh","message":"hello","visitorName":"Wanjiru"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestHandleMessage_HandoffPhrase(t *testing.T) {
	store := new(mockConversationStore)
	mailer := new(mockNotifier)
	ctrl := NewChatController(store, new(mockCompleter), mailer, testConfig())

	conv := &models.Conversation{ID: 3, SessionKey: "s2", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s2").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("SetStatus", mock.Anything, uint(3), models.StatusWaitingForAgent).Return(nil)
	store.On("RecentMessages", mock.Anything, uint(3), transcriptMessages).Return([]models.ChatMessage{
		{Role: models.RoleUser, Content: "I want to Talk To A Person please"},
	}, nil)
	mailer.On("Send", mock.Anything, []string{"ops@cmfagency.co.ke"}, mock.Anything, mock.Anything).Return(nil)

	rec := postChat(t, ctrl, `{"sessionId":"s2","message":"I want to Talk To A Person please"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.True(t, resp.HandoffTriggered)
	assert.Equal(t, transferNotice, resp.Message)
	store.AssertCalled(t, "SetStatus", mock.Anything, uint(3), models.StatusWaitingForAgent)
	mailer.AssertExpectations(t)
}

func TestHandleMessage_HandoffSucceedsWhenEmailFails(t *testing.T) {
	store := new(mockConversationStore)
	mailer := new(mockNotifier)
	ctrl := NewChatController(store, new(mockCompleter), mailer, testConfig())

	conv := &models.Conversation{ID: 4, SessionKey: "s3", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s3").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("SetStatus", mock.Anything, uint(4), models.StatusWaitingForAgent).Return(nil)
	store.On("RecentMessages", mock.Anything, uint(4), transcriptMessages).Return(nil, nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	rec := postChat(t, ctrl, `{"sessionId":"s3","message":"connect me to an agent"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeChat(t, rec).HandoffTriggered)
}

func TestHandleMessage_WaitingAck(t *testing.T) {
	store := new(mockConversationStore)
	ctrl := NewChatController(store, new(mockCompleter), nil, testConfig())

	conv := &models.Conversation{ID: 5, SessionKey: "s4", Status: models.StatusWaitingForAgent}
	store.On("FindBySessionKey", mock.Anything, "s4").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)

	rec := postChat(t, ctrl, `{"sessionId":"s4","message":"anyone there?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, waitingAck, resp.Message)
	assert.False(t, resp.HandoffTriggered)
	// only the inbound user message is persisted; the ack is ephemeral
	store.AssertNumberOfCalls(t, "AppendMessage", 1)
}

func TestHandleMessage_LiveAgentAck(t *testing.T) {
	store := new(mockConversationStore)
	ctrl := NewChatController(store, new(mockCompleter), nil, testConfig())

	conv := &models.Conversation{ID: 6, SessionKey: "s5", Status: models.StatusLiveAgent}
	store.On("FindBySessionKey", mock.Anything, "s5").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)

	// a handoff phrase while already live must NOT re-trigger anything
	rec := postChat(t, ctrl, `{"sessionId":"s5","message":"I need a human"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, liveAgentAck, resp.Message)
	assert.Equal(t, models.RoleLiveAgent, resp.Role)
	assert.False(t, resp.HandoffTriggered)
	store.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNumberOfCalls(t, "AppendMessage", 1)
}

func TestHandleMessage_CannedFallbackWhenNotConfigured(t *testing.T) {
	store := new(mockConversationStore)
	llm := new(mockCompleter)
	ctrl := NewChatController(store, llm, nil, testConfig())

	conv := &models.Conversation{ID: 8, SessionKey: "s6", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s6").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("RecentKnowledge", mock.Anything, knowledgeSnippets).Return(nil, nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", utils.ErrCompletionNotConfigured)

	rec := postChat(t, ctrl, `{"sessionId":"s6","message":"what services do you offer?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, cannedBare, resp.Message)
}

func TestHandleMessage_CompletionFailure(t *testing.T) {
	store := new(mockConversationStore)
	llm := new(mockCompleter)
	ctrl := NewChatController(store, llm, nil, testConfig())

	conv := &models.Conversation{ID: 9, SessionKey: "s7", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s7").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	store.On("RecentKnowledge", mock.Anything, knowledgeSnippets).Return(nil, nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	rec := postChat(t, ctrl, `{"sessionId":"s7","message":"hello"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleMessage_TruncatesLongInput(t *testing.T) {
	store := new(mockConversationStore)
	llm := new(mockCompleter)
	ctrl := NewChatController(store, llm, nil, testConfig())

	conv := &models.Conversation{ID: 10, SessionKey: "s8", Status: models.StatusBot}
	store.On("FindBySessionKey", mock.Anything, "s8").Return(conv, nil)
	store.On("AppendMessage", mock.Anything, mock.MatchedBy(func(msg *models.ChatMessage) bool {
		return len([]rune(msg.Content)) <= maxInboundChars
	})).Return(nil)
	store.On("RecentKnowledge", mock.Anything, knowledgeSnippets).Return(nil, nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	long := strings.Repeat("x", maxInboundChars+500)
	body, _ := json.Marshal(map[string]string{"sessionId": "s8", "message": long})
	rec := postChat(t, ctrl, string(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestWantsLiveAgent(t *testing.T) {
	cases := map[string]bool{
		"I want to speak to a human":        true,
		"LIVE AGENT please":                 true,
		"can I talk to someone?":            true,
		"your customer care is needed here": true,
		"how much is a ticket":              false,
		"my agent in real estate":           false,
	}
	for msg, want := range cases {
		assert.Equal(t, want, wantsLiveAgent(msg), "message %q", msg)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 10))
}
