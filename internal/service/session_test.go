package service

import (
	"testing"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(name, content string) *domain.Document {
	return domain.NewDocument(name, "mem://files/"+name, []byte(content), time.Unix(0, 0))
}

func readySession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("s-1", domain.ProfileDocument)
	require.NoError(t, s.AttachDocument(testDocument("notes.txt", "hello"), fixedRetriever{}))
	return s
}

func TestSession_InitialState(t *testing.T) {
	s := NewSession("s-1", domain.ProfileDocument)

	assert.Equal(t, StateNoDocument, s.State())
	assert.Equal(t, "GPT-3", s.Model().Label)
	assert.Nil(t, s.Document())
	assert.Empty(t, s.History())

	snap := s.Snapshot()
	assert.Equal(t, "no_document", snap.State)
	assert.Equal(t, "DocumentGPT", snap.Title)
	assert.Len(t, snap.Options, 2)
}

func TestSession_BeginTurnWithoutDocument(t *testing.T) {
	s := NewSession("s-1", domain.ProfileDocument)

	_, err := s.BeginTurn("hello")

	assert.True(t, domain.IsCode(err, domain.ErrCodeConfig))
	assert.Empty(t, s.History())
}

func TestSession_LifecycleAndHistoryReplay(t *testing.T) {
	s := readySession(t)
	assert.Equal(t, StateDocumentReady, s.State())

	assert.Empty(t, s.History())
	assert.Equal(t, StateAwaitingInput, s.State())

	turn, err := s.BeginTurn("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", turn.Question)
	assert.Equal(t, "gpt-3.5-turbo", turn.Model.ID)
	assert.Equal(t, StateStreaming, s.State())

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChatMessage{Text: "hello", Role: domain.RoleHuman}, history[0])

	require.NoError(t, s.EndTurn(turn.ID, "hi there", true))
	assert.Equal(t, StateAwaitingInput, s.State())

	// Replaying any number of times never appends.
	for i := 0; i < 3; i++ {
		assert.Equal(t, []domain.ChatMessage{
			{Text: "hello", Role: domain.RoleHuman},
			{Text: "hi there", Role: domain.RoleAI},
		}, s.History())
	}
}

func TestSession_HistoryReturnsCopy(t *testing.T) {
	s := readySession(t)
	_, err := s.BeginTurn("q")
	require.NoError(t, err)

	h := s.History()
	h[0].Text = "mutated"

	assert.Equal(t, "q", s.History()[0].Text)
}

func TestSession_SecondTurnWhileStreamingRejected(t *testing.T) {
	s := readySession(t)
	_, err := s.BeginTurn("first")
	require.NoError(t, err)

	_, err = s.BeginTurn("second")

	assert.True(t, domain.IsCode(err, domain.ErrCodeInvalidOperation))
	assert.Len(t, s.History(), 1)
}

func TestSession_FailedTurnLogsOnlyHuman(t *testing.T) {
	s := readySession(t)
	turn, err := s.BeginTurn("q")
	require.NoError(t, err)

	require.NoError(t, s.EndTurn(turn.ID, "partial", false))

	assert.Equal(t, []domain.ChatMessage{{Text: "q", Role: domain.RoleHuman}}, s.History())
	assert.Equal(t, StateAwaitingInput, s.State())
}

func TestSession_EndTurnWhenNotStreaming(t *testing.T) {
	s := readySession(t)
	assert.ErrorIs(t, s.EndTurn(1, "x", true), domain.ErrNotStreaming)
}

func TestSession_TurnIDsIncrease(t *testing.T) {
	s := readySession(t)

	first, err := s.BeginTurn("one")
	require.NoError(t, err)
	require.NoError(t, s.EndTurn(first.ID, "1", true))
	second, err := s.BeginTurn("two")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestSession_StaleTurnAfterRemoveIsIgnored(t *testing.T) {
	s := readySession(t)
	old, err := s.BeginTurn("old question")
	require.NoError(t, err)

	s.RemoveDocument()
	require.NoError(t, s.AttachDocument(testDocument("other.txt", "new content"), fixedRetriever{}))
	current, err := s.BeginTurn("new question")
	require.NoError(t, err)

	err = s.EndTurn(old.ID, "old answer", true)

	assert.ErrorIs(t, err, domain.ErrStaleTurn)
	assert.Equal(t, StateStreaming, s.State())
	assert.Equal(t, []domain.ChatMessage{{Text: "new question", Role: domain.RoleHuman}}, s.History())

	require.NoError(t, s.EndTurn(current.ID, "new answer", true))
	assert.Equal(t, []domain.ChatMessage{
		{Text: "new question", Role: domain.RoleHuman},
		{Text: "new answer", Role: domain.RoleAI},
	}, s.History())
}

func TestSession_StaleTurnAfterRemoveWithoutNewTurn(t *testing.T) {
	s := readySession(t)
	old, err := s.BeginTurn("q")
	require.NoError(t, err)

	s.RemoveDocument()

	assert.ErrorIs(t, s.EndTurn(old.ID, "late", true), domain.ErrNotStreaming)
	assert.Empty(t, s.History())
	assert.Equal(t, StateNoDocument, s.State())
}

func TestSession_EmptyQuestion(t *testing.T) {
	s := readySession(t)

	_, err := s.BeginTurn("   ")

	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
	assert.Equal(t, StateDocumentReady, s.State())
}

func TestSession_RemoveDocumentClearsLog(t *testing.T) {
	s := readySession(t)
	turn, err := s.BeginTurn("q")
	require.NoError(t, err)
	require.NoError(t, s.EndTurn(turn.ID, "a", true))

	s.RemoveDocument()

	assert.Equal(t, StateNoDocument, s.State())
	assert.Empty(t, s.History())
	assert.Nil(t, s.Document())
}

func TestSession_ReattachSameDocumentKeepsRetriever(t *testing.T) {
	s := NewSession("s-1", domain.ProfileDocument)
	first := fixedRetriever{chunks: []domain.Chunk{{Text: "first"}}}
	second := fixedRetriever{chunks: []domain.Chunk{{Text: "second"}}}

	require.NoError(t, s.AttachDocument(testDocument("a.txt", "same"), first))
	require.NoError(t, s.AttachDocument(testDocument("a.txt", "same"), second))

	r, ok := s.IndexedRetriever(testDocument("a.txt", "same"))
	require.True(t, ok)
	assert.Equal(t, first, r)

	turn, err := s.BeginTurn("q")
	require.NoError(t, err)
	assert.Equal(t, first, turn.Retriever)

	_, ok = s.IndexedRetriever(testDocument("a.txt", "changed"))
	assert.False(t, ok)
}

func TestSession_AttachWhileStreamingRejected(t *testing.T) {
	s := readySession(t)
	_, err := s.BeginTurn("q")
	require.NoError(t, err)

	err = s.AttachDocument(testDocument("b.txt", "x"), fixedRetriever{})

	assert.ErrorIs(t, err, domain.ErrTurnInProgress)
}

func TestSession_SelectModel(t *testing.T) {
	s := NewSession("s-1", domain.ProfileDocument)

	opt, err := s.SelectModel("GPT-4")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", opt.ID)
	assert.Equal(t, opt, s.Model())

	_, err = s.SelectModel("claude")
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
	assert.Equal(t, "gpt-4", s.Model().ID)

	private := NewSession("s-2", domain.ProfilePrivate)
	assert.Equal(t, "mistral:latest", private.Model().ID)
	_, err = private.SelectModel("falcon:latest")
	assert.NoError(t, err)
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "unknown", SessionState(42).String())
}
