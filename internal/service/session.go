package service

import (
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

// SessionState is the position of a session in the chat lifecycle.
type SessionState int

const (
	StateNoDocument SessionState = iota
	StateDocumentReady
	StateAwaitingInput
	StateStreaming
)

func (s SessionState) String() string {
	switch s {
	case StateNoDocument:
		return "no_document"
	case StateDocumentReady:
		return "document_ready"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Turn is what BeginTurn hands to the caller answering the question.
type Turn struct {
	ID        uint64
	Question  string
	Model     domain.ModelOption
	Document  *domain.Document
	Retriever Retriever
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	ID       string               `json:"id"`
	State    string               `json:"state"`
	Title    string               `json:"title"`
	Model    domain.ModelOption   `json:"model"`
	Options  []domain.ModelOption `json:"options"`
	Document string               `json:"document,omitempty"`
	Messages int                  `json:"messages"`
}

// Session is one user's chat: the attached document, its retriever, the
// selected model and the append-only message log.
type Session struct {
	mu sync.Mutex

	id        string
	profile   domain.Profile
	state     SessionState
	messages  []domain.ChatMessage
	model     domain.ModelOption
	document  *domain.Document
	retriever Retriever
	indexed   map[string]Retriever
	turns     uint64
	lastSeen  time.Time
	clock     func() time.Time
}

// NewSession creates a session with no document and the profile's default model.
func NewSession(id string, profile domain.Profile) *Session {
	return newSessionWithClock(id, profile, time.Now)
}

func newSessionWithClock(id string, profile domain.Profile, clock func() time.Time) *Session {
	return &Session{
		id:       id,
		profile:  profile,
		state:    StateNoDocument,
		model:    profile.ModelOptions()[0],
		indexed:  make(map[string]Retriever),
		lastSeen: clock(),
		clock:    clock,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Profile() domain.Profile {
	return s.profile
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Model() domain.ModelOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Session) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// LastSeen returns the time of the most recent call that touched the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot returns the session's current state for display.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:       s.id,
		State:    s.state.String(),
		Title:    s.profile.Title(),
		Model:    s.model,
		Options:  s.profile.ModelOptions(),
		Messages: len(s.messages),
	}
	if s.document != nil {
		snap.Document = s.document.Name
	}
	return snap
}

// IndexedRetriever returns the retriever built earlier in this session for
// the same document (same name and content), if any.
func (s *Session) IndexedRetriever(doc *domain.Document) (Retriever, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.indexed[memoKey(doc)]
	return r, ok
}

// AttachDocument makes doc the active document. If the same document was
// indexed before in this session, the earlier retriever is kept and
// retriever is ignored. The message log is left as is.
func (s *Session) AttachDocument(doc *domain.Document, retriever Retriever) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateStreaming {
		return domain.ErrTurnInProgress
	}

	key := memoKey(doc)
	if existing, ok := s.indexed[key]; ok {
		retriever = existing
	} else {
		s.indexed[key] = retriever
	}

	s.document = doc
	s.retriever = retriever
	s.state = StateDocumentReady
	return nil
}

// History returns a copy of the message log for replay. Replaying never
// appends. The first replay after a document becomes ready moves the
// session to AwaitingInput.
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateDocumentReady {
		s.state = StateAwaitingInput
	}
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// BeginTurn records the human message and enters Streaming.
func (s *Session) BeginTurn(text string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch s.state {
	case StateNoDocument:
		return Turn{}, domain.ErrNoDocument
	case StateStreaming:
		return Turn{}, domain.ErrTurnInProgress
	}
	if strings.TrimSpace(text) == "" {
		return Turn{}, domain.ErrEmptyQuestion
	}

	s.messages = append(s.messages, domain.ChatMessage{Text: text, Role: domain.RoleHuman})
	s.state = StateStreaming
	s.turns++
	return Turn{
		ID:        s.turns,
		Question:  text,
		Model:     s.model,
		Document:  s.document,
		Retriever: s.retriever,
	}, nil
}

// EndTurn leaves Streaming for turn id. The ai message is appended only
// when ok. A turn that was abandoned by RemoveDocument is stale and leaves
// the session untouched.
func (s *Session) EndTurn(id uint64, aiText string, ok bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateStreaming {
		return domain.ErrNotStreaming
	}
	if id != s.turns {
		return domain.ErrStaleTurn
	}
	if ok {
		s.messages = append(s.messages, domain.ChatMessage{Text: aiText, Role: domain.RoleAI})
	}
	s.state = StateAwaitingInput
	return nil
}

// RemoveDocument detaches the document and clears the message log.
func (s *Session) RemoveDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.document = nil
	s.retriever = nil
	s.messages = nil
	s.state = StateNoDocument
}

// SelectModel switches the model used for later turns. name may be the
// option label or the backend model id.
func (s *Session) SelectModel(name string) (domain.ModelOption, error) {
	opt, err := s.profile.FindModel(name)
	if err != nil {
		return domain.ModelOption{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.model = opt
	return opt, nil
}

func (s *Session) touch() {
	s.lastSeen = s.clock()
}

func memoKey(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Name + "\x00" + doc.SHA256
}
