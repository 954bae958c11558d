package conversation

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/google/uuid"
	"github.com/vidbriefs/vidbriefs-backend/lib/kv"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultPersona seeds every new conversation so follow-up questions stay
// anchored to the video being discussed
const DefaultPersona = "You are an assistant that answers questions about a video using its transcript. Ground every answer in the transcript content and say so when the transcript does not cover the question."

// Message is a single exchange entry in a conversation
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation holds the full message history for one insight session
type Conversation struct {
	ID             string    `json:"id"`
	InstallationID string    `json:"installation_id"`
	Title          string    `json:"title"`
	SourceURL      string    `json:"source_url"`
	Secret         string    `json:"secret"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store keeps conversations in memory with write-through persistence to a
// key-value backend, so histories survive restarts without a relational
// schema
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	locks         map[string]*sync.Mutex
	backend       kv.Store
	indexMu       sync.Mutex
}

// NewStore creates a conversation store backed by the given KV backend
func NewStore(backend kv.Store) *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
		locks:         make(map[string]*sync.Mutex),
		backend:       backend,
	}
}

func storageKey(id string) string {
	return "conversation:" + id
}

func indexKey(installationID string) string {
	return "conversations:" + installationID
}

func generateSecret() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// lockFor returns the per-conversation mutex, creating it on first use
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

// Create starts a new conversation seeded with the system persona message
func (s *Store) Create(installationID, sourceURL string) *Conversation {
	now := time.Now()
	conversation := &Conversation{
		ID:             uuid.New().String(),
		InstallationID: installationID,
		SourceURL:      sourceURL,
		Secret:         generateSecret(),
		Messages: []Message{
			{Role: RoleSystem, Content: DefaultPersona, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conversation.ID] = conversation
	s.mu.Unlock()

	s.persist(conversation)
	s.indexAdd(installationID, conversation.ID)
	return conversation
}

// Get returns a conversation by id, rehydrating from the KV backend when
// the in-memory copy is gone (for example after a restart)
func (s *Store) Get(id string) (*Conversation, bool) {
	s.mu.RLock()
	conversation, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return conversation, true
	}

	if s.backend == nil {
		return nil, false
	}

	data, err := s.backend.Get(storageKey(id))
	if err != nil {
		return nil, false
	}

	var restored Conversation
	if err := json.Unmarshal(data, &restored); err != nil {
		log.Warning("failed to decode persisted conversation %s: %v", id, err)
		return nil, false
	}

	s.mu.Lock()
	// another goroutine may have rehydrated while we were decoding
	if existing, ok := s.conversations[id]; ok {
		s.mu.Unlock()
		return existing, true
	}
	s.conversations[id] = &restored
	s.mu.Unlock()

	return &restored, true
}

// Append adds a message to a conversation. Unknown conversation ids are
// tolerated: an empty backing history is created on demand so callers
// never have to pre-check existence.
func (s *Store) Append(id, role, content string) bool {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conversation, ok := s.Get(id)
	if !ok {
		now := time.Now()
		conversation = &Conversation{
			ID:        id,
			Secret:    generateSecret(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.mu.Lock()
		s.conversations[id] = conversation
		s.mu.Unlock()
	}

	now := time.Now()
	conversation.Messages = append(conversation.Messages, Message{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	conversation.UpdatedAt = now

	s.persist(conversation)
	return true
}

// AppendUser records a user message
func (s *Store) AppendUser(id, content string) bool {
	return s.Append(id, RoleUser, content)
}

// AppendAssistant records an assistant message
func (s *Store) AppendAssistant(id, content string) bool {
	return s.Append(id, RoleAssistant, content)
}

// AppendSystem records a system message
func (s *Store) AppendSystem(id, content string) bool {
	return s.Append(id, RoleSystem, content)
}

// SetTitle updates the conversation title
func (s *Store) SetTitle(id, title string) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conversation, ok := s.Get(id)
	if !ok {
		return
	}
	conversation.Title = title
	conversation.UpdatedAt = time.Now()
	s.persist(conversation)
}

// History returns a snapshot of the message history
func (s *Store) History(id string) ([]Message, bool) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conversation, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	messages := make([]Message, len(conversation.Messages))
	copy(messages, conversation.Messages)
	return messages, true
}

// ListByInstallation returns all conversations owned by an installation,
// including ones only the KV backend still knows about after a restart
func (s *Store) ListByInstallation(installationID string) []*Conversation {
	seen := make(map[string]bool)
	var result []*Conversation

	s.mu.RLock()
	for id, conversation := range s.conversations {
		if conversation.InstallationID == installationID {
			seen[id] = true
			result = append(result, conversation)
		}
	}
	s.mu.RUnlock()

	for _, id := range s.readIndex(installationID) {
		if seen[id] {
			continue
		}
		if conversation, ok := s.Get(id); ok {
			result = append(result, conversation)
		}
	}
	return result
}

// Clear removes a single conversation
func (s *Store) Clear(id string) {
	// rehydrate first so the owner's index can be updated
	conversation, ok := s.Get(id)

	s.mu.Lock()
	delete(s.conversations, id)
	delete(s.locks, id)
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.Delete(storageKey(id)); err != nil && err != kv.ErrNotFound {
			log.Warning("failed to delete persisted conversation %s: %v", id, err)
		}
	}

	if ok && conversation.InstallationID != "" {
		s.indexRemove(conversation.InstallationID, id)
	}
}

// ClearByInstallation removes every conversation owned by an installation,
// persisted ones included
func (s *Store) ClearByInstallation(installationID string) int {
	seen := make(map[string]bool)
	var ids []string

	s.mu.RLock()
	for id, conversation := range s.conversations {
		if conversation.InstallationID == installationID {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range s.readIndex(installationID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		s.Clear(id)
	}
	return len(ids)
}

// readIndex returns the persisted conversation ids for an installation
func (s *Store) readIndex(installationID string) []string {
	if s.backend == nil || installationID == "" {
		return nil
	}
	data, err := s.backend.Get(indexKey(installationID))
	if err != nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		log.Warning("failed to decode conversation index for %s: %v", installationID, err)
		return nil
	}
	return ids
}

func (s *Store) writeIndex(installationID string, ids []string) {
	key := indexKey(installationID)
	if len(ids) == 0 {
		if err := s.backend.Delete(key); err != nil && err != kv.ErrNotFound {
			log.Warning("failed to delete conversation index for %s: %v", installationID, err)
		}
		return
	}
	data, err := json.Marshal(ids)
	if err != nil {
		log.Error("failed to encode conversation index for %s: %v", installationID, err)
		return
	}
	if err := s.backend.Set(key, data); err != nil {
		log.Warning("failed to persist conversation index for %s: %v", installationID, err)
	}
}

func (s *Store) indexAdd(installationID, id string) {
	if s.backend == nil || installationID == "" {
		return
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ids := s.readIndex(installationID)
	for _, existing := range ids {
		if existing == id {
			return
		}
	}
	s.writeIndex(installationID, append(ids, id))
}

func (s *Store) indexRemove(installationID, id string) {
	if s.backend == nil || installationID == "" {
		return
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ids := s.readIndex(installationID)
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) != len(ids) {
		s.writeIndex(installationID, kept)
	}
}

func (s *Store) persist(conversation *Conversation) {
	if s.backend == nil {
		return
	}
	data, err := json.Marshal(conversation)
	if err != nil {
		log.Error("failed to encode conversation %s: %v", conversation.ID, err)
		return
	}
	if err := s.backend.Set(storageKey(conversation.ID), data); err != nil {
		log.Warning("failed to persist conversation %s: %v", conversation.ID, err)
	}
}
