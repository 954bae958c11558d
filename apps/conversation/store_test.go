package conversation

import (
	"testing"

	"github.com/vidbriefs/vidbriefs-backend/lib/kv"
)

func TestCreateSeedsPersona(t *testing.T) {
	store := NewStore(kv.NewMemory())

	conversation := store.Create("install-1", "https://youtu.be/abc")

	if conversation.ID == "" {
		t.Fatalf("expected a generated conversation id")
	}
	if conversation.Secret == "" {
		t.Fatalf("expected a generated secret")
	}
	if len(conversation.Messages) != 1 {
		t.Fatalf("expected exactly the persona message, got %d messages", len(conversation.Messages))
	}
	if conversation.Messages[0].Role != RoleSystem {
		t.Fatalf("first message role = %q, want system", conversation.Messages[0].Role)
	}
	if conversation.Messages[0].Content != DefaultPersona {
		t.Fatalf("first message should carry the default persona")
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	store := NewStore(kv.NewMemory())
	conversation := store.Create("install-1", "")

	store.AppendUser(conversation.ID, "first question")
	store.AppendAssistant(conversation.ID, "first answer")
	store.AppendUser(conversation.ID, "second question")

	history, ok := store.History(conversation.ID)
	if !ok {
		t.Fatalf("history should exist")
	}

	wantRoles := []string{RoleSystem, RoleUser, RoleAssistant, RoleUser}
	if len(history) != len(wantRoles) {
		t.Fatalf("history holds %d messages, want %d", len(history), len(wantRoles))
	}
	for i, role := range wantRoles {
		if history[i].Role != role {
			t.Fatalf("message %d role = %q, want %q", i, history[i].Role, role)
		}
	}
	if history[3].Content != "second question" {
		t.Fatalf("messages are out of append order")
	}
}

func TestAppendToUnknownConversation(t *testing.T) {
	store := NewStore(kv.NewMemory())

	if !store.AppendUser("ghost-id", "hello?") {
		t.Fatalf("append to an unknown conversation should succeed")
	}

	history, ok := store.History("ghost-id")
	if !ok {
		t.Fatalf("the backing history should have been created on demand")
	}
	// no persona seeding on the lenient path
	if len(history) != 1 || history[0].Role != RoleUser {
		t.Fatalf("expected only the appended message, got %+v", history)
	}
}

func TestHistoryReturnsSnapshot(t *testing.T) {
	store := NewStore(kv.NewMemory())
	conversation := store.Create("install-1", "")

	history, _ := store.History(conversation.ID)
	history[0].Content = "tampered"

	fresh, _ := store.History(conversation.ID)
	if fresh[0].Content != DefaultPersona {
		t.Fatalf("mutating a returned history should not affect the store")
	}
}

func TestGetRehydratesFromBackend(t *testing.T) {
	backend := kv.NewMemory()

	store := NewStore(backend)
	conversation := store.Create("install-1", "https://youtu.be/abc")
	store.AppendUser(conversation.ID, "question")
	store.SetTitle(conversation.ID, "A Short Title")

	// a fresh store over the same backend simulates a restart
	restarted := NewStore(backend)
	restored, ok := restarted.Get(conversation.ID)
	if !ok {
		t.Fatalf("conversation should be restored from the backend")
	}
	if restored.Title != "A Short Title" {
		t.Fatalf("restored title = %q", restored.Title)
	}
	if restored.Secret != conversation.Secret {
		t.Fatalf("restored secret does not match")
	}
	if len(restored.Messages) != 2 {
		t.Fatalf("restored history holds %d messages, want 2", len(restored.Messages))
	}
}

func TestClearRemovesConversation(t *testing.T) {
	backend := kv.NewMemory()
	store := NewStore(backend)
	conversation := store.Create("install-1", "")

	store.Clear(conversation.ID)

	if _, ok := store.Get(conversation.ID); ok {
		t.Fatalf("cleared conversation should be gone")
	}
	if _, err := backend.Get("conversation:" + conversation.ID); err != kv.ErrNotFound {
		t.Fatalf("cleared conversation should be deleted from the backend, got %v", err)
	}
}

func TestClearByInstallation(t *testing.T) {
	store := NewStore(kv.NewMemory())
	first := store.Create("install-1", "")
	second := store.Create("install-1", "")
	other := store.Create("install-2", "")

	removed := store.ClearByInstallation("install-1")
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if _, ok := store.Get(first.ID); ok {
		t.Fatalf("conversation %s should be gone", first.ID)
	}
	if _, ok := store.Get(second.ID); ok {
		t.Fatalf("conversation %s should be gone", second.ID)
	}
	if _, ok := store.Get(other.ID); !ok {
		t.Fatalf("another installation's conversation should survive")
	}
}

func TestListByInstallationSurvivesRestart(t *testing.T) {
	backend := kv.NewMemory()

	store := NewStore(backend)
	store.Create("install-1", "https://youtu.be/one")
	store.Create("install-1", "https://youtu.be/two")
	store.Create("install-2", "https://youtu.be/three")

	// a fresh store over the same backend simulates a restart
	restarted := NewStore(backend)
	listed := restarted.ListByInstallation("install-1")
	if len(listed) != 2 {
		t.Fatalf("restarted store lists %d conversations, want 2", len(listed))
	}
	for _, conversation := range listed {
		if conversation.InstallationID != "install-1" {
			t.Fatalf("listed conversation belongs to %q", conversation.InstallationID)
		}
	}
}

func TestClearByInstallationSurvivesRestart(t *testing.T) {
	backend := kv.NewMemory()

	store := NewStore(backend)
	first := store.Create("install-1", "")
	second := store.Create("install-1", "")
	other := store.Create("install-2", "")

	restarted := NewStore(backend)
	removed := restarted.ClearByInstallation("install-1")
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	for _, id := range []string{first.ID, second.ID} {
		if _, err := backend.Get("conversation:" + id); err != kv.ErrNotFound {
			t.Fatalf("conversation %s should be deleted from the backend, got %v", id, err)
		}
	}
	if _, err := backend.Get("conversations:install-1"); err != kv.ErrNotFound {
		t.Fatalf("the emptied owner index should be deleted from the backend, got %v", err)
	}
	if _, ok := restarted.Get(other.ID); !ok {
		t.Fatalf("another installation's conversation should survive")
	}
}

func TestClearUpdatesOwnerIndex(t *testing.T) {
	backend := kv.NewMemory()

	store := NewStore(backend)
	first := store.Create("install-1", "")
	second := store.Create("install-1", "")

	store.Clear(first.ID)

	restarted := NewStore(backend)
	listed := restarted.ListByInstallation("install-1")
	if len(listed) != 1 || listed[0].ID != second.ID {
		t.Fatalf("restarted store should list only the surviving conversation, got %d", len(listed))
	}
}

func TestListByInstallation(t *testing.T) {
	store := NewStore(kv.NewMemory())
	store.Create("install-1", "")
	store.Create("install-1", "")
	store.Create("install-2", "")

	if got := len(store.ListByInstallation("install-1")); got != 2 {
		t.Fatalf("ListByInstallation returned %d conversations, want 2", got)
	}
	if got := len(store.ListByInstallation("install-9")); got != 0 {
		t.Fatalf("unknown installation should own no conversations, got %d", got)
	}
}
