package bot

import (
	"testing"
	"time"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

func TestGetReturnsSameSession(t *testing.T) {
	m := NewSessionManager()

	if m.Get("C1") != m.Get("C1") {
		t.Error("Get must return the same session for a channel")
	}
	if m.Get("C1") == m.Get("C2") {
		t.Error("channels must not share a session")
	}
}

func TestSnapshotReportsHeldSessionAsBusy(t *testing.T) {
	m := NewSessionManager()
	s := m.Get("C1")
	s.mu.Lock()
	s.offerChallenge(&domain.Challenge{Slug: "multiply"})
	s.acceptOffered("proj", "sol")
	// Keep the lock, as a handler does across a remote call.

	done := make(chan []SessionInfo, 1)
	go func() { done <- m.Snapshot() }()

	var infos []SessionInfo
	select {
	case infos = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Snapshot blocked on a held session lock")
	}
	if len(infos) != 1 || infos[0].State != "busy" {
		t.Fatalf("snapshot = %+v, want one busy session", infos)
	}

	s.mu.Unlock()
	infos = m.Snapshot()
	if len(infos) != 1 || infos[0].State != "in_progress" || infos[0].Kata != "multiply" {
		t.Fatalf("snapshot after release = %+v", infos)
	}
}
