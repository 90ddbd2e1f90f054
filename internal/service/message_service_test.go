package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chatline/internal/domain"
	"chatline/internal/repository"
)

func seedGlobal(t *testing.T, repo *repository.MemoryMessageRepository, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if _, err := repo.Append(context.Background(), domain.Message{
			Sender:  "alice",
			Content: fmt.Sprintf("m%d", i),
			SentAt:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestMessageService_RecentGlobal(t *testing.T) {
	repo := repository.NewMemoryMessageRepository()
	svc := NewMessageService(repo)
	seedGlobal(t, repo, 5)

	got, err := svc.RecentGlobal(context.Background(), 3)
	if err != nil {
		t.Fatalf("recent global: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0].Content != "m3" || got[2].Content != "m5" {
		t.Fatalf("expected chronological tail, got %v", got)
	}
}

func TestMessageService_RecentGlobalClampsLimit(t *testing.T) {
	repo := repository.NewMemoryMessageRepository()
	svc := NewMessageService(repo)
	seedGlobal(t, repo, 3)

	for _, limit := range []int{0, -1, 10_000} {
		got, err := svc.RecentGlobal(context.Background(), limit)
		if err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		if len(got) != 3 {
			t.Fatalf("limit %d: expected full history, got %d", limit, len(got))
		}
	}
}

func TestMessageService_RecentGlobalEmptyHistory(t *testing.T) {
	svc := NewMessageService(repository.NewMemoryMessageRepository())

	got, err := svc.RecentGlobal(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent global: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestMessageService_NotConfigured(t *testing.T) {
	var svc *MessageService
	if _, err := svc.RecentGlobal(context.Background(), 10); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}

	svc = NewMessageService(nil)
	if _, err := svc.RecentGlobal(context.Background(), 10); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}
}
