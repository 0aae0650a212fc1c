package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/skinlens/internal/adapters/docstore"
	"github.com/okian/skinlens/internal/domain/apierr"
	"github.com/okian/skinlens/internal/domain/model"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat sends message on threadID, starting a new thread when threadID is
// empty, and returns the updated thread.
func (s *Service) Chat(ctx context.Context, threadID, message string) (model.ChatThread, error) {
	message = strings.TrimSpace(message)
	if err := required("chat", [2]string{"message", message}); err != nil {
		return model.ChatThread{}, err
	}
	if threadID == "" {
		threadID = uuid.NewString()
	}

	thread := s.thread(ctx, threadID)
	sentAt := s.now().UTC()

	reply, err := s.client.Chat(ctx, threadID, message)
	if err != nil {
		return model.ChatThread{}, err
	}
	if reply.ThreadID != "" && reply.ThreadID != threadID {
		thread.ID = reply.ThreadID
	}

	thread.Messages = append(thread.Messages,
		model.ChatMessage{Role: RoleUser, Content: message, At: sentAt},
		model.ChatMessage{Role: RoleAssistant, Content: reply.Reply, At: s.now().UTC()},
	)

	s.threadsMu.Lock()
	s.threads[thread.ID] = thread
	s.threadsMu.Unlock()

	s.mirrored(ctx, mirrorDocument, thread.ID, s.documents.UpsertThread(ctx, thread))
	return cloneThread(thread), nil
}

// Thread returns a known thread or apierr.ErrNotFound.
func (s *Service) Thread(ctx context.Context, threadID string) (model.ChatThread, error) {
	s.threadsMu.Lock()
	t, ok := s.threads[threadID]
	s.threadsMu.Unlock()
	if ok {
		return cloneThread(t), nil
	}
	t, err := s.documents.Thread(ctx, threadID)
	if err != nil {
		return model.ChatThread{}, &apierr.Error{Kind: apierr.KindNotFound, Op: "thread", Message: "thread " + threadID + " not found", Err: err}
	}
	return t, nil
}

// thread loads threadID from memory, then from the document store, or
// starts it empty.
func (s *Service) thread(ctx context.Context, threadID string) model.ChatThread {
	t, err := s.Thread(ctx, threadID)
	if err == nil {
		return t
	}
	if !errors.Is(err, docstore.ErrNotFound) && !errors.Is(err, docstore.ErrNotConfigured) {
		s.mirrored(ctx, mirrorDocument, threadID, err)
	}
	return model.ChatThread{ID: threadID, UserID: s.userID()}
}

func cloneThread(t model.ChatThread) model.ChatThread {
	t.Messages = append([]model.ChatMessage(nil), t.Messages...)
	return t
}
