package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
)

func newRepo(t *testing.T) *GormMessageRepository {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db, &domain.ChatMessageModel{}))
	return NewGormMessageRepository(db, idgen.NewULIDGenerator())
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	repo := newRepo(t)
	msg := &domain.ChatMessage{MeetingID: "m1", UserID: "u1", Content: "hello"}

	require.NoError(t, repo.Create(context.Background(), msg))
	assert.Len(t, msg.ID, 26)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Equal(t, "hello", msg.Content)
}

func TestListByMeetingReturnsLatestOldestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.ChatMessage{MeetingID: "m1", UserID: "u1", Content: fmt.Sprintf("msg-%d", i)}))
	}
	require.NoError(t, repo.Create(ctx, &domain.ChatMessage{MeetingID: "m2", UserID: "u1", Content: "elsewhere"}))

	msgs, err := repo.ListByMeeting(ctx, "m1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-2", msgs[0].Content)
	assert.Equal(t, "msg-4", msgs[2].Content)

	all, err := repo.ListByMeeting(ctx, "m1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
