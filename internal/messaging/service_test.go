package messaging_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/messaging"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/social"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	database.DB = db
	database.RDB = nil
	require.NoError(t, user.PrimeCachedDB())
	require.NoError(t, category.PrimeCachedDB())
	require.NoError(t, social.PrimeModule())
	require.NoError(t, messaging.PrimeModule())
}

func newUser(t *testing.T, email string) *user.User {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	u := &user.User{
		ID:       id.String(),
		Email:    email,
		UserType: user.TypeIndividual,
	}
	require.NoError(t, database.DB.Create(u).Error)
	return u
}

func newCategory(t *testing.T, creatorID *string, commentsDisabled bool) *category.Category {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	cat := &category.Category{
		ID:               id.String(),
		Name:             "Test Category",
		IsActive:         true,
		Status:           category.StatusActive,
		CreatorID:        creatorID,
		CommentsDisabled: commentsDisabled,
	}
	require.NoError(t, database.DB.Create(cat).Error)
	return cat
}

func TestCreateCommentAndReply(t *testing.T) {
	setupTestDB(t)

	author := newUser(t, "author@example.com")
	cat := newCategory(t, nil, false)

	parent, err := messaging.CreateComment(author, messaging.CreateCommentInput{
		CategoryID: cat.ID,
		Content:    "First!",
	})
	require.NoError(t, err)

	reply, err := messaging.CreateComment(author, messaging.CreateCommentInput{
		CategoryID: cat.ID,
		ParentID:   &parent.ID,
		Content:    "Replying to myself",
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	// 回复必须指向现存评论
	bogus := "no-such-comment"
	_, err = messaging.CreateComment(author, messaging.CreateCommentInput{
		CategoryID: cat.ID,
		ParentID:   &bogus,
		Content:    "orphan",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateCommentDisabled(t *testing.T) {
	setupTestDB(t)

	author := newUser(t, "author@example.com")
	cat := newCategory(t, nil, true)

	_, err := messaging.CreateComment(author, messaging.CreateCommentInput{
		CategoryID: cat.ID,
		Content:    "should fail",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCreateCommentBlockedByCreator(t *testing.T) {
	setupTestDB(t)

	creator := newUser(t, "creator@example.com")
	troll := newUser(t, "troll@example.com")
	cat := newCategory(t, &creator.ID, false)

	require.NoError(t, social.Block(creator, troll.ID))

	_, err := messaging.CreateComment(troll, messaging.CreateCommentInput{
		CategoryID: cat.ID,
		Content:    "blocked",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestListCommentsFiltersBlockedAuthors(t *testing.T) {
	setupTestDB(t)

	viewer := newUser(t, "viewer@example.com")
	friend := newUser(t, "friend@example.com")
	foe := newUser(t, "foe@example.com")
	cat := newCategory(t, nil, false)

	_, err := messaging.CreateComment(friend, messaging.CreateCommentInput{CategoryID: cat.ID, Content: "hello"})
	require.NoError(t, err)
	_, err = messaging.CreateComment(foe, messaging.CreateCommentInput{CategoryID: cat.ID, Content: "noise"})
	require.NoError(t, err)

	require.NoError(t, social.Block(viewer, foe.ID))

	comments, err := messaging.ListComments(cat.ID, viewer.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, friend.ID, comments[0].UserID)
	assert.Equal(t, "friend", comments[0].AuthorName)

	// 未认证的浏览者看到全部评论
	all, err := messaging.ListComments(cat.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestToggleCommentLike(t *testing.T) {
	setupTestDB(t)

	author := newUser(t, "author@example.com")
	fan := newUser(t, "fan@example.com")
	cat := newCategory(t, nil, false)

	comment, err := messaging.CreateComment(author, messaging.CreateCommentInput{CategoryID: cat.ID, Content: "like me"})
	require.NoError(t, err)

	liked, count, err := messaging.ToggleCommentLike(fan, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = messaging.ToggleCommentLike(fan, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)
}

func TestDeleteCommentOwnershipEnforced(t *testing.T) {
	setupTestDB(t)

	author := newUser(t, "author@example.com")
	other := newUser(t, "other@example.com")
	cat := newCategory(t, nil, false)

	comment, err := messaging.CreateComment(author, messaging.CreateCommentInput{CategoryID: cat.ID, Content: "mine"})
	require.NoError(t, err)

	err = messaging.DeleteComment(other, comment.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, messaging.DeleteComment(author, comment.ID))
	var count int64
	require.NoError(t, database.DB.Model(&messaging.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDirectConversationCreateOrGet(t *testing.T) {
	setupTestDB(t)

	alice := newUser(t, "alice@example.com")
	bob := newUser(t, "bob@example.com")

	conv, err := messaging.GetOrCreateDirectConversation(alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, messaging.ConversationDirect, conv.Type)

	// 任一方再次发起都命中同一会话
	same, err := messaging.GetOrCreateDirectConversation(bob, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, same.ID)

	var count int64
	require.NoError(t, database.DB.Model(&messaging.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDirectConversationBlockedRejected(t *testing.T) {
	setupTestDB(t)

	alice := newUser(t, "alice@example.com")
	bob := newUser(t, "bob@example.com")

	require.NoError(t, social.Block(bob, alice.ID))

	_, err := messaging.GetOrCreateDirectConversation(alice, bob.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// 屏蔽方自己也无法发起
	_, err = messaging.GetOrCreateDirectConversation(bob, alice.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSendMessageAndUnreadFlow(t *testing.T) {
	setupTestDB(t)

	alice := newUser(t, "alice@example.com")
	bob := newUser(t, "bob@example.com")

	conv, err := messaging.GetOrCreateDirectConversation(alice, bob.ID)
	require.NoError(t, err)

	msg, err := messaging.SendMessage(alice, conv.ID, "hey bob", nil)
	require.NoError(t, err)
	assert.Equal(t, messaging.MessageSent, msg.Status)

	// 发送方没有未读，接收方有一条
	total, err := messaging.TotalUnread(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	total, err = messaging.TotalUnread(bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	inbox, err := messaging.ListInbox(bob)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, alice.ID, inbox[0].PeerID)
	assert.Equal(t, "hey bob", inbox[0].LastMessage)
	assert.Equal(t, int64(1), inbox[0].UnreadCount)

	marked, err := messaging.MarkRead(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	total, err = messaging.TotalUnread(bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestListMessagesWithReplyAndLikes(t *testing.T) {
	setupTestDB(t)

	alice := newUser(t, "alice@example.com")
	bob := newUser(t, "bob@example.com")
	outsider := newUser(t, "outsider@example.com")

	conv, err := messaging.GetOrCreateDirectConversation(alice, bob.ID)
	require.NoError(t, err)

	first, err := messaging.SendMessage(alice, conv.ID, "original", nil)
	require.NoError(t, err)
	_, err = messaging.SendMessage(bob, conv.ID, "reply", &first.ID)
	require.NoError(t, err)

	liked, count, err := messaging.ToggleMessageLike(bob, first.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	messages, err := messaging.ListMessages(alice, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "alice", messages[0].SenderName)
	assert.Equal(t, int64(1), messages[0].LikeCount)
	assert.False(t, messages[0].HasLiked)
	assert.Equal(t, "original", messages[1].ReplyToContent)

	// 非会话成员不可见
	_, err = messaging.ListMessages(outsider, conv.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = messaging.SendMessage(outsider, conv.ID, "intruding", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestClearAndLeaveConversation(t *testing.T) {
	setupTestDB(t)

	alice := newUser(t, "alice@example.com")
	bob := newUser(t, "bob@example.com")

	conv, err := messaging.GetOrCreateDirectConversation(alice, bob.ID)
	require.NoError(t, err)
	_, err = messaging.SendMessage(alice, conv.ID, "to be cleared", nil)
	require.NoError(t, err)

	require.NoError(t, messaging.ClearConversation(alice, conv.ID))
	var msgCount int64
	require.NoError(t, database.DB.Model(&messaging.Message{}).Count(&msgCount).Error)
	assert.Equal(t, int64(0), msgCount)

	// 两名成员都离开后，会话本身被删除
	require.NoError(t, messaging.LeaveConversation(alice, conv.ID))
	require.NoError(t, messaging.LeaveConversation(bob, conv.ID))

	var convCount int64
	require.NoError(t, database.DB.Model(&messaging.Conversation{}).Count(&convCount).Error)
	assert.Equal(t, int64(0), convCount)
}
