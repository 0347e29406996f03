package repositories

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/db"
	"campus-chat/internal/models"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	database, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func createUser(t *testing.T, users *UserRepo, name string) models.User {
	t.Helper()
	tag := uuid.NewString()[:8]
	user, err := users.Create(context.Background(), models.User{
		Name:         name,
		Username:     name + "_" + tag,
		Regno:        "R" + tag,
		Email:        name + "." + tag + "@campus.test",
		PasswordHash: "x",
		AccountType:  models.AccountStudent,
		IsApproved:   true,
	}, nil)
	require.NoError(t, err)
	return user
}

func connect(t *testing.T, invites *InviteRepo, from, to int64) models.Conversation {
	t.Helper()
	ctx := context.Background()
	invite, err := invites.Create(ctx, from, to)
	require.NoError(t, err)
	conv, err := invites.Accept(ctx, invite)
	require.NoError(t, err)
	return conv
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%a\_b%`, containsPattern("a_b"))
	assert.Equal(t, `%50\%%`, containsPattern("50%"))
	assert.Equal(t, `%c:\\d%`, containsPattern(`c:\d`))
}

func TestInviteRejectReinviteAccept(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	users, invites, conversations := NewUserRepo(database), NewInviteRepo(database), NewConversationRepo(database)
	asha, bram := createUser(t, users, "asha"), createUser(t, users, "bram")

	invite, err := invites.Create(ctx, asha.ID, bram.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitePending, invite.Status)

	_, err = invites.Create(ctx, bram.ID, asha.ID)
	assert.ErrorIs(t, err, ErrDuplicate, "one edge per unordered pair")

	require.NoError(t, invites.Reject(ctx, invite.ID))
	assert.ErrorIs(t, invites.Reject(ctx, invite.ID), ErrInviteNotFound)

	found, err := invites.FindBetween(ctx, bram.ID, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteRejected, found.Status)

	reopened, err := invites.Reopen(ctx, invite.ID, bram.ID, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, reopened.ID)
	assert.Equal(t, bram.ID, reopened.FromUser)
	assert.Equal(t, models.InvitePending, reopened.Status)

	_, err = invites.Reopen(ctx, invite.ID, bram.ID, asha.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound, "only rejected edges reopen")

	_, err = invites.GetPendingFor(ctx, invite.ID, bram.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound, "the sender cannot answer")
	pending, err := invites.GetPendingFor(ctx, invite.ID, asha.ID)
	require.NoError(t, err)

	received, err := invites.ListReceived(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, bram.Username, received[0].Username)

	conv, err := invites.Accept(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationDirect, conv.Type)
	assert.Nil(t, conv.Name)

	_, err = invites.Accept(ctx, pending)
	assert.ErrorIs(t, err, ErrInviteNotFound, "a second acceptance finds nothing pending")

	ids, err := conversations.MemberIDs(ctx, conv.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{asha.ID, bram.ID}, ids)

	connected, err := invites.AreConnected(ctx, bram.ID, asha.ID)
	require.NoError(t, err)
	assert.True(t, connected)

	list, err := conversations.ListForUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].OtherUser)
	assert.Equal(t, bram.ID, list[0].OtherUser.ID)
}

func TestMessageCursors(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	users, invites, messages := NewUserRepo(database), NewInviteRepo(database), NewMessageRepo(database)
	asha, bram := createUser(t, users, "asha"), createUser(t, users, "bram")
	conv := connect(t, invites, asha.ID, bram.ID)

	hello, err := messages.CreateMessage(ctx, models.Message{ConversationID: conv.ID, SenderID: asha.ID, Type: models.MessageText, Content: "hello"})
	require.NoError(t, err)

	after, err := messages.ListAfter(ctx, conv.ID, models.MessageCursor{After: hello.CreatedAt})
	require.NoError(t, err)
	assert.Empty(t, after)

	after, err = messages.ListAfter(ctx, conv.ID, models.MessageCursor{After: hello.CreatedAt.Add(-time.Microsecond)})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "hello", after[0].Content)
	assert.Equal(t, asha.Username, after[0].SenderUsername)

	// two rows sharing a timestamp are split by id
	var tied []int64
	require.NoError(t, database.SelectContext(ctx, &tied, `INSERT INTO messages (conversation_id, sender_id, content, created_at)
        VALUES ($1, $2, 'first', $3), ($1, $2, 'second', $3) RETURNING id`, conv.ID, bram.ID, hello.CreatedAt.Add(time.Second)))
	sort.Slice(tied, func(i, j int) bool { return tied[i] < tied[j] })

	after, err = messages.ListAfter(ctx, conv.ID, models.MessageCursor{After: hello.CreatedAt.Add(time.Second), AfterID: tied[0]})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, tied[1], after[0].ID)

	after, err = messages.ListAfter(ctx, conv.ID, models.MessageCursor{After: hello.CreatedAt, AfterID: hello.ID})
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, tied, []int64{after[0].ID, after[1].ID})

	recent, err := messages.ListRecent(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, tied, []int64{recent[0].ID, recent[1].ID}, "latest two, ascending")

	recent, err = messages.ListRecent(ctx, conv.ID, 100)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, hello.ID, recent[0].ID)
}

func TestGroupMembershipAndListing(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	users, invites, conversations, messages := NewUserRepo(database), NewInviteRepo(database), NewConversationRepo(database), NewMessageRepo(database)
	asha, bram, chen := createUser(t, users, "asha"), createUser(t, users, "bram"), createUser(t, users, "chen")
	direct := connect(t, invites, asha.ID, bram.ID)

	group, err := conversations.CreateGroup(ctx, asha.ID, "Study", []int64{bram.ID, bram.ID, asha.ID})
	require.NoError(t, err)
	require.NotNil(t, group.Name)
	assert.Equal(t, "Study", *group.Name)

	members, err := conversations.ListMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, asha.ID, members[0].ID)

	require.NoError(t, conversations.AddMember(ctx, group.ID, chen.ID))
	require.NoError(t, conversations.AddMember(ctx, group.ID, chen.ID))
	ids, err := conversations.MemberIDs(ctx, group.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{asha.ID, bram.ID, chen.ID}, ids)

	member, err := conversations.IsMember(ctx, direct.ID, chen.ID)
	require.NoError(t, err)
	assert.False(t, member)

	_, err = conversations.GetConversation(ctx, -1)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	// the group is newer, but only the direct conversation has a message
	_, err = messages.CreateMessage(ctx, models.Message{ConversationID: direct.ID, SenderID: bram.ID, Type: models.MessageText, Content: "hi"})
	require.NoError(t, err)

	list, err := conversations.ListForUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, direct.ID, list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "hi", *list[0].LastMessage)
	assert.Equal(t, group.ID, list[1].ID)
	assert.Nil(t, list[1].LastMessage)
	assert.Nil(t, list[1].OtherUser)
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(database)
	tag := uuid.NewString()[:8]
	literal := createUser(t, users, "a_b"+tag)
	createUser(t, users, "axb"+tag)
	viewer := createUser(t, users, "viewer")

	found, err := users.Search(ctx, viewer.ID, "a_b"+tag, 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, literal.ID, found[0].ID)

	found, err = users.Search(ctx, literal.ID, "a_b"+tag, 20)
	require.NoError(t, err)
	assert.Empty(t, found, "the caller is excluded")
}
