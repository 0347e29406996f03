package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// memStore backs the repository fakes with maps that follow the same
// constraints as the postgres schema.
type memStore struct {
	mu sync.Mutex

	users         map[int64]models.User
	clubs         map[int64]models.ClubProfile
	invites       map[int64]models.Invite
	conversations map[int64]models.Conversation
	members       map[int64][]int64
	messages      []models.Message

	nextID int64
	now    time.Time
	tick   time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[int64]models.User{},
		clubs:         map[int64]models.ClubProfile{},
		invites:       map[int64]models.Invite{},
		conversations: map[int64]models.Conversation{},
		members:       map[int64][]int64{},
		now:           time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		tick:          time.Millisecond,
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) stamp() time.Time {
	s.now = s.now.Add(s.tick)
	return s.now
}

func (s *memStore) addUser(name string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{
		ID:          s.id(),
		Name:        name,
		Username:    strings.ToLower(name),
		Regno:       "REG-" + strings.ToUpper(name),
		Email:       strings.ToLower(name) + "@campus.test",
		AccountType: models.AccountStudent,
		IsApproved:  true,
		CreatedAt:   s.stamp(),
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) memberRows(conversationID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.members[conversationID] {
		if id == userID {
			n++
		}
	}
	return n
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *memStore) isMemberLocked(conversationID, userID int64) bool {
	for _, id := range s.members[conversationID] {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *memStore) addMemberLocked(conversationID, userID int64) {
	if !s.isMemberLocked(conversationID, userID) {
		s.members[conversationID] = append(s.members[conversationID], userID)
	}
}

type fakeUsers struct{ s *memStore }

var _ repositories.UserRepository = fakeUsers{}

func (f fakeUsers) Create(_ context.Context, user models.User, club *models.ClubProfile) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Username == user.Username || u.Email == user.Email || (user.Regno != "" && u.Regno == user.Regno) {
			return models.User{}, repositories.ErrDuplicate
		}
	}
	user.ID = f.s.id()
	user.CreatedAt = f.s.stamp()
	f.s.users[user.ID] = user
	if club != nil {
		club.UserID = user.ID
		f.s.clubs[user.ID] = *club
	}
	return user, nil
}

func (f fakeUsers) GetByID(_ context.Context, userID int64) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByLogin(_ context.Context, identifier string) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrUserNotFound
}

func (f fakeUsers) Exists(_ context.Context, userID int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.users[userID]
	return ok, nil
}

func (f fakeUsers) Search(_ context.Context, excludeID int64, query string, limit int) ([]models.PublicProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q := strings.ToLower(query)
	out := []models.PublicProfile{}
	for _, u := range f.s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Regno), q) {
			out = append(out, u.Profile())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeUsers) ListPendingClubs(_ context.Context) ([]models.PendingClub, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.PendingClub{}
	for _, u := range f.s.users {
		if u.AccountType != models.AccountClub || u.IsApproved {
			continue
		}
		pc := models.PendingClub{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
		if club, ok := f.s.clubs[u.ID]; ok {
			desc, cat := club.Description, club.Category
			pc.Description, pc.Category = &desc, &cat
		}
		out = append(out, pc)
	}
	return out, nil
}

func (f fakeUsers) ApproveClub(_ context.Context, userID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[userID]
	if !ok || u.AccountType != models.AccountClub {
		return repositories.ErrUserNotFound
	}
	u.IsApproved = true
	f.s.users[userID] = u
	return nil
}

type fakeInvites struct{ s *memStore }

var _ repositories.InviteRepository = fakeInvites{}

func samePair(inv models.Invite, a, b int64) bool {
	return (inv.FromUser == a && inv.ToUser == b) || (inv.FromUser == b && inv.ToUser == a)
}

func (f fakeInvites) FindBetween(_ context.Context, userA, userB int64) (models.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, inv := range f.s.invites {
		if samePair(inv, userA, userB) {
			return inv, nil
		}
	}
	return models.Invite{}, repositories.ErrInviteNotFound
}

func (f fakeInvites) Create(_ context.Context, fromUser, toUser int64) (models.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, inv := range f.s.invites {
		if samePair(inv, fromUser, toUser) {
			return models.Invite{}, repositories.ErrDuplicate
		}
	}
	now := f.s.stamp()
	inv := models.Invite{ID: f.s.id(), FromUser: fromUser, ToUser: toUser, Status: models.InvitePending, CreatedAt: now, UpdatedAt: now}
	f.s.invites[inv.ID] = inv
	return inv, nil
}

func (f fakeInvites) Reopen(_ context.Context, inviteID, fromUser, toUser int64) (models.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invites[inviteID]
	if !ok || inv.Status != models.InviteRejected {
		return models.Invite{}, repositories.ErrInviteNotFound
	}
	now := f.s.stamp()
	inv.FromUser, inv.ToUser, inv.Status, inv.CreatedAt, inv.UpdatedAt = fromUser, toUser, models.InvitePending, now, now
	f.s.invites[inviteID] = inv
	return inv, nil
}

func (f fakeInvites) GetPendingFor(_ context.Context, inviteID, toUser int64) (models.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invites[inviteID]
	if !ok || inv.ToUser != toUser || inv.Status != models.InvitePending {
		return models.Invite{}, repositories.ErrInviteNotFound
	}
	return inv, nil
}

func (f fakeInvites) Accept(_ context.Context, invite models.Invite) (models.Conversation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invites[invite.ID]
	if !ok || inv.Status != models.InvitePending {
		return models.Conversation{}, repositories.ErrInviteNotFound
	}
	inv.Status = models.InviteAccepted
	inv.UpdatedAt = f.s.stamp()
	f.s.invites[inv.ID] = inv

	conv := models.Conversation{ID: f.s.id(), Type: models.ConversationDirect, CreatedBy: inv.ToUser, CreatedAt: f.s.stamp()}
	f.s.conversations[conv.ID] = conv
	f.s.members[conv.ID] = []int64{inv.FromUser, inv.ToUser}
	return conv, nil
}

func (f fakeInvites) Reject(_ context.Context, inviteID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invites[inviteID]
	if !ok || inv.Status != models.InvitePending {
		return repositories.ErrInviteNotFound
	}
	inv.Status = models.InviteRejected
	inv.UpdatedAt = f.s.stamp()
	f.s.invites[inviteID] = inv
	return nil
}

func (f fakeInvites) list(userID int64, received bool) []models.InviteView {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.InviteView{}
	for _, inv := range f.s.invites {
		if inv.Status != models.InvitePending {
			continue
		}
		var other int64
		switch {
		case received && inv.ToUser == userID:
			other = inv.FromUser
		case !received && inv.FromUser == userID:
			other = inv.ToUser
		default:
			continue
		}
		u := f.s.users[other]
		out = append(out, models.InviteView{ID: inv.ID, FromUser: inv.FromUser, ToUser: inv.ToUser, Status: inv.Status,
			CreatedAt: inv.CreatedAt, Name: u.Name, Username: u.Username, Regno: u.Regno})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f fakeInvites) ListReceived(_ context.Context, userID int64) ([]models.InviteView, error) {
	return f.list(userID, true), nil
}

func (f fakeInvites) ListSent(_ context.Context, userID int64) ([]models.InviteView, error) {
	return f.list(userID, false), nil
}

func (f fakeInvites) AreConnected(_ context.Context, userA, userB int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, inv := range f.s.invites {
		if samePair(inv, userA, userB) && inv.Status == models.InviteAccepted {
			return true, nil
		}
	}
	return false, nil
}

type fakeConversations struct{ s *memStore }

var _ repositories.ConversationRepository = fakeConversations{}

func (f fakeConversations) CreateGroup(_ context.Context, creatorID int64, name string, memberIDs []int64) (models.Conversation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := name
	conv := models.Conversation{ID: f.s.id(), Type: models.ConversationGroup, Name: &n, CreatedBy: creatorID, CreatedAt: f.s.stamp()}
	f.s.conversations[conv.ID] = conv
	f.s.addMemberLocked(conv.ID, creatorID)
	for _, id := range memberIDs {
		f.s.addMemberLocked(conv.ID, id)
	}
	return conv, nil
}

func (f fakeConversations) GetConversation(_ context.Context, conversationID int64) (models.Conversation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	conv, ok := f.s.conversations[conversationID]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (f fakeConversations) IsMember(_ context.Context, conversationID, userID int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.isMemberLocked(conversationID, userID), nil
}

func (f fakeConversations) ListForUser(_ context.Context, userID int64) ([]models.ConversationSummary, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.ConversationSummary{}
	for id, conv := range f.s.conversations {
		if !f.s.isMemberLocked(id, userID) {
			continue
		}
		summary := models.ConversationSummary{ID: conv.ID, Type: conv.Type, Name: conv.Name, CreatedAt: conv.CreatedAt}
		for _, m := range f.s.messages {
			if m.ConversationID != id {
				continue
			}
			if summary.LastMessageTime == nil || !m.CreatedAt.Before(*summary.LastMessageTime) {
				content, at := m.Content, m.CreatedAt
				summary.LastMessage, summary.LastMessageTime = &content, &at
			}
		}
		if conv.Type == models.ConversationDirect {
			for _, member := range f.s.members[id] {
				if member != userID {
					profile := f.s.users[member].Profile()
					summary.OtherUser = &profile
				}
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.LastMessageTime != nil && b.LastMessageTime == nil:
			return true
		case a.LastMessageTime == nil && b.LastMessageTime != nil:
			return false
		case a.LastMessageTime != nil && !a.LastMessageTime.Equal(*b.LastMessageTime):
			return a.LastMessageTime.After(*b.LastMessageTime)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

func (f fakeConversations) ListMembers(_ context.Context, conversationID int64) ([]models.PublicProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.PublicProfile{}
	for _, id := range f.s.members[conversationID] {
		out = append(out, f.s.users[id].Profile())
	}
	return out, nil
}

func (f fakeConversations) MemberIDs(_ context.Context, conversationID int64) ([]int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return append([]int64(nil), f.s.members[conversationID]...), nil
}

func (f fakeConversations) AddMember(_ context.Context, conversationID, userID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.addMemberLocked(conversationID, userID)
	return nil
}

type fakeMessages struct{ s *memStore }

var _ repositories.MessageRepository = fakeMessages{}

func (f fakeMessages) CreateMessage(_ context.Context, msg models.Message) (models.Message, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	msg.ID = f.s.id()
	msg.CreatedAt = f.s.stamp()
	f.s.messages = append(f.s.messages, msg)
	return msg, nil
}

func (f fakeMessages) views(conversationID int64, keep func(models.Message) bool) []models.MessageView {
	out := []models.MessageView{}
	for _, m := range f.s.messages {
		if m.ConversationID != conversationID || !keep(m) {
			continue
		}
		u := f.s.users[m.SenderID]
		out = append(out, models.MessageView{Message: m, SenderName: u.Name, SenderUsername: u.Username})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f fakeMessages) ListRecent(_ context.Context, conversationID int64, limit int) ([]models.MessageView, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	all := f.views(conversationID, func(models.Message) bool { return true })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f fakeMessages) ListAfter(_ context.Context, conversationID int64, cursor models.MessageCursor) ([]models.MessageView, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.views(conversationID, func(m models.Message) bool { return !cursor.Before(m) }), nil
}

type fixture struct {
	store         *memStore
	accounts      *AccountService
	invites       *InviteService
	conversations *ConversationService
	messages      *MessageService
}

func newFixture() *fixture {
	store := newMemStore()
	users := fakeUsers{s: store}
	invites := fakeInvites{s: store}
	conversations := fakeConversations{s: store}
	messages := fakeMessages{s: store}

	accounts := NewAccountService(users)
	accounts.hashCost = 4

	return &fixture{
		store:         store,
		accounts:      accounts,
		invites:       NewInviteService(invites, users),
		conversations: NewConversationService(conversations, invites, users),
		messages:      NewMessageService(conversations, messages),
	}
}

// connect runs a full invite/accept cycle and returns the direct conversation id.
func (f *fixture) connect(from, to int64) int64 {
	ctx := context.Background()
	sent, err := f.invites.SendInvite(ctx, from, to)
	if err != nil {
		panic(err)
	}
	res, err := f.invites.RespondInvite(ctx, to, sent.Invite.ID, "accepted")
	if err != nil {
		panic(err)
	}
	return res.ConversationID
}
