package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/mockbackend"
	"friendsClient/internal/types/friendrequest"
	"friendsClient/internal/types/user"
	"friendsClient/middleware"
	"friendsClient/services"
	"friendsClient/views"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type session struct {
	userID  string
	friends *services.FriendsService
	page    *views.FriendsPage
}

type harness struct {
	backend  *mockbackend.Server
	srv      *httptest.Server
	sessions map[string]*session
}

func newHarness(t *testing.T, usernames ...string) *harness {
	t.Helper()

	backend := mockbackend.New(quietLogger())
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	h := &harness{backend: backend, srv: srv, sessions: make(map[string]*session)}
	for _, name := range usernames {
		token := backend.AddUser(user.User{
			ID:        "u-" + name,
			Username:  name,
			FirstName: "Player",
			LastName:  name,
		})

		api, err := apiclient.New(apiclient.Config{
			BaseURL: srv.URL,
			HTTPClient: &http.Client{
				Transport: &middleware.AuthTransport{Source: middleware.StaticToken(token)},
			},
			Logger: quietLogger(),
		})
		require.NoError(t, err)

		friends := services.NewFriendsService(api, quietLogger())
		h.sessions[name] = &session{
			userID:  "u-" + name,
			friends: friends,
			page:    views.NewFriendsPage(friends, "u-"+name, views.NewLogNotifier(quietLogger()), quietLogger()),
		}
	}
	return h
}

func (h *harness) as(name string) *session { return h.sessions[name] }

// TestSendAcceptBecomeFriends walks the happy path: alice sends to bob,
// bob sees it, bob accepts, both friends lists include the other side.
func TestSendAcceptBecomeFriends(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	ctx := context.Background()
	alice, bob := h.as("alice"), h.as("bob")

	t.Log("Step 1: alice sends a friend request to bob")
	sent, err := alice.friends.SendRequest(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, alice.userID, sent.RequesterID)
	assert.Equal(t, bob.userID, sent.RecipientID)
	assert.Equal(t, friendrequest.StatusPending, sent.Status)

	t.Log("Step 2: bob fetches received requests and sees it")
	bob.page.Load(ctx)
	received := bob.page.Received.Requests()
	require.Len(t, received, 1)
	assert.Equal(t, sent.ID, received[0].ID)
	assert.Equal(t, "alice", received[0].Requester.Username)

	t.Log("Step 3: bob accepts")
	require.NoError(t, bob.page.Received.Accept(ctx, sent.ID))

	stored, ok := h.backend.Request(sent.ID)
	require.True(t, ok)
	assert.Equal(t, friendrequest.StatusAccepted, stored.Status)
	require.NotNil(t, stored.StatusChangedAt, "statusChangedAt set on leaving pending")

	t.Log("Step 4: both friends lists include the other user")
	alice.page.Load(ctx)
	aliceFriends := alice.page.Friends.Friends()
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, "bob", aliceFriends[0].Username)

	bobFriends := bob.page.Friends.Friends()
	require.Len(t, bobFriends, 1)
	assert.Equal(t, "alice", bobFriends[0].Username)
}

// TestDuplicateSendConflicts covers the double-send scenario: the second
// request before any transition fails with Conflict and creates nothing.
func TestDuplicateSendConflicts(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	ctx := context.Background()
	alice := h.as("alice")

	_, err := alice.friends.SendRequest(ctx, "bob")
	require.NoError(t, err)

	_, err = alice.friends.SendRequest(ctx, "bob")
	require.Error(t, err)
	assert.True(t, apiclient.IsConflict(err), "got %v", err)

	sent, err := alice.friends.ListSent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, sent.Data, 1, "the failed duplicate must not create a second record")
}

// TestCancelFlow: alice sends then cancels; the request becomes
// cancelled and bob's received list no longer shows it as pending.
func TestCancelFlow(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	ctx := context.Background()
	alice, bob := h.as("alice"), h.as("bob")

	sent, err := alice.friends.SendRequest(ctx, "bob")
	require.NoError(t, err)

	bob.page.Load(ctx)
	require.Len(t, bob.page.Received.Requests(), 1)

	alice.page.Load(ctx)
	require.NoError(t, alice.page.Sent.Cancel(ctx, sent.ID))

	stored, ok := h.backend.Request(sent.ID)
	require.True(t, ok)
	assert.Equal(t, friendrequest.StatusCancelled, stored.Status)

	bob.page.Received.Refresh(ctx)
	assert.Empty(t, bob.page.Received.Requests())

	// Cancelled is terminal: nothing can act on it any more.
	_, err = bob.friends.Accept(ctx, sent.ID)
	assert.True(t, apiclient.IsForbidden(err) || apiclient.IsInvalidState(err), "got %v", err)
}

// TestSearchExcludesFriendsAndPending exercises the whole
// search-and-send loop across three users.
func TestSearchExcludesFriendsAndPending(t *testing.T) {
	h := newHarness(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()
	alice, bob := h.as("alice"), h.as("bob")

	t.Log("Step 1: alice and bob are already friends")
	req, err := alice.friends.SendRequest(ctx, "bob")
	require.NoError(t, err)
	_, err = bob.friends.Accept(ctx, req.ID)
	require.NoError(t, err)

	t.Log("Step 2: alice searches and sees only carol and dave")
	alice.page.Load(ctx)
	alice.page.Search.SearchNow(ctx, "Player")
	names := usernames(alice.page.Search.Results())
	assert.ElementsMatch(t, []string{"carol", "dave"}, names)

	t.Log("Step 3: alice sends to carol from the results")
	var carol user.User
	for _, u := range alice.page.Search.Results() {
		if u.Username == "carol" {
			carol = u
		}
	}
	require.NoError(t, alice.page.Search.Send(ctx, carol))

	t.Log("Step 4: carol is now excluded from a fresh search")
	alice.page.Search.SearchNow(ctx, "Player")
	assert.ElementsMatch(t, []string{"dave"}, usernames(alice.page.Search.Results()))
}

// TestPaginationAcrossViews seeds enough requests to span pages and
// verifies the conservative page estimate plus the past-the-end case.
func TestPaginationAcrossViews(t *testing.T) {
	names := []string{"hub"}
	for i := 0; i < 23; i++ {
		names = append(names, nameFor(i))
	}
	h := newHarness(t, names...)
	ctx := context.Background()
	hub := h.as("hub")

	for i := 0; i < 23; i++ {
		_, err := h.as(nameFor(i)).friends.SendRequest(ctx, "hub")
		require.NoError(t, err)
	}

	hub.page.Load(ctx)
	assert.Len(t, hub.page.Received.Requests(), 10)
	assert.Equal(t, 2, hub.page.Received.TotalPagesKnown())

	hub.page.Received.SetPage(ctx, 2)
	assert.Len(t, hub.page.Received.Requests(), 10)
	assert.Equal(t, 3, hub.page.Received.TotalPagesKnown())

	hub.page.Received.SetPage(ctx, 3)
	assert.Len(t, hub.page.Received.Requests(), 3)
	assert.Equal(t, 3, hub.page.Received.TotalPagesKnown())

	// hasNextPage was false on page 3; page 4 must be empty, not an error.
	hub.page.Received.SetPage(ctx, 4)
	assert.Empty(t, hub.page.Received.Requests())
}

func nameFor(i int) string {
	return string(rune('a'+i/10)) + string(rune('0'+i%10)) + "user"
}

func usernames(users []user.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}
