package views

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/pagination"
	"friendsClient/internal/types/friendrequest"
	"friendsClient/internal/types/user"
	"friendsClient/services"
)

// FriendsView models the accepted-friends list. The backend returns
// accepted friend requests; the friend shown is whichever side is not
// the current user.
type FriendsView struct {
	friends       *services.FriendsService
	notify        Notifier
	broadcaster   *RefreshBroadcaster
	subID         int
	currentUserID string
	log           *logrus.Entry
	pageSize      int

	mu       sync.Mutex
	requests []friendrequest.FriendRequestWithUsers
	tracker  *pagination.Tracker
	loading  bool
}

func NewFriendsView(friends *services.FriendsService, currentUserID string, notify Notifier, broadcaster *RefreshBroadcaster, logger *logrus.Logger) *FriendsView {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	v := &FriendsView{
		friends:       friends,
		notify:        notify,
		broadcaster:   broadcaster,
		currentUserID: currentUserID,
		log:           logger.WithField("view", "friends"),
		pageSize:      defaultPageSize,
		tracker:       pagination.NewTracker(),
	}
	if broadcaster != nil {
		v.subID = broadcaster.Subscribe(v.onExternalRefresh)
	}
	return v
}

func (v *FriendsView) onExternalRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v.Refresh(ctx)
}

// Refresh re-fetches page 1 and resets the page estimate.
func (v *FriendsView) Refresh(ctx context.Context) {
	v.mu.Lock()
	v.tracker.Reset()
	v.mu.Unlock()
	v.fetch(ctx, 1)
}

// SetPage fetches page n.
func (v *FriendsView) SetPage(ctx context.Context, n int) {
	v.fetch(ctx, n)
}

func (v *FriendsView) fetch(ctx context.Context, page int) {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	result, err := v.friends.ListFriends(ctx, page, v.pageSize)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		v.requests = nil
		v.notify.Error("Error", apiclient.UserMessage(err))
		return
	}
	v.requests = result.Data
	v.tracker.Advance(page, result.HasNextPage)
}

// Friends resolves the current page of accepted requests into the users
// on the other side. Records not involving the current user are skipped.
func (v *FriendsView) Friends() []user.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]user.User, 0, len(v.requests))
	for i := range v.requests {
		if friend := v.requests[i].FriendOf(v.currentUserID); friend != nil {
			out = append(out, *friend)
		}
	}
	return out
}

// Requests returns the raw accepted-request records for the page.
func (v *FriendsView) Requests() []friendrequest.FriendRequestWithUsers {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]friendrequest.FriendRequestWithUsers, len(v.requests))
	copy(out, v.requests)
	return out
}

func (v *FriendsView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tracker.Page()
}

func (v *FriendsView) TotalPagesKnown() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tracker.TotalKnown()
}

func (v *FriendsView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *FriendsView) Close() {
	if v.broadcaster != nil {
		v.broadcaster.Unsubscribe(v.subID)
	}
}
