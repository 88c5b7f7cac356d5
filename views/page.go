package views

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"friendsClient/services"
)

// exclusionFetchLimit caps how much of each list feeds the search
// exclusion sets: page 1 only, 100 records. Users beyond that can slip
// past the client-side filter; the server still rejects the duplicate
// with a Conflict.
const exclusionFetchLimit = 100

// FriendsPage wires the friends screen together: the four tab views, a
// shared refresh broadcaster, and the exclusion sets the search flow
// filters against. After any mutating action the broadcaster fires and
// the page re-derives the sets from the server; nothing is patched in
// place.
type FriendsPage struct {
	friends       *services.FriendsService
	currentUserID string
	notify        Notifier
	log           *logrus.Entry

	Broadcaster *RefreshBroadcaster
	Search      *SearchView
	Friends     *FriendsView
	Sent        *RequestsView
	Received    *RequestsView

	mu              sync.Mutex
	existingFriends map[string]struct{}
	pendingRequests map[string]struct{}
}

func NewFriendsPage(friends *services.FriendsService, currentUserID string, notify Notifier, logger *logrus.Logger) *FriendsPage {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if notify == nil {
		notify = NewLogNotifier(logger)
	}

	p := &FriendsPage{
		friends:         friends,
		currentUserID:   currentUserID,
		notify:          notify,
		log:             logger.WithField("view", "friends-page"),
		Broadcaster:     NewRefreshBroadcaster(),
		existingFriends: make(map[string]struct{}),
		pendingRequests: make(map[string]struct{}),
	}

	p.Broadcaster.Subscribe(p.onExternalRefresh)
	p.Friends = NewFriendsView(friends, currentUserID, notify, p.Broadcaster, logger)
	p.Sent = NewRequestsView(KindSent, friends, notify, p.Broadcaster, logger)
	p.Received = NewRequestsView(KindReceived, friends, notify, p.Broadcaster, logger)
	p.Search = NewSearchView(friends, currentUserID, p, notify, p.Broadcaster, logger)
	return p
}

func (p *FriendsPage) onExternalRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.RefreshExclusions(ctx)
}

// Load performs the initial fetch for every tab plus the exclusion sets.
func (p *FriendsPage) Load(ctx context.Context) {
	p.RefreshExclusions(ctx)
	p.Friends.Refresh(ctx)
	p.Sent.Refresh(ctx)
	p.Received.Refresh(ctx)
}

// RefreshExclusions re-derives the search filter sets from the server:
// existing friends from the friends list, pending counterparts from the
// union of sent-request recipients and received-request requesters.
func (p *FriendsPage) RefreshExclusions(ctx context.Context) {
	existing := make(map[string]struct{})
	pending := make(map[string]struct{})

	if friendsPage, err := p.friends.ListFriends(ctx, 1, exclusionFetchLimit); err == nil {
		for i := range friendsPage.Data {
			if friend := friendsPage.Data[i].FriendOf(p.currentUserID); friend != nil {
				existing[friend.ID] = struct{}{}
			}
		}
	} else {
		p.log.WithError(err).Warn("failed to fetch friends for search exclusions")
	}

	if sent, err := p.friends.ListSent(ctx, 1, exclusionFetchLimit); err == nil {
		for i := range sent.Data {
			pending[sent.Data[i].Recipient.ID] = struct{}{}
		}
	} else {
		p.log.WithError(err).Warn("failed to fetch sent requests for search exclusions")
	}

	if received, err := p.friends.ListReceived(ctx, 1, exclusionFetchLimit); err == nil {
		for i := range received.Data {
			pending[received.Data[i].Requester.ID] = struct{}{}
		}
	} else {
		p.log.WithError(err).Warn("failed to fetch received requests for search exclusions")
	}

	p.mu.Lock()
	p.existingFriends = existing
	p.pendingRequests = pending
	p.mu.Unlock()
}

// ExcludedUserIDs implements ExclusionProvider for the search view.
func (p *FriendsPage) ExcludedUserIDs() (map[string]struct{}, map[string]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing := make(map[string]struct{}, len(p.existingFriends))
	for id := range p.existingFriends {
		existing[id] = struct{}{}
	}
	pending := make(map[string]struct{}, len(p.pendingRequests))
	for id := range p.pendingRequests {
		pending[id] = struct{}{}
	}
	return existing, pending
}

// Close unsubscribes all child views.
func (p *FriendsPage) Close() {
	p.Friends.Close()
	p.Sent.Close()
	p.Received.Close()
}
