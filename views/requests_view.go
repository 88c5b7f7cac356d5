package views

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/pagination"
	"friendsClient/internal/types/friendrequest"
	"friendsClient/services"
)

// RequestKind selects which side of the request the view shows.
type RequestKind string

const (
	KindSent     RequestKind = "sent"
	KindReceived RequestKind = "received"
)

const defaultPageSize = 10

// RequestsView models one friend-request list (sent or received): one
// fetched page, a conservative page-count estimate, and per-request
// busy flags so independent actions do not block each other. Local
// state is only ever a cache of the last successful fetch; every
// mutation is followed by a re-fetch, never patched in place.
type RequestsView struct {
	kind        RequestKind
	friends     *services.FriendsService
	notify      Notifier
	broadcaster *RefreshBroadcaster
	subID       int
	log         *logrus.Entry
	pageSize    int

	mu       sync.Mutex
	requests []friendrequest.FriendRequestWithUsers
	tracker  *pagination.Tracker
	loading  bool
	busy     map[string]bool
}

func NewRequestsView(kind RequestKind, friends *services.FriendsService, notify Notifier, broadcaster *RefreshBroadcaster, logger *logrus.Logger) *RequestsView {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	v := &RequestsView{
		kind:        kind,
		friends:     friends,
		notify:      notify,
		broadcaster: broadcaster,
		log:         logger.WithFields(logrus.Fields{"view": "requests", "kind": kind}),
		pageSize:    defaultPageSize,
		tracker:     pagination.NewTracker(),
		busy:        make(map[string]bool),
	}
	if broadcaster != nil {
		v.subID = broadcaster.Subscribe(v.onExternalRefresh)
	}
	return v
}

func (v *RequestsView) onExternalRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v.Refresh(ctx)
}

// Refresh re-fetches page 1 and resets the page estimate.
func (v *RequestsView) Refresh(ctx context.Context) {
	v.mu.Lock()
	v.tracker.Reset()
	v.mu.Unlock()
	v.fetch(ctx, 1)
}

// SetPage fetches page n. Requesting a page past the known end yields an
// empty list, not an error.
func (v *RequestsView) SetPage(ctx context.Context, n int) {
	v.fetch(ctx, n)
}

func (v *RequestsView) fetch(ctx context.Context, page int) {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	var result *pagination.Page[friendrequest.FriendRequestWithUsers]
	var err error
	switch v.kind {
	case KindSent:
		result, err = v.friends.ListSent(ctx, page, v.pageSize)
	default:
		result, err = v.friends.ListReceived(ctx, page, v.pageSize)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		// Degrade to an empty list; the notification carries whatever
		// the server said.
		v.requests = nil
		v.notify.Error("Error", apiclient.UserMessage(err))
		return
	}
	v.requests = result.Data
	v.tracker.Advance(page, result.HasNextPage)
}

// Accept accepts a pending received request. Not available on the sent
// view: a requester cannot accept their own request, so the action is
// hidden rather than sent to the server.
func (v *RequestsView) Accept(ctx context.Context, id string) error {
	if v.kind != KindReceived {
		v.notify.Error("Error", "Only the recipient can accept a friend request.")
		return &apiclient.APIError{Kind: apiclient.KindForbidden, Message: "accept is not available on sent requests"}
	}
	return v.act(ctx, id, "Friend request accepted.", func(ctx context.Context) error {
		_, err := v.friends.Accept(ctx, id)
		return err
	})
}

// Reject rejects a pending received request.
func (v *RequestsView) Reject(ctx context.Context, id string) error {
	if v.kind != KindReceived {
		v.notify.Error("Error", "Only the recipient can reject a friend request.")
		return &apiclient.APIError{Kind: apiclient.KindForbidden, Message: "reject is not available on sent requests"}
	}
	return v.act(ctx, id, "Friend request rejected.", func(ctx context.Context) error {
		_, err := v.friends.Reject(ctx, id)
		return err
	})
}

// Cancel withdraws a pending sent request.
func (v *RequestsView) Cancel(ctx context.Context, id string) error {
	if v.kind != KindSent {
		v.notify.Error("Error", "Only the requester can cancel a friend request.")
		return &apiclient.APIError{Kind: apiclient.KindForbidden, Message: "cancel is not available on received requests"}
	}
	return v.act(ctx, id, "Friend request cancelled.", func(ctx context.Context) error {
		return v.friends.Cancel(ctx, id)
	})
}

func (v *RequestsView) act(ctx context.Context, id, successMsg string, fn func(context.Context) error) error {
	v.mu.Lock()
	if v.busy[id] {
		v.mu.Unlock()
		return nil
	}
	v.busy[id] = true
	page := v.tracker.Page()
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.busy, id)
		v.mu.Unlock()
	}()

	if err := fn(ctx); err != nil {
		v.notify.Error("Error", apiclient.UserMessage(err))
		return err
	}

	v.notify.Success("Success", successMsg)

	// Reconcile this list from the server, then tell everyone else.
	v.fetch(ctx, page)
	if v.broadcaster != nil {
		v.broadcaster.Notify(v.subID)
	}
	return nil
}

// Requests returns the last successfully fetched page.
func (v *RequestsView) Requests() []friendrequest.FriendRequestWithUsers {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]friendrequest.FriendRequestWithUsers, len(v.requests))
	copy(out, v.requests)
	return out
}

func (v *RequestsView) Kind() RequestKind { return v.kind }

func (v *RequestsView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tracker.Page()
}

// TotalPagesKnown is the conservative page-count estimate.
func (v *RequestsView) TotalPagesKnown() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tracker.TotalKnown()
}

func (v *RequestsView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Busy reports whether an action on the given request is in flight.
func (v *RequestsView) Busy(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busy[id]
}

// Close unsubscribes the view from refresh notifications.
func (v *RequestsView) Close() {
	if v.broadcaster != nil {
		v.broadcaster.Unsubscribe(v.subID)
	}
}
