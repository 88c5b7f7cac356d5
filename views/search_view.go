package views

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/types/user"
	"friendsClient/services"
)

const (
	defaultDebounce = 300 * time.Millisecond
	minQueryLength  = 2
	searchPageSize  = 10
)

// ExclusionProvider supplies the user-id sets a search must filter out:
// existing friends and users with a pending request in either direction.
// The provider keeps the sets current by re-querying after mutations.
type ExclusionProvider interface {
	ExcludedUserIDs() (existingFriends, pendingRequests map[string]struct{})
}

// SearchView models the search-and-send flow: debounced user search,
// client-side exclusion filtering, and optimistic removal on send.
//
// Responses are applied in arrival order with no sequencing token, so
// the last response to resolve wins even if a newer query superseded it.
// That matches the shipped behavior; compatibility tests depend on it.
type SearchView struct {
	friends       *services.FriendsService
	notify        Notifier
	broadcaster   *RefreshBroadcaster
	exclusions    ExclusionProvider
	currentUserID string
	debounce      time.Duration
	log           *logrus.Entry

	mu        sync.Mutex
	timer     *time.Timer
	query     string
	results   []user.User
	searching bool
	sendingTo string
}

func NewSearchView(friends *services.FriendsService, currentUserID string, exclusions ExclusionProvider, notify Notifier, broadcaster *RefreshBroadcaster, logger *logrus.Logger) *SearchView {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SearchView{
		friends:       friends,
		notify:        notify,
		broadcaster:   broadcaster,
		exclusions:    exclusions,
		currentUserID: currentUserID,
		debounce:      defaultDebounce,
		log:           logger.WithField("view", "search"),
	}
}

// SetDebounce overrides the debounce interval (tests use a short one).
func (v *SearchView) SetDebounce(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.debounce = d
}

// SetQuery records the typed text and schedules a search after the
// debounce interval. Re-typing stops the previous timer, so only the
// final keystroke in a burst produces a request. Queries shorter than
// the minimum length clear the results without touching the server.
func (v *SearchView) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.query = query
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}

	if utf8.RuneCountInString(query) < minQueryLength {
		v.results = nil
		return
	}

	q := query
	v.timer = time.AfterFunc(v.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v.performSearch(ctx, q)
	})
}

// SearchNow runs the search immediately, bypassing the debounce.
func (v *SearchView) SearchNow(ctx context.Context, query string) {
	v.mu.Lock()
	v.query = query
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.mu.Unlock()

	if utf8.RuneCountInString(query) < minQueryLength {
		v.mu.Lock()
		v.results = nil
		v.mu.Unlock()
		return
	}
	v.performSearch(ctx, query)
}

func (v *SearchView) performSearch(ctx context.Context, query string) {
	v.mu.Lock()
	v.searching = true
	v.mu.Unlock()

	page, err := v.friends.SearchUsers(ctx, query, 1, searchPageSize)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.searching = false
	if err != nil {
		v.results = nil
		v.notify.Error("Error", apiclient.UserMessage(err))
		return
	}
	v.results = v.filter(page.Data)
}

// filter drops the current user, existing friends, and users with a
// pending request. Guarantees results ∩ (friends ∪ pending) = ∅.
func (v *SearchView) filter(candidates []user.User) []user.User {
	var existing, pending map[string]struct{}
	if v.exclusions != nil {
		existing, pending = v.exclusions.ExcludedUserIDs()
	}

	out := make([]user.User, 0, len(candidates))
	for _, u := range candidates {
		if u.ID == v.currentUserID {
			continue
		}
		if _, ok := existing[u.ID]; ok {
			continue
		}
		if _, ok := pending[u.ID]; ok {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Send sends a friend request to the clicked candidate. On success the
// candidate is removed from the local results immediately (optimistic)
// and dependent views are told to re-fetch authoritative state. A
// Conflict from the server is surfaced, never retried.
func (v *SearchView) Send(ctx context.Context, target user.User) error {
	if target.Username == "" {
		v.notify.Error("Error", "This user has no username set.")
		return &apiclient.APIError{Kind: apiclient.KindNotFound, Message: "user has no username"}
	}

	v.mu.Lock()
	if v.sendingTo != "" {
		v.mu.Unlock()
		return nil
	}
	v.sendingTo = target.ID
	v.mu.Unlock()

	_, err := v.friends.SendRequest(ctx, target.Username)

	v.mu.Lock()
	v.sendingTo = ""
	if err != nil {
		v.mu.Unlock()
		v.notify.Error("Error", apiclient.UserMessage(err))
		return err
	}

	filtered := v.results[:0]
	for _, u := range v.results {
		if u.ID != target.ID {
			filtered = append(filtered, u)
		}
	}
	v.results = filtered
	v.query = ""
	v.mu.Unlock()

	v.notify.Success("Success", "Friend request sent.")
	if v.broadcaster != nil {
		v.broadcaster.Notify()
	}
	return nil
}

// Clear resets the query and results and stops any pending search.
func (v *SearchView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.query = ""
	v.results = nil
}

func (v *SearchView) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Results returns the filtered candidates from the last search.
func (v *SearchView) Results() []user.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]user.User, len(v.results))
	copy(out, v.results)
	return out
}

func (v *SearchView) Searching() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.searching
}

// SendingTo returns the id of the candidate with a send in flight, or "".
func (v *SearchView) SendingTo() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sendingTo
}
