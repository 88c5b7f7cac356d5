// Package mockbackend is an in-memory stand-in for the remote friends
// API, used by the integration tests and the mockserver CLI mode. It
// enforces the full friend-request lifecycle (actor rules, duplicate
// detection, terminal states) so client behavior can be verified end to
// end without a real deployment. It is a test harness, not a product
// backend.
package mockbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"friendsClient/internal/types/friendrequest"
	"friendsClient/internal/types/leaderboard"
	"friendsClient/internal/types/user"
)

type Server struct {
	log *logrus.Entry

	mu       sync.Mutex
	users    map[string]user.User // by user id
	tokens   map[string]string    // bearer token -> user id
	requests map[string]*friendrequest.FriendRequest
	order    []string // request ids in creation order
	entries  map[string][]leaderboard.Entry // by username
}

func New(logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		log:      logger.WithField("component", "mockbackend"),
		users:    make(map[string]user.User),
		tokens:   make(map[string]string),
		requests: make(map[string]*friendrequest.FriendRequest),
		entries:  make(map[string][]leaderboard.Entry),
	}
}

// AddUser registers a user and returns the bearer token that
// authenticates as them.
func (s *Server) AddUser(u user.User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	s.users[u.ID] = u
	token := "token-" + u.ID
	s.tokens[token] = u.ID
	return token
}

// AddLeaderboardEntry attaches a score to username's profile.
func (s *Server) AddLeaderboardEntry(username string, e leaderboard.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.Username = username
	s.entries[username] = append(s.entries[username], e)
}

// Request returns a snapshot of a stored request, for test assertions.
func (s *Server) Request(id string) (friendrequest.FriendRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return friendrequest.FriendRequest{}, false
	}
	return *r, true
}

// Handler builds the route table matching the real API surface.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/friends/requests", s.sendRequest).Methods("POST")
	api.HandleFunc("/friends/requests/sent", s.listSent).Methods("GET")
	api.HandleFunc("/friends/requests/received", s.listReceived).Methods("GET")
	api.HandleFunc("/friends/requests/{id}/accept", s.accept).Methods("PATCH")
	api.HandleFunc("/friends/requests/{id}/reject", s.reject).Methods("PATCH")
	api.HandleFunc("/friends/requests/{id}", s.getRequest).Methods("GET")
	api.HandleFunc("/friends/requests/{id}", s.cancel).Methods("DELETE")
	api.HandleFunc("/friends/list", s.listFriends).Methods("GET")
	api.HandleFunc("/friends/search", s.searchUsers).Methods("GET")
	api.HandleFunc("/leaderboards/users/{username}/entries", s.userEntries).Methods("GET")

	// CORS so the harness can also back a browser-driven session.
	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	return cors(r)
}

type contextKey string

const actorKey contextKey = "actorID"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || token == authHeader {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		s.mu.Lock()
		actorID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		r.Header.Set("X-Actor-ID", actorID)
		next.ServeHTTP(w, r)
	})
}

func actorID(r *http.Request) string {
	return r.Header.Get("X-Actor-ID")
}

type sendRequestBody struct {
	RecipientUsername string `json:"recipientUsername"`
}

func (s *Server) sendRequest(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)

	var body sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RecipientUsername == "" {
		respondWithError(w, http.StatusBadRequest, "recipientUsername is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var recipient *user.User
	for id := range s.users {
		u := s.users[id]
		if u.Username == body.RecipientUsername {
			recipient = &u
			break
		}
	}
	if recipient == nil {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("User %q not found", body.RecipientUsername))
		return
	}
	if recipient.ID == actor {
		respondWithError(w, http.StatusConflict, "You cannot send a friend request to yourself")
		return
	}

	// At most one active (pending or accepted) request per unordered pair.
	for _, req := range s.requests {
		if req.Status != friendrequest.StatusPending && req.Status != friendrequest.StatusAccepted {
			continue
		}
		samePair := (req.RequesterID == actor && req.RecipientID == recipient.ID) ||
			(req.RequesterID == recipient.ID && req.RecipientID == actor)
		if samePair {
			respondWithError(w, http.StatusConflict, "An active friend request already exists between you")
			return
		}
	}

	now := time.Now().UTC()
	req := &friendrequest.FriendRequest{
		ID:          uuid.New().String(),
		RequesterID: actor,
		RecipientID: recipient.ID,
		Status:      friendrequest.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.requests[req.ID] = req
	s.order = append(s.order, req.ID)

	s.log.WithFields(logrus.Fields{
		"requester": actor,
		"recipient": recipient.ID,
	}).Debug("friend request created")
	respondWithJSON(w, http.StatusCreated, req)
}

func (s *Server) listSent(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	s.listRequests(w, r, func(req *friendrequest.FriendRequest) bool {
		return req.RequesterID == actor && req.Status == friendrequest.StatusPending
	})
}

func (s *Server) listReceived(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	s.listRequests(w, r, func(req *friendrequest.FriendRequest) bool {
		return req.RecipientID == actor && req.Status == friendrequest.StatusPending
	})
}

func (s *Server) listFriends(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	s.listRequests(w, r, func(req *friendrequest.FriendRequest) bool {
		if req.Status != friendrequest.StatusAccepted {
			return false
		}
		return req.RequesterID == actor || req.RecipientID == actor
	})
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request, match func(*friendrequest.FriendRequest) bool) {
	page, limit := pageParams(r)

	s.mu.Lock()
	var matched []friendrequest.FriendRequestWithUsers
	for _, id := range s.order {
		req := s.requests[id]
		if match(req) {
			matched = append(matched, s.populate(req))
		}
	}
	s.mu.Unlock()

	data, hasNext := paginate(matched, page, limit)
	respondWithJSON(w, http.StatusOK, pageEnvelope{Data: data, HasNextPage: hasNext})
}

func (s *Server) populate(req *friendrequest.FriendRequest) friendrequest.FriendRequestWithUsers {
	requester := s.users[req.RequesterID]
	recipient := s.users[req.RecipientID]
	return friendrequest.FriendRequestWithUsers{
		ID:              req.ID,
		RequesterID:     req.RequesterID,
		RecipientID:     req.RecipientID,
		Status:          req.Status,
		StatusChangedAt: req.StatusChangedAt,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
		Requester:       requester,
		Recipient:       recipient,
	}
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	req, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		respondWithError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	populated := s.populate(req)
	s.mu.Unlock()

	respondWithJSON(w, http.StatusOK, populated)
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, friendrequest.StatusAccepted, friendrequest.RoleRecipient)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, friendrequest.StatusRejected, friendrequest.RoleRecipient)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, friendrequest.StatusCancelled, friendrequest.RoleRequester)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, next friendrequest.Status, requiredRole friendrequest.Role) {
	actor := actorID(r)
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	if req.RoleOf(actor) != requiredRole {
		respondWithError(w, http.StatusForbidden, "You are not allowed to perform this action")
		return
	}
	if !req.Status.CanTransitionTo(next) {
		respondWithError(w, http.StatusConflict,
			fmt.Sprintf("Friend request is %s and can no longer change", req.Status))
		return
	}

	now := time.Now().UTC()
	req.Status = next
	req.StatusChangedAt = &now
	req.UpdatedAt = now

	s.log.WithFields(logrus.Fields{
		"requestId": id,
		"status":    next,
	}).Debug("friend request transitioned")

	if next == friendrequest.StatusCancelled {
		respondWithJSON(w, http.StatusNoContent, nil)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("search"))
	page, limit := pageParams(r)

	s.mu.Lock()
	var matched []user.User
	for id := range s.users {
		u := s.users[id]
		if query == "" ||
			strings.Contains(strings.ToLower(u.Username), query) ||
			strings.Contains(strings.ToLower(u.FirstName), query) ||
			strings.Contains(strings.ToLower(u.LastName), query) {
			matched = append(matched, u)
		}
	}
	s.mu.Unlock()

	// Stable ordering across pages for a given filter.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	data, hasNext := paginate(matched, page, limit)
	respondWithJSON(w, http.StatusOK, pageEnvelope{Data: data, HasNextPage: hasNext})
}

func (s *Server) userEntries(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	page, limit := pageParams(r)

	s.mu.Lock()
	entries := append([]leaderboard.Entry(nil), s.entries[username]...)
	s.mu.Unlock()

	data, hasNext := paginate(entries, page, limit)
	respondWithJSON(w, http.StatusOK, pageEnvelope{Data: data, HasNextPage: hasNext})
}

type pageEnvelope struct {
	Data        interface{} `json:"data"`
	HasNextPage bool        `json:"hasNextPage"`
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, bool) {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, false
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], end < len(items)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil && code != http.StatusNoContent {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
