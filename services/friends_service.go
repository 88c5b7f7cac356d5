package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/pagination"
	"friendsClient/internal/types/friendrequest"
	"friendsClient/internal/types/user"
)

// FriendsService wraps the friend-request endpoints. Every method is a
// thin typed call; consistency rules (who may act, what to refetch) live
// in the views and on the server.
type FriendsService struct {
	api *apiclient.Client
	log *logrus.Entry
}

func NewFriendsService(api *apiclient.Client, logger *logrus.Logger) *FriendsService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FriendsService{
		api: api,
		log: logger.WithField("service", "friends"),
	}
}

type SendFriendRequestBody struct {
	RecipientUsername string `json:"recipientUsername"`
}

// SendRequest creates a pending request to recipientUsername. Fails with
// NotFound when the username does not resolve and Conflict when an
// active request already exists between the pair or the target is the
// caller. Never retried; a Conflict is reportable, not recoverable.
func (s *FriendsService) SendRequest(ctx context.Context, recipientUsername string) (*friendrequest.FriendRequest, error) {
	var out friendrequest.FriendRequest
	err := s.api.Post(ctx, "/v1/friends/requests", SendFriendRequestBody{RecipientUsername: recipientUsername}, &out)
	if err != nil {
		s.log.WithField("recipient", recipientUsername).WithError(err).Warn("send friend request failed")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"recipient": recipientUsername,
		"requestId": out.ID,
	}).Info("friend request sent")
	return &out, nil
}

// ListSent returns one page of requests the caller has sent, with both
// user projections populated.
func (s *FriendsService) ListSent(ctx context.Context, page, limit int) (*pagination.Page[friendrequest.FriendRequestWithUsers], error) {
	return s.listRequests(ctx, "/v1/friends/requests/sent", page, limit)
}

// ListReceived returns one page of requests addressed to the caller.
func (s *FriendsService) ListReceived(ctx context.Context, page, limit int) (*pagination.Page[friendrequest.FriendRequestWithUsers], error) {
	return s.listRequests(ctx, "/v1/friends/requests/received", page, limit)
}

// ListFriends returns one page of accepted requests involving the
// caller; the friend is whichever side is not the caller.
func (s *FriendsService) ListFriends(ctx context.Context, page, limit int) (*pagination.Page[friendrequest.FriendRequestWithUsers], error) {
	return s.listRequests(ctx, "/v1/friends/list", page, limit)
}

func (s *FriendsService) listRequests(ctx context.Context, path string, page, limit int) (*pagination.Page[friendrequest.FriendRequestWithUsers], error) {
	var out pagination.Page[friendrequest.FriendRequestWithUsers]
	if err := s.api.Get(ctx, path, pageQuery(page, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accept transitions a pending request to accepted. Valid only for the
// recipient; otherwise the server answers Forbidden, or InvalidState
// when the request already left pending.
func (s *FriendsService) Accept(ctx context.Context, id string) (*friendrequest.FriendRequest, error) {
	return s.transition(ctx, id, "/v1/friends/requests/"+url.PathEscape(id)+"/accept")
}

// Reject transitions a pending request to rejected. Recipient only.
func (s *FriendsService) Reject(ctx context.Context, id string) (*friendrequest.FriendRequest, error) {
	return s.transition(ctx, id, "/v1/friends/requests/"+url.PathEscape(id)+"/reject")
}

func (s *FriendsService) transition(ctx context.Context, id, path string) (*friendrequest.FriendRequest, error) {
	var out friendrequest.FriendRequest
	if err := s.api.Patch(ctx, path, nil, &out); err != nil {
		s.log.WithField("requestId", id).WithError(err).Warn("friend request transition failed")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"requestId": id,
		"status":    out.Status,
	}).Info("friend request updated")
	return &out, nil
}

// Cancel withdraws a pending request. Requester only.
func (s *FriendsService) Cancel(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/v1/friends/requests/"+url.PathEscape(id), nil); err != nil {
		s.log.WithField("requestId", id).WithError(err).Warn("cancel friend request failed")
		return err
	}
	s.log.WithField("requestId", id).Info("friend request cancelled")
	return nil
}

// GetRequest fetches a single request by id with users populated.
func (s *FriendsService) GetRequest(ctx context.Context, id string) (*friendrequest.FriendRequestWithUsers, error) {
	var out friendrequest.FriendRequestWithUsers
	if err := s.api.Get(ctx, "/v1/friends/requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchUsers returns one page of users matching query. The server does
// not filter out the caller, existing friends or pending counterparts;
// callers must exclude those before presenting results.
func (s *FriendsService) SearchUsers(ctx context.Context, query string, page, limit int) (*pagination.Page[user.User], error) {
	q := pageQuery(page, limit)
	if query != "" {
		q.Set("search", query)
	}
	var out pagination.Page[user.User]
	if err := s.api.Get(ctx, "/v1/friends/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
