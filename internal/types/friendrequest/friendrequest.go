package friendrequest

import (
	"fmt"
	"time"

	"friendsClient/internal/types/user"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined out of s.
// Everything except pending is terminal.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// CanTransitionTo reports whether s -> next is a defined transition.
// The only defined transitions are pending -> accepted|rejected|cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusAccepted || next == StatusRejected || next == StatusCancelled
}

// Role describes the viewing user's relation to a request.
type Role string

const (
	RoleRequester Role = "requester"
	RoleRecipient Role = "recipient"
	RoleNone      Role = "none"
)

// FriendRequest is a directed proposal from requester to recipient.
// Requester and Recipient are populated on list endpoints and absent on
// bare mutation responses; use WithUsers where both are required.
type FriendRequest struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requesterId"`
	RecipientID     string     `json:"recipientId"`
	Status          Status     `json:"status"`
	StatusChangedAt *time.Time `json:"statusChangedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Requester *user.User `json:"requester,omitempty"`
	Recipient *user.User `json:"recipient,omitempty"`
}

// FriendRequestWithUsers is a FriendRequest where both user projections
// are guaranteed present.
type FriendRequestWithUsers struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requesterId"`
	RecipientID     string     `json:"recipientId"`
	Status          Status     `json:"status"`
	StatusChangedAt *time.Time `json:"statusChangedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Requester user.User `json:"requester"`
	Recipient user.User `json:"recipient"`
}

// RoleOf returns the role userID plays on the request.
func (r *FriendRequest) RoleOf(userID string) Role {
	switch userID {
	case r.RequesterID:
		return RoleRequester
	case r.RecipientID:
		return RoleRecipient
	}
	return RoleNone
}

// CanAccept reports whether userID may accept the request: recipient
// only, pending only.
func (r *FriendRequest) CanAccept(userID string) bool {
	return r.Status == StatusPending && r.RoleOf(userID) == RoleRecipient
}

// CanReject reports whether userID may reject the request.
func (r *FriendRequest) CanReject(userID string) bool {
	return r.Status == StatusPending && r.RoleOf(userID) == RoleRecipient
}

// CanCancel reports whether userID may cancel the request: requester
// only, pending only.
func (r *FriendRequest) CanCancel(userID string) bool {
	return r.Status == StatusPending && r.RoleOf(userID) == RoleRequester
}

// WithUsers converts to the fully populated variant, erroring when
// either side is missing.
func (r *FriendRequest) WithUsers() (*FriendRequestWithUsers, error) {
	if r.Requester == nil || r.Recipient == nil {
		return nil, fmt.Errorf("friend request %s is missing user projections", r.ID)
	}
	return &FriendRequestWithUsers{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		RecipientID:     r.RecipientID,
		Status:          r.Status,
		StatusChangedAt: r.StatusChangedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Requester:       *r.Requester,
		Recipient:       *r.Recipient,
	}, nil
}

// RoleOf returns the role userID plays on the request.
func (r *FriendRequestWithUsers) RoleOf(userID string) Role {
	switch userID {
	case r.RequesterID:
		return RoleRequester
	case r.RecipientID:
		return RoleRecipient
	}
	return RoleNone
}

// FriendOf returns the other side of the request relative to
// currentUserID. Nil when currentUserID is on neither side.
func (r *FriendRequestWithUsers) FriendOf(currentUserID string) *user.User {
	switch currentUserID {
	case r.RequesterID:
		u := r.Recipient
		return &u
	case r.RecipientID:
		u := r.Requester
		return &u
	}
	return nil
}
