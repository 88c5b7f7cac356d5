package user

// FileRef points at an uploaded file (avatar photo) served by the backend.
type FileRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// User is a read-only projection of a backend user record. The client
// never mutates these; they arrive populated on friend requests and
// search results.
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email,omitempty"`
	Photo     *FileRef `json:"photo,omitempty"`
}

// DisplayName returns "First Last", falling back to the username when
// both name fields are empty.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}
