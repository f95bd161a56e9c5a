package domain

// Profile is the logged-in user's identity as returned by the upstream
// auth service. Nome doubles as the display name written into the owner
// field when the user claims an item.
type Profile struct {
	Nome   string `json:"nome"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}
