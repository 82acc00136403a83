package domain

// Actor is the caller's session state before an OAuth callback is resolved.
// The zero value is anonymous.
type Actor struct {
	UserID string
}

// Anonymous is the actor for requests with no established session.
var Anonymous = Actor{}

// AuthenticatedAs returns an actor bound to an existing session's user.
func AuthenticatedAs(userID string) Actor {
	return Actor{UserID: userID}
}

func (a Actor) IsAnonymous() bool { return a.UserID == "" }

// Outcome classifies a successful identity resolution.
type Outcome string

const (
	// OutcomeNewUser: first login ever for this email; user + identity created.
	OutcomeNewUser Outcome = "new_user"
	// OutcomeReturning: this exact provider identity has logged in before.
	OutcomeReturning Outcome = "returning"
	// OutcomeMergedByEmail: new provider identity attached to an existing
	// user because the emails match.
	OutcomeMergedByEmail Outcome = "merged_by_email"
	// OutcomeLinked: an authenticated user attached (or refreshed) a provider.
	OutcomeLinked Outcome = "linked"
)

// Resolution is the result of one identity-resolution attempt.
type Resolution struct {
	Outcome Outcome
	UserID  string
}

// SignedIn reports whether the outcome establishes a new session. Linking a
// provider to an already-authenticated session does not.
func (r Resolution) SignedIn() bool {
	switch r.Outcome {
	case OutcomeNewUser, OutcomeReturning, OutcomeMergedByEmail:
		return true
	default:
		return false
	}
}
