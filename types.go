package goSession

import "context"

// Subject is the user record the resolver and the account flows operate on.
//
// PasswordSalt keys the credential record; TokenSalt keys session tokens.
// Rotating TokenSalt invalidates every token issued for the subject without
// touching the password.
type Subject struct {
	ID               string
	Identity         string
	CredentialRecord *string
	PasswordSalt     string
	TokenSalt        string
}

// HasCredential reports whether a password has been set for the subject.
func (s Subject) HasCredential() bool {
	return s.CredentialRecord != nil && *s.CredentialRecord != ""
}

// UserStore is the persistence collaborator. FindByIdentity is the only call
// on the request path; the remaining methods back the account flows.
//
// Implementations must return [ErrSubjectNotFound] (possibly wrapped) for
// unknown identities or IDs and [ErrAccountExists] for duplicate identities.
// They must honor ctx cancellation.
type UserStore interface {
	FindByIdentity(ctx context.Context, identity string) (Subject, error)
	CreateSubject(ctx context.Context, subject Subject) error
	UpdateCredential(ctx context.Context, subjectID, record string) error
	UpdateTokenSalt(ctx context.Context, subjectID, salt string) error
}

// CookieJar is the transport collaborator that reads and writes the session
// cookie for one request. Cookie attributes (Secure, HttpOnly, SameSite,
// Path) are the jar's concern.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Clear(name string)
}

// LoginResult describes a successful Login.
type LoginResult struct {
	SubjectID string
	Identity  string
	// Token is the session token written to the cookie.
	Token string
	// Upgraded is true when the stored credential was re-encoded with the
	// current password scheme during this login.
	Upgraded bool
}
