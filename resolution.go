package goSession

// ResolvedContext is the authenticated identity of a request. It is an
// immutable value produced only by a successful resolution.
type ResolvedContext struct {
	SubjectID string
}

// FailureKind is the closed set of reasons a resolution can stop.
type FailureKind uint8

const (
	// FailureTokenNotPresent means the request carried no session cookie.
	FailureTokenNotPresent FailureKind = iota + 1
	// FailureTokenMalformed means the cookie value is not a well-formed token.
	FailureTokenMalformed
	// FailureSubjectNotFound means no subject has the token's identity.
	FailureSubjectNotFound
	// FailureStoreAccess means the user store could not be queried.
	FailureStoreAccess
	// FailureValidation covers signature mismatch, unparsable expiry and expiry passed.
	FailureValidation
	// FailureRenewal means re-issuing a near-expiry token failed and renewal is mandatory.
	FailureRenewal
)

// String returns the stable snake_case name used in logs, audit and metrics.
func (k FailureKind) String() string {
	switch k {
	case FailureTokenNotPresent:
		return "token_not_present"
	case FailureTokenMalformed:
		return "token_malformed"
	case FailureSubjectNotFound:
		return "subject_not_found"
	case FailureStoreAccess:
		return "store_access_failure"
	case FailureValidation:
		return "validation_failed"
	case FailureRenewal:
		return "renewal_failed"
	default:
		return "unknown"
	}
}

// FailureCategory groups failure kinds for operators.
type FailureCategory string

const (
	CategoryAbsence        FailureCategory = "absence"
	CategoryFormat         FailureCategory = "format"
	CategoryIdentity       FailureCategory = "identity"
	CategoryTrust          FailureCategory = "trust"
	CategoryInfrastructure FailureCategory = "infrastructure"
)

// Category returns the operator-facing group of k.
func (k FailureKind) Category() FailureCategory {
	switch k {
	case FailureTokenNotPresent:
		return CategoryAbsence
	case FailureTokenMalformed:
		return CategoryFormat
	case FailureSubjectNotFound:
		return CategoryIdentity
	case FailureValidation:
		return CategoryTrust
	default:
		return CategoryInfrastructure
	}
}

// Failure is a resolution failure. Detail carries diagnostic text for logs
// and audit only; it must never reach an HTTP response.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return "session: " + f.Kind.String()
	}
	return "session: " + f.Kind.String() + ": " + f.Detail
}

// Unwrap collapses every failure to ErrUnauthorized for boundary code.
func (f *Failure) Unwrap() error {
	return ErrUnauthorized
}

// Outcome is the result of one resolution. Exactly one of Context and Failure
// is non-nil.
type Outcome struct {
	Context *ResolvedContext
	Failure *Failure
}

func resolved(subjectID string) Outcome {
	return Outcome{Context: &ResolvedContext{SubjectID: subjectID}}
}

func failed(kind FailureKind, detail string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

// OK reports whether the outcome carries a resolved context.
func (o Outcome) OK() bool {
	return o.Context != nil && o.Failure == nil
}

// Subject returns the resolved context, or the failure as an error.
func (o Outcome) Subject() (ResolvedContext, error) {
	if o.Failure != nil {
		f := *o.Failure
		return ResolvedContext{}, &f
	}
	if o.Context == nil {
		return ResolvedContext{}, ErrOutcomeMissing
	}
	return *o.Context, nil
}
