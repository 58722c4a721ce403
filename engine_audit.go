package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/password"
)

const (
	auditEventResolveFailure         = "resolve_failure"
	auditEventSessionRenewed         = "session_renewed"
	auditEventRenewalFailure         = "session_renewal_failure"
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginRateLimited       = "login_rate_limited"
	auditEventLogoff                 = "logoff"
	auditEventAccountCreated         = "account_creation_success"
	auditEventAccountCreationFailure = "account_creation_failure"
	auditEventPasswordChangeSuccess  = "password_change_success"
	auditEventPasswordChangeFailure  = "password_change_failure"
	auditEventTokenSaltRotated       = "token_salt_rotated"
)

// AuditErrorCode is the stable error classification written to audit events.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrTokenMalformed     AuditErrorCode = "token_malformed"
	auditErrSubjectNotFound    AuditErrorCode = "subject_not_found"
	auditErrValidationFailed   AuditErrorCode = "validation_failed"
	auditErrRenewalFailed      AuditErrorCode = "renewal_failed"
	auditErrSessionIssue       AuditErrorCode = "session_issue_failed"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrSubjectMismatch    AuditErrorCode = "subject_mismatch"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit queues one event. meta is evaluated only when auditing is on.
func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, subjectID string, err error, meta func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     string(auditErrorCode(err)),
	}
	if meta != nil {
		ev.Metadata = meta()
	}
	e.audit.Emit(ctx, ev)
}

var failureAuditCodes = map[FailureKind]AuditErrorCode{
	FailureTokenMalformed:  auditErrTokenMalformed,
	FailureSubjectNotFound: auditErrSubjectNotFound,
	FailureValidation:      auditErrValidationFailed,
	FailureRenewal:         auditErrRenewalFailed,
	FailureStoreAccess:     auditErrUnavailable,
}

// sentinelAuditCodes is checked in order; the first match wins.
var sentinelAuditCodes = []struct {
	code    AuditErrorCode
	targets []error
}{
	{auditErrInvalidCredentials, []error{ErrInvalidCredentials, password.ErrPasswordMismatch}},
	{auditErrRateLimited, []error{ErrLoginRateLimited}},
	{auditErrSessionIssue, []error{ErrSessionIssueFailed}},
	{auditErrDuplicate, []error{ErrAccountExists}},
	{auditErrSubjectMismatch, []error{ErrSubjectMismatch}},
	{auditErrSubjectNotFound, []error{ErrSubjectNotFound}},
	{auditErrUnavailable, []error{ErrStoreUnavailable, context.DeadlineExceeded, context.Canceled}},
	{auditErrUnauthorized, []error{ErrUnauthorized}},
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var failure *Failure
	if errors.As(err, &failure) {
		if code, ok := failureAuditCodes[failure.Kind]; ok {
			return code
		}
		return auditErrUnauthorized
	}

	for _, entry := range sentinelAuditCodes {
		for _, target := range entry.targets {
			if errors.Is(err, target) {
				return entry.code
			}
		}
	}
	return auditErrInternal
}
