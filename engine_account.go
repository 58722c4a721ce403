package goSession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/password"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewSalt returns a fresh random per-subject salt.
func NewSalt() string {
	return uuid.NewString()
}

// NormalizeIdentity is applied to every identity the account flows receive,
// so an identity stored by CreateUser is found again by Login.
func NormalizeIdentity(identity string) string {
	return strings.TrimSpace(identity)
}

// Login verifies identity and plaintext against the stored credential record
// and, on success, writes a new session token through jar.
//
// Every identity or password mismatch is reported as ErrInvalidCredentials.
// When login throttling is enabled, failed attempts count against the
// identity (and the client IP from WithClientIP) and exhausted budgets return
// ErrLoginRateLimited.
func (e *Engine) Login(ctx context.Context, jar CookieJar, identity, plaintext string) (LoginResult, error) {
	if err := e.ready(ctx); err != nil {
		return LoginResult{}, err
	}
	if jar == nil {
		return LoginResult{}, ErrSessionIssueFailed
	}

	identity = NormalizeIdentity(identity)
	ip := clientIPFromContext(ctx)

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, identity, ip); err != nil {
			return LoginResult{}, e.loginThrottleError(ctx, identity, err)
		}
	}

	subject, err := e.store.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return LoginResult{}, e.loginFailed(ctx, identity, ip, "", "user_not_found")
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		e.logger.Error("login store lookup failed", zap.Error(err))
		return LoginResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !subject.HasCredential() || plaintext == "" {
		return LoginResult{}, e.loginFailed(ctx, identity, ip, subject.ID, "no_password")
	}

	in := password.Input{Salt: subject.PasswordSalt, Content: plaintext}
	if err := e.codec.Verify(in, *subject.CredentialRecord); err != nil {
		return LoginResult{}, e.loginFailed(ctx, identity, ip, subject.ID, "password_mismatch")
	}

	upgraded := false
	if e.config.Password.UpgradeOnLogin && e.codec.NeedsUpgrade(*subject.CredentialRecord) {
		upgraded = e.upgradeCredential(ctx, subject, in)
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, identity, ip); err != nil {
			e.logger.Warn("login limiter reset failed", zap.Error(err))
		}
	}

	raw, err := e.issue(jar, subject, e.now())
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, subject.ID, ErrSessionIssueFailed, nil)
		return LoginResult{}, fmt.Errorf("%w: %v", ErrSessionIssueFailed, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, subject.ID, nil, nil)

	return LoginResult{
		SubjectID: subject.ID,
		Identity:  subject.Identity,
		Token:     raw,
		Upgraded:  upgraded,
	}, nil
}

func (e *Engine) loginFailed(ctx context.Context, identity, ip, subjectID, reason string) error {
	e.metricInc(MetricLoginFailure)

	attempts := 0
	var throttled error
	if e.rateLimiter != nil {
		n, err := e.rateLimiter.IncrementLogin(ctx, identity, ip)
		attempts = n
		switch {
		case errors.Is(err, rate.ErrRateLimited):
			throttled = err
		case err != nil:
			e.logger.Warn("login limiter increment failed", zap.Error(err))
		}
	}

	e.emitAudit(ctx, auditEventLoginFailure, false, subjectID, ErrInvalidCredentials, func() map[string]string {
		meta := map[string]string{"reason": reason}
		if attempts > 0 {
			meta["attempts"] = strconv.Itoa(attempts)
		}
		return meta
	})

	if throttled != nil {
		return e.loginThrottleError(ctx, identity, throttled)
	}
	return ErrInvalidCredentials
}

func (e *Engine) loginThrottleError(ctx context.Context, identity string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
			meta := map[string]string{"identity": identity}
			if wait, werr := e.rateLimiter.RetryAfter(ctx, identity); werr == nil && wait > 0 {
				meta["retry_after"] = wait.Round(time.Second).String()
			}
			return meta
		})
		return ErrLoginRateLimited
	}
	e.logger.Error("login limiter unavailable", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (e *Engine) upgradeCredential(ctx context.Context, subject Subject, in password.Input) bool {
	record, err := e.codec.Encode(in)
	if err != nil {
		e.logger.Warn("credential upgrade encode failed", zap.String("subject_id", subject.ID), zap.Error(err))
		return false
	}
	if err := e.store.UpdateCredential(ctx, subject.ID, record); err != nil {
		e.logger.Warn("credential upgrade store failed", zap.String("subject_id", subject.ID), zap.Error(err))
		return false
	}
	from, _ := password.SchemeOf(*subject.CredentialRecord)
	e.metricInc(MetricCredentialUpgraded)
	e.logger.Info("credential upgraded",
		zap.String("subject_id", subject.ID),
		zap.String("from_scheme", string(from)),
		zap.String("to_scheme", string(e.codec.Scheme())),
	)
	return true
}

// Logoff clears the session cookie. Tokens are stateless, so a copied token
// stays valid until expiry unless the subject's token salt is rotated.
func (e *Engine) Logoff(ctx context.Context, jar CookieJar) {
	if e == nil || jar == nil {
		return
	}
	subjectID := ""
	if rc, err := SubjectFromContext(ctx); err == nil {
		subjectID = rc.SubjectID
	}
	jar.Clear(e.config.Token.CookieName)
	e.metricInc(MetricLogoff)
	e.emitAudit(ctx, auditEventLogoff, true, subjectID, nil, nil)
}

// CreateUserRequest is the input to CreateUser.
type CreateUserRequest struct {
	Identity string
	Password string
}

// CreateUser registers a new subject with fresh salts and an encoded
// credential. Duplicate identities return ErrAccountExists.
func (e *Engine) CreateUser(ctx context.Context, req CreateUserRequest) (Subject, error) {
	if err := e.ready(ctx); err != nil {
		return Subject{}, err
	}

	identity := NormalizeIdentity(req.Identity)
	if identity == "" {
		e.metricInc(MetricAccountCreationFailure)
		return Subject{}, ErrInvalidIdentity
	}
	if req.Password == "" {
		e.metricInc(MetricAccountCreationFailure)
		return Subject{}, ErrEmptyPassword
	}

	subject := Subject{
		ID:           uuid.NewString(),
		Identity:     identity,
		PasswordSalt: NewSalt(),
		TokenSalt:    NewSalt(),
	}
	record, err := e.codec.Encode(password.Input{Salt: subject.PasswordSalt, Content: req.Password})
	if err != nil {
		e.metricInc(MetricAccountCreationFailure)
		return Subject{}, err
	}
	subject.CredentialRecord = &record

	if err := e.store.CreateSubject(ctx, subject); err != nil {
		e.metricInc(MetricAccountCreationFailure)
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", err, func() map[string]string {
			return map[string]string{"identity": identity}
		})
		if errors.Is(err, ErrAccountExists) {
			return Subject{}, ErrAccountExists
		}
		return Subject{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, subject.ID, nil, nil)
	e.logger.Info("account created", zap.String("subject_id", subject.ID))

	return subject, nil
}

// ChangePassword replaces the credential of the subject identified by
// subjectID after verifying the old password, then rotates the token salt so
// every outstanding session of that subject ends.
//
// identity must belong to subjectID; otherwise ErrSubjectMismatch is
// returned and nothing is written. HTTP callers pass the SubjectID of the
// resolved session.
func (e *Engine) ChangePassword(ctx context.Context, subjectID, identity, oldPassword, newPassword string) error {
	if err := e.ready(ctx); err != nil {
		return err
	}
	if newPassword == "" {
		e.metricInc(MetricPasswordChangeFailure)
		return ErrEmptyPassword
	}

	subject, err := e.store.FindByIdentity(ctx, NormalizeIdentity(identity))
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		if errors.Is(err, ErrSubjectNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if subjectID == "" || subject.ID != subjectID {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, subjectID, ErrSubjectMismatch, func() map[string]string {
			return map[string]string{"target_subject_id": subject.ID}
		})
		return ErrSubjectMismatch
	}

	if !subject.HasCredential() ||
		e.codec.Verify(password.Input{Salt: subject.PasswordSalt, Content: oldPassword}, *subject.CredentialRecord) != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, subject.ID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	record, err := e.codec.Encode(password.Input{Salt: subject.PasswordSalt, Content: newPassword})
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return err
	}
	if err := e.store.UpdateCredential(ctx, subject.ID, record); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, subject.ID, err, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, subject.ID, nil, nil)

	return e.rotateTokenSalt(ctx, subject.ID)
}

// RotateTokenSalt replaces the subject's token salt, invalidating every token
// issued for identity. It is the only revocation mechanism.
func (e *Engine) RotateTokenSalt(ctx context.Context, identity string) error {
	if err := e.ready(ctx); err != nil {
		return err
	}
	subject, err := e.store.FindByIdentity(ctx, NormalizeIdentity(identity))
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return e.rotateTokenSalt(ctx, subject.ID)
}

func (e *Engine) rotateTokenSalt(ctx context.Context, subjectID string) error {
	if err := e.store.UpdateTokenSalt(ctx, subjectID, NewSalt()); err != nil {
		e.logger.Error("token salt rotation failed", zap.String("subject_id", subjectID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricTokenSaltRotated)
	e.emitAudit(ctx, auditEventTokenSaltRotated, true, subjectID, nil, nil)
	return nil
}
