package security

import "time"

const (
	TokenAlgorithm = "HMAC-SHA512"

	maxRecommendedLifetime = 24 * time.Hour
)

// Warnings emitted by BuildReport.
const (
	WarnKeyedDigestCredentials = "credential scheme 01 is a keyed digest without work factor"
	WarnNoLoginThrottle        = "login throttling is disabled"
	WarnNoRenewal              = "renew threshold is zero; sessions expire without renewal"
	WarnLongLifetime           = "token lifetime exceeds 24h"
	WarnAuditDisabled          = "audit events are disabled"
	WarnUpgradeToWeakScheme    = "upgrade on login is enabled with scheme 01; only records weaker than 01 are re-encoded"
)

type Argon2Report struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

type Report struct {
	TokenAlgorithm      string
	CredentialScheme    string
	Argon2              *Argon2Report
	UpgradeOnLogin      bool
	TokenLifetime       time.Duration
	RenewThreshold      time.Duration
	RenewalMandatory    bool
	LoginThrottleActive bool
	IPThrottleActive    bool
	AuditEnabled        bool
	Warnings            []string
}

type ReportInput struct {
	CredentialScheme      string
	Argon2                Argon2Report
	UpgradeOnLogin        bool
	TokenLifetime         time.Duration
	RenewThreshold        time.Duration
	RenewalMandatory      bool
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	AuditEnabled          bool
}

// BuildReport summarizes input. Argon2 is set only for scheme "02".
func BuildReport(input ReportInput) Report {
	throttle := input.EnableLoginThrottle &&
		input.MaxLoginAttempts > 0 &&
		input.LoginCooldownDuration > 0

	r := Report{
		TokenAlgorithm:      TokenAlgorithm,
		CredentialScheme:    input.CredentialScheme,
		UpgradeOnLogin:      input.UpgradeOnLogin,
		TokenLifetime:       input.TokenLifetime,
		RenewThreshold:      input.RenewThreshold,
		RenewalMandatory:    input.RenewalMandatory,
		LoginThrottleActive: throttle,
		IPThrottleActive:    throttle && input.EnableIPThrottle,
		AuditEnabled:        input.AuditEnabled,
	}

	if input.CredentialScheme == "02" {
		params := input.Argon2
		r.Argon2 = &params
	} else {
		r.Warnings = append(r.Warnings, WarnKeyedDigestCredentials)
		if input.UpgradeOnLogin {
			r.Warnings = append(r.Warnings, WarnUpgradeToWeakScheme)
		}
	}
	if !throttle {
		r.Warnings = append(r.Warnings, WarnNoLoginThrottle)
	}
	if input.RenewThreshold == 0 {
		r.Warnings = append(r.Warnings, WarnNoRenewal)
	}
	if input.TokenLifetime > maxRecommendedLifetime {
		r.Warnings = append(r.Warnings, WarnLongLifetime)
	}
	if !input.AuditEnabled {
		r.Warnings = append(r.Warnings, WarnAuditDisabled)
	}
	return r
}
