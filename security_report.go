package goSession

import "github.com/MrEthical07/goSession/internal/security"

// SecurityReport describes the engine's effective security posture.
type SecurityReport = security.Report

// SecurityReport summarizes the configuration the engine was built with.
// Warnings list protections that are weak or switched off.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config
	return security.BuildReport(security.ReportInput{
		CredentialScheme: string(cfg.Password.Scheme),
		Argon2: security.Argon2Report{
			Memory:      cfg.Password.Argon2.Memory,
			Time:        cfg.Password.Argon2.Time,
			Parallelism: cfg.Password.Argon2.Parallelism,
			KeyLength:   cfg.Password.Argon2.KeyLength,
		},
		UpgradeOnLogin:        cfg.Password.UpgradeOnLogin,
		TokenLifetime:         cfg.Token.Duration,
		RenewThreshold:        cfg.Token.RenewThreshold,
		RenewalMandatory:      cfg.Token.RenewalMandatory,
		EnableLoginThrottle:   cfg.Security.EnableLoginThrottle,
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		AuditEnabled:          cfg.Audit.Enabled,
	})
}
