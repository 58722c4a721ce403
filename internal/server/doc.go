// Package server holds the reference HTTP API: login, logoff, account
// creation, password change and an authenticated whoami, all behind the
// session gate.
package server
