// Package security derives a posture report from engine settings: which
// primitives are in use, how long sessions live, and which protections are
// switched off. It performs no I/O.
package security
