// Package password implements the versioned credential-at-rest format.
//
// # Output format
//
// Records are tagged with the scheme that produced them:
//
//	#01#<b64u HMAC-SHA512(password || salt)>
//	#02#m=<memory>,t=<time>,p=<threads>,l=<keylen>$<b64u HMAC-SHA512(b64u(argon2id(password, salt)) || salt)>
//
// Both schemes are keyed with the password signing key, so a leaked table
// cannot be attacked offline without that key. Scheme 02 additionally
// stretches the password with Argon2id before signing.
//
// [Codec.Verify] dispatches on the stored tag, so records of every known
// scheme keep verifying after the current scheme changes. [Codec.NeedsUpgrade]
// reports records that should be re-encoded on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve records; callers persist what [Codec.Encode] returns.
//   - Reveal why verification failed.
//   - Enforce password strength policy.
package password
