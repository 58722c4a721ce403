// Package signer implements the keyed-digest primitive shared by the token
// codec and the credential codec.
//
// A [Signer] computes HMAC-SHA512 over content followed by a per-subject salt
// and encodes the digest as unpadded base64url text. Keys are fixed at
// construction; a key that cannot initialize the primitive is reported once by
// [New] and never per call.
//
// # What this package must NOT do
//
//   - Log or format key material ([Key] redacts itself).
//   - Compare wall-clock time or interpret the signed content.
package signer
