// Package session implements the credential lifecycle: registration, login
// with access/refresh token pairs, refresh rotation, and logout.
//
// The single-session model stores the hash of the one currently-valid
// refresh token on the user record. Rotation is mandatory: every successful
// refresh supersedes the stored value through a conditional store write, so
// concurrent rotations on the same token admit at most one winner and a
// rotated token can never be replayed.
package session
