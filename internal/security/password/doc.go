// Package password provides the one-way hash-and-compare primitive used by
// the session layer.
//
// It implements Argon2id hashing with a PHC-style encoded string format and
// includes a basic length policy plus strict hash decoding with anti-DoS
// bounds: hash strings are treated as untrusted input during Verify.
package password
