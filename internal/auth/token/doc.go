// Package token signs and verifies the compact, self-contained, expiring
// credentials Aegis issues: JSON Web Tokens signed with HMAC-SHA256.
//
// The codec is fixed to a single algorithm. Verification pins HS256 via the
// parser's allow-list, so a token signed with any other method (including
// "none") is invalid regardless of its payload. Access and refresh codecs
// are separate instances with distinct secrets; a token signed with one
// secret never verifies under the other.
package token
