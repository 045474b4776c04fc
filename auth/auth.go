// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidToken    = errors.New("invalid token format")
	ErrInvalidJoinCode = errors.New("invalid join code")
)

// JoinCodeLength is the number of characters in a group join code
const JoinCodeLength = 6

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateIdentityToken creates a random secure bearer token for an
// anonymous identity. Only its hash is ever stored.
func GenerateIdentityToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate identity token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashToken creates the salted one-way hash stored for an identity token
func HashToken(token, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateTokenFormat rejects tokens that GenerateIdentityToken could not
// have produced, before any store lookup.
func ValidateTokenFormat(token string) error {
	if len(token) != 32 {
		return ErrInvalidToken
	}
	if _, err := base64.RawURLEncoding.DecodeString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// GenerateJoinCode draws JoinCodeLength characters uniformly and
// independently from [A-Z0-9]. Uniqueness is the caller's concern.
func GenerateJoinCode() (string, error) {
	// 252 is the largest multiple of 36 below 256; higher bytes are
	// rejected so every symbol is equally likely.
	const limit = 252

	code := make([]byte, 0, JoinCodeLength)
	buf := make([]byte, JoinCodeLength*2)
	for len(code) < JoinCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, joinCodeAlphabet[int(b)%len(joinCodeAlphabet)])
			if len(code) == JoinCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// NormalizeJoinCode trims whitespace and upper-cases a user-entered code
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateJoinCode checks that an already-normalized code has the right
// length and alphabet
func ValidateJoinCode(code string) error {
	if len(code) != JoinCodeLength {
		return ErrInvalidJoinCode
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(joinCodeAlphabet, code[i]) < 0 {
			return ErrInvalidJoinCode
		}
	}
	return nil
}
