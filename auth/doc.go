// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides anonymous identities and join-code generation.

# Identity Tokens

Logging in creates an anonymous identity and returns a random 24-byte
(192-bit) bearer token:

	token, identityID, err := provider.CreateAnonymousIdentity(ctx)

Only HMAC-SHA256(token, IDENTITY_SALT) is stored, so a leaked database does
not leak usable tokens. Clients send the token in the X-Identity-Token header;
CurrentSession resolves it back to the stable identity id and SignOut
revokes it.

# Join Codes

Groups are discovered by a six-character code drawn uniformly from [A-Z0-9]:

	code, err := auth.GenerateJoinCode()

36^6 is about 2.2 billion codes. The generator does not check uniqueness;
group creation retries on a unique-constraint violation instead.

User input is normalized before lookup:

	code = auth.NormalizeJoinCode(input) // trim + upper-case
	err = auth.ValidateJoinCode(code)
*/
package auth
