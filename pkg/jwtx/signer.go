package jwtx

// Signer mints access tokens. The portal only ever signs development
// tokens; production tokens come from the API.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

var _ Signer = (*HS256Signer)(nil)
