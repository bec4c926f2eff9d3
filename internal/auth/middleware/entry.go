package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadEntryCode = errors.New("invalid entry code")

// EntryGate checks the code required to start a session. A gate without a
// hash admits everyone.
type EntryGate struct{ hash []byte }

func NewEntryGate(bcryptHash string) *EntryGate {
	if bcryptHash == "" {
		return &EntryGate{}
	}
	return &EntryGate{hash: []byte(bcryptHash)}
}

func (g *EntryGate) Enabled() bool { return g != nil && len(g.hash) > 0 }

func (g *EntryGate) Check(code string) error {
	if !g.Enabled() {
		return nil
	}
	if bcrypt.CompareHashAndPassword(g.hash, []byte(code)) != nil {
		return ErrBadEntryCode
	}
	return nil
}

func HashEntryCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}
