package jwtx

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MinSecretLength is the shortest HS256 secret accepted (256 bits).
const MinSecretLength = 32

// KeySet holds HMAC secrets tagged by generation id ("kid"). The most
// recently added generation signs new tokens; every generation still in the
// set verifies. Rotation is adding a generation and, once the old tokens
// have expired, restarting without the previous one.
type KeySet struct {
	mu     sync.RWMutex
	keys   map[string][]byte
	order  []string
	active string
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string][]byte)}
}

// Add registers a generation and makes it the signing generation.
func (k *KeySet) Add(kid string, secret []byte) error {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return fmt.Errorf("jwtx: empty kid")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%w: kid %q has %d bytes, need %d", ErrWeakKey, kid, len(secret), MinSecretLength)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[kid]; exists {
		return fmt.Errorf("jwtx: duplicate kid %q", kid)
	}
	k.keys[kid] = slices.Clone(secret)
	k.order = append(k.order, kid)
	k.active = kid
	return nil
}

// Get returns the secret for kid.
func (k *KeySet) Get(kid string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	s, ok := k.keys[kid]
	if !ok {
		return nil, ErrUnknownKID
	}
	return s, nil
}

// Active returns the signing generation.
func (k *KeySet) Active() (string, []byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.active == "" {
		return "", nil, ErrNoKey
	}
	return k.active, k.keys[k.active], nil
}

func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active != ""
}

// KIDs lists generations oldest first.
func (k *KeySet) KIDs() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Clone(k.order)
}

// ParseKeySpec builds a KeySet from "kid:secret,kid:secret". The last entry
// becomes the signing generation.
func ParseKeySpec(spec string) (*KeySet, error) {
	ks := NewKeySet()
	for i, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kid, secret, ok := strings.Cut(entry, ":")
		if !ok {
			// Don't echo the entry, it holds the secret.
			return nil, fmt.Errorf("jwtx: key entry %d is not kid:secret", i)
		}
		if err := ks.Add(kid, []byte(secret)); err != nil {
			return nil, err
		}
	}
	if !ks.IsReady() {
		return nil, ErrNoKey
	}
	return ks, nil
}
