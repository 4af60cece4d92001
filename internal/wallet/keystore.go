package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "coffee"

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore persists private keys by reference.
type KeyStore interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// KeyRef is the keychain reference used for a wallet name.
func KeyRef(name string) string { return keychainService + "." + name }

// Keychain is a KeyStore backed by the OS keychain, with an optional
// session cache consulted before the keychain is touched.
type Keychain struct {
	ring    keyring.Keyring
	session *SessionCache
}

// OpenKeychain opens the OS keychain, falling back to the encrypted file
// backend under dir on headless Linux.
func OpenKeychain(dir string, session *SessionCache) (*Keychain, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.TerminalPrompt,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, err = keyring.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening keychain: %w", err)
		}
	}
	return NewKeychain(ring, session), nil
}

// NewKeychain wraps an already opened keyring.
func NewKeychain(ring keyring.Keyring, session *SessionCache) *Keychain {
	return &Keychain{ring: ring, session: session}
}

// Store saves a private key for a wallet name and returns its reference.
func (k *Keychain) Store(name, hexKey string) (string, error) {
	ref := KeyRef(name)
	if err := k.ring.Set(keyring.Item{Key: ref, Data: []byte(normaliseHexKey(hexKey))}); err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key, preferring the session cache.
func (k *Keychain) Retrieve(ref string) (string, error) {
	if k.session != nil {
		if v, ok := k.session.Get(ref); ok {
			return v, nil
		}
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key from the keychain and the session cache.
func (k *Keychain) Delete(ref string) error {
	if k.session != nil {
		k.session.Remove(ref)
	}
	err := k.ring.Remove(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemKeyStore keeps keys in memory. Used by tests.
type MemKeyStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemKeyStore creates an empty in-memory key store.
func NewMemKeyStore() *MemKeyStore {
	return &MemKeyStore{data: make(map[string]string)}
}

func (k *MemKeyStore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := KeyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *MemKeyStore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *MemKeyStore) Delete(ref string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, ref)
	return nil
}

// normaliseHexKey trims whitespace and a 0x/0X prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
