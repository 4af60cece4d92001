package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSessionPath returns the per-user session cache file.
//
//	macOS:   ~/Library/Caches/coffee/session.json
//	Linux:   ~/.cache/coffee/session.json
//	Windows: %LocalAppData%\coffee\session.json
func DefaultSessionPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "coffee", "session.json")
}

// SessionCache holds unlocked keys in a 0600 file so repeated commands do
// not prompt the keychain. Cleared by `coffee wallet lock`.
type SessionCache struct {
	path string
	mu   sync.Mutex
}

// NewSessionCache returns a cache stored at path.
func NewSessionCache(path string) *SessionCache {
	return &SessionCache{path: path}
}

// Get returns the cached key for ref.
func (s *SessionCache) Get(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load()[ref]
	return v, ok
}

// Put caches keys in a single read+write.
func (s *SessionCache) Put(keys map[string]string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	for ref, v := range keys {
		m[ref] = v
	}
	return s.save(m)
}

// Remove evicts a single key.
func (s *SessionCache) Remove(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	if _, ok := m[ref]; !ok {
		return
	}
	delete(m, ref)
	_ = s.save(m)
}

// Active reports whether any key is cached.
func (s *SessionCache) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.load()) > 0
}

// Clear deletes the session file.
func (s *SessionCache) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// load never returns nil; a missing or corrupt file reads as empty.
func (s *SessionCache) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (s *SessionCache) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	return os.Chmod(s.path, 0o600)
}
