package filerepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-smartfaq/session"
)

// FileSessionRepo persists stored sessions as a JSON file with owner-only
// permissions. It is the CLI's analog of the gateway's cookie-backed store:
// one file, usually holding a single session keyed "default".
type FileSessionRepo struct {
	mu   sync.Mutex
	path string
}

// New creates a file-backed session repository at the given path.
func New(path string) (*FileSessionRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("[filerepo.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[filerepo.New] create directory: %w", err)
	}
	return &FileSessionRepo{path: path}, nil
}

// Upsert creates or updates a stored session
func (r *FileSessionRepo) Upsert(sessionID string, stored session.StoredSession) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	sessions[sessionID] = stored
	return r.save(sessions)
}

// Get retrieves a stored session by id
func (r *FileSessionRepo) Get(sessionID string) (session.StoredSession, error) {
	if sessionID == "" {
		return session.StoredSession{}, fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return session.StoredSession{}, err
	}

	stored, ok := sessions[sessionID]
	if !ok {
		return session.StoredSession{}, fmt.Errorf("session not found")
	}
	return stored, nil
}

// Delete removes a stored session
func (r *FileSessionRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	delete(sessions, sessionID)
	return r.save(sessions)
}

func (r *FileSessionRepo) load() (map[string]session.StoredSession, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]session.StoredSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileSessionRepo.load] read %s: %w", r.path, err)
	}

	sessions := map[string]session.StoredSession{}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("[FileSessionRepo.load] parse %s: %w", r.path, err)
	}
	return sessions, nil
}

func (r *FileSessionRepo) save(sessions map[string]session.StoredSession) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileSessionRepo.save] marshal: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("[FileSessionRepo.save] write %s: %w", r.path, err)
	}
	return nil
}

var _ session.Repo = (*FileSessionRepo)(nil)
