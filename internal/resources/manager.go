package resources

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"clipdeck/internal/fileutil"
	"clipdeck/internal/logging"
	"clipdeck/internal/textutil"
)

// ErrClosed is returned when creating handles on a closed manager.
var ErrClosed = errors.New("resource manager closed")

// Manager creates and revokes handles under a single directory.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	live   map[Identity]*Handle
	closed bool
}

// NewManager prepares dir for handle storage.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("resource manager: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("resource manager: create %s: %w", dir, err)
	}
	return &Manager{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "resources"),
		live:   make(map[Identity]*Handle),
	}, nil
}

// Dir returns the directory handles are created in.
func (m *Manager) Dir() string { return m.dir }

// Create stores data as a new handle for identity. Any handle still live for
// identity is revoked before the new one becomes visible.
func (m *Manager) Create(identity Identity, data []byte, mimeType string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	h := m.newHandle(identity, mimeType)
	h.owned = true
	h.size = int64(len(data))
	if err := fileutil.WriteFileAtomic(h.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("create handle for %s: %w", identity, err)
	}
	m.replaceLocked(h)
	return h, nil
}

// Link creates a non-owning handle that resolves to an existing file.
// Revoking it removes the link but never the target.
func (m *Manager) Link(identity Identity, target string, mimeType string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("link handle for %s: %w", identity, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("link handle for %s: %w", identity, err)
	}

	h := m.newHandle(identity, mimeType)
	h.target = abs
	h.size = info.Size()
	if err := os.Symlink(abs, h.path); err != nil {
		// Filesystems without symlink support probe the target directly.
		m.logger.Debug("symlink unavailable, using target path", logging.String("target", abs), logging.Error(err))
		h.path = abs
	} else {
		h.owned = true
	}
	m.replaceLocked(h)
	return h, nil
}

// Revoke releases h. It is safe to call more than once and on handles that
// have already been replaced.
func (m *Manager) Revoke(h *Handle) error {
	if h == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.live[h.identity]; ok && current == h {
		delete(m.live, h.identity)
	}
	return m.releaseLocked(h)
}

// Live returns the live handle for identity, if any.
func (m *Manager) Live(identity Identity) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.live[identity]
	return h, ok
}

// LiveCount returns the number of live handles.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Close revokes every live handle and rejects further creation.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	var errs []error
	for identity, h := range m.live {
		delete(m.live, identity)
		if err := m.releaseLocked(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) newHandle(identity Identity, mimeType string) *Handle {
	id := uuid.NewString()
	name := textutil.SanitizeToken(string(identity)) + "-" + id + extensionFor(mimeType)
	return &Handle{
		id:       id,
		identity: identity,
		mimeType: mimeType,
		path:     filepath.Join(m.dir, name),
	}
}

func (m *Manager) replaceLocked(h *Handle) {
	if previous, ok := m.live[h.identity]; ok && previous != h {
		if err := m.releaseLocked(previous); err != nil {
			logging.WarnWithContext(m.logger, "failed to release replaced handle", "handle_release_failed",
				logging.String("identity", string(previous.identity)),
				logging.String("path", previous.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "a stale file remains in the handle directory"),
			)
		}
	}
	m.live[h.identity] = h
	m.logger.Debug("handle created",
		logging.String("identity", string(h.identity)),
		logging.String("handle_id", h.id),
		logging.Int64("size_bytes", h.size),
	)
}

func (m *Manager) releaseLocked(h *Handle) error {
	if !h.revoked.CompareAndSwap(false, true) {
		return nil
	}
	if !h.owned {
		return nil
	}
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("revoke handle %s: %w", h.id, err)
	}
	m.logger.Debug("handle revoked", logging.String("identity", string(h.identity)), logging.String("handle_id", h.id))
	return nil
}

var fallbackExtensions = map[string]string{
	"text/vtt":         ".vtt",
	"video/mp4":        ".mp4",
	"video/quicktime":  ".mov",
	"video/mov":        ".mov",
	"video/x-msvideo":  ".avi",
	"video/avi":        ".avi",
	"video/x-matroska": ".mkv",
	"video/mkv":        ".mkv",
}

func extensionFor(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if base, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = base
	}
	if ext, ok := fallbackExtensions[mimeType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
