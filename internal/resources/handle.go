package resources

import (
	"net/url"
	"sync/atomic"
)

// Identity names the logical owner of a handle, e.g. "caption:5".
type Identity string

// CaptionIdentity returns the identity used for a clip's caption document.
func CaptionIdentity(clipID string) Identity { return Identity("caption:" + clipID) }

// DownloadIdentity returns the identity used for a clip's one-shot download.
func DownloadIdentity(clipID string) Identity { return Identity("download:" + clipID) }

// ProbeIdentity returns the identity used while probing a local file.
func ProbeIdentity(token string) Identity { return Identity("probe:" + token) }

// Handle is a local, loadable resource. It stays valid until revoked.
type Handle struct {
	id       string
	identity Identity
	mimeType string
	path     string
	target   string
	size     int64
	owned    bool
	revoked  atomic.Bool
}

// ID returns the unique handle identifier.
func (h *Handle) ID() string { return h.id }

// Identity returns the owner identity the handle was created for.
func (h *Handle) Identity() Identity { return h.identity }

// MIMEType returns the declared media type.
func (h *Handle) MIMEType() string { return h.mimeType }

// Path returns the local path that loads the resource.
func (h *Handle) Path() string { return h.path }

// Target returns the linked file for non-owning handles, or Path otherwise.
func (h *Handle) Target() string {
	if h.target != "" {
		return h.target
	}
	return h.path
}

// Size returns the byte size recorded at creation.
func (h *Handle) Size() int64 { return h.size }

// URL returns a file:// URL for the handle.
func (h *Handle) URL() string {
	return (&url.URL{Scheme: "file", Path: h.path}).String()
}

// Revoked reports whether the handle has been released.
func (h *Handle) Revoked() bool { return h.revoked.Load() }
