package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrRemote        = errors.New("backend request failed")
	ErrBusy          = errors.New("workflow busy")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Reason is the short, user-distinguishable code attached to a failure.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonInvalidType          Reason = "invalid-type"
	ReasonUnreadableMetadata   Reason = "unreadable-metadata"
	ReasonTooLong              Reason = "too-long"
	ReasonNoInput              Reason = "no-input"
	ReasonNoRanges             Reason = "no-ranges"
	ReasonUploadFailed         Reason = "upload-failed"
	ReasonGenerationFailed     Reason = "generation-failed"
	ReasonDeleteFailed         Reason = "delete-failed"
	ReasonListingFailed        Reason = "listing-failed"
	ReasonDownloadFailed       Reason = "download-failed"
	ReasonBusy                 Reason = "workflow-busy"
	ReasonNeedsAcknowledgement Reason = "needs-acknowledgement"
)

// Local reports whether the reason is decided on the client before any
// network call is made.
func (r Reason) Local() bool {
	switch r {
	case ReasonInvalidType, ReasonUnreadableMetadata, ReasonTooLong, ReasonNoInput, ReasonNoRanges, ReasonBusy, ReasonNeedsAcknowledgement:
		return true
	default:
		return false
	}
}

// Failure ties a reason code to the marker and underlying cause.
type Failure struct {
	Reason Reason
	Op     string
	Err    error
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Fail builds a Failure whose cause is tagged with marker and carries the
// stage/operation context the same way Wrap does.
func Fail(reason Reason, marker error, stage, operation, message string, err error) error {
	return &Failure{
		Reason: reason,
		Op:     operation,
		Err:    Wrap(marker, stage, operation, message, err),
	}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ReasonOf extracts the reason code from err, or ReasonNone.
func ReasonOf(err error) Reason {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Reason
	}
	return ReasonNone
}

// IsLocal reports whether err was decided without a network call.
func IsLocal(err error) bool {
	return ReasonOf(err).Local()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
