package workflow

import (
	"context"
	"fmt"
	"slices"

	"clipdeck/internal/backend"
	"clipdeck/internal/logging"
	"clipdeck/internal/notifications"
	"clipdeck/internal/services"
)

// Videos returns the last fetched video listing.
func (o *Orchestrator) Videos() []backend.Video {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.videos)
}

// Clips returns the current clip batch for filename.
func (o *Orchestrator) Clips(filename string) []backend.Clip {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.clips[filename])
}

// RefreshVideos replaces the video listing. Failures are notified and leave
// the previous listing and workflow state untouched.
func (o *Orchestrator) RefreshVideos(ctx context.Context) ([]backend.Video, error) {
	videos, err := o.client.ListVideos(ctx)
	if err != nil {
		return nil, o.listingFailed(ctx, "video listing", err)
	}
	o.mu.Lock()
	o.videos = slices.Clone(videos)
	o.mu.Unlock()
	o.logger.Debug("video listing refreshed", logging.Int("videos", len(videos)))
	return videos, nil
}

// LoadClips fetches the clip batch for filename for a detail view.
func (o *Orchestrator) LoadClips(ctx context.Context, filename string) ([]backend.Clip, error) {
	ctx = services.WithFilename(ctx, filename)
	clips, err := o.client.FetchClips(ctx, filename)
	if err != nil {
		return nil, o.listingFailed(ctx, fmt.Sprintf("clips for %s", filename), err)
	}
	o.mu.Lock()
	o.clips[filename] = slices.Clone(clips)
	o.mu.Unlock()
	return clips, nil
}

func (o *Orchestrator) listingFailed(ctx context.Context, scope string, cause error) error {
	err := services.Fail(services.ReasonListingFailed, services.ErrRemote, stageName, "list", scope, cause)
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "listing refresh failed", "listing_failed",
		logging.String("scope", scope),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "displayed listing may be stale"),
	)
	o.publish(ctx, notifications.EventListingFailed, notifications.Payload{
		"scope":  scope,
		"reason": string(services.ReasonListingFailed),
		"error":  rootCause(cause),
	})
	return err
}

// DeleteClip removes a clip once the backend confirms it. On failure the
// clip stays in the batch and a delete-failed notice is raised.
func (o *Orchestrator) DeleteClip(ctx context.Context, filename string, id backend.ClipID) error {
	ctx = services.WithClipID(services.WithFilename(ctx, filename), id.String())
	if err := o.beginSideOp(ctx, "delete clip"); err != nil {
		return err
	}
	defer o.endSideOp()

	if err := o.client.DeleteClip(ctx, id); err != nil {
		return o.deleteFailed(ctx, "clip", id.String(), err)
	}
	o.mu.Lock()
	o.clips[filename] = slices.DeleteFunc(o.clips[filename], func(c backend.Clip) bool { return c.ID == id })
	o.mu.Unlock()

	logging.WithContext(ctx, o.logger).Info("clip deleted")
	o.publish(ctx, notifications.EventDeleted, notifications.Payload{"entity": "clip", "id": id.String()})
	return nil
}

// DeleteVideo removes a video and its clip batch once the backend confirms it.
func (o *Orchestrator) DeleteVideo(ctx context.Context, filename string) error {
	ctx = services.WithFilename(ctx, filename)
	if err := o.beginSideOp(ctx, "delete video"); err != nil {
		return err
	}
	defer o.endSideOp()

	if err := o.client.DeleteVideo(ctx, filename); err != nil {
		return o.deleteFailed(ctx, "video", filename, err)
	}
	o.mu.Lock()
	o.videos = slices.DeleteFunc(o.videos, func(v backend.Video) bool { return v.Filename == filename })
	delete(o.clips, filename)
	o.mu.Unlock()

	logging.WithContext(ctx, o.logger).Info("video deleted")
	o.publish(ctx, notifications.EventDeleted, notifications.Payload{"entity": "video", "id": filename})
	return nil
}

// beginSideOp admits a delete from idle or ready only.
func (o *Orchestrator) beginSideOp(ctx context.Context, op string) error {
	o.mu.Lock()
	err := o.availableLocked(op)
	if err == nil && o.state == StateError {
		err = services.Fail(services.ReasonNeedsAcknowledgement, services.ErrBusy, stageName, op,
			"acknowledge the failed run first", nil)
	}
	if err == nil {
		o.sideOp = op
	}
	o.mu.Unlock()
	if err != nil {
		o.reject(ctx, notifications.EventRequestRejected, op, err)
	}
	return err
}

func (o *Orchestrator) endSideOp() {
	o.mu.Lock()
	o.sideOp = ""
	o.mu.Unlock()
}

func (o *Orchestrator) deleteFailed(ctx context.Context, entity, id string, cause error) error {
	err := services.Fail(services.ReasonDeleteFailed, services.ErrRemote, stageName, "delete "+entity, id, cause)
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "delete failed", "delete_failed",
		logging.String("entity", entity),
		logging.Error(cause),
		logging.String(logging.FieldImpact, entity+" kept in the listing"),
		logging.String(logging.FieldErrorHint, "retry the delete once the backend is reachable"),
	)
	o.publish(ctx, notifications.EventDeleteFailed, notifications.Payload{
		"entity": entity,
		"id":     id,
		"reason": string(services.ReasonDeleteFailed),
		"error":  rootCause(cause),
	})
	return err
}
