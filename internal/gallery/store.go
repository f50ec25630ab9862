package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jo-hoe/gardengallery/internal/imageservice"
	"github.com/jo-hoe/gardengallery/internal/mainimage"
)

// ImageService is everything the store needs from the remote image service.
type ImageService interface {
	mainimage.ImageService
	BatchUploader
	Delete(ctx context.Context, imageID int64) error
	Update(ctx context.Context, imageID int64, update imageservice.ImageUpdate) (imageservice.Image, error)
}

// Store is the mutation surface of one owner's gallery. Every mutation is
// followed by a reload of the canonical list; nothing is applied
// optimistically. Operations report success as a bool and record failures
// in State.LastError.
//
// Callers are expected to issue one mutation at a time. After Close, results
// of calls still in flight are discarded.
type Store struct {
	ownerID  int64
	service  ImageService
	policy   *mainimage.Policy
	uploader *UploadCoordinator

	mu               sync.Mutex
	state            State
	selection        SelectionTracker
	closed           bool
	subscribers      map[int]func(State)
	nextSubscriberID int
}

func NewStore(ownerID int64, service ImageService) *Store {
	policy := mainimage.NewPolicy(service)
	return &Store{
		ownerID:     ownerID,
		service:     service,
		policy:      policy,
		uploader:    NewUploadCoordinator(service, policy),
		state:       State{OwnerID: ownerID},
		subscribers: make(map[int]func(State)),
	}
}

func (s *Store) OwnerID() int64 {
	return s.ownerID
}

// State returns a copy of the current gallery state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// MainImage returns the main image seen by the last reload, if any.
func (s *Store) MainImage() (imageservice.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Main == nil {
		return imageservice.Image{}, false
	}
	return *s.state.Main, true
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Close detaches the store from its owner screen. Pending network calls are
// not aborted but their results are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subscribers = make(map[int]func(State))
}

func (s *Store) LoadImages(ctx context.Context) (ok bool) {
	defer s.guard("LoadImages", &ok)

	if !s.update(func(state *State) { state.IsLoading = true }) {
		return false
	}
	images, err := s.service.ListByOwner(ctx, s.ownerID)
	if err != nil {
		// keep the stale list visible
		s.fail("LoadImages", err, func(state *State) { state.IsLoading = false })
		return false
	}
	return s.update(func(state *State) {
		state.IsLoading = false
		state.LastError = nil
		s.applyImages(state, images, nil)
	})
}

// StageForUpload appends files to the pending selection. No network call.
func (s *Store) StageForUpload(files ...File) {
	s.update(func(state *State) {
		state.PendingUploads = append(state.PendingUploads, files...)
	})
}

// ClearPending drops every staged file.
func (s *Store) ClearPending() {
	s.update(func(state *State) { state.PendingUploads = nil })
}

// CommitUpload uploads the pending files as one batch. isMain nil lets the
// first-image rule decide. On any success the committed files leave the
// pending list and the gallery is reloaded; on total failure they stay so the
// caller can retry.
func (s *Store) CommitUpload(ctx context.Context, isMain *bool) (ok bool) {
	defer s.guard("CommitUpload", &ok)

	var files []File
	if !s.update(func(state *State) {
		files = append([]File(nil), state.PendingUploads...)
		state.IsUploading = true
		state.UploadProgress = 0
	}) {
		return false
	}

	result, err := s.uploader.Upload(ctx, s.ownerID, files, isMain, s.setProgress)
	if err != nil {
		s.fail("CommitUpload", err, func(state *State) { state.IsUploading = false })
		return false
	}
	if result.SuccessCount == 0 {
		s.fail("CommitUpload", &PartialUploadError{Result: result}, func(state *State) {
			state.IsUploading = false
			state.LastBatch = &result
		})
		return false
	}

	images, reloadErr := s.service.ListByOwner(ctx, s.ownerID)
	if reloadErr != nil {
		reloadErr = fmt.Errorf("%d images uploaded but the gallery could not be reloaded: %w", result.SuccessCount, reloadErr)
		slog.Warn("GalleryStore: reload after upload failed", "owner_id", s.ownerID, "error", reloadErr)
	}
	updated := s.update(func(state *State) {
		state.IsUploading = false
		state.LastBatch = &result
		// files staged while the request was in flight stay pending
		if len(state.PendingUploads) >= len(files) {
			state.PendingUploads = state.PendingUploads[len(files):]
		} else {
			state.PendingUploads = nil
		}
		switch {
		case reloadErr != nil:
			state.LastError = reloadErr
		case result.ErrorCount > 0:
			state.LastError = &PartialUploadError{Result: result}
		default:
			state.LastError = nil
		}
		if reloadErr == nil {
			s.applyImages(state, images, nil)
		}
	})
	return updated && reloadErr == nil
}

// SetMain flags the image as the owner's main image and reloads the gallery
// and main image from the server.
func (s *Store) SetMain(ctx context.Context, imageID int64) (ok bool) {
	defer s.guard("SetMain", &ok)

	if !s.update(func(state *State) { state.IsLoading = true }) {
		return false
	}
	snapshot, err := s.policy.SetAsMain(ctx, s.ownerID, imageID)
	if err != nil {
		s.fail("SetMain", err, func(state *State) { state.IsLoading = false })
		return false
	}
	return s.update(func(state *State) {
		state.IsLoading = false
		state.LastError = nil
		s.applyImages(state, snapshot.Images, snapshot.Main)
	})
}

// Remove deletes the image and moves the selection using the image's
// position before the delete.
func (s *Store) Remove(ctx context.Context, imageID int64) (ok bool) {
	defer s.guard("Remove", &ok)

	removedIndex := -1
	if !s.update(func(state *State) {
		removedIndex = indexOf(state.Images, imageID)
		state.IsLoading = true
	}) {
		return false
	}

	if err := s.service.Delete(ctx, imageID); err != nil {
		s.fail("Remove", fmt.Errorf("failed to delete image %d: %w", imageID, err), func(state *State) { state.IsLoading = false })
		return false
	}

	images, err := s.service.ListByOwner(ctx, s.ownerID)
	if err != nil {
		s.fail("Remove", fmt.Errorf("image %d was deleted but the gallery could not be reloaded: %w", imageID, err), func(state *State) { state.IsLoading = false })
		return false
	}
	return s.update(func(state *State) {
		state.IsLoading = false
		state.LastError = nil
		state.Images = images
		state.Main = mainOf(images)
		state.SelectedIndex = s.selection.Removed(removedIndex, len(images))
	})
}

// UpdateDescription changes the image's description and reloads.
func (s *Store) UpdateDescription(ctx context.Context, imageID int64, description string) (ok bool) {
	defer s.guard("UpdateDescription", &ok)

	if !s.update(func(state *State) { state.IsLoading = true }) {
		return false
	}
	update := imageservice.ImageUpdate{Description: imageservice.StringPtr(description)}
	if _, err := s.service.Update(ctx, imageID, update); err != nil {
		s.fail("UpdateDescription", fmt.Errorf("failed to update image %d: %w", imageID, err), func(state *State) { state.IsLoading = false })
		return false
	}
	images, err := s.service.ListByOwner(ctx, s.ownerID)
	if err != nil {
		s.fail("UpdateDescription", err, func(state *State) { state.IsLoading = false })
		return false
	}
	return s.update(func(state *State) {
		state.IsLoading = false
		state.LastError = nil
		s.applyImages(state, images, nil)
	})
}

// Select moves the carousel cursor and returns the clamped index.
func (s *Store) Select(index int) int {
	selected := 0
	s.update(func(state *State) {
		selected = s.selection.Select(index, len(state.Images))
		state.SelectedIndex = selected
	})
	return selected
}

func (s *Store) ClearError() {
	s.update(func(state *State) { state.LastError = nil })
}

func (s *Store) setProgress(percent int) {
	s.update(func(state *State) { state.UploadProgress = percent })
}

// applyImages must be called with s.mu held.
func (s *Store) applyImages(state *State, images []imageservice.Image, main *imageservice.Image) {
	state.Images = images
	if main == nil {
		main = mainOf(images)
	}
	state.Main = main
	state.SelectedIndex = s.selection.Reconcile(len(images))
}

// update applies fn under the lock and notifies subscribers. It reports
// false, without applying fn, once the store is closed.
func (s *Store) update(fn func(state *State)) bool {
	snapshot, subscribers, ok := s.apply(fn)
	if !ok {
		return false
	}
	for _, subscriber := range subscribers {
		subscriber(snapshot)
	}
	return true
}

func (s *Store) apply(fn func(state *State)) (State, []func(State), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, nil, false
	}
	fn(&s.state)
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, subscriber := range s.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	return s.state.clone(), subscribers, true
}

func (s *Store) fail(operation string, err error, fn func(state *State)) {
	slog.Warn("GalleryStore: operation failed", "operation", operation, "owner_id", s.ownerID, "error", err)
	s.update(func(state *State) {
		if fn != nil {
			fn(state)
		}
		state.LastError = err
	})
}

// guard turns a panic inside an operation into LastError.
func (s *Store) guard(operation string, ok *bool) {
	recovered := recover()
	if recovered == nil {
		return
	}
	err := recoveredError(operation, recovered)
	slog.Error("GalleryStore: recovered from panic", "operation", operation, "owner_id", s.ownerID, "error", err)
	s.update(func(state *State) {
		state.IsLoading = false
		state.IsUploading = false
		state.LastError = err
	})
	*ok = false
}
