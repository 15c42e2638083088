package profile

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrBusy is returned by Save while another save is in flight
	ErrBusy = errors.New("profile save already in progress")

	ErrNotAuthenticated = errors.New("user is not authenticated")
)

// Step identifies the save step that failed
type Step string

const (
	StepPhotoUpload  Step = "photo_upload"
	StepLogoUpload   Step = "logo_upload"
	StepProfileWrite Step = "profile_write"
)

// SaveError is a failed save attempt. Nothing after Step was executed.
type SaveError struct {
	Step             Step
	PermissionDenied bool
	Err              error
}

func (e *SaveError) Error() string {
	return "profile save failed at " + string(e.Step) + ": " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user
func (e *SaveError) Message() string {
	switch e.Step {
	case StepPhotoUpload:
		if e.PermissionDenied {
			return "Permission denied: Cannot upload profile picture."
		}
		return "Failed to upload profile picture."
	case StepLogoUpload:
		if e.PermissionDenied {
			return "Permission denied: Cannot upload logo."
		}
		return "Failed to upload logo."
	default:
		if e.PermissionDenied {
			return "Database permission denied."
		}
		return "Failed to save settings to database."
	}
}

// SavedMessage is shown after a successful save
const SavedMessage = "All settings saved successfully."

// Message returns the user-facing text of a Save error
func Message(err error) string {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Message()
	}
	if errors.Is(err, ErrBusy) {
		return "A save is already in progress."
	}
	return "Failed to save settings to database."
}

func newSaveError(step Step, permissionDenied bool, err error) error {
	return goerr.Wrap(&SaveError{Step: step, PermissionDenied: permissionDenied, Err: err}, "failed to save profile",
		goerr.V("step", step))
}
