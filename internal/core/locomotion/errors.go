package locomotion

import "errors"

var (
	// ErrNoSupport means no cube was found below the avatar while it was
	// expected to rest on one.
	ErrNoSupport      = errors.New("locomotion: no cube below avatar")
	ErrInvalidTuning  = errors.New("locomotion: invalid tuning")
	ErrNilProbe       = errors.New("locomotion: terrain probe is required")
	ErrNilSink        = errors.New("locomotion: event sink is required")
	ErrUnknownCommand = errors.New("locomotion: unknown command")
)
