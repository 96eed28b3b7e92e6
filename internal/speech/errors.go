package speech

import (
	"fmt"

	"voxsearch/internal/i18n"
)

// ErrorCode identifies a recognition failure category. The values follow
// the codes commonly reported by speech engines.
type ErrorCode string

const (
	ErrNoSpeech     ErrorCode = "no-speech"
	ErrAudioCapture ErrorCode = "audio-capture"
	ErrNotAllowed   ErrorCode = "not-allowed"
	ErrNetwork      ErrorCode = "network"
	ErrService      ErrorCode = "service-not-allowed"
	ErrBadGrammar   ErrorCode = "bad-grammar"
	ErrLanguage     ErrorCode = "language-not-supported"
	ErrAborted      ErrorCode = "aborted"
	ErrInitFailed   ErrorCode = "init-failed"
	ErrStartFailed  ErrorCode = "start-failed"
	ErrUnsupported  ErrorCode = "unsupported"
)

// messageKeys maps error codes to translation keys.
var messageKeys = map[ErrorCode]string{
	ErrNoSpeech:     "speech_no_speech",
	ErrAudioCapture: "speech_audio_capture",
	ErrNotAllowed:   "speech_not_allowed",
	ErrNetwork:      "speech_network",
	ErrService:      "speech_service",
	ErrBadGrammar:   "speech_bad_grammar",
	ErrLanguage:     "speech_language",
	ErrAborted:      "speech_aborted",
	ErrInitFailed:   "speech_init_failed",
	ErrStartFailed:  "speech_start_failed",
	ErrUnsupported:  "speech_unsupported",
}

// Message returns the localized human-readable message for a code.
// Unrecognized codes produce a generic "unknown error" message.
func Message(code ErrorCode) string {
	if key, ok := messageKeys[code]; ok {
		return i18n.T(key)
	}
	return fmt.Sprintf("unknown error: %s", code)
}
