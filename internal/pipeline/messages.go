package pipeline

import (
	"fmt"
	"strings"
)

const (
	MessageSuccess  = "Conversion successful!"
	MessageBusy     = "Another conversion is still running. Please wait for it to finish."
	messageYouSaid  = "You said: %s"
	messageIPA      = "IPA: /%s/"
	messageSpokenBy = "-# Spoken by %s"
)

var failureMessages = map[FailureKind]string{
	KindInputMissing:       "Please speak or type a sentence first.",
	KindDecodeFailure:      "The recording could not be read. Please record it again.",
	KindUnintelligible:     "Sorry, the speech could not be understood. Please try again more clearly.",
	KindServiceUnavailable: "The speech recognition service is unavailable right now. Please try again later or type the sentence.",
	KindEmptyInput:         "There is nothing to convert. Please enter at least one word.",
	KindEngineError:        "The phoneme converter failed. Please try again later.",
	KindNoBackendAvailable: "No voice is available right now, so the IPA is shown without audio.",
}

// Message returns the user-facing text for a failure kind.
func Message(kind FailureKind) string {
	if m, ok := failureMessages[kind]; ok {
		return m
	}
	return "Something went wrong. Please try again."
}

// Summary renders a finished run. Transcript and IPA are shown whenever they
// exist, including on partial success.
func Summary(run *Run) string {
	var lines []string
	if run.Failure == nil {
		lines = append(lines, MessageSuccess)
	} else {
		lines = append(lines, Message(run.Failure.Kind))
	}
	if run.Input.HasAudio() && run.Transcript != "" {
		lines = append(lines, fmt.Sprintf(messageYouSaid, run.Transcript))
	}
	if run.Phonemes != "" {
		lines = append(lines, fmt.Sprintf(messageIPA, run.Phonemes))
	}
	if run.Synthesis != nil {
		lines = append(lines, fmt.Sprintf(messageSpokenBy, run.Synthesis.Backend))
	}
	return strings.Join(lines, "\n")
}
