package interaction

const (
	commandIPA                = "ipa"
	commandIPADescription     = "Convert an English sentence to British IPA and read it aloud."
	optionSentence            = "sentence"
	optionSentenceDescription = "The sentence to convert."
	optionVoice               = "voice"
	optionVoiceDescription    = "A recording of you saying the sentence. Takes priority over the typed sentence."
	optionSpeak               = "speak"
	optionSpeakDescription    = "Attach synthesized audio (default true)."

	messageEphemeralWrongGuild     = ":warning: **This command cannot be used in this server.**"
	messageEphemeralUnknownCommand = ":warning: **Unknown command.**"
	messageEphemeralRateLimited    = ":hourglass: **Too many conversions right now. Please try again in a minute.**"
	messageDownloadFailed          = ":warning: **The voice message could not be downloaded.**"
	messageAudioFilename           = "ipa.wav"
)
