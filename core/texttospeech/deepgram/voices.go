package deepgram

import (
	"slices"
	"strings"
)

type Voice string

const defaultVoice Voice = "aura-2-thalia-en"

var availableVoices = []Voice{
	"aura-2-thalia-en",
	"aura-2-andromeda-en",
	"aura-2-helena-en",
	"aura-2-apollo-en",
	"aura-2-arcas-en",
	"aura-2-aries-en",
	"aura-2-asteria-en",
	"aura-2-athena-en",
	"aura-2-orion-en",
	"aura-2-luna-en",
	"aura-2-celeste-es",
	"aura-2-estrella-es",
	"aura-2-nestor-es",
}

func GetAvailableVoices() []Voice {
	return slices.Clone(availableVoices)
}

func IsAvailableVoice(voice Voice) bool {
	return slices.Contains(availableVoices, voice)
}

// Language returns the two letter language code the voice speaks.
func (v Voice) Language() string {
	name := string(v)
	if idx := strings.LastIndex(name, "-"); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// SelectVoice picks the first available voice for the given language tag,
// such as "en-US" or "es". It falls back to the default voice.
func SelectVoice(language string) Voice {
	prefix, _, _ := strings.Cut(strings.ToLower(language), "-")
	if prefix == "" {
		return defaultVoice
	}
	if defaultVoice.Language() == prefix {
		return defaultVoice
	}
	for _, voice := range availableVoices {
		if voice.Language() == prefix {
			return voice
		}
	}
	return defaultVoice
}
