package model

// Capability is a named optional feature a synthesis provider may support.
type Capability string

const (
	CapabilityVoiceCloning   Capability = "voice_cloning"
	CapabilityEmotionMarkers Capability = "emotion_markers"
	CapabilityStreaming      Capability = "streaming"
	CapabilityOffline        Capability = "offline"
)

// ProviderDescriptor is static per-provider metadata plus the last cached
// availability probe result.
type ProviderDescriptor struct {
	Name           string       `json:"name"`
	DisplayName    string       `json:"display_name"`
	Capabilities   []Capability `json:"capabilities"`
	RequiresAPIKey bool         `json:"requires_api_key"`
	Available      bool         `json:"available"`
}

// Supports reports whether the descriptor declares the given capability.
func (d ProviderDescriptor) Supports(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Emotion markers accepted by providers that support inline emotion tags.
var EmotionMarkers = []string{
	"neutral",
	"happy",
	"sad",
	"angry",
	"fearful",
	"disgusted",
	"surprised",
	"excited",
	"whispering",
	"shouting",
}

// ValidEmotion reports whether e is one of the fixed emotion markers.
func ValidEmotion(e string) bool {
	for _, m := range EmotionMarkers {
		if m == e {
			return true
		}
	}
	return false
}
