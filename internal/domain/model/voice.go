package model

import "time"

// ReferenceVoice is a registered audio sample used to clone a voice during
// synthesis. IDs are unique per provider namespace; re-registering the same
// id overwrites the previous sample.
type ReferenceVoice struct {
	VoiceID    string    `json:"voice_id"`
	Provider   string    `json:"provider"`
	AudioPath  string    `json:"audio_path"`
	Transcript string    `json:"transcript,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
