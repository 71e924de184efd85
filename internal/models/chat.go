package models

const (
	SpeakerUser = "user"
	SpeakerBot  = "bot"
)

// ChatTurn is one line of a conversation transcript.
type ChatTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}
