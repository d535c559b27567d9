package models

import (
	"time"

	"github.com/aukilabs/boxscan/messages"
)

// A session participant.
type Participant struct {
	ID        uint32
	Responder messages.ResponseSender
	JoinedAt  time.Time
}

// Broadcast returns the message data that announces the participant to the
// other participants.
func (p *Participant) Broadcast() messages.ParticipantBroadcast {
	return messages.ParticipantBroadcast{
		ParticipantID: p.ID,
	}
}
