package modules

import (
	"context"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
)

// Module is the interface that describes a module that extends the scan server
// capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module once the participant joined the session. It is
	// called before the join request is passed to HandleMsg.
	Init(*models.Session, *models.Participant)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning ErrModuleMsgSkip indicates that handling a message was skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, messages.ResponseSender, messages.Msg) error

	// Handles a client disconnection. Modules stop their timers and release
	// what they hold in the session here.
	HandleDisconnect()
}
