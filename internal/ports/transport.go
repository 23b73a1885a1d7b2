package ports

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Transport is the fan-out boundary the pipeline drives. The pipeline is the
// only component allowed to call Deliver: any scan a client performs before
// submitting is advisory, never enforcement.
type Transport interface {
	// Deliver fans an accepted message (state Sent or Warning, scan annotation
	// attached) out to the participants of its room
	Deliver(msg *domain.Message) error

	// Reject informs only the author that their message was refused
	Reject(msg *domain.Message, reason string) error
}
