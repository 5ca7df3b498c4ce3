package adaptor

import (
	"context"

	"github.com/ponyo877/chatroom/server/domain"
)

type Usecase interface {
	HandleSession(
		ctx context.Context,
		requests <-chan domain.Request,
		outbox chan<- domain.Event,
		sessionID, remote string,
	) error
}
