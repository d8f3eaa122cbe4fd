package studentgym

import "github.com/bnema/studentgym/internal/domain"

var (
	ErrConfiguration    = domain.ErrConfiguration
	ErrAuthentication   = domain.ErrAuthentication
	ErrInvalidAction    = domain.ErrInvalidAction
	ErrInvalidBatchSize = domain.ErrInvalidBatchSize
	ErrTransport        = domain.ErrTransport
	ErrProtocol         = domain.ErrProtocol
	ErrEpisodeEnded     = domain.ErrEpisodeEnded
	ErrSession          = domain.ErrSession
)

type (
	TransportError = domain.TransportError
	APIError       = domain.APIError
	ProtocolError  = domain.ProtocolError
)
