package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World routing/state.
	ErrWorldBusy   = "E_WORLD_BUSY"
	ErrWorldPaused = "E_WORLD_PAUSED"

	// Control layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownOp     = "E_UNKNOWN_OP"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrWorldPaused:     {},
	ErrBadRequest:      {},
	ErrUnknownOp:       {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
