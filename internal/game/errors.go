package game

import "errors"

// Validation failures. None of them mutate the session; the caller reports them to the
// originating player only.
var (
	ErrSessionClosed      = errors.New("room is closed")
	ErrNameRequired       = errors.New("a name is required")
	ErrAlreadyJoined      = errors.New("already joined this room")
	ErrNameTaken          = errors.New("name already taken")
	ErrRoomFull           = errors.New("room is full")
	ErrRoundInProgress    = errors.New("a round is in progress")
	ErrNotLeader          = errors.New("only the room leader can do that")
	ErrNotEnoughPlayers   = errors.New("at least two players are needed")
	ErrAlreadyStarted     = errors.New("the game has already started")
	ErrNotEnded           = errors.New("the round has not ended")
	ErrNotPlaying         = errors.New("no round is being played")
	ErrPlayerNotFound     = errors.New("player not in this room")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrAlreadyDrawn       = errors.New("you already drew a card")
	ErrNothingDrawn       = errors.New("draw a card first")
	ErrDrawSource         = errors.New("cannot draw from that pile")
	ErrPowerPending       = errors.New("a power must be resolved first")
	ErrNoPower            = errors.New("no power is pending")
	ErrWrongPower         = errors.New("that power is not the one pending")
	ErrNotInitiator       = errors.New("the pending power is not yours")
	ErrInvalidSlot        = errors.New("no card in that slot")
	ErrInvalidTarget      = errors.New("invalid power target")
	ErrReDiscard          = errors.New("a card taken from the discard pile cannot be discarded straight back")
	ErrUnknownChoice      = errors.New("unknown choice")
	ErrDutchAlreadyCalled = errors.New("too late, the last round is already under way")
	ErrTooLate            = errors.New("too late, the next player has already played")
	ErrRoundEnding        = errors.New("the round is ending, only snaps are allowed")
	ErrInvalidRules       = errors.New("invalid house rules")
)
