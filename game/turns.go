package game

import (
	"github.com/civ5pbem/civ5client/savefile"
)

// TurnIncompleteReason is returned whenever an uploaded save does not line
// up with the turn the server expects next.
const TurnIncompleteReason = "turn number mismatch; complete the turn"

// ValidationResult is the outcome of checking a candidate upload. A false
// OK is a normal negative answer, not an error; Reason says why. Results
// are produced fresh on every call since the server state can change
// between calls.
type ValidationResult struct {
	OK     bool
	Reason string
}

// Turn order proceeds by ascending player number among human slots only;
// AI, dead, closed and missing slots never hold the turn. Slot i in the
// save corresponds to player number i+1 on the server.

// IsUploadValid decides whether a decoded save represents exactly one
// completed turn on top of the server's current state.
//
// When the server's currently moving player is the last human in turn
// order, completing the move rolls the turn over: the save must carry the
// next turn number and hand the move back to the first human slot. In any
// other position the turn number must not change and the move must pass to
// the next human slot.
func IsUploadValid(s *savefile.Save, g Game) ValidationResult {
	currentSlot := g.CurrentlyMovingPlayer - 1

	if currentSlot == s.LastHumanSlot {
		if s.TurnNumber == g.TurnNumber+1 && s.CurrentPlayerIndex == s.FirstHumanSlot {
			return ValidationResult{OK: true}
		}
		return ValidationResult{Reason: TurnIncompleteReason}
	}

	next := NextHumanSlot(s.SlotStatuses, currentSlot)
	if next != -1 && s.TurnNumber == g.TurnNumber && s.CurrentPlayerIndex == next {
		return ValidationResult{OK: true}
	}
	return ValidationResult{Reason: TurnIncompleteReason}
}

// NextHumanSlot returns the lowest human slot strictly after the given
// slot, or -1 when there is none.
func NextHumanSlot(statuses [savefile.MaxPlayers]savefile.SlotStatus, after int) int {
	for i := after + 1; i < savefile.MaxPlayers; i++ {
		if statuses[i] == savefile.Human {
			return i
		}
	}
	return -1
}

// IsPlayerTurn reports whether it is the given account's move. Before the
// first move the server has no currently moving player, so the host may
// initiate.
func IsPlayerTurn(g Game, accountName string) bool {
	if accountName == "" {
		return false
	}
	if g.Phase == WaitingForFirstMove && g.Host == accountName {
		return true
	}
	current, ok := g.CurrentPlayer()
	return ok && current.AccountName == accountName
}

// HasOwnPassword reports whether the save has a password set for the given
// 1-based player number. Used as an advisory warning only, never a hard
// block.
func HasOwnPassword(s *savefile.Save, slotNumber int) bool {
	if slotNumber < 1 || slotNumber > savefile.MaxPlayers {
		return false
	}
	return s.PasswordSet[slotNumber-1]
}
