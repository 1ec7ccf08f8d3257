// Package savefile decodes the fragments of the .Civ5Save binary format
// that play-by-email bookkeeping needs: the turn counter, whose move the
// file thinks it is, which player slots are in use and which have a
// password set. The format is proprietary and undocumented; every offset
// here was established empirically and must be reproduced exactly.
package savefile

import (
	"fmt"

	"github.com/civ5pbem/civ5client/bitstream"
)

// MaxPlayers is the fixed number of player slots in a save file,
// regardless of how many the map actually supports.
const MaxPlayers = 22

// blockMarker separates the fixed data blocks inside a save. Occurrences
// are located by position and counted, not named.
var blockMarker = []byte{0x40, 0x00, 0x00, 0x00}

// minBlocks is the highest block index the decoder dereferences, plus one.
const minBlocks = 12

// SlotStatus describes one of the 22 player slots.
type SlotStatus int

const (
	// AI marks a slot played by the computer.
	AI SlotStatus = 1
	// DeadOrClosed marks a slot whose player was eliminated or that was
	// closed before the game started.
	DeadOrClosed SlotStatus = 2
	// Human marks a slot held by a human player.
	Human SlotStatus = 3
	// Missing marks a slot the map is too small to offer.
	Missing SlotStatus = 4
)

var slotStatusNames = map[SlotStatus]string{
	AI:           "AI",
	DeadOrClosed: "DeadOrClosed",
	Human:        "Human",
	Missing:      "Missing",
}

func (s SlotStatus) String() string {
	if name, ok := slotStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SlotStatus(%d)", int(s))
}

// FormatError reports a save file the decoder could not make sense of.
// It wraps the underlying bitstream error when there is one.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("save format: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("save format: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Save holds everything this client extracts from one save file. A Save is
// built once by Parse and never mutated afterwards.
type Save struct {
	TurnNumber int

	// CurrentPlayerIndex is the slot index stored in the file. It lines
	// up with the server's player numbers minus one.
	CurrentPlayerIndex int

	SlotStatuses [MaxPlayers]SlotStatus
	PasswordSet  [MaxPlayers]bool

	// Derived from SlotStatuses at parse time. The slot fields are -1
	// when the save has no human slots at all.
	FirstHumanSlot int
	LastHumanSlot  int
	HumanCount     int
	DeadCount      int
}

// Parse decodes a complete save file held in memory. It never modifies
// data and fails with a *FormatError on anything it cannot read.
func Parse(data []byte) (*Save, error) {
	s := bitstream.New(data)
	save := &Save{}

	// Turn number sits after two header strings at a fixed offset.
	if err := s.Seek(64); err != nil {
		return nil, formatErr("missing header", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.ReadString(); err != nil {
			return nil, formatErr("unreadable header string", err)
		}
	}
	turn, err := s.ReadUint32LE()
	if err != nil {
		return nil, formatErr("unreadable turn number", err)
	}
	save.TurnNumber = int(turn)

	blocks := s.FindAll(blockMarker)
	if len(blocks) < minBlocks {
		return nil, formatErr(fmt.Sprintf("insufficient data blocks: found %d, need %d", len(blocks), minBlocks), nil)
	}

	// Slot statuses: 22 ints one word past the third marker.
	if err := s.Seek(blocks[2] + 32); err != nil {
		return nil, formatErr("slot status block out of range", err)
	}
	for i := 0; i < MaxPlayers; i++ {
		raw, err := s.ReadUint32LE()
		if err != nil {
			return nil, formatErr("unreadable slot status", err)
		}
		status := SlotStatus(raw)
		if _, ok := slotStatusNames[status]; !ok {
			return nil, formatErr(fmt.Sprintf("slot %d has unknown status value %d", i, raw), nil)
		}
		save.SlotStatuses[i] = status
	}

	// Current player: the fourth int before the ninth marker.
	if err := s.Seek(blocks[8] - 32*4); err != nil {
		return nil, formatErr("current player field out of range", err)
	}
	current, err := s.ReadUint32LE()
	if err != nil {
		return nil, formatErr("unreadable current player", err)
	}
	save.CurrentPlayerIndex = int(current)

	// Passwords: 22 strings one word past the twelfth marker. A slot has
	// a password iff its string is non-empty.
	if err := s.Seek(blocks[11] + 32); err != nil {
		return nil, formatErr("password block out of range", err)
	}
	for i := 0; i < MaxPlayers; i++ {
		password, err := s.ReadString()
		if err != nil {
			return nil, formatErr("unreadable password field", err)
		}
		save.PasswordSet[i] = password != ""
	}

	save.FirstHumanSlot = -1
	save.LastHumanSlot = -1
	for i, status := range save.SlotStatuses {
		switch status {
		case Human:
			if save.FirstHumanSlot == -1 {
				save.FirstHumanSlot = i
			}
			save.LastHumanSlot = i
			save.HumanCount++
		case DeadOrClosed:
			save.DeadCount++
		}
	}

	return save, nil
}

func formatErr(reason string, err error) *FormatError {
	return &FormatError{Reason: reason, Err: err}
}
