// Package game holds the server's view of a play-by-email game and the
// rules deciding whose move it is and whether a candidate save file
// represents a completed turn.
package game

// Phase represents the lifecycle stage of a game as reported by the server.
type Phase string

const (
	WaitingForFirstMove Phase = "WAITING_FOR_FIRST_MOVE"
	InProgress          Phase = "IN_PROGRESS"
	Finished            Phase = "FINISHED"
)

// PlayerType distinguishes the kinds of participants a slot can hold.
type PlayerType string

const (
	HumanPlayer  PlayerType = "HUMAN"
	AIPlayer     PlayerType = "AI"
	ClosedPlayer PlayerType = "CLOSED"
)

// Player is one entry of a game's player list. Number is the 1-based
// in-game player number; it fixes the player's position in turn order.
type Player struct {
	ID           string     `json:"id"`
	Number       int        `json:"playerNumber"`
	AccountName  string     `json:"humanUserAccount"`
	Civilization string     `json:"civilization"`
	Type         PlayerType `json:"playerType"`
}

// Game is the authoritative game state fetched from the server. The client
// never mutates it.
type Game struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Host                  string   `json:"host"`
	MapSize               string   `json:"mapSize"`
	Phase                 Phase    `json:"gameState"`
	TurnNumber            int      `json:"turnNumber"`
	CurrentlyMovingPlayer int      `json:"currentlyMovingPlayer"`
	ValidationEnabled     bool     `json:"validationEnabled"`
	NumberOfCityStates    int      `json:"numberOfCityStates"`
	Players               []Player `json:"players"`
}

// PlayerByNumber finds the player holding a given 1-based player number.
func (g Game) PlayerByNumber(number int) (Player, bool) {
	for _, p := range g.Players {
		if p.Number == number {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerByAccount finds the player belonging to an account name.
func (g Game) PlayerByAccount(accountName string) (Player, bool) {
	if accountName == "" {
		return Player{}, false
	}
	for _, p := range g.Players {
		if p.AccountName == accountName {
			return p, true
		}
	}
	return Player{}, false
}

// CurrentPlayer returns the player the server currently expects to move.
func (g Game) CurrentPlayer() (Player, bool) {
	return g.PlayerByNumber(g.CurrentlyMovingPlayer)
}
