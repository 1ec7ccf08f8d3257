package civ5client

import (
	"errors"
	"strings"

	uuid "github.com/satori/go.uuid"

	"github.com/civ5pbem/civ5client/game"
)

var (
	ErrUnknownMapSize = errors.New("civ5client: unknown map size")
	ErrInvalidGameID  = errors.New("civ5client: game id is not a valid uuid")
)

// MapSizes lists the sizes the server accepts for a new game, smallest
// first.
var MapSizes = []string{"DUEL", "TINY", "SMALL", "STANDARD", "LARGE", "HUGE"}

func validMapSize(size string) bool {
	for _, s := range MapSizes {
		if s == size {
			return true
		}
	}
	return false
}

func validateGameID(gameID string) error {
	if _, err := uuid.FromString(gameID); err != nil {
		return ErrInvalidGameID
	}
	return nil
}

// StartNewGame asks the server to create a game and returns its id.
func StartNewGame(c *Client, name, description, mapSize string) (string, error) {
	mapSize = strings.ToUpper(mapSize)
	if !validMapSize(mapSize) {
		return "", ErrUnknownMapSize
	}
	res, err := c.PostJSON("/games/new-game", map[string]string{
		"gameName":        name,
		"gameDescription": description,
		"mapSize":         mapSize,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := DecodeResponse(res, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ListGames retrieves every game the account can see: games to join and
// games in progress.
func ListGames(c *Client) ([]game.Game, error) {
	res, err := c.Get("/games/")
	if err != nil {
		return nil, err
	}
	var games []game.Game
	if err := DecodeResponse(res, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GameInfo fetches the authoritative state of one game.
func GameInfo(c *Client, gameID string) (game.Game, error) {
	if err := validateGameID(gameID); err != nil {
		return game.Game{}, err
	}
	res, err := c.Get("/games/" + gameID)
	if err != nil {
		return game.Game{}, err
	}
	var g game.Game
	if err := DecodeResponse(res, &g); err != nil {
		return game.Game{}, err
	}
	return g, nil
}

// JoinGame asks the server to add the account to a game's player list.
func JoinGame(c *Client, gameID string) error {
	if err := validateGameID(gameID); err != nil {
		return err
	}
	res, err := c.PostJSON("/games/"+gameID+"/join", nil)
	if err != nil {
		return err
	}
	return DecodeResponse(res, nil)
}
