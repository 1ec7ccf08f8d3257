package civ5client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civ5pbem/civ5client/game"
	utils "github.com/civ5pbem/civ5client/internal"
	"github.com/stretchr/testify/assert"
)

const testGameID = "9ff9ab0d-bb55-4a0f-a84d-a5b2c53d42c6"

func testClient(srv *httptest.Server) *Client {
	return &Client{ServerAddress: srv.URL, AccessToken: "tok"}
}

func TestStartNewGame(t *testing.T) {
	t.Run("sends the new game request and returns the id", func(t *testing.T) {
		var gotPayload map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			utils.AssertEqual(t, r.URL.Path, "/games/new-game")
			json.NewDecoder(r.Body).Decode(&gotPayload)
			fmt.Fprintf(w, `{"id":%q}`, testGameID)
		}))
		defer srv.Close()

		id, err := StartNewGame(testClient(srv), "weekly", "a friendly game", "duel")
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, id, testGameID)

		utils.AssertEqual(t, gotPayload["gameName"], "weekly")
		utils.AssertEqual(t, gotPayload["gameDescription"], "a friendly game")
		utils.AssertEqual(t, gotPayload["mapSize"], "DUEL")
	})

	t.Run("rejects unknown map sizes before any request is made", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))
		defer srv.Close()

		_, err := StartNewGame(testClient(srv), "weekly", "d", "GIGANTIC")
		assert.ErrorIs(t, err, ErrUnknownMapSize)
	})
}

func TestListGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.AssertEqual(t, r.URL.Path, "/games/")
		fmt.Fprint(w, `[
			{"id":"a","name":"first","host":"alice"},
			{"id":"b","name":"second","host":"bob"}
		]`)
	}))
	defer srv.Close()

	games, err := ListGames(testClient(srv))
	utils.AssertNoError(t, err)
	utils.AssertEqual(t, len(games), 2)
	utils.AssertEqual(t, games[0].Name, "first")
	utils.AssertEqual(t, games[1].Host, "bob")
}

func TestGameInfo(t *testing.T) {
	t.Run("decodes the full game state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			utils.AssertEqual(t, r.URL.Path, "/games/"+testGameID)
			fmt.Fprintf(w, `{
				"id": %q,
				"name": "weekly",
				"host": "alice",
				"mapSize": "DUEL",
				"gameState": "IN_PROGRESS",
				"turnNumber": 5,
				"currentlyMovingPlayer": 2,
				"validationEnabled": true,
				"numberOfCityStates": 4,
				"players": [
					{"id":"p1","playerNumber":1,"humanUserAccount":"alice","civilization":"ROME","playerType":"HUMAN"},
					{"id":"p2","playerNumber":2,"humanUserAccount":"bob","civilization":"EGYPT","playerType":"HUMAN"}
				]
			}`, testGameID)
		}))
		defer srv.Close()

		g, err := GameInfo(testClient(srv), testGameID)
		utils.AssertNoError(t, err)

		utils.AssertEqual(t, g.Phase, game.InProgress)
		utils.AssertEqual(t, g.TurnNumber, 5)
		utils.AssertEqual(t, g.CurrentlyMovingPlayer, 2)
		utils.AssertTrue(t, g.ValidationEnabled)
		utils.AssertEqual(t, len(g.Players), 2)
		utils.AssertEqual(t, g.Players[1].Type, game.HumanPlayer)
	})

	t.Run("rejects a malformed game id locally", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))
		defer srv.Close()

		_, err := GameInfo(testClient(srv), "not-a-uuid")
		assert.ErrorIs(t, err, ErrInvalidGameID)
	})
}

func TestJoinGame(t *testing.T) {
	t.Run("posts to the join endpoint", func(t *testing.T) {
		var gotPath, gotMethod string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
		}))
		defer srv.Close()

		utils.AssertNoError(t, JoinGame(testClient(srv), testGameID))
		utils.AssertEqual(t, gotPath, "/games/"+testGameID+"/join")
		utils.AssertEqual(t, gotMethod, http.MethodPost)
	})

	t.Run("surfaces a server refusal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "game is full", http.StatusConflict)
		}))
		defer srv.Close()

		err := JoinGame(testClient(srv), testGameID)
		var serverErr *ServerError
		utils.AssertTrue(t, errors.As(err, &serverErr))
		utils.AssertEqual(t, serverErr.StatusCode, http.StatusConflict)
	})
}
