package saves

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/civ5pbem/civ5client"
	"github.com/civ5pbem/civ5client/game"
	utils "github.com/civ5pbem/civ5client/internal"
	"github.com/civ5pbem/civ5client/savefile"
	"github.com/stretchr/testify/assert"
)

const testGameID = "9ff9ab0d-bb55-4a0f-a84d-a5b2c53d42c6"

// buildSave assembles save bytes with twelve marker-delimited blocks and
// the given turn, current player slot and slot statuses in the positions
// savefile.Parse reads them from.
func buildSave(turn, current uint32, statuses []savefile.SlotStatus) []byte {
	buf := &bytes.Buffer{}
	u32 := func(v uint32) {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		buf.Write(b)
	}
	str := func(s string) {
		u32(uint32(len(s)))
		buf.WriteString(s)
	}
	marker := func() { buf.Write([]byte{0x40, 0x00, 0x00, 0x00}) }
	pad := func(n int) { buf.Write(bytes.Repeat([]byte{0x11}, n)) }

	pad(8)
	str("game")
	str("1.0.3.279")
	u32(turn)

	for block := 0; block < 12; block++ {
		marker()
		switch block {
		case 2:
			for i := 0; i < savefile.MaxPlayers; i++ {
				status := savefile.Missing
				if i < len(statuses) {
					status = statuses[i]
				}
				u32(uint32(status))
			}
		case 7:
			u32(current)
			pad(12)
		case 11:
			for i := 0; i < savefile.MaxPlayers; i++ {
				str("")
			}
		default:
			pad(8)
		}
	}
	return buf.Bytes()
}

// pbemServer fakes the two game endpoints the save workflow touches.
type pbemServer struct {
	game     game.Game
	saveData []byte
	uploads  [][]byte
}

func (s *pbemServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/games/"+testGameID, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.game)
	})
	mux.HandleFunc("/games/"+testGameID+"/save-file", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Disposition", `attachment; filename="weekly.Civ5Save"`)
			w.Write(s.saveData)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			s.uploads = append(s.uploads, body)
		}
	})
	return mux
}

func twoHumanGame(currentlyMoving int, validation bool) game.Game {
	return game.Game{
		ID:                    testGameID,
		Name:                  "weekly",
		Host:                  "alice",
		Phase:                 game.InProgress,
		TurnNumber:            5,
		CurrentlyMovingPlayer: currentlyMoving,
		ValidationEnabled:     validation,
		Players: []game.Player{
			{Number: 1, AccountName: "alice", Type: game.HumanPlayer},
			{Number: 2, AccountName: "bob", Type: game.HumanPlayer},
		},
	}
}

func humans() []savefile.SlotStatus {
	return []savefile.SlotStatus{savefile.Human, savefile.Human}
}

func TestDownload(t *testing.T) {
	t.Run("writes the save under the server-suggested name", func(t *testing.T) {
		fake := &pbemServer{saveData: buildSave(5, 1, humans())}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		dir := t.TempDir()
		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}

		path, err := Download(client, testGameID, dir)
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, path, filepath.Join(dir, "weekly.Civ5Save"))

		written, err := os.ReadFile(path)
		utils.AssertNoError(t, err)
		assert.Equal(t, fake.saveData, written)
	})

	t.Run("server failure leaves no file behind", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such game", http.StatusNotFound)
		}))
		defer srv.Close()

		dir := t.TempDir()
		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}

		_, err := Download(client, testGameID, dir)
		utils.AssertErrored(t, err)

		entries, readErr := os.ReadDir(dir)
		utils.AssertNoError(t, readErr)
		utils.AssertEqual(t, len(entries), 0)
	})
}

func TestDownloadFileName(t *testing.T) {
	t.Run("uses the content disposition filename", func(t *testing.T) {
		got := downloadFileName(`attachment; filename="weekly.Civ5Save"`, testGameID)
		utils.AssertEqual(t, got, "weekly.Civ5Save")
	})

	t.Run("strips any path components", func(t *testing.T) {
		got := downloadFileName(`attachment; filename="../../escape.Civ5Save"`, testGameID)
		utils.AssertEqual(t, got, "escape.Civ5Save")
	})

	t.Run("falls back to the game id", func(t *testing.T) {
		utils.AssertEqual(t, downloadFileName("", testGameID), testGameID+SaveFileExtension)
		utils.AssertEqual(t, downloadFileName("garbage;;;", testGameID), testGameID+SaveFileExtension)
	})
}

func TestUploadTurn(t *testing.T) {
	writeSave := func(t *testing.T, data []byte) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "turn.Civ5Save")
		utils.AssertNoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	t.Run("a completed turn is uploaded", func(t *testing.T) {
		fake := &pbemServer{game: twoHumanGame(1, true)}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}
		data := buildSave(5, 1, humans())

		err := UploadTurn(client, testGameID, writeSave(t, data), false)
		utils.AssertNoError(t, err)

		utils.AssertEqual(t, len(fake.uploads), 1)
		assert.Equal(t, data, fake.uploads[0])
	})

	t.Run("an incomplete turn is rejected before anything is sent", func(t *testing.T) {
		fake := &pbemServer{game: twoHumanGame(1, true)}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}
		data := buildSave(5, 0, humans()) // move never passed to the next player

		err := UploadTurn(client, testGameID, writeSave(t, data), false)
		assert.ErrorIs(t, err, ErrTurnIncomplete)
		utils.AssertEqual(t, len(fake.uploads), 0)
	})

	t.Run("force bypasses a failed validation", func(t *testing.T) {
		fake := &pbemServer{game: twoHumanGame(1, true)}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}
		data := buildSave(5, 0, humans())

		err := UploadTurn(client, testGameID, writeSave(t, data), true)
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, len(fake.uploads), 1)
	})

	t.Run("relaxed games skip validation", func(t *testing.T) {
		fake := &pbemServer{game: twoHumanGame(1, false)}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}
		data := buildSave(9, 0, humans()) // a multi-turn hotseat save

		err := UploadTurn(client, testGameID, writeSave(t, data), false)
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, len(fake.uploads), 1)
	})

	t.Run("an unreadable save never reaches the server", func(t *testing.T) {
		fake := &pbemServer{game: twoHumanGame(1, true)}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		client := &civ5client.Client{ServerAddress: srv.URL, AccessToken: "tok"}

		err := UploadTurn(client, testGameID, writeSave(t, []byte("junk")), false)
		var formatErr *savefile.FormatError
		utils.AssertTrue(t, errors.As(err, &formatErr))
		utils.AssertEqual(t, len(fake.uploads), 0)
	})
}
