package saves

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/civ5pbem/civ5client"
	"github.com/civ5pbem/civ5client/game"
	"github.com/civ5pbem/civ5client/savefile"
)

// ErrTurnIncomplete is returned when a save offered for upload does not
// represent a completed turn for the game's current state.
var ErrTurnIncomplete = errors.New("saves: save does not complete the current turn")

// Download fetches the current save of a game and writes it into dir.
// The whole body is materialized before anything touches disk, so a failed
// download never leaves a truncated save behind. Returns the path of the
// written file.
func Download(c *civ5client.Client, gameID, dir string) (string, error) {
	res, err := c.Get("/games/" + gameID + "/save-file")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return "", &civ5client.ServerError{StatusCode: res.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, downloadFileName(res.Header.Get("Content-Disposition"), gameID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// downloadFileName takes the server-suggested name when one is present and
// falls back to the game id.
func downloadFileName(contentDisposition, gameID string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := filepath.Base(params["filename"]); name != "." && name != string(filepath.Separator) {
				return name
			}
		}
	}
	return gameID + SaveFileExtension
}

// Upload sends raw save bytes for a game without validating them. Callers
// that want turn validation go through UploadTurn.
func Upload(c *civ5client.Client, gameID string, data []byte) error {
	res, err := c.PostBytes("/games/"+gameID+"/save-file", data)
	if err != nil {
		return err
	}
	return civ5client.DecodeResponse(res, nil)
}

// UploadTurn reads a save file, checks it against the server's view of the
// game and uploads it. For games with validation enabled a save that does
// not complete exactly one turn is rejected locally with ErrTurnIncomplete
// unless force is set. Relaxed games skip the check entirely.
func UploadTurn(c *civ5client.Client, gameID, filePath string, force bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	decoded, err := savefile.Parse(data)
	if err != nil {
		return err
	}

	g, err := civ5client.GameInfo(c, gameID)
	if err != nil {
		return err
	}
	if g.ValidationEnabled && !force {
		if result := game.IsUploadValid(decoded, g); !result.OK {
			return fmt.Errorf("%w: %s", ErrTurnIncomplete, result.Reason)
		}
	}

	return Upload(c, gameID, data)
}
