// Command civ5client plays Civilization 5 by email against a dedicated
// civ5-pbem-server: it registers accounts, starts and joins games, and
// moves save files between the local save directory and the server one
// turn at a time.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/joeshaw/envdecode"

	"github.com/civ5pbem/civ5client"
	"github.com/civ5pbem/civ5client/game"
	"github.com/civ5pbem/civ5client/savefile"
	"github.com/civ5pbem/civ5client/saves"
)

const version = "civ5client command line interface pre-alpha"

const usage = `civ5client.

Usage:
  civ5client init
  civ5client new-game <game-name> <game-description> <map-size>
  civ5client list-games
  civ5client (game-info | join-game | download-save | upload-save) <game-id>
  civ5client (-h | --help)
  civ5client --version

Commands:
  init           Checks configuration and completes it if incomplete.
                 It is run whenever any other command is used regardless.
  new-game       Sends a request to start a new game with a given name,
                 description and a chosen size.
  list-games     Requests a list of games from the server and prints it.
  game-info      Prints detailed information about a game with a given id.
  join-game      Asks the server to join a game with a given id.
  download-save  Downloads the current save of a game into the save
                 directory.
  upload-save    Validates the newest save in the save directory against
                 the server and uploads it as a completed turn.

Map sizes:
  duel      max 2 players and 4 city states
  tiny      max 4 players and 8 city states
  small     max 6 players and 12 city states
  standard  max 8 players and 16 city states
  large     max 10 players and 20 city states
  huge      max 12 players and 24 city states
`

// envConfig collects the environment overrides; everything else lives in
// the ini config file.
type envConfig struct {
	ConfigPath string `env:"CIV5CLIENT_CONFIG,default=config.ini"`
	SavePath   string `env:"CIV5CLIENT_SAVE_PATH"`
}

func main() {
	opts, err := docopt.ParseArgs(usage, nil, version)
	if err != nil {
		log.Fatal(err)
	}

	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		log.Fatal(err)
	}

	stdin := bufio.NewReader(os.Stdin)
	isInit := mustBool(opts, "init")

	client, err := civ5client.ClientFromConfig(env.ConfigPath)
	if err != nil {
		if !isInit {
			fmt.Println("Missing or invalid config; creating a new one")
		}
		client = interactiveSetup(stdin, env.ConfigPath)
	}

	creds, err := civ5client.RequestCredentials(client)
	if err != nil {
		log.Fatalf("Error: failed to retrieve credentials: %s", err)
	}
	if isInit {
		fmt.Printf("Logged in as %s with email %s\n", creds.Username, creds.Email)
	}

	saveDir := env.SavePath
	if saveDir == "" {
		saveDir = locateSaveDir(stdin, env.ConfigPath)
	}

	switch {
	case mustBool(opts, "new-game"):
		runNewGame(client, opts)
	case mustBool(opts, "list-games"):
		runListGames(client)
	case mustBool(opts, "game-info"):
		runGameInfo(client, mustString(opts, "<game-id>"), creds.Username)
	case mustBool(opts, "join-game"):
		runJoinGame(client, mustString(opts, "<game-id>"))
	case mustBool(opts, "download-save"):
		runDownloadSave(client, mustString(opts, "<game-id>"), saveDir)
	case mustBool(opts, "upload-save"):
		runUploadSave(client, stdin, mustString(opts, "<game-id>"), saveDir, creds.Username)
	}
}

// interactiveSetup walks the user through server address, registration and
// access token, then persists the result.
func interactiveSetup(stdin *bufio.Reader, configPath string) *civ5client.Client {
	address := civ5client.NormalizeAddress(prompt(stdin, "Write the server address"))

	if !yesNo(stdin, "Do you have an access token (i.e. an account) already?") {
		username := prompt(stdin, "Please choose your username")
		email := prompt(stdin, "Please write your email")
		fmt.Println("Registering account")
		if err := civ5client.RegisterAccount(address, username, email); err != nil {
			if errors.Is(err, civ5client.ErrAccountTaken) {
				log.Fatal("Error: email or username already taken")
			}
			log.Fatalf("Error: registration failed: %s", err)
		}
		fmt.Println("An email with the access token has been sent")
	}

	token := prompt(stdin, "Write the access token from the email")
	client := civ5client.NewClient(address, token)
	fmt.Println("Saving interface credentials to config")
	if err := client.SaveConfig(configPath); err != nil {
		log.Fatalf("Error: could not write config: %s", err)
	}
	return client
}

// locateSaveDir resolves the save directory from config, falling back to
// the per-OS default and persisting whatever it finds.
func locateSaveDir(stdin *bufio.Reader, configPath string) string {
	dir, err := saves.PathFromConfig(configPath)
	if err == nil {
		return dir
	}

	fmt.Println("No save directory path in config; attempting to find it")
	dir, err = saves.DefaultSavePath()
	if errors.Is(err, saves.ErrUnknownOperatingSystem) {
		dir = prompt(stdin, "Unknown operating system. Please write the absolute Civilization 5 save directory path")
	} else if err != nil {
		log.Fatalf("Error: could not determine the save directory: %s", err)
	}

	fmt.Println("Saving save directory path to config")
	if err := saves.WritePathConfig(configPath, dir); err != nil {
		log.Fatalf("Error: could not write config: %s", err)
	}
	return dir
}

func runNewGame(client *civ5client.Client, opts docopt.Opts) {
	fmt.Println("Attempting to send a new game request")
	id, err := civ5client.StartNewGame(client,
		mustString(opts, "<game-name>"),
		mustString(opts, "<game-description>"),
		mustString(opts, "<map-size>"))
	if errors.Is(err, civ5client.ErrUnknownMapSize) {
		log.Fatal("Error: wrong map size. Check -h for possible sizes")
	}
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	fmt.Println("Game started successfully with id", id)
}

func runListGames(client *civ5client.Client) {
	games, err := civ5client.ListGames(client)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	for _, g := range games {
		fmt.Printf("ID: %s\tName: %s\tHost: %s\n", g.ID, g.Name, g.Host)
	}
}

func runGameInfo(client *civ5client.Client, gameID, accountName string) {
	g, err := civ5client.GameInfo(client, gameID)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}

	fmt.Println("ID:", g.ID)
	fmt.Println("Name:", g.Name)
	fmt.Println("Host:", g.Host)
	fmt.Println("Description:", g.Description)
	fmt.Println("Map size:", g.MapSize)
	fmt.Println("Game state:", g.Phase)
	fmt.Println("Turn:", g.TurnNumber)
	fmt.Println("Players:")
	for _, p := range g.Players {
		fmt.Printf("\tID: %s\n\t\tUser: %s\n\t\tNumber: %d\n\t\tCivilization: %s\n\t\tPlayer Type: %s\n",
			p.ID, p.AccountName, p.Number, p.Civilization, p.Type)
	}
	fmt.Println("Number of city states:", g.NumberOfCityStates)
	if game.IsPlayerTurn(g, accountName) {
		fmt.Println("It is your move.")
	}
}

func runJoinGame(client *civ5client.Client, gameID string) {
	if err := civ5client.JoinGame(client, gameID); err != nil {
		log.Fatalf("Error: %s", err)
	}
	fmt.Println("Joined game", gameID)
}

func runDownloadSave(client *civ5client.Client, gameID, saveDir string) {
	path, err := saves.Download(client, gameID, saveDir)
	if err != nil {
		log.Fatalf("Error: download failed: %s", err)
	}
	fmt.Println("Save downloaded to", path)
}

func runUploadSave(client *civ5client.Client, stdin *bufio.Reader, gameID, saveDir, accountName string) {
	path, err := saves.LatestSave(saveDir)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	fmt.Println("Uploading", path)

	warnMissingPassword(client, gameID, path, accountName)

	err = saves.UploadTurn(client, gameID, path, false)
	if errors.Is(err, saves.ErrTurnIncomplete) {
		fmt.Println(err)
		if !yesNo(stdin, "Upload anyway?") {
			fmt.Println("Upload cancelled")
			return
		}
		err = saves.UploadTurn(client, gameID, path, true)
	}
	if err != nil {
		log.Fatalf("Error: upload failed: %s", err)
	}
	fmt.Println("Save uploaded successfully")
}

// warnMissingPassword prints an advisory when the player's own slot has no
// password in the save about to be uploaded. It never blocks the upload.
func warnMissingPassword(client *civ5client.Client, gameID, path, accountName string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	decoded, err := savefile.Parse(data)
	if err != nil {
		return
	}
	g, err := civ5client.GameInfo(client, gameID)
	if err != nil {
		return
	}
	if p, ok := g.PlayerByAccount(accountName); ok && !game.HasOwnPassword(decoded, p.Number) {
		fmt.Println("Warning: no password is set for your civilization in this save")
	}
}

func prompt(stdin *bufio.Reader, question string) string {
	fmt.Print(question + ": ")
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		log.Fatal("Error: could not read input")
	}
	return strings.TrimSpace(line)
}

func yesNo(stdin *bufio.Reader, question string) bool {
	answer := prompt(stdin, question+" [y/n]")
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

func mustBool(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}

func mustString(opts docopt.Opts, key string) string {
	v, _ := opts.String(key)
	return v
}
