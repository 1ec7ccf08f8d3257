// Package civ5client talks to a civ5-pbem-server over HTTP so that remote
// players can pass a Civilization 5 hotseat game around by exchanging its
// save file, one move at a time.
package civ5client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gopkg.in/ini.v1"
)

var ErrInvalidConfiguration = errors.New("civ5client: configuration is missing or incomplete")

const (
	interfaceSection = "Interface Settings"
	serverAddressKey = "server_address"
	accessTokenKey   = "access_token"
)

// ServerError reports a non-2xx response from the server.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("civ5client: server returned %d: %s", e.StatusCode, e.Body)
}

// Client holds a server url together with the access token identifying an
// account on it. Every client-server interaction aside from registration
// goes through a Client.
type Client struct {
	ServerAddress string
	AccessToken   string

	// HTTPClient is used for requests when set; http.DefaultClient
	// otherwise.
	HTTPClient *http.Client
}

// NewClient constructs a Client for a server address and access token.
func NewClient(serverAddress, accessToken string) *Client {
	return &Client{
		ServerAddress: NormalizeAddress(serverAddress),
		AccessToken:   accessToken,
	}
}

// NormalizeAddress turns a possibly incomplete address string into a
// usable http url. Applying it twice yields the same result.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.Index(address, "://"); i >= 0 {
		address = address[i+3:]
	}
	return "http://" + strings.TrimSuffix(address, "/")
}

// ClientFromConfig reads the server address and access token from an ini
// config file. A missing file, section or key yields
// ErrInvalidConfiguration.
func ClientFromConfig(path string) (*Client, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, ErrInvalidConfiguration
	}
	section, err := cfg.GetSection(interfaceSection)
	if err != nil || !section.HasKey(serverAddressKey) || !section.HasKey(accessTokenKey) {
		return nil, ErrInvalidConfiguration
	}
	return &Client{
		ServerAddress: section.Key(serverAddressKey).String(),
		AccessToken:   section.Key(accessTokenKey).String(),
	}, nil
}

// SaveConfig writes the client's address and token to a config file,
// preserving whatever else the file holds.
func (c *Client) SaveConfig(path string) error {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}
	section := cfg.Section(interfaceSection)
	section.Key(serverAddressKey).SetValue(c.ServerAddress)
	section.Key(accessTokenKey).SetValue(c.AccessToken)
	return cfg.SaveTo(path)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.ServerAddress, "/") + path
}

// Get issues a GET request with the client's access token.
func (c *Client) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Access-Token", c.AccessToken)
	return c.httpClient().Do(req)
}

// PostJSON issues a POST request with a JSON-encoded body. A nil body
// posts no payload.
func (c *Client) PostJSON(path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.url(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Access-Token", c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient().Do(req)
}

// PostBytes issues a POST request with a raw binary body, used for save
// file uploads.
func (c *Client) PostBytes(path string, data []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.url(path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Access-Token", c.AccessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	return c.httpClient().Do(req)
}

// DecodeResponse consumes a response body. Non-2xx statuses become a
// *ServerError; otherwise the body is JSON-decoded into out when out is
// non-nil.
func DecodeResponse(res *http.Response, out interface{}) error {
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return &ServerError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
