package infra_spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/humanbelnik/musicroom/internal/config"
	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	oauth2spotify "golang.org/x/oauth2/spotify"
)

var ErrNotLinked = errors.New("host has not linked a spotify account")

var scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

type TokenStore interface {
	Save(ctx context.Context, sessionID string, token *oauth2.Token) error
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context, sessionID string) (*oauth2.Token, error)
}

func NewOAuthConfig(cfg config.Spotify) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       scopes,
		Endpoint:     oauth2spotify.Endpoint,
	}
}

// Client talks to the Web API player on behalf of a host session.
type Client struct {
	oauth   *oauth2.Config
	tokens  TokenStore
	apiBase string
	logger  zerolog.Logger
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(
	oauth *oauth2.Config,
	tokens TokenStore,
	apiBase string,
	opts ...Option,
) *Client {
	c := &Client{
		oauth:   oauth,
		tokens:  tokens,
		apiBase: strings.TrimRight(apiBase, "/"),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and stores it for the session.
func (c *Client) Exchange(ctx context.Context, sessionID string, code string) error {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return errors.Join(model.ErrProviderUnavailable, err)
	}
	if err := c.tokens.Save(ctx, sessionID, token); err != nil {
		return errors.Join(model.ErrInternal, err)
	}
	return nil
}

func (c *Client) IsAuthenticated(ctx context.Context, sessionID string) (bool, error) {
	_, err := c.token(ctx, sessionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotLinked), errors.Is(err, model.ErrProviderUnavailable):
		return false, nil
	default:
		return false, err
	}
}

type currentlyPlayingDTO struct {
	IsPlaying  bool     `json:"is_playing"`
	ProgressMs int      `json:"progress_ms"`
	Item       *itemDTO `json:"item"`
}

type itemDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

func (dto currentlyPlayingDTO) toModel() *model.Track {
	if dto.Item == nil || dto.Item.ID == "" {
		return nil
	}
	track := &model.Track{
		ID:         dto.Item.ID,
		Title:      dto.Item.Name,
		DurationMs: dto.Item.DurationMs,
		PositionMs: dto.ProgressMs,
		IsPlaying:  dto.IsPlaying,
	}
	for _, a := range dto.Item.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	if len(dto.Item.Album.Images) > 0 {
		track.CoverURL = dto.Item.Album.Images[0].URL
	}
	return track
}

func (c *Client) CurrentlyPlaying(ctx context.Context, hostID string) (*model.Track, error) {
	resp, err := c.do(ctx, hostID, http.MethodGet, "/currently-playing")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var dto currentlyPlayingDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode currently playing: %w", err)
	}
	return dto.toModel(), nil
}

func (c *Client) Pause(ctx context.Context, hostID string) error {
	return c.command(ctx, hostID, http.MethodPut, "/pause")
}

func (c *Client) Play(ctx context.Context, hostID string) error {
	return c.command(ctx, hostID, http.MethodPut, "/play")
}

func (c *Client) Skip(ctx context.Context, hostID string) error {
	return c.command(ctx, hostID, http.MethodPost, "/next")
}

func (c *Client) command(ctx context.Context, hostID string, method string, path string) error {
	resp, err := c.do(ctx, hostID, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, sessionID string, method string, path string) (*http.Response, error) {
	token, err := c.token(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, nil)
	if err != nil {
		return nil, err
	}

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)).Do(req)
}

// token returns a usable access token, refreshing through oauth2 when it
// expired and storing the refreshed token back.
func (c *Client) token(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	stored, err := c.tokens.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.Join(model.ErrInternal, err)
	}
	if stored == nil {
		return nil, ErrNotLinked
	}

	fresh, err := c.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, errors.Join(model.ErrProviderUnavailable, err)
	}
	if fresh.AccessToken != stored.AccessToken {
		if err := c.tokens.Save(ctx, sessionID, fresh); err != nil {
			c.logger.Warn().Err(err).Str("session", sessionID).Msg("refreshed token not stored")
		}
	}
	return fresh, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("spotify responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
