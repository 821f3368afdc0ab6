package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const defaultAPIURL = "https://slack.com/api"

// Client is a minimal Slack RTM + Web API client.
type Client struct {
	token  string
	apiURL string
	httpc  *http.Client

	wsURL    string
	selfID   string
	selfName string
	channels []Channel
}

// New creates a Client for the given bot token.
func New(token string) *Client {
	return &Client{
		token:  token,
		apiURL: defaultAPIURL,
		httpc:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithAPIURL creates a Client against a non-default API base, used in
// tests.
func NewWithAPIURL(token, apiURL string) *Client {
	c := New(token)
	c.apiURL = apiURL
	return c
}

// Start performs the rtm.start handshake, learning the websocket URL, the
// bot's own identity, and the channel list.
func (c *Client) Start(ctx context.Context) error {
	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		URL   string `json:"url"`
		Self  struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"self"`
		Channels []Channel `json:"channels"`
	}
	if err := c.call(ctx, "rtm.start", url.Values{}, &body); err != nil {
		return err
	}
	if !body.OK {
		return fmt.Errorf("rtm.start: %s", body.Error)
	}

	c.wsURL = body.URL
	c.selfID = body.Self.ID
	c.selfName = body.Self.Name
	c.channels = body.Channels
	slog.Info("slack handshake complete", "self", c.selfName, "channels", len(c.channels))
	return nil
}

// SelfName returns the bot's own display name, known after Start.
func (c *Client) SelfName() string {
	return c.selfName
}

// Channels returns the channels known after Start.
func (c *Client) Channels() []Channel {
	return c.channels
}

// HomeChannel returns the first channel the bot is a member of, used for
// the first-run welcome message.
func (c *Client) HomeChannel() string {
	for _, ch := range c.channels {
		if ch.IsMember {
			return ch.ID
		}
	}
	if len(c.channels) > 0 {
		return c.channels[0].ID
	}
	return ""
}

// Run connects to the RTM websocket and delivers chat messages to handle
// until ctx is cancelled or the connection drops. Messages sent by the
// bot itself, non-channel traffic, and non-chat events are filtered out.
func (c *Client) Run(ctx context.Context, handle func(Message)) error {
	if c.wsURL == "" {
		return fmt.Errorf("run: Start must be called first")
	}

	ws, _, err := websocket.Dial(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial rtm websocket: %w", err)
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "shutting down"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()
	ws.SetReadLimit(1 << 20)

	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read rtm event: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("skipping undecodable rtm event", "error", err)
			continue
		}
		if !c.isChannelChat(msg) {
			continue
		}
		handle(msg)
	}
}

// isChannelChat reports whether the event is a channel chat message from
// someone other than the bot.
func (c *Client) isChannelChat(msg Message) bool {
	return msg.Type == "message" &&
		msg.Text != "" &&
		strings.HasPrefix(msg.Channel, "C") &&
		msg.User != c.selfID
}

// Send posts text to a channel through the Web API.
func (c *Client) Send(ctx context.Context, channelID, text string) error {
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("text", text)
	params.Set("as_user", "true")

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := c.call(ctx, "chat.postMessage", params, &body); err != nil {
		return err
	}
	if !body.OK {
		return fmt.Errorf("chat.postMessage: %s", body.Error)
	}
	return nil
}

// FetchFile downloads a private file attachment as text.
func (c *Client) FetchFile(ctx context.Context, fileURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close file response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read file body: %w", err)
	}
	return string(data), nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close response body", "method", method, "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack %s: status %d", method, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}
