package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a channel or message no longer exists on the platform
var ErrNotFound = errors.New("gateway: resource not found")

// Channel is the subset of platform channel data the tracker needs
type Channel struct {
	ID       string
	Name     string
	IsThread bool
}

// EmbedField is a name/value pair shown inside an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich message body
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// Message is what gets sent or edited: plain content, an embed, or both
type Message struct {
	Content string `json:"content,omitempty"`
	Embed   *Embed `json:"embed,omitempty"`
}

// MessageRef identifies a message that exists on the platform
type MessageRef struct {
	ID        string
	ChannelID string
	Pinned    bool
}

// Messenger is the messaging platform as seen by the tracker core.
// Every call is a fallible remote operation.
type Messenger interface {
	FetchChannel(ctx context.Context, channelID string) (*Channel, error)
	FetchMessage(ctx context.Context, channelID, messageID string) (*MessageRef, error)
	SendMessage(ctx context.Context, channelID string, msg Message) (messageID string, err error)
	EditMessage(ctx context.Context, channelID, messageID string, msg Message) error
	PinMessage(ctx context.Context, channelID, messageID string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
}
