package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix is the command prefix assigned to guilds that don't
// configure one.
const DefaultPrefix = "!"

// Guild is one guild's configuration record as known to the Byte API.
type Guild struct {
	// ID is the service-assigned identifier, immutable once created.
	ID uuid.UUID `json:"id"`

	// GuildID is the Discord snowflake, unique and set at creation.
	GuildID int64 `json:"guild_id"`

	GuildName string `json:"guild_name"`
	Prefix    string `json:"prefix"`

	// Optional Discord channel wiring.
	HelpChannelID     *int64 `json:"help_channel_id"`
	ShowcaseChannelID *int64 `json:"showcase_channel_id"`

	// GitHub integration settings.
	SyncLabel      *string `json:"sync_label"`
	IssueLinking   bool    `json:"issue_linking"`
	CommentLinking bool    `json:"comment_linking"`
	PEPLinking     bool    `json:"pep_linking"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateGuildRequest is the payload for CreateGuild. GuildID and GuildName
// are required; an empty Prefix defaults to "!". The remaining fields are
// optional configuration sent only when set.
type CreateGuildRequest struct {
	GuildID           int64   `json:"guild_id"`
	GuildName         string  `json:"guild_name"`
	Prefix            string  `json:"prefix"`
	HelpChannelID     *int64  `json:"help_channel_id,omitempty"`
	ShowcaseChannelID *int64  `json:"showcase_channel_id,omitempty"`
	SyncLabel         *string `json:"sync_label,omitempty"`
	IssueLinking      bool    `json:"issue_linking,omitempty"`
	CommentLinking    bool    `json:"comment_linking,omitempty"`
	PEPLinking        bool    `json:"pep_linking,omitempty"`
}

// UpdateGuildRequest is the partial-update payload for UpdateGuild. Every
// field is optional; only non-nil fields are serialized, so unset fields are
// left untouched by the API.
type UpdateGuildRequest struct {
	GuildName         *string `json:"guild_name,omitempty"`
	Prefix            *string `json:"prefix,omitempty"`
	HelpChannelID     *int64  `json:"help_channel_id,omitempty"`
	ShowcaseChannelID *int64  `json:"showcase_channel_id,omitempty"`
	SyncLabel         *string `json:"sync_label,omitempty"`
	IssueLinking      *bool   `json:"issue_linking,omitempty"`
	CommentLinking    *bool   `json:"comment_linking,omitempty"`
	PEPLinking        *bool   `json:"pep_linking,omitempty"`
}

// CreateGuild registers a new guild with the Byte API.
func (c *Client) CreateGuild(ctx context.Context, req CreateGuildRequest) (*Guild, error) {
	if req.Prefix == "" {
		req.Prefix = DefaultPrefix
	}

	body, err := c.do(ctx, call{
		op:        "create_guild",
		method:    http.MethodPost,
		path:      "/api/guilds",
		payload:   req,
		errPrefix: "Failed to create guild",
	})
	if err != nil {
		return nil, err
	}

	return decodeGuild(body)
}

// GetGuild fetches a guild by its Discord snowflake. A missing guild is not
// an error: the API's 404 is returned as a nil record after a single attempt.
func (c *Client) GetGuild(ctx context.Context, guildID int64) (*Guild, error) {
	body, err := c.do(ctx, call{
		op:         "get_guild",
		method:     http.MethodGet,
		path:       fmt.Sprintf("/api/guilds/%d", guildID),
		errPrefix:  "Failed to get guild",
		notFoundOK: true,
	})
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decodeGuild(body)
}

// UpdateGuild applies a partial update to a guild, addressed by its
// service-assigned ID (not the Discord snowflake).
func (c *Client) UpdateGuild(ctx context.Context, id uuid.UUID, req UpdateGuildRequest) (*Guild, error) {
	body, err := c.do(ctx, call{
		op:        "update_guild",
		method:    http.MethodPatch,
		path:      "/api/guilds/" + id.String(),
		payload:   req,
		errPrefix: "Failed to update guild",
	})
	if err != nil {
		return nil, err
	}

	return decodeGuild(body)
}

// DeleteGuild permanently removes a guild, addressed by its service-assigned
// ID (not the Discord snowflake).
func (c *Client) DeleteGuild(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, call{
		op:        "delete_guild",
		method:    http.MethodDelete,
		path:      "/api/guilds/" + id.String(),
		errPrefix: "Failed to delete guild",
	})
	return err
}

// GetOrCreateGuild fetches the guild for the given snowflake, creating it
// with the supplied name and prefix if it doesn't exist yet. Repeated
// sequential calls for the same snowflake never create duplicates.
//
// Two concurrent invocations for the same snowflake may both observe the
// guild as missing and both attempt the create; the API's uniqueness
// constraint on guild_id is the arbiter, and the losing caller receives the
// conflict as an *APIError.
func (c *Client) GetOrCreateGuild(ctx context.Context, guildID int64, guildName, prefix string) (*Guild, error) {
	guild, err := c.GetGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if guild != nil {
		return guild, nil
	}

	return c.CreateGuild(ctx, CreateGuildRequest{
		GuildID:   guildID,
		GuildName: guildName,
		Prefix:    prefix,
	})
}

func decodeGuild(data []byte) (*Guild, error) {
	var guild Guild
	if err := json.Unmarshal(data, &guild); err != nil {
		return nil, fmt.Errorf("decode guild: %w", err)
	}
	return &guild, nil
}
