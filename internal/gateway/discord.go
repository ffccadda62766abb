package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Thread auto-archive window, in minutes (one week).
const threadAutoArchiveMinutes = 10080

// Discord implements Gateway over a discordgo session.
type Discord struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscord builds a Discord gateway from a bot token.
func NewDiscord(token string, logger *zap.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Discord{session: session, logger: logger}, nil
}

// NewDiscordFromSession wraps an existing session.
func NewDiscordFromSession(session *discordgo.Session, logger *zap.Logger) *Discord {
	return &Discord{session: session, logger: logger}
}

// Open connects the underlying websocket session.
func (d *Discord) Open() error {
	return d.session.Open()
}

// Close disconnects the session.
func (d *Discord) Close() error {
	return d.session.Close()
}

// Session exposes the underlying session for the command/event layer.
func (d *Discord) Session() *discordgo.Session {
	return d.session
}

func (d *Discord) Channel(ctx context.Context, channelID string) (*Channel, error) {
	ch, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &Channel{ID: ch.ID, Name: ch.Name}, nil
}

func (d *Discord) Message(ctx context.Context, channelID, messageID string) (*Message, error) {
	msg, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &Message{ID: msg.ID, ChannelID: msg.ChannelID}, nil
}

func (d *Discord) Send(ctx context.Context, channelID, content string) (*Message, error) {
	msg, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &Message{ID: msg.ID, ChannelID: msg.ChannelID}, nil
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err := mapError(err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (d *Discord) CreatePrivateThread(ctx context.Context, channelID, name string) (*Thread, error) {
	thread, err := d.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Invitable:           false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &Thread{ID: thread.ID, Name: thread.Name}, nil
}

func (d *Discord) DeleteThread(ctx context.Context, threadID string) error {
	_, err := d.session.ChannelDelete(threadID, discordgo.WithContext(ctx))
	if err := mapError(err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (d *Discord) ArchiveThread(ctx context.Context, threadID, reason string) error {
	return d.setArchived(ctx, threadID, reason, true)
}

func (d *Discord) UnarchiveThread(ctx context.Context, threadID, reason string) error {
	return d.setArchived(ctx, threadID, reason, false)
}

func (d *Discord) setArchived(ctx context.Context, threadID, reason string, archived bool) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	_, err := d.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
	}, opts...)
	return mapError(err)
}

func (d *Discord) AddThreadMember(ctx context.Context, threadID, userID string) error {
	return mapError(d.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %s", ErrNotFound, restErr.Message.Message)
		}
	}
	return err
}
