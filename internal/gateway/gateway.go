// Package gateway defines the messaging platform capabilities the ticket
// workflows consume. Calls are independent network operations with no
// rollback; workflows pair them with compensating actions via the saga
// executor.
package gateway

import (
	"context"
	"errors"
)

// ErrNotFound reports that the referenced channel, message, or thread does
// not exist remotely. Delete operations treat it as success and never
// return it.
var ErrNotFound = errors.New("gateway: not found")

// Channel is a remote channel reference.
type Channel struct {
	ID   string
	Name string
}

// Message is a remote message reference.
type Message struct {
	ID        string
	ChannelID string
}

// Thread is a remote thread reference. Threads accept messages and members
// and can be archived and unarchived.
type Thread struct {
	ID   string
	Name string
}

// Gateway is the capability surface of the remote messaging platform.
type Gateway interface {
	Channel(ctx context.Context, channelID string) (*Channel, error)
	Message(ctx context.Context, channelID, messageID string) (*Message, error)
	Send(ctx context.Context, channelID, content string) (*Message, error)
	// DeleteMessage tolerates an already-deleted message as success.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	CreatePrivateThread(ctx context.Context, channelID, name string) (*Thread, error)
	// DeleteThread tolerates an already-deleted thread as success.
	DeleteThread(ctx context.Context, threadID string) error
	ArchiveThread(ctx context.Context, threadID, reason string) error
	UnarchiveThread(ctx context.Context, threadID, reason string) error
	AddThreadMember(ctx context.Context, threadID, userID string) error
}
