package domain

import "time"

// FieldKind enumerates supported input kinds for custom fields.
type FieldKind string

const (
	FieldKindShort FieldKind = "short"
	FieldKindLong  FieldKind = "long"
)

// FieldKindNames maps kinds to display names.
var FieldKindNames = map[FieldKind]string{
	FieldKindShort: "Short",
	FieldKindLong:  "Long",
}

// Valid reports whether the kind is one of the supported values.
func (k FieldKind) Valid() bool {
	_, ok := FieldKindNames[k]
	return ok
}

// Field is a custom input definition scoped to one ticket channel.
type Field struct {
	ID        int64
	ChannelID int64

	// Slug is the derived identifier, unique within the channel.
	Slug string

	Kind        FieldKind
	Label       string
	Placeholder *string
	Required    bool

	MinLength *int
	MaxLength *int

	CreatedAt time.Time
	UpdatedAt time.Time
}
