package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TemplateUser is the opener substituted into description templates.
type TemplateUser struct {
	ID       string
	Username string
}

// ResolveTemplate replaces the {user}, {username}, {time}, {date},
// {datetime} and {year} placeholders. In message mode user and timestamp
// placeholders render as platform markup so clients localize them; otherwise
// they render as plain UTC text.
func ResolveTemplate(template string, user TemplateUser, now time.Time, asMessage bool) string {
	now = now.UTC()
	unix := now.Unix()

	userValue := user.Username
	timeValue := now.Format("15:04")
	dateValue := now.Format("2006-01-02")
	datetimeValue := dateValue + " " + timeValue
	if asMessage {
		userValue = UserMention(user.ID)
		timeValue = fmt.Sprintf("<t:%d:t>", unix)
		dateValue = fmt.Sprintf("<t:%d:d>", unix)
		datetimeValue = fmt.Sprintf("<t:%d:f>", unix)
	}

	replacer := strings.NewReplacer(
		"{user}", userValue,
		"{username}", user.Username,
		"{time}", timeValue,
		"{date}", dateValue,
		"{datetime}", datetimeValue,
		"{year}", strconv.Itoa(now.Year()),
	)
	return replacer.Replace(template)
}

// UserMention renders a user mention.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention renders a role mention.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}
