package bot

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Handler types sent by Cliq.
const (
	HandlerMessage = "message_handler"
	HandlerWelcome = "welcome_handler"
)

// Event is an inbound Cliq bot event. Only the fields the bot reads are
// decoded.
type Event struct {
	ResponseURL string       `json:"response_url"`
	Handler     EventHandler `json:"handler"`
	Name        string       `json:"name"`
	Params      EventParams  `json:"params"`
}

// EventHandler identifies what triggered the event.
type EventHandler struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// EventParams carries the command arguments and the calling user.
type EventParams struct {
	Arguments string    `json:"arguments"`
	User      EventUser `json:"user"`
}

// EventUser is the Cliq user who issued the command.
type EventUser struct {
	ID   UserID `json:"zoho_user_id"`
	Name string `json:"first_name"`
}

// UserID decodes a Zoho user id sent either as a string or as a number.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = UserID(n.String())
	return nil
}

// Command returns the command or menu action name.
func (e Event) Command() string {
	if e.Handler.Name != "" {
		return strings.TrimSpace(e.Handler.Name)
	}
	return strings.TrimSpace(e.Name)
}

// UserID returns the caller's Zoho user id.
func (e Event) UserID() string {
	return string(e.Params.User.ID)
}
