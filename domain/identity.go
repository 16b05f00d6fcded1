package domain

import "time"

// Identity is a signed-in or listed user. ID is the email the chat keys on.
type Identity struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username,omitempty"`
	PhotoURL   *string   `json:"photo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	PushTokens []string  `json:"push_tokens,omitempty"`
}

// Credentials are what a device keeps to restore a session.
type Credentials struct {
	Email string `yaml:"email" json:"email"`
	Token string `yaml:"token" json:"token"`
}

// Attachment is a locally selected file waiting to be sent.
type Attachment struct {
	ID   string
	Name string
	Data []byte
}
