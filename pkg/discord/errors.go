package discord

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownGuild means the guild does not exist or the bot is not in it.
	ErrUnknownGuild = errors.New("unknown guild")
	// ErrUnknownMember means the user is not a member of the guild.
	ErrUnknownMember = errors.New("unknown member")
	// ErrUnauthorized means the supplied token was rejected.
	ErrUnauthorized = errors.New("discord rejected the credentials")
	// ErrRequestFailed wraps any other non-2xx response.
	ErrRequestFailed = errors.New("discord request failed")
)

// Discord JSON error codes, https://discord.com/developers/docs/topics/opcodes-and-status-codes
const (
	codeUnknownGuild  = 10004
	codeUnknownMember = 10007
)

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`

	status int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("discord api error %d (http %d): %s", e.Code, e.status, e.Message)
}

func (e *apiError) Unwrap() error {
	switch e.Code {
	case codeUnknownGuild:
		return ErrUnknownGuild
	case codeUnknownMember:
		return ErrUnknownMember
	}
	if e.status == 401 || e.status == 403 {
		return ErrUnauthorized
	}
	return ErrRequestFailed
}
