// Package services – BotService
//
// BotService reports and rotates the bot credential used for public replies.
// The token itself never leaves this package unmasked.
package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-ig-automation/internal/credentials"
)

// Credentials is the writable credential contract.
type Credentials interface {
	credentials.Provider
	Set(token string) error
	Reload() error
	Status() credentials.Status
}

// BotService exposes credential status and rotation.
type BotService struct {
	Creds Credentials
}

// Status returns whether a token is configured and a masked preview.
func (s *BotService) Status() credentials.Status {
	return s.Creds.Status()
}

// UpdateToken replaces the token when one is given, otherwise re-reads the
// configured token file.
func (s *BotService) UpdateToken(ctx context.Context, token string) (credentials.Status, error) {
	var err error
	if token != "" {
		err = s.Creds.Set(token)
	} else {
		err = s.Creds.Reload()
	}
	if err != nil {
		return credentials.Status{}, err
	}
	st := s.Creds.Status()
	zerolog.Ctx(ctx).Info().Str("source", st.Source).Str("preview", st.Preview).Msg("bot token updated")
	return st, nil
}
