// Package auth builds an OAuth2 authorised http.Client for the Gmail and
// Calendar gateways, caching the user token on disk
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// Scopes are the grants a sync run needs: archive mail and manage events
var Scopes = []string{gmail.GmailModifyScope, calendar.CalendarEventsScope}

// Options configures the authoriser
type Options struct {
	SecretPath  string // client_secret.json from the cloud console
	TokenPath   string // cached user token
	Reauthorize bool   // drop the cached token first

	// Prompt receives the consent URL, Code is read from for the pasted code
	Prompt io.Writer
	Code   io.Reader
}

// exchange is swapped in tests
var exchange = func(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	return cfg.Exchange(ctx, code)
}

// Client returns an authorised client, running the consent flow when no token is cached
func Client(ctx context.Context, o Options) (*http.Client, error) {
	secret, err := os.ReadFile(o.SecretPath)
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read client secret"), "client_secret")
	}
	cfg, err := google.ConfigFromJSON(secret, Scopes...)
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse client secret"), "client_secret")
	}

	if o.Reauthorize {
		if err := Forget(o.TokenPath); err != nil {
			return nil, err
		}
	}

	tok, err := LoadToken(o.TokenPath)
	if err != nil {
		tok, err = consent(ctx, cfg, o)
		if err != nil {
			return nil, err
		}
		if err := SaveToken(o.TokenPath, tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		path: o.TokenPath,
		base: cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func consent(ctx context.Context, cfg *oauth2.Config, o Options) (*oauth2.Token, error) {
	prompt, in := o.Prompt, o.Code
	if prompt == nil {
		prompt = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}

	// out of band style: the user pastes the code shown after consent
	url := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(prompt, "Open this link in a browser and paste the authorization code:\n%v\n", url)

	line, err := bufio.NewReader(in).ReadString('\n')
	code := strings.TrimSpace(line)
	if code == "" {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read authorization code")
	}

	tok, err := exchange(ctx, cfg, code)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "exchange authorization code")
	}
	return tok, nil
}

// LoadToken reads a cached token
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeNotFound, "open token file")
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode token file")
	}
	return tok, nil
}

// SaveToken writes tok to path readable by the owner only
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "create token dir")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "open token file")
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode token file")
	}
	return f.Close()
}

// Forget removes the cached token, a missing file is fine
func Forget(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "remove token file")
	}
	return nil
}

// savingSource persists refreshed tokens so the next process starts warm
type savingSource struct {
	path string
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			logger.Named("auth").Warn().Err(err).Str("path", s.path).Msg("could not persist refreshed token")
		}
	}
	return tok, nil
}
