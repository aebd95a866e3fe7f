package auth

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perr "shiftsync/internal/platform/errors"
	kit "shiftsync/internal/platform/testkit"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const secretJSON = `{"installed":{
  "client_id":"cid.apps.googleusercontent.com",
  "client_secret":"shh",
  "auth_uri":"https://accounts.google.com/o/oauth2/auth",
  "token_uri":"https://oauth2.googleapis.com/token",
  "redirect_uris":["urn:ietf:wg:oauth:2.0:oob"]
}}`

func stubExchange(t *testing.T, calls *int) {
	kit.Serial(t)
	kit.Swap(t, &exchange, func(_ context.Context, _ *oauth2.Config, code string) (*oauth2.Token, error) {
		*calls++
		return &oauth2.Token{
			AccessToken:  "access-" + code,
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	})
}

func TestClient_ConsentThenCached(t *testing.T) {
	var calls int
	stubExchange(t, &calls)

	secret := kit.TempFile(t, "client_secret.json", secretJSON)
	tokPath := filepath.Join(t.TempDir(), "creds", "shiftsync.json")

	var prompt bytes.Buffer
	c, err := Client(context.Background(), Options{
		SecretPath: secret,
		TokenPath:  tokPath,
		Prompt:     &prompt,
		Code:       strings.NewReader("abc\n"),
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, 1, calls)
	kit.MustContain(t, prompt.String(), "access_type=offline")

	fi, err := os.Stat(tokPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	tok, err := LoadToken(tokPath)
	require.NoError(t, err)
	require.Equal(t, "access-abc", tok.AccessToken)

	// cached: no code on input, no exchange
	_, err = Client(context.Background(), Options{SecretPath: secret, TokenPath: tokPath, Code: strings.NewReader("")})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// reauthorize drops the cache and asks again
	_, err = Client(context.Background(), Options{
		SecretPath: secret, TokenPath: tokPath, Reauthorize: true,
		Prompt: &prompt, Code: strings.NewReader("xyz\n"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	tok, err = LoadToken(tokPath)
	require.NoError(t, err)
	require.Equal(t, "access-xyz", tok.AccessToken)
}

func TestClient_Errors(t *testing.T) {
	var calls int
	stubExchange(t, &calls)
	dir := t.TempDir()

	_, err := Client(context.Background(), Options{SecretPath: filepath.Join(dir, "missing.json")})
	require.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	bad := kit.TempFile(t, "bad.json", `{"nope":true}`)
	_, err = Client(context.Background(), Options{SecretPath: bad})
	require.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	secret := kit.TempFile(t, "client_secret.json", secretJSON)
	_, err = Client(context.Background(), Options{
		SecretPath: secret,
		TokenPath:  filepath.Join(dir, "tok.json"),
		Prompt:     &bytes.Buffer{},
		Code:       strings.NewReader("   \n"),
	})
	require.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	require.Zero(t, calls)
}

func TestForget_MissingIsFine(t *testing.T) {
	p := filepath.Join(t.TempDir(), "none.json")
	require.NoError(t, Forget(p))

	require.NoError(t, SaveToken(p, &oauth2.Token{AccessToken: "a"}))
	require.NoError(t, Forget(p))
	_, err := LoadToken(p)
	require.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

type seqSource struct {
	toks []string
	i    int
}

func (s *seqSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.toks[min(s.i, len(s.toks)-1)]}
	s.i++
	return tok, nil
}

func TestSavingSource_PersistsOnChange(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tok.json")
	src := &savingSource{path: p, base: &seqSource{toks: []string{"a", "b"}}, last: "a"}

	_, err := src.Token()
	require.NoError(t, err)
	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err), "unchanged token must not be written")

	tok, err := src.Token()
	require.NoError(t, err)
	require.Equal(t, "b", tok.AccessToken)

	saved, err := LoadToken(p)
	require.NoError(t, err)
	require.Equal(t, "b", saved.AccessToken)
}
