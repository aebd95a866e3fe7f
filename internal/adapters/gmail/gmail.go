// Package gmail implements the schedule message store on the Gmail v1 API
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime"
	"strings"

	"shiftsync/internal/core/normalize"
	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"
	"shiftsync/internal/services/shiftsync/domain"

	"golang.org/x/text/encoding/htmlindex"
	gm "google.golang.org/api/gmail/v1"
)

const (
	// DefaultUser is the authorised mailbox
	DefaultUser = "me"
	// DefaultLabel scopes the search and is removed on archive
	DefaultLabel = "INBOX"
)

// Gateway implements domain.MessageStore
type Gateway struct {
	svc   *gm.Service
	user  string
	label string
	log   logger.Logger
}

// Option tweaks a Gateway
type Option func(*Gateway)

// WithUser overrides the mailbox id
func WithUser(id string) Option {
	return func(g *Gateway) {
		if id != "" {
			g.user = id
		}
	}
}

// WithLabel overrides the label removed by MarkProcessed
func WithLabel(label string) Option {
	return func(g *Gateway) {
		if label != "" {
			g.label = label
		}
	}
}

// New wraps an authorised Gmail service
func New(svc *gm.Service, opts ...Option) *Gateway {
	if svc == nil {
		panic("gmail.Gateway requires a service")
	}
	g := &Gateway{svc: svc, user: DefaultUser, label: DefaultLabel, log: *logger.Named("gmail")}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Query renders the Gmail search string for f
func Query(f domain.MessageFilter) string {
	var parts []string
	if s := strings.TrimSpace(f.Sender); s != "" {
		parts = append(parts, "from:"+s)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Find lists every matching message, following page tokens
func (g *Gateway) Find(ctx context.Context, f domain.MessageFilter) ([]domain.MessageRef, error) {
	label := f.Label
	if label == "" {
		label = g.label
	}
	q := Query(f)

	var refs []domain.MessageRef
	call := g.svc.Users.Messages.List(g.user).Q(q).LabelIds(label)
	err := call.Pages(ctx, func(page *gm.ListMessagesResponse) error {
		for _, m := range page.Messages {
			refs = append(refs, domain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
		}
		return nil
	})
	if err != nil {
		return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "list messages q=%q", q), "gmail.find")
	}
	logger.From(g.log, ctx).Debug().Str("q", q).Str("label", label).Int("found", len(refs)).Msg("messages listed")
	return refs, nil
}

// FetchBody returns the readable body of id as normalized UTF-8 text
func (g *Gateway) FetchBody(ctx context.Context, id string) ([]byte, error) {
	msg, err := g.svc.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "get message %s", id), "gmail.fetch")
	}
	// a part whose data sits behind an attachment id reads as empty and must not be archived as such
	part := pickPart(msg.Payload)
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return nil, perr.WithOp(perr.Newf(perr.ErrorCodeUnavailable, "message %s has no readable body", id), "gmail.fetch")
	}
	raw, err := decodeData(part.Body.Data)
	if err != nil {
		return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "decode body of %s", id), "gmail.fetch")
	}
	text := string(toUTF8(raw, charsetOf(part)))
	if strings.EqualFold(part.MimeType, "text/html") {
		return []byte(normalize.HTML(text)), nil
	}
	return []byte(normalize.Text(text)), nil
}

// MarkProcessed removes the label so the next search skips the message
func (g *Gateway) MarkProcessed(ctx context.Context, id string) error {
	req := &gm.ModifyMessageRequest{RemoveLabelIds: []string{g.label}}
	if _, err := g.svc.Users.Messages.Modify(g.user, id, req).Context(ctx).Do(); err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "archive message %s", id), "gmail.archive")
	}
	return nil
}

// pickPart prefers a single part body, then text/plain, then text/html
func pickPart(p *gm.MessagePart) *gm.MessagePart {
	if p == nil {
		return nil
	}
	if len(p.Parts) == 0 {
		return p
	}
	if hit := firstOf(p, "text/plain"); hit != nil {
		return hit
	}
	return firstOf(p, "text/html")
}

// firstOf walks nested multiparts depth first
func firstOf(p *gm.MessagePart, mimeType string) *gm.MessagePart {
	if len(p.Parts) == 0 {
		if strings.EqualFold(p.MimeType, mimeType) && p.Body != nil && p.Body.Data != "" {
			return p
		}
		return nil
	}
	for _, c := range p.Parts {
		if hit := firstOf(c, mimeType); hit != nil {
			return hit
		}
	}
	return nil
}

// decodeData accepts url-safe or standard base64 with or without padding
func decodeData(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return base64.RawURLEncoding.DecodeString(s)
}

func charsetOf(p *gm.MessagePart) string {
	for _, h := range p.Headers {
		if !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		if _, params, err := mime.ParseMediaType(h.Value); err == nil {
			return params["charset"]
		}
	}
	return ""
}

// toUTF8 transcodes b from charset, unknown charsets pass through
func toUTF8(b []byte, charset string) []byte {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return b
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return b
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return b
	}
	return bytes.ToValidUTF8(out, []byte("\uFFFD"))
}
