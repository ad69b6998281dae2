// Package permalink builds chain-valid permalinks for new posts and replies.
package permalink

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

const (
	// MaxLength is the longest permalink the chain accepts.
	MaxLength = 255

	slugMaxLength = 128
	tokenBytes    = 4
	isoMillis     = "2006-01-02T15:04:05.000Z07:00"
)

var (
	invalidChars   = regexp.MustCompile(`[^a-z0-9-]+`)
	nonAlnum       = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	replyTimestamp = regexp.MustCompile(`-\d{8}t\d{9}z`)
)

// ContentChecker reports whether content already exists at account/permlink.
type ContentChecker interface {
	ContentExists(ctx context.Context, account, permlink string) (bool, error)
}

// Generator creates permalinks. The zero value is not usable; use New.
type Generator struct {
	checker ContentChecker
	random  io.Reader
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures the Generator.
type Option func(*Generator)

// WithRandom sets the source of disambiguation tokens.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

// WithClock sets the clock used to stamp reply permalinks.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a Generator that checks post slugs against checker.
func New(checker ContentChecker, opts ...Option) *Generator {
	g := &Generator{
		checker: checker,
		random:  rand.Reader,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create returns a post permalink when title is not blank, otherwise a reply
// permalink under parentAuthor/parentPermlink.
func (g *Generator) Create(ctx context.Context, account, title, parentAuthor, parentPermlink string) (string, error) {
	if strings.TrimSpace(title) != "" {
		return g.ForPost(ctx, account, title)
	}
	return g.ForReply(parentAuthor, parentPermlink)
}

// ForPost slugifies title and makes it unique for account. A slug already
// used by account gets a random token prefix. A failed existence lookup
// returns an error matching domain.ErrPermalinkLookupFailed.
func (g *Generator) ForPost(ctx context.Context, account, title string) (string, error) {
	s := Slugify(title)
	if s == "" {
		token, err := g.token()
		if err != nil {
			return "", err
		}
		s = token
	}

	exists, err := g.checker.ContentExists(ctx, account, s)
	if err != nil {
		g.logger.Warn("permalink lookup failed",
			zap.String("account", account), zap.String("slug", s), zap.Error(err))
		return "", fmt.Errorf("%w: %s/%s: %w", domain.ErrPermalinkLookupFailed, account, s, err)
	}
	if exists {
		token, err := g.token()
		if err != nil {
			return "", err
		}
		s = token + "-" + s
	}

	return Normalize(s), nil
}

// ForReply builds re-{parentAuthor}-{parentPermlink}-{timestamp}. A reply
// timestamp already carried by parentPermlink is dropped so replies to
// replies do not grow without bound.
func (g *Generator) ForReply(parentAuthor, parentPermlink string) (string, error) {
	if parentAuthor == "" || parentPermlink == "" {
		return "", domain.ErrMissingParent
	}

	stamp := nonAlnum.ReplaceAllString(g.now().UTC().Format(isoMillis), "")
	parent := replyTimestamp.ReplaceAllString(parentPermlink, "")

	return Normalize("re-" + parentAuthor + "-" + parent + "-" + stamp), nil
}

// Slugify turns a title into a lowercase dash-separated ASCII slug of at
// most 128 characters. Titles with nothing transliterable give "".
func Slugify(title string) string {
	s := slug.Make(strings.NewReplacer("<", "", ">", "").Replace(title))
	s = invalidChars.ReplaceAllString(s, "")
	if len(s) > slugMaxLength {
		s = strings.TrimRight(s[:slugMaxLength], "-")
	}
	return s
}

// Normalize keeps the last MaxLength characters of s, lowercases them and
// drops everything outside [a-z0-9-].
func Normalize(s string) string {
	if r := []rune(s); len(r) > MaxLength {
		s = string(r[len(r)-MaxLength:])
	}
	return invalidChars.ReplaceAllString(strings.ToLower(s), "")
}

func (g *Generator) token() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", errors.Wrap(err, "read random token")
	}
	return base58.Encode(buf), nil
}
