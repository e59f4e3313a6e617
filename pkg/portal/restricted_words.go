package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// DefaultRestrictedWordsTTL is how long a fetched word list stays fresh.
const DefaultRestrictedWordsTTL = 10 * time.Minute

// ErrWordsUnavailable reports that no word list has ever been fetched successfully.
var ErrWordsUnavailable = errors.New("portal: restricted words unavailable")

// WordsSource fetches the current restricted word list.
type WordsSource interface {
	FetchRestrictedWords(ctx context.Context) ([]string, error)
}

// WordsSourceFunc adapts a function to WordsSource.
type WordsSourceFunc func(ctx context.Context) ([]string, error)

// FetchRestrictedWords implements WordsSource.
func (f WordsSourceFunc) FetchRestrictedWords(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// RestrictedWordsOptions configures RestrictedWords.
type RestrictedWordsOptions struct {
	Source WordsSource
	TTL    time.Duration
	Clock  func() time.Time
	Logger *zap.Logger
}

// RestrictedWords caches the restricted word list for preset names. A failed refresh keeps
// serving the previous list.
type RestrictedWords struct {
	source WordsSource
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger

	mu            sync.Mutex
	value         map[string]struct{}
	lastFetchTime time.Time
}

// NewRestrictedWords builds the cache. Nothing is fetched until first use.
func NewRestrictedWords(opts RestrictedWordsOptions) *RestrictedWords {
	if opts.TTL <= 0 {
		opts.TTL = DefaultRestrictedWordsTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RestrictedWords{
		source: opts.Source,
		ttl:    opts.TTL,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
}

// EnsureFresh refetches the list when it is missing or older than the TTL.
func (r *RestrictedWords) EnsureFresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value != nil && r.clock().Sub(r.lastFetchTime) < r.ttl {
		return nil
	}
	if r.source == nil {
		r.value = map[string]struct{}{}
		r.lastFetchTime = r.clock()
		return nil
	}
	words, err := r.source.FetchRestrictedWords(ctx)
	if err != nil {
		if r.value != nil {
			r.logger.Warn("portal: restricted words refresh failed, serving stale list", zap.Error(err))
			return nil
		}
		return fmt.Errorf("%w: %v", ErrWordsUnavailable, err)
	}
	value := make(map[string]struct{}, len(words))
	for _, word := range words {
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
			value[word] = struct{}{}
		}
	}
	r.value = value
	r.lastFetchTime = r.clock()
	r.logger.Debug("portal: restricted words refreshed", zap.Int("count", len(value)))
	return nil
}

// Invalidate forces the next call to refetch.
func (r *RestrictedWords) Invalidate() {
	r.mu.Lock()
	r.lastFetchTime = time.Time{}
	r.mu.Unlock()
}

// Allowed reports whether name contains no restricted word. Words match whole tokens,
// case-insensitively.
func (r *RestrictedWords) Allowed(ctx context.Context, name string) (bool, error) {
	if err := r.EnsureFresh(ctx); err != nil {
		return false, err
	}
	tokens := strings.FieldsFunc(strings.ToLower(name), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range tokens {
		if _, ok := r.value[token]; ok {
			return false, nil
		}
	}
	return true, nil
}
