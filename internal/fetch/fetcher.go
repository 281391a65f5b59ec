package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/averden/modelget/internal/logx"
	"github.com/rs/zerolog"
)

// Fetcher runs one part transfer under the retry policy and, when a digest
// is configured, verifies the body before handing it back.
type Fetcher struct {
	source Source
	policy Policy
	log    zerolog.Logger
}

func NewFetcher(source Source, policy Policy) *Fetcher {
	return &Fetcher{
		source: source,
		policy: policy,
		log:    logx.With("fetch"),
	}
}

// Fetch returns the complete part body, or the last error once the attempt
// budget is exhausted. digest may be "" to skip content verification.
func (f *Fetcher) Fetch(ctx context.Context, url, digest string) ([]byte, error) {
	var data []byte
	attempt := 0
	err := f.policy.Do(ctx, func() error {
		attempt++
		body, err := f.source.Fetch(ctx, url)
		if err != nil {
			f.log.Warn().Str("op", "fetch/attempt").Int("attempt", attempt).Msgf("fetch failed for %s: %v", url, err)
			return err
		}
		if digest != "" {
			sum := sha256.Sum256(body)
			if hex.EncodeToString(sum[:]) != digest {
				f.log.Warn().Str("op", "fetch/attempt").Int("attempt", attempt).Msgf("checksum mismatch for %s", url)
				return &DigestError{URL: url, Expected: digest}
			}
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	f.log.Debug().Str("op", "fetch/done").Msgf("fetched %s (%d bytes, %d attempt(s))", url, len(data), attempt)
	return data, nil
}
