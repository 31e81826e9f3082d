package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	tests := []struct {
		in   string
		want SourceKind
	}{
		{"feed", KindFeed},
		{"RSS", KindFeed},
		{"api", KindAPI},
		{"rendered", KindRendered},
		{" static ", KindRendered},
	}
	for _, tt := range tests {
		got, err := ParseSourceKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSourceKind("graphql")
	assert.True(t, errors.Is(err, ErrUnsupportedSourceKind))
}

func TestDecodeSourceParams(t *testing.T) {
	p, err := DecodeSourceParams([]byte(`{"headers":{"Authorization":"Bearer x"},"query_params":{"page":"1"},"prompt":"find links"}`))
	require.NoError(t, err)
	assert.Equal(t, "Bearer x", p.Headers["Authorization"])
	assert.Equal(t, "1", p.QueryParams["page"])
	assert.Equal(t, "find links", p.Prompt)

	p, err = DecodeSourceParams(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Headers)

	_, err = DecodeSourceParams([]byte(`{"headers":["not","a","map"]}`))
	assert.True(t, errors.Is(err, ErrInvalidParams))

	_, err = DecodeSourceParams([]byte(`{"headers":{"X-Count":3}}`))
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestSource_Validate(t *testing.T) {
	base := Source{Name: "HN", URL: "https://news.ycombinator.com/rss", Kind: KindFeed}
	require.NoError(t, base.Validate())

	rendered := base
	rendered.Kind = KindRendered
	assert.True(t, errors.Is(rendered.Validate(), ErrMissingPrompt))

	rendered.Params.Prompt = "list article links"
	assert.NoError(t, rendered.Validate())

	unknown := base
	unknown.Kind = "ftp"
	assert.True(t, errors.Is(unknown.Validate(), ErrUnsupportedSourceKind))

	noName := base
	noName.Name = ""
	var ve *ValidationError
	assert.True(t, errors.As(noName.Validate(), &ve))
}

func TestSource_IsDue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	tests := []struct {
		name string
		src  Source
		want bool
	}{
		{"never fetched", Source{FetchInterval: time.Hour}, true},
		{"interval elapsed", Source{FetchInterval: time.Hour, LastFetchedAt: at(3601 * time.Second)}, true},
		{"exactly interval", Source{FetchInterval: time.Hour, LastFetchedAt: at(time.Hour)}, true},
		{"interval not elapsed", Source{FetchInterval: time.Hour, LastFetchedAt: at(3599 * time.Second)}, false},
		{"forced", Source{FetchInterval: time.Hour, LastFetchedAt: at(time.Second), ForceCollect: true}, true},
		{"zero interval uses default", Source{LastFetchedAt: at(30 * time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.src.IsDue(now))
		})
	}
}
