package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/bmedia/gearsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "run", ID: "42"}
		assert.Equal(t, "run 42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("catalog", "data.js")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("price", -1, "must not be negative")
		assert.Equal(t, "validation failed for field price: must not be negative", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty catalog"}
		assert.Equal(t, "validation failed: empty catalog", err.Error())
	})
}

func TestSourceError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.NewSourceError("https://linktr.ee/x", "navigate", base)

	assert.Contains(t, err.Error(), "https://linktr.ee/x")
	assert.Contains(t, err.Error(), "navigate")
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
	assert.ErrorIs(t, err, base)

	wrapped := fmt.Errorf("scrape: %w", err)
	var srcErr *pkgerrors.SourceError
	require.True(t, errors.As(wrapped, &srcErr))
	assert.Equal(t, "navigate", srcErr.Stage)
}

func TestFetchError(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		err := pkgerrors.NewFetchError("https://cdn/x.png", "images/x.png", 404, nil)
		assert.Contains(t, err.Error(), "404")
		assert.True(t, pkgerrors.IsImageFetch(err))
	})

	t.Run("transport error", func(t *testing.T) {
		base := errors.New("timeout")
		err := pkgerrors.NewFetchError("https://cdn/x.png", "images/x.png", 0, base)
		assert.Contains(t, err.Error(), "timeout")
		assert.ErrorIs(t, err, base)
	})
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{
			name: "file and position",
			err:  &pkgerrors.ParseError{Format: "js", File: "data.js", Line: 3, Column: 7, Message: "unexpected '}'"},
			want: "parse error in js at data.js:3:7: unexpected '}'",
		},
		{
			name: "file only",
			err:  &pkgerrors.ParseError{Format: "yaml", File: "data.yaml", Message: "bad indent"},
			want: "parse error in yaml file data.yaml: bad indent",
		},
		{
			name: "position only",
			err:  &pkgerrors.ParseError{Format: "js", Line: 1, Column: 2, Message: "eof"},
			want: "js parse error at 1:2: eof",
		},
		{
			name: "message only",
			err:  &pkgerrors.ParseError{Format: "json", Message: "eof"},
			want: "json parse error: eof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsMalformedCatalog(tt.err))
		})
	}
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.NewIOError("write", "/tmp/data.js", base)
	assert.Equal(t, "IO error during write of /tmp/data.js: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.NewResourceError("record", "history", "", errors.New("disk full"))
	assert.Equal(t, "failed to record history: disk full", err.Error())
}

func TestConfigError(t *testing.T) {
	base := errors.New("open .gearsync.yaml: no such file")
	err := pkgerrors.NewConfigError("config", "cannot read .gearsync.yaml", base)
	assert.Equal(t, "configuration error in config: cannot read .gearsync.yaml", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestCanceled(t *testing.T) {
	err := errors.Join(pkgerrors.ErrCanceled, errors.New("context canceled"))
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.False(t, pkgerrors.IsSourceUnavailable(err))
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("js", "x", nil))
	assert.NoError(t, pkgerrors.WrapSource("u", "fetch", nil))
	assert.NoError(t, pkgerrors.WrapValidation("f", nil))
	assert.NoError(t, pkgerrors.WrapResource("save", "catalog", "", nil))

	err := pkgerrors.WrapParse("js", "data.js", errors.New("boom"))
	assert.True(t, pkgerrors.IsMalformedCatalog(err))

	err = pkgerrors.WrapSource("u", "fetch", errors.New("boom"))
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
}
