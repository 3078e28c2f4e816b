package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromCode(t *testing.T) {
	cases := map[string]Category{
		ErrCodeEmptyCorpus:        CategoryCorpus,
		ErrCodeIndexNotBuilt:      CategoryCorpus,
		ErrCodeInvalidQuery:       CategoryValidation,
		ErrCodeInvalidScope:       CategoryValidation,
		ErrCodeChannelUnavailable: CategoryChannel,
		ErrCodeCacheUnavailable:   CategoryCache,
		ErrCodeStoreIO:            CategoryStore,
		ErrCodeInternal:           CategoryInternal,
		"bogus":                   CategoryInternal,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x", nil).Category, code)
	}
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryable(ChannelUnavailable("semantic", nil)))
	assert.True(t, IsRetryable(CacheUnavailable(nil)))
	assert.False(t, IsRetryable(EmptyCorpus("c=fisica-1")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestHasCode_ThroughWrappedChain(t *testing.T) {
	inner := EmptyCorpus("c=fisica-1")
	wrapped := fmt.Errorf("building index: %w", inner)

	assert.True(t, HasCode(wrapped, ErrCodeEmptyCorpus))
	assert.False(t, HasCode(wrapped, ErrCodeInvalidQuery))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeEmptyCorpus))
	assert.False(t, HasCode(nil, ErrCodeEmptyCorpus))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := Newf(ErrCodeInvalidScope, "scope %q missing course", "")
	b := New(ErrCodeInvalidScope, "different message", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, New(ErrCodeInternal, "x", nil)))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeStoreIO, nil))

	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeStoreIO, cause)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), ErrCodeStoreIO)
}
