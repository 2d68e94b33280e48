package errs_test

import (
	"errors"
	"testing"

	"github.com/mrops-br/product-upsert-api/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("sentinel")

func TestWrap(t *testing.T) {
	assert.Nil(t, errs.Wrap(nil, "ignored"))

	base := errors.New("connection refused")
	err := errs.Wrap(base, "save product")
	assert.EqualError(t, err, "save product: connection refused")
	assert.True(t, errors.Is(err, base))
}

func TestWrapf(t *testing.T) {
	err := errs.Wrapf(errors.New("boom"), "save product %s", "p1")
	assert.EqualError(t, err, "save product p1: boom")
}

func TestMark(t *testing.T) {
	assert.Equal(t, errSentinel, errs.Mark(nil, errSentinel))

	err := errs.Mark(errors.New("no rows"), errSentinel)
	assert.True(t, errs.Is(err, errSentinel))
	assert.EqualError(t, err, "no rows")
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, errs.ExtractStackLines(nil, 3))

	lines := errs.ExtractStackLines(errs.New("boom"), 2)
	assert.Len(t, lines, 2)
	assert.Equal(t, "boom", lines[0])
}
