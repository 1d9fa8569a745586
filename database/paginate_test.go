package database

import (
	"testing"

	"github.com/rpupo63/blogicum/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePage(t *testing.T) {
	number, numPages, offset, err := resolvePage(2, 25, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, number)
	assert.Equal(t, 3, numPages)
	assert.Equal(t, 10, offset)

	number, _, offset, err = resolvePage(LastPage, 25, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, number)
	assert.Equal(t, 20, offset)

	number, numPages, _, err = resolvePage(1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, number)
	assert.Equal(t, 1, numPages)

	for _, bad := range []int{0, 4, -5} {
		_, _, _, err = resolvePage(bad, 25, 10)
		assert.True(t, errs.IsNotFound(err), "page %d", bad)
	}
}
