package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fractionxyz/goapi/domain"
)

func TestParseSortDir(t *testing.T) {
	assert.Equal(t, domain.SortDirDesc, parseSortDir("desc"))
	assert.Equal(t, domain.SortDirAsc, parseSortDir("asc"))
	assert.Equal(t, domain.SortDirAsc, parseSortDir(""))
}
