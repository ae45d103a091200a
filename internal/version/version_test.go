package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "spritecurate "+Version+" (commit "+GitCommit+", built "+BuildTime+")", String())
}
