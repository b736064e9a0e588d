package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestProbeDimensions(t *testing.T) {
	t.Parallel()

	dims, err := ProbeDimensions(encodePNG(t, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 5, Height: 10}, dims)
}

func TestProbeDimensionsRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ProbeDimensions([]byte("not an image"))
	assert.Error(t, err)
}
