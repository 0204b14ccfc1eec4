package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), &logger)

	ctx = WithStep(ctx, "url_check")
	ctx = WithSoftware(ctx, "gitea")
	ctx = WithURL(ctx, "https://about.gitea.com/")

	FromContext(ctx).Info().Msg("probing")

	out := buf.String()
	assert.Contains(t, out, `"step":"url_check"`)
	assert.Contains(t, out, `"software_id":"gitea"`)
	assert.Contains(t, out, `"url":"https://about.gitea.com/"`)
}

func TestFromContextFallsBack(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil))
}
