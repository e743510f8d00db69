package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type rejection struct{ client bool }

func (r rejection) Error() string     { return "rejected" }
func (r rejection) ClientFault() bool { return r.client }

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "debug", "text")
	defer Initialize("info", "text")

	ctx := WithAttrs(context.Background(), "request_id", "abc")
	ctx = WithAttrs(ctx, "user_id", "u1")
	InfoContext(ctx, "handled", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "request_id=abc")
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "status=200")
}

func TestExitMethodWithError_Level(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "debug", "json")
	defer Initialize("info", "text")

	ExitMethodWithError("svc.Op", rejection{client: true})
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	ExitMethodWithError("svc.Op", errors.New("db down"))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "warn", "text")
	defer Initialize("info", "text")

	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
