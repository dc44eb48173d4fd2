package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "warn", Out: &buf})

	l.Info().Msg("no debe salir")
	l.Warn().Str("product_id", "p1").Msg("línea omitida")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "debe emitirse una sola línea JSON")
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "p1", entry["product_id"])
}

func TestMigrateLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})

	ml := l.NewMigrateLogger(true)
	assert.True(t, ml.Verbose())
	ml.Printf("aplicada %d\n", 3)
	assert.Contains(t, buf.String(), `"message":"aplicada 3"`)
	assert.Contains(t, buf.String(), `"component":"migrate"`)
}

func TestAccessWriter(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})

	n, err := l.AccessWriter().Write([]byte("200 GET /health\n"))
	require.NoError(t, err)
	assert.Equal(t, len("200 GET /health\n"), n)
	assert.Contains(t, buf.String(), `"message":"200 GET /health"`)
}
