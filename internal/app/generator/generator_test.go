package generator

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"powermon/internal/app/errors"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

func newTestLogger(ctrl *gomock.Controller) *logger.MockLogger {
	mockLog := logger.NewMockLogger(ctrl)
	noopLogger := zerolog.New(io.Discard)
	noopEvent := noopLogger.Info()
	mockLog.EXPECT().Info().Return(noopEvent).AnyTimes()

	return mockLog
}

func newTestGenerator(t *testing.T) (*generator, *bytes.Buffer) {
	t.Helper()

	ctrl := gomock.NewController(t)

	var out bytes.Buffer

	return &generator{
		path: filepath.Join(t.TempDir(), config.FileName),
		out:  &out,
		log:  newTestLogger(ctrl),
	}, &out
}

func Test_DefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, config.DefaultInterval, opts.Interval)
	assert.Equal(t, config.DefaultBaseWatts, opts.BaseWatts)
	assert.Equal(t, config.DefaultMaxWatts, opts.MaxWatts)
	assert.Equal(t, config.SourceSelf, opts.Source)
}

func Test_NewGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	assert.NotNil(t, NewGenerator(newTestLogger(ctrl)))
}

func Test_Generator_Generate(t *testing.T) {
	gen, _ := newTestGenerator(t)

	require.NoError(t, gen.Generate(DefaultOptions(), false, false))

	content, err := os.ReadFile(gen.path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "interval: 5s")
	assert.Contains(t, string(content), "base_watts: 10.0")
	assert.Contains(t, string(content), "max_watts: 65.0")
	assert.Contains(t, string(content), "source: self")
}

func Test_Generator_Generate_RoundTrips(t *testing.T) {
	gen, _ := newTestGenerator(t)

	opts := DefaultOptions()
	opts.Interval = 2 * time.Second
	opts.Target = "notepad.exe"
	opts.MaxWatts = 95
	opts.Source = config.SourceTarget

	require.NoError(t, gen.Generate(opts, false, false))

	cfg, err := config.LoadFile(gen.path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "notepad.exe", cfg.Monitor.Target)
	assert.Equal(t, 95.0, cfg.Power.MaxWatts)
	assert.Equal(t, config.SourceTarget, cfg.Sampler.Source)
}

func Test_Generator_Generate_FileExists(t *testing.T) {
	gen, _ := newTestGenerator(t)

	require.NoError(t, os.WriteFile(gen.path, []byte("existing"), 0600))

	err := gen.Generate(DefaultOptions(), false, false)
	assert.ErrorIs(t, err, errors.ErrConfigExists)

	content, _ := os.ReadFile(gen.path)
	assert.Equal(t, "existing", string(content))
}

func Test_Generator_Generate_Force(t *testing.T) {
	gen, _ := newTestGenerator(t)

	require.NoError(t, os.WriteFile(gen.path, []byte("existing"), 0600))
	require.NoError(t, gen.Generate(DefaultOptions(), true, false))

	content, _ := os.ReadFile(gen.path)
	assert.Contains(t, string(content), "power:")
}

func Test_Generator_Generate_DryRun(t *testing.T) {
	gen, out := newTestGenerator(t)

	require.NoError(t, os.WriteFile(gen.path, []byte("existing"), 0600))
	require.NoError(t, gen.Generate(DefaultOptions(), false, true))

	assert.Contains(t, out.String(), "sampler:")

	content, _ := os.ReadFile(gen.path)
	assert.Equal(t, "existing", string(content))
}
