package raptor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Component tags every log record written by this package.
const Component = "raptor-gen-test-config"

// ConfigFileName is the generated script's name inside webext/raptor.
const ConfigFileName = "auto_gen_test_config.js"

const configTemplate = `// this file is auto-generated by raptor, do not edit directly
function getTestConfig() {
    return {"browser": "%s",
            "cs_port": "%d",
            "test_name": "%s",
            "test_settings_url": "http://%s:%d/%s.json",
            "post_startup_delay": "%d",
            "benchmark_port": "%d",
            "host": "%s",
            "debug_mode": "%d",
            "browser_cycle": "%d"};
}

`

// TestConfig is the set of values handed to the extension.
type TestConfig struct {
	Browser          string
	Test             string
	CSPort           int
	PostStartupDelay int
	Host             string
	BenchmarkPort    int
	DebugMode        int
	BrowserCycle     int
}

// Option overrides one of the defaulted TestConfig fields.
type Option func(*TestConfig)

func WithHost(host string) Option       { return func(c *TestConfig) { c.Host = host } }
func WithBenchmarkPort(port int) Option { return func(c *TestConfig) { c.BenchmarkPort = port } }
func WithDebugMode(mode int) Option     { return func(c *TestConfig) { c.DebugMode = mode } }
func WithBrowserCycle(cycle int) Option { return func(c *TestConfig) { c.BrowserCycle = cycle } }

// NewTestConfig fills in the defaults: host 127.0.0.1, benchmark port 0,
// debug mode 0 and browser cycle 1.
func NewTestConfig(browser, test string, csPort, postStartupDelay int, opts ...Option) TestConfig {
	c := TestConfig{
		Browser:          browser,
		Test:             test,
		CSPort:           csPort,
		PostStartupDelay: postStartupDelay,
		Host:             "127.0.0.1",
		BenchmarkPort:    0,
		DebugMode:        0,
		BrowserCycle:     1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Render returns the JavaScript source for c. String fields are embedded
// as given.
func (c TestConfig) Render() string {
	return fmt.Sprintf(configTemplate,
		c.Browser,
		c.CSPort,
		c.Test,
		c.Host, c.CSPort, c.Test,
		c.PostStartupDelay,
		c.BenchmarkPort,
		c.Host,
		c.DebugMode,
		c.BrowserCycle,
	)
}

// Writer writes the generated config next to the raptor harness.
type Writer struct {
	// HarnessDir is the directory of the raptor harness package. The
	// extension lives in its sibling webext/raptor. A relative HarnessDir
	// is resolved against the working directory.
	HarnessDir string
	// Logger receives progress records. Nil means slog.Default().
	Logger *slog.Logger
}

// NewWriter creates a Writer logging through logger.
func NewWriter(harnessDir string, logger *slog.Logger) *Writer {
	return &Writer{HarnessDir: harnessDir, Logger: logger.With("component", Component)}
}

// Path is the file Write replaces.
func (w *Writer) Path() (string, error) {
	harness, err := filepath.Abs(w.HarnessDir)
	if err != nil {
		return "", fmt.Errorf("resolving harness dir %q: %w", w.HarnessDir, err)
	}
	return filepath.Join(filepath.Dir(harness), "webext", "raptor", ConfigFileName), nil
}

// Write replaces the extension's config with c and returns the path it
// wrote. The webext directory must already exist.
func (w *Writer) Write(c TestConfig) (string, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default().With("component", Component)
	}
	logger.Info("writing test settings into background js, so webext can get it")

	path, err := w.Path()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(c.Render()), 0o644); err != nil {
		return "", err
	}

	logger.Info(fmt.Sprintf("finished writing test config to %s", path))
	return path, nil
}

// WriteTestConfig builds a TestConfig from its arguments and writes it with
// a Writer rooted at harnessDir.
func WriteTestConfig(logger *slog.Logger, harnessDir, browser, test string, csPort, postStartupDelay int, opts ...Option) (string, error) {
	return NewWriter(harnessDir, logger).Write(NewTestConfig(browser, test, csPort, postStartupDelay, opts...))
}
