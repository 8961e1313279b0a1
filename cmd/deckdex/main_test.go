package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/deckdex/config"
	"github.com/poiesic/deckdex/ingestion"
	"github.com/poiesic/deckdex/storage"
	"github.com/poiesic/deckdex/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findIntFlag(cmd *cli.Command, name string) *cli.IntFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// run executes the app with a fresh instance and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"deckdex"}, args...))
	return out.String(), err
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	defaults := map[string]string{
		"log-level": "info",
		"config":    "deckdex.yaml",
		"env-file":  ".env",
	}
	for name, expected := range defaults {
		t.Run(name, func(t *testing.T) {
			var found *cli.StringFlag
			for _, flag := range app.Flags {
				if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
					found = f
					break
				}
			}
			require.NotNil(t, found)
			assert.Equal(t, expected, found.Value)
			assert.Empty(t, found.EnvVars)
		})
	}
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		f := findIntFlag(cmd, "batch-size")
		require.NotNil(t, f)
		assert.Equal(t, 100, f.Value)
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		f := findIntFlag(cmd, "report-interval")
		require.NotNil(t, f)
		assert.Equal(t, 100, f.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		f := findIntFlag(cmd, "max-retries")
		require.NotNil(t, f)
		assert.Equal(t, 3, f.Value)
	})
}

func TestReembedCommandValidation(t *testing.T) {
	tests := []struct {
		flag     string
		expected string
	}{
		{"--batch-size", "batch-size must be greater than 0"},
		{"--report-interval", "report-interval must be greater than 0"},
		{"--max-retries", "max-retries must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			_, err := run(t, "reembed", tt.flag, "0")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestRequiredFlags(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"analyze", "--external-id", "f1"}, "slides"},
		{[]string{"analyze", "--slides", "slides.json"}, "external-id"},
		{[]string{"ingest"}, "payload"},
		{[]string{"append"}, "analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0]+" "+tt.expected, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestArgumentValidation(t *testing.T) {
	t.Run("search requires a query", func(t *testing.T) {
		_, err := run(t, "search", "  ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search query is required")
	})

	t.Run("search limit is bounded", func(t *testing.T) {
		_, err := run(t, "search", "--limit", "101", "retail")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit must be between 1 and 100")
	})

	t.Run("ask requires a message", func(t *testing.T) {
		_, err := run(t, "ask")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "message is required")
	})

	t.Run("ask limit is bounded", func(t *testing.T) {
		_, err := run(t, "ask", "--limit", "0", "what worked?")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit must be between 1 and 20")
	})

	t.Run("show needs exactly one selector", func(t *testing.T) {
		_, err := run(t, "show")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one of --id or --external-id")

		_, err = run(t, "show", "--id", "1", "--external-id", "f1")
		require.Error(t, err)
	})

	t.Run("unreadable payload", func(t *testing.T) {
		_, err := run(t, "ingest", "--payload", filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})

	t.Run("malformed payload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "payload.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := run(t, "ingest", "--payload", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

func TestIngestShowStats(t *testing.T) {
	for _, key := range []string{
		config.EnvStorageDriver, config.EnvStoragePath, config.EnvEmbeddingHost,
		config.EnvCompletionHost, config.EnvEmbeddingModel, config.EnvCompletionModel,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: config.DriverSqlite, Path: filepath.Join(dir, "decks.db")}
	cfgPath := filepath.Join(dir, "deckdex.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	cover, reusable := "cover", "yes"
	payload := ingestion.Payload{
		ExternalFileID: "drive-42",
		Deck:           ingestion.DeckPayload{Title: "Retail Pitch", Themes: []string{"retail"}},
		Topics: []ingestion.TopicPayload{{
			Title:        "Store footfall",
			Summary:      "Footfall recovered after the pilot",
			StoryContext: "results",
			SlideNumbers: []int{1},
			Embedding:    storagetest.Vector(1),
		}},
		Slides: []ingestion.SlidePayload{{
			SlideNumber: 1,
			SlideType:   &cover,
			Reusable:    &reusable,
			Embedding:   storagetest.Vector(0, 1),
		}},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	payloadPath := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(payloadPath, data, 0o644))

	global := []string{"--config", cfgPath, "--env-file", ""}

	out, err := run(t, append(global, "ingest", "--payload", payloadPath)...)
	require.NoError(t, err)
	var result ingestion.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotZero(t, result.DeckID)
	assert.Equal(t, "drive-42", result.ExternalFileID)

	out, err = run(t, append(global, "show", "--external-id", "drive-42")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Retail Pitch (drive-42)")
	assert.Contains(t, out, "Themes: retail")
	assert.Contains(t, out, "Store footfall [results] slides [1]")
	assert.Contains(t, out, "#1 [cover]")
	assert.NotContains(t, out, "no embedding")

	out, err = run(t, append(global, "stats")...)
	require.NoError(t, err)
	assert.Equal(t, "Decks: 1\nTopics: 1\nSlides: 1\n", out)

	_, err = run(t, append(global, "show", "--external-id", "unknown")...)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := run(t, "--log-level", "invalid", "stats")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "debug", level)
				return nil
			},
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
