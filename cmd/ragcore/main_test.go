package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testContext(t *testing.T, set func(*flag.FlagSet)) *cli.Context {
	t.Helper()

	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("host", "http://localhost:11434", "")
	flags.String("embedding-model", "embeddinggemma", "")
	flags.String("chat-model", "qwen2.5:3b", "")
	flags.Int("embedding-dimensions", 768, "")
	if set != nil {
		set(flags)
	}
	return cli.NewContext(&cli.App{}, flags, nil)
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	t.Run("accepts valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			c := testContext(t, func(f *flag.FlagSet) {
				require.NoError(t, f.Set("log-level", level))
			})
			assert.NoError(t, setupLogger(c))
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		c := testContext(t, func(f *flag.FlagSet) {
			require.NoError(t, f.Set("log-level", "verbose"))
		})
		err := setupLogger(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	c := testContext(t, func(f *flag.FlagSet) {
		require.NoError(t, f.Set("host", "http://models.internal:8080"))
		require.NoError(t, f.Set("embedding-model", "custom-embed"))
		require.NoError(t, f.Set("chat-model", "custom-chat"))
		require.NoError(t, f.Set("embedding-dimensions", "1024"))
	})

	config := aiConfigFromFlags(c)
	require.NoError(t, config.Validate())

	assert.Equal(t, "custom-embed", config.EmbeddingModel)
	assert.Equal(t, "custom-chat", config.ChatModel)
	assert.Equal(t, 1024, config.EmbeddingDimensions)
}

func TestQueryCommandRequiresQuestion(t *testing.T) {
	app := &cli.App{
		Name: "ragcore",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: "unused"},
			&cli.StringFlag{Name: "host", Value: "http://localhost:11434"},
			&cli.StringFlag{Name: "embedding-model", Value: "embeddinggemma"},
			&cli.StringFlag{Name: "chat-model", Value: "qwen2.5:3b"},
			&cli.IntFlag{Name: "embedding-dimensions", Value: 768},
		},
		Commands: []*cli.Command{
			{Name: "query", Action: queryCommand},
		},
	}

	err := app.Run([]string{"ragcore", "query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is required")
}
