package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/studai/pkg/dotdir"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// STUDAI_API_LISTEN or STUDAI_ASK_MODE.
const EnvPrefix = "STUDAI"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the STUDAI_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.body_limit_mb", d.API.BodyLimitMB)
	v.SetDefault("api.mcp", d.API.MCP)

	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("storage.uploads_dir", d.Storage.UploadsDir)
	v.SetDefault("storage.output_dir", d.Storage.OutputDir)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)

	v.SetDefault("chat.provider", d.Chat.Provider)
	v.SetDefault("chat.target", d.Chat.Target)
	v.SetDefault("chat.model", d.Chat.Model)
	v.SetDefault("chat.api_key", d.Chat.APIKey)

	v.SetDefault("ask.mode", d.Ask.Mode)
	v.SetDefault("ask.tool_policy", d.Ask.ToolPolicy)
	v.SetDefault("ask.plain_top_k", d.Ask.PlainTopK)
	v.SetDefault("ask.agentic_top_k", d.Ask.AgenticTopK)
	v.SetDefault("ask.render_pdf", d.Ask.RenderPDF)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper materializes a Config from the resolved viper values, so that
// flag, env, file and default precedence all apply.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen:      v.GetString("api.listen"),
			BodyLimitMB: v.GetInt("api.body_limit_mb"),
			MCP:         v.GetBool("api.mcp"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Storage: StorageConfig{
			UploadsDir: v.GetString("storage.uploads_dir"),
			OutputDir:  v.GetString("storage.output_dir"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKey:     v.GetString("embedding.api_key"),
			CacheSize:  v.GetInt("embedding.cache_size"),
		},
		Chat: ChatConfig{
			Provider: v.GetString("chat.provider"),
			Target:   v.GetString("chat.target"),
			Model:    v.GetString("chat.model"),
			APIKey:   v.GetString("chat.api_key"),
		},
		Ask: AskConfig{
			Mode:        v.GetString("ask.mode"),
			ToolPolicy:  v.GetString("ask.tool_policy"),
			PlainTopK:   v.GetInt("ask.plain_top_k"),
			AgenticTopK: v.GetInt("ask.agentic_top_k"),
			RenderPDF:   v.GetBool("ask.render_pdf"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}
