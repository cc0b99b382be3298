package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent studai configuration stored as config.toml
// in the .studai/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Storage     StorageConfig     `toml:"storage"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Chat        ChatConfig        `toml:"chat"`
	Ask         AskConfig         `toml:"ask"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen      string `toml:"listen,omitempty"`
	BodyLimitMB int    `toml:"body_limit_mb,omitempty"`
	MCP         bool   `toml:"mcp"`
}

// ClientConfig holds settings for CLI commands that talk to a running server
// (studai upload, studai ask, studai pdfs). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// StorageConfig holds the on-disk locations for raw uploads and rendered answers.
type StorageConfig struct {
	UploadsDir string `toml:"uploads_dir,omitempty"`
	OutputDir  string `toml:"output_dir,omitempty"`
}

// VectorStoreConfig holds vector store settings.
// Target is a URL for remote stores (chroma, qdrant), a DSN for pgvector,
// and a file path for sqlite and persistent chromem.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`

	// CacheSize is how many embeddings are memoized in process. 0 disables it.
	CacheSize int `toml:"cache_size,omitempty"`
}

// ChatConfig holds chat completion provider settings.
type ChatConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// AskConfig tunes the query orchestrator.
type AskConfig struct {
	// Mode is "plain" or "agentic".
	Mode string `toml:"mode,omitempty"`

	// ToolPolicy decides what happens when the model declines to search in
	// agentic mode: "require" fails the request, "fallback" returns the reply.
	ToolPolicy string `toml:"tool_policy,omitempty"`

	PlainTopK   int  `toml:"plain_top_k,omitempty"`
	AgenticTopK int  `toml:"agentic_top_k,omitempty"`
	RenderPDF   bool `toml:"render_pdf"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for %s: must be a non-negative integer", name)
			}
			*field(c) = n
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.body_limit_mb": intKey("api.body_limit_mb", func(c *Config) *int { return &c.API.BodyLimitMB }),
	"api.mcp":           boolKey("api.mcp", func(c *Config) *bool { return &c.API.MCP }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"storage.uploads_dir": stringKey(func(c *Config) *string { return &c.Storage.UploadsDir }),
	"storage.output_dir":  stringKey(func(c *Config) *string { return &c.Storage.OutputDir }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.api_key":  stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.cache_size": intKey("embedding.cache_size", func(c *Config) *int { return &c.Embedding.CacheSize }),

	"chat.provider": stringKey(func(c *Config) *string { return &c.Chat.Provider }),
	"chat.target":   stringKey(func(c *Config) *string { return &c.Chat.Target }),
	"chat.model":    stringKey(func(c *Config) *string { return &c.Chat.Model }),
	"chat.api_key":  stringKey(func(c *Config) *string { return &c.Chat.APIKey }),

	"ask.mode": {
		get: func(c *Config) string { return c.Ask.Mode },
		set: func(c *Config, v string) error {
			if v != "plain" && v != "agentic" {
				return fmt.Errorf("invalid value for ask.mode: %q (expected plain or agentic)", v)
			}
			c.Ask.Mode = v
			return nil
		},
	},
	"ask.tool_policy": {
		get: func(c *Config) string { return c.Ask.ToolPolicy },
		set: func(c *Config, v string) error {
			if v != "require" && v != "fallback" {
				return fmt.Errorf("invalid value for ask.tool_policy: %q (expected require or fallback)", v)
			}
			c.Ask.ToolPolicy = v
			return nil
		},
	},
	"ask.plain_top_k":   intKey("ask.plain_top_k", func(c *Config) *int { return &c.Ask.PlainTopK }),
	"ask.agentic_top_k": intKey("ask.agentic_top_k", func(c *Config) *int { return &c.Ask.AgenticTopK }),
	"ask.render_pdf":    boolKey("ask.render_pdf", func(c *Config) *bool { return &c.Ask.RenderPDF }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
