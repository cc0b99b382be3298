package config

const (
	defaultAPIListen   = ":8000"
	defaultBodyLimitMB = 50

	defaultClientAPITarget = "http://localhost:8000"

	defaultUploadsDir = "uploads"
	defaultOutputDir  = "generated"

	defaultVectorProvider   = "chromem"
	defaultVectorCollection = "notes"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536
	defaultEmbeddingCacheSize  = 512

	defaultChatProvider = "openai"
	defaultChatModel    = "gpt-5-nano"

	defaultAskMode     = "plain"
	defaultToolPolicy  = "fallback"
	defaultPlainTopK   = 5
	defaultAgenticTopK = 30

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "studai.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:      defaultAPIListen,
			BodyLimitMB: defaultBodyLimitMB,
			MCP:         true,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Storage: StorageConfig{
			UploadsDir: defaultUploadsDir,
			OutputDir:  defaultOutputDir,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
			CacheSize:  defaultEmbeddingCacheSize,
		},
		Chat: ChatConfig{
			Provider: defaultChatProvider,
			Model:    defaultChatModel,
		},
		Ask: AskConfig{
			Mode:        defaultAskMode,
			ToolPolicy:  defaultToolPolicy,
			PlainTopK:   defaultPlainTopK,
			AgenticTopK: defaultAgenticTopK,
			RenderPDF:   true,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
