package model

// Config is the complete application configuration. Defaults come from
// DefaultConfig; a config file (~/.kys/config.yaml) and KYS_* environment
// variables override them.
type Config struct {
	Encoder      EncoderConfig      `yaml:"encoder" mapstructure:"encoder"`
	Chunking     ChunkingConfig     `yaml:"chunking" mapstructure:"chunking"`
	Extraction   ExtractionConfig   `yaml:"extraction" mapstructure:"extraction"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Admission    AdmissionConfig    `yaml:"admission" mapstructure:"admission"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Index        IndexConfig        `yaml:"index" mapstructure:"index"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
}

// EncoderConfig configures the semantic encoder
type EncoderConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "openai" or "local"
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Dimension         int     `yaml:"dimension" mapstructure:"dimension"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ChunkingConfig configures how text is split into overlapping windows
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"` // Words per chunk
	Overlap   int `yaml:"overlap" mapstructure:"overlap"`       // Words shared between adjacent chunks
}

// ExtractionConfig configures claim extraction. Term lists and weights are
// data, not code, so they can be tuned without a rebuild.
type ExtractionConfig struct {
	Threshold        float64  `yaml:"threshold" mapstructure:"threshold"`
	QuantifierWeight float64  `yaml:"quantifier_weight" mapstructure:"quantifier_weight"`
	CausalWeight     float64  `yaml:"causal_weight" mapstructure:"causal_weight"`
	StatWeight       float64  `yaml:"stat_weight" mapstructure:"stat_weight"`
	Quantifiers      []string `yaml:"quantifiers" mapstructure:"quantifiers"`
	CausalVerbs      []string `yaml:"causal_verbs" mapstructure:"causal_verbs"`
	StatisticalTerms []string `yaml:"statistical_terms" mapstructure:"statistical_terms"`
	ContextWindow    int      `yaml:"context_window" mapstructure:"context_window"` // Sentences of context on each side
}

// PolarityPair is one entry in the polarity-flip table used to build the
// negated framing of a claim for contradicting-evidence retrieval.
type PolarityPair struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// VerificationConfig configures evidence resolution and confidence scoring.
// The numeric defaults mirror the original heuristics and carry no principled
// justification; treat them as tunables.
type VerificationConfig struct {
	SimilarityFloor float64        `yaml:"similarity_floor" mapstructure:"similarity_floor"` // First-stage retrieval floor
	SupportFloor    float64        `yaml:"support_floor" mapstructure:"support_floor"`       // Second-stage estimator floor
	MaxEvidence     int            `yaml:"max_evidence" mapstructure:"max_evidence"`         // k for each evidence query
	BaseConfidence  float64        `yaml:"base_confidence" mapstructure:"base_confidence"`
	SupportStep     float64        `yaml:"support_step" mapstructure:"support_step"`
	ContradictStep  float64        `yaml:"contradict_step" mapstructure:"contradict_step"`
	SimilarityBlend float64        `yaml:"similarity_blend" mapstructure:"similarity_blend"` // Estimator weight on retrieval similarity
	HedgingTerms    []string       `yaml:"hedging_terms" mapstructure:"hedging_terms"`
	AssertiveTerms  []string       `yaml:"assertive_terms" mapstructure:"assertive_terms"`
	PolarityFlips   []PolarityPair `yaml:"polarity_flips" mapstructure:"polarity_flips"`
	NegationPrefix  string         `yaml:"negation_prefix" mapstructure:"negation_prefix"`
}

// ActionPolicy is the per-action-type admission policy triple, plus the
// heavy flag that routes accepted requests to the background executor.
type ActionPolicy struct {
	MaxRequests   int  `yaml:"max_requests" mapstructure:"max_requests"`
	WindowSeconds int  `yaml:"window_seconds" mapstructure:"window_seconds"`
	BurstLimit    int  `yaml:"burst_limit" mapstructure:"burst_limit"`
	Heavy         bool `yaml:"heavy" mapstructure:"heavy"`
}

// AdmissionConfig configures the admission controller
type AdmissionConfig struct {
	Policies           map[string]ActionPolicy `yaml:"policies" mapstructure:"policies"`
	BurstWindowSeconds int                     `yaml:"burst_window_seconds" mapstructure:"burst_window_seconds"`
	MaxBackgroundTasks int                     `yaml:"max_background_tasks" mapstructure:"max_background_tasks"` // Per caller
}

// CacheConfig configures the two-tier lookup cache
type CacheConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	MemoryCapacity int    `yaml:"memory_capacity" mapstructure:"memory_capacity"`
	MemoryTTLHours int    `yaml:"memory_ttl_hours" mapstructure:"memory_ttl_hours"`
	DiskTTLHours   int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours"`
}

// IndexConfig configures retrieval index persistence
type IndexConfig struct {
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	EncodeWorkers int `yaml:"encode_workers" mapstructure:"encode_workers"` // Concurrent chunk encodings per document
	IngestWorkers int `yaml:"ingest_workers" mapstructure:"ingest_workers"` // Concurrent documents in batch ingest
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Provider:          "local",
			Model:             "text-embedding-3-small",
			TimeoutSeconds:    30,
			Dimension:         256,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 512,
			Overlap:   50,
		},
		Extraction: ExtractionConfig{
			Threshold:        0.7,
			QuantifierWeight: 0.4,
			CausalWeight:     0.4,
			StatWeight:       0.3,
			Quantifiers: []string{
				"percent", "%", "twice", "double", "half", "majority",
				"most", "all", "none", "every", "years", "times",
			},
			CausalVerbs: []string{
				"causes", "caused", "leads to", "results in", "increases",
				"reduces", "decreases", "adds", "prevents", "improves",
				"worsens", "raises", "lowers", "extends", "shortens",
			},
			StatisticalTerms: []string{
				"study", "studies", "trial", "research", "correlation",
				"significant", "evidence", "data", "analysis", "found",
				"shows", "demonstrates", "suggests", "indicates",
			},
			ContextWindow: 1,
		},
		Verification: VerificationConfig{
			SimilarityFloor: 0.7,
			SupportFloor:    0.8,
			MaxEvidence:     5,
			BaseConfidence:  0.5,
			SupportStep:     0.1,
			ContradictStep:  0.15,
			SimilarityBlend: 0.6,
			HedgingTerms: []string{
				"may", "might", "could", "suggests", "possibly", "perhaps",
				"appears", "seems", "potentially", "unclear",
			},
			AssertiveTerms: []string{
				"proves", "demonstrates", "confirms", "establishes",
				"definitively", "certainly", "undoubtedly", "shows",
			},
			PolarityFlips: []PolarityPair{
				{From: "increases", To: "decreases"},
				{From: "decreases", To: "increases"},
				{From: "improves", To: "worsens"},
				{From: "worsens", To: "improves"},
				{From: "causes", To: "prevents"},
				{From: "prevents", To: "causes"},
				{From: "adds", To: "removes"},
				{From: "raises", To: "lowers"},
				{From: "lowers", To: "raises"},
				{From: "extends", To: "shortens"},
				{From: "shortens", To: "extends"},
			},
			NegationPrefix: "evidence against the claim that",
		},
		Admission: AdmissionConfig{
			Policies: map[string]ActionPolicy{
				"search": {MaxRequests: 600, WindowSeconds: 3600, BurstLimit: 30},
				"index":  {MaxRequests: 120, WindowSeconds: 3600, BurstLimit: 10, Heavy: true},
				"verify": {MaxRequests: 60, WindowSeconds: 3600, BurstLimit: 5, Heavy: true},
			},
			BurstWindowSeconds: 60,
			MaxBackgroundTasks: 5,
		},
		Cache: CacheConfig{
			Dir:            "~/.kys/cache",
			MemoryCapacity: 1024,
			MemoryTTLHours: 1,
			DiskTTLHours:   24,
		},
		Index: IndexConfig{
			SnapshotPath: "~/.kys/index.json",
		},
		Concurrency: ConcurrencyConfig{
			EncodeWorkers: 4,
			IngestWorkers: 4,
		},
	}
}

// Validate checks invariants that would otherwise surface as runtime
// corruption. Called once at startup; failures are fatal.
func (c *Config) Validate() error {
	if c.Encoder.Dimension <= 0 {
		return &ConfigurationError{Field: "encoder.dimension", Reason: "must be positive"}
	}
	if c.Chunking.ChunkSize <= 0 {
		return &ConfigurationError{Field: "chunking.chunk_size", Reason: "must be positive"}
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return &ConfigurationError{Field: "chunking.overlap", Reason: "must be in [0, chunk_size)"}
	}
	if c.Extraction.Threshold <= 0 || c.Extraction.Threshold > 1 {
		return &ConfigurationError{Field: "extraction.threshold", Reason: "must be in (0, 1]"}
	}
	if c.Verification.SimilarityFloor < -1 || c.Verification.SimilarityFloor > 1 {
		return &ConfigurationError{Field: "verification.similarity_floor", Reason: "must be in [-1, 1]"}
	}
	if c.Verification.SupportFloor < 0 || c.Verification.SupportFloor > 1 {
		return &ConfigurationError{Field: "verification.support_floor", Reason: "must be in [0, 1]"}
	}
	if c.Verification.MaxEvidence <= 0 {
		return &ConfigurationError{Field: "verification.max_evidence", Reason: "must be positive"}
	}
	if len(c.Admission.Policies) == 0 {
		return &ConfigurationError{Field: "admission.policies", Reason: "at least one action policy required"}
	}
	for name, p := range c.Admission.Policies {
		if p.MaxRequests <= 0 || p.WindowSeconds <= 0 || p.BurstLimit <= 0 {
			return &ConfigurationError{
				Field:  "admission.policies." + name,
				Reason: "max_requests, window_seconds and burst_limit must be positive",
			}
		}
	}
	if c.Admission.MaxBackgroundTasks <= 0 {
		return &ConfigurationError{Field: "admission.max_background_tasks", Reason: "must be positive"}
	}
	return nil
}
