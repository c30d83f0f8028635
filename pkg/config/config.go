package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		// Enabled defaults to true; a pointer so an explicit false in YAML
		// survives the defaults pass (creasty/defaults cannot tell a set
		// false from the zero value).
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	History struct {
		// Backend selects the rolling-history store: "memory" or "redis".
		Backend       string `yaml:"backend" default:"memory"`
		Window        int    `yaml:"window" default:"60"`
		MinSamples    int    `yaml:"min_samples" default:"10"`
		RetentionDays int    `yaml:"retention_days" default:"90"`
		// PruneSchedule is a cron expression for the cleanup pass.
		PruneSchedule string `yaml:"prune_schedule" default:"0 3 * * *"`
	} `yaml:"history"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"volana"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"volana"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"analysis.results"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	VIX struct {
		SourceURL       string        `yaml:"source_url"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout" default:"10s"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"1h"`
		Fallback        float64       `yaml:"fallback" default:"18.0"`
		RefreshSchedule string        `yaml:"refresh_schedule" default:"0 * * * *"`
	} `yaml:"vix"`
	Batch struct {
		Workers int `yaml:"workers" default:"8"`
	} `yaml:"batch"`
	Scoring Scoring `yaml:"scoring"`
	Dynamic Dynamic `yaml:"dynamic"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
}

// Scoring holds the scoring-model thresholds. Zero-config deployments get
// the model's published constants via default tags.
type Scoring struct {
	EarningsWindowDays int `yaml:"earnings_window_days" default:"14"`

	// Fear-environment detection.
	FearIVRankMin    float64 `yaml:"fear_ivrank_min" default:"75"`
	FearIVRVRatioMin float64 `yaml:"fear_ivrv_ratio_min" default:"1.30"`
	FearRegimeMax    float64 `yaml:"fear_regime_max" default:"1.05"`

	// Cheap/rich volatility detection.
	IVLongCheapRank  float64 `yaml:"iv_longcheap_rank" default:"30"`
	IVLongCheapRatio float64 `yaml:"iv_longcheap_ratio" default:"0.95"`
	IVShortRichRank  float64 `yaml:"iv_shortrich_rank" default:"70"`
	IVShortRichRatio float64 `yaml:"iv_shortrich_ratio" default:"1.15"`

	// Same-day IV pop thresholds (percent points).
	IVPopUp   float64 `yaml:"iv_pop_up" default:"10.0"`
	IVPopDown float64 `yaml:"iv_pop_down" default:"-10.0"`

	// Realized-vol regime thresholds (HV20/HV1Y).
	RegimeHot  float64 `yaml:"regime_hot" default:"1.20"`
	RegimeCalm float64 `yaml:"regime_calm" default:"0.80"`

	// Relative-volume expansion/contraction band.
	RelVolHot  float64 `yaml:"relvol_hot" default:"1.20"`
	RelVolCold float64 `yaml:"relvol_cold" default:"0.80"`

	// Call/Put ratio triggers (equity defaults; index overrides below).
	CallPutRatioBull float64 `yaml:"callput_ratio_bull" default:"1.30"`
	CallPutRatioBear float64 `yaml:"callput_ratio_bear" default:"0.77"`

	// Put% triggers (equity defaults; index overrides below).
	PutPctBear float64 `yaml:"putpct_bear" default:"55.0"`
	PutPctBull float64 `yaml:"putpct_bull" default:"45.0"`

	// Trade-structure thresholds for score amplification.
	SingleLegHigh  float64 `yaml:"singleleg_high" default:"80.0"`
	MultiLegHigh   float64 `yaml:"multileg_high" default:"25.0"`
	ContingentHigh float64 `yaml:"contingent_high" default:"2.0"`

	// Liquidity tiers.
	LiqHighVolume   float64 `yaml:"liq_high_volume" default:"1000000"`
	LiqMedVolume    float64 `yaml:"liq_med_volume" default:"200000"`
	LiqHighNotional float64 `yaml:"liq_high_notional" default:"300000000"`
	LiqMedNotional  float64 `yaml:"liq_med_notional" default:"100000000"`
	LiqHighOIRank   float64 `yaml:"liq_high_oi_rank" default:"60.0"`
	LiqMedOIRank    float64 `yaml:"liq_med_oi_rank" default:"40.0"`

	// Penalties.
	PenaltyExtremeChg   float64 `yaml:"penalty_extreme_chg" default:"20.0"`
	PenaltyVolPctThresh float64 `yaml:"penalty_vol_pct_thresh" default:"0.40"`

	// ActiveOpenRatio bands.
	ActiveOpenRatioBull float64 `yaml:"active_open_ratio_bull" default:"0.05"`
	ActiveOpenRatioBear float64 `yaml:"active_open_ratio_bear" default:"-0.05"`

	// Intertemporal consistency.
	ConsistencyStrong float64 `yaml:"consistency_strong" default:"0.6"`
	ConsistencyDays   int     `yaml:"consistency_days" default:"5"`
	ConsistencyWeight float64 `yaml:"consistency_weight" default:"0.3"`

	// Score-trend overlay: regression window and slope thresholds.
	TrendDays      int     `yaml:"trend_days" default:"5"`
	TrendSlopeUp   float64 `yaml:"trend_slope_up" default:"0.10"`
	TrendSlopeDown float64 `yaml:"trend_slope_down" default:"0.10"`

	// Five-day posture label thresholds.
	PostureDirectionStrong   float64 `yaml:"posture_direction_strong" default:"1.0"`
	PostureDirectionMed      float64 `yaml:"posture_direction_med" default:"0.6"`
	PostureConsistencyStrong float64 `yaml:"posture_consistency_strong" default:"0.6"`
	PostureConsistencyWeak   float64 `yaml:"posture_consistency_weak" default:"0.2"`

	// Input data-quality validation.
	DataQualityMissingWarn     int     `yaml:"data_quality_missing_warn" default:"2"`
	DataQualityMissingFail     int     `yaml:"data_quality_missing_fail" default:"4"`
	DataQualityVolumeTolerance float64 `yaml:"data_quality_volume_tolerance" default:"0.15"`
	DataQualityPutPctTolerance float64 `yaml:"data_quality_putpct_tolerance" default:"0.12"`
	DataQualityVolumeCeiling   float64 `yaml:"data_quality_volume_ceiling" default:"50000000"`
	DataQualityNotionalCeiling float64 `yaml:"data_quality_notional_ceiling" default:"5000000000"`
	DataQualityIVCeiling       float64 `yaml:"data_quality_iv_ceiling" default:"300"`

	// Structure confidence thresholds.
	MultiLegConfThresh   float64 `yaml:"multileg_conf_thresh" default:"40.0"`
	SingleLegConfThresh  float64 `yaml:"singleleg_conf_thresh" default:"70.0"`
	ContingentConfThresh float64 `yaml:"contingent_conf_thresh" default:"10.0"`

	// IndexSymbols get index thresholds (put-heavy flow is normal there).
	IndexSymbols []string `yaml:"index_symbols"`
}

// EffectiveFor returns the thresholds for a symbol, substituting index
// thresholds for configured index tickers.
func (s Scoring) EffectiveFor(symbol string) Scoring {
	if !s.IsIndex(symbol) {
		return s
	}
	cfg := s
	cfg.PutPctBear = 65.0
	cfg.PutPctBull = 50.0
	cfg.CallPutRatioBull = 1.0
	return cfg
}

// IsIndex reports whether the symbol is a configured index ticker.
func (s Scoring) IsIndex(symbol string) bool {
	for _, t := range s.IndexSymbols {
		if strings.EqualFold(t, symbol) {
			return true
		}
	}
	return false
}

// Coefficient configures one adaptive parameter: base value, hard bounds,
// and the EMA smoothing span.
type Coefficient struct {
	Base float64 `yaml:"base"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Span int     `yaml:"span"`
}

// Dynamic configures the adaptive-parameter layer.
type Dynamic struct {
	// Enabled defaults to true; a pointer so an explicit false in YAML
	// survives the defaults pass.
	Enabled *bool       `yaml:"enabled"`
	Beta    Coefficient `yaml:"beta"`
	Lambda  Coefficient `yaml:"lambda"`
	Alpha   Coefficient `yaml:"alpha"`
}

// IsEnabled reports the effective flag: true unless explicitly disabled.
func (d Dynamic) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.applyDefaults(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Default returns a configuration with every default applied and no file.
func Default() (*Config, error) {
	var c Config
	c.Environment = "development"
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("VIX_SOURCE_URL"); v != "" {
		c.VIX.SourceURL = v
	}
	if v := os.Getenv("VIX_API_KEY"); v != "" {
		c.VIX.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Host = host
		if found {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("REDIS_ADDR: invalid port %q", port)
			}
			c.Redis.Port = p
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	if c.Metrics.Enabled == nil {
		t := true
		c.Metrics.Enabled = &t
	}
	if c.Dynamic.Enabled == nil {
		t := true
		c.Dynamic.Enabled = &t
	}
	if len(c.Scoring.IndexSymbols) == 0 {
		c.Scoring.IndexSymbols = []string{"SPY", "QQQ", "IWM", "DIA"}
	}
	if c.Dynamic.Beta == (Coefficient{}) {
		c.Dynamic.Beta = Coefficient{Base: 0.25, Min: 0.20, Max: 0.40, Span: 10}
	}
	if c.Dynamic.Lambda == (Coefficient{}) {
		c.Dynamic.Lambda = Coefficient{Base: 0.45, Min: 0.35, Max: 0.55, Span: 10}
	}
	if c.Dynamic.Alpha == (Coefficient{}) {
		c.Dynamic.Alpha = Coefficient{Base: 0.45, Min: 0.35, Max: 0.60, Span: 20}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.History.Backend != "memory" && c.History.Backend != "redis" {
		return fmt.Errorf("history.backend must be 'memory' or 'redis', got '%s'", c.History.Backend)
	}
	if c.History.Window <= 0 {
		return fmt.Errorf("history.window must be positive")
	}
	if c.History.MinSamples <= 1 {
		return fmt.Errorf("history.min_samples must be > 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	for name, co := range map[string]Coefficient{"beta": c.Dynamic.Beta, "lambda": c.Dynamic.Lambda, "alpha": c.Dynamic.Alpha} {
		if co.Min > co.Max {
			return fmt.Errorf("dynamic.%s: min > max", name)
		}
		if co.Span <= 0 {
			return fmt.Errorf("dynamic.%s: span must be positive", name)
		}
	}
	return nil
}
