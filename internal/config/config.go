package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LogZapMode               string `mapstructure:"LOG_ZAP_MODE"`
	PrintConfigurationToLogs string `mapstructure:"PRINT_CONFIGURATION_TO_LOGS"`

	SqlitePath       string `mapstructure:"SQLITE_PATH"`
	BadgerPath       string `mapstructure:"BADGER_PATH"`
	MintCacheBackend string `mapstructure:"MINT_CACHE_BACKEND"`

	ExplorerApiUrl           string `mapstructure:"EXPLORER_API_URL"`
	ExplorerApiKey           string `mapstructure:"EXPLORER_API_KEY" json:"-"`
	ExplorerCallDelayMs      int    `mapstructure:"EXPLORER_CALL_DELAY_MS"`
	ExplorerLogPageSize      int    `mapstructure:"EXPLORER_LOG_PAGE_SIZE"`
	ExplorerLogMaxPages      int    `mapstructure:"EXPLORER_LOG_MAX_PAGES"`
	ExplorerTransferPageSize int    `mapstructure:"EXPLORER_TRANSFER_PAGE_SIZE"`
	ExplorerTransferMaxPages int    `mapstructure:"EXPLORER_TRANSFER_MAX_PAGES"`

	MetadataApiUrl string `mapstructure:"METADATA_API_URL"`

	ContractAddress         string `mapstructure:"CONTRACT_ADDRESS"`
	OperatorWallets         string `mapstructure:"OPERATOR_WALLETS"`
	CandidateAddresses      string `mapstructure:"CANDIDATE_ADDRESSES"`
	Categories              string `mapstructure:"CATEGORIES"`
	CategorySize            int    `mapstructure:"CATEGORY_SIZE"`
	AssumeSequentialMinting string `mapstructure:"ASSUME_SEQUENTIAL_MINTING"`
	TimeZone                string `mapstructure:"TIME_ZONE"`

	DiscordWebhookUrl   string `mapstructure:"DISCORD_WEBHOOK_URL" json:"-"`
	DiscordNotifyUserId string `mapstructure:"DISCORD_NOTIFY_USER_ID"`
	CreateNftUrl        string `mapstructure:"CREATE_NFT_URL"`
	AlertEmails         string `mapstructure:"ALERT_EMAILS"`
	SmtpHost            string `mapstructure:"SMTP_HOST"`
	SmtpPort            int    `mapstructure:"SMTP_PORT"`
	SmtpUsername        string `mapstructure:"SMTP_USERNAME"`
	SmtpPassword        string `mapstructure:"SMTP_PASSWORD" json:"-"`
	SmtpFrom            string `mapstructure:"SMTP_FROM"`

	RPCPort     int    `mapstructure:"RPC_PORT"`
	RunInterval string `mapstructure:"RUN_INTERVAL"`

	HttpRetryMaxElapsed string `mapstructure:"HTTP_RETRY_MAX_ELAPSED"`
}

var lock = &sync.Mutex{}
var config *Config

var Get = get

func get() Config {
	if config == nil {
		lock.Lock()
		defer lock.Unlock()
		if config == nil {
			c := loadConfig()
			config = &c
		}
	}
	return *config
}

// LoadEnvFiles copies dotenv files into the process environment before the first Get.
// Missing files are skipped and variables already set are kept.
func LoadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("failed to load env file %s: %v", path, err)
		}
	}
}

func loadConfig() Config {
	viperAddConfigFile()
	viperAddEnv()
	cfg := initializeCfg()
	debugConfig(cfg)
	return cfg
}

func viperAddConfigFile() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
}

func viperAddEnv() {
	viper.AutomaticEnv()
	// This makes sure that all envs are binded even if they are not represented in config file (https://github.com/spf13/viper/issues/584)
	valueOfConfig := reflect.ValueOf(&Config{}).Elem()
	fieldsOfConfig := reflect.TypeOf(&Config{}).Elem()
	for i := 0; i < valueOfConfig.NumField(); i++ {
		field, _ := fieldsOfConfig.FieldByName(valueOfConfig.Type().Field(i).Name)
		mapStructureVal := field.Tag.Get("mapstructure")
		err := viper.BindEnv(mapStructureVal)
		if err != nil {
			panic(fmt.Sprintf("Error binding env val '%v': %v", mapStructureVal, err))
		}
	}
}

func initializeCfg() Config {
	var cfg Config
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		} else {
			panic(fmt.Sprintf("fatal error reading config file: %v", err))
		}
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(fmt.Sprintf("error unmarshaling config: %v", err))
	}
	return cfg
}

func debugConfig(cfg Config) {
	if cfg.PrintConfigurationToLogs == "true" {
		b, err := json.Marshal(cfg)
		var result string
		if err != nil {
			result = "[FAILED TO CONVERT CONF TO STRING]"
		} else {
			result = string(b)
		}
		log.Printf("[APP CONFIGURATION]: %v\n", result)
	}
}

const (
	defaultSqlitePath       = "./db/sqlite/ringstats"
	defaultBadgerPath       = "./db/badger/mintcache"
	defaultExplorerApiUrl   = "https://api.polygonscan.com/api"
	defaultMetadataApiUrl   = "https://api01.genso.game/api/genso_v2_metadata/"
	defaultContractAddress  = "0x0a77f356cf1de1727145e66c92254881ac3da34b"
	defaultCategories       = "生命=100000000667,経験=100000000669,幸運=100000000670,知力=100000000672,器用=100000000673,体力=100000000674,速さ=100000000675,精神=100000000676"
	defaultCategorySize     = 200
	defaultExplorerDelay    = 250 * time.Millisecond
	defaultLogPageSize      = 1000
	defaultLogMaxPages      = 3
	defaultTransferPageSize = 1000
	defaultTransferMaxPages = 10
	defaultTimeZone         = "Asia/Tokyo"
	defaultCreateNftUrl     = "https://market.genso.game/create-nft/"
	defaultSmtpPort         = 587
	defaultRPCPort          = 8080
	defaultHttpRetryElapsed = 30 * time.Second
	// Known minter wallets, oldest first.
	defaultMinterWallets = "0x364a2353488a09a6625384c9b0625712afd694ef,0x78a3b0a018b9763a67dcfbae7ba7e2e47b9e341f"
)

func (c Config) SqlitePathOrDefault() string {
	return orDefault(c.SqlitePath, defaultSqlitePath)
}

func (c Config) BadgerPathOrDefault() string {
	return orDefault(c.BadgerPath, defaultBadgerPath)
}

func (c Config) MintCacheBackendOrDefault() string {
	return strings.ToLower(orDefault(c.MintCacheBackend, "sqlite"))
}

func (c Config) ExplorerApiUrlOrDefault() string {
	return orDefault(c.ExplorerApiUrl, defaultExplorerApiUrl)
}

func (c Config) MetadataApiUrlOrDefault() string {
	return orDefault(c.MetadataApiUrl, defaultMetadataApiUrl)
}

func (c Config) ContractAddressOrDefault() string {
	return strings.ToLower(orDefault(c.ContractAddress, defaultContractAddress))
}

func (c Config) CreateNftUrlOrDefault() string {
	return orDefault(c.CreateNftUrl, defaultCreateNftUrl)
}

func (c Config) ExplorerCallDelay() time.Duration {
	if c.ExplorerCallDelayMs <= 0 {
		return defaultExplorerDelay
	}
	return time.Duration(c.ExplorerCallDelayMs) * time.Millisecond
}

func (c Config) LogPageSize() int {
	return positiveOr(c.ExplorerLogPageSize, defaultLogPageSize)
}

func (c Config) LogMaxPages() int {
	return positiveOr(c.ExplorerLogMaxPages, defaultLogMaxPages)
}

func (c Config) TransferPageSize() int {
	return positiveOr(c.ExplorerTransferPageSize, defaultTransferPageSize)
}

func (c Config) TransferMaxPages() int {
	return positiveOr(c.ExplorerTransferMaxPages, defaultTransferMaxPages)
}

func (c Config) CategorySizeOrDefault() int {
	return positiveOr(c.CategorySize, defaultCategorySize)
}

func (c Config) SmtpPortOrDefault() int {
	return positiveOr(c.SmtpPort, defaultSmtpPort)
}

func (c Config) RPCPortOrDefault() int {
	return positiveOr(c.RPCPort, defaultRPCPort)
}

// SequentialMinting defaults to true; only an explicit "false" disables it.
func (c Config) SequentialMinting() bool {
	return !strings.EqualFold(strings.TrimSpace(c.AssumeSequentialMinting), "false")
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(orDefault(c.TimeZone, defaultTimeZone))
	if err != nil {
		log.Printf("unknown TIME_ZONE %q, falling back to UTC: %v", c.TimeZone, err)
		return time.UTC
	}
	return loc
}

// RunIntervalDuration is zero when periodic runs are disabled.
func (c Config) RunIntervalDuration() time.Duration {
	if c.RunInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RunInterval)
	if err != nil {
		log.Printf("invalid RUN_INTERVAL %q: %v", c.RunInterval, err)
		return 0
	}
	return d
}

// HTTPRetryMaxElapsed bounds retries of the explorer and metadata calls. "0" disables retrying.
func (c Config) HTTPRetryMaxElapsed() time.Duration {
	if strings.TrimSpace(c.HttpRetryMaxElapsed) == "" {
		return defaultHttpRetryElapsed
	}
	d, err := time.ParseDuration(c.HttpRetryMaxElapsed)
	if err != nil || d < 0 {
		log.Printf("invalid HTTP_RETRY_MAX_ELAPSED %q, using %s", c.HttpRetryMaxElapsed, defaultHttpRetryElapsed)
		return defaultHttpRetryElapsed
	}
	return d
}

// OperatorWalletList keeps the configured order; newer wallets are expected to be appended.
func (c Config) OperatorWalletList() []string {
	return splitAddresses(orDefault(c.OperatorWallets, defaultMinterWallets))
}

func (c Config) CandidateAddressList() []string {
	return splitAddresses(orDefault(c.CandidateAddresses, defaultMinterWallets))
}

func (c Config) AlertEmailList() []string {
	return splitList(c.AlertEmails)
}

// CategoryPairs parses CATEGORIES ("name=prefix,name=prefix") preserving order.
func (c Config) CategoryPairs() ([][2]string, error) {
	raw := orDefault(c.Categories, defaultCategories)
	var pairs [][2]string
	for _, entry := range splitList(raw) {
		name, prefix, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid CATEGORIES entry %q, expected name=prefix", entry)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(name), strings.TrimSpace(prefix)})
	}
	return pairs, nil
}

func splitAddresses(s string) []string {
	items := splitList(s)
	for i := range items {
		items[i] = strings.ToLower(items[i])
	}
	return items
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
