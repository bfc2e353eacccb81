package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	PoolSize int    `yaml:"poolSize"` // 连接池大小，0 表示使用默认值
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// SQLConfig 选择事实版本表所在的关系型数据库。
type SQLConfig struct {
	Driver     string      `yaml:"driver"`     // "mysql" 或 "sqlite"
	MySQL      MySQLConfig `yaml:"mysql"`      // MySQL 配置
	SQLitePath string      `yaml:"sqlitePath"` // SQLite 文件路径，":memory:" 表示内存库
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address    string `yaml:"address"`    // MongoDB 服务器地址
	Username   string `yaml:"username"`   // 用户名
	Password   string `yaml:"password"`   // 密码
	Database   string `yaml:"database"`   // 数据库名称
	Collection string `yaml:"collection"` // 决策审计集合
}

// Neo4jConfig 定义了 Neo4j 图数据库的连接配置。
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`      // Neo4j 数据库URI (例如: "bolt://localhost:7687")
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// EtcdConfig 定义了 Etcd 服务发现的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
	Username  string   `yaml:"username"`  // 用户名
	Password  string   `yaml:"password"`  // 密码
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`        // Kafka Broker 地址列表
	StatementTopic string   `yaml:"statementTopic"` // 上游陈述主题
	DecisionTopic  string   `yaml:"decisionTopic"`  // 决策结果主题
	GroupID        string   `yaml:"groupID"`        // 消费者组
}

// Topics 返回服务需要的全部主题。
func (k KafkaConfig) Topics() []string {
	var topics []string
	for _, t := range []string{k.StatementTopic, k.DecisionTopic} {
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// DatabaseConfigs 包含所有数据库的配置。
// 某个组件的地址为空时，服务会跳过该组件。
type DatabaseConfigs struct {
	SQL     SQLConfig   `yaml:"sql"`     // 事实版本表
	Redis   RedisConfig `yaml:"redis"`   // 会话时间窗口
	MongoDB MongoConfig `yaml:"mongodb"` // 审计日志
	Neo4j   Neo4jConfig `yaml:"neo4j"`   // 图投影
	Etcd    EtcdConfig  `yaml:"etcd"`    // 服务注册
	Kafka   KafkaConfig `yaml:"kafka"`   // 陈述消费与决策发布
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// RateLimitConfig 定义了 HTTP 令牌桶限流配置。
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"`  // 每秒补充的令牌数
	Burst   int     `yaml:"burst"` // 桶容量
}

// CircuitBreakerConfig 定义了熔断器配置，用于保护图投影、决策发布等下游调用。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Timeout          string `yaml:"timeout"`          // 熔断持续时间，例如 "30s"
}

// TimeoutDuration 解析 Timeout。
func (c CircuitBreakerConfig) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("无效的熔断超时 '%s': %w", c.Timeout, err)
	}
	return d, nil
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Address          string          `yaml:"address"`          // 监听地址
	AdvertiseAddress string          `yaml:"advertiseAddress"` // 注册到 etcd 的地址
	RegisterTTL      int64           `yaml:"registerTTL"`      // 注册租约 (秒)
	RateLimit        RateLimitConfig `yaml:"rateLimit"`
}

// ThresholdConfig 是候选动作的接受阈值。
type ThresholdConfig struct {
	Update float64 `yaml:"update"`
	Merge  float64 `yaml:"merge"`
}

// PolicyConfig 覆盖一类事实的决策常量。
type PolicyConfig struct {
	OverlapGapDays int             `yaml:"overlapGapDays"`
	SplitGapDays   int             `yaml:"splitGapDays"`
	Normal         ThresholdConfig `yaml:"normal"`
	Risk           ThresholdConfig `yaml:"risk"`
}

// DecisionConfig 定义了记忆服务的决策方式。
type DecisionConfig struct {
	Mode           string       `yaml:"mode"`           // "gated"：规则 + 置信度门控；"rule"：仅规则
	LookbackMonths int          `yaml:"lookbackMonths"` // 挑选当前记录的回看月数
	WindowGapDays  int          `yaml:"windowGapDays"`  // 时间窗口合并间隔
	SessionTTL     string       `yaml:"sessionTTL"`     // 会话窗口与被拒陈述的保留时间，例如 "24h"
	Medication     PolicyConfig `yaml:"medication"`
	Symptom        PolicyConfig `yaml:"symptom"`
}

// 决策模式。
const (
	ModeGated = "gated"
	ModeRule  = "rule"
)

// Lookback 返回回看时长，按每月 30 天计。
func (d DecisionConfig) Lookback() time.Duration {
	return time.Duration(d.LookbackMonths) * 30 * 24 * time.Hour
}

// SessionTTLDuration 解析 SessionTTL。
func (d DecisionConfig) SessionTTLDuration() (time.Duration, error) {
	ttl, err := time.ParseDuration(d.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("无效的 sessionTTL '%s': %w", d.SessionTTL, err)
	}
	return ttl, nil
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Server    ServerConfig    `yaml:"server"`    // HTTP 服务配置
	Decision  DecisionConfig  `yaml:"decision"`  // 决策配置
	Databases DatabaseConfigs `yaml:"databases"` // 数据库配置

	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"` // 下游调用熔断
}

// Default 返回所有字段都填好默认值的配置。
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *AppConfig) applyDefaults() {
	setString(&c.App.Name, "memory_service")
	setString(&c.App.Environment, "development")
	setString(&c.Logger.Level, "info")

	setString(&c.Server.Address, ":8090")
	if c.Server.RegisterTTL <= 0 {
		c.Server.RegisterTTL = 10
	}
	if c.Server.RateLimit.Rate <= 0 {
		c.Server.RateLimit.Rate = 50
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = 100
	}

	cb := &c.CircuitBreaker
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 5
	}
	if cb.SuccessThreshold == 0 {
		cb.SuccessThreshold = 2
	}
	setString(&cb.Timeout, "30s")

	d := &c.Decision
	setString(&d.Mode, ModeGated)
	if d.LookbackMonths <= 0 {
		d.LookbackMonths = 12
	}
	if d.WindowGapDays <= 0 {
		d.WindowGapDays = 7
	}
	setString(&d.SessionTTL, "24h")
	defaultPolicy(&d.Medication, 0, 7, ThresholdConfig{0.75, 0.70}, ThresholdConfig{0.80, 0.75})
	defaultPolicy(&d.Symptom, 14, 14, ThresholdConfig{0.72, 0.68}, ThresholdConfig{0.78, 0.74})

	db := &c.Databases
	setString(&db.SQL.Driver, "sqlite")
	setString(&db.SQL.SQLitePath, "memory.db")
	setString(&db.MongoDB.Database, "medmemory")
	setString(&db.MongoDB.Collection, "decisions")
	setString(&db.Kafka.StatementTopic, "medical_statements")
	setString(&db.Kafka.DecisionTopic, "memory_decisions")
	setString(&db.Kafka.GroupID, "memory-service")
}

// 间隔允许为 0（用药的重叠间隔就是 0），所以只在整个块都未配置时填默认值。
func defaultPolicy(p *PolicyConfig, overlap, split int, normal, risk ThresholdConfig) {
	if p.OverlapGapDays == 0 && p.SplitGapDays == 0 {
		p.OverlapGapDays, p.SplitGapDays = overlap, split
	}
	if p.Normal == (ThresholdConfig{}) {
		p.Normal = normal
	}
	if p.Risk == (ThresholdConfig{}) {
		p.Risk = risk
	}
}

func setString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate 检查配置中的枚举值与取值范围。
func (c *AppConfig) Validate() error {
	switch c.Decision.Mode {
	case ModeGated, ModeRule:
	default:
		return fmt.Errorf("未知的决策模式: %q", c.Decision.Mode)
	}
	switch c.Databases.SQL.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("未知的数据库驱动: %q", c.Databases.SQL.Driver)
	}
	for name, p := range map[string]PolicyConfig{"medication": c.Decision.Medication, "symptom": c.Decision.Symptom} {
		if p.OverlapGapDays < 0 || p.SplitGapDays < 0 {
			return fmt.Errorf("%s 的间隔天数不能为负数", name)
		}
		if p.Risk.Update < p.Normal.Update || p.Risk.Merge < p.Normal.Merge {
			return fmt.Errorf("%s 的高风险阈值不能低于普通阈值", name)
		}
	}
	if _, err := c.Decision.SessionTTLDuration(); err != nil {
		return err
	}
	if _, err := c.CircuitBreaker.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析并补齐默认值后的应用程序配置结构体。
//	error: 如果文件读取、解析或校验失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	return Parse(yamlFile)
}

// Parse 解析 YAML 内容，补齐默认值并校验。
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}
