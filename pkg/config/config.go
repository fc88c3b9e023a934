package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// 环境变量名称（通用形式和带前缀形式均可）
const (
	EnvConfigDir         = "CONFIG_DIR"
	EnvConfigDirPrefixed = "GA_CONFIG_DIR"
	EnvProfile           = "ACTIVE_PROFILE"
	EnvProfilePrefixed   = "GA_ACTIVE_PROFILE"

	// EnvPrefix 环境变量配置前缀，嵌套层级用双下划线分隔
	// 例如 GA_SERVER__PORT=9000 等价于 server.port: 9000
	EnvPrefix = "GA_"

	defaultConfigDir = "resources"
	defaultProfile   = "dev"
)

var (
	once   sync.Once
	config *Config
)

// Config 全局配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Profile string `mapstructure:"profile"`
	Version string `mapstructure:"version"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`
	WriteTimeout int    `mapstructure:"writeTimeout"`
}

// Addr 获取监听地址
func (c *ServerConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 3000
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// AuthConfig 认证配置
type AuthConfig struct {
	Mode              string   `mapstructure:"mode"` // "local" 本地令牌表, "remote" 远程校验, "jwt" 无状态令牌
	IgnoredUrls       []string `mapstructure:"ignoredUrls"`
	TenantIgnoredUrls []string `mapstructure:"tenantIgnoredUrls"`
	HeaderKeyToken    string   `mapstructure:"headerKeyToken"`
	HeaderKeyTenant   string   `mapstructure:"headerKeyTenant"`
	TokenExpire       int64    `mapstructure:"tokenExpire"` // 秒
	TokenCheckURL     string   `mapstructure:"tokenCheckUrl"`
	TenantCheckURL    string   `mapstructure:"tenantCheckUrl"`
	SuperAdminCode    string   `mapstructure:"superAdminCode"`
}

// GetMode 获取认证模式
func (c *AuthConfig) GetMode() string {
	if c.Mode == "" {
		return "local"
	}
	return c.Mode
}

// TokenHeader 获取令牌请求头名称
func (c *AuthConfig) TokenHeader() string {
	if c.HeaderKeyToken == "" {
		return "Authorization"
	}
	return c.HeaderKeyToken
}

// TenantHeader 获取租户请求头名称
func (c *AuthConfig) TenantHeader() string {
	if c.HeaderKeyTenant == "" {
		return "tenant-id"
	}
	return c.HeaderKeyTenant
}

// TokenExpiration 获取令牌有效期
func (c *AuthConfig) TokenExpiration() time.Duration {
	if c.TokenExpire <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.TokenExpire) * time.Second
}

// SuperAdmin 获取超级管理员角色编码
func (c *AuthConfig) SuperAdmin() string {
	if c.SuperAdminCode == "" {
		return "super_admin"
	}
	return c.SuperAdminCode
}

// IsIgnoredAuth 判断路径是否豁免令牌校验
func (c *AuthConfig) IsIgnoredAuth(path string) bool {
	return anyGlobMatch(c.IgnoredUrls, path)
}

// IsIgnoredTenant 判断路径是否豁免租户校验
func (c *AuthConfig) IsIgnoredTenant(path string) bool {
	return anyGlobMatch(c.TenantIgnoredUrls, path)
}

// anyGlobMatch 判断路径是否匹配任一通配符模式
// 模式支持 * 和 **，区分大小写，必须匹配完整路径
func anyGlobMatch(patterns []string, path string) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	LogLevel     string `mapstructure:"logLevel"`
}

// DSN 生成数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.Username, c.Password, c.Database)
	case "sqlite":
		if c.Database == "" {
			return ":memory:"
		}
		return c.Database
	default:
		return ""
	}
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	PoolSize       int    `mapstructure:"poolSize"`
	Mode           string `mapstructure:"mode"` // "standalone" 外部 Redis, "memory" 内存模式
	CacheKeyPrefix string `mapstructure:"cacheKeyPrefix"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KeyPrefix 获取缓存键前缀
func (c *RedisConfig) KeyPrefix() string {
	if c.CacheKeyPrefix == "" {
		return "goadmin"
	}
	return c.CacheKeyPrefix
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
	Expire int64  `mapstructure:"expire"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// Load 加载配置，幂等：已加载后再次调用直接成功返回，不做任何IO
//
// 配置来源按固定顺序合并，后加载的来源只覆盖自己显式声明的键，
// 未声明的键保留先前来源的值：
//
//	{dir}/application.yaml
//	{dir}/application-{profile}.yaml
//	{dir}/{app}.yaml
//	{dir}/{app}-{profile}.yaml
//	GA_ 前缀环境变量（双下划线分层）
//
// 文件不存在不是错误；YAML格式错误或反序列化失败会中止启动
func Load(appName string) error {
	var err error
	once.Do(func() {
		config, err = load(appName)
	})
	return err
}

// load 执行实际的分层加载
func load(appName string) (*Config, error) {
	configDir := envOr(EnvConfigDir, EnvConfigDirPrefixed, defaultConfigDir)
	profile := envOr(EnvProfile, EnvProfilePrefixed, defaultProfile)

	v := viper.New()
	v.SetConfigType("yaml")

	files := []string{
		filepath.Join(configDir, "application.yaml"),
		filepath.Join(configDir, fmt.Sprintf("application-%s.yaml", profile)),
		filepath.Join(configDir, appName+".yaml"),
		filepath.Join(configDir, fmt.Sprintf("%s-%s.yaml", appName, profile)),
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	mergeEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.App.Name = appName
	cfg.App.Profile = profile
	return cfg, nil
}

// mergeEnv 合并带前缀的环境变量，优先级最高
func mergeEnv(v *viper.Viper) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		pair := strings.SplitN(strings.TrimPrefix(env, EnvPrefix), "=", 2)
		if len(pair) != 2 || pair[0] == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(pair[0]), "__", ".")
		v.Set(key, pair[1])
	}
}

// envOr 依次尝试两个环境变量名，都未设置时返回默认值
func envOr(name, prefixedName, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value := os.Getenv(prefixedName); value != "" {
		return value
	}
	return fallback
}

// SetForTesting 注入配置实例，仅用于测试
func SetForTesting(cfg *Config) {
	config = cfg
}

// Get 获取配置实例
func Get() *Config {
	if config == nil {
		panic("config not loaded, call Load first")
	}
	return config
}

// GetAuth 获取认证配置
func GetAuth() *AuthConfig {
	return &Get().Auth
}

// GetRedis 获取Redis配置
func GetRedis() *RedisConfig {
	return &Get().Redis
}

// GetDatabase 获取数据库配置
func GetDatabase() *DatabaseConfig {
	return &Get().Database
}

// GetJWT 获取JWT配置
func GetJWT() *JWTConfig {
	return &Get().JWT
}

// GetLog 获取日志配置
func GetLog() *LogConfig {
	return &Get().Log
}

// IsDev 是否为开发环境
func IsDev() bool {
	return Get().App.Profile == "dev"
}
