package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del cliente de sincronización (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	API       APIConfig
	Transport TransportConfig
	Sync      SyncConfig
	Peer      PeerConfig
	Login     LoginConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// APIConfig colaborador REST (CRUD, login, merma).
type APIConfig struct {
	BaseURL string
	Token   string // opcional: token ya emitido, evita el login
	Timeout time.Duration
}

// TransportConfig canal pub/sub. Kind: "ws" (socket) o "nats".
type TransportConfig struct {
	Kind       string
	WSURL      string // equivalente a apiWsUrl
	Namespace  string // "/inventario"
	NATSURL    string
	NATSPrefix string
	NATSToken  string // credencial propia de NATS; el token de sesión no se usa aquí
}

// SocketURL devuelve la URL completa del socket (base + namespace).
func (c TransportConfig) SocketURL() string {
	return strings.TrimRight(c.WSURL, "/") + "/" + strings.TrimLeft(c.Namespace, "/")
}

// SyncConfig parámetros del motor de sincronización.
type SyncConfig struct {
	RequestTimeout    time.Duration
	ChannelPolicy     string // queue | supersede
	RecentLimit       int
	RecentConcurrency int
}

// PeerConfig servidor de desarrollo (cmd/peer).
type PeerConfig struct {
	Host      string
	Port      int
	SeedFile  string
	JWTSecret string
	NATSPort  int    // 0 = sin servidor NATS embebido
	DocsFile  string // spec OpenAPI generado por swag; si no existe no se sirve /docs
}

// Addr devuelve la dirección de escucha (host:port).
func (c PeerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoginConfig credenciales para el login inicial de cmd/sync (no se persisten).
type LoginConfig struct {
	Email    string
	Password string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, API_BASE_URL, WS_URL, SYNC_REQUEST_TIMEOUT, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-sync"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		API: APIConfig{
			BaseURL: getString(v, "API_BASE_URL", "http://localhost:3000"),
			Token:   getString(v, "API_TOKEN", ""),
			Timeout: getDuration(v, "API_TIMEOUT", 15*time.Second),
		},
		Transport: TransportConfig{
			Kind:       getString(v, "TRANSPORT", "ws"),
			WSURL:      getString(v, "WS_URL", "ws://localhost:3000"),
			Namespace:  getString(v, "WS_NAMESPACE", "/inventario"),
			NATSURL:    getString(v, "NATS_URL", "nats://localhost:4222"),
			NATSPrefix: getString(v, "NATS_PREFIX", "inventario"),
			NATSToken:  getString(v, "NATS_TOKEN", ""),
		},
		Sync: SyncConfig{
			RequestTimeout:    getDuration(v, "SYNC_REQUEST_TIMEOUT", 10*time.Second),
			ChannelPolicy:     getString(v, "SYNC_CHANNEL_POLICY", "queue"),
			RecentLimit:       getInt(v, "SYNC_RECENT_LIMIT", 5),
			RecentConcurrency: getInt(v, "SYNC_RECENT_CONCURRENCY", 1),
		},
		Peer: PeerConfig{
			Host:      getString(v, "PEER_HOST", "0.0.0.0"),
			Port:      getInt(v, "PEER_PORT", 3000),
			SeedFile:  getString(v, "PEER_SEED_FILE", ""),
			JWTSecret: getString(v, "PEER_JWT_SECRET", ""),
			NATSPort:  getInt(v, "PEER_NATS_PORT", 0),
			DocsFile:  getString(v, "PEER_SWAGGER_FILE", "./docs/swagger.json"),
		},
		Login: LoginConfig{
			Email:    getString(v, "LOGIN_EMAIL", ""),
			Password: getString(v, "LOGIN_PASSWORD", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport.Kind {
	case "ws", "nats":
	default:
		return fmt.Errorf("TRANSPORT inválido %q (ws|nats)", c.Transport.Kind)
	}
	switch c.Sync.ChannelPolicy {
	case "queue", "supersede":
	default:
		return fmt.Errorf("SYNC_CHANNEL_POLICY inválido %q (queue|supersede)", c.Sync.ChannelPolicy)
	}
	if c.Sync.RequestTimeout <= 0 {
		return fmt.Errorf("SYNC_REQUEST_TIMEOUT debe ser positivo")
	}
	if c.Sync.RecentConcurrency < 1 {
		c.Sync.RecentConcurrency = 1
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration acepta "10s", "500ms" o un entero en milisegundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
