package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig conexión a PostgreSQL.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN cadena de conexión lib/pq.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config configuración del servicio de seguimiento.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	Seguimiento struct {
		// Umbrales de las reglas de cumplimiento
		ControlAltaDias   int // atraso de control que escala a Alta
		TptNoIniciadaDias int // días sin inicio de TPT antes de alertar

		// Corrida periódica del lote
		IntervaloHoras int // horas entre pasadas
		Trabajadores   int // familias de caso evaluadas en paralelo

		// Cache de resúmenes en Redis
		Cache struct {
			ResumenKeyPrefix string // prefijo de clave, p.ej. "seguimiento:caso:"
			ResumenSuffix    string // sufijo, p.ej. ":resumen"
			ResumenTTL       int    // TTL en segundos
		}
	}

	HTTP struct {
		Addr string
	}

	// URL del sink de log de integración (opaco, solo escritura);
	// cadena vacía = deshabilitado.
	IntegracionURL string

	Log struct {
		Level  string
		Format string
	}
}

// Load carga la configuración desde variables de entorno con valores por
// defecto.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "tbc_seguimiento")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Seguimiento.ControlAltaDias = getEnvInt("SEGUIMIENTO_CONTROL_ALTA_DIAS", 15)
	cfg.Seguimiento.TptNoIniciadaDias = getEnvInt("SEGUIMIENTO_TPT_NO_INICIADA_DIAS", 30)
	cfg.Seguimiento.IntervaloHoras = getEnvInt("SEGUIMIENTO_INTERVALO_HORAS", 24)
	cfg.Seguimiento.Trabajadores = getEnvInt("SEGUIMIENTO_TRABAJADORES", 4)

	cfg.Seguimiento.Cache.ResumenKeyPrefix = getEnv("CACHE_RESUMEN_PREFIX", "seguimiento:caso:")
	cfg.Seguimiento.Cache.ResumenSuffix = ":resumen"
	cfg.Seguimiento.Cache.ResumenTTL = getEnvInt("CACHE_RESUMEN_TTL", 86400)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8085")

	cfg.IntegracionURL = getEnv("INTEGRACION_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
