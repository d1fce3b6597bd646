package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var values map[string]string

// GetEnv returns the value for key from the loaded .env file, falling back to
// the process environment (Docker, CI) and finally to def.
func GetEnv(key, def string) string {
	if val, ok := values[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found relative to the working
// directory. Running without one is fine as long as the process environment
// carries the required variables.
func SetupEnvFile() {
	for _, envFile := range []string{".env", "../../.env", "../../../.env"} {
		loaded, err := godotenv.Read(envFile)
		if err == nil {
			values = loaded
			return
		}
	}
	log.Warn("[Env] No .env file found, relying on process environment")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
