package configuration

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri      string `json:"uri"`
	Database string `json:"database"`
}

type ServerConfig struct {
	AppPort    int `json:"app_port"`
	SocketPort int `json:"socket_port"`
}

type AuthConfig struct {
	JwtKey        string `json:"jwt_key"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type RedisConfig struct {
	Addr    string `json:"addr"`
	Channel string `json:"channel"`
}

type StorageConfig struct {
	CloudinaryURL string `json:"cloudinary_url"`
}

type Config struct {
	Mongo        MongoConfig   `json:"mongo"`
	Server       ServerConfig  `json:"server"`
	Auth         AuthConfig    `json:"auth"`
	Redis        RedisConfig   `json:"redis"`
	Storage      StorageConfig `json:"storage"`
	AllowOrigins []string      `json:"allow_origins"`
}

// LoadConfig reads the JSON config file, then lets environment variables
// override the secret-bearing fields so deployments never need secrets on
// disk. A .env file is honored when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if v := os.Getenv("MONGO_URI"); v != "" {
		config.Mongo.Uri = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		config.Mongo.Database = v
	}
	if v := os.Getenv("JWT_KEY"); v != "" {
		config.Auth.JwtKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv("CLOUDINARY_URL"); v != "" {
		config.Storage.CloudinaryURL = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.AppPort = port
		}
	}
	if v := os.Getenv("SOCKET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.SocketPort = port
		}
	}

	return &config, nil
}
