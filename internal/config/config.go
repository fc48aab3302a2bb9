package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPort is the port of the Raumfeld host web service.
const DefaultPort = 47365

type Config struct {
	Host        string
	Port        int
	DefaultZone []string
}

type fileConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	DefaultZone []string `json:"defaultZone"`
}

func init() {
	_ = godotenv.Load()
}

func Load() Config {
	fc := loadFileConfig()

	host := firstNonEmpty(os.Getenv("RAUMFELD_HOST"), fc.Host)

	port := fc.Port
	if env := os.Getenv("RAUMFELD_PORT"); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			port = n
		}
	}
	if port == 0 {
		port = DefaultPort
	}

	zone := fc.DefaultZone
	if env := os.Getenv("RAUMFELD_DEFAULT_ZONE"); env != "" {
		zone = SplitRooms(env)
	}

	return Config{
		Host:        host,
		Port:        port,
		DefaultZone: zone,
	}
}

// SplitRooms parses a comma-separated room list.
func SplitRooms(s string) []string {
	parts := strings.Split(s, ",")
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			rooms = append(rooms, p)
		}
	}
	return rooms
}

func loadFileConfig() fileConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		return fileConfig{}
	}
	configPath := filepath.Join(home, ".config", "raumfeld-cli", "config.json")
	b, err := os.ReadFile(configPath)
	if err != nil {
		return fileConfig{}
	}
	var fc fileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return fileConfig{}
	}
	return fc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
