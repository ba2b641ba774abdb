package main

import "os"

type config struct {
	WakuRestURL string
	TorSocks    string
	ChainsDir   string
	Chain       string
	Host        string
	Port        string
	LogLevel    string
}

func loadConfig() config {
	return config{
		WakuRestURL: getEnv("WAKU_REST_URL", "http://127.0.0.1:8645"),
		TorSocks:    getEnv("TOR_SOCKS5", ""),
		ChainsDir:   getEnv("CHAINS_DIR", "configs/chains"),
		Chain:       getEnv("CHAIN", "ethereum"),
		Host:        getEnv("SERVER_HOST", "0.0.0.0"),
		Port:        getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
