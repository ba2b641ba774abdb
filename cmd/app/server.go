package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

func startServer(host, port string, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%s", host, port)
	logger.Info("Listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server down", zap.Error(err))
	}
}
