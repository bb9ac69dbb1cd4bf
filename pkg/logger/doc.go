// Package logger provides a structured logging interface for the scraper.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output
// - File output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "stickscraper/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/stickscraper.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Update started")
//	logger.WithField("id", "12345").Info("Stick scraped")
//	logger.WithError(err).Error("Failed to fetch page")
package logger
