package main

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	mode        *Maintenance
	clock       Clocker
	idsHandler  UIDHandler
	bookService BookServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, idsHandler UIDHandler, bs BookServiceProvider) *APIHandler {
	m := &Maintenance{}
	m.enabled.Store(false)
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		mode:        m,
		clock:       clock,
		idsHandler:  idsHandler,
		bookService: bs,
	}
}
