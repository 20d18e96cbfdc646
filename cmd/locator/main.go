// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seisgo/pipeline/internal/httpserver"
	"github.com/seisgo/pipeline/internal/locator"
	"github.com/seisgo/pipeline/internal/store"
	"github.com/seisgo/pipeline/pkg/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("locator: no .env file found, using system environment variables")
	}

	settings, err := locator.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("locator: parsing settings: %v", err)
	}
	log.SetLogLevel(settings.LogLevel)

	db := store.Connect(settings.StoreConfig())
	repo := store.NewRepository(db)

	cycle := locator.NewCycle(repo, settings)
	svc, err := locator.NewServiceScheduler(cycle, settings.PollSeconds)
	if err != nil {
		log.Fatalf("locator: building scheduler: %v", err)
	}
	svc.Start()

	health := httpserver.New(settings.HTTPAddr, func() error {
		return db.Handle.Ping()
	})
	health.Serve()

	var wg sync.WaitGroup
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-sigs
		log.Info("locator: shutting down")

		if err := svc.Shutdown(); err != nil {
			log.Errorf("locator: scheduler shutdown: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := health.Shutdown(ctx); err != nil {
			log.Errorf("locator: http shutdown: %v", err)
		}
	}()

	wg.Wait()
}
