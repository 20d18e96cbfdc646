// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seisgo/pipeline/internal/detector"
	"github.com/seisgo/pipeline/internal/httpserver"
	"github.com/seisgo/pipeline/internal/store"
	"github.com/seisgo/pipeline/pkg/log"
	"github.com/seisgo/pipeline/pkg/nats"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("detector: no .env file found, using system environment variables")
	}

	settings, err := detector.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("detector: parsing settings: %v", err)
	}
	log.SetLogLevel(settings.LogLevel)

	db := store.Connect(settings.StoreConfig())
	repo := store.NewRepository(db)

	buf := detector.NewBuffer(settings.BufferSeconds)

	var backend detector.Backend
	switch settings.DetectorMode {
	case detector.ModePicker:
		backend = &detector.PickerBackend{Model: detector.NoopPickerModel{}}
	default:
		backend = detector.NewStaLtaBackend(settings)
	}

	scheduler := detector.NewScheduler(buf, backend, settings.DetectorMode,
		settings.BufferSeconds, settings.DetectEverySeconds, settings.PickFilterSeconds)

	svc := detector.NewService(detector.SimpleRecordDecoder{}, scheduler, repo, settings.Prefetch)

	statsJob, err := detector.NewStatsJob(buf, 30*time.Second)
	if err != nil {
		log.Fatalf("detector: building stats job: %v", err)
	}
	statsJob.Start()

	bus, err := nats.Connect(settings.BusConfig())
	if err != nil {
		log.Fatalf("detector: connecting to bus: %v", err)
	}
	if err := bus.Subscribe(svc.Handle); err != nil {
		log.Fatalf("detector: subscribing to bus: %v", err)
	}

	health := httpserver.New(settings.HTTPAddr, func() error {
		if !bus.IsConnected() {
			return errors.New("bus not connected")
		}
		return nil
	})
	health.Serve()

	var wg sync.WaitGroup
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-sigs
		log.Info("detector: shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := bus.Drain(ctx); err != nil {
			log.Errorf("detector: bus drain: %v", err)
		}
		if err := statsJob.Shutdown(); err != nil {
			log.Errorf("detector: stats job shutdown: %v", err)
		}
		if err := health.Shutdown(ctx); err != nil {
			log.Errorf("detector: http shutdown: %v", err)
		}
	}()

	wg.Wait()
}
