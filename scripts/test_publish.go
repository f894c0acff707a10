//go:build ignore
// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type endpoint struct {
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type tripRow struct {
	Origin       endpoint `json:"origin"`
	Destination  endpoint `json:"destination"`
	LicensePlate string   `json:"license_plate,omitempty"`
	TripsPerDay  float64  `json:"trips_per_day"`
}

type batchJob struct {
	BatchID   uuid.UUID `json:"batch_id"`
	SessionID string    `json:"session_id"`
	Rows      []tripRow `json:"rows"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Тестовый пакет: два маршрута по Нидерландам
	job := batchJob{
		BatchID:   uuid.New(),
		SessionID: "test-publish",
		Rows: []tripRow{
			{
				Origin:      endpoint{PostalCode: "3511 AB"},
				Destination: endpoint{PostalCode: "2611 AA"},
				TripsPerDay: 2,
			},
			{
				Origin:       endpoint{Address: "Maasvlakte, Rotterdam"},
				Destination:  endpoint{Address: "Venlo"},
				LicensePlate: "BX-123-Z",
				TripsPerDay:  1,
			},
		},
	}

	data, err := json.Marshal(job)
	if err != nil {
		log.Fatalf("Failed to marshal job: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:bulk:submit",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish job: %v", err)
	}

	fmt.Printf("✅ Job published\n")
	fmt.Printf("   Stream: stream:bulk:submit\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Batch ID: %s\n", job.BatchID)

	fmt.Printf("\n⏳ Waiting for events in stream:bulk:progress...\n")

	timeout := time.After(2 * time.Minute)
	lastID := "0"
	for {
		select {
		case <-timeout:
			fmt.Println("❌ Timeout waiting for the final event")
			return
		default:
		}

		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{"stream:bulk:progress", lastID},
			Count:   50,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var event map[string]interface{}
				if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
					continue
				}
				if event["batch_id"] != job.BatchID.String() {
					continue
				}

				fmt.Printf("   event: %v\n", event["type"])
				if event["type"] != "progress" {
					pretty, _ := json.MarshalIndent(event["summary"], "", "  ")
					fmt.Printf("\n%s\n", pretty)
					return
				}
			}
		}
	}
}
