// Command workload-publish sends one training event to the workload service,
// either through the AMQP queue or the HTTP ingestion endpoint.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"trainerworkload/internal/amqp"
	"trainerworkload/internal/cli"
	apphttp "trainerworkload/internal/http"
	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
)

func main() {
	var (
		username  = flag.String("username", "", "trainer username")
		firstName = flag.String("first-name", "", "trainer first name")
		lastName  = flag.String("last-name", "", "trainer last name")
		active    = flag.Bool("active", true, "trainer is active")
		date      = flag.String("date", time.Now().Format("2006-01-02"), "training date (YYYY-MM-DD)")
		duration  = flag.Int("duration", 0, "training duration in minutes")
		action    = flag.String("action", "ADD", "ADD or DELETE")
		target    = flag.String("http", "", "post to this base URL instead of publishing to AMQP")
	)
	flag.Parse()

	cfg, logger := cli.LoadConfig()

	raw := ingest.RawEvent{
		Username:   *username,
		FirstName:  *firstName,
		LastName:   *lastName,
		Active:     *active,
		Date:       *date,
		Duration:   json.Number(strconv.Itoa(*duration)),
		ActionType: *action,
	}
	// Catch shape errors before they reach the queue.
	if _, err := ingest.Parse(raw); err != nil {
		logger.Error("Invalid training event", applog.FieldError, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	if *target != "" {
		err = postEvent(ctx, *target, cfg.JWTSecret, raw)
	} else {
		err = publishEvent(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, raw)
	}
	if err != nil {
		logger.Error("Failed to send training event", applog.FieldError, err, applog.FieldUsername, raw.Username)
		os.Exit(1)
	}
	logger.Info("Training event sent", applog.FieldUsername, raw.Username, "date", raw.Date, "duration", raw.Duration, "action", raw.ActionType)
}

func publishEvent(ctx context.Context, url, exchange, queue string, raw ingest.RawEvent) error {
	if url == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.PublishTrainingEvent(ctx, raw)
}

func postEvent(ctx context.Context, baseURL, secret string, raw ingest.RawEvent) error {
	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/trainers/workload", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		token, err := apphttp.NewToken(secret, "workload-publish", 5*time.Minute)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
