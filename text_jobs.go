package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// handleTextJob runs one queued job. A conversion that fails still yields
// a result carrying the error; only an unreadable job returns an error.
func (gateway *Gateway) handleTextJob(body []byte) (TextJobResult, error) {
	var job TextJob
	if err := json.Unmarshal(body, &job); err != nil {
		return TextJobResult{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	result := TextJobResult{
		ID:          job.ID,
		Op:          job.Op,
		Field:       job.Field,
		ProcessedAt: time.Now().UTC(),
	}

	var err error
	switch job.Op {
	case TextJobOp.Encode:
		var resp EncodeResponse
		resp, err = gateway.EncodeText(EncodeRequest{Text: job.Text, Field: job.Field, Size: job.Size})
		result.Size = resp.Size
		result.Data = resp.Data
		result.Written = resp.Written
		result.Truncated = resp.Truncated
	case TextJobOp.Decode:
		var resp DecodeResponse
		resp, err = gateway.DecodeText(DecodeRequest{Data: job.Data})
		result.Text = resp.Text
	case TextJobOp.Split:
		var resp SplitResponse
		resp, err = gateway.SplitText(SplitRequest{Text: job.Text, Field: job.Field, Size: job.Size})
		result.Size = resp.Size
		result.Segments = resp.Segments
	default:
		return TextJobResult{}, fmt.Errorf("%w: %q", ErrUnknownOp, job.Op)
	}

	if err != nil {
		result.Error = err.Error()
	}
	return result, nil
}

// consumeTextJobs pulls jobs until ctx is cancelled, resubscribing whenever
// the broker connection is replaced.
func (gateway *Gateway) consumeTextJobs(ctx context.Context) {
	client := gateway.AMPQClient
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		deliveries, err := client.ConsumeMessages(gateway.Config.JobsQueue)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(reInitDelay):
			}
			continue
		}

		for d := range deliveries {
			gateway.processDelivery(ctx, d.Body, client.Publish, d.Ack, d.Nack)
		}
	}
}

// publishFunc sends a result body to a queue.
type publishFunc func(ctx context.Context, queue string, body []byte) error

// processDelivery answers one delivery. Unreadable jobs are dropped, results
// that cannot be published are requeued.
func (gateway *Gateway) processDelivery(ctx context.Context, body []byte, publish publishFunc,
	ack func(multiple bool) error, nack func(multiple, requeue bool) error) {
	logf := LoggingFormat{Type: LogType.AMQP}

	result, err := gateway.handleTextJob(body)
	if err != nil {
		logf.Level = logrus.ErrorLevel
		logf.Message = "Dropping unreadable text job"
		logf.Error = err
		logf.Print()
		_ = nack(false, false)
		return
	}
	logf.AddField("job_id", result.ID)
	logf.AddField("op", result.Op)

	data, err := json.Marshal(result)
	if err != nil {
		logf.Level = logrus.ErrorLevel
		logf.Message = "Failed to marshal text job result"
		logf.Error = err
		logf.Print()
		_ = nack(false, false)
		return
	}

	if err := publish(ctx, gateway.Config.ResultsQueue, data); err != nil {
		logf.Level = logrus.WarnLevel
		logf.Message = "Failed to publish text job result, requeueing"
		logf.Error = err
		logf.Print()
		_ = nack(false, true)
		return
	}

	if err := ack(false); err != nil {
		logf.Level = logrus.WarnLevel
		logf.Message = "Failed to ack text job"
		logf.Error = err
		logf.Print()
		return
	}

	logf.Level = logrus.DebugLevel
	logf.Message = "Processed text job"
	if result.Error != "" {
		logf.AddField("job_error", result.Error)
	}
	logf.Print()
}
