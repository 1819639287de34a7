package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// LogType groups log entries by the part of the gateway that produced them.
var LogType = struct {
	Startup string
	Web     string
	AMQP    string
	Codec   string
	Metrics string
}{
	Startup: "startup",
	Web:     "web",
	AMQP:    "amqp",
	Codec:   "codec",
	Metrics: "metrics",
}

// LoggingFormat builds one structured log entry.
type LoggingFormat struct {
	Type           string
	Level          logrus.Level
	Message        string
	Error          error
	AdditionalData map[string]interface{}
}

// AddField attaches a key/value pair to the entry.
func (lf *LoggingFormat) AddField(key string, value interface{}) {
	if lf.AdditionalData == nil {
		lf.AdditionalData = make(map[string]interface{})
	}
	lf.AdditionalData[key] = value
}

func (lf *LoggingFormat) fields() logrus.Fields {
	fields := logrus.Fields{"type": lf.Type}
	for k, v := range lf.AdditionalData {
		fields[k] = v
	}
	if lf.Error != nil {
		fields[logrus.ErrorKey] = lf.Error.Error()
	}
	return fields
}

// Print writes the entry through the standard logrus logger.
func (lf *LoggingFormat) Print() {
	level := lf.Level
	// the zero Level is PanicLevel, nobody means that
	if level == logrus.PanicLevel {
		level = logrus.InfoLevel
	}
	logrus.WithFields(lf.fields()).Log(level, lf.Message)
}

// setupLogging configures the standard logger. The returned hook is nil
// unless Loki shipping is enabled.
func setupLogging(cfg Config) *LokiHook {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LokiURL != "" {
		client := NewLokiClient(cfg.LokiURL, cfg.LokiUsername, cfg.LokiPassword)
		hook := NewLokiHook(client, map[string]string{
			"job":      "insim-textgw",
			"instance": cfg.InstanceID,
		})
		logrus.AddHook(hook)
		return hook
	}
	return nil
}

// LokiClient pushes log lines to a Loki instance.
type LokiClient struct {
	PushURL  string
	Username string
	Password string
	http     *http.Client
}

type LogEntry struct {
	Timestamp time.Time
	Line      string
}

// LokiPushData is the body of Loki's push API.
type LokiPushData struct {
	Streams []LokiStream `json:"streams"`
}

// LokiStream is a stream of lines sharing the same labels.
type LokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"` // [timestamp, line]
}

func NewLokiClient(pushURL, username, password string) *LokiClient {
	return &LokiClient{
		PushURL:  pushURL,
		Username: username,
		Password: password,
		http:     &http.Client{Timeout: 5 * time.Second},
	}
}

// PushLog sends a single entry to Loki.
func (c *LokiClient) PushLog(labels map[string]string, entry LogEntry) error {
	payload := LokiPushData{
		Streams: []LokiStream{
			{
				Stream: labels,
				Values: [][2]string{{strconv.FormatInt(entry.Timestamp.UnixNano(), 10), entry.Line}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling json: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.PushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Username != "" && c.Password != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to Loki: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received unexpected response status: %d", resp.StatusCode)
	}
	return nil
}

// lokiQueueSize bounds the entries waiting to be pushed to Loki.
const lokiQueueSize = 1024

// LokiHook forwards logrus entries to Loki from a single background sender.
// Fire never waits on the network; entries are dropped when the queue is full.
type LokiHook struct {
	client  *LokiClient
	labels  map[string]string
	levels  []logrus.Level
	queue   chan lokiLine
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

type lokiLine struct {
	labels map[string]string
	entry  LogEntry
}

func NewLokiHook(client *LokiClient, labels map[string]string) *LokiHook {
	return newLokiHook(client, labels, lokiQueueSize)
}

func newLokiHook(client *LokiClient, labels map[string]string, queueSize int) *LokiHook {
	h := &LokiHook{
		client: client,
		labels: labels,
		levels: logrus.AllLevels[:logrus.InfoLevel+1],
		queue:  make(chan lokiLine, queueSize),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *LokiHook) Levels() []logrus.Level { return h.levels }

func (h *LokiHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	labels := make(map[string]string, len(h.labels)+1)
	for k, v := range h.labels {
		labels[k] = v
	}
	labels["level"] = entry.Level.String()

	select {
	case h.queue <- lokiLine{labels: labels, entry: LogEntry{Timestamp: entry.Time, Line: line}}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped returns how many entries were discarded because the queue was full.
func (h *LokiHook) Dropped() uint64 { return h.dropped.Load() }

// Close stops accepting entries and waits for the queued ones to be pushed.
// The hook must be removed from the logger before Close is called.
func (h *LokiHook) Close() {
	h.once.Do(func() { close(h.queue) })
	h.wg.Wait()
}

func (h *LokiHook) run() {
	defer h.wg.Done()
	for l := range h.queue {
		// logging a push failure would feed back into this hook
		if err := h.client.PushLog(l.labels, l.entry); err != nil {
			fmt.Fprintf(os.Stderr, "loki: %v\n", err)
		}
	}
}
