package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var (
	errNotConnected = errors.New("amqp: not connected")
	errNotReady     = errors.New("amqp: not ready")
)

// AMPQClient keeps one connection and channel alive, redialling when the
// broker goes away, and declares the queues it was created with.
type AMPQClient struct {
	m               *sync.Mutex
	queues          []string
	connection      *amqp.Connection
	channel         *amqp.Channel
	done            chan bool
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	notifyConfirm   chan amqp.Confirmation
	isReady         bool
}

const (
	reconnectDelay = 5 * time.Second
	reInitDelay    = 2 * time.Second
	resendDelay    = 2 * time.Second
)

// NewMsgQueueClient starts connecting in the background and returns at once.
func NewMsgQueueClient(addr string, queues []string) *AMPQClient {
	client := AMPQClient{
		m:      &sync.Mutex{},
		queues: queues,
		done:   make(chan bool),
	}

	go client.handleReconnect(addr)
	return &client
}

func (client *AMPQClient) log(level logrus.Level, message string, err error) {
	logf := LoggingFormat{Type: LogType.AMQP, Level: level, Message: message, Error: err}
	logf.Print()
}

// Ready reports whether a channel is open and the queues are declared.
func (client *AMPQClient) Ready() bool {
	client.m.Lock()
	defer client.m.Unlock()
	return client.isReady
}

// Close will cleanly shut down the channel and connection.
func (client *AMPQClient) Close() error {
	client.m.Lock()
	defer client.m.Unlock()

	if !client.isReady {
		return fmt.Errorf("connection already closed")
	}
	close(client.done)
	if err := client.channel.Close(); err != nil {
		return err
	}
	if err := client.connection.Close(); err != nil {
		return err
	}

	client.isReady = false
	return nil
}

func (client *AMPQClient) handleReconnect(addr string) {
	for {
		client.m.Lock()
		client.isReady = false
		client.m.Unlock()

		client.log(logrus.InfoLevel, "Attempting to connect", nil)
		conn, err := client.connect(addr)
		if err != nil {
			client.log(logrus.WarnLevel, "Failed to connect. Retrying...", err)
			select {
			case <-client.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		if done := client.handleReInit(conn); done {
			break
		}
	}
}

func (client *AMPQClient) connect(addr string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, err
	}
	client.m.Lock()
	client.changeConnection(conn)
	client.m.Unlock()
	client.log(logrus.InfoLevel, "Connected", nil)
	return conn, nil
}

// handleReInit reopens the channel until the connection drops or the
// client is closed. It returns true when the client is done.
func (client *AMPQClient) handleReInit(conn *amqp.Connection) bool {
	for {
		client.m.Lock()
		client.isReady = false
		client.m.Unlock()

		err := client.init(conn)
		if err != nil {
			client.log(logrus.WarnLevel, "Failed to initialize channel. Retrying...", err)
			select {
			case <-client.done:
				return true
			case <-client.notifyConnClose:
				client.log(logrus.WarnLevel, "Connection closed. Reconnecting...", nil)
				return false
			case <-time.After(reInitDelay):
			}
			continue
		}

		select {
		case <-client.done:
			return true
		case <-client.notifyConnClose:
			client.log(logrus.WarnLevel, "Connection closed. Reconnecting...", nil)
			return false
		case <-client.notifyChanClose:
			client.log(logrus.WarnLevel, "Channel closed. Re-initializing...", nil)
		}
	}
}

func (client *AMPQClient) init(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.Confirm(false); err != nil {
		return err
	}

	for _, queue := range client.queues {
		_, err := ch.QueueDeclare(
			queue,
			true,  // Durable
			false, // Delete when unused
			false, // Exclusive
			false, // No-wait
			nil,   // Arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue '%s': %w", queue, err)
		}
	}

	client.m.Lock()
	client.changeChannel(ch)
	client.isReady = true
	client.m.Unlock()
	client.log(logrus.InfoLevel, "Channel setup complete", nil)
	return nil
}

// changeConnection and changeChannel must be called with client.m held.
func (client *AMPQClient) changeConnection(conn *amqp.Connection) {
	client.connection = conn
	client.notifyConnClose = make(chan *amqp.Error, 1)
	client.connection.NotifyClose(client.notifyConnClose)
}

func (client *AMPQClient) changeChannel(ch *amqp.Channel) {
	client.channel = ch
	client.notifyChanClose = make(chan *amqp.Error, 1)
	client.notifyConfirm = make(chan amqp.Confirmation, 1)
	client.channel.NotifyClose(client.notifyChanClose)
	client.channel.NotifyPublish(client.notifyConfirm)
}

// Publish sends data to queueName and waits for the broker to confirm it,
// retrying until ctx is done.
func (client *AMPQClient) Publish(ctx context.Context, queueName string, data []byte) error {
	for {
		client.m.Lock()
		confirms := client.notifyConfirm
		client.m.Unlock()

		err := client.UnsafePublish(ctx, queueName, data)
		if err == nil {
			select {
			case confirm := <-confirms:
				if confirm.Ack {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resendDelay):
		}
	}
}

// UnsafePublish publishes a message without waiting for confirmation.
func (client *AMPQClient) UnsafePublish(ctx context.Context, queueName string, data []byte) error {
	client.m.Lock()
	defer client.m.Unlock()

	if client.channel == nil {
		return errNotConnected
	}
	if !client.isReady {
		return errNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return client.channel.PublishWithContext(
		ctx,
		"",        // Exchange
		queueName, // Routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
}

// ConsumeMessages starts consuming queueName with manual acks, one
// unacknowledged delivery at a time.
func (client *AMPQClient) ConsumeMessages(queueName string) (<-chan amqp.Delivery, error) {
	client.m.Lock()
	defer client.m.Unlock()

	if client.channel == nil {
		return nil, errNotConnected
	}
	if !client.isReady {
		return nil, errNotReady
	}

	if err := client.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return client.channel.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}
