// internal/queue/rabbit.go
package queue

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// jobEnvelope is the wire shape published to RabbitMQ. IDs are either row
// ints or uuid strings depending on the topic.
type jobEnvelope struct {
	ID json.RawMessage `json:"id"`
}

// RabbitQueue implements Queue over RabbitMQ. Publish declares the durable
// queue lazily; Subscribe is only valid from the worker, which owns the
// consume loop.
type RabbitQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func DialRabbit(url string) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}
	return &RabbitQueue{conn: conn, ch: ch}, nil
}

func (q *RabbitQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *RabbitQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

func (q *RabbitQueue) Publish(topic string, payload any) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(jobEnvelope{ID: raw})

	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Subscribe consumes the topic with manual ack and x-retry-count requeue up
// to 3 attempts. Blocks in a goroutine per topic.
func (q *RabbitQueue) Subscribe(topic string, handler func(payload any) error) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}

	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer for %s: %w", topic, err)
	}

	go func() {
		for d := range msgs {
			var env jobEnvelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				log.Println("invalid job on", topic, ":", err)
				d.Ack(false)
				continue
			}

			payload := decodeID(env.ID)
			if err := handler(payload); err != nil {
				retryCount := headerRetryCount(d.Headers)
				log.Printf("⚠️ job on %s failed (attempt %d/%d): %v", topic, retryCount+1, maxJobRetries, err)
				if retryCount < maxJobRetries {
					// Nack redelivers with the original headers, so the
					// counter would never move. Republish with it bumped.
					if pubErr := q.republish(topic, d.Body, retryCount+1); pubErr != nil {
						log.Printf("failed to requeue job on %s: %v", topic, pubErr)
						d.Nack(false, true)
						continue
					}
				} else {
					log.Printf("job on %s permanently failed: %s", topic, d.Body)
				}
			}

			d.Ack(false)
		}
	}()

	return nil
}

func (q *RabbitQueue) republish(topic string, body []byte, retryCount int) error {
	return q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Headers:     amqp.Table{"x-retry-count": int32(retryCount)},
		},
	)
}

// headerRetryCount reads x-retry-count; amqp decodes numbers as int32 or
// int64 depending on the publisher.
func headerRetryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// decodeID maps the raw JSON id back to int or string.
func decodeID(raw json.RawMessage) any {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var _ Queue = (*RabbitQueue)(nil)
var _ Queue = (*InMemoryQueue)(nil)
