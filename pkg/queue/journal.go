// Package queue records pipeline runs on a Redis stream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-imgfilter/pkg/stats"
)

// DefaultStream is the stream run records are appended to.
const DefaultStream = "imgfilter:runs"

// maxEntries caps the stream length so the journal does not grow forever.
const maxEntries = 1000

// Journal appends and reads run records.
type Journal struct {
	client *redis.Client
	stream string
}

// Entry is one journal message.
type Entry struct {
	ID     string
	Record stats.Record
}

// NewJournal connects to the Redis server at addr.
func NewJournal(ctx context.Context, addr, stream string) (*Journal, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewJournalFromClient(client, stream), nil
}

// NewJournalFromClient wraps an existing client.
func NewJournalFromClient(client *redis.Client, stream string) *Journal {
	if stream == "" {
		stream = DefaultStream
	}

	return &Journal{
		client: client,
		stream: stream,
	}
}

// Close releases the connection.
func (j *Journal) Close() error {
	return j.client.Close()
}

// Append adds rec to the stream and returns the message ID.
func (j *Journal) Append(ctx context.Context, rec stats.Record) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	result := j.client.XAdd(ctx, &redis.XAddArgs{
		Stream: j.stream,
		MaxLen: maxEntries,
		Values: map[string]interface{}{"data": b},
	})

	return result.Val(), result.Err()
}

// Publish connects to addr, appends rec to stream and disconnects.
func Publish(ctx context.Context, addr, stream string, rec stats.Record) (string, error) {
	j, err := NewJournal(ctx, addr, stream)
	if err != nil {
		return "", err
	}
	defer j.Close()

	return j.Append(ctx, rec)
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int64) ([]Entry, error) {
	msgs, err := j.client.XRevRangeN(ctx, j.stream, "+", "-", n).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		var rec stats.Record
		if err := json.Unmarshal(bytesFromInterface(msg.Values["data"]), &rec); err != nil {
			return nil, fmt.Errorf("journal entry %s: %w", msg.ID, err)
		}
		entries = append(entries, Entry{ID: msg.ID, Record: rec})
	}

	return entries, nil
}

func bytesFromInterface(v interface{}) []byte {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case []byte:
		return t
	default:
		b, _ := json.Marshal(t)
		return b
	}
}
