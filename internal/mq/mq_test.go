package mq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/addonloader/internal/domain"
)

func TestNewMessage_RoundTripRequest(t *testing.T) {
	req := domain.AddonRequest{
		Title:           "Aptechka",
		AddonToken:      "aptechka",
		AddonsDirectory: "/games/wow/Interface/AddOns",
		CorrelationID:   "abc",
	}

	msg, err := NewMessage(MessageTypeInstallRequested, req)
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Error("message id and timestamp should be set")
	}

	// конверт проходит через JSON так же, как через брокер
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var received Message
	if err := json.Unmarshal(body, &received); err != nil {
		t.Fatal(err)
	}

	got, err := ParsePayload[domain.AddonRequest](&received)
	if err != nil {
		t.Fatal(err)
	}
	if got != req {
		t.Errorf("expected %+v, got %+v", req, got)
	}
	if received.Type != MessageTypeInstallRequested {
		t.Errorf("unexpected type %s", received.Type)
	}
}

func TestNewMessage_OutcomePayload(t *testing.T) {
	msg, err := NewMessage(MessageTypeInstallOutcome, domain.SucceededOutcome("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Payload) != `{"correlation_id":"abc","failed":false,"data":{}}` {
		t.Errorf("unexpected payload %s", msg.Payload)
	}
}

func TestParsePayload_Errors(t *testing.T) {
	if _, err := ParsePayload[domain.AddonRequest](&Message{}); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := ParsePayload[domain.AddonRequest](&Message{Payload: json.RawMessage(`[1,2]`)}); err == nil {
		t.Error("expected error for wrong payload shape")
	}
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo()
	for _, name := range []string{string(QueueInstallsRequested), string(QueueInstallsOutcomes), string(QueueDLQInstalls)} {
		if !strings.Contains(info, name) {
			t.Errorf("topology info should mention %s", name)
		}
	}
}

// failingAcker имитирует канал, закрытый во время переподключения.
type failingAcker struct {
	acks, nacks int
}

func (a *failingAcker) Ack(uint64, bool) error {
	a.acks++
	return amqp.ErrClosed
}

func (a *failingAcker) Nack(uint64, bool, bool) error {
	a.nacks++
	return amqp.ErrClosed
}

func (a *failingAcker) Reject(uint64, bool) error { return amqp.ErrClosed }

func TestConsumer_Handle_LogsAckErrors(t *testing.T) {
	body, err := json.Marshal(Message{ID: "m1", Type: MessageTypeInstallRequested, Payload: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		body     []byte
		err      error
		wantLog  string
		wantAck  int
		wantNack int
	}{
		{"ack", body, nil, "failed to ack message", 1, 0},
		{"nack after handler error", body, errors.New("bad request"), "failed to nack message", 0, 1},
		{"nack after bad json", []byte("{"), nil, "failed to nack message", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			acker := &failingAcker{}
			c := NewConsumer(nil, slog.New(slog.NewTextHandler(&logs, nil)), ConsumerConfig{
				Queue:   QueueInstallsRequested,
				Handler: func(context.Context, *Delivery) error { return tt.err },
			})

			c.handle(context.Background(), amqp.Delivery{Acknowledger: acker, Body: tt.body})

			if acker.acks != tt.wantAck || acker.nacks != tt.wantNack {
				t.Errorf("acks=%d nacks=%d, want %d/%d", acker.acks, acker.nacks, tt.wantAck, tt.wantNack)
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("expected log %q, got:\n%s", tt.wantLog, logs.String())
			}
		})
	}
}
