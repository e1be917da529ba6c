package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/mq"
)

type fakeRunner struct {
	requests []domain.AddonRequest
	err      error
}

func (f *fakeRunner) Run(_ context.Context, req domain.AddonRequest) (*domain.Install, error) {
	f.requests = append(f.requests, req)
	return domain.NewInstall(req), f.err
}

func requestMessage(t *testing.T, req domain.AddonRequest) *mq.Message {
	t.Helper()
	msg, err := mq.NewMessage(mq.MessageTypeInstallRequested, req)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestHandle_RunsPipeline(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner})

	req := domain.AddonRequest{AddonToken: "aptechka", AddonsDirectory: "/d", CorrelationID: "abc"}
	if err := w.Handle(context.Background(), requestMessage(t, req), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.requests) != 1 || runner.requests[0] != req {
		t.Errorf("expected request to be passed to runner, got %+v", runner.requests)
	}
}

func TestHandle_CorrelationIDFromProperties(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner})

	req := domain.AddonRequest{AddonToken: "aptechka", AddonsDirectory: "/d"}
	if err := w.Handle(context.Background(), requestMessage(t, req), "from-amqp"); err != nil {
		t.Fatal(err)
	}
	if runner.requests[0].CorrelationID != "from-amqp" {
		t.Errorf("expected correlation id from message properties, got %q", runner.requests[0].CorrelationID)
	}
}

func TestHandle_ReportFailureStillAcks(t *testing.T) {
	runner := &fakeRunner{err: errors.New("broker down")}
	w := New(Config{Runner: runner})

	req := domain.AddonRequest{AddonToken: "x", AddonsDirectory: "/d", CorrelationID: "c"}
	if err := w.Handle(context.Background(), requestMessage(t, req), ""); err != nil {
		t.Errorf("handled request should be acked, got %v", err)
	}
}

func TestHandle_Malformed(t *testing.T) {
	tests := []struct {
		name string
		msg  *mq.Message
		want error
	}{
		{
			name: "not json object",
			msg:  &mq.Message{Type: mq.MessageTypeInstallRequested, Payload: json.RawMessage(`"oops"`)},
			want: ErrMalformedRequest,
		},
		{
			name: "empty payload",
			msg:  &mq.Message{Type: mq.MessageTypeInstallRequested},
			want: ErrMalformedRequest,
		},
		{
			name: "no correlation id",
			msg:  &mq.Message{Type: mq.MessageTypeInstallRequested, Payload: json.RawMessage(`{"addon_token":"x"}`)},
			want: ErrMalformedRequest,
		},
		{
			name: "wrong type",
			msg:  &mq.Message{Type: mq.MessageTypeInstallOutcome, Payload: json.RawMessage(`{}`)},
			want: ErrUnexpectedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			err := New(Config{Runner: runner}).Handle(context.Background(), tt.msg, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(runner.requests) != 0 {
				t.Error("runner should not be called")
			}
		})
	}
}

func TestStart_RequiresConnection(t *testing.T) {
	if err := New(Config{Runner: &fakeRunner{}}).Start(context.Background()); err == nil {
		t.Error("expected error without connection")
	}
}
