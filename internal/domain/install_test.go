package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Stage
		to   Stage
		want bool
	}{
		{StageIdle, StageResolving, true},
		{StageResolving, StageFetching, true},
		{StageFetching, StageUnpacking, true},
		{StageUnpacking, StageSucceeded, true},
		{StageIdle, StageFailed, true},
		{StageUnpacking, StageFailed, true},

		// пропуск этапов и откат назад запрещены
		{StageIdle, StageFetching, false},
		{StageResolving, StageUnpacking, false},
		{StageFetching, StageResolving, false},

		// из финальных этапов переходов нет
		{StageSucceeded, StageFailed, false},
		{StageFailed, StageResolving, false},
		{StageFailed, StageFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstall_HappyPath(t *testing.T) {
	inst := NewInstall(AddonRequest{Title: "Aptechka", CorrelationID: "abc"})

	if inst.Stage != StageIdle {
		t.Fatalf("expected IDLE, got %s", inst.Stage)
	}

	if err := inst.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if inst.StartedAt == nil {
		t.Error("StartedAt should be set")
	}
	if err := inst.MarkFetching(ResolvedDownload{URL: "https://example.com/download/1/file"}); err != nil {
		t.Fatalf("MarkFetching: %v", err)
	}
	if err := inst.MarkUnpacking(LocalArchive{Path: "/tmp/a.zip", Size: 10}); err != nil {
		t.Fatalf("MarkUnpacking: %v", err)
	}
	if err := inst.MarkSucceeded(); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	if !inst.IsFinished() {
		t.Error("install should be finished")
	}
	if inst.Download == nil || inst.Download.URL != "https://example.com/download/1/file" {
		t.Errorf("unexpected download: %+v", inst.Download)
	}
	if inst.Archive == nil || inst.Archive.Size != 10 {
		t.Errorf("unexpected archive: %+v", inst.Archive)
	}

	out := inst.Outcome()
	if out.Failed || out.CorrelationID != "abc" || out.Data == nil || out.Error != nil {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestInstall_SkipStageRejected(t *testing.T) {
	inst := NewInstall(AddonRequest{})

	err := inst.MarkUnpacking(LocalArchive{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if inst.Stage != StageIdle {
		t.Errorf("stage should stay IDLE, got %s", inst.Stage)
	}
}

func TestInstall_MarkFailed_UsesCurrentStage(t *testing.T) {
	inst := NewInstall(AddonRequest{CorrelationID: "abc"})
	_ = inst.Begin()
	_ = inst.MarkFetching(ResolvedDownload{URL: "u"})

	if err := inst.MarkFailed(errors.New("connection reset")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	if inst.Stage != StageFailed {
		t.Errorf("expected FAILED, got %s", inst.Stage)
	}
	if inst.FailedStage != StageFetching {
		t.Errorf("expected failed stage FETCHING, got %s", inst.FailedStage)
	}
	if !errors.Is(inst.Err(), ErrTransfer) {
		t.Errorf("expected ErrTransfer category, got %v", inst.Err())
	}

	out := inst.Outcome()
	if !out.Failed || out.Error == nil {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
	if out.Error.Stage != StageFetching || out.Error.Message != "connection reset" {
		t.Errorf("unexpected outcome error: %+v", out.Error)
	}
	if out.Data != nil {
		t.Error("data should be absent on failure")
	}
}

func TestInstall_MarkFailed_KeepsStageErrorStage(t *testing.T) {
	inst := NewInstall(AddonRequest{})
	_ = inst.Begin()

	_ = inst.MarkFailed(NewStageError(StageResolving, errors.New("no release")))

	if inst.FailedStage != StageResolving {
		t.Errorf("expected RESOLVING, got %s", inst.FailedStage)
	}
	if !errors.Is(inst.Err(), ErrResolution) {
		t.Errorf("expected ErrResolution, got %v", inst.Err())
	}
}

func TestInstall_MarkFailed_Twice(t *testing.T) {
	inst := NewInstall(AddonRequest{})
	_ = inst.MarkFailed(errors.New("first"))

	if err := inst.MarkFailed(errors.New("second")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if inst.Error != "first" {
		t.Errorf("error should not be overwritten, got %q", inst.Error)
	}
}

func TestInstall_Outcome_RestoredFromJournal(t *testing.T) {
	inst := &Install{
		Request:     AddonRequest{CorrelationID: "abc"},
		Stage:       StageFailed,
		FailedStage: StageUnpacking,
		Error:       "permission denied",
	}

	out := inst.Outcome()
	if out.Error == nil || out.Error.Message != "permission denied" || out.Error.Stage != StageUnpacking {
		t.Errorf("unexpected outcome: %+v", out.Error)
	}
}

func TestOutcomeMessage_JSON(t *testing.T) {
	b, err := json.Marshal(SucceededOutcome("abc"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"correlation_id":"abc","failed":false,"data":{}}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	b, err = json.Marshal(FailedOutcome("abc", StageUnpacking, errors.New("boom")))
	if err != nil {
		t.Fatal(err)
	}
	want = `{"correlation_id":"abc","failed":true,"error":{"stage":"UNPACKING","message":"boom"}}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestStageError_Is(t *testing.T) {
	cause := errors.New("cause")
	err := NewStageError(StageUnpacking, cause)

	if !errors.Is(err, ErrUnpack) {
		t.Error("expected ErrUnpack")
	}
	if errors.Is(err, ErrTransfer) || errors.Is(err, ErrResolution) {
		t.Error("unexpected category match")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}
