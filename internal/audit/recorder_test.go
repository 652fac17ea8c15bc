package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecer struct {
	err  error
	sql  string
	args []any
}

func (s *stubExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.sql = sql
	s.args = args
	return pgconn.CommandTag{}, s.err
}

func TestRecordAppendsEntry(t *testing.T) {
	db := &stubExecer{}
	recorder := NewRecorder(db)

	err := recorder.Record(context.Background(), ActionVoterUpdate, "changed fields: notes", ActorRef{ID: 7, Name: "clerk"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(db.args) != 6 {
		t.Fatalf("expected 6 insert args, got %d", len(db.args))
	}
	if _, ok := db.args[0].(uuid.UUID); !ok {
		t.Fatalf("expected uuid id, got %T", db.args[0])
	}
	if db.args[1] != ActionVoterUpdate {
		t.Fatalf("expected action tag, got %v", db.args[1])
	}
	if db.args[3] != int64(7) || db.args[4] != "clerk" {
		t.Fatalf("expected actor attribution, got %v %v", db.args[3], db.args[4])
	}
}

func TestRecordDegradedOnStoreFailure(t *testing.T) {
	db := &stubExecer{err: errors.New("connection refused")}
	recorder := NewRecorder(db)

	err := recorder.Record(context.Background(), ActionVoterUpdate, "x", ActorRef{ID: 1, Name: "clerk"})
	if !errors.Is(err, ErrAppendDegraded) {
		t.Fatalf("expected ErrAppendDegraded, got %v", err)
	}
}

func TestRecordRequiresActionTag(t *testing.T) {
	recorder := NewRecorder(&stubExecer{})
	if err := recorder.Record(context.Background(), "", "x", ActorRef{}); err == nil {
		t.Fatalf("expected error for empty action tag")
	}
}

func TestRecordNilRecorderDegraded(t *testing.T) {
	var recorder *Recorder
	err := recorder.Record(context.Background(), ActionVoterUpdate, "x", ActorRef{})
	if !errors.Is(err, ErrAppendDegraded) {
		t.Fatalf("expected ErrAppendDegraded from nil recorder, got %v", err)
	}
}
