package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDumpExtractsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_trigger_cooldowns_user_type", TableName: "trigger_cooldowns"}
	err := Wrap(CodeConflict, fmt.Errorf("acquire: %w", pgErr), "cooldown write failed")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGTable != "trigger_cooldowns" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
}

func TestDumpExtractsRPCStatus(t *testing.T) {
	rpcErr := status.Error(codes.Unavailable, "pubsub down")
	d := Dump(fmt.Errorf("deliver: %w", rpcErr))
	if d.RPCCode != codes.Unavailable.String() || d.RPCMessage != "pubsub down" {
		t.Fatalf("unexpected rpc fields %+v", d)
	}
	if d.PGCode != "" {
		t.Fatalf("expected no pg fields, got %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
