package db

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want pkgerrors.Code
	}{
		{"nil", nil, ""},
		{"gorm not found", gorm.ErrRecordNotFound, pkgerrors.CodeNotFound},
		{"wrapped not found", fmt.Errorf("loading row: %w", gorm.ErrRecordNotFound), pkgerrors.CodeNotFound},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, pkgerrors.CodeDuplicate},
		{"postgres unique sqlstate", errors.New(`ERROR: duplicate key value violates unique constraint "profiles_email_key" (SQLSTATE 23505)`), pkgerrors.CodeDuplicate},
		{"sqlite unique", errors.New("UNIQUE constraint failed: profiles.email"), pkgerrors.CodeDuplicate},
		{"gorm fk violated", gorm.ErrForeignKeyViolated, pkgerrors.CodeDependency},
		{"postgres fk sqlstate", errors.New(`ERROR: update or delete on table "profiles" violates foreign key constraint "orders_buyer_id_fkey" on table "orders" (SQLSTATE 23503)`), pkgerrors.CodeDependency},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), pkgerrors.CodeDependency},
		{"unknown driver error", errors.New("driver: bad connection"), pkgerrors.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapCarriesClassifiedCode(t *testing.T) {
	wrapped := Wrap(gorm.ErrRecordNotFound, "load profile")
	if wrapped.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %q", wrapped.Code())
	}
	if !errors.Is(wrapped, gorm.ErrRecordNotFound) {
		t.Fatal("wrapped error must keep the driver sentinel in its chain")
	}
	if Wrap(nil, "noop") != nil {
		t.Fatal("wrapping nil must return nil")
	}
}
