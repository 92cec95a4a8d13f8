package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	emojiErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "participants_tracker_emoji_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"any constraint", emojiErr, "", true},
		{"matching constraint", emojiErr, "participants_tracker_emoji_key", true},
		{"other constraint", emojiErr, "participants_pkey", false},
		{"wrapped", fmt.Errorf("insert: %w", emojiErr), "participants_tracker_emoji_key", true},
		{"different code", &pgconn.PgError{Code: "23503"}, "", false},
		{"not a pg error", errors.New("boom"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
