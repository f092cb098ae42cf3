package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_inventory_entries_key"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insertar fila: %w", dup)),
		"debe detectar el código aunque el error venga envuelto")

	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: codeSerializationFailure}))
	assert.False(t, isUniqueViolation(errors.New("otro error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: codeSerializationFailure}))
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: codeDeadlockDetected}),
		"un deadlock también es una carrera reintentable")
	assert.True(t, isSerializationFailure(fmt.Errorf("commit: %w", &pgconn.PgError{Code: codeSerializationFailure})))

	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.False(t, isSerializationFailure(nil))
}
