package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is the parent of every *DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrAlreadyReported is returned when a user reports the same article twice.
	ErrAlreadyReported = errors.New("article already reported")
	// ErrInvalidReference is the parent of every *InvalidReferenceError.
	ErrInvalidReference = errors.New("invalid reference")
)

// DuplicateKeyError names the logical field whose unique constraint was violated.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// InvalidReferenceError is returned when a referenced row (article, parent comment) is missing.
type InvalidReferenceError struct {
	Field string
	ID    uint
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Field, e.ID)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// uniqueMarkers maps index and column names found in driver messages to logical fields.
var uniqueMarkers = []struct {
	marker string
	field  string
}{
	{"idx_users_username", "username"},
	{"users.username", "username"},
	{"idx_users_email", "email"},
	{"users.email", "email"},
	{"idx_articles_title", "title"},
	{"articles.title", "title"},
	{"idx_reports_user_article", "report"},
	{"reports.user_id", "report"},
	{"idx_tokens_key", "token"},
	{"tokens.key", "token"},
	{"idx_tokens_user", "token"},
	{"tokens.user_id", "token"},
}

// translateError converts driver and gorm errors into the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if key, ok := duplicateKey(err); ok {
		return &DuplicateKeyError{Field: fieldForKey(key)}
	}
	if foreignKeyViolation(err) {
		return ErrInvalidReference
	}
	return err
}

// foreignKeyViolation reports whether err is an insert or update naming a row that does not exist.
func foreignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1452: child row references a missing parent; 1216 is the pre-5.5 code.
		return myErr.Number == 1452 || myErr.Number == 1216
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// duplicateKey reports whether err is a unique constraint violation and returns the
// constraint description the driver gave for it.
func duplicateKey(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number != 1062 {
			return "", false
		}
		msg := myErr.Message
		if i := strings.LastIndex(msg, "for key "); i >= 0 {
			return strings.Trim(msg[i+len("for key "):], "'"), true
		}
		return msg, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	const sqliteUnique = "UNIQUE constraint failed:"
	msg := err.Error()
	if i := strings.Index(msg, sqliteUnique); i >= 0 {
		return strings.TrimSpace(msg[i+len(sqliteUnique):]), true
	}
	return "", false
}

func fieldForKey(key string) string {
	for _, m := range uniqueMarkers {
		if strings.Contains(key, m.marker) {
			return m.field
		}
	}
	return "non_field_errors"
}
