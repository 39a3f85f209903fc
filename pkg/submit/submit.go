package submit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDelay is the simulated network latency used by NewSimulator.
const DefaultDelay = time.Second

// ErrUsernameTaken reports a username that is reserved or already
// registered.
var ErrUsernameTaken = errors.New("username is already taken")

// FieldError is a submission failure attributed to one form field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldName returns the field the error belongs to.
func (e *FieldError) FieldName() string {
	return e.Field
}

// Request is the data sent by the signup form.
type Request struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Receipt records a created account.
type Receipt struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordFingerprint string    `json:"passwordFingerprint"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Simulator stands in for a remote signup API.
type Simulator struct {
	// Delay is waited before every submission. Zero disables the wait.
	Delay time.Duration

	// Store records receipts. Nil means a private MemoryStore.
	Store Store

	// Clock returns the creation time. Nil means time.Now.
	Clock func() time.Time

	// Reserved usernames are always rejected, case-insensitively.
	Reserved []string

	// Logger receives one line per submission. Nil means slog.Default().
	Logger *slog.Logger

	fallbackOnce sync.Once
	fallback     Store
}

// NewSimulator returns a Simulator with DefaultDelay backed by store.
func NewSimulator(store Store) *Simulator {
	return &Simulator{
		Delay: DefaultDelay,
		Store: store,
		Clock: time.Now,
	}
}

// Submit waits Delay, checks the username and stores a receipt.
// It returns ctx.Err() if ctx is done before the delay elapses, and a
// *FieldError wrapping ErrUsernameTaken for unavailable usernames.
func (s *Simulator) Submit(ctx context.Context, req Request) (Receipt, error) {
	logger := s.logger()
	start := time.Now()

	if err := s.wait(ctx); err != nil {
		logger.Info("submission cancelled", "username", req.Username, "error", err)
		return Receipt{}, err
	}

	username := strings.TrimSpace(req.Username)
	if s.reserved(username) {
		logger.Info("submission rejected", "username", username, "reason", "reserved")
		return Receipt{}, &FieldError{Field: "username", Err: ErrUsernameTaken}
	}

	store := s.store()
	exists, err := store.Exists(ctx, username)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: check username: %w", err)
	}
	if exists {
		logger.Info("submission rejected", "username", username, "reason", "taken")
		return Receipt{}, &FieldError{Field: "username", Err: ErrUsernameTaken}
	}

	id := uuid.NewString()
	receipt := Receipt{
		ID:                  id,
		Username:            username,
		Email:               strings.TrimSpace(req.Email),
		PasswordFingerprint: Fingerprint(id, req.Password),
		CreatedAt:           s.now().UTC(),
	}
	if err := store.Save(ctx, receipt); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return Receipt{}, &FieldError{Field: "username", Err: ErrUsernameTaken}
		}
		return Receipt{}, fmt.Errorf("submit: save receipt: %w", err)
	}

	logger.Info("account created",
		"id", receipt.ID,
		"username", receipt.Username,
		"duration", time.Since(start),
	)
	return receipt, nil
}

// Fingerprint returns the hex SHA-256 of password salted with salt.
func Fingerprint(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) reserved(username string) bool {
	for _, r := range s.Reserved {
		if strings.EqualFold(r, username) {
			return true
		}
	}
	return false
}

func (s *Simulator) store() Store {
	if s.Store != nil {
		return s.Store
	}
	s.fallbackOnce.Do(func() { s.fallback = NewMemoryStore() })
	return s.fallback
}

func (s *Simulator) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Simulator) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
