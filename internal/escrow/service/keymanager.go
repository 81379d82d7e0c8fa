package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/idx"
	"github.com/subsplit/escrow/pkg/slogx"
)

// KeyManagerService owns the asymmetric key lifecycle: generation, lookup,
// rotation, and the rotation worklist. Private keys are wrapped under the
// process master key before storage and unwrapped only inside this service.
type KeyManagerService struct {
	Store        store.Store
	Audit        *AuditService
	Algorithm    string        // cryptox.AlgorithmRSA2048 or AlgorithmECP256
	KeyExpiry    time.Duration // advisory lifetime driving the rotation worklist
	GracePeriod  time.Duration // rotated keys keep decrypting for this long
	RotationLead time.Duration // worklist horizon before expiry

	// Keygen is CPU-heavy (especially RSA), so concurrent generation is
	// bounded. Zero workers means a default of 4.
	Workers int64

	semOnce sync.Once
	sem     *semaphore.Weighted

	// One rotation at a time per (keyType, relatedID) scope.
	scopeMu sync.Mutex
	scopes  map[string]*sync.Mutex
}

func (s *KeyManagerService) keygenSem() *semaphore.Weighted {
	s.semOnce.Do(func() {
		workers := s.Workers
		if workers <= 0 {
			workers = 4
		}
		s.sem = semaphore.NewWeighted(workers)
	})
	return s.sem
}

func (s *KeyManagerService) scopeLock(keyType domain.KeyType, relatedID *string) *sync.Mutex {
	scope := string(keyType)
	if relatedID != nil {
		scope += ":" + *relatedID
	}

	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	if s.scopes == nil {
		s.scopes = make(map[string]*sync.Mutex)
	}
	mu, ok := s.scopes[scope]
	if !ok {
		mu = &sync.Mutex{}
		s.scopes[scope] = mu
	}
	return mu
}

// generate produces a wrapped key record without persisting it.
func (s *KeyManagerService) generate(ctx context.Context, keyType domain.KeyType, relatedID *string) (domain.Key, error) {
	if err := s.keygenSem().Acquire(ctx, 1); err != nil {
		return domain.Key{}, err
	}
	privatePEM, publicPEM, err := cryptox.GenerateKeyPair(s.Algorithm)
	s.keygenSem().Release(1)
	if err != nil {
		return domain.Key{}, fmt.Errorf("generate key pair: %w", err)
	}

	wrapped, err := cryptox.WrapPrivateKey(privatePEM)
	if err != nil {
		return domain.Key{}, fmt.Errorf("wrap private key: %w", err)
	}

	now := time.Now().UTC()
	return domain.Key{
		ID:                  idx.New().String(),
		KeyType:             keyType,
		RelatedID:           relatedID,
		Algorithm:           s.Algorithm,
		PublicKey:           publicPEM,
		PrivateKeyEncrypted: wrapped,
		FormatVersion:       1,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.KeyExpiry),
	}, nil
}

// EnsureKeyPair returns the active key for a scope, generating one if the
// scope has none yet. Safe for concurrent callers; the unique active-scope
// index breaks ties and the loser re-reads the winner's key.
func (s *KeyManagerService) EnsureKeyPair(ctx context.Context, keyType domain.KeyType, relatedID *string) (domain.Key, error) {
	key, err := s.Store.Keys().GetActiveKey(ctx, keyType, relatedID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Key{}, err
	}

	mu := s.scopeLock(keyType, relatedID)
	mu.Lock()
	defer mu.Unlock()

	// Another caller may have won the race while we waited for the lock.
	key, err = s.Store.Keys().GetActiveKey(ctx, keyType, relatedID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Key{}, err
	}

	key, err = s.generate(ctx, keyType, relatedID)
	if err != nil {
		s.Audit.Record(ctx, "system", domain.AuditActionKeyGenerated, "key", scopeLabel(keyType, relatedID), domain.AuditOutcomeFailure, err.Error())
		return domain.Key{}, err
	}
	if err := s.Store.Keys().CreateKey(ctx, key); err != nil {
		return domain.Key{}, err
	}

	s.Audit.Record(ctx, "system", domain.AuditActionKeyGenerated, "key", key.ID, domain.AuditOutcomeSuccess, "")
	return key, nil
}

// GetPublicKey returns the parsed public key of the active key for a scope.
// Rotated keys are never served for encryption.
func (s *KeyManagerService) GetPublicKey(ctx context.Context, keyType domain.KeyType, relatedID *string) (any, domain.Key, error) {
	key, err := s.Store.Keys().GetActiveKey(ctx, keyType, relatedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Key{}, ErrKeyNotFound
		}
		return nil, domain.Key{}, err
	}

	pub, err := cryptox.ParsePublicKey(key.PublicKey)
	if err != nil {
		return nil, domain.Key{}, fmt.Errorf("parse public key %s: %w", key.ID, err)
	}
	return pub, key, nil
}

// GetPrivateKey unwraps and parses the private key for a key id. Active keys
// always qualify; rotated keys qualify only inside the decrypt grace window,
// so old ciphertext stays readable across a rotation but not forever.
func (s *KeyManagerService) GetPrivateKey(ctx context.Context, keyID string) (any, error) {
	key, err := s.Store.Keys().GetKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	if !key.IsActive() && !key.InDecryptGrace(now, s.GracePeriod) {
		s.Audit.Record(ctx, "system", domain.AuditActionKeyAccessed, "key", key.ID, domain.AuditOutcomeFailure, "decrypt grace expired")
		return nil, ErrKeyGraceOver
	}

	pemData, err := cryptox.UnwrapPrivateKey(key.PrivateKeyEncrypted)
	if err != nil {
		s.Audit.Record(ctx, "system", domain.AuditActionKeyAccessed, "key", key.ID, domain.AuditOutcomeFailure, err.Error())
		return nil, fmt.Errorf("unwrap private key %s: %w", key.ID, err)
	}

	priv, err := cryptox.ParsePrivateKey(pemData)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", key.ID, err)
	}

	s.Audit.Record(ctx, "system", domain.AuditActionKeyAccessed, "key", key.ID, domain.AuditOutcomeSuccess, "")
	return priv, nil
}

// RotateKey retires the active key for a scope and installs a fresh pair in
// the same transaction. The retired key remains usable for decryption during
// the grace period. Callers re-encrypt payloads under the new key at their
// own pace.
func (s *KeyManagerService) RotateKey(ctx context.Context, actorID string, keyType domain.KeyType, relatedID *string) (domain.Key, error) {
	l := slogx.FromContext(ctx)

	mu := s.scopeLock(keyType, relatedID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.Store.Keys().GetActiveKey(ctx, keyType, relatedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Key{}, ErrKeyNotFound
		}
		return domain.Key{}, err
	}

	replacement, err := s.generate(ctx, keyType, relatedID)
	if err != nil {
		s.Audit.Record(ctx, actorID, domain.AuditActionKeyRotated, "key", current.ID, domain.AuditOutcomeFailure, err.Error())
		return domain.Key{}, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Keys().RotateKeyRecord(ctx, current.ID, now); err != nil {
			return err
		}
		return tx.Keys().CreateKey(ctx, replacement)
	})
	if err != nil {
		s.Audit.Record(ctx, actorID, domain.AuditActionKeyRotated, "key", current.ID, domain.AuditOutcomeFailure, err.Error())
		return domain.Key{}, err
	}

	l.Info("key rotated",
		"key_type", string(keyType),
		"retired", current.ID,
		"replacement", replacement.ID,
	)
	s.Audit.Record(ctx, actorID, domain.AuditActionKeyRotated, "key", replacement.ID, domain.AuditOutcomeSuccess, "retired "+current.ID)
	return replacement, nil
}

// ListKeysRequiringRotation returns active keys whose expiry falls within
// the rotation lead window. Rotation itself stays a deliberate operation;
// this only builds the worklist.
func (s *KeyManagerService) ListKeysRequiringRotation(ctx context.Context) ([]domain.Key, error) {
	cutoff := time.Now().UTC().Add(s.RotationLead)
	return s.Store.Keys().ListKeysExpiringBefore(ctx, "", cutoff)
}

// PurgeExpiredGraceKeys deletes rotated keys whose decrypt grace has lapsed.
// Ciphertext wrapped under them is unrecoverable afterwards, which is the
// point: rotation must eventually revoke, not just hide, old keys.
func (s *KeyManagerService) PurgeExpiredGraceKeys(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.GracePeriod)
	return s.Store.Keys().DeleteKeysRotatedBefore(ctx, cutoff)
}

func scopeLabel(keyType domain.KeyType, relatedID *string) string {
	if relatedID == nil {
		return string(keyType)
	}
	return string(keyType) + ":" + *relatedID
}
