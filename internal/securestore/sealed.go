package securestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Sealed encrypts values with an age X25519 identity before handing them to
// the inner store. Stored values are base64 ciphertext.
type Sealed struct {
	inner    Store
	identity *age.X25519Identity
}

func NewSealed(inner Store, identity *age.X25519Identity) *Sealed {
	return &Sealed{inner: inner, identity: identity}
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	encoded, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding sealed %s: %w", key, err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", key, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted %s: %w", key, err)
	}
	return string(plaintext), nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// LoadOrCreateIdentity reads an age identity from path, generating and
// writing a new one (0600) when the file does not exist.
func LoadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	if path == "" {
		return nil, errors.New("securestore: empty identity path")
	}
	data, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parsing identity %s: %w", path, err)
		}
		return identity, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading identity: %w", err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing identity: %w", err)
	}
	return identity, nil
}
