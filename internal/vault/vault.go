// Package vault persists JSON documents inside an authenticated-encryption
// envelope keyed by a single secret.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/hkdf"
	"go.uber.org/zap"
)

const (
	envelopeVersion = 1
	algorithm       = "AES-256-GCM"
	kdfName         = "HKDF-SHA256"
	saltSize        = 16
	keySize         = 32
	hkdfInfo        = "resale-cli vault v1"
)

var (
	// ErrMissingSecret is returned when no vault secret is configured.
	ErrMissingSecret = eris.New("vault: secret is not set")
	// ErrNotFound is returned when the envelope file does not exist.
	ErrNotFound = eris.New("vault: document not found")
	// ErrDecrypt is returned for a wrong key or a corrupt envelope.
	ErrDecrypt = eris.New("vault: decryption failed")
)

// Envelope is the on-disk form of an encrypted document.
type Envelope struct {
	Version    int    `json:"version"`
	Alg        string `json:"alg"`
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

// Vault reads and writes encrypted JSON documents. A Vault does not
// serialize concurrent writers to the same path.
type Vault struct {
	secret []byte
}

// New creates a Vault for the given secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Vault{secret: []byte(secret)}, nil
}

// Load decrypts the envelope at path and decodes its plaintext into v.
func (vt *Vault) Load(path string, v any) error {
	plaintext, err := vt.LoadRaw(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return eris.Wrapf(err, "vault: decode plaintext %s", path)
	}
	return nil
}

// LoadOptional behaves like Load but reports false instead of an error
// when the file does not exist.
func (vt *Vault) LoadOptional(path string, v any) (bool, error) {
	if err := vt.Load(path, v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LoadRaw decrypts the envelope at path and returns the plaintext JSON.
func (vt *Vault) LoadRaw(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "vault: %s", path)
		}
		return nil, eris.Wrapf(err, "vault: read %s", path)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrapf(ErrDecrypt, "vault: malformed envelope %s: %v", path, err)
	}
	plaintext, err := vt.open(env)
	if err != nil {
		return nil, eris.Wrapf(err, "vault: open %s", path)
	}
	return plaintext, nil
}

// Save serializes v, encrypts it, and replaces the file at path.
func (vt *Vault) Save(v any, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "vault: encode plaintext")
	}
	return vt.SaveRaw(buf.Bytes(), path)
}

// SaveRaw encrypts already-serialized JSON and replaces the file at path.
func (vt *Vault) SaveRaw(plaintext []byte, path string) error {
	if !json.Valid(plaintext) {
		return eris.Errorf("vault: plaintext for %s is not valid JSON", path)
	}
	env, err := vt.seal(plaintext)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return eris.Wrap(err, "vault: encode envelope")
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	zap.L().Debug("vault: saved document", zap.String("path", path), zap.Int("bytes", len(plaintext)))
	return nil
}

// Update loads the document at path into v, applies fn, and saves the
// result. Nothing is written when fn returns an error.
func (vt *Vault) Update(path string, v any, fn func() error) error {
	if err := vt.Load(path, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return vt.Save(v, path)
}

func (vt *Vault) seal(plaintext []byte) (*Envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, eris.Wrap(err, "vault: generate salt")
	}
	gcm, err := vt.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, eris.Wrap(err, "vault: generate nonce")
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - gcm.Overhead()

	enc := base64.StdEncoding
	return &Envelope{
		Version:    envelopeVersion,
		Alg:        algorithm,
		KDF:        kdfName,
		Salt:       enc.EncodeToString(salt),
		Nonce:      enc.EncodeToString(nonce),
		Ciphertext: enc.EncodeToString(sealed[:split]),
		Tag:        enc.EncodeToString(sealed[split:]),
	}, nil
}

func (vt *Vault) open(env Envelope) ([]byte, error) {
	if env.Version != envelopeVersion || env.Alg != algorithm || env.KDF != kdfName {
		return nil, eris.Wrapf(ErrDecrypt, "unsupported envelope v%d %s/%s", env.Version, env.Alg, env.KDF)
	}

	enc := base64.StdEncoding
	salt, err := enc.DecodeString(env.Salt)
	if err != nil {
		return nil, eris.Wrap(ErrDecrypt, "decode salt")
	}
	nonce, err := enc.DecodeString(env.Nonce)
	if err != nil {
		return nil, eris.Wrap(ErrDecrypt, "decode nonce")
	}
	ciphertext, err := enc.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, eris.Wrap(ErrDecrypt, "decode ciphertext")
	}
	tag, err := enc.DecodeString(env.Tag)
	if err != nil {
		return nil, eris.Wrap(ErrDecrypt, "decode tag")
	}

	gcm, err := vt.aead(salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return nil, eris.Wrap(ErrDecrypt, "bad nonce or tag length")
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, eris.Wrap(ErrDecrypt, "authenticate")
	}
	return plaintext, nil
}

func (vt *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, vt.secret, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, eris.Wrap(err, "vault: derive key")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, eris.Wrap(err, "vault: new cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, eris.Wrap(err, "vault: new gcm")
	}
	return gcm, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return eris.Wrapf(err, "vault: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "vault: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "vault: write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "vault: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "vault: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "vault: replace %s", path)
	}
	return nil
}
