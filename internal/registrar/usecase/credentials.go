package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"gocloud.dev/secrets"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"

	// Register the supported keeper drivers.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// CredentialDecoder turns the stored credentials column into key/value credentials.
type CredentialDecoder interface {
	Decode(ctx context.Context, raw []byte) (map[string]string, error)
}

// Decrypter is the subset of *secrets.Keeper used for credentials.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// PlainCredentialDecoder reads credentials stored as a JSON object.
type PlainCredentialDecoder struct{}

// Decode implements CredentialDecoder.
func (PlainCredentialDecoder) Decode(_ context.Context, raw []byte) (map[string]string, error) {
	return decodeCredentialJSON(raw)
}

// KeeperCredentialDecoder reads credentials stored as base64 keeper ciphertext of a JSON object.
type KeeperCredentialDecoder struct {
	keeper Decrypter
}

// NewKeeperCredentialDecoder creates a decoder backed by keeper.
func NewKeeperCredentialDecoder(keeper Decrypter) *KeeperCredentialDecoder {
	return &KeeperCredentialDecoder{keeper: keeper}
}

// OpenKeeper opens a gocloud secrets keeper. Supports base64key://, hashivault://,
// awskms://, gcpkms:// and azurekeyvault:// URLs.
func OpenKeeper(ctx context.Context, keeperURI string) (*secrets.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open credentials keeper")
	}
	return keeper, nil
}

// Decode implements CredentialDecoder.
func (d *KeeperCredentialDecoder) Decode(ctx context.Context, raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode credentials ciphertext")
	}

	plaintext, err := d.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt credentials")
	}

	return decodeCredentialJSON(plaintext)
}

func decodeCredentialJSON(raw []byte) (map[string]string, error) {
	creds := map[string]string{}
	if len(raw) == 0 {
		return creds, nil
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse credentials")
	}
	return creds, nil
}
