package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// The payer key never travels through flags; it is read from the
// environment, a key file, or an encrypted keystore.
const (
	EnvPrivateKey           = "CUBEPAY_PRIVATE_KEY"
	EnvPrivateKeyFile       = "CUBEPAY_PRIVATE_KEY_FILE"
	EnvKeystorePath         = "CUBEPAY_KEYSTORE_PATH"
	EnvKeystorePassword     = "CUBEPAY_KEYSTORE_PASSWORD"
	EnvKeystorePasswordFile = "CUBEPAY_KEYSTORE_PASSWORD_FILE"

	KeySourceAuto     = "auto"
	KeySourceEnv      = "env"
	KeySourceFile     = "file"
	KeySourceKeystore = "keystore"

	defaultPrivateKeyRelativePath = "cubepay/key.hex"
)

// LocalSigner holds the payer key in process memory and signs with
// the EIP-155 signer for the plan's chain.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
}

func NewLocalSignerFromEnv(source string) (*LocalSigner, error) {
	return NewLocalSignerFromInputs(source, "")
}

// NewLocalSignerFromInputs loads the payer key named by source. An
// explicit hex override wins over every source and skips the
// environment entirely.
func NewLocalSignerFromInputs(source, privateKeyOverride string) (*LocalSigner, error) {
	if override := strings.TrimSpace(privateKeyOverride); override != "" {
		return signerFromHex(override)
	}
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", KeySourceAuto:
		return signerFromFirstAvailable()
	case KeySourceEnv:
		return signerFromHex(os.Getenv(EnvPrivateKey))
	case KeySourceFile:
		path := strings.TrimSpace(os.Getenv(EnvPrivateKeyFile))
		if path == "" {
			path = discoverDefaultPrivateKeyFile()
		}
		if path == "" {
			return nil, fmt.Errorf("missing key file: set %s or place the key at the default path", EnvPrivateKeyFile)
		}
		return signerFromKeyFile(path)
	case KeySourceKeystore:
		return signerFromKeystore(strings.TrimSpace(os.Getenv(EnvKeystorePath)))
	default:
		return nil, fmt.Errorf("unsupported key source %q (expected %s|%s|%s|%s)", source, KeySourceAuto, KeySourceEnv, KeySourceFile, KeySourceKeystore)
	}
}

// signerFromFirstAvailable probes the sources in precedence order:
// env hex, key file from the env or the default path, keystore.
func signerFromFirstAvailable() (*LocalSigner, error) {
	if hex := strings.TrimSpace(os.Getenv(EnvPrivateKey)); hex != "" {
		return signerFromHex(hex)
	}
	if path := strings.TrimSpace(os.Getenv(EnvPrivateKeyFile)); path != "" {
		return signerFromKeyFile(path)
	}
	if path := discoverDefaultPrivateKeyFile(); path != "" {
		return signerFromKeyFile(path)
	}
	if path := strings.TrimSpace(os.Getenv(EnvKeystorePath)); path != "" {
		return signerFromKeystore(path)
	}
	return nil, fmt.Errorf("missing signing key: set %s or %s or %s", EnvPrivateKey, EnvPrivateKeyFile, EnvKeystorePath)
}

func signerFromHex(raw string) (*LocalSigner, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if clean == "" {
		return nil, fmt.Errorf("empty private key: set %s", EnvPrivateKey)
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return newFromKey(pk)
}

func signerFromKeyFile(path string) (*LocalSigner, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	return signerFromHex(string(buf))
}

func signerFromKeystore(path string) (*LocalSigner, error) {
	if path == "" {
		return nil, fmt.Errorf("missing keystore: set %s", EnvKeystorePath)
	}
	password, err := keystorePassword()
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(buf, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return newFromKey(key.PrivateKey)
}

func keystorePassword() (string, error) {
	if password := strings.TrimSpace(os.Getenv(EnvKeystorePassword)); password != "" {
		return password, nil
	}
	if path := strings.TrimSpace(os.Getenv(EnvKeystorePasswordFile)); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read keystore password file: %w", err)
		}
		if password := strings.TrimSpace(string(buf)); password != "" {
			return password, nil
		}
	}
	return "", fmt.Errorf("keystore password is required: set %s or %s", EnvKeystorePassword, EnvKeystorePasswordFile)
}

func newFromKey(pk *ecdsa.PrivateKey) (*LocalSigner, error) {
	pub, ok := pk.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid ECDSA public key")
	}
	return &LocalSigner{privateKey: pk, address: crypto.PubkeyToAddress(*pub)}, nil
}

func discoverDefaultPrivateKeyFile() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	path := filepath.Join(base, defaultPrivateKeyRelativePath)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
