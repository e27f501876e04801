// Package config defines the enum types shared across encrypt/decrypt:
// which KEM and DEM a ciphertext uses, and the current wire version.
package config

import "fmt"

// KemType selects the key-encapsulation scheme.
type KemType string

func (k KemType) String() string { return string(k) }

func (k KemType) Uint8() (uint8, error) {
	return ConvertKemTypeToEnum(k)
}

const (
	KemTypeUnknown                     KemType = "unknown"
	KemTypeBonehFranklinBLS12381DemCCA KemType = "boneh-franklin-bls12381-dem-cca"
)

func ConvertKemTypeToEnum(kemType KemType) (uint8, error) {
	switch kemType {
	case KemTypeUnknown:
		return 0, nil
	case KemTypeBonehFranklinBLS12381DemCCA:
		return 1, nil
	default:
		return 0, fmt.Errorf("config: unsupported kem type: %s", kemType)
	}
}

func ConvertEnumToKemType(enumValue uint8) (KemType, error) {
	switch enumValue {
	case 0:
		return KemTypeUnknown, nil
	case 1:
		return KemTypeBonehFranklinBLS12381DemCCA, nil
	default:
		return "", fmt.Errorf("config: unsupported kem type enum value: %d", enumValue)
	}
}

// DemType selects the data-encapsulation mode.
type DemType string

func (d DemType) String() string { return string(d) }

func (d DemType) Uint8() (uint8, error) {
	return ConvertDemTypeToEnum(d)
}

const (
	DemTypeUnknown    DemType = "unknown"
	DemTypeAesGcm256  DemType = "aes-gcm-256"
	DemTypeHmac256Ctr DemType = "hmac-256-ctr"
	DemTypePlain      DemType = "plain"
)

func ConvertDemTypeToEnum(demType DemType) (uint8, error) {
	switch demType {
	case DemTypeUnknown:
		return 0, nil
	case DemTypeAesGcm256:
		return 1, nil
	case DemTypeHmac256Ctr:
		return 2, nil
	case DemTypePlain:
		return 3, nil
	default:
		return 0, fmt.Errorf("config: unsupported dem type: %s", demType)
	}
}

func ConvertEnumToDemType(enumValue uint8) (DemType, error) {
	switch enumValue {
	case 0:
		return DemTypeUnknown, nil
	case 1:
		return DemTypeAesGcm256, nil
	case 2:
		return DemTypeHmac256Ctr, nil
	case 3:
		return DemTypePlain, nil
	default:
		return "", fmt.Errorf("config: unsupported dem type enum value: %d", enumValue)
	}
}

// WireVersion is the current EncryptedObject wire-format version byte.
const WireVersion = 0

// DefaultTimeoutMs is the default per-request fetch timeout.
const DefaultTimeoutMs = 10000

// ClientSdkType and ClientSdkVersion are sent as headers on every
// fetch_key request so key servers can log which client version called them.
const (
	ClientSdkType    = "seal-go"
	ClientSdkVersion = "0.1.0"
)
