package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrEthical07/goSession/signer"
	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minKeyLength   uint32 = 16

	paramsSeparator = "$"
)

// Argon2Params are the Argon2id cost parameters for SchemeArgon2.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultArgon2Params returns the OWASP baseline for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      19 * 1024,
		Time:        2,
		Parallelism: 1,
		KeyLength:   32,
	}
}

func (p Argon2Params) validate() error {
	if p.Memory < minMemoryKB {
		return fmt.Errorf("%w: memory must be >= %d KB", ErrInvalidArgon2Params, minMemoryKB)
	}
	if p.Time < minTimeCost {
		return fmt.Errorf("%w: time must be >= %d", ErrInvalidArgon2Params, minTimeCost)
	}
	if p.Parallelism < minParallelism {
		return fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidArgon2Params, minParallelism)
	}
	if p.KeyLength < minKeyLength {
		return fmt.Errorf("%w: key length must be >= %d", ErrInvalidArgon2Params, minKeyLength)
	}
	return nil
}

func (p Argon2Params) String() string {
	return "m=" + strconv.FormatUint(uint64(p.Memory), 10) +
		",t=" + strconv.FormatUint(uint64(p.Time), 10) +
		",p=" + strconv.FormatUint(uint64(p.Parallelism), 10) +
		",l=" + strconv.FormatUint(uint64(p.KeyLength), 10)
}

type argon2Scheme struct {
	signer *signer.Signer
	params Argon2Params
}

func (a argon2Scheme) encode(in Input) (string, error) {
	return a.params.String() + paramsSeparator + a.sign(in, a.params), nil
}

func (a argon2Scheme) verify(in Input, value string) bool {
	params, signature, err := parseArgon2Value(value)
	if err != nil {
		return false
	}
	return constantTimeEqual(a.sign(in, params), signature)
}

func (a argon2Scheme) stale(value string) bool {
	params, _, err := parseArgon2Value(value)
	if err != nil {
		return true
	}
	return a.params.Memory > params.Memory ||
		a.params.Time > params.Time ||
		a.params.Parallelism > params.Parallelism ||
		a.params.KeyLength != params.KeyLength
}

func (a argon2Scheme) sign(in Input, p Argon2Params) string {
	stretched := argon2.IDKey(
		[]byte(in.Content),
		[]byte(in.Salt),
		p.Time,
		p.Memory,
		p.Parallelism,
		p.KeyLength,
	)
	return a.signer.Sign(in.Salt, base64.RawURLEncoding.EncodeToString(stretched))
}

func parseArgon2Value(value string) (Argon2Params, string, error) {
	paramPart, signature, ok := strings.Cut(value, paramsSeparator)
	if !ok || signature == "" {
		return Argon2Params{}, "", errors.New("invalid argon2 record")
	}

	pairs := strings.Split(paramPart, ",")
	if len(pairs) != 4 {
		return Argon2Params{}, "", errors.New("invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet, keyLengthSet bool
		params                             Argon2Params
	)

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return Argon2Params{}, "", errors.New("invalid parameter entry")
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return Argon2Params{}, "", errors.New("invalid memory parameter")
			}
			params.Memory = uint32(n)
			memorySet = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return Argon2Params{}, "", errors.New("invalid time parameter")
			}
			params.Time = uint32(n)
			timeSet = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return Argon2Params{}, "", errors.New("invalid parallelism parameter")
			}
			params.Parallelism = uint8(n)
			parallelismSet = true
		case "l":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minKeyLength) {
				return Argon2Params{}, "", errors.New("invalid key length parameter")
			}
			params.KeyLength = uint32(n)
			keyLengthSet = true
		default:
			return Argon2Params{}, "", errors.New("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet || !keyLengthSet {
		return Argon2Params{}, "", errors.New("missing parameters")
	}

	return params, signature, nil
}
