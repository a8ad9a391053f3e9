package address

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/drm-wallet/core"
	"github.com/zeebo/blake3"
)

const (
	ChecksumBlake3 = "blake3"
	ChecksumSHA256 = "sha256"
)

type Params struct {
	Prefix         string `valid:"required,lowercase" mapstructure:"prefix"`
	PayloadLength  int    `valid:"required" mapstructure:"payload_length"`
	ChecksumLength int    `mapstructure:"checksum_length"`
	Checksum       string `valid:"in(blake3|sha256)" mapstructure:"checksum"`
}

var (
	DefaultParams = Params{
		Prefix:         "drm1",
		PayloadLength:  32,
		ChecksumLength: 8,
		Checksum:       ChecksumBlake3,
	}

	// FixtureParams accepts the unchecksummed 43 character addresses used by
	// the mobile client fixtures.
	FixtureParams = Params{
		Prefix:        "drm1",
		PayloadLength: 39,
		Checksum:      ChecksumBlake3,
	}
)

type codec struct {
	params Params
}

func New(params Params) core.AddressCodec {
	if _, err := govalidator.ValidateStruct(params); err != nil {
		panic(err)
	}

	if params.ChecksumLength%2 != 0 || params.ChecksumLength > 2*sha256.Size {
		panic(fmt.Errorf("invalid checksum length %d", params.ChecksumLength))
	}

	return &codec{params: params}
}

func (c *codec) checksum(payload string) string {
	if c.params.ChecksumLength == 0 {
		return ""
	}

	data := []byte(c.params.Prefix + payload)

	var sum [32]byte
	switch c.params.Checksum {
	case ChecksumSHA256:
		sum = sha256.Sum256(data)
	default:
		sum = blake3.Sum256(data)
	}

	return hex.EncodeToString(sum[:c.params.ChecksumLength/2])
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if (b < '0' || b > '9') && (b < 'a' || b > 'z') {
			return false
		}
	}

	return true
}

func (c *codec) Validate(raw string) (core.Address, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if !strings.HasPrefix(s, c.params.Prefix) {
		return core.Address{}, &core.AddressError{Kind: core.AddressMalformedPrefix, Input: raw}
	}

	rest := s[len(c.params.Prefix):]
	if len(rest) != c.params.PayloadLength+c.params.ChecksumLength {
		return core.Address{}, &core.AddressError{Kind: core.AddressInvalidLength, Input: raw}
	}

	if !isAlphanumeric(rest) {
		return core.Address{}, &core.AddressError{Kind: core.AddressInvalidCharacter, Input: raw}
	}

	payload, sum := rest[:c.params.PayloadLength], rest[c.params.PayloadLength:]
	if sum != c.checksum(payload) {
		return core.Address{}, &core.AddressError{Kind: core.AddressChecksumMismatch, Input: raw}
	}

	return core.NewAddress(c.params.Prefix, rest), nil
}

func (c *codec) Encode(payload string) (core.Address, error) {
	payload = strings.ToLower(payload)
	if len(payload) != c.params.PayloadLength {
		return core.Address{}, &core.AddressError{Kind: core.AddressInvalidLength, Input: payload}
	}

	if !isAlphanumeric(payload) {
		return core.Address{}, &core.AddressError{Kind: core.AddressInvalidCharacter, Input: payload}
	}

	return core.NewAddress(c.params.Prefix, payload+c.checksum(payload)), nil
}
