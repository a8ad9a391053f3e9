package core

// Address is a validated wallet address. The zero value is "no address".
type Address struct {
	prefix  string
	payload string
}

// NewAddress assembles an Address from an already validated, lowercase
// prefix and payload (checksum included). Codecs are the only callers.
func NewAddress(prefix, payload string) Address {
	return Address{prefix: prefix, payload: payload}
}

func (a Address) IsZero() bool {
	return a.payload == ""
}

// Payload returns the prefix-stripped internal representation.
func (a Address) Payload() string {
	return a.payload
}

func (a Address) Prefix() string {
	return a.prefix
}

func (a Address) String() string {
	if a.IsZero() {
		return ""
	}

	return a.prefix + a.payload
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type AddressCodec interface {
	Validate(raw string) (Address, error)
	Encode(payload string) (Address, error)
}
