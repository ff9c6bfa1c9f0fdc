// Package metadata reads and creates per-mint metadata records in the
// Metaplex token-metadata layout.
package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// KeyMetadataV1 is the account discriminator of a metadata record.
const KeyMetadataV1 uint8 = 4

const (
	MaxNameLength     = 32
	MaxSymbolLength   = 10
	MaxURILength      = 200
	MaxCreatorLimit   = 5
	MaxBasisPoints    = 10_000
	totalCreatorShare = 100
)

var (
	ErrMissing           = errors.New("metadata: account is empty")
	ErrInvalid           = errors.New("metadata: malformed record")
	ErrNumericConversion = errors.New("metadata: rate or share out of range")
)

// Creator is one royalty recipient.
type Creator struct {
	Address  solana.PublicKey `json:"address"`
	Verified bool             `json:"verified"`
	Share    uint8            `json:"share"`
}

// Data is the user-supplied part of a metadata record. A nil Creators slice
// means the record carries no creator list.
type Data struct {
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	SellerFeeBasisPoints uint16    `json:"sellerFeeBasisPoints"`
	Creators             []Creator `json:"creators,omitempty"`
}

// Metadata is a decoded metadata account.
type Metadata struct {
	Key                 uint8            `json:"key"`
	UpdateAuthority     solana.PublicKey `json:"updateAuthority"`
	Mint                solana.PublicKey `json:"mint"`
	Data                Data             `json:"data"`
	PrimarySaleHappened bool             `json:"primarySaleHappened"`
	IsMutable           bool             `json:"isMutable"`
}

// Decode parses a metadata account. Trailing bytes are ignored since records
// are allocated with room for the longest strings.
func Decode(raw []byte) (*Metadata, error) {
	if len(raw) == 0 {
		return nil, ErrMissing
	}
	dec := bin.NewBorshDecoder(raw)
	var (
		m   Metadata
		err error
	)
	fail := func(field string) (*Metadata, error) {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, field)
	}
	if m.Key, err = dec.ReadUint8(); err != nil || m.Key != KeyMetadataV1 {
		return fail("key")
	}
	if m.UpdateAuthority, err = readKey(dec); err != nil {
		return fail("update authority")
	}
	if m.Mint, err = readKey(dec); err != nil {
		return fail("mint")
	}
	if m.Data, err = decodeData(dec); err != nil {
		return nil, err
	}
	if m.PrimarySaleHappened, err = dec.ReadBool(); err != nil {
		return fail("primary sale flag")
	}
	if m.IsMutable, err = dec.ReadBool(); err != nil {
		return fail("mutable flag")
	}
	// The royalty rate is read as stored; callers bound it against their own
	// fees.
	if err := m.Data.validateCreators(); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeData(dec *bin.Decoder) (Data, error) {
	var (
		d   Data
		err error
	)
	if d.Name, err = readString(dec, MaxNameLength); err != nil {
		return d, fmt.Errorf("%w: name", ErrInvalid)
	}
	if d.Symbol, err = readString(dec, MaxSymbolLength); err != nil {
		return d, fmt.Errorf("%w: symbol", ErrInvalid)
	}
	if d.URI, err = readString(dec, MaxURILength); err != nil {
		return d, fmt.Errorf("%w: uri", ErrInvalid)
	}
	if d.SellerFeeBasisPoints, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return d, fmt.Errorf("%w: seller fee", ErrInvalid)
	}
	present, err := dec.ReadUint8()
	if err != nil || present > 1 {
		return d, fmt.Errorf("%w: creators option", ErrInvalid)
	}
	if present == 0 {
		return d, nil
	}
	count, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil || count > MaxCreatorLimit {
		return d, fmt.Errorf("%w: creator count", ErrInvalid)
	}
	d.Creators = make([]Creator, 0, count)
	for i := uint32(0); i < count; i++ {
		var c Creator
		if c.Address, err = readKey(dec); err != nil {
			return d, fmt.Errorf("%w: creator %d", ErrInvalid, i)
		}
		if c.Verified, err = dec.ReadBool(); err != nil {
			return d, fmt.Errorf("%w: creator %d", ErrInvalid, i)
		}
		if c.Share, err = dec.ReadUint8(); err != nil {
			return d, fmt.Errorf("%w: creator %d", ErrInvalid, i)
		}
		d.Creators = append(d.Creators, c)
	}
	return d, nil
}

// Validate checks the royalty rate and creator shares.
func (d *Data) Validate() error {
	if d.SellerFeeBasisPoints > MaxBasisPoints {
		return fmt.Errorf("%w: seller fee %d bps", ErrNumericConversion, d.SellerFeeBasisPoints)
	}
	return d.validateCreators()
}

func (d *Data) validateCreators() error {
	if d.Creators == nil {
		return nil
	}
	if len(d.Creators) > MaxCreatorLimit {
		return fmt.Errorf("%w: %d creators", ErrInvalid, len(d.Creators))
	}
	total := 0
	for _, c := range d.Creators {
		total += int(c.Share)
	}
	if total != totalCreatorShare {
		return fmt.Errorf("%w: creator shares sum to %d", ErrNumericConversion, total)
	}
	return nil
}

// Encode serialises the record.
func (m *Metadata) Encode() ([]byte, error) {
	if len(m.Data.Name) > MaxNameLength || len(m.Data.Symbol) > MaxSymbolLength || len(m.Data.URI) > MaxURILength {
		return nil, fmt.Errorf("%w: string too long", ErrInvalid)
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	_ = enc.WriteUint8(m.Key)
	_ = enc.WriteBytes(m.UpdateAuthority[:], false)
	_ = enc.WriteBytes(m.Mint[:], false)
	writeString(enc, m.Data.Name)
	writeString(enc, m.Data.Symbol)
	writeString(enc, m.Data.URI)
	_ = enc.WriteUint16(m.Data.SellerFeeBasisPoints, binary.LittleEndian)
	if m.Data.Creators == nil {
		_ = enc.WriteUint8(0)
	} else {
		_ = enc.WriteUint8(1)
		_ = enc.WriteUint32(uint32(len(m.Data.Creators)), binary.LittleEndian)
		for _, c := range m.Data.Creators {
			_ = enc.WriteBytes(c.Address[:], false)
			_ = enc.WriteBool(c.Verified)
			_ = enc.WriteUint8(c.Share)
		}
	}
	_ = enc.WriteBool(m.PrimarySaleHappened)
	_ = enc.WriteBool(m.IsMutable)
	return buf.Bytes(), nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(32)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func readString(dec *bin.Decoder, max int) (string, error) {
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return "", err
	}
	if int(n) > max {
		return "", fmt.Errorf("string length %d exceeds %d", n, max)
	}
	raw, err := dec.ReadNBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeString(enc *bin.Encoder, s string) {
	_ = enc.WriteUint32(uint32(len(s)), binary.LittleEndian)
	_ = enc.WriteBytes([]byte(s), false)
}
