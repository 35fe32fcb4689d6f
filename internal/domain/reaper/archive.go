package reaper

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/okian/startrack/internal/domain/model"
)

// ArchiveExt is the suffix of archive blob keys.
const ArchiveExt = ".cbor.zst"

// Archive is the cold copy of frozen snapshots, grouped by entity.
type Archive struct {
	From      time.Time                  `cbor:"from"`
	To        time.Time                  `cbor:"to"`
	CreatedAt time.Time                  `cbor:"created_at"`
	Entities  map[int64][]model.Snapshot `cbor:"entities"`
}

// Count returns the number of snapshots in the archive.
func (a *Archive) Count() int {
	n := 0
	for _, s := range a.Entities {
		n += len(s)
	}
	return n
}

var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// Deterministic encoding: the same snapshots always produce the same bytes.
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	encMode, err = opts.EncMode()
	if err != nil {
		panic("reaper: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("reaper: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("reaper: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("reaper: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeArchive serializes a as zstd compressed CBOR.
func EncodeArchive(a *Archive) ([]byte, error) {
	raw, err := encMode.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// DecodeArchive reverses EncodeArchive.
func DecodeArchive(data []byte) (*Archive, error) {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecode, err)
	}
	var a Archive
	if err := decMode.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: cbor: %w", ErrDecode, err)
	}
	return &a, nil
}

// ArchiveKey names the blob covering [from, to], written at now.
func ArchiveKey(from, to, now time.Time) string {
	return fmt.Sprintf("%d-%d@%d%s", from.UnixMilli(), to.UnixMilli(), now.UnixMilli(), ArchiveExt)
}

// NewArchive groups snapshots by entity. snaps must be ordered by timestamp.
func NewArchive(snaps []model.Snapshot, now time.Time) *Archive {
	a := &Archive{CreatedAt: now.UTC(), Entities: make(map[int64][]model.Snapshot)}
	if len(snaps) == 0 {
		return a
	}
	a.From = snaps[0].Timestamp.UTC()
	a.To = snaps[len(snaps)-1].Timestamp.UTC()
	for _, s := range snaps {
		a.Entities[s.EntityID] = append(a.Entities[s.EntityID], s)
	}
	return a
}
