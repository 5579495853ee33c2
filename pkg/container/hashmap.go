package container

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/segment"
)

// DefaultMaxLoadFactor is the load factor threshold used when a caller
// doesn't specify one.
const DefaultMaxLoadFactor = 0.75

// HashMap is a bounded open-addressing hash table with linear probing
// and tombstones. K and V must be trivially copyable, fixed-size,
// self-contained types; the map hashes and compares keys by their raw
// bit pattern, which is only sound for such types.
type HashMap[K comparable, V any] struct {
	data           []byte
	bucketCount    uint64
	maxLoadFactor  float64
	keyOff         int
	valueOff       int
	stride         uint64
}

// OpenHashMap creates or attaches to a named hash map sized to hold
// capacity key/value pairs at the given load factor (0 selects
// DefaultMaxLoadFactor). bucket_count is rounded up to a power of two
// at or above capacity/maxLoadFactor.
func OpenHashMap[K comparable, V any](seg *segment.Segment, name string, capacity uint32, maxLoadFactor float64) (*HashMap[K, V], error) {
	if maxLoadFactor <= 0 {
		maxLoadFactor = DefaultMaxLoadFactor
	}

	var k K
	var v V
	keySize := uintptr(unsafe.Sizeof(k))
	valueSize := uintptr(unsafe.Sizeof(v))
	keyOff := 8
	valueOff := keyOff + int(padTo8(keySize))
	stride := uint64(padTo8(uintptr(valueOff) + valueSize))

	var bucketCount uint32
	if capacity != 0 {
		bucketCount = nextPowerOfTwo(uint64(math.Ceil(float64(capacity) / maxLoadFactor)))
	}

	data, entry, created, err := resolve(seg, name, bucketCount, uint32(keySize+valueSize), wire.MapHeaderSize, func(c uint32) uint64 {
		return uint64(c) * stride
	})
	if err != nil {
		return nil, err
	}

	m := &HashMap[K, V]{
		data:          data,
		bucketCount:   uint64(entry.ElemCount),
		maxLoadFactor: maxLoadFactor,
		keyOff:        keyOff,
		valueOff:      valueOff,
		stride:        stride,
	}

	if created {
		wire.PutUint64(data, wire.MapHeaderBucketCountOff, m.bucketCount)
		wire.PutUint64(data, wire.MapHeaderSizeOff, 0)
		wire.PutUint64(data, wire.MapHeaderVersionOff, 0)
		wire.PutFloat32Bits(data, wire.MapHeaderMaxLoadFactorOff, math.Float32bits(float32(maxLoadFactor)))
	} else {
		bits := wire.GetFloat32Bits(data, wire.MapHeaderMaxLoadFactorOff)
		m.maxLoadFactor = float64(math.Float32frombits(bits))
	}

	return m, nil
}

func (m *HashMap[K, V]) payload() []byte { return m.data[wire.MapHeaderSize:] }

func (m *HashMap[K, V]) bucketOffset(i uint64) int { return int(i * m.stride) }

func (m *HashMap[K, V]) statePtr(i uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.payload()[m.bucketOffset(i)+wire.MapBucketStateOff]))
}

func (m *HashMap[K, V]) keyPtr(i uint64) *K {
	return (*K)(unsafe.Pointer(&m.payload()[m.bucketOffset(i)+m.keyOff]))
}

func (m *HashMap[K, V]) valuePtr(i uint64) *V {
	return (*V)(unsafe.Add(unsafe.Pointer(&m.payload()[m.bucketOffset(i)]), m.valueOff))
}

func (m *HashMap[K, V]) sizePtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&m.data[wire.MapHeaderSizeOff]))
}
func (m *HashMap[K, V]) versionPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&m.data[wire.MapHeaderVersionOff]))
}

// BucketCount returns the map's fixed bucket array length.
func (m *HashMap[K, V]) BucketCount() uint64 { return m.bucketCount }

// Size returns the current number of live entries.
func (m *HashMap[K, V]) Size() uint64 { return atomic.LoadUint64(m.sizePtr()) }

// Version returns the monotonically increasing modification counter.
func (m *HashMap[K, V]) Version() uint64 { return atomic.LoadUint64(m.versionPtr()) }

func hashKey[K comparable](k K) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&k)), unsafe.Sizeof(k))
	for _, b := range bytes {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

// Insert adds key/value if key is absent. It returns already-exists if
// the key is already present, and full if the load factor threshold is
// reached or the table is exhausted without finding a slot.
func (m *HashMap[K, V]) Insert(key K, value V) error {
	if float64(m.Size()) >= float64(m.bucketCount)*m.maxLoadFactor {
		return ErrFull
	}
	// A tombstone earlier in the probe chain would otherwise be claimed
	// even though the key is still live further along the chain.
	if _, ok := m.Find(key); ok {
		return errors.NewEntryExistsError("hashmap key")
	}

	start := hashKey(key) % m.bucketCount
	for probe := uint64(0); probe < m.bucketCount; probe++ {
		i := (start + probe) % m.bucketCount
		state := atomic.LoadUint32(m.statePtr(i))

		if state == wire.MapBucketStateOccupied {
			if *m.keyPtr(i) == key {
				return errors.NewEntryExistsError("hashmap key")
			}
			continue
		}

		if atomic.CompareAndSwapUint32(m.statePtr(i), state, wire.MapBucketStateOccupied) {
			*m.keyPtr(i) = key
			*m.valuePtr(i) = value
			atomic.AddUint64(m.sizePtr(), 1)
			atomic.AddUint64(m.versionPtr(), 1)
			return nil
		}
		probe--
	}

	return ErrFull
}

// Find returns the value stored for key, or false if no such key is
// present.
func (m *HashMap[K, V]) Find(key K) (V, bool) {
	var zero V
	start := hashKey(key) % m.bucketCount
	for probe := uint64(0); probe < m.bucketCount; probe++ {
		i := (start + probe) % m.bucketCount
		state := atomic.LoadUint32(m.statePtr(i))
		if state == wire.MapBucketStateEmpty {
			return zero, false
		}
		if state == wire.MapBucketStateOccupied && *m.keyPtr(i) == key {
			return *m.valuePtr(i), true
		}
	}
	return zero, false
}

// Erase removes key, returning false if it wasn't present. The bucket is
// marked a tombstone rather than cleared, preserving the probe chain for
// any colliding key inserted after it.
func (m *HashMap[K, V]) Erase(key K) bool {
	start := hashKey(key) % m.bucketCount
	for probe := uint64(0); probe < m.bucketCount; probe++ {
		i := (start + probe) % m.bucketCount
		state := atomic.LoadUint32(m.statePtr(i))
		if state == wire.MapBucketStateEmpty {
			return false
		}
		if state == wire.MapBucketStateOccupied && *m.keyPtr(i) == key {
			if atomic.CompareAndSwapUint32(m.statePtr(i), wire.MapBucketStateOccupied, wire.MapBucketStateTombstone) {
				atomic.AddUint64(m.sizePtr(), ^uint64(0))
				atomic.AddUint64(m.versionPtr(), 1)
				return true
			}
			return false
		}
	}
	return false
}

// ForEach walks every occupied bucket in physical order, calling fn with
// each key/value pair. It may observe a state inconsistent with any
// single wall-clock instant under concurrent modification; callers that
// need to detect that can compare Version before and after.
func (m *HashMap[K, V]) ForEach(fn func(K, V)) {
	for i := uint64(0); i < m.bucketCount; i++ {
		if atomic.LoadUint32(m.statePtr(i)) == wire.MapBucketStateOccupied {
			fn(*m.keyPtr(i), *m.valuePtr(i))
		}
	}
}

func nextPowerOfTwo(n uint64) uint32 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return uint32(p)
}
